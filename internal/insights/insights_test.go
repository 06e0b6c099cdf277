package insights

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csinsight/ticket-classifier/internal/domain"
	"github.com/csinsight/ticket-classifier/internal/report"
	"github.com/csinsight/ticket-classifier/internal/testhelpers"
)

type countingRecorder struct {
	statuses []string
}

func (r *countingRecorder) RecordInsights(_ context.Context, status string) {
	r.statuses = append(r.statuses, status)
}

func successPayload() *report.Payload {
	return &report.Payload{
		ReturnCode: report.ReturnCodeSuccess,
		Meta:       report.Meta{TotalTickets: 10, EngineName: domain.EngineRuleBased},
		CategoryInfo: []report.CategoryInfo{
			{Category: domain.CategoryShipping, Count: 6, Ratio: 0.6, Keywords: []string{"배송", "지연"}},
			{Category: domain.CategoryPayment, Count: 4, Ratio: 0.4, Keywords: []string{"환불"}},
		},
		ChannelInfo: []report.ChannelInfo{
			{Channel: "web", Count: 7, Ratio: 0.7},
			{Channel: "call", Count: 3, Ratio: 0.3},
		},
		ReliabilityInfo: report.ReliabilityInfo{AvgConfidence: 0.82},
	}
}

func TestGenerator_Generate_TemplateFallback(t *testing.T) {
	recorder := &countingRecorder{}
	gen := NewGenerator(Config{Model: "claude-3-5-haiku-latest"}, recorder, testhelpers.NopLogger{})

	rep := gen.Generate(context.Background(), successPayload())
	require.NotNil(t, rep)

	assert.Equal(t, GeneratedByFallback, rep.Generated)
	assert.Contains(t, rep.Summary, "총 10건")
	assert.Contains(t, rep.Summary, domain.CategoryShipping)
	assert.Contains(t, rep.Insight, "배송")
	assert.Contains(t, rep.OverallInsight, "web")
	assert.Contains(t, rep.OverallInsight, "82.0%")
	assert.Contains(t, rep.Solution, domain.CategoryShipping)
	assert.Equal(t, []string{"fallback"}, recorder.statuses)
}

func TestGenerator_Generate_EmptyPayload(t *testing.T) {
	gen := NewGenerator(Config{}, nil, testhelpers.NopLogger{})

	rep := gen.Generate(context.Background(), &report.Payload{ReturnCode: report.ReturnCodeEmpty})
	require.NotNil(t, rep)

	assert.Equal(t, GeneratedByFallback, rep.Generated)
	assert.Equal(t, "분류된 문의가 없습니다.", rep.Summary)
	assert.NotEmpty(t, rep.Solution)
}

func TestGenerator_Generate_RateLimited(t *testing.T) {
	recorder := &countingRecorder{}
	// A key is configured but the one-per-minute allowance is exhausted by
	// the first call, so the second must degrade to the template.
	gen := NewGenerator(Config{APIKey: "test-key", RatePerMinute: 1}, recorder, testhelpers.NopLogger{})
	require.True(t, gen.limiter.Allow())

	rep := gen.Generate(context.Background(), successPayload())
	require.NotNil(t, rep)
	assert.Equal(t, GeneratedByFallback, rep.Generated)
	assert.Equal(t, []string{"fallback"}, recorder.statuses)
}

func TestParseReport(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{
			name: "plain json",
			text: `{"summary":"s","insight":"i","overall_insight":"o","solution":"sol"}`,
		},
		{
			name: "fenced json",
			text: "```json\n{\"summary\":\"s\",\"insight\":\"i\",\"overall_insight\":\"o\",\"solution\":\"sol\"}\n```",
		},
		{
			name: "bare fence",
			text: "```\n{\"summary\":\"s\"}\n```",
		},
		{
			name:    "not json",
			text:    "죄송하지만 분석할 수 없습니다.",
			wantErr: true,
		},
		{
			name:    "missing summary",
			text:    `{"insight":"i"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep, err := parseReport(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "s", rep.Summary)
		})
	}
}

func TestBuildUserPrompt(t *testing.T) {
	prompt := buildUserPrompt(successPayload())

	assert.Contains(t, prompt, "total tickets: 10")
	assert.Contains(t, prompt, domain.CategoryShipping)
	assert.Contains(t, prompt, "60.0%")
	assert.Contains(t, prompt, "avg confidence: 0.820")
}

func TestTopChannel(t *testing.T) {
	assert.Nil(t, topChannel(nil))

	channels := []report.ChannelInfo{
		{Channel: "call", Count: 3},
		{Channel: "web", Count: 7},
	}
	top := topChannel(channels)
	require.NotNil(t, top)
	assert.Equal(t, "web", top.Channel)
}
