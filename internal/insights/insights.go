// Package insights generates the narrative report text shown alongside the
// classification charts. Generation goes through the Anthropic API when a key
// is configured and falls back to deterministic templates otherwise, so the
// endpoint never fails because of the upstream model.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"golang.org/x/time/rate"

	"github.com/csinsight/ticket-classifier/internal/report"
)

const (
	// statusOK and statusFallback label the telemetry counter.
	statusOK       = "ok"
	statusFallback = "fallback"

	minutesPerWindow = 60.0
)

// Report is the narrative block rendered under the charts.
type Report struct {
	Summary        string `json:"summary"`
	Insight        string `json:"insight"`
	OverallInsight string `json:"overall_insight"`
	Solution       string `json:"solution"`
	Generated      string `json:"generated"`
}

// Generation source markers.
const (
	GeneratedByModel    = "model"
	GeneratedByFallback = "template"
)

// Logger defines the logging interface.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Recorder receives one counter increment per generation. Satisfied by the
// telemetry provider.
type Recorder interface {
	RecordInsights(ctx context.Context, status string)
}

// Generator produces narrative reports from run payloads.
type Generator struct {
	client    *anthropic.Client
	model     string
	maxTokens int
	limiter   *rate.Limiter
	recorder  Recorder
	logger    Logger
}

// Config holds generator settings.
type Config struct {
	APIKey        string
	Model         string
	MaxTokens     int
	RatePerMinute int
}

// NewGenerator creates a narrative report generator. With an empty API key
// every report comes from the template fallback.
func NewGenerator(cfg Config, recorder Recorder, logger Logger) *Generator {
	g := &Generator{
		model:     cfg.Model,
		maxTokens: cfg.MaxTokens,
		recorder:  recorder,
		logger:    logger,
	}
	if cfg.APIKey != "" {
		client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
		g.client = &client
	}
	if cfg.RatePerMinute > 0 {
		g.limiter = rate.NewLimiter(rate.Limit(float64(cfg.RatePerMinute)/minutesPerWindow), cfg.RatePerMinute)
	}
	return g
}

// Generate produces the narrative report for a run payload. It never returns
// an error from the upstream model: any failure degrades to the template
// fallback.
func (g *Generator) Generate(ctx context.Context, payload *report.Payload) *Report {
	if g.client == nil {
		return g.fallback(ctx, payload)
	}
	if g.limiter != nil && !g.limiter.Allow() {
		g.logger.Warn("insights rate limit reached, using template fallback")
		return g.fallback(ctx, payload)
	}

	rep, err := g.callModel(ctx, payload)
	if err != nil {
		g.logger.Warn("insights model call failed, using template fallback", "error", err)
		return g.fallback(ctx, payload)
	}

	rep.Generated = GeneratedByModel
	if g.recorder != nil {
		g.recorder.RecordInsights(ctx, statusOK)
	}
	return rep
}

func (g *Generator) callModel(ctx context.Context, payload *report.Payload) (*Report, error) {
	message, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: int64(g.maxTokens),
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildUserPrompt(payload))),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic api: %w", err)
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return parseReport(block.Text)
		}
	}
	return nil, fmt.Errorf("no text content in model response")
}

const systemPrompt = `You are a customer support analytics assistant. You are
given the aggregate results of a CS ticket classification run in JSON.
Write a short Korean-language narrative with four parts:
- summary: one or two sentences describing the overall ticket distribution
- insight: the most notable per-category or per-channel pattern
- overall_insight: what the numbers imply about support operations
- solution: one concrete, actionable recommendation

Respond with JSON only (no markdown):
{"summary": "...", "insight": "...", "overall_insight": "...", "solution": "..."}`

func buildUserPrompt(payload *report.Payload) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("total tickets: %d\n", payload.Meta.TotalTickets))
	b.WriteString(fmt.Sprintf("engine: %s\n", payload.Meta.EngineName))
	b.WriteString("category distribution:\n")
	for _, c := range payload.CategoryInfo {
		b.WriteString(fmt.Sprintf("- %s: %d (%.1f%%), keywords: %s\n",
			c.Category, c.Count, c.Ratio*100, strings.Join(c.Keywords, ", ")))
	}
	b.WriteString("channel distribution:\n")
	for _, ch := range payload.ChannelInfo {
		b.WriteString(fmt.Sprintf("- %s: %d (%.1f%%)\n", ch.Channel, ch.Count, ch.Ratio*100))
	}
	b.WriteString(fmt.Sprintf("avg confidence: %.3f\n", payload.ReliabilityInfo.AvgConfidence))
	return b.String()
}

func parseReport(text string) (*Report, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var rep Report
	if err := json.Unmarshal([]byte(text), &rep); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}
	if rep.Summary == "" {
		return nil, fmt.Errorf("model response missing summary")
	}
	return &rep, nil
}

// fallback builds the deterministic template report from the payload's own
// numbers.
func (g *Generator) fallback(ctx context.Context, payload *report.Payload) *Report {
	if g.recorder != nil {
		g.recorder.RecordInsights(ctx, statusFallback)
	}

	rep := &Report{Generated: GeneratedByFallback}
	total := payload.Meta.TotalTickets

	if total == 0 || len(payload.CategoryInfo) == 0 {
		rep.Summary = "분류된 문의가 없습니다."
		rep.Insight = "분석할 데이터가 없습니다."
		rep.OverallInsight = "문의 데이터를 업로드한 뒤 분류를 실행해 주세요."
		rep.Solution = "파일 업로드 후 자동 분류를 다시 실행해 주세요."
		return rep
	}

	top := payload.CategoryInfo[0]
	rep.Summary = fmt.Sprintf("총 %d건의 문의가 %d개 카테고리로 분류되었으며, '%s' 문의가 %d건(%.1f%%)으로 가장 많았습니다.",
		total, len(payload.CategoryInfo), top.Category, top.Count, top.Ratio*100)

	if len(top.Keywords) > 0 {
		rep.Insight = fmt.Sprintf("'%s' 카테고리에서는 '%s' 관련 문의가 두드러집니다.",
			top.Category, strings.Join(top.Keywords, "', '"))
	} else {
		rep.Insight = fmt.Sprintf("'%s' 카테고리의 비중이 가장 높습니다.", top.Category)
	}

	if ch := topChannel(payload.ChannelInfo); ch != nil {
		rep.OverallInsight = fmt.Sprintf("문의는 주로 %s 채널을 통해 접수되고 있으며(%d건), 평균 분류 신뢰도는 %.1f%%입니다.",
			ch.Channel, ch.Count, payload.ReliabilityInfo.AvgConfidence*100)
	} else {
		rep.OverallInsight = fmt.Sprintf("평균 분류 신뢰도는 %.1f%%입니다.",
			payload.ReliabilityInfo.AvgConfidence*100)
	}

	rep.Solution = fmt.Sprintf("'%s' 관련 프로세스를 우선 점검하고, 반복 문의에 대한 자동 응답 템플릿 도입을 검토해 주세요.", top.Category)
	return rep
}

func topChannel(channels []report.ChannelInfo) *report.ChannelInfo {
	var top *report.ChannelInfo
	for i := range channels {
		if top == nil || channels[i].Count > top.Count {
			top = &channels[i]
		}
	}
	return top
}
