package report

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csinsight/ticket-classifier/internal/aggregate"
	"github.com/csinsight/ticket-classifier/internal/domain"
)

func testRun() *domain.ClassificationRun {
	from := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	to := time.Date(2026, 2, 28, 18, 0, 0, 0, time.UTC)
	fileID := int64(7)
	return &domain.ClassificationRun{
		ID:         42,
		UserID:     1,
		FileID:     &fileID,
		EngineName: domain.EngineRuleBased,
		TotalCount: 4,
		PeriodFrom: &from,
		PeriodTo:   &to,
		CreatedAt:  time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestBuild(t *testing.T) {
	run := testRun()
	categoryStats := []domain.CategoryStat{
		{CategoryID: 3, CategoryName: domain.CategoryShipping, Count: 3, Ratio: 0.75,
			Keywords: []string{"배송", "지연", "택배", "운송", "배달", "추적", "도착"}},
		{CategoryID: 5, CategoryName: domain.CategoryPayment, Count: 1, Ratio: 0.25,
			Keywords: []string{"환불"}},
	}
	channelStats := []domain.ChannelStat{
		{Channel: "web", CategoryID: 3, CategoryName: domain.CategoryShipping, Count: 2, Ratio: 0.666667},
		{Channel: "web", CategoryID: 5, CategoryName: domain.CategoryPayment, Count: 1, Ratio: 0.333333},
		{Channel: "call", CategoryID: 3, CategoryName: domain.CategoryShipping, Count: 1, Ratio: 1},
	}
	reliability := domain.ReliabilityStat{
		Split:         domain.ReliabilitySplit,
		Accuracy:      0.838,
		MacroF1:       0.796,
		MicroF1:       0.821,
		AvgConfidence: 0.8375,
	}
	exemplars := map[string][]aggregate.Exemplar{
		domain.CategoryShipping: {{Channel: "web", Category: domain.CategoryShipping}},
	}

	payload := Build(run, categoryStats, channelStats, reliability, exemplars)

	assert.Equal(t, ReturnCodeSuccess, payload.ReturnCode)
	assert.Empty(t, payload.Message)
	assert.Equal(t, int64(42), payload.ClassResultID)

	require.NotNil(t, payload.Period)
	require.NotNil(t, payload.Period.From)
	require.NotNil(t, payload.Period.To)
	assert.Equal(t, "2026-02-01", *payload.Period.From)
	assert.Equal(t, "2026-02-28", *payload.Period.To)

	assert.Equal(t, int64(1), payload.Meta.UserID)
	require.NotNil(t, payload.Meta.FileID)
	assert.Equal(t, int64(7), *payload.Meta.FileID)
	assert.Nil(t, payload.Meta.BatchID)
	assert.Equal(t, 4, payload.Meta.TotalTickets)
	assert.Equal(t, "2026-03-01 12:00:00", payload.Meta.ClassifiedAt)
	assert.Equal(t, domain.EngineRuleBased, payload.Meta.EngineName)

	// Keyword list per category row is capped at 5 even though the
	// aggregate keeps up to 10.
	require.Len(t, payload.CategoryInfo, 2)
	assert.Equal(t, []string{"배송", "지연", "택배", "운송", "배달"}, payload.CategoryInfo[0].Keywords)
	assert.Equal(t, domain.CategoryPayment, payload.CategoryInfo[1].Category)

	// Channel rows regroup by channel with ratios against the grand total.
	require.Len(t, payload.ChannelInfo, 2)
	web := payload.ChannelInfo[0]
	assert.Equal(t, "web", web.Channel)
	assert.Equal(t, 3, web.Count)
	assert.InDelta(t, 0.75, web.Ratio, 1e-9)
	assert.Equal(t, map[string]int{domain.CategoryShipping: 2, domain.CategoryPayment: 1}, web.ByCategory)
	call := payload.ChannelInfo[1]
	assert.Equal(t, "call", call.Channel)
	assert.InDelta(t, 0.25, call.Ratio, 1e-9)

	assert.Equal(t, domain.ReliabilitySplit, payload.ReliabilityInfo.Split)
	assert.InDelta(t, 0.838, payload.ReliabilityInfo.Accuracy, 1e-9)
	assert.Equal(t, exemplars, payload.Tickets.Top3ByCategory)
}

func TestBuild_UIHints(t *testing.T) {
	payload := Build(testRun(), nil, nil, domain.ReliabilityStat{}, nil)

	require.NotNil(t, payload.UI)
	assert.Equal(t, []string{
		domain.CategoryQuality,
		domain.CategoryService,
		domain.CategoryShipping,
		domain.CategoryRepair,
		domain.CategoryPayment,
		domain.CategoryPromotion,
		domain.CategoryGeneral,
		domain.CategoryOther,
	}, payload.UI.LegendOrder)

	assert.Equal(t, "#FF6384", payload.UI.Colors[domain.CategoryQuality])
	assert.Equal(t, "#FFCE56", payload.UI.Colors[domain.CategoryShipping])
	assert.Equal(t, "#E7E9ED", payload.UI.Colors[domain.CategoryOther])
	assert.Len(t, payload.UI.Colors, 8)

	assert.Equal(t, map[string]float64{"good": 0.90, "warn": 0.75}, payload.UI.AccuracyColorThresholds)
}

func TestBuildEmpty(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("file target", func(t *testing.T) {
		payload := BuildEmpty(1, domain.Target{FileID: 7}, domain.EngineRuleBased, now)

		assert.Equal(t, ReturnCodeEmpty, payload.ReturnCode)
		assert.Equal(t, EmptyMessage, payload.Message)
		assert.Zero(t, payload.ClassResultID)
		require.NotNil(t, payload.Meta.FileID)
		assert.Equal(t, int64(7), *payload.Meta.FileID)
		assert.Nil(t, payload.Meta.BatchID)
		assert.Zero(t, payload.Meta.TotalTickets)
		assert.Empty(t, payload.CategoryInfo)
		assert.Empty(t, payload.ChannelInfo)
		assert.Empty(t, payload.Tickets.Top3ByCategory)
	})

	t.Run("batch target", func(t *testing.T) {
		payload := BuildEmpty(1, domain.Target{BatchID: 9}, domain.EngineRuleBased, now)

		require.NotNil(t, payload.Meta.BatchID)
		assert.Equal(t, int64(9), *payload.Meta.BatchID)
		assert.Nil(t, payload.Meta.FileID)
	})

	t.Run("marshals with empty collections not nulls", func(t *testing.T) {
		payload := BuildEmpty(1, domain.Target{FileID: 7}, domain.EngineRuleBased, now)

		raw, err := json.Marshal(payload)
		require.NoError(t, err)

		var decoded map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(raw, &decoded))

		assert.JSONEq(t, `[]`, string(decoded["category_info"]))
		assert.JSONEq(t, `[]`, string(decoded["channel_info"]))
		assert.JSONEq(t, `{}`, string(decoded["reliability_info"]))
		assert.JSONEq(t, `{"top3_by_category":{}}`, string(decoded["tickets"]))
		assert.NotContains(t, decoded, "ui")
		assert.NotContains(t, decoded, "period")
		assert.NotContains(t, decoded, "class_result_id")
	})
}

func TestBuildPeriod_MissingTimestamps(t *testing.T) {
	run := testRun()
	run.PeriodFrom = nil
	run.PeriodTo = nil

	payload := Build(run, nil, nil, domain.ReliabilityStat{}, nil)

	require.NotNil(t, payload.Period)
	assert.Nil(t, payload.Period.From)
	assert.Nil(t, payload.Period.To)

	raw, err := json.Marshal(payload.Period)
	require.NoError(t, err)
	assert.JSONEq(t, `{"from":null,"to":null}`, string(raw))
}
