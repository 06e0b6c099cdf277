package report

import (
	"math"
	"time"

	"github.com/csinsight/ticket-classifier/internal/aggregate"
	"github.com/csinsight/ticket-classifier/internal/domain"
)

// maxResponseKeywords caps the keyword list per category_info row. The
// persisted aggregate keeps up to 10; the payload shows at most 5.
const maxResponseKeywords = 5

// legendOrder and categoryColors are the fixed UI constants, matching the
// front end's chart configuration.
var legendOrder = []string{
	domain.CategoryQuality,
	domain.CategoryService,
	domain.CategoryShipping,
	domain.CategoryRepair,
	domain.CategoryPayment,
	domain.CategoryPromotion,
	domain.CategoryGeneral,
	domain.CategoryOther,
}

var categoryColors = map[string]string{
	domain.CategoryQuality:   "#FF6384",
	domain.CategoryService:   "#36A2EB",
	domain.CategoryShipping:  "#FFCE56",
	domain.CategoryRepair:    "#4BC0C0",
	domain.CategoryPayment:   "#9966FF",
	domain.CategoryPromotion: "#FF9F40",
	domain.CategoryGeneral:   "#C9CBCF",
	domain.CategoryOther:     "#E7E9ED",
}

var accuracyThresholds = map[string]float64{
	"good": 0.90,
	"warn": 0.75,
}

// uiHints returns a fresh copy of the fixed UI block.
func uiHints() *UIHints {
	colors := make(map[string]string, len(categoryColors))
	for k, v := range categoryColors {
		colors[k] = v
	}
	thresholds := make(map[string]float64, len(accuracyThresholds))
	for k, v := range accuracyThresholds {
		thresholds[k] = v
	}
	order := make([]string, len(legendOrder))
	copy(order, legendOrder)
	return &UIHints{
		LegendOrder:             order,
		Colors:                  colors,
		AccuracyColorThresholds: thresholds,
	}
}

// Build assembles the success payload for a completed run.
func Build(
	run *domain.ClassificationRun,
	categoryStats []domain.CategoryStat,
	channelStats []domain.ChannelStat,
	reliability domain.ReliabilityStat,
	exemplars map[string][]aggregate.Exemplar,
) *Payload {
	return &Payload{
		ReturnCode:    ReturnCodeSuccess,
		ClassResultID: run.ID,
		Period:        buildPeriod(run),
		Meta: Meta{
			UserID:       run.UserID,
			FileID:       run.FileID,
			BatchID:      run.BatchID,
			TotalTickets: run.TotalCount,
			ClassifiedAt: FormatClassifiedAt(run.CreatedAt),
			EngineName:   run.EngineName,
		},
		UI:           uiHints(),
		CategoryInfo: buildCategoryInfo(categoryStats),
		ChannelInfo:  buildChannelInfo(channelStats, run.TotalCount),
		ReliabilityInfo: ReliabilityInfo{
			Split:         reliability.Split,
			Accuracy:      reliability.Accuracy,
			MacroF1:       reliability.MacroF1,
			MicroF1:       reliability.MicroF1,
			AvgConfidence: reliability.AvgConfidence,
		},
		Tickets: TicketsSection{Top3ByCategory: exemplars},
	}
}

// BuildEmpty assembles the well-formed zero-ticket payload.
func BuildEmpty(userID int64, target domain.Target, engineName string, now time.Time) *Payload {
	meta := Meta{
		UserID:       userID,
		TotalTickets: 0,
		ClassifiedAt: FormatClassifiedAt(now),
		EngineName:   engineName,
	}
	if target.IsBatch() {
		batchID := target.BatchID
		meta.BatchID = &batchID
	} else {
		fileID := target.FileID
		meta.FileID = &fileID
	}

	return &Payload{
		ReturnCode:      ReturnCodeEmpty,
		Message:         EmptyMessage,
		Meta:            meta,
		CategoryInfo:    []CategoryInfo{},
		ChannelInfo:     []ChannelInfo{},
		ReliabilityInfo: ReliabilityInfo{},
		Tickets:         TicketsSection{Top3ByCategory: map[string][]aggregate.Exemplar{}},
	}
}

func buildPeriod(run *domain.ClassificationRun) *Period {
	period := &Period{}
	if run.PeriodFrom != nil {
		from := run.PeriodFrom.Format("2006-01-02")
		period.From = &from
	}
	if run.PeriodTo != nil {
		to := run.PeriodTo.Format("2006-01-02")
		period.To = &to
	}
	return period
}

func buildCategoryInfo(stats []domain.CategoryStat) []CategoryInfo {
	info := make([]CategoryInfo, 0, len(stats))
	for _, s := range stats {
		keywords := s.Keywords
		if len(keywords) > maxResponseKeywords {
			keywords = keywords[:maxResponseKeywords]
		}
		if keywords == nil {
			keywords = []string{}
		}
		info = append(info, CategoryInfo{
			Category: s.CategoryName,
			Count:    s.Count,
			Ratio:    s.Ratio,
			Keywords: keywords,
		})
	}
	return info
}

// buildChannelInfo regroups the flat (channel, category) rows by channel.
// The channel-level ratio is recomputed against the grand total; the nested
// by_category map keeps raw counts.
func buildChannelInfo(stats []domain.ChannelStat, grandTotal int) []ChannelInfo {
	if grandTotal == 0 {
		return []ChannelInfo{}
	}

	byChannel := make(map[string]*ChannelInfo)
	order := make([]string, 0)

	for _, s := range stats {
		info, ok := byChannel[s.Channel]
		if !ok {
			info = &ChannelInfo{
				Channel:    s.Channel,
				ByCategory: make(map[string]int),
			}
			byChannel[s.Channel] = info
			order = append(order, s.Channel)
		}
		info.Count += s.Count
		info.ByCategory[s.CategoryName] += s.Count
	}

	result := make([]ChannelInfo, 0, len(order))
	for _, channel := range order {
		info := byChannel[channel]
		info.Ratio = math.Round(float64(info.Count)/float64(grandTotal)*1e6) / 1e6
		result = append(result, *info)
	}
	return result
}
