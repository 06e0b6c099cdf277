// Package aggregate computes the per-run rollups: category distribution,
// per-channel category mix, reliability figures, and exemplar tickets.
// Aggregation is not incremental: it requires the complete set of per-ticket
// results for a run.
package aggregate

import (
	"math"
	"sort"

	"github.com/csinsight/ticket-classifier/internal/domain"
)

// Result pairs one ticket with its classification for the run.
type Result struct {
	Ticket         *domain.Ticket
	Classification *domain.TicketClassification
}

// Exemplar is one representative ticket rendered for the response payload.
// Exemplars are presentation data only and are never persisted.
type Exemplar struct {
	ReceivedAt string   `json:"received_at"`
	Channel    string   `json:"channel"`
	Content    string   `json:"content"`
	Preview    string   `json:"preview"`
	Category   string   `json:"category"`
	Keywords   []string `json:"keywords"`
	Importance string   `json:"importance"`
}

// Aggregation constants.
const (
	maxCategoryKeywords  = 10
	maxExemplarsPerGroup = 3
	maxExemplarKeywords  = 3
	previewRuneLength    = 15

	macroF1Factor = 0.95
	microF1Factor = 0.98

	ratioPrecision  = 1e6
	metricPrecision = 1e3
)

// Engine derives run-level statistics from classified tickets.
type Engine struct {
	logger Logger
}

// Logger defines the logging interface.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// NewEngine creates an aggregation engine.
func NewEngine(logger Logger) *Engine {
	return &Engine{logger: logger}
}

// CategoryStats groups results by resolved category. Ratio is count over the
// grand total, rounded to 6 decimals. Keywords are the union of matched
// keywords across the category's tickets, capped at 10. Output is sorted by
// count descending, category id ascending on ties.
func (e *Engine) CategoryStats(results []Result) []domain.CategoryStat {
	total := len(results)
	if total == 0 {
		return []domain.CategoryStat{}
	}

	type accum struct {
		stat     *domain.CategoryStat
		keywords map[string]bool
	}
	byCategory := make(map[int64]*accum)
	order := make([]int64, 0)

	for _, r := range results {
		cls := r.Classification
		acc, ok := byCategory[cls.CategoryID]
		if !ok {
			acc = &accum{
				stat: &domain.CategoryStat{
					CategoryID:   cls.CategoryID,
					CategoryName: cls.CategoryName,
				},
				keywords: make(map[string]bool),
			}
			byCategory[cls.CategoryID] = acc
			order = append(order, cls.CategoryID)
		}
		acc.stat.Count++
		for _, kw := range cls.Keywords {
			if len(acc.stat.Keywords) >= maxCategoryKeywords {
				break
			}
			if !acc.keywords[kw] {
				acc.keywords[kw] = true
				acc.stat.Keywords = append(acc.stat.Keywords, kw)
			}
		}
	}

	stats := make([]domain.CategoryStat, 0, len(order))
	for _, id := range order {
		acc := byCategory[id]
		acc.stat.Ratio = roundRatio(float64(acc.stat.Count) / float64(total))
		stats = append(stats, *acc.stat)
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].CategoryID < stats[j].CategoryID
	})

	e.logger.Debug("category stats computed", "categories", len(stats), "total_tickets", total)
	return stats
}

// ChannelStats groups results by (channel, category). Ratio is normalized
// against the channel's own total, so each channel's mix sums to 1
// independently of the other channels.
func (e *Engine) ChannelStats(results []Result) []domain.ChannelStat {
	if len(results) == 0 {
		return []domain.ChannelStat{}
	}

	channelTotals := make(map[string]int)
	channelOrder := make([]string, 0)
	type key struct {
		channel    string
		categoryID int64
	}
	counts := make(map[key]*domain.ChannelStat)
	keyOrder := make([]key, 0)

	for _, r := range results {
		channel := r.Ticket.Channel
		if _, ok := channelTotals[channel]; !ok {
			channelOrder = append(channelOrder, channel)
		}
		channelTotals[channel]++

		k := key{channel: channel, categoryID: r.Classification.CategoryID}
		stat, ok := counts[k]
		if !ok {
			stat = &domain.ChannelStat{
				Channel:      channel,
				CategoryID:   r.Classification.CategoryID,
				CategoryName: r.Classification.CategoryName,
			}
			counts[k] = stat
			keyOrder = append(keyOrder, k)
		}
		stat.Count++
	}

	stats := make([]domain.ChannelStat, 0, len(keyOrder))
	for _, channel := range channelOrder {
		for _, k := range keyOrder {
			if k.channel != channel {
				continue
			}
			stat := counts[k]
			stat.Ratio = roundRatio(float64(stat.Count) / float64(channelTotals[channel]))
			stats = append(stats, *stat)
		}
	}

	e.logger.Debug("channel stats computed", "channels", len(channelOrder), "rows", len(stats))
	return stats
}

// Reliability computes the run-level reliability figures. Accuracy is the
// mean confidence; macro and micro F1 are fixed scalar multiples of it, a
// proxy carried over for front-end compatibility in the absence of labeled
// ground truth.
func (e *Engine) Reliability(results []Result) domain.ReliabilityStat {
	stat := domain.ReliabilityStat{Split: domain.ReliabilitySplit}
	if len(results) == 0 {
		return stat
	}

	var sum float64
	for _, r := range results {
		sum += r.Classification.Confidence
	}
	avg := sum / float64(len(results))

	stat.AvgConfidence = avg
	stat.Accuracy = roundMetric(avg)
	stat.MacroF1 = roundMetric(avg * macroF1Factor)
	stat.MicroF1 = roundMetric(avg * microF1Factor)
	return stat
}

// TopExemplars picks up to 3 tickets per resolved category in classification
// iteration order. First-3-encountered is an accepted simplification over
// "most representative".
func (e *Engine) TopExemplars(results []Result) map[string][]Exemplar {
	exemplars := make(map[string][]Exemplar)
	for _, r := range results {
		category := r.Classification.CategoryName
		if len(exemplars[category]) >= maxExemplarsPerGroup {
			continue
		}
		exemplars[category] = append(exemplars[category], newExemplar(r))
	}
	return exemplars
}

func newExemplar(r Result) Exemplar {
	receivedAt := "-"
	if r.Ticket.ReceivedAt != nil {
		receivedAt = r.Ticket.ReceivedAt.Format("2006-01-02")
	}

	keywords := r.Classification.Keywords
	if len(keywords) > maxExemplarKeywords {
		keywords = keywords[:maxExemplarKeywords]
	}

	return Exemplar{
		ReceivedAt: receivedAt,
		Channel:    r.Ticket.Channel,
		Content:    r.Ticket.Body,
		Preview:    preview(r.Ticket.Body),
		Category:   r.Classification.CategoryName,
		Keywords:   keywords,
		Importance: r.Classification.Importance(),
	}
}

// preview returns the first 15 runes of content with an ellipsis when
// truncated. Rune-based so Hangul is not cut mid-character.
func preview(content string) string {
	runes := []rune(content)
	if len(runes) <= previewRuneLength {
		return content
	}
	return string(runes[:previewRuneLength]) + "..."
}

func roundRatio(v float64) float64 {
	return math.Round(v*ratioPrecision) / ratioPrecision
}

func roundMetric(v float64) float64 {
	return math.Round(v*metricPrecision) / metricPrecision
}
