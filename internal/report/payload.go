// Package report assembles run aggregates into the JSON payload consumed by
// the analytics front end. Field names and the fixed ui block are part of
// the contract and must not drift.
package report

import (
	"time"

	"github.com/csinsight/ticket-classifier/internal/aggregate"
)

// Return codes. A run over zero tickets is not an error: it returns a
// well-formed payload with ReturnCodeEmpty.
const (
	ReturnCodeEmpty   = 0
	ReturnCodeSuccess = 1
)

// EmptyMessage is the message attached to the empty-input payload.
const EmptyMessage = "no tickets to classify"

// Payload is the run-level response contract.
type Payload struct {
	ReturnCode      int                 `json:"return_code"`
	Message         string              `json:"message,omitempty"`
	ClassResultID   int64               `json:"class_result_id,omitempty"`
	Period          *Period             `json:"period,omitempty"`
	Meta            Meta                `json:"meta"`
	UI              *UIHints            `json:"ui,omitempty"`
	CategoryInfo    []CategoryInfo      `json:"category_info"`
	ChannelInfo     []ChannelInfo       `json:"channel_info"`
	ReliabilityInfo ReliabilityInfo     `json:"reliability_info"`
	Tickets         TicketsSection      `json:"tickets"`
}

// Period is the run's temporal span, date-only. Both ends are null when no
// ticket in the run carried a received timestamp.
type Period struct {
	From *string `json:"from"`
	To   *string `json:"to"`
}

// Meta carries run identification fields.
type Meta struct {
	UserID       int64  `json:"user_id"`
	FileID       *int64 `json:"file_id,omitempty"`
	BatchID      *int64 `json:"batch_id,omitempty"`
	TotalTickets int    `json:"total_tickets"`
	ClassifiedAt string `json:"classified_at"`
	EngineName   string `json:"engine_name"`
}

// UIHints are fixed presentation constants embedded for the front end:
// legend ordering, the per-category color palette, and the accuracy color
// thresholds. Reproduced verbatim for compatibility.
type UIHints struct {
	LegendOrder             []string           `json:"legend_order"`
	Colors                  map[string]string  `json:"colors"`
	AccuracyColorThresholds map[string]float64 `json:"accuracy_color_thresholds"`
}

// CategoryInfo is one row of the category distribution.
type CategoryInfo struct {
	Category string   `json:"category"`
	Count    int      `json:"count"`
	Ratio    float64  `json:"ratio"`
	Keywords []string `json:"keywords"`
}

// ChannelInfo is one channel's rollup: the channel-level ratio is against
// the grand total, while the nested by_category counts describe the
// channel's own mix.
type ChannelInfo struct {
	Channel    string         `json:"channel"`
	Count      int            `json:"count"`
	Ratio      float64        `json:"ratio"`
	ByCategory map[string]int `json:"by_category"`
}

// ReliabilityInfo mirrors domain.ReliabilityStat for the wire. All fields
// omit when empty so the zero value marshals as {}.
type ReliabilityInfo struct {
	Split         string  `json:"split,omitempty"`
	Accuracy      float64 `json:"accuracy,omitempty"`
	MacroF1       float64 `json:"macro_f1,omitempty"`
	MicroF1       float64 `json:"micro_f1,omitempty"`
	AvgConfidence float64 `json:"avg_confidence,omitempty"`
}

// TicketsSection carries the exemplar tickets grouped by category.
type TicketsSection struct {
	Top3ByCategory map[string][]aggregate.Exemplar `json:"top3_by_category"`
}

// classifiedAtLayout is the timestamp format the front end parses.
const classifiedAtLayout = "2006-01-02 15:04:05"

// FormatClassifiedAt renders a run timestamp for the meta block.
func FormatClassifiedAt(t time.Time) string {
	return t.Format(classifiedAtLayout)
}
