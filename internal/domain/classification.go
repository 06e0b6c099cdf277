package domain

import "time"

// ClassificationMethod constants.
const (
	MethodRuleBased = "rule_based"
	MethodMLModel   = "ml_model"
)

// Engine name constants.
const (
	EngineRuleBased = "rule_based_v1"
	EngineML        = "ml_v1"
)

// TicketClassification is the output attached to each ticket after a run.
type TicketClassification struct {
	CategoryID          int64     `db:"category_id"   json:"category_id"`
	CategoryName        string    `db:"-"             json:"category_name"`
	Confidence          float64   `db:"confidence"    json:"confidence"`
	Keywords            []string  `db:"-"             json:"keywords"`
	Method              string    `db:"method"        json:"method"`
	OriginalInquiryType string    `db:"-"             json:"original_inquiry_type"`
	ClassifiedAt        time.Time `db:"classified_at" json:"classified_at"`
}

// Importance bands for exemplar tickets.
const (
	ImportanceHigh   = "상"
	ImportanceMedium = "중"
	ImportanceLow    = "하"

	ImportanceHighThreshold   = 0.9
	ImportanceMediumThreshold = 0.7
)

// Importance returns the confidence-banded label shown for exemplar tickets.
func (c *TicketClassification) Importance() string {
	switch {
	case c.Confidence >= ImportanceHighThreshold:
		return ImportanceHigh
	case c.Confidence >= ImportanceMediumThreshold:
		return ImportanceMedium
	default:
		return ImportanceLow
	}
}

// Target identifies the ticket set a run operates on. Exactly one of FileID
// or BatchID is set.
type Target struct {
	FileID  int64
	BatchID int64
}

// IsBatch reports whether the target addresses a batch rather than a file.
func (t Target) IsBatch() bool { return t.BatchID != 0 }

// ClassificationRun is one execution of a classifier over a file or batch.
// Runs are append-only; a new run produces a fresh set of aggregate rows.
type ClassificationRun struct {
	ID          int64      `db:"id"           json:"id"`
	UserID      int64      `db:"user_id"      json:"user_id"`
	FileID      *int64     `db:"file_id"      json:"file_id,omitempty"`
	BatchID     *int64     `db:"batch_id"     json:"batch_id,omitempty"`
	EngineName  string     `db:"engine_name"  json:"engine_name"`
	TotalCount  int        `db:"total_count"  json:"total_count"`
	PeriodFrom  *time.Time `db:"period_from"  json:"period_from,omitempty"`
	PeriodTo    *time.Time `db:"period_to"    json:"period_to,omitempty"`
	NeedsReview bool       `db:"needs_review" json:"needs_review"`
	CreatedAt   time.Time  `db:"created_at"   json:"created_at"`
}
