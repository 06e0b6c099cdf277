package api

import (
	"github.com/csinsight/ticket-classifier/internal/aggregate"
	"github.com/csinsight/ticket-classifier/internal/classifier"
)

// RunRequest is the body of POST /api/v1/classifications/run. FileID and
// BatchID are mutually exclusive; with neither set the latest uploaded file
// is used.
type RunRequest struct {
	UserID  int64  `json:"user_id" binding:"required"`
	FileID  *int64 `json:"file_id"`
	BatchID *int64 `json:"batch_id"`
	Engine  string `json:"engine"`
}

// InsightsRequest is the body of POST /api/v1/reports/insights. FileID
// narrows the narrative to the latest run over that file.
type InsightsRequest struct {
	UserID int64  `json:"user_id" binding:"required"`
	FileID *int64 `json:"file_id"`
}

// RuleResponse is one category's rule set for the dashboard. Priority is the
// 1-based tie-break rank.
type RuleResponse struct {
	Category string   `json:"category"`
	Priority int      `json:"priority"`
	Keywords []string `json:"keywords"`
}

// RulesListResponse is the full rule table view.
type RulesListResponse struct {
	Rules        []RuleResponse           `json:"rules"`
	InquiryRules []classifier.InquiryRule `json:"inquiry_rules"`
	Total        int                      `json:"total"`
}

// emptyExemplars is the tickets section of a replayed payload.
func emptyExemplars() map[string][]aggregate.Exemplar {
	return map[string][]aggregate.Exemplar{}
}
