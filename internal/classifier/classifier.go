// Package classifier provides ticket classification engines for the CS
// analytics pipeline. The rule-based engine is the default; an ML-backed
// engine satisfies the same contract so the batch runner stays
// classifier-agnostic.
package classifier

import (
	"context"

	"github.com/csinsight/ticket-classifier/internal/domain"
)

// Classifier decides the category of a single ticket. Implementations must
// be safe for concurrent use: the runner may fan classification out across
// workers.
type Classifier interface {
	Classify(ctx context.Context, ticket *domain.Ticket) (*domain.TicketClassification, error)
	EngineName() string
}

// Logger defines the logging interface used by classification engines.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Classification constants shared by engines.
const (
	inquiryMatchConfidence  = 0.9
	keywordBaseConfidence   = 0.6
	keywordScoreIncrement   = 0.05
	keywordMaxConfidence    = 0.9
	unclassifiedConfidence  = 0.5
	integrityFallConfidence = 0.3
	maxResultKeywords       = 5

	// Marker keywords attached when no rule matched or the resolved
	// category is missing from the injected mapping.
	markerUnclassified = "미분류"
	markerError        = "오류"
)
