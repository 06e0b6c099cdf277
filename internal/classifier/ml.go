package classifier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/csinsight/ticket-classifier/internal/domain"
	"github.com/csinsight/ticket-classifier/internal/mltransport"
)

// ErrMLUnavailable indicates the ML sidecar is unreachable.
var ErrMLUnavailable = errors.New("ml classification service unavailable")

// MLClassifier classifies tickets through an external zero-shot text
// classification service. It satisfies the same contract as the rule-based
// engine so the batch runner does not care which engine it drives.
type MLClassifier struct {
	baseURL string
	timeout time.Duration
	mapping domain.CategoryMapping
	reverse map[string]int64
	labels  []string
	logger  Logger
}

// mlClassifyResponse is the sidecar response for one ticket.
type mlClassifyResponse struct {
	Category         string   `json:"category"`
	Confidence       float64  `json:"confidence"`
	Keywords         []string `json:"keywords"`
	ModelVersion     string   `json:"model_version"`
	ProcessingTimeMs int64    `json:"processing_time_ms"`
}

// NewMLClassifier builds an ML-backed classifier. Candidate labels are the
// category names from the injected mapping, in rule-table priority order.
// A zero timeout uses the transport default.
func NewMLClassifier(baseURL string, timeout time.Duration, rules *RuleTable, mapping domain.CategoryMapping, logger Logger) *MLClassifier {
	labels := make([]string, 0, len(rules.Categories()))
	reverse := mapping.Reverse()
	for _, cat := range rules.Categories() {
		if _, ok := reverse[cat.Name]; ok {
			labels = append(labels, cat.Name)
		}
	}
	return &MLClassifier{
		baseURL: baseURL,
		timeout: timeout,
		mapping: mapping,
		reverse: reverse,
		labels:  labels,
		logger:  logger,
	}
}

// EngineName identifies this engine in run metadata.
func (c *MLClassifier) EngineName() string { return domain.EngineML }

// Classify sends one ticket to the sidecar. Unlike the rule-based engine a
// transport failure is a real error and aborts the run.
func (c *MLClassifier) Classify(ctx context.Context, ticket *domain.Ticket) (*domain.TicketClassification, error) {
	req := &mltransport.ClassifyRequest{
		Title:       ticket.Title,
		Body:        ticket.Body,
		InquiryType: ticket.InquiryType,
		Labels:      c.labels,
	}

	var resp mlClassifyResponse
	if err := mltransport.DoClassify(ctx, c.baseURL, c.timeout, req, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMLUnavailable, err)
	}

	categoryName := resp.Category
	confidence := resp.Confidence
	keywords := resp.Keywords

	categoryID, ok := c.reverse[categoryName]
	if !ok {
		c.logger.Warn("ml category missing from mapping, falling back",
			"ticket_id", ticket.ID,
			"category", categoryName,
		)
		categoryName = domain.CategoryOther
		categoryID, ok = c.reverse[domain.CategoryOther]
		if !ok {
			categoryID = domain.FallbackCategoryID
		}
		confidence = integrityFallConfidence
		keywords = []string{markerError}
	}

	return &domain.TicketClassification{
		CategoryID:          categoryID,
		CategoryName:        categoryName,
		Confidence:          confidence,
		Keywords:            dedupeKeywords(keywords, maxResultKeywords),
		Method:              domain.MethodMLModel,
		OriginalInquiryType: ticket.InquiryType,
		ClassifiedAt:        time.Now(),
	}, nil
}

// Health checks whether the sidecar is reachable.
func (c *MLClassifier) Health(ctx context.Context) error {
	reachable, _, _, err := mltransport.DoHealth(ctx, c.baseURL, c.timeout)
	if err != nil {
		if !reachable {
			return fmt.Errorf("%w: %w", ErrMLUnavailable, err)
		}
		return err
	}
	return nil
}
