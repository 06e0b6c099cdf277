package classifier

import (
	"context"
	"strings"
	"time"

	"github.com/csinsight/ticket-classifier/internal/domain"
)

// MatchRecorder receives keyword-scan timings for metrics.
type MatchRecorder interface {
	RecordRuleMatch(ctx context.Context, duration time.Duration)
}

// RuleBasedClassifier resolves a ticket's category from its inquiry-type
// field, falling back to a keyword scan of title and body. It never returns
// an error: internal inconsistency degrades to the catch-all category.
type RuleBasedClassifier struct {
	rules    *RuleTable
	mapping  domain.CategoryMapping
	reverse  map[string]int64
	recorder MatchRecorder
	logger   Logger
}

// RuleOption configures a RuleBasedClassifier.
type RuleOption func(*RuleBasedClassifier)

// WithMatchRecorder attaches a keyword-scan timing recorder.
func WithMatchRecorder(rec MatchRecorder) RuleOption {
	return func(c *RuleBasedClassifier) { c.recorder = rec }
}

// NewRuleBasedClassifier builds a classifier over the given rule table and
// injected category mapping. The mapping is read-only for the lifetime of a
// run and may be shared across workers.
func NewRuleBasedClassifier(rules *RuleTable, mapping domain.CategoryMapping, logger Logger, opts ...RuleOption) *RuleBasedClassifier {
	c := &RuleBasedClassifier{
		rules:   rules,
		mapping: mapping,
		reverse: mapping.Reverse(),
		logger:  logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EngineName identifies this engine in run metadata.
func (c *RuleBasedClassifier) EngineName() string { return domain.EngineRuleBased }

// Classify assigns a category, confidence, and matched keywords to one
// ticket. Resolution order: exact inquiry-type match, fuzzy inquiry-type
// match, keyword scan with priority tie-break, catch-all.
func (c *RuleBasedClassifier) Classify(ctx context.Context, ticket *domain.Ticket) (*domain.TicketClassification, error) {
	inquiryType := strings.TrimSpace(ticket.InquiryType)

	var (
		categoryName string
		confidence   float64
		keywords     []string
	)

	if inquiryType != "" {
		if category, ok := c.rules.MatchInquiryExact(inquiryType); ok {
			categoryName = category
			confidence = inquiryMatchConfidence
			keywords = []string{inquiryType}
		} else if matchedKey, category, found := c.rules.MatchInquiryFuzzy(inquiryType); found {
			categoryName = category
			confidence = inquiryMatchConfidence
			keywords = []string{matchedKey}
		}
	}

	if categoryName == "" {
		categoryName, confidence, keywords = c.classifyByKeywords(ctx, ticket.Title, ticket.Body)
	}

	if categoryName == "" {
		categoryName = domain.CategoryOther
		confidence = unclassifiedConfidence
		keywords = []string{markerUnclassified}
	}

	categoryID, ok := c.reverse[categoryName]
	if !ok {
		c.logger.Warn("resolved category missing from mapping, falling back",
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
		Method:              domain.MethodRuleBased,
		OriginalInquiryType: inquiryType,
		ClassifiedAt:        time.Now(),
	}, nil
}

// classifyByKeywords scans title+body and picks the category with the most
// distinct keyword hits. Ties resolve to the higher-priority category in the
// rule table, not the first one scanned.
func (c *RuleBasedClassifier) classifyByKeywords(ctx context.Context, title, body string) (string, float64, []string) {
	start := time.Now()
	matches := c.rules.ScanKeywords(title, body)
	if c.recorder != nil {
		c.recorder.RecordRuleMatch(ctx, time.Since(start))
	}
	if len(matches) == 0 {
		return "", 0, nil
	}

	best := matches[0]
	for _, m := range matches[1:] {
		// Matches arrive in priority order, so a strictly greater score
		// is required to displace the current best.
		if m.Score() > best.Score() {
			best = m
		}
	}

	confidence := keywordBaseConfidence + keywordScoreIncrement*float64(best.Score())
	if confidence > keywordMaxConfidence {
		confidence = keywordMaxConfidence
	}
	return best.Category, confidence, best.Keywords
}

// dedupeKeywords removes duplicates preserving first-seen order and caps the
// result at limit entries.
func dedupeKeywords(keywords []string, limit int) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw == "" || seen[kw] {
			continue
		}
		seen[kw] = true
		out = append(out, kw)
		if len(out) == limit {
			break
		}
	}
	return out
}
