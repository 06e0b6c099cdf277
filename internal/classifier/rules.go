package classifier

import (
	"strings"

	ahocorasick "github.com/cloudflare/ahocorasick"
	"golang.org/x/text/unicode/norm"

	"github.com/csinsight/ticket-classifier/internal/domain"
)

// CategoryRule holds the body/title keywords for one category. Slice position
// in the rule table is the tie-break priority: earlier entries outrank later
// ones when keyword scores are equal.
type CategoryRule struct {
	Name     string   `json:"category"`
	Keywords []string `json:"keywords"`
}

// InquiryRule maps one free-text inquiry-type value to a category name.
// Insertion order matters for the fuzzy substring match, which is first-hit
// rather than priority-ordered.
type InquiryRule struct {
	Key      string `json:"key"`
	Category string `json:"category"`
}

// RuleTable is the static classification rule set: a priority-ordered
// category list with keyword patterns, plus the inquiry-type dictionary.
// The keyword scan runs on an Aho-Corasick automaton built once at
// construction; the table is immutable afterwards and safe to share across
// classification workers.
type RuleTable struct {
	categories   []CategoryRule
	priority     map[string]int
	inquiry      []InquiryRule
	inquiryByKey map[string]string

	matcher     *ahocorasick.Matcher
	patterns    []string
	patternCat  []int
	patternKwIx []int
}

// DefaultRuleTable builds the canonical CS rule set. Keyword vocabulary
// follows the inquiry wording seen in uploaded ticket exports.
func DefaultRuleTable() *RuleTable {
	categories := []CategoryRule{
		{Name: domain.CategoryQuality, Keywords: []string{"불량", "하자", "파손", "흠집", "결함", "품질", "깨짐"}},
		{Name: domain.CategoryService, Keywords: []string{"불친절", "응대", "상담", "클레임", "불만", "서비스"}},
		{Name: domain.CategoryShipping, Keywords: []string{"배송", "택배", "운송", "배달", "지연", "추적", "도착"}},
		{Name: domain.CategoryRepair, Keywords: []string{"AS", "수리", "고장", "오작동", "설치", "기사", "사용법"}},
		{Name: domain.CategoryPayment, Keywords: []string{"결제", "환불", "취소", "승인", "카드", "청구", "영수증"}},
		{Name: domain.CategoryPromotion, Keywords: []string{"이벤트", "쿠폰", "프로모션", "할인", "적립", "포인트"}},
		{Name: domain.CategoryGeneral, Keywords: []string{"문의", "확인", "안내", "질문"}},
		{Name: domain.CategoryOther, Keywords: nil},
	}

	inquiry := []InquiryRule{
		{Key: "배송", Category: domain.CategoryShipping},
		{Key: "배송문의", Category: domain.CategoryShipping},
		{Key: "배송지연", Category: domain.CategoryShipping},
		{Key: "배송추적", Category: domain.CategoryShipping},
		{Key: "택배", Category: domain.CategoryShipping},
		{Key: "운송", Category: domain.CategoryShipping},

		{Key: "결제", Category: domain.CategoryPayment},
		{Key: "결제문의", Category: domain.CategoryPayment},
		{Key: "결제취소", Category: domain.CategoryPayment},
		{Key: "환불", Category: domain.CategoryPayment},
		{Key: "교환", Category: domain.CategoryPayment},
		{Key: "반품", Category: domain.CategoryPayment},
		{Key: "취소", Category: domain.CategoryPayment},

		{Key: "AS", Category: domain.CategoryRepair},
		{Key: "수리", Category: domain.CategoryRepair},
		{Key: "고장", Category: domain.CategoryRepair},
		{Key: "설치", Category: domain.CategoryRepair},
		{Key: "사용법", Category: domain.CategoryRepair},
		{Key: "기술지원", Category: domain.CategoryRepair},

		{Key: "불량", Category: domain.CategoryQuality},
		{Key: "하자", Category: domain.CategoryQuality},
		{Key: "파손", Category: domain.CategoryQuality},
		{Key: "품질", Category: domain.CategoryQuality},

		{Key: "불만", Category: domain.CategoryService},
		{Key: "클레임", Category: domain.CategoryService},
		{Key: "항의", Category: domain.CategoryService},

		{Key: "이벤트", Category: domain.CategoryPromotion},
		{Key: "쿠폰", Category: domain.CategoryPromotion},
		{Key: "프로모션", Category: domain.CategoryPromotion},

		{Key: "문의", Category: domain.CategoryGeneral},
		{Key: "일반문의", Category: domain.CategoryGeneral},
		{Key: "기타문의", Category: domain.CategoryGeneral},
	}

	return NewRuleTable(categories, inquiry)
}

// NewRuleTable builds an immutable rule table and its keyword automaton.
func NewRuleTable(categories []CategoryRule, inquiry []InquiryRule) *RuleTable {
	t := &RuleTable{
		categories:   categories,
		priority:     make(map[string]int, len(categories)),
		inquiry:      inquiry,
		inquiryByKey: make(map[string]string, len(inquiry)),
	}

	for i, cat := range categories {
		t.priority[cat.Name] = i
		for kwIx, kw := range cat.Keywords {
			normalized := normalizeText(kw)
			if normalized == "" {
				continue
			}
			t.patterns = append(t.patterns, normalized)
			t.patternCat = append(t.patternCat, i)
			t.patternKwIx = append(t.patternKwIx, kwIx)
		}
	}
	if len(t.patterns) > 0 {
		t.matcher = ahocorasick.NewStringMatcher(t.patterns)
	}

	for _, rule := range inquiry {
		t.inquiryByKey[rule.Key] = rule.Category
	}

	return t
}

// Categories returns the rule table in priority order.
func (t *RuleTable) Categories() []CategoryRule { return t.categories }

// InquiryRules returns the inquiry-type dictionary in insertion order.
func (t *RuleTable) InquiryRules() []InquiryRule { return t.inquiry }

// Priority returns the tie-break rank for a category name; lower is higher
// priority. Unknown names rank last.
func (t *RuleTable) Priority(category string) int {
	if p, ok := t.priority[category]; ok {
		return p
	}
	return len(t.categories)
}

// MatchInquiryExact resolves an inquiry-type string by exact dictionary
// lookup.
func (t *RuleTable) MatchInquiryExact(inquiryType string) (string, bool) {
	category, ok := t.inquiryByKey[inquiryType]
	return category, ok
}

// MatchInquiryFuzzy resolves an inquiry-type string by case-insensitive
// substring containment in both directions. First hit in table insertion
// order wins; no priority ordering applies at this stage. The asymmetry with
// the keyword scan is deliberate and mirrors the behavior the front end was
// built against.
func (t *RuleTable) MatchInquiryFuzzy(inquiryType string) (matchedKey, category string, ok bool) {
	lower := normalizeText(inquiryType)
	for _, rule := range t.inquiry {
		key := normalizeText(rule.Key)
		if strings.Contains(lower, key) || strings.Contains(key, lower) {
			return rule.Key, rule.Category, true
		}
	}
	return "", "", false
}

// KeywordMatch is the outcome of the keyword scan for one category.
type KeywordMatch struct {
	CategoryIndex int
	Category      string
	Keywords      []string // matched keywords in keyword-list order
}

// Score is the count of distinct keywords found.
func (m KeywordMatch) Score() int { return len(m.Keywords) }

// ScanKeywords runs the concatenated title+body through the automaton and
// returns per-category distinct keyword matches, in priority order.
func (t *RuleTable) ScanKeywords(title, body string) []KeywordMatch {
	if t.matcher == nil {
		return nil
	}

	text := normalizeText(body + " " + title)
	hits := t.matcher.Match([]byte(text))
	if len(hits) == 0 {
		return nil
	}

	hit := make(map[int]bool, len(hits))
	for _, h := range hits {
		hit[h] = true
	}

	// Walk patterns in table order so matched keywords come out in
	// keyword-list order per category.
	byCategory := make(map[int][]string)
	for i := range t.patterns {
		if !hit[i] {
			continue
		}
		catIx := t.patternCat[i]
		original := t.categories[catIx].Keywords[t.patternKwIx[i]]
		byCategory[catIx] = append(byCategory[catIx], original)
	}

	matches := make([]KeywordMatch, 0, len(byCategory))
	for catIx := range t.categories {
		kws, ok := byCategory[catIx]
		if !ok {
			continue
		}
		matches = append(matches, KeywordMatch{
			CategoryIndex: catIx,
			Category:      t.categories[catIx].Name,
			Keywords:      kws,
		})
	}
	return matches
}

// normalizeText lowercases and NFC-normalizes input. Spreadsheet exports
// from macOS carry decomposed Hangul, which would never match the composed
// rule keywords byte-wise.
func normalizeText(s string) string {
	return strings.ToLower(strings.TrimSpace(norm.NFC.String(s)))
}
