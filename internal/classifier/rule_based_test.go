package classifier

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csinsight/ticket-classifier/internal/domain"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

func defaultMapping() domain.CategoryMapping {
	mapping := make(domain.CategoryMapping)
	for _, c := range domain.DefaultCategories() {
		mapping[c.ID] = c.Name
	}
	return mapping
}

func TestRuleBasedClassifier_Classify(t *testing.T) {
	classifier := NewRuleBasedClassifier(DefaultRuleTable(), defaultMapping(), nopLogger{})

	tests := []struct {
		name           string
		ticket         *domain.Ticket
		wantCategory   string
		wantConfidence float64
		wantKeywords   []string
	}{
		{
			name:           "exact inquiry type match",
			ticket:         &domain.Ticket{InquiryType: "배송지연"},
			wantCategory:   domain.CategoryShipping,
			wantConfidence: 0.9,
			wantKeywords:   []string{"배송지연"},
		},
		{
			name:           "fuzzy inquiry type match",
			ticket:         &domain.Ticket{InquiryType: "배송 관련 불편사항"},
			wantCategory:   domain.CategoryShipping,
			wantConfidence: 0.9,
			wantKeywords:   []string{"배송"},
		},
		{
			name:           "inquiry type outranks body keywords",
			ticket:         &domain.Ticket{InquiryType: "환불", Body: "배송이 지연되고 있습니다"},
			wantCategory:   domain.CategoryPayment,
			wantConfidence: 0.9,
			wantKeywords:   []string{"환불"},
		},
		{
			name:           "keyword tie resolves to higher priority category",
			ticket:         &domain.Ticket{Body: "제품이 불량이고 배송도 늦었어요"},
			wantCategory:   domain.CategoryQuality,
			wantConfidence: 0.65,
			wantKeywords:   []string{"불량"},
		},
		{
			name:           "keyword score raises confidence",
			ticket:         &domain.Ticket{Body: "환불하고 결제도 취소해주세요"},
			wantCategory:   domain.CategoryPayment,
			wantConfidence: 0.75,
			wantKeywords:   []string{"결제", "환불", "취소"},
		},
		{
			name:           "confidence caps at 0.9",
			ticket:         &domain.Ticket{Body: "배송 택배 운송 배달 지연 추적 도착"},
			wantCategory:   domain.CategoryShipping,
			wantConfidence: 0.9,
			wantKeywords:   []string{"배송", "택배", "운송", "배달", "지연", "추적", "도착"}[:5],
		},
		{
			name:           "title keywords count too",
			ticket:         &domain.Ticket{Title: "쿠폰 적용 문제", Body: "어제 받은 건인데요"},
			wantCategory:   domain.CategoryPromotion,
			wantConfidence: 0.65,
			wantKeywords:   []string{"쿠폰"},
		},
		{
			name:           "no match falls back to catch-all",
			ticket:         &domain.Ticket{Title: "안녕하세요", Body: "잘 지내시나요"},
			wantCategory:   domain.CategoryOther,
			wantConfidence: 0.5,
			wantKeywords:   []string{"미분류"},
		},
		{
			name:           "empty ticket falls back to catch-all",
			ticket:         &domain.Ticket{},
			wantCategory:   domain.CategoryOther,
			wantConfidence: 0.5,
			wantKeywords:   []string{"미분류"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := classifier.Classify(context.Background(), tt.ticket)
			require.NoError(t, err)

			assert.Equal(t, tt.wantCategory, result.CategoryName)
			assert.InDelta(t, tt.wantConfidence, result.Confidence, 1e-9)
			assert.Equal(t, tt.wantKeywords, result.Keywords)
			assert.Equal(t, domain.MethodRuleBased, result.Method)
		})
	}
}

func TestRuleBasedClassifier_CategoryIDResolution(t *testing.T) {
	classifier := NewRuleBasedClassifier(DefaultRuleTable(), defaultMapping(), nopLogger{})

	result, err := classifier.Classify(context.Background(), &domain.Ticket{InquiryType: "배송지연"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.CategoryID)
}

func TestRuleBasedClassifier_IntegrityGuard(t *testing.T) {
	t.Run("resolved category missing from mapping", func(t *testing.T) {
		// 배송 is absent; the catch-all is present.
		mapping := domain.CategoryMapping{8: domain.CategoryOther}
		classifier := NewRuleBasedClassifier(DefaultRuleTable(), mapping, nopLogger{})

		result, err := classifier.Classify(context.Background(), &domain.Ticket{InquiryType: "배송지연"})
		require.NoError(t, err)

		assert.Equal(t, domain.CategoryOther, result.CategoryName)
		assert.Equal(t, int64(8), result.CategoryID)
		assert.InDelta(t, 0.3, result.Confidence, 1e-9)
		assert.Equal(t, []string{"오류"}, result.Keywords)
	})

	t.Run("catch-all itself missing from mapping", func(t *testing.T) {
		mapping := domain.CategoryMapping{1: domain.CategoryQuality}
		classifier := NewRuleBasedClassifier(DefaultRuleTable(), mapping, nopLogger{})

		result, err := classifier.Classify(context.Background(), &domain.Ticket{InquiryType: "배송지연"})
		require.NoError(t, err)

		assert.Equal(t, domain.CategoryOther, result.CategoryName)
		assert.Equal(t, domain.FallbackCategoryID, result.CategoryID)
		assert.InDelta(t, 0.3, result.Confidence, 1e-9)
		assert.Equal(t, []string{"오류"}, result.Keywords)
	})
}

func TestRuleBasedClassifier_PreservesOriginalInquiryType(t *testing.T) {
	classifier := NewRuleBasedClassifier(DefaultRuleTable(), defaultMapping(), nopLogger{})

	result, err := classifier.Classify(context.Background(), &domain.Ticket{InquiryType: " 배송지연 "})
	require.NoError(t, err)
	assert.Equal(t, "배송지연", result.OriginalInquiryType)
}

type scanRecorder struct {
	calls int
}

func (r *scanRecorder) RecordRuleMatch(_ context.Context, _ time.Duration) { r.calls++ }

func TestRuleBasedClassifier_RecordsKeywordScan(t *testing.T) {
	rec := &scanRecorder{}
	classifier := NewRuleBasedClassifier(DefaultRuleTable(), defaultMapping(), nopLogger{},
		WithMatchRecorder(rec))

	_, err := classifier.Classify(context.Background(), &domain.Ticket{Body: "배송이 늦어요"})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.calls)

	// Inquiry-type matches resolve before the keyword scan runs.
	_, err = classifier.Classify(context.Background(), &domain.Ticket{InquiryType: "배송지연"})
	require.NoError(t, err)
	assert.Equal(t, 1, rec.calls)
}

func TestDedupeKeywords(t *testing.T) {
	tests := []struct {
		name  string
		in    []string
		limit int
		want  []string
	}{
		{"removes duplicates keeping first", []string{"배송", "택배", "배송"}, 5, []string{"배송", "택배"}},
		{"caps at limit", []string{"a", "b", "c", "d", "e", "f", "g"}, 5, []string{"a", "b", "c", "d", "e"}},
		{"drops empty strings", []string{"", "배송"}, 5, []string{"배송"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, dedupeKeywords(tt.in, tt.limit))
		})
	}
}
