package domain

import "time"

// Ticket represents one customer CS inquiry record.
// Tickets are created by the upload subsystem and are read-only to the
// classifier; classification fields are overwritten once per run.
type Ticket struct {
	ID          int64      `db:"id"           json:"ticket_id"`
	FileID      int64      `db:"file_id"      json:"file_id"`
	BatchID     *int64     `db:"batch_id"     json:"batch_id,omitempty"`
	ReceivedAt  *time.Time `db:"received_at"  json:"received_at,omitempty"`
	Channel     string     `db:"channel"      json:"channel"`
	CustomerID  string     `db:"customer_id"  json:"customer_id,omitempty"`
	ProductCode string     `db:"product_code" json:"product_code,omitempty"`
	InquiryType string     `db:"inquiry_type" json:"inquiry_type"`
	Title       string     `db:"title"        json:"title"`
	Body        string     `db:"body"         json:"body"`
	Assignee    string     `db:"assignee"     json:"assignee,omitempty"`
	Status      string     `db:"status"       json:"status,omitempty"`
}

// Category is one of the fixed top-level support classification buckets.
// Categories are seeded reference data; the classifier consumes them as an
// injected {id -> name} mapping.
type Category struct {
	ID   int64  `db:"id"   json:"id"`
	Name string `db:"name" json:"name"`
}

// CategoryMapping maps category ids to names.
type CategoryMapping map[int64]string

// Reverse builds the name -> id lookup.
func (m CategoryMapping) Reverse() map[string]int64 {
	r := make(map[string]int64, len(m))
	for id, name := range m {
		r[name] = id
	}
	return r
}

// Canonical category names, highest classification priority first. The order
// is a product decision: defect and service complaints must never be bumped
// into a lower bucket just because a shipping keyword also appears.
const (
	CategoryQuality   = "품질/하자"
	CategoryService   = "서비스"
	CategoryShipping  = "배송"
	CategoryRepair    = "AS/수리"
	CategoryPayment   = "결제"
	CategoryPromotion = "이벤트"
	CategoryGeneral   = "일반"
	CategoryOther     = "기타"
)

// FallbackCategoryID is the seeded id of 기타, used by the integrity guard
// when even the catch-all name is missing from the injected mapping.
const FallbackCategoryID int64 = 8

// DefaultCategories returns the canonical seed set in priority order.
func DefaultCategories() []Category {
	return []Category{
		{ID: 1, Name: CategoryQuality},
		{ID: 2, Name: CategoryService},
		{ID: 3, Name: CategoryShipping},
		{ID: 4, Name: CategoryRepair},
		{ID: 5, Name: CategoryPayment},
		{ID: 6, Name: CategoryPromotion},
		{ID: 7, Name: CategoryGeneral},
		{ID: 8, Name: CategoryOther},
	}
}
