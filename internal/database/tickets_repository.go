package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/csinsight/ticket-classifier/internal/domain"
)

// ErrNoFiles indicates no uploaded ticket file exists yet.
var ErrNoFiles = errors.New("no ticket files found")

const ticketColumns = `id, file_id, batch_id, received_at, channel, customer_id,
	product_code, inquiry_type, title, body, assignee, status`

// TicketsRepository handles ticket reads and classification write-back.
type TicketsRepository struct {
	db *sqlx.DB
}

// NewTicketsRepository creates a tickets repository.
func NewTicketsRepository(db *sqlx.DB) *TicketsRepository {
	return &TicketsRepository{db: db}
}

// ListByFile returns all tickets of one uploaded file, in id order.
func (r *TicketsRepository) ListByFile(ctx context.Context, fileID int64) ([]*domain.Ticket, error) {
	return r.list(ctx, "file_id", fileID)
}

// ListByBatch returns all tickets of one batch, in id order.
func (r *TicketsRepository) ListByBatch(ctx context.Context, batchID int64) ([]*domain.Ticket, error) {
	return r.list(ctx, "batch_id", batchID)
}

func (r *TicketsRepository) list(ctx context.Context, column string, id int64) ([]*domain.Ticket, error) {
	query := r.db.Rebind(fmt.Sprintf(
		"SELECT %s FROM tickets WHERE %s = ? ORDER BY id", ticketColumns, column,
	))

	tickets := make([]*domain.Ticket, 0)
	if err := r.db.SelectContext(ctx, &tickets, query, id); err != nil {
		return nil, fmt.Errorf("list tickets by %s: %w", column, err)
	}
	return tickets, nil
}

// UpdateClassification writes one ticket's classification result. Matched
// keywords are stored as a comma-joined string so the column stays portable
// across drivers.
func (r *TicketsRepository) UpdateClassification(ctx context.Context, ticketID int64, cls *domain.TicketClassification) error {
	query := r.db.Rebind(`
		UPDATE tickets
		SET category_id = ?, confidence = ?, method = ?, keywords = ?, classified_at = ?
		WHERE id = ?
	`)

	res, err := r.db.ExecContext(ctx, query,
		cls.CategoryID,
		cls.Confidence,
		cls.Method,
		strings.Join(cls.Keywords, ","),
		cls.ClassifiedAt,
		ticketID,
	)
	if err != nil {
		return fmt.Errorf("update ticket classification: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("update ticket classification: ticket %d not found", ticketID)
	}
	return nil
}

// LatestFileID returns the most recently uploaded file id.
func (r *TicketsRepository) LatestFileID(ctx context.Context) (int64, error) {
	var fileID sql.NullInt64
	query := "SELECT MAX(file_id) FROM tickets"
	if err := r.db.GetContext(ctx, &fileID, query); err != nil {
		return 0, fmt.Errorf("latest file id: %w", err)
	}
	if !fileID.Valid {
		return 0, ErrNoFiles
	}
	return fileID.Int64, nil
}
