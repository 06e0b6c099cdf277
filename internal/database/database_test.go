package database

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csinsight/ticket-classifier/internal/domain"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Connect("sqlite3", ":memory:")
	require.NoError(t, err)
	// Every pooled connection to :memory: would see its own database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, EnsureSchema(context.Background(), db))
	return db
}

func seedTickets(t *testing.T, db *sqlx.DB, tickets ...*domain.Ticket) {
	t.Helper()
	query := `
		INSERT INTO tickets (id, file_id, batch_id, received_at, channel, inquiry_type, title, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, tk := range tickets {
		_, err := db.Exec(query,
			tk.ID, tk.FileID, tk.BatchID, tk.ReceivedAt, tk.Channel, tk.InquiryType, tk.Title, tk.Body,
		)
		require.NoError(t, err)
	}
}

func TestCategoriesRepository(t *testing.T) {
	db := testDB(t)
	repo := NewCategoriesRepository(db)
	ctx := context.Background()

	t.Run("seed inserts canonical set", func(t *testing.T) {
		require.NoError(t, repo.Seed(ctx))

		categories, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, categories, 8)
		assert.Equal(t, domain.CategoryQuality, categories[0].Name)
		assert.Equal(t, domain.CategoryOther, categories[7].Name)
	})

	t.Run("seed is idempotent", func(t *testing.T) {
		require.NoError(t, repo.Seed(ctx))

		categories, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Len(t, categories, 8)
	})

	t.Run("mapping mirrors rows", func(t *testing.T) {
		mapping, err := repo.Mapping(ctx)
		require.NoError(t, err)
		assert.Len(t, mapping, 8)
		assert.Equal(t, domain.CategoryShipping, mapping[3])
	})
}

func TestTicketsRepository(t *testing.T) {
	db := testDB(t)
	repo := NewTicketsRepository(db)
	ctx := context.Background()

	batchID := int64(9)
	received := time.Date(2026, 2, 3, 10, 0, 0, 0, time.UTC)
	seedTickets(t, db,
		&domain.Ticket{ID: 2, FileID: 1, Channel: "web", InquiryType: "배송지연", ReceivedAt: &received},
		&domain.Ticket{ID: 1, FileID: 1, Channel: "call", Body: "환불해주세요"},
		&domain.Ticket{ID: 3, FileID: 2, BatchID: &batchID, Channel: "web"},
	)

	t.Run("list by file in id order", func(t *testing.T) {
		tickets, err := repo.ListByFile(ctx, 1)
		require.NoError(t, err)
		require.Len(t, tickets, 2)
		assert.Equal(t, int64(1), tickets[0].ID)
		assert.Equal(t, int64(2), tickets[1].ID)
		assert.Equal(t, "배송지연", tickets[1].InquiryType)
	})

	t.Run("list by batch", func(t *testing.T) {
		tickets, err := repo.ListByBatch(ctx, 9)
		require.NoError(t, err)
		require.Len(t, tickets, 1)
		assert.Equal(t, int64(3), tickets[0].ID)
	})

	t.Run("list unknown file returns empty", func(t *testing.T) {
		tickets, err := repo.ListByFile(ctx, 99)
		require.NoError(t, err)
		assert.Empty(t, tickets)
	})

	t.Run("latest file id", func(t *testing.T) {
		latest, err := repo.LatestFileID(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), latest)
	})

	t.Run("update classification", func(t *testing.T) {
		err := repo.UpdateClassification(ctx, 1, &domain.TicketClassification{
			CategoryID:   5,
			Confidence:   0.65,
			Method:       domain.MethodRuleBased,
			Keywords:     []string{"환불"},
			ClassifiedAt: time.Now(),
		})
		require.NoError(t, err)

		var row struct {
			CategoryID int64   `db:"category_id"`
			Confidence float64 `db:"confidence"`
			Keywords   string  `db:"keywords"`
		}
		err = db.Get(&row, "SELECT category_id, confidence, keywords FROM tickets WHERE id = 1")
		require.NoError(t, err)
		assert.Equal(t, int64(5), row.CategoryID)
		assert.InDelta(t, 0.65, row.Confidence, 1e-9)
		assert.Equal(t, "환불", row.Keywords)
	})

	t.Run("update unknown ticket fails", func(t *testing.T) {
		err := repo.UpdateClassification(ctx, 999, &domain.TicketClassification{
			CategoryID: 5, Method: domain.MethodRuleBased, ClassifiedAt: time.Now(),
		})
		assert.ErrorContains(t, err, "ticket 999 not found")
	})
}

func TestTicketsRepository_LatestFileID_NoFiles(t *testing.T) {
	repo := NewTicketsRepository(testDB(t))

	_, err := repo.LatestFileID(context.Background())
	assert.ErrorIs(t, err, ErrNoFiles)
}

func TestRunsRepository(t *testing.T) {
	db := testDB(t)
	require.NoError(t, NewCategoriesRepository(db).Seed(context.Background()))
	repo := NewRunsRepository(db)
	ctx := context.Background()

	fileID := int64(1)
	from := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	run := &domain.ClassificationRun{
		UserID:      1,
		FileID:      &fileID,
		EngineName:  domain.EngineRuleBased,
		TotalCount:  3,
		PeriodFrom:  &from,
		PeriodTo:    &to,
		NeedsReview: true,
		CreatedAt:   time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	runID, err := repo.CreateRun(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, int64(1), runID)

	require.NoError(t, repo.SaveCategoryStats(ctx, runID, []domain.CategoryStat{
		{CategoryID: 3, Count: 2, Ratio: 0.666667, Keywords: []string{"배송", "지연"}},
		{CategoryID: 5, Count: 1, Ratio: 0.333333, Keywords: []string{"환불"}},
	}))
	require.NoError(t, repo.SaveChannelStats(ctx, runID, []domain.ChannelStat{
		{Channel: "web", CategoryID: 3, Count: 2, Ratio: 1},
		{Channel: "call", CategoryID: 5, Count: 1, Ratio: 1},
	}))
	require.NoError(t, repo.SaveReliability(ctx, runID, domain.ReliabilityStat{
		Split: domain.ReliabilitySplit, Accuracy: 0.683, MacroF1: 0.649, MicroF1: 0.67, AvgConfidence: 0.6833,
	}))

	t.Run("latest run round trip", func(t *testing.T) {
		got, err := repo.GetLatestRun(ctx, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, runID, got.ID)
		assert.Equal(t, domain.EngineRuleBased, got.EngineName)
		assert.Equal(t, 3, got.TotalCount)
		assert.True(t, got.NeedsReview)
		require.NotNil(t, got.FileID)
		assert.Equal(t, int64(1), *got.FileID)
	})

	t.Run("latest run picks newest", func(t *testing.T) {
		second := &domain.ClassificationRun{
			UserID: 1, FileID: &fileID, EngineName: domain.EngineRuleBased,
			TotalCount: 1, CreatedAt: time.Now(),
		}
		secondID, err := repo.CreateRun(ctx, second)
		require.NoError(t, err)

		got, err := repo.GetLatestRun(ctx, 1, nil)
		require.NoError(t, err)
		assert.Equal(t, secondID, got.ID)
	})

	t.Run("latest run narrowed to file", func(t *testing.T) {
		otherFile := int64(7)
		_, err := repo.CreateRun(ctx, &domain.ClassificationRun{
			UserID: 1, FileID: &otherFile, EngineName: domain.EngineRuleBased,
			TotalCount: 5, CreatedAt: time.Now(),
		})
		require.NoError(t, err)

		got, err := repo.GetLatestRun(ctx, 1, &fileID)
		require.NoError(t, err)
		require.NotNil(t, got.FileID)
		assert.Equal(t, fileID, *got.FileID)

		missing := int64(99)
		_, err = repo.GetLatestRun(ctx, 1, &missing)
		assert.ErrorIs(t, err, ErrNoRuns)
	})

	t.Run("no runs for unknown user", func(t *testing.T) {
		_, err := repo.GetLatestRun(ctx, 42, nil)
		assert.ErrorIs(t, err, ErrNoRuns)
	})

	t.Run("category stats join names", func(t *testing.T) {
		stats, err := repo.GetCategoryStats(ctx, runID)
		require.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Equal(t, domain.CategoryShipping, stats[0].CategoryName)
		assert.Equal(t, []string{"배송", "지연"}, stats[0].Keywords)
		assert.Equal(t, domain.CategoryPayment, stats[1].CategoryName)
	})

	t.Run("channel stats join names", func(t *testing.T) {
		stats, err := repo.GetChannelStats(ctx, runID)
		require.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Equal(t, "call", stats[0].Channel)
		assert.Equal(t, domain.CategoryPayment, stats[0].CategoryName)
		assert.Equal(t, "web", stats[1].Channel)
	})

	t.Run("reliability round trip", func(t *testing.T) {
		stat, err := repo.GetReliability(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.ReliabilitySplit, stat.Split)
		assert.InDelta(t, 0.683, stat.Accuracy, 1e-9)
		assert.InDelta(t, 0.6833, stat.AvgConfidence, 1e-9)
	})
}

func TestSplitKeywords(t *testing.T) {
	assert.Equal(t, []string{}, splitKeywords(""))
	assert.Equal(t, []string{"배송"}, splitKeywords("배송"))
	assert.Equal(t, []string{"배송", "지연"}, splitKeywords("배송,지연"))
}
