// Package api exposes the classification runner and its reference data over
// HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/csinsight/ticket-classifier/internal/classifier"
	"github.com/csinsight/ticket-classifier/internal/database"
	"github.com/csinsight/ticket-classifier/internal/domain"
	"github.com/csinsight/ticket-classifier/internal/insights"
	"github.com/csinsight/ticket-classifier/internal/report"
	"github.com/csinsight/ticket-classifier/internal/runner"
)

// Logger defines the logging interface.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Pinger verifies backing-store connectivity for the health endpoint.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler handles HTTP requests for the classifier API.
type Handler struct {
	runner        *runner.Runner
	rules         *classifier.RuleTable
	tickets       *database.TicketsRepository
	categories    *database.CategoriesRepository
	runs          *database.RunsRepository
	insights      *insights.Generator
	db            Pinger
	defaultEngine string
	serviceName   string
	version       string
	logger        Logger
}

// NewHandler creates a new API handler.
func NewHandler(
	run *runner.Runner,
	rules *classifier.RuleTable,
	tickets *database.TicketsRepository,
	categories *database.CategoriesRepository,
	runs *database.RunsRepository,
	insightsGen *insights.Generator,
	db Pinger,
	defaultEngine, serviceName, version string,
	logger Logger,
) *Handler {
	return &Handler{
		runner:        run,
		rules:         rules,
		tickets:       tickets,
		categories:    categories,
		runs:          runs,
		insights:      insightsGen,
		db:            db,
		defaultEngine: defaultEngine,
		serviceName:   serviceName,
		version:       version,
		logger:        logger,
	}
}

// RunClassification handles POST /api/v1/classifications/run.
//
// Exactly one of file_id and batch_id may be set. When neither is set the
// most recently uploaded file is classified.
func (h *Handler) RunClassification(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid run request", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.FileID != nil && req.BatchID != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_id and batch_id are mutually exclusive"})
		return
	}

	target, err := h.resolveTarget(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, database.ErrNoFiles) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no uploaded ticket files found"})
			return
		}
		h.logger.Error("failed to resolve run target", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve run target"})
		return
	}

	engine := req.Engine
	if engine == "" {
		engine = h.defaultEngine
	}

	payload, err := h.runner.Run(c.Request.Context(), runner.Request{
		UserID: req.UserID,
		Target: target,
		Engine: engine,
	})
	if err != nil {
		h.renderRunError(c, err)
		return
	}

	c.JSON(http.StatusOK, payload)
}

func (h *Handler) resolveTarget(ctx context.Context, req *RunRequest) (domain.Target, error) {
	switch {
	case req.BatchID != nil:
		return domain.Target{BatchID: *req.BatchID}, nil
	case req.FileID != nil:
		return domain.Target{FileID: *req.FileID}, nil
	default:
		fileID, err := h.tickets.LatestFileID(ctx)
		if err != nil {
			return domain.Target{}, err
		}
		return domain.Target{FileID: fileID}, nil
	}
}

func (h *Handler) renderRunError(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrNoCategories) {
		h.logger.Warn("run rejected: categories not seeded")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	// A bad engine name is a malformed request, not a pipeline failure.
	if errors.Is(err, domain.ErrUnknownEngine) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var runErr *domain.RunError
	if errors.As(err, &runErr) {
		h.logger.Error("classification run failed", "stage", runErr.Stage, "error", runErr.Err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": runErr.Error()})
		return
	}

	h.logger.Error("classification run failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "classification run failed"})
}

// GetLatestClassification handles GET /api/v1/classifications/latest.
//
// It rebuilds the response payload from the persisted run and aggregates,
// optionally narrowed to one file via the file_id query parameter. Exemplar
// tickets are presentation data computed at run time and are not persisted,
// so the tickets section of a replayed payload is empty.
func (h *Handler) GetLatestClassification(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	var fileID *int64
	if raw := c.Query("file_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file_id must be an integer"})
			return
		}
		fileID = &id
	}

	payload, err := h.loadLatestPayload(c.Request.Context(), userID, fileID)
	if err != nil {
		if errors.Is(err, database.ErrNoRuns) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no classification runs found"})
			return
		}
		h.logger.Error("failed to load latest run", "user_id", userID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load latest run"})
		return
	}

	c.JSON(http.StatusOK, payload)
}

func (h *Handler) loadLatestPayload(ctx context.Context, userID int64, fileID *int64) (*report.Payload, error) {
	run, err := h.runs.GetLatestRun(ctx, userID, fileID)
	if err != nil {
		return nil, err
	}

	categoryStats, err := h.runs.GetCategoryStats(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	channelStats, err := h.runs.GetChannelStats(ctx, run.ID)
	if err != nil {
		return nil, err
	}
	reliability, err := h.runs.GetReliability(ctx, run.ID)
	if err != nil {
		return nil, err
	}

	return report.Build(run, categoryStats, channelStats, reliability, emptyExemplars()), nil
}

// ListRules handles GET /api/v1/rules. The rule table is compiled in, so
// this is a read-only view for the dashboard.
func (h *Handler) ListRules(c *gin.Context) {
	categories := h.rules.Categories()
	rules := make([]RuleResponse, 0, len(categories))
	for i, cat := range categories {
		rules = append(rules, RuleResponse{
			Category: cat.Name,
			Priority: i + 1,
			Keywords: cat.Keywords,
		})
	}

	c.JSON(http.StatusOK, RulesListResponse{
		Rules:        rules,
		InquiryRules: h.rules.InquiryRules(),
		Total:        len(rules),
	})
}

// ListCategories handles GET /api/v1/categories.
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.categories.List(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to list categories", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories, "total": len(categories)})
}

// GenerateInsights handles POST /api/v1/reports/insights. The narrative is
// derived from the caller's latest run.
func (h *Handler) GenerateInsights(c *gin.Context) {
	var req InsightsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload, err := h.loadLatestPayload(c.Request.Context(), req.UserID, req.FileID)
	if err != nil {
		if errors.Is(err, database.ErrNoRuns) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no classification runs found"})
			return
		}
		h.logger.Error("failed to load latest run for insights", "user_id", req.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load latest run"})
		return
	}

	rep := h.insights.Generate(c.Request.Context(), payload)
	c.JSON(http.StatusOK, rep)
}

// HealthCheck handles GET /healthz.
func (h *Handler) HealthCheck(c *gin.Context) {
	status := http.StatusOK
	dbStatus := "ok"
	if err := h.db.PingContext(c.Request.Context()); err != nil {
		status = http.StatusServiceUnavailable
		dbStatus = "unreachable"
		h.logger.Error("health check database ping failed", "error", err)
	}

	c.JSON(status, gin.H{
		"status":   statusWord(status),
		"service":  h.serviceName,
		"version":  h.version,
		"database": dbStatus,
	})
}

func statusWord(status int) string {
	if status == http.StatusOK {
		return "healthy"
	}
	return "unhealthy"
}
