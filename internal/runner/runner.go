// Package runner orchestrates one classification run end to end: fetch the
// target tickets, classify them through the selected engine, persist the
// results and aggregates, and assemble the response payload.
package runner

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/csinsight/ticket-classifier/internal/aggregate"
	"github.com/csinsight/ticket-classifier/internal/classifier"
	"github.com/csinsight/ticket-classifier/internal/domain"
	"github.com/csinsight/ticket-classifier/internal/report"
	"github.com/csinsight/ticket-classifier/internal/telemetry"
)

const (
	defaultConcurrency = 10

	// needsReviewThreshold flags a run whose average confidence is low
	// enough that an operator should eyeball the results.
	needsReviewThreshold = 0.7
)

// Pipeline stages used in RunError wrapping.
const (
	stageMapping  = "category mapping"
	stageFetch    = "ticket fetch"
	stageClassify = "classification"
	stagePersist  = "persistence"
)

// TicketStore loads run targets and writes back per-ticket results.
type TicketStore interface {
	ListByFile(ctx context.Context, fileID int64) ([]*domain.Ticket, error)
	ListByBatch(ctx context.Context, batchID int64) ([]*domain.Ticket, error)
	UpdateClassification(ctx context.Context, ticketID int64, cls *domain.TicketClassification) error
}

// CategoryStore provides the seeded category reference data.
type CategoryStore interface {
	Mapping(ctx context.Context) (domain.CategoryMapping, error)
}

// RunStore persists run rows and their aggregate rollups.
type RunStore interface {
	CreateRun(ctx context.Context, run *domain.ClassificationRun) (int64, error)
	SaveCategoryStats(ctx context.Context, runID int64, stats []domain.CategoryStat) error
	SaveChannelStats(ctx context.Context, runID int64, stats []domain.ChannelStat) error
	SaveReliability(ctx context.Context, runID int64, stat domain.ReliabilityStat) error
}

// ClassifierFactory builds a classification engine bound to a category
// mapping. The mapping is loaded fresh per run so reseeded reference data is
// picked up without a restart.
type ClassifierFactory interface {
	Build(engine string, mapping domain.CategoryMapping) (classifier.Classifier, error)
}

// Logger defines the logging interface.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Runner executes classification runs.
type Runner struct {
	tickets     TicketStore
	categories  CategoryStore
	runs        RunStore
	factory     ClassifierFactory
	aggregator  *aggregate.Engine
	telemetry   *telemetry.Provider
	concurrency int
	logger      Logger
	now         func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithConcurrency sets the classification worker pool size.
func WithConcurrency(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.concurrency = n
		}
	}
}

// WithTelemetry attaches a telemetry provider. The runner works without one.
func WithTelemetry(p *telemetry.Provider) Option {
	return func(r *Runner) { r.telemetry = p }
}

// WithClock overrides the run clock.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a run orchestrator.
func New(
	tickets TicketStore,
	categories CategoryStore,
	runs RunStore,
	factory ClassifierFactory,
	aggregator *aggregate.Engine,
	logger Logger,
	opts ...Option,
) *Runner {
	r := &Runner{
		tickets:     tickets,
		categories:  categories,
		runs:        runs,
		factory:     factory,
		aggregator:  aggregator,
		concurrency: defaultConcurrency,
		logger:      logger,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Request describes one classification run.
type Request struct {
	UserID int64
	Target domain.Target
	Engine string
}

// Run executes one classification run and returns the response payload.
//
// A run over zero tickets is not an error: it returns the well-formed empty
// payload. An empty category mapping returns domain.ErrNoCategories. Any
// other failure is wrapped in a domain.RunError naming the stage; a failed
// run leaves no usable partial state and must be re-run from scratch.
func (r *Runner) Run(ctx context.Context, req Request) (*report.Payload, error) {
	start := r.now()

	ctx, span := r.startSpan(ctx, req)
	defer span.end()

	mapping, err := r.categories.Mapping(ctx)
	if err != nil {
		return nil, domain.NewRunError(stageMapping, err)
	}
	if len(mapping) == 0 {
		return nil, domain.ErrNoCategories
	}

	engine, err := r.factory.Build(req.Engine, mapping)
	if err != nil {
		return nil, domain.NewRunError(stageClassify, err)
	}

	tickets, err := r.fetchTickets(ctx, req.Target)
	if err != nil {
		return nil, domain.NewRunError(stageFetch, err)
	}

	if len(tickets) == 0 {
		r.logger.Info("run target has no tickets",
			"user_id", req.UserID,
			"file_id", req.Target.FileID,
			"batch_id", req.Target.BatchID,
		)
		r.recordRun(ctx, "empty", engine.EngineName(), 0, r.now().Sub(start))
		return report.BuildEmpty(req.UserID, req.Target, engine.EngineName(), r.now()), nil
	}

	r.logger.Info("starting classification run",
		"user_id", req.UserID,
		"engine", engine.EngineName(),
		"tickets", len(tickets),
		"concurrency", r.concurrency,
	)

	results, err := r.classifyAll(ctx, engine, tickets)
	if err != nil {
		r.recordRun(ctx, "error", engine.EngineName(), len(tickets), r.now().Sub(start))
		return nil, domain.NewRunError(stageClassify, err)
	}

	reliability := r.aggregator.Reliability(results)

	run := &domain.ClassificationRun{
		UserID:      req.UserID,
		EngineName:  engine.EngineName(),
		TotalCount:  len(tickets),
		NeedsReview: reliability.AvgConfidence < needsReviewThreshold,
		CreatedAt:   r.now(),
	}
	if req.Target.IsBatch() {
		batchID := req.Target.BatchID
		run.BatchID = &batchID
	} else {
		fileID := req.Target.FileID
		run.FileID = &fileID
	}
	run.PeriodFrom, run.PeriodTo = periodBounds(tickets)

	if err := r.persist(ctx, run, results); err != nil {
		r.recordRun(ctx, "error", engine.EngineName(), len(tickets), r.now().Sub(start))
		return nil, domain.NewRunError(stagePersist, err)
	}

	categoryStats := r.aggregator.CategoryStats(results)
	channelStats := r.aggregator.ChannelStats(results)
	exemplars := r.aggregator.TopExemplars(results)

	if err := r.persistAggregates(ctx, run.ID, categoryStats, channelStats, reliability); err != nil {
		r.recordRun(ctx, "error", engine.EngineName(), len(tickets), r.now().Sub(start))
		return nil, domain.NewRunError(stagePersist, err)
	}

	duration := r.now().Sub(start)
	r.recordRun(ctx, "success", engine.EngineName(), len(tickets), duration)
	r.logger.Info("classification run complete",
		"run_id", run.ID,
		"tickets", len(tickets),
		"needs_review", run.NeedsReview,
		"avg_confidence", reliability.AvgConfidence,
		"duration_ms", duration.Milliseconds(),
	)

	return report.Build(run, categoryStats, channelStats, reliability, exemplars), nil
}

func (r *Runner) fetchTickets(ctx context.Context, target domain.Target) ([]*domain.Ticket, error) {
	if target.IsBatch() {
		return r.tickets.ListByBatch(ctx, target.BatchID)
	}
	return r.tickets.ListByFile(ctx, target.FileID)
}

// classifyAll runs the engine over all tickets with a worker pool. Results
// are index-addressed so downstream persistence and aggregation see tickets
// in their original order regardless of worker scheduling.
func (r *Runner) classifyAll(ctx context.Context, engine classifier.Classifier, tickets []*domain.Ticket) ([]aggregate.Result, error) {
	type job struct {
		index  int
		ticket *domain.Ticket
	}

	jobs := make(chan job, len(tickets))
	errs := make(chan error, len(tickets))
	results := make([]aggregate.Result, len(tickets))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	workers := r.concurrency
	if workers > len(tickets) {
		workers = len(tickets)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				select {
				case <-ctx.Done():
					return
				default:
				}

				cls, err := engine.Classify(ctx, j.ticket)
				if err != nil {
					r.logger.Error("ticket classification failed",
						"ticket_id", j.ticket.ID,
						"error", err,
					)
					errs <- err
					cancel()
					return
				}
				results[j.index] = aggregate.Result{Ticket: j.ticket, Classification: cls}
				r.recordTicket(ctx, cls)
			}
		}()
	}

	for i, t := range tickets {
		jobs <- job{index: i, ticket: t}
	}
	close(jobs)
	wg.Wait()
	close(errs)

	if err := <-errs; err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// persist writes the run row and every per-ticket classification, in ticket
// order.
func (r *Runner) persist(ctx context.Context, run *domain.ClassificationRun, results []aggregate.Result) error {
	id, err := r.runs.CreateRun(ctx, run)
	if err != nil {
		return err
	}
	run.ID = id

	for _, res := range results {
		if err := r.tickets.UpdateClassification(ctx, res.Ticket.ID, res.Classification); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) persistAggregates(
	ctx context.Context,
	runID int64,
	categoryStats []domain.CategoryStat,
	channelStats []domain.ChannelStat,
	reliability domain.ReliabilityStat,
) error {
	if err := r.runs.SaveCategoryStats(ctx, runID, categoryStats); err != nil {
		return err
	}
	if err := r.runs.SaveChannelStats(ctx, runID, channelStats); err != nil {
		return err
	}
	return r.runs.SaveReliability(ctx, runID, reliability)
}

// periodBounds scans ticket received timestamps for the run's min and max.
// Tickets without a timestamp are skipped; both bounds are nil when none
// carry one.
func periodBounds(tickets []*domain.Ticket) (*time.Time, *time.Time) {
	var from, to *time.Time
	for _, t := range tickets {
		if t.ReceivedAt == nil {
			continue
		}
		ts := *t.ReceivedAt
		if from == nil || ts.Before(*from) {
			v := ts
			from = &v
		}
		if to == nil || ts.After(*to) {
			v := ts
			to = &v
		}
	}
	return from, to
}

// telemetry helpers, nil-safe so the runner works without a provider.

type spanCloser struct{ end func() }

func (r *Runner) startSpan(ctx context.Context, req Request) (context.Context, spanCloser) {
	if r.telemetry == nil {
		return ctx, spanCloser{end: func() {}}
	}
	ctx, span := r.telemetry.StartSpan(ctx, "classification.run",
		attribute.Int64("user_id", req.UserID),
		attribute.String("engine", req.Engine),
	)
	return ctx, spanCloser{end: func() { span.End() }}
}

func (r *Runner) recordRun(ctx context.Context, status, engine string, size int, duration time.Duration) {
	if r.telemetry == nil {
		return
	}
	r.telemetry.RecordRun(ctx, status, engine, size, duration)
}

func (r *Runner) recordTicket(ctx context.Context, cls *domain.TicketClassification) {
	if r.telemetry == nil {
		return
	}
	r.telemetry.RecordTicket(ctx, cls.CategoryName, cls.Confidence)
}
