// Package testhelpers provides shared in-memory stores for runner and API
// tests.
package testhelpers

import (
	"context"
	"errors"
	"sync"

	"github.com/csinsight/ticket-classifier/internal/domain"
)

// ErrTicketNotFound is returned when a ticket id is unknown to the mock.
var ErrTicketNotFound = errors.New("ticket not found")

// MockTicketStore implements runner.TicketStore in memory.
type MockTicketStore struct {
	mu      sync.RWMutex
	tickets []*domain.Ticket
	updates map[int64]*domain.TicketClassification

	ListErr   error
	UpdateErr error
}

// NewMockTicketStore creates a mock seeded with the given tickets.
func NewMockTicketStore(tickets ...*domain.Ticket) *MockTicketStore {
	return &MockTicketStore{
		tickets: tickets,
		updates: make(map[int64]*domain.TicketClassification),
	}
}

// ListByFile returns seeded tickets matching the file id.
func (m *MockTicketStore) ListByFile(_ context.Context, fileID int64) ([]*domain.Ticket, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Ticket, 0)
	for _, t := range m.tickets {
		if t.FileID == fileID {
			out = append(out, t)
		}
	}
	return out, nil
}

// ListByBatch returns seeded tickets matching the batch id.
func (m *MockTicketStore) ListByBatch(_ context.Context, batchID int64) ([]*domain.Ticket, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.Ticket, 0)
	for _, t := range m.tickets {
		if t.BatchID != nil && *t.BatchID == batchID {
			out = append(out, t)
		}
	}
	return out, nil
}

// UpdateClassification records the write-back for later assertions.
func (m *MockTicketStore) UpdateClassification(_ context.Context, ticketID int64, cls *domain.TicketClassification) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.ID == ticketID {
			m.updates[ticketID] = cls
			return nil
		}
	}
	return ErrTicketNotFound
}

// Updates returns the recorded classification write-backs.
func (m *MockTicketStore) Updates() map[int64]*domain.TicketClassification {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[int64]*domain.TicketClassification, len(m.updates))
	for id, cls := range m.updates {
		out[id] = cls
	}
	return out
}

// MockCategoryStore implements runner.CategoryStore in memory.
type MockCategoryStore struct {
	MappingValue domain.CategoryMapping
	Err          error
}

// NewMockCategoryStore creates a mock serving the canonical seed mapping.
func NewMockCategoryStore() *MockCategoryStore {
	mapping := make(domain.CategoryMapping)
	for _, c := range domain.DefaultCategories() {
		mapping[c.ID] = c.Name
	}
	return &MockCategoryStore{MappingValue: mapping}
}

// Mapping returns the configured mapping.
func (m *MockCategoryStore) Mapping(_ context.Context) (domain.CategoryMapping, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.MappingValue, nil
}

// MockRunStore implements runner.RunStore in memory.
type MockRunStore struct {
	mu     sync.Mutex
	nextID int64

	Runs          []*domain.ClassificationRun
	CategoryStats map[int64][]domain.CategoryStat
	ChannelStats  map[int64][]domain.ChannelStat
	Reliability   map[int64]domain.ReliabilityStat

	CreateErr error
	SaveErr   error
}

// NewMockRunStore creates an empty run store.
func NewMockRunStore() *MockRunStore {
	return &MockRunStore{
		nextID:        1,
		CategoryStats: make(map[int64][]domain.CategoryStat),
		ChannelStats:  make(map[int64][]domain.ChannelStat),
		Reliability:   make(map[int64]domain.ReliabilityStat),
	}
}

// CreateRun assigns the next id and records the run.
func (m *MockRunStore) CreateRun(_ context.Context, run *domain.ClassificationRun) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	run.ID = id
	m.Runs = append(m.Runs, run)
	return id, nil
}

// SaveCategoryStats records the rollup.
func (m *MockRunStore) SaveCategoryStats(_ context.Context, runID int64, stats []domain.CategoryStat) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CategoryStats[runID] = stats
	return nil
}

// SaveChannelStats records the rollup.
func (m *MockRunStore) SaveChannelStats(_ context.Context, runID int64, stats []domain.ChannelStat) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChannelStats[runID] = stats
	return nil
}

// SaveReliability records the rollup.
func (m *MockRunStore) SaveReliability(_ context.Context, runID int64, stat domain.ReliabilityStat) error {
	if m.SaveErr != nil {
		return m.SaveErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reliability[runID] = stat
	return nil
}

// NopLogger satisfies the key-value Logger interfaces used across packages.
type NopLogger struct{}

func (NopLogger) Debug(string, ...any) {}
func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
