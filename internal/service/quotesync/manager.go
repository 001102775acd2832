package quotesync

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/tourello/quotesync/internal/domain/models"
)

// QuoteWriter persists the pricing-owned slice of a quote document. The
// store has no knowledge of how the fields were derived.
type QuoteWriter interface {
	SaveSync(ctx context.Context, quote models.Quote, newEntries []models.PriceHistoryEntry) error
}

// Manager keeps one engine per quote editing session and flushes applied
// transitions to the quote store.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Engine

	calc     Calculator
	store    QuoteWriter
	debounce time.Duration
	logger   *zap.Logger
}

// NewManager wires a session manager.
func NewManager(calc Calculator, store QuoteWriter, debounce time.Duration, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*Engine),
		calc:     calc,
		store:    store,
		debounce: debounce,
		logger:   logger,
	}
}

// Session returns the engine for a quote, creating it on first use.
func (m *Manager) Session(quoteID string) *Engine {
	m.mu.RLock()
	engine, ok := m.sessions[quoteID]
	m.mu.RUnlock()
	if ok {
		return engine
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if engine, ok = m.sessions[quoteID]; ok {
		return engine
	}

	engine = NewEngine(quoteID, m.calc, Options{
		Debounce: m.debounce,
		OnChange: m.persist,
		Logger:   m.logger.Named("engine"),
	})
	m.sessions[quoteID] = engine
	return engine
}

// Close discards a session, cancelling any pending recomputation.
func (m *Manager) Close(quoteID string) {
	m.mu.Lock()
	engine, ok := m.sessions[quoteID]
	delete(m.sessions, quoteID)
	m.mu.Unlock()

	if ok {
		engine.Stop()
	}
}

func (m *Manager) persist(view View) {
	if m.store == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	quote := models.Quote{
		ID:            view.QuoteID,
		Price:         view.Price,
		Parameters:    view.Parameters,
		LinkedPackage: view.Snapshot,
		SyncState:     view.State,
		UpdatedAt:     time.Now().UTC(),
	}

	if err := m.store.SaveSync(ctx, quote, view.NewEntries); err != nil {
		m.logger.Error("failed to persist quote sync state",
			zap.String("quote_id", view.QuoteID),
			zap.Error(err))
	}
}
