package quotesync

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tourello/quotesync/internal/domain/models"
)

// DefaultDebounce is the quiet period that coalesces bursts of parameter
// edits into a single recomputation.
const DefaultDebounce = 500 * time.Millisecond

// ErrNoLinkedPackage indicates an operation that requires a linked package
// was invoked on an unlinked session.
var ErrNoLinkedPackage = errors.New("no package linked to quote")

// Calculator is the pure price calculation the engine drives.
type Calculator interface {
	Calculate(pkg *models.TravelPackage, params models.QuoteParameters) (*models.CalculationResult, error)
}

// View is an immutable copy of the engine state handed to the OnChange
// callback after every applied transition. NewEntries holds only the
// history entries appended by that transition.
type View struct {
	QuoteID    string
	State      models.SyncState
	Price      *models.Price
	Parameters models.QuoteParameters
	Snapshot   *models.LinkedPackageSnapshot
	History    []models.PriceHistoryEntry
	NewEntries []models.PriceHistoryEntry
}

// Options tunes an engine instance.
type Options struct {
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
	// OnChange is invoked after every applied transition while the engine
	// lock is held; it must not call back into the engine.
	OnChange func(View)
	Logger   *zap.Logger
}

// Engine owns the synchronization between a quote's live price and its
// linked package: it debounces parameter edits, runs the calculator,
// detects manual overrides and keeps the append-only price history.
//
// An engine belongs to exactly one editing session. The linked package
// snapshot is immutable for the lifetime of the link; external package
// edits are only picked up by an explicit relink.
type Engine struct {
	mu       sync.Mutex
	calc     Calculator
	logger   *zap.Logger
	debounce time.Duration
	now      func() time.Time
	onChange func(View)

	quoteID  string
	pkg      *models.TravelPackage
	params   models.QuoteParameters
	price    *models.Price
	snapshot *models.LinkedPackageSnapshot
	history  []models.PriceHistoryEntry

	state       models.SyncState
	lastFailure *models.CalculationError
	lastError   string

	// seq orders recomputation requests; a completion whose seq no longer
	// matches is stale and dropped unconditionally.
	seq   uint64
	timer *time.Timer
}

// NewEngine builds an engine for one quote editing session.
func NewEngine(quoteID string, calc Calculator, opts Options) *Engine {
	e := &Engine{
		calc:     calc,
		logger:   opts.Logger,
		debounce: opts.Debounce,
		now:      opts.Clock,
		onChange: opts.OnChange,
		quoteID:  quoteID,
		state:    models.SyncStateUnlinked,
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}
	if e.debounce <= 0 {
		e.debounce = DefaultDebounce
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// LinkPackage attaches a package version snapshot to the quote and runs
// the calculator once, synchronously. On failure the engine moves to the
// error state and the previously linked data is left untouched.
func (e *Engine) LinkPackage(userID string, pkg *models.TravelPackage, params models.QuoteParameters) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelPendingLocked()

	result, err := e.safeCalculate(pkg, params)
	if err != nil {
		e.recordFailureLocked(err)
		e.emitLocked(nil)
		return err
	}

	e.pkg = pkg
	e.params = params
	e.snapshot = &models.LinkedPackageSnapshot{
		PackageID:      pkg.ID,
		PackageName:    pkg.Name,
		PackageVersion: pkg.Version,
	}
	entry := e.applyResultLocked(userID, result, models.ReasonPackageSelection)
	e.emitLocked([]models.PriceHistoryEntry{entry})

	e.logger.Info("package linked",
		zap.String("quote_id", e.quoteID),
		zap.String("package_id", pkg.ID),
		zap.Int("package_version", pkg.Version))
	return nil
}

// UpdateParameters records an edit of the (people, nights, arrival date)
// triple. While a package is linked and the price is not custom it arms
// the debounced recomputation; while the price is custom it only flags
// the quote as out of sync.
func (e *Engine) UpdateParameters(userID string, params models.QuoteParameters) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.params = params

	if e.pkg == nil || e.snapshot == nil {
		e.emitLocked(nil)
		return
	}

	if e.snapshot.CustomPriceApplied {
		// Automatic sync is suspended; signal that the custom price may no
		// longer correspond to the current parameters.
		e.state = models.SyncStateOutOfSync
		e.emitLocked(nil)
		return
	}

	e.state = models.SyncStateCalculating
	e.armRecalculationLocked(userID)
	e.emitLocked(nil)
}

// SetPrice records a live price edit. A value different from the
// calculated price is a manual override: it suspends automatic sync and
// is logged to the history.
func (e *Engine) SetPrice(userID string, price models.Price) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.price = &price

	if e.snapshot == nil || price.Equal(e.snapshot.CalculatedPrice) {
		e.emitLocked(nil)
		return
	}

	e.cancelPendingLocked()
	e.snapshot.CustomPriceApplied = true
	e.state = models.SyncStateCustom
	entry := e.appendHistoryLocked(userID, price, models.ReasonManualOverride)
	e.emitLocked([]models.PriceHistoryEntry{entry})

	e.logger.Info("manual price override",
		zap.String("quote_id", e.quoteID),
		zap.String("price", price.String()))
}

// ResetToCalculated discards a manual override and immediately re-runs
// the calculator against the current parameters.
func (e *Engine) ResetToCalculated(userID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.pkg == nil || e.snapshot == nil {
		return ErrNoLinkedPackage
	}

	e.cancelPendingLocked()
	e.snapshot.CustomPriceApplied = false
	e.state = models.SyncStateCalculating

	result, err := e.safeCalculate(e.pkg, e.params)
	if err != nil {
		e.recordFailureLocked(err)
		e.emitLocked(nil)
		return err
	}

	entry := e.applyResultLocked(userID, result, models.ReasonRecalculation)
	e.emitLocked([]models.PriceHistoryEntry{entry})
	return nil
}

// Unlink detaches the package: the snapshot is cleared, any pending
// recomputation is cancelled, and every other quote field, the live price
// included, is left exactly as it was.
func (e *Engine) Unlink() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cancelPendingLocked()
	e.pkg = nil
	e.snapshot = nil
	e.lastFailure = nil
	e.lastError = ""
	e.state = models.SyncStateUnlinked
	e.emitLocked(nil)

	e.logger.Info("package unlinked", zap.String("quote_id", e.quoteID))
}

// Stop cancels any pending recomputation without changing the sync state.
// Used when an editing session is closed.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelPendingLocked()
}

// State returns the current sync state.
func (e *Engine) State() models.SyncState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Price returns the live quote price, if any.
func (e *Engine) Price() *models.Price {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.price == nil {
		return nil
	}
	p := *e.price
	return &p
}

// Parameters returns the current parameter triple.
func (e *Engine) Parameters() models.QuoteParameters {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.params
}

// Snapshot returns a copy of the linked package snapshot, or nil when
// unlinked.
func (e *Engine) Snapshot() *models.LinkedPackageSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneSnapshot(e.snapshot)
}

// History returns a copy of the price history in append order.
func (e *Engine) History() []models.PriceHistoryEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]models.PriceHistoryEntry, len(e.history))
	copy(out, e.history)
	return out
}

// LastFailure returns the retained failure of the most recent calculation
// while in the error state, or nil.
func (e *Engine) LastFailure() *models.CalculationError {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastFailure == nil {
		if e.lastError == "" {
			return nil
		}
		return &models.CalculationError{Code: "CALCULATION_FAILED", Message: e.lastError}
	}
	failure := *e.lastFailure
	return &failure
}

// armRecalculationLocked restarts the debounce timer. A newer edit within
// the quiet period cancels the pending run by bumping seq.
func (e *Engine) armRecalculationLocked(userID string) {
	if e.timer != nil {
		e.timer.Stop()
	}
	e.seq++
	seq := e.seq
	pkg := e.pkg
	params := e.params
	e.timer = time.AfterFunc(e.debounce, func() {
		e.recalculate(seq, userID, pkg, params)
	})
}

// recalculate is the debounced completion path. The seq check runs twice:
// once before the (possibly slow) calculation, once before applying, so a
// result older than the most recently issued request is never applied.
func (e *Engine) recalculate(seq uint64, userID string, pkg *models.TravelPackage, params models.QuoteParameters) {
	e.mu.Lock()
	if seq != e.seq {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	result, err := e.safeCalculate(pkg, params)

	e.mu.Lock()
	defer e.mu.Unlock()

	if seq != e.seq {
		e.logger.Debug("discarding stale calculation result",
			zap.String("quote_id", e.quoteID),
			zap.Uint64("seq", seq),
			zap.Uint64("latest", e.seq))
		return
	}

	if err != nil {
		e.recordFailureLocked(err)
		e.emitLocked(nil)
		return
	}

	entry := e.applyResultLocked(userID, result, models.ReasonRecalculation)
	e.emitLocked([]models.PriceHistoryEntry{entry})
}

// applyResultLocked writes a successful calculation into the snapshot,
// the live price and the history. On-request results leave the live price
// untouched for manual entry.
func (e *Engine) applyResultLocked(userID string, result *models.CalculationResult, reason models.HistoryReason) models.PriceHistoryEntry {
	now := e.now().UTC()
	calculated := result.Price()

	e.snapshot.SelectedTier = models.SelectedTier{
		TierIndex: result.TierUsed.Index,
		TierLabel: result.TierUsed.Label,
	}
	e.snapshot.SelectedNights = e.params.NumberOfNights
	e.snapshot.SelectedPeriod = result.PeriodUsed.Period
	e.snapshot.CalculatedPrice = calculated
	e.snapshot.PriceWasOnRequest = result.IsOnRequest
	e.snapshot.CustomPriceApplied = false
	e.snapshot.LastRecalculatedAt = &now

	if !result.IsOnRequest {
		price := models.NewPrice(*result.TotalPrice)
		e.price = &price
	}

	e.state = models.SyncStateSynced
	e.lastFailure = nil
	e.lastError = ""

	return e.appendHistoryLocked(userID, calculated, reason)
}

func (e *Engine) appendHistoryLocked(userID string, price models.Price, reason models.HistoryReason) models.PriceHistoryEntry {
	entry := models.PriceHistoryEntry{
		ID:        uuid.NewString(),
		Price:     price,
		Reason:    reason,
		Timestamp: e.now().UTC(),
		UserID:    userID,
	}
	e.history = append(e.history, entry)
	return entry
}

// recordFailureLocked moves the engine to the error state with the reason
// retained for display. The last-known-good snapshot and price are never
// rolled back.
func (e *Engine) recordFailureLocked(err error) {
	e.state = models.SyncStateError

	var calcErr *models.CalculationError
	if errors.As(err, &calcErr) {
		e.lastFailure = calcErr
		e.lastError = calcErr.Message
	} else {
		e.lastFailure = nil
		e.lastError = err.Error()
	}

	e.logger.Warn("calculation failed",
		zap.String("quote_id", e.quoteID),
		zap.Error(err))
}

func (e *Engine) cancelPendingLocked() {
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.seq++
}

// safeCalculate guards the calculator so malformed package data cannot
// crash the session; a panic surfaces as a calculation failure.
func (e *Engine) safeCalculate(pkg *models.TravelPackage, params models.QuoteParameters) (result *models.CalculationResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("calculator panic: %v", r)
		}
	}()
	return e.calc.Calculate(pkg, params)
}

func (e *Engine) emitLocked(newEntries []models.PriceHistoryEntry) {
	if e.onChange == nil {
		return
	}

	history := make([]models.PriceHistoryEntry, len(e.history))
	copy(history, e.history)

	var price *models.Price
	if e.price != nil {
		p := *e.price
		price = &p
	}

	e.onChange(View{
		QuoteID:    e.quoteID,
		State:      e.state,
		Price:      price,
		Parameters: e.params,
		Snapshot:   cloneSnapshot(e.snapshot),
		History:    history,
		NewEntries: newEntries,
	})
}

func cloneSnapshot(s *models.LinkedPackageSnapshot) *models.LinkedPackageSnapshot {
	if s == nil {
		return nil
	}
	out := *s
	if s.LastRecalculatedAt != nil {
		t := *s.LastRecalculatedAt
		out.LastRecalculatedAt = &t
	}
	return &out
}
