package suggest

import (
	"context"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/storeops/typesearch/internal/domain"
)

// DebounceDelay is how long input must stay quiet before a suggest query is
// dispatched.
const DebounceDelay = 150 * time.Millisecond

// MinQueryLength gates dispatch; shorter input never reaches the engine.
const MinQueryLength = 2

// State is the session's observable mode.
type State int

const (
	StateEmpty State = iota
	StateHistory
	StateDebouncing
	StateQueryInFlight
	StateResultsShown
	StateNoResultsShown
	StateErrorShown
)

// Suggester runs one suggest query across the collections.
type Suggester interface {
	Suggest(ctx context.Context, q, typ string) (*domain.SuggestResult, error)
}

// AnalyticsLogger records search outcomes. Implementations must not block
// the caller on storage.
type AnalyticsLogger interface {
	LogSearch(ctx context.Context, query string, hasResults bool)
}

// Session tracks one autocomplete input field. Keystrokes come in through
// Observe; results go out through the OnResult callback. In-flight engine
// calls are never aborted; instead each dispatch gets a monotonically
// increasing sequence number and a response that is no longer the newest is
// discarded on arrival.
type Session struct {
	suggester Suggester
	analytics AnalyticsLogger
	recents   RecentsStore
	logger    *slog.Logger

	sessionID string
	delay     time.Duration

	// OnResult receives each accepted (newest-sequence) result.
	OnResult func(*domain.SuggestResult)

	mu      sync.Mutex
	state   State
	seq     uint64
	timer   *time.Timer
	last    *domain.SuggestResult
	lastErr error
}

// NewSession creates a session for one input field.
func NewSession(sessionID string, suggester Suggester, analytics AnalyticsLogger, recents RecentsStore, logger *slog.Logger) *Session {
	return &Session{
		suggester: suggester,
		analytics: analytics,
		recents:   recents,
		logger:    logger,
		sessionID: sessionID,
		delay:     DebounceDelay,
		state:     StateEmpty,
	}
}

// SetDebounce overrides the debounce delay. Tests use this to avoid real
// sleeps.
func (s *Session) SetDebounce(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Observe processes one input change. Empty input switches to the history
// panel, input below the length gate parks the session without dispatching,
// and anything else (re)arms the debounce timer.
func (s *Session) Observe(ctx context.Context, q string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopTimerLocked()

	if q == "" {
		s.state = StateHistory
		return
	}
	if utf8.RuneCountInString(q) < MinQueryLength {
		return
	}

	s.state = StateDebouncing
	s.timer = time.AfterFunc(s.delay, func() {
		s.dispatch(ctx, q)
	})
}

// Submit handles an explicit search submission: the query is logged
// optimistically as having results (the listing page will know better) and
// persisted into the session's recent searches.
func (s *Session) Submit(ctx context.Context, q string) {
	if utf8.RuneCountInString(q) < MinQueryLength {
		return
	}

	s.analytics.LogSearch(ctx, q, true)

	if err := s.recents.AddSearch(ctx, s.sessionID, q); err != nil {
		s.logger.WarnContext(ctx, "persist recent search failed",
			slog.String("session_id", s.sessionID),
			slog.String("error", err.Error()))
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result returns the most recently accepted suggest result, if any.
func (s *Session) Result() *domain.SuggestResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Err returns the error from the most recent failed dispatch, if any.
func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close cancels any pending dispatch.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
}

func (s *Session) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}

// dispatch issues the suggest query under a fresh sequence number and
// delivers the result unless a newer dispatch has superseded it.
func (s *Session) dispatch(ctx context.Context, q string) {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.state = StateQueryInFlight
	s.mu.Unlock()

	result, err := s.suggester.Suggest(ctx, q, "all")

	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.seq {
		s.logger.DebugContext(ctx, "stale suggest response discarded",
			slog.String("query", q),
			slog.Uint64("seq", seq),
			slog.Uint64("latest", s.seq))
		return
	}

	if err != nil {
		s.state = StateErrorShown
		s.lastErr = err
		s.logger.ErrorContext(ctx, "suggest query failed",
			slog.String("query", q),
			slog.String("error", err.Error()))
		return
	}

	s.last = result
	if result.Empty() {
		s.state = StateNoResultsShown
		// Logged once per accepted response, after the outcome is known.
		s.analytics.LogSearch(ctx, q, false)
	} else {
		s.state = StateResultsShown
	}

	if s.OnResult != nil {
		s.OnResult(result)
	}
}
