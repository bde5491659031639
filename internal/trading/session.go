// Package trading tracks evaluation runs. A Session hands out run IDs,
// executes runs against the graph, and lets callers poll or wait on them.
package trading

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tradedesk/internal/graph"
	"tradedesk/internal/models"
)

// Run is one tracked evaluation. The state is attached at start, so a run
// can be inspected while it is still in flight.
type Run struct {
	ID        string
	Symbol    string
	TradeDate string
	StartedAt time.Time

	mu       sync.Mutex
	state    *models.TradingState
	err      error
	finished bool
	done     chan struct{}
}

// Done closes when the run reaches a terminal status.
func (r *Run) Done() <-chan struct{} { return r.done }

// State returns a point-in-time snapshot of the run, finished or not.
func (r *Run) State() *models.TradingState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state.Snapshot()
}

// Result returns the final state and error once the run has finished;
// before that it returns nil state with no error.
func (r *Run) Result() (*models.TradingState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.finished {
		return nil, nil
	}
	if r.state == nil {
		return nil, r.err
	}
	return r.state.Snapshot(), r.err
}

// Session executes runs and keeps their handles.
type Session struct {
	graph *graph.TradingGraph
	log   *zap.Logger

	mu   sync.RWMutex
	runs map[string]*Run
}

func NewSession(g *graph.TradingGraph, log *zap.Logger) *Session {
	if log == nil {
		log = zap.NewNop()
	}
	return &Session{
		graph: g,
		log:   log,
		runs:  make(map[string]*Run),
	}
}

// StartRun launches an evaluation in the background and returns its handle
// ID immediately.
func (s *Session) StartRun(ctx context.Context, symbol string, date time.Time) (string, error) {
	if symbol == "" {
		return "", fmt.Errorf("symbol is required")
	}

	run := &Run{
		ID:        uuid.NewString(),
		Symbol:    symbol,
		TradeDate: date.Format("2006-01-02"),
		StartedAt: time.Now(),
		state:     s.graph.NewRunState(symbol, date),
		done:      make(chan struct{}),
	}

	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()

	go func() {
		_, err := s.graph.PropagateState(ctx, run.state)
		run.mu.Lock()
		run.err = err
		run.finished = true
		run.mu.Unlock()
		close(run.done)
	}()

	return run.ID, nil
}

// GetState serves a snapshot of a run's state, including while the run is
// still in flight.
func (s *Session) GetState(id string) (*models.TradingState, error) {
	run, ok := s.Run(id)
	if !ok {
		return nil, fmt.Errorf("unknown run %s", id)
	}
	return run.State(), nil
}

// Run looks up a tracked run by ID.
func (s *Session) Run(id string) (*Run, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	return r, ok
}

// Wait blocks until the run finishes or the context is cancelled.
func (s *Session) Wait(ctx context.Context, id string) (*models.TradingState, error) {
	run, ok := s.Run(id)
	if !ok {
		return nil, fmt.Errorf("unknown run %s", id)
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-run.done:
		return run.Result()
	}
}

// FinalResult assembles the decision summary of a finished run, or an
// error while the run is still in flight.
func (s *Session) FinalResult(id string) (*models.TradingDecision, error) {
	run, ok := s.Run(id)
	if !ok {
		return nil, fmt.Errorf("unknown run %s", id)
	}
	state, err := run.Result()
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("run %s has not finished", id)
	}
	return models.DecisionFromState(state), nil
}

// Execute runs one evaluation synchronously.
func (s *Session) Execute(ctx context.Context, symbol string, date time.Time) (*models.TradingState, error) {
	id, err := s.StartRun(ctx, symbol, date)
	if err != nil {
		return nil, err
	}
	return s.Wait(ctx, id)
}

// Reflect forwards a finished run and its realized returns to the
// reflection engine.
func (s *Session) Reflect(ctx context.Context, state *models.TradingState, returns float64) error {
	return s.graph.Reflect(ctx, state, returns)
}
