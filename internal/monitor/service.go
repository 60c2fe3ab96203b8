package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrMonitorActive is returned by Launch when the session already has a run
// in a non-terminal state.
var ErrMonitorActive = errors.New("monitor: run already active for session")

// ErrMonitorNotFound is returned by Status for unknown sessions.
var ErrMonitorNotFound = errors.New("monitor: no run for session")

// RunnerFactory builds a configured Runner for a session. The service stays
// ignorant of cameras, detectors, and report plumbing.
type RunnerFactory func(sessionID string) *Runner

// Service keys monitoring runs by session and enforces one live run per
// session. Terminal runs stay queryable until replaced by a new launch.
type Service struct {
	factory    RunnerFactory
	logger     *zap.Logger
	onComplete func(sessionID string, status RunStatus)

	mu   sync.Mutex
	runs map[string]*Runner
}

// NewService returns a service creating runs via factory. onComplete, if
// non-nil, is invoked from the run's goroutine once it reaches a terminal
// state.
func NewService(factory RunnerFactory, onComplete func(string, RunStatus), logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		factory:    factory,
		logger:     logger,
		onComplete: onComplete,
		runs:       make(map[string]*Runner),
	}
}

// Launch starts a monitoring run for the session. A second launch while the
// previous run is still live returns ErrMonitorActive.
func (s *Service) Launch(ctx context.Context, sessionID string, duration time.Duration) error {
	s.mu.Lock()
	if existing, ok := s.runs[sessionID]; ok {
		st := existing.Status().State
		if st == StateStarting || st == StateRunning {
			s.mu.Unlock()
			return ErrMonitorActive
		}
	}
	runner := s.factory(sessionID)
	s.runs[sessionID] = runner
	s.mu.Unlock()

	// The run must outlive the launching request.
	runner.Start(context.WithoutCancel(ctx), duration)
	go func() {
		<-runner.Done()
		if s.onComplete != nil {
			s.onComplete(sessionID, runner.Status())
		}
	}()

	s.logger.Info("monitoring launched",
		zap.String("session_id", sessionID),
		zap.Duration("duration", duration))
	return nil
}

// Status returns the current state of the session's run.
func (s *Service) Status(sessionID string) (RunStatus, error) {
	s.mu.Lock()
	runner, ok := s.runs[sessionID]
	s.mu.Unlock()
	if !ok {
		return RunStatus{}, ErrMonitorNotFound
	}
	return runner.Status(), nil
}

// Cancel stops the session's run early and waits for it to seal.
func (s *Service) Cancel(sessionID string) error {
	s.mu.Lock()
	runner, ok := s.runs[sessionID]
	s.mu.Unlock()
	if !ok {
		return ErrMonitorNotFound
	}
	runner.Stop()
	return nil
}

// Shutdown stops every live run, used on process exit.
func (s *Service) Shutdown() {
	s.mu.Lock()
	runners := make([]*Runner, 0, len(s.runs))
	for _, r := range s.runs {
		runners = append(runners, r)
	}
	s.mu.Unlock()
	for _, r := range runners {
		r.Stop()
	}
}
