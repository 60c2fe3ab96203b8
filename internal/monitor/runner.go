package monitor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/career-mentor/backend/internal/capture"
	"github.com/career-mentor/backend/internal/vision"
)

// State is the lifecycle phase of a monitoring run.
type State string

const (
	StateStarting  State = "starting"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

// FallbackNarrative is used verbatim when no narrative generator is
// configured or the generator fails.
const FallbackNarrative = "Executive summary: The candidate showed a mix of good and improvable behaviours.\n\nObservations: Eye contact was variable; posture sometimes slouched; hand movements detected.\n\nActionable tips: Maintain eye contact, sit upright, and reduce excessive hand gestures."

// Narrator turns a sealed session log into coaching prose.
type Narrator interface {
	Narrate(ctx context.Context, log LogSnapshot) (string, error)
}

// Compiler renders the monitoring report artifact and returns its path.
type Compiler interface {
	CompileMonitoring(sessionID string, log LogSnapshot, narrative string) (string, error)
}

// Thresholds carries the classifier tuning for one run.
type Thresholds struct {
	ShoulderTilt float64
	NeckSlumpDeg float64
	HandMove     float64
	GazeDown     float64
}

// RunnerConfig wires a Runner. OpenSource and OpenExtractor are factories so
// the run owns (and tears down) both resources; tests substitute fakes.
type RunnerConfig struct {
	SessionID       string
	OpenSource      func() (capture.Source, error)
	OpenExtractor   func() (vision.Extractor, error)
	Sampler         *Sampler
	Thresholds      Thresholds
	ExampleCap      int
	ResetHandOnLoss bool
	Narrator        Narrator
	Compiler        Compiler
	Logger          *zap.Logger
}

// Runner executes one monitoring run: acquire frames, extract landmarks,
// classify, accumulate, seal, narrate, render. A Runner is single-use.
type Runner struct {
	cfg RunnerConfig
	log *SessionLog

	mu         sync.Mutex
	state      State
	reportPath string
	runErr     error

	cancel context.CancelFunc
	done   chan struct{}
}

// RunStatus is a point-in-time view of a run.
type RunStatus struct {
	State      State
	Log        LogSnapshot
	ReportPath string
	Err        error
}

// NewRunner returns a runner in the starting state.
func NewRunner(cfg RunnerConfig) *Runner {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Runner{
		cfg:   cfg,
		log:   NewSessionLog(cfg.SessionID, cfg.ExampleCap),
		state: StateStarting,
		done:  make(chan struct{}),
	}
}

// Start launches the run in its own goroutine for the given duration.
func (r *Runner) Start(ctx context.Context, duration time.Duration) {
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	go func() {
		defer close(r.done)
		defer cancel()
		r.run(runCtx, duration)
	}()
}

// Stop asks the run to end early and waits for it to finish.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	<-r.done
}

// Done is closed when the run has reached a terminal state.
func (r *Runner) Done() <-chan struct{} { return r.done }

// Status returns the current state, log snapshot, and artifacts.
func (r *Runner) Status() RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RunStatus{
		State:      r.state,
		Log:        r.log.Snapshot(),
		ReportPath: r.reportPath,
		Err:        r.runErr,
	}
}

func (r *Runner) run(ctx context.Context, duration time.Duration) {
	logger := r.cfg.Logger.With(zap.String("session_id", r.cfg.SessionID))
	start := time.Now()

	source, err := r.cfg.OpenSource()
	if err != nil {
		logger.Error("monitoring failed to start", zap.Error(err))
		r.fail(fmt.Errorf("open frame source: %w", err))
		return
	}
	defer source.Close()

	var extractor vision.Extractor
	if r.cfg.OpenExtractor != nil {
		extractor, err = r.cfg.OpenExtractor()
		if err != nil {
			logger.Error("landmark detector unavailable", zap.Error(err))
			r.fail(fmt.Errorf("open extractor: %w", err))
			return
		}
		defer extractor.Close()
	}

	r.setState(StateRunning)
	logger.Info("monitoring started", zap.Duration("duration", duration))

	hands := vision.NewHandTrack(r.cfg.Thresholds.HandMove, r.cfg.ResetHandOnLoss)
	deadline := start.Add(duration)

	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			break
		}
		frame, err := source.Next(ctx)
		if err != nil {
			if errors.Is(err, capture.ErrSourceDrained) || errors.Is(err, context.Canceled) {
				break
			}
			logger.Warn("frame acquisition", zap.Error(err))
			break
		}

		_ = r.log.RecordFrame()

		var result *vision.Result
		if extractor != nil {
			result, err = extractor.Extract(ctx, frame.Data)
			if err != nil {
				// No detections this frame; the run continues.
				logger.Debug("extract", zap.Int("frame", frame.ID), zap.Error(err))
				result = nil
			}
		}
		if result == nil {
			result = &vision.Result{}
		}

		r.classifyFrame(frame, result, hands, logger)
	}

	elapsed := time.Since(start).Seconds()
	if err := r.log.Seal(elapsed); err != nil {
		logger.Warn("seal", zap.Error(err))
	}
	sealed := r.log.Snapshot()
	logger.Info("monitoring sealed",
		zap.Int("frames", sealed.FramesProcessed),
		zap.Float64("duration_sec", sealed.DurationSec))

	narrative := r.narrate(ctx, sealed, logger)

	if r.cfg.Compiler == nil {
		r.complete("")
		return
	}
	reportPath, err := r.cfg.Compiler.CompileMonitoring(r.cfg.SessionID, sealed, narrative)
	if err != nil {
		// The sealed log stays available even though no artifact exists.
		logger.Error("report render", zap.Error(err))
		r.fail(fmt.Errorf("render report: %w", err))
		return
	}
	logger.Info("monitoring report ready", zap.String("path", reportPath))
	r.complete(reportPath)
}

// classifyFrame runs the per-signal classifiers. Each signal is guarded
// independently so one bad landmark set cannot take the frame down.
func (r *Runner) classifyFrame(frame *capture.Frame, result *vision.Result, hands *vision.HandTrack, logger *zap.Logger) {
	guard := func(name string, fn func()) {
		defer func() {
			if p := recover(); p != nil {
				logger.Warn("classifier panic", zap.String("signal", name), zap.Any("panic", p))
			}
		}()
		fn()
	}

	guard("gaze", func() {
		if result.Face == nil {
			return
		}
		dir := vision.ClassifyGaze(result.Face, r.cfg.Thresholds.GazeDown)
		evidence := ""
		if dir == vision.GazeDown && r.cfg.Sampler != nil && r.cfg.Sampler.ShouldSample(TagGazeDown, frame.ID) {
			evidence = r.cfg.Sampler.Save(TagGazeDown, frame.ID, frame.Data)
		}
		_ = r.log.RecordGaze(dir, evidence)
	})

	guard("posture", func() {
		if result.Pose == nil {
			return
		}
		res := vision.ClassifyPosture(result.Pose, r.cfg.Thresholds.ShoulderTilt, r.cfg.Thresholds.NeckSlumpDeg)
		evidence := ""
		if !res.Correct && r.cfg.Sampler != nil && r.cfg.Sampler.ShouldSample(TagPostureIncorrect, frame.ID) {
			evidence = r.cfg.Sampler.Save(TagPostureIncorrect, frame.ID, frame.Data)
		}
		_ = r.log.RecordPosture(res.Correct, evidence)
	})

	guard("hands", func() {
		if !hands.Observe(result.Hands) {
			return
		}
		evidence := ""
		if r.cfg.Sampler != nil && r.cfg.Sampler.ShouldSample(TagHandMove, frame.ID) {
			evidence = r.cfg.Sampler.Save(TagHandMove, frame.ID, frame.Data)
		}
		_ = r.log.RecordHandMove(evidence)
	})
}

func (r *Runner) narrate(ctx context.Context, sealed LogSnapshot, logger *zap.Logger) string {
	if r.cfg.Narrator == nil {
		return FallbackNarrative
	}
	narrative, err := r.cfg.Narrator.Narrate(ctx, sealed)
	if err != nil || narrative == "" {
		if err != nil {
			logger.Warn("narrative generation", zap.Error(err))
		}
		return FallbackNarrative
	}
	return narrative
}

func (r *Runner) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
}

func (r *Runner) fail(err error) {
	r.mu.Lock()
	r.state = StateFailed
	r.runErr = err
	r.mu.Unlock()
}

func (r *Runner) complete(reportPath string) {
	r.mu.Lock()
	r.state = StateCompleted
	r.reportPath = reportPath
	r.mu.Unlock()
}
