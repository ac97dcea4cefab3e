package models

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/medscan/internal/application"
	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

// State is the lifecycle of an Adapter.
type State int32

const (
	StateUnloaded State = iota
	StateLoading
	StateLoaded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

const (
	DefaultLoadDelay    = time.Second
	DefaultPredictDelay = 2 * time.Second
)

// InitFunc prepares a model's resources. An error moves the adapter to
// StateFailed for good.
type InitFunc func(ctx context.Context, scanType domain.ScanType) error

// Adapter is a simulated model: loading and inference only cost time, and
// Predict returns a fixed payload per scan type.
type Adapter struct {
	scanType     domain.ScanType
	payload      domain.RawPrediction
	clock        application.Clock
	loadDelay    time.Duration
	predictDelay time.Duration
	init         InitFunc

	mu    sync.Mutex // serializes Load
	state atomic.Int32
	err   error
}

func newAdapter(st domain.ScanType, payload domain.RawPrediction, opts Options) *Adapter {
	opts = opts.withDefaults()
	return &Adapter{
		scanType:     st,
		payload:      payload,
		clock:        opts.Clock,
		loadDelay:    opts.LoadDelay,
		predictDelay: opts.PredictDelay,
		init:         opts.Init,
	}
}

func (a *Adapter) ScanType() domain.ScanType { return a.scanType }

func (a *Adapter) State() State { return State(a.state.Load()) }

// Load moves the adapter to StateLoaded. Concurrent callers share a single
// load; a cancelled load leaves the adapter unloaded so it can be retried.
func (a *Adapter) Load(ctx context.Context) (bool, error) {
	if a.State() == StateLoaded {
		return true, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	switch a.State() {
	case StateLoaded:
		return true, nil
	case StateFailed:
		return false, a.err
	}

	a.state.Store(int32(StateLoading))
	if err := a.clock.Sleep(ctx, a.loadDelay); err != nil {
		a.state.Store(int32(StateUnloaded))
		return false, err
	}
	if a.init != nil {
		if err := a.init(ctx, a.scanType); err != nil {
			a.err = fmt.Errorf("%w: %s: %v", domain.ErrModelUnavailable, a.scanType, err)
			a.state.Store(int32(StateFailed))
			logrus.WithField("scan_type", a.scanType).WithError(err).Error("model failed to load")
			return false, a.err
		}
	}

	a.state.Store(int32(StateLoaded))
	logrus.WithField("scan_type", a.scanType).Info("model loaded")
	return true, nil
}

// Predict loads the model if needed, then returns a copy of its payload.
func (a *Adapter) Predict(ctx context.Context, _ []byte) (domain.RawPrediction, error) {
	if _, err := a.Load(ctx); err != nil {
		return domain.RawPrediction{}, err
	}
	if err := a.clock.Sleep(ctx, a.predictDelay); err != nil {
		return domain.RawPrediction{}, err
	}
	return a.payload.Clone(), nil
}
