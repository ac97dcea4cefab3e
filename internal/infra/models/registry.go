package models

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/medscan/internal/application"
	"github.com/bryanwahyu/medscan/internal/config"
	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

// Options configures every adapter built by NewRegistry.
// Zero delays mean the defaults; an application.InstantClock skips waiting.
type Options struct {
	Clock        application.Clock
	LoadDelay    time.Duration
	PredictDelay time.Duration
	// Enabled limits the registry to these scan types; empty means all.
	Enabled []domain.ScanType
	Init    InitFunc
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = application.SystemClock{}
	}
	if o.LoadDelay == 0 {
		o.LoadDelay = DefaultLoadDelay
	}
	if o.PredictDelay == 0 {
		o.PredictDelay = DefaultPredictDelay
	}
	return o
}

// OptionsFrom translates the analysis section of the config file.
func OptionsFrom(cfg config.AnalysisConfig) (Options, error) {
	opts := Options{
		Clock:        application.SystemClock{},
		LoadDelay:    cfg.LoadDelay,
		PredictDelay: cfg.PredictDelay,
	}
	if cfg.NoLatency {
		opts.Clock = application.InstantClock{}
	}
	for _, m := range cfg.Models {
		st, err := domain.ParseScanType(m)
		if err != nil {
			return Options{}, fmt.Errorf("analysis.models: %w", err)
		}
		opts.Enabled = append(opts.Enabled, st)
	}
	if cfg.WeightsDir != "" {
		opts.Init = RequireWeights(cfg.WeightsDir)
	}
	return opts, nil
}

// NewRegistry builds the adapters for the enabled scan types.
func NewRegistry(opts Options) domain.Registry {
	builders := map[domain.ScanType]func(Options) *Adapter{
		domain.ScanMRI:  NewMRI,
		domain.ScanCT:   NewCT,
		domain.ScanXRay: NewXRay,
	}
	reg := make(domain.Registry, len(builders))
	for st, build := range builders {
		if len(opts.Enabled) > 0 && !slices.Contains(opts.Enabled, st) {
			continue
		}
		reg[st] = build(opts)
	}
	return reg
}

// Warmup loads every adapter in the registry concurrently.
func Warmup(ctx context.Context, reg domain.Registry) error {
	g, ctx := errgroup.WithContext(ctx)
	for st, m := range reg {
		g.Go(func() error {
			if _, err := m.Load(ctx); err != nil {
				return fmt.Errorf("load %s: %w", st, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// States reports the lifecycle state of every adapter that exposes one.
func States(reg domain.Registry) map[domain.ScanType]State {
	out := make(map[domain.ScanType]State, len(reg))
	for st, m := range reg {
		if s, ok := m.(interface{ State() State }); ok {
			out[st] = s.State()
		}
	}
	return out
}

// RequireWeights returns an InitFunc that fails unless <dir>/<scanType>.weights exists.
func RequireWeights(dir string) InitFunc {
	return func(_ context.Context, st domain.ScanType) error {
		path := filepath.Join(dir, string(st)+".weights")
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("weights %s: %w", path, err)
		}
		return nil
	}
}
