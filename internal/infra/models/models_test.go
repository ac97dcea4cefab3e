package models

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/bryanwahyu/medscan/internal/application"
	"github.com/bryanwahyu/medscan/internal/config"
	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

// recordingClock never waits but remembers what it was asked to sleep.
type recordingClock struct {
	mu     sync.Mutex
	sleeps []time.Duration
}

func (c *recordingClock) Now() time.Time { return time.Time{} }

func (c *recordingClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	return ctx.Err()
}

func instant() Options { return Options{Clock: application.InstantClock{}} }

func TestPredict_ReturnsCannedPayload(t *testing.T) {
	testCases := []struct {
		build      func(Options) *Adapter
		prediction string
		confidence float64
		firstAbn   string
	}{
		{NewMRI, "Small Vessel Ischemic Disease", 0.92, "Multiple small hyperintense foci in periventricular white matter"},
		{NewCT, "Pulmonary Nodule", 0.89, "8mm nodule in right upper lobe"},
		{NewXRay, "Possible Pneumonia", 0.87, "Opacity in the lower left lung"},
	}
	for _, tc := range testCases {
		a := tc.build(instant())
		t.Run(string(a.ScanType()), func(t *testing.T) {
			p, err := a.Predict(context.Background(), []byte("img"))
			if err != nil {
				t.Fatalf("Predict: %v", err)
			}
			if p.Prediction != tc.prediction || p.Confidence != tc.confidence {
				t.Errorf("got (%q, %v), want (%q, %v)", p.Prediction, p.Confidence, tc.prediction, tc.confidence)
			}
			if len(p.Regions) != 4 || len(p.Abnormalities) != 2 || p.Abnormalities[0] != tc.firstAbn {
				t.Errorf("unexpected payload %+v", p)
			}
			if a.State() != StateLoaded {
				t.Errorf("state after Predict = %s, want loaded", a.State())
			}
		})
	}
}

func TestPredict_PayloadIsCopied(t *testing.T) {
	a := NewXRay(instant())
	first, _ := a.Predict(context.Background(), nil)
	first.Abnormalities[0] = "mutated"
	first.Regions[0].Normal = false

	second, _ := a.Predict(context.Background(), nil)
	if diff := cmp.Diff(xrayPrediction, second); diff != "" {
		t.Errorf("payload mutated across calls (-want +got):\n%s", diff)
	}
}

func TestLoad_DelaysAndIdempotence(t *testing.T) {
	clock := &recordingClock{}
	a := NewCT(Options{Clock: clock})

	for i := 0; i < 3; i++ {
		ok, err := a.Load(context.Background())
		if !ok || err != nil {
			t.Fatalf("Load #%d = (%v, %v)", i, ok, err)
		}
	}
	if _, err := a.Predict(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	want := []time.Duration{DefaultLoadDelay, DefaultPredictDelay}
	if diff := cmp.Diff(want, clock.sleeps); diff != "" {
		t.Errorf("sleeps mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_ConcurrentCallersShareOneLoad(t *testing.T) {
	var inits atomic.Int32
	opts := instant()
	opts.Init = func(context.Context, domain.ScanType) error {
		inits.Add(1)
		return nil
	}
	a := NewMRI(opts)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := a.Predict(context.Background(), nil); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if got := inits.Load(); got != 1 {
		t.Errorf("init ran %d times, want 1", got)
	}
}

func TestLoad_FailureIsSticky(t *testing.T) {
	var calls int
	opts := instant()
	opts.Init = func(context.Context, domain.ScanType) error {
		calls++
		return errors.New("corrupt weights")
	}
	a := NewXRay(opts)

	for i := 0; i < 2; i++ {
		if _, err := a.Predict(context.Background(), nil); !errors.Is(err, domain.ErrModelUnavailable) {
			t.Fatalf("Predict #%d err = %v, want ErrModelUnavailable", i, err)
		}
	}
	if a.State() != StateFailed {
		t.Errorf("state = %s, want failed", a.State())
	}
	if calls != 1 {
		t.Errorf("init retried: %d calls", calls)
	}
}

func TestLoad_CancelledLeavesUnloaded(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a := NewCT(instant())
	if _, err := a.Load(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if a.State() != StateUnloaded {
		t.Errorf("state = %s, want unloaded", a.State())
	}
	if ok, err := a.Load(context.Background()); !ok || err != nil {
		t.Errorf("retry Load = (%v, %v)", ok, err)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry(instant())
	if len(reg) != 3 {
		t.Fatalf("registry has %d adapters, want 3", len(reg))
	}
	for _, st := range domain.ScanTypes {
		if _, ok := reg[st]; !ok {
			t.Errorf("missing adapter for %s", st)
		}
	}

	only := NewRegistry(Options{Clock: application.InstantClock{}, Enabled: []domain.ScanType{domain.ScanCT}})
	if _, ok := only[domain.ScanCT]; !ok || len(only) != 1 {
		t.Errorf("Enabled filter: got %v", only)
	}

	if err := Warmup(context.Background(), reg); err != nil {
		t.Fatalf("Warmup: %v", err)
	}
	for st, s := range States(reg) {
		if s != StateLoaded {
			t.Errorf("%s state = %s after warmup", st, s)
		}
	}
}

func TestRequireWeights(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ct.weights"), []byte("w"), 0o600); err != nil {
		t.Fatal(err)
	}
	opts := instant()
	opts.Init = RequireWeights(dir)
	reg := NewRegistry(opts)

	if _, err := reg[domain.ScanCT].Load(context.Background()); err != nil {
		t.Errorf("ct with weights: %v", err)
	}
	if _, err := reg[domain.ScanMRI].Load(context.Background()); !errors.Is(err, domain.ErrModelUnavailable) {
		t.Errorf("mri without weights err = %v", err)
	}
	if err := Warmup(context.Background(), reg); err == nil {
		t.Error("Warmup succeeded with missing weights")
	}
}

func TestOptionsFrom(t *testing.T) {
	opts, err := OptionsFrom(config.AnalysisConfig{NoLatency: true, Models: []string{"CT", "xray"}, WeightsDir: "w"})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := opts.Clock.(application.InstantClock); !ok {
		t.Errorf("clock = %T, want InstantClock", opts.Clock)
	}
	if diff := cmp.Diff([]domain.ScanType{domain.ScanCT, domain.ScanXRay}, opts.Enabled); diff != "" {
		t.Errorf("enabled mismatch (-want +got):\n%s", diff)
	}
	if opts.Init == nil {
		t.Error("weights dir set but no Init")
	}

	if _, err := OptionsFrom(config.AnalysisConfig{Models: []string{"pet"}}); !errors.Is(err, domain.ErrInvalidScanType) {
		t.Errorf("bad model err = %v", err)
	}
}
