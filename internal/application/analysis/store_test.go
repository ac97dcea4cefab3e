package analysis

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

func TestStore_InitialState(t *testing.T) {
	s := NewStore()
	if diff := cmp.Diff(State{}, s.GetState()); diff != "" {
		t.Errorf("initial state mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_ResetIsIdempotent(t *testing.T) {
	s := NewStore()
	s.SetResults(&domain.Result{ID: "r1"})
	s.SetIsAnalyzing(true)

	s.Reset()
	once := s.GetState()
	s.Reset()
	twice := s.GetState()

	if diff := cmp.Diff(once, twice); diff != "" {
		t.Errorf("reset twice differs from reset once (-once +twice):\n%s", diff)
	}
	if twice.Results != nil || twice.IsAnalyzing {
		t.Errorf("state after reset = %+v, want {nil false}", twice)
	}
}

func TestStore_SubscribersSeeEveryChange(t *testing.T) {
	s := NewStore()
	a, cancelA := s.Subscribe()
	defer cancelA()
	b, cancelB := s.Subscribe()
	defer cancelB()

	s.SetIsAnalyzing(true)
	for name, ch := range map[string]<-chan State{"a": a, "b": b} {
		select {
		case st := <-ch:
			if !st.IsAnalyzing {
				t.Errorf("%s: IsAnalyzing = false, want true", name)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s: no notification", name)
		}
	}
}

func TestStore_SlowSubscriberGetsLatest(t *testing.T) {
	s := NewStore()
	ch, cancel := s.Subscribe()
	defer cancel()

	s.SetIsAnalyzing(true)
	s.SetResults(&domain.Result{ID: "r1"})
	s.SetIsAnalyzing(false)

	st := <-ch
	if st.IsAnalyzing || st.Results == nil || st.Results.ID != "r1" {
		t.Errorf("got %+v, want latest state {r1 false}", st)
	}
	select {
	case extra := <-ch:
		t.Errorf("unexpected extra notification %+v", extra)
	default:
	}
}

func TestStore_CancelClosesChannel(t *testing.T) {
	s := NewStore()
	ch, cancel := s.Subscribe()
	cancel()
	cancel()

	if _, ok := <-ch; ok {
		t.Error("channel still open after cancel")
	}
	// writes after cancel must not panic
	s.SetIsAnalyzing(true)
}
