package queries

import (
	"context"
	"errors"
	"testing"

	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
	"github.com/bryanwahyu/medscan/internal/domain/query"
)

type fakeAssistant struct {
	reply string
	err   error
	asked []string
}

func (f *fakeAssistant) Ask(_ context.Context, q string) (string, error) {
	f.asked = append(f.asked, q)
	return f.reply, f.err
}

func xrayResult() *domain.Result {
	return &domain.Result{
		ScanType:   domain.ScanXRay,
		Confidence: 0.87,
		Findings: domain.Findings{
			DetectedCondition: "Possible Pneumonia",
			Abnormalities:     []string{"Opacity in the lower left lung"},
		},
		AIAnalysis: "stored analysis text",
	}
}

func TestService_EmptyQuery(t *testing.T) {
	svc := NewService(nil, nil)
	for _, q := range []string{"", "   ", "\n\t"} {
		if _, err := svc.ProcessQuery(context.Background(), q); !errors.Is(err, domain.ErrEmptyQuery) {
			t.Errorf("ProcessQuery(%q) err = %v, want ErrEmptyQuery", q, err)
		}
		if _, err := svc.ProcessScanQuery(context.Background(), q, xrayResult()); !errors.Is(err, domain.ErrEmptyQuery) {
			t.Errorf("ProcessScanQuery(%q) err = %v, want ErrEmptyQuery", q, err)
		}
	}
}

func TestService_ScopedUsesRules(t *testing.T) {
	svc := NewService(query.NewEngine(query.NewSeededSource(1)), nil)
	got, err := svc.ProcessScanQuery(context.Background(), "How confident are you? Are you sure?", xrayResult())
	if err != nil {
		t.Fatal(err)
	}
	if want := "The AI model's confidence in this analysis is 87%."; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestService_AssistantOnlyForUnmatchedGeneralQuestions(t *testing.T) {
	assistant := &fakeAssistant{reply: "  assistant says hi  "}
	svc := NewService(nil, assistant)

	got, err := svc.ProcessQuery(context.Background(), "hello there")
	if err != nil {
		t.Fatal(err)
	}
	if got != "assistant says hi" {
		t.Errorf("got %q, want assistant reply", got)
	}

	// rule hit: assistant not consulted
	if _, err := svc.ProcessQuery(context.Background(), "What is an MRI?"); err != nil {
		t.Fatal(err)
	}
	// scoped fallback: stored analysis wins
	got, err = svc.ProcessScanQuery(context.Background(), "hello there", xrayResult())
	if err != nil {
		t.Fatal(err)
	}
	if got != "stored analysis text" {
		t.Errorf("scoped fallback = %q, want stored analysis", got)
	}
	if len(assistant.asked) != 1 {
		t.Errorf("assistant asked %d times, want 1: %v", len(assistant.asked), assistant.asked)
	}
}

func TestService_AssistantFailureFallsBack(t *testing.T) {
	testCases := []struct {
		name string
		a    *fakeAssistant
	}{
		{"error", &fakeAssistant{err: errors.New("quota")}},
		{"empty reply", &fakeAssistant{reply: "   "}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NewService(nil, tc.a).ProcessQuery(context.Background(), "hello there")
			if err != nil {
				t.Fatalf("err = %v, want nil", err)
			}
			if got != query.GenericFallback {
				t.Errorf("got %q, want generic fallback", got)
			}
		})
	}
}

func TestService_NoAssistantGenericFallback(t *testing.T) {
	got, err := NewService(nil, nil).ProcessQuery(context.Background(), "hello there")
	if err != nil {
		t.Fatal(err)
	}
	if got != query.GenericFallback {
		t.Errorf("got %q, want generic fallback", got)
	}
}
