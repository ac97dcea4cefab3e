package query

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/bryanwahyu/medscan/internal/domain/analysis"
)

// RandomSource picks an index in [0, n). Implementations must be safe for
// concurrent use because one Engine serves every request.
type RandomSource interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// lockedSource makes a seeded *rand.Rand usable from many goroutines.
type lockedSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededSource returns a deterministic, concurrency-safe source.
func NewSeededSource(seed uint64) RandomSource {
	return &lockedSource{r: rand.New(rand.NewPCG(seed, seed))}
}

func (s *lockedSource) IntN(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.r.IntN(n)
}

// Engine answers free-text questions with ordered substring rules.
//
// Rule order, first hit wins:
//  1. scan-type shortcuts (only with a result as context)
//  2. the general vocabulary, one sentence picked at random
//  3. the context guards: normality, findings, condition, recommendation,
//     confidence, region, patient
//  4. the context's AI analysis, or GenericFallback when there is no context
//     or it carries no analysis text
type Engine struct {
	rand RandomSource
}

// NewEngine builds an Engine; a nil source uses the global math/rand/v2 generator.
func NewEngine(src RandomSource) *Engine {
	if src == nil {
		src = globalSource{}
	}
	return &Engine{rand: src}
}

// Answer always returns text, falling back as described on Engine.
func (e *Engine) Answer(q string, result *analysis.Result) string {
	answer, _ := e.Match(q, result)
	return answer
}

// Match is Answer plus the name of the rule that produced the text; the rule
// is empty when the answer is a fallback (step 4).
func (e *Engine) Match(q string, result *analysis.Result) (answer, rule string) {
	lower := strings.ToLower(q)

	if result != nil {
		for _, sc := range shortcuts {
			if sc.scanType == result.ScanType && containsAny(lower, sc.keywords...) {
				return sc.answer(result), "shortcut:" + string(sc.scanType)
			}
		}
	}

	for _, t := range vocabulary {
		if strings.Contains(lower, t.keyword) {
			return t.sentences[e.rand.IntN(len(t.sentences))], "vocabulary:" + t.keyword
		}
	}

	if result != nil {
		words := tokenize(lower)
		for _, g := range guards {
			if g.match(lower, words) {
				return g.answer(result), "guard:" + g.name
			}
		}
		if result.AIAnalysis != "" {
			return result.AIAnalysis, ""
		}
	}

	return GenericFallback, ""
}

type guard struct {
	name   string
	match  func(q string, words map[string]bool) bool
	answer func(r *analysis.Result) string
}

// guards is the context rule table; order decides multi-keyword questions,
// e.g. "recommend" is checked before "confidence".
var guards = []guard{
	{
		name:  "normality",
		match: func(_ string, w map[string]bool) bool { return w["normal"] || w["abnormal"] },
		answer: func(r *analysis.Result) string {
			if r.Findings.Normal {
				return "This scan appears normal. No significant abnormalities were detected."
			}
			if r.Findings.DetectedCondition == "" {
				return "This scan shows abnormal findings."
			}
			return fmt.Sprintf("This scan shows abnormal findings. The main concern is %s.", r.Findings.DetectedCondition)
		},
	},
	{
		name:  "findings",
		match: func(q string, _ map[string]bool) bool { return containsAny(q, "find", "abnormal", "detect", "show") },
		answer: func(r *analysis.Result) string {
			if len(r.Findings.Abnormalities) > 0 {
				return fmt.Sprintf("The scan shows the following abnormalities: %s.", strings.Join(r.Findings.Abnormalities, ", "))
			}
			return "No significant abnormalities were detected in this scan."
		},
	},
	{
		name:  "condition",
		match: func(q string, _ map[string]bool) bool { return containsAny(q, "condition", "diagnosis", "disease", "problem") },
		answer: func(r *analysis.Result) string {
			if r.Findings.DetectedCondition != "" {
				return fmt.Sprintf("The primary finding is %s with %d%% confidence.", r.Findings.DetectedCondition, percent(r.Confidence))
			}
			return "No specific condition or disease was detected in this scan."
		},
	},
	{
		name:   "recommendation",
		match:  func(q string, _ map[string]bool) bool { return containsAny(q, "recommend", "next", "follow", "should") },
		answer: func(r *analysis.Result) string { return r.Recommendation },
	},
	{
		name:  "confidence",
		match: func(q string, _ map[string]bool) bool { return containsAny(q, "confidence", "sure", "certain") },
		answer: func(r *analysis.Result) string {
			return fmt.Sprintf("The AI model's confidence in this analysis is %d%%.", percent(r.Confidence))
		},
	},
	{
		name:  "region",
		match: func(q string, _ map[string]bool) bool { return containsAny(q, "region", "area", "part", "tissue") },
		answer: func(r *analysis.Result) string {
			if len(r.Findings.Regions) == 0 {
				return "No specific regions were analyzed in detail for this scan."
			}
			parts := make([]string, 0, len(r.Findings.Regions))
			for _, reg := range r.Findings.Regions {
				status := "Abnormal"
				if reg.Normal {
					status = "Normal"
				}
				parts = append(parts, fmt.Sprintf("%s: %s (%d%% confidence)", reg.Name, status, percent(reg.Confidence)))
			}
			return fmt.Sprintf("The scan analyzed the following regions: %s.", strings.Join(parts, ", "))
		},
	},
	{
		name:   "patient",
		match:  func(q string, _ map[string]bool) bool { return containsAny(q, "patient", "who") },
		answer: describePatient,
	},
}

func describePatient(r *analysis.Result) string {
	p := r.PatientInfo
	var b strings.Builder
	fmt.Fprintf(&b, "This scan is for patient ID %s", p.PatientID)
	if p.PatientName != "" {
		fmt.Fprintf(&b, " (%s)", p.PatientName)
	}
	if p.PatientAge != "" {
		fmt.Fprintf(&b, ", age %s", p.PatientAge)
	}
	if p.PatientGender != "" {
		fmt.Fprintf(&b, ", %s", p.PatientGender)
	}
	if d := formatScanDate(p.ScanDate); d != "" {
		fmt.Fprintf(&b, ", scanned on %s", d)
	}
	b.WriteString(".")
	return b.String()
}

var scanDateLayouts = []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04", "2006-01-02 15:04:05"}

// formatScanDate renders the date as month/day/year; unparseable input is echoed.
func formatScanDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	for _, layout := range scanDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("1/2/2006")
		}
	}
	return s
}

func percent(c float64) int { return int(math.Round(c * 100)) }

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func tokenize(s string) map[string]bool {
	words := make(map[string]bool)
	for _, w := range strings.FieldsFunc(s, func(r rune) bool { return !unicode.IsLetter(r) }) {
		words[w] = true
	}
	return words
}
