package queries

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/bryanwahyu/medscan/internal/domain/ai"
	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
	"github.com/bryanwahyu/medscan/internal/domain/query"
)

// Service is the query boundary: it validates the question and answers it
// with the rule engine. Assistant is optional; when set it answers general
// questions that no rule matched.
type Service struct {
	Engine    *query.Engine
	Assistant ai.Client
}

func NewService(engine *query.Engine, assistant ai.Client) *Service {
	if engine == nil {
		engine = query.NewEngine(nil)
	}
	return &Service{Engine: engine, Assistant: assistant}
}

// ProcessQuery answers a question without a scan as context.
func (s *Service) ProcessQuery(ctx context.Context, q string) (string, error) {
	return s.answer(ctx, q, nil)
}

// ProcessScanQuery answers a question about one analysis result.
func (s *Service) ProcessScanQuery(ctx context.Context, q string, result *domain.Result) (string, error) {
	return s.answer(ctx, q, result)
}

func (s *Service) answer(ctx context.Context, q string, result *domain.Result) (string, error) {
	if strings.TrimSpace(q) == "" {
		return "", domain.ErrEmptyQuery
	}

	answer, rule := s.Engine.Match(q, result)
	log := logrus.WithField("scoped", result != nil)
	if rule != "" {
		log.WithField("rule", rule).Debug("query answered by rule")
		return answer, nil
	}
	if result != nil || s.Assistant == nil {
		log.Debug("query answered by fallback")
		return answer, nil
	}

	reply, err := s.Assistant.Ask(ctx, q)
	if err != nil {
		log.WithError(err).Warn("assistant unavailable, using fallback answer")
		return answer, nil
	}
	if reply = strings.TrimSpace(reply); reply == "" {
		return answer, nil
	}
	log.Debug("query answered by assistant")
	return reply, nil
}
