package analysis

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/bryanwahyu/medscan/internal/application"
	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
)

// OverlapPolicy decides what happens to an analysis requested while another
// one is running.
type OverlapPolicy string

const (
	// OverlapQueue waits for the running analysis to finish.
	OverlapQueue OverlapPolicy = "queue"
	// OverlapReject fails fast with ErrAnalysisInProgress.
	OverlapReject OverlapPolicy = "reject"
)

// Service implements the analysis use-cases: dispatch a scan to its model
// adapter, assemble the result and publish it to the Store.
// Repo, Failures, Images and Inspector are optional.
type Service struct {
	Models        domain.Registry
	Store         *Store
	Repo          domain.Repository
	Failures      domain.FailureLog
	Images        domain.ImageStore
	Inspector     domain.ImageInspector
	Clock         application.Clock
	DispatchDelay time.Duration
	Overlap       OverlapPolicy

	gateOnce sync.Once
	gate     chan struct{}
}

// AnalyzeScan is the caller-facing entry: it validates input, then dispatches.
func (s *Service) AnalyzeScan(ctx context.Context, up domain.Upload, scanType string, patient domain.PatientInfo) (*domain.Result, error) {
	if up.FileName == "" && len(up.Data) == 0 {
		return nil, domain.ErrMissingFile
	}
	st, err := domain.ParseScanType(scanType)
	if err != nil {
		return nil, err
	}
	patient.PatientID = strings.TrimSpace(patient.PatientID)
	if patient.PatientID == "" {
		return nil, domain.ErrMissingPatientID
	}
	return s.Analyze(ctx, up, st, patient)
}

// Analyze runs one analysis to completion. Input is assumed valid; a scan type
// without an adapter yields the generic normal result instead of an error.
// Once the overlap gate is passed the caller's cancellation is ignored.
func (s *Service) Analyze(ctx context.Context, up domain.Upload, scanType domain.ScanType, patient domain.PatientInfo) (*domain.Result, error) {
	release, err := s.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	// sekali mulai, analisis jalan sampai selesai
	ctx = context.WithoutCancel(ctx)
	clock := s.clock()
	log := logrus.WithFields(logrus.Fields{
		"scan_type":  scanType,
		"patient_id": patient.PatientID,
		"file":       up.FileName,
	})

	s.Store.SetIsAnalyzing(true)
	defer s.Store.SetIsAnalyzing(false)
	start := clock.Now()

	id := uuid.New().String()
	fail := func(phase string, err error) error {
		s.recordFailure(ctx, &domain.Failure{
			ID:        id,
			ScanType:  scanType,
			PatientID: patient.PatientID,
			FileName:  up.FileName,
			Phase:     phase,
			Message:   err.Error(),
			CreatedAt: clock.Now().UTC(),
		})
		return err
	}

	// ctx sudah lepas dari pemanggil, jadi Sleep tidak bisa batal di sini
	_ = clock.Sleep(ctx, s.DispatchDelay)

	adapter, known := s.Models[scanType]
	key := objectKey(scanType, id, up.FileName)

	var (
		pred    domain.RawPrediction
		fileURL string
		info    *domain.ImageInfo
	)
	// the first failing phase cancels the others
	g, gctx := errgroup.WithContext(ctx)
	if known {
		g.Go(func() error {
			p, err := adapter.Predict(gctx, up.Data)
			if err != nil {
				return &phaseError{domain.PhasePredict, fmt.Errorf("predict %s: %w", scanType, err)}
			}
			pred = p
			return nil
		})
	}
	if s.Images != nil {
		g.Go(func() error {
			url, err := s.Images.Put(gctx, key, up)
			if err != nil {
				return &phaseError{domain.PhaseArchive, fmt.Errorf("archive scan: %w", err)}
			}
			fileURL = url
			return nil
		})
	}
	if s.Inspector != nil {
		g.Go(func() error {
			ii, err := s.Inspector.Inspect(up.Data, scanType)
			if err != nil {
				return &phaseError{domain.PhaseInspect, fmt.Errorf("inspect scan: %w", err)}
			}
			info = ii
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.WithError(err).Error("analysis failed")
		s.discardArchive(ctx, key, fileURL)
		var pe *phaseError
		if errors.As(err, &pe) {
			return nil, fail(pe.phase, pe.err)
		}
		return nil, err
	}

	size := up.Size
	if size == 0 {
		size = int64(len(up.Data))
	}
	res := &domain.Result{
		ID:           id,
		ScanType:     scanType,
		FileName:     up.FileName,
		FileSize:     size,
		FileURL:      fileURL,
		AnalysisDate: clock.Now().UTC(),
		PatientInfo:  patient,
		Image:        info,
	}
	if known {
		n := domain.NarrativeFor(scanType, pred)
		res.Confidence = pred.Confidence
		res.Findings = domain.NewFindings(pred, n)
		res.AIAnalysis = n.Analysis
		res.Recommendation = n.Recommendation
	} else {
		log.Warn("no model adapter for scan type, returning generic result")
		res.Confidence = domain.GenericConfidence
		res.Findings = domain.Findings{Normal: true}.Normalize()
		res.AIAnalysis = domain.NormalNarrative.Analysis
		res.Recommendation = domain.NormalNarrative.Recommendation
	}

	if s.Repo != nil {
		if err := s.Repo.Save(ctx, res); err != nil {
			log.WithError(err).Error("saving analysis failed")
			s.discardArchive(ctx, key, fileURL)
			return nil, fail(domain.PhaseSave, fmt.Errorf("save analysis: %w", err))
		}
	}

	s.Store.SetResults(res)
	log.WithFields(logrus.Fields{
		"id":          res.ID,
		"condition":   res.Findings.DetectedCondition,
		"confidence":  res.Confidence,
		"duration_ms": clock.Now().Sub(start).Milliseconds(),
	}).Info("analysis finished")
	return res, nil
}

// phaseError tags an error with the analysis phase it came from.
type phaseError struct {
	phase string
	err   error
}

func (e *phaseError) Error() string { return e.phase + ": " + e.err.Error() }
func (e *phaseError) Unwrap() error { return e.err }

// discardArchive removes an archived scan whose analysis produced no result.
func (s *Service) discardArchive(ctx context.Context, key, fileURL string) {
	if s.Images == nil || fileURL == "" {
		return
	}
	if err := s.Images.Delete(ctx, key); err != nil {
		logrus.WithError(err).WithField("key", key).Warn("removing orphaned scan archive")
	}
}

// recordFailure writes to the failure log; a broken log never masks the
// analysis error itself.
func (s *Service) recordFailure(ctx context.Context, f *domain.Failure) {
	if s.Failures == nil {
		return
	}
	if err := s.Failures.Record(ctx, f); err != nil {
		logrus.WithError(err).WithField("phase", f.Phase).Warn("recording analysis failure")
	}
}

// RecentFailures lists the newest failed analyses; empty without a log.
func (s *Service) RecentFailures(ctx context.Context, limit int) ([]*domain.Failure, error) {
	if s.Failures == nil {
		return []*domain.Failure{}, nil
	}
	out, err := s.Failures.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []*domain.Failure{}
	}
	return out, nil
}

// Get ambil 1 analysis by id; without a repository only the latest result is known.
func (s *Service) Get(ctx context.Context, id string) (*domain.Result, error) {
	if s.Repo == nil {
		if latest := s.Store.GetState().Results; latest != nil && latest.ID == id {
			return latest, nil
		}
		return nil, domain.ErrNotFound
	}
	res, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, domain.ErrNotFound
	}
	return res, nil
}

// List returns a page of stored analyses, newest first.
func (s *Service) List(ctx context.Context, page, pageSize int, f domain.ListFilter) (domain.PaginatedResult, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	out := domain.PaginatedResult{Page: page, PageSize: pageSize, Data: []*domain.Result{}}
	if s.Repo == nil {
		if latest := s.Store.GetState().Results; latest != nil && page == 1 && f.Matches(latest) {
			out.Data = append(out.Data, latest)
		}
		return out, nil
	}
	list, err := s.Repo.Paginate(ctx, page, pageSize, f)
	if err != nil {
		return out, err
	}
	if list != nil {
		out.Data = list
	}
	return out, nil
}

func (s *Service) acquire(ctx context.Context) (func(), error) {
	s.gateOnce.Do(func() { s.gate = make(chan struct{}, 1) })

	if s.Overlap == OverlapReject {
		select {
		case s.gate <- struct{}{}:
		default:
			return nil, domain.ErrAnalysisInProgress
		}
	} else {
		select {
		case s.gate <- struct{}{}:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return func() { <-s.gate }, nil
}

func (s *Service) clock() application.Clock {
	if s.Clock == nil {
		return application.SystemClock{}
	}
	return s.Clock
}

// objectKey builds <scanType>/<id>/<file> for the image archive.
func objectKey(scanType domain.ScanType, id, fileName string) string {
	name := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "scan.bin"
	}
	return fmt.Sprintf("%s/%s/%s", scanType, id, name)
}
