package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	appanalysis "github.com/bryanwahyu/medscan/internal/application/analysis"
	appqueries "github.com/bryanwahyu/medscan/internal/application/queries"
	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
	"github.com/bryanwahyu/medscan/internal/middleware"
)

const defaultMaxUpload = 50 << 20

// Options wires the router. Analysis and Queries are required.
type Options struct {
	Analysis *appanalysis.Service
	Queries  *appqueries.Service

	Health map[string]middleware.HealthChecker
	Ready  map[string]middleware.HealthChecker

	// APIKeys enables bearer auth when non-empty.
	APIKeys     map[string]string
	RateLimiter *middleware.RateLimiter
	CORSOrigins []string
	// MaxUploadBytes caps the multipart body of /analyze.
	MaxUploadBytes int64
}

type Router struct {
	analysisSvc *appanalysis.Service
	querySvc    *appqueries.Service
	maxUpload   int64
}

func NewRouter(opts Options) http.Handler {
	r := &Router{
		analysisSvc: opts.Analysis,
		querySvc:    opts.Queries,
		maxUpload:   opts.MaxUploadBytes,
	}
	if r.maxUpload <= 0 {
		r.maxUpload = defaultMaxUpload
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	mux := chi.NewRouter()
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	if len(opts.APIKeys) > 0 {
		mux.Use(middleware.APIKeyAuth(opts.APIKeys))
	}
	if opts.RateLimiter != nil {
		mux.Use(middleware.RateLimit(opts.RateLimiter))
	}

	mux.Get("/health", middleware.HealthHandler(opts.Health))
	mux.Get("/healthz", middleware.LivenessHandler)
	mux.Get("/readyz", middleware.HealthHandler(opts.Ready))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Post("/analyze", r.wrap(r.handleAnalyze, "Failed to process scan"))
	mux.Post("/query", r.wrap(r.handleQuery, "Failed to process query"))

	mux.Get("/state", r.wrap(r.handleState, "Failed to read state"))
	mux.Delete("/state", r.wrap(r.handleReset, "Failed to reset state"))
	mux.Get("/state/events", r.handleStateEvents)

	mux.Get("/analyses", r.wrap(r.handleList, "Failed to list analyses"))
	mux.Get("/analyses/{id}", r.wrap(r.handleGet, "Failed to load analysis"))
	mux.Get("/failures", r.wrap(r.handleFailures, "Failed to list failures"))

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps domain errors to status codes. Internal errors are logged and
// answered with the generic message.
func (r *Router) wrap(h handlerFunc, internalMsg string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, publicMessage(err))
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "Analysis not found")
		case errors.Is(err, domain.ErrAnalysisInProgress):
			writeError(w, http.StatusConflict, "Analysis already in progress")
		default:
			logrus.WithError(err).WithFields(logrus.Fields{
				"method": req.Method,
				"path":   req.URL.Path,
			}).Error(internalMsg)
			writeError(w, http.StatusInternalServerError, internalMsg)
		}
	}
}

// publicMessage gives the caller-facing text for an invalid-input error.
func publicMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingFile):
		return "No file provided"
	case errors.Is(err, domain.ErrInvalidScanType):
		return "Invalid scan type"
	case errors.Is(err, domain.ErrMissingPatientID):
		return "Patient ID is required"
	case errors.Is(err, domain.ErrEmptyQuery):
		return "No query provided"
	}
	msg := err.Error()
	if _, after, ok := strings.Cut(msg, domain.ErrInvalidInput.Error()+": "); ok {
		msg = after
	}
	if msg == "" {
		return "Invalid request"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	_ = writeJSON(w, status, map[string]string{"error": msg})
}

// POST /analyze (multipart/form-data)
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: file larger than %d bytes", domain.ErrInvalidInput, tooLarge.Limit)
		}
		if !errors.Is(err, http.ErrNotMultipart) {
			return fmt.Errorf("%w: malformed form: %v", domain.ErrInvalidInput, err)
		}
	}

	up, err := readUpload(req)
	if err != nil {
		return err
	}
	patient := middleware.SanitizePatient(domain.PatientInfo{
		PatientID:       req.FormValue("patientId"),
		PatientName:     req.FormValue("patientName"),
		PatientAge:      req.FormValue("patientAge"),
		PatientGender:   req.FormValue("patientGender"),
		ScanDate:        req.FormValue("scanDate"),
		ClinicalHistory: req.FormValue("clinicalHistory"),
	})
	scanType := req.FormValue("scanType")
	if up == nil {
		up = &domain.Upload{}
	}
	// AnalyzeScan reports a missing file, bad scan type and blank ID in
	// that order; only then does the ID format matter.
	if _, err := middleware.ValidateScanType(scanType); err == nil && len(up.Data) > 0 && patient.PatientID != "" {
		if err := middleware.ValidatePatientID(patient.PatientID); err != nil {
			return err
		}
	}

	done := middleware.AnalysisStarted()
	res, err := r.analysisSvc.AnalyzeScan(req.Context(), *up, scanType, patient)
	done(err)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"results": res})
}

// readUpload returns nil when the form has no file part.
func readUpload(req *http.Request) (*domain.Upload, error) {
	f, hdr, err := req.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading file: %v", domain.ErrInvalidInput, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	return &domain.Upload{
		FileName:    hdr.Filename,
		ContentType: hdr.Header.Get("Content-Type"),
		Size:        hdr.Size,
		Data:        data,
	}, nil
}

type queryRequest struct {
	Query       string         `json:"query"`
	ScanResults *domain.Result `json:"scanResults,omitempty"`
	ScanID      string         `json:"scanId,omitempty"`
}

// POST /query
func (r *Router) handleQuery(w http.ResponseWriter, req *http.Request) error {
	var body queryRequest
	if err := json.NewDecoder(io.LimitReader(req.Body, 1<<20)).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: invalid JSON body", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(body.Query) == "" {
		return domain.ErrEmptyQuery
	}

	scan := body.ScanResults
	if scan != nil {
		if err := middleware.ValidateScanResult(scan); err != nil {
			return err
		}
	} else if body.ScanID != "" {
		stored, err := r.analysisSvc.Get(req.Context(), body.ScanID)
		if err != nil {
			return err
		}
		scan = stored
	}

	var (
		answer string
		err    error
	)
	if scan != nil {
		answer, err = r.querySvc.ProcessScanQuery(req.Context(), body.Query, scan)
	} else {
		answer, err = r.querySvc.ProcessQuery(req.Context(), body.Query)
	}
	if err != nil {
		return err
	}
	middleware.QueryAnswered()
	return writeJSON(w, http.StatusOK, map[string]string{"response": answer})
}

// GET /state
func (r *Router) handleState(w http.ResponseWriter, req *http.Request) error {
	return writeJSON(w, http.StatusOK, r.analysisSvc.Store.GetState())
}

// DELETE /state
func (r *Router) handleReset(w http.ResponseWriter, req *http.Request) error {
	r.analysisSvc.Store.Reset()
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// GET /analyses?page=&page_size=&scanType=&patientId=
func (r *Router) handleList(w http.ResponseWriter, req *http.Request) error {
	q := req.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))

	var f domain.ListFilter
	if st := q.Get("scanType"); st != "" {
		parsed, err := middleware.ValidateScanType(st)
		if err != nil {
			return err
		}
		f.ScanType = parsed
	}
	f.PatientID = middleware.SanitizeString(q.Get("patientId"))

	list, err := r.analysisSvc.List(req.Context(), middleware.ValidatePage(page), middleware.ValidateLimit(size), f)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, list)
}

// GET /analyses/{id}
func (r *Router) handleGet(w http.ResponseWriter, req *http.Request) error {
	id := chi.URLParam(req, "id")
	if err := middleware.ValidateAnalysisID(id); err != nil {
		return err
	}
	res, err := r.analysisSvc.Get(req.Context(), id)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, res)
}

// GET /failures?limit=
func (r *Router) handleFailures(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	list, err := r.analysisSvc.RecentFailures(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"data": list})
}
