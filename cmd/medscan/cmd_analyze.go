package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	appanalysis "github.com/bryanwahyu/medscan/internal/application/analysis"
	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
	"github.com/bryanwahyu/medscan/internal/infra/dicom"
	"github.com/bryanwahyu/medscan/internal/infra/models"
	"github.com/bryanwahyu/medscan/internal/middleware"
)

type analyzeFlags struct {
	scanType string
	patient  domain.PatientInfo
	json     bool
}

func newAnalyzeCmd(rf *rootFlags) *cobra.Command {
	af := &analyzeFlags{}
	cmd := &cobra.Command{
		Use:   "analyze FILE",
		Short: "Run the model for --type on FILE and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, rf, af, args[0])
		},
	}

	f := cmd.Flags()
	f.StringVarP(&af.scanType, "type", "t", "", "Scan type: mri, ct or xray (required)")
	f.StringVar(&af.patient.PatientID, "patient-id", "", "Patient ID (required)")
	f.StringVar(&af.patient.PatientName, "patient-name", "", "Patient name")
	f.StringVar(&af.patient.PatientAge, "patient-age", "", "Patient age")
	f.StringVar(&af.patient.PatientGender, "patient-gender", "", "Patient gender")
	f.StringVar(&af.patient.ScanDate, "scan-date", "", "Scan date (YYYY-MM-DD)")
	f.StringVar(&af.patient.ClinicalHistory, "history", "", "Clinical history")
	f.BoolVar(&af.json, "json", false, "Print the result as JSON")

	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("patient-id")
	return cmd
}

func runAnalyze(cmd *cobra.Command, rf *rootFlags, af *analyzeFlags, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scan: %w", err)
	}
	patient := middleware.SanitizePatient(af.patient)
	if patient.PatientID != "" {
		if err := middleware.ValidatePatientID(patient.PatientID); err != nil {
			return err
		}
	}

	opts, err := models.OptionsFrom(rf.cfg.Analysis)
	if err != nil {
		return err
	}
	svc := &appanalysis.Service{
		Models:        models.NewRegistry(opts),
		Store:         appanalysis.NewStore(),
		Inspector:     dicom.NewInspector(),
		Clock:         opts.Clock,
		DispatchDelay: rf.cfg.Analysis.DispatchDelay,
	}
	if rf.cfg.Analysis.NoLatency {
		svc.DispatchDelay = 0
	}

	up := domain.Upload{
		FileName:    filepath.Base(path),
		ContentType: http.DetectContentType(data),
		Size:        int64(len(data)),
		Data:        data,
	}
	res, err := svc.AnalyzeScan(cmd.Context(), up, af.scanType, patient)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if af.json {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	_, err = fmt.Fprint(out, renderResult(res))
	return err
}
