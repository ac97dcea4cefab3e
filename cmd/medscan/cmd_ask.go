package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	appqueries "github.com/bryanwahyu/medscan/internal/application/queries"
	domain "github.com/bryanwahyu/medscan/internal/domain/analysis"
	"github.com/bryanwahyu/medscan/internal/domain/query"
	"github.com/bryanwahyu/medscan/internal/infra/ai"
	"github.com/bryanwahyu/medscan/internal/middleware"
)

func newAskCmd(rf *rootFlags) *cobra.Command {
	var resultPath string
	cmd := &cobra.Command{
		Use:   "ask QUESTION",
		Short: "Answer a question, optionally about a saved result",
		Long: "ask answers a medical-imaging question. With --result it answers about\n" +
			"the analysis saved by 'medscan analyze --json'.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var res *domain.Result
			if resultPath != "" {
				loaded, err := loadResult(resultPath)
				if err != nil {
					return err
				}
				res = loaded
			}

			assistant, err := ai.New(rf.cfg.Assistant)
			if err != nil {
				return err
			}
			var src query.RandomSource
			if rf.cfg.Analysis.RandomSeed > 0 {
				src = query.NewSeededSource(rf.cfg.Analysis.RandomSeed)
			}
			svc := appqueries.NewService(query.NewEngine(src), assistant)

			q := strings.Join(args, " ")
			var answer string
			if res != nil {
				answer, err = svc.ProcessScanQuery(cmd.Context(), q, res)
			} else {
				answer, err = svc.ProcessQuery(cmd.Context(), q)
			}
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), answer)
			return err
		},
	}
	cmd.Flags().StringVarP(&resultPath, "result", "r", "", "Result JSON written by analyze --json (or an API response)")
	return cmd
}

// loadResult accepts a bare result or the API's {"results": ...} envelope.
func loadResult(path string) (*domain.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read result: %w", err)
	}
	var envelope struct {
		Results *domain.Result `json:"results"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("parse result %s: %w", path, err)
	}
	res := envelope.Results
	if res == nil {
		res = &domain.Result{}
		if err := json.Unmarshal(data, res); err != nil {
			return nil, fmt.Errorf("parse result %s: %w", path, err)
		}
		if res.ScanType == "" {
			return nil, fmt.Errorf("%s: not an analysis result", path)
		}
	}
	if err := middleware.ValidateScanResult(res); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}
