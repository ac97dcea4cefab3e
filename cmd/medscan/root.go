package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/bryanwahyu/medscan/internal/config"
	"github.com/bryanwahyu/medscan/internal/logging"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootFlags struct {
	configPath string
	noLatency  bool
	verbose    bool

	cfg       *config.Config
	logCloser io.Closer
}

func newRootCmd() *cobra.Command {
	rf := &rootFlags{}
	cmd := &cobra.Command{
		Use:   "medscan",
		Short: "Analyze medical scans and ask questions about the findings",
		Long: "medscan runs the simulated MRI, CT and X-ray models on a local file\n" +
			"and answers follow-up questions with the same rule engine as the API.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rf.load()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if rf.logCloser != nil {
				rf.logCloser.Close()
			}
		},
	}
	cmd.Version = version

	f := cmd.PersistentFlags()
	f.StringVar(&rf.configPath, "config", "config.yaml", "Config file (missing file means defaults)")
	f.BoolVar(&rf.noLatency, "no-latency", false, "Skip simulated model latency")
	f.BoolVarP(&rf.verbose, "verbose", "v", false, "Debug logging on stderr")

	cmd.AddCommand(newAnalyzeCmd(rf))
	cmd.AddCommand(newAskCmd(rf))
	return cmd
}

func (rf *rootFlags) load() error {
	cfg, err := config.Load(rf.configPath)
	if err != nil {
		return err
	}
	if rf.noLatency {
		cfg.Analysis.NoLatency = true
	}
	// stdout belongs to the command output
	cfg.Logging.Output = "stderr"
	cfg.Logging.Level = "warn"
	if rf.verbose {
		cfg.Logging.Level = "debug"
	}
	rf.logCloser = logging.Init(cfg.Logging)
	rf.cfg = cfg
	return nil
}
