// Command lectern analyzes scholarly PDF documents and produces
// read-along bundles with synchronized narration.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/lecternproj/lectern"
	"github.com/lecternproj/lectern/capability"
	"github.com/lecternproj/lectern/config"
	"github.com/lecternproj/lectern/export"
	"github.com/lecternproj/lectern/job"
	"github.com/lecternproj/lectern/manifest"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	var verbose bool

	root := &cobra.Command{
		Use:           "lectern",
		Short:         "Analyze scholarly PDFs into narrated read-along bundles",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML configuration file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log pipeline detail to stderr")

	root.AddCommand(newProcessCmd(&configPath, &verbose))
	root.AddCommand(newCapabilitiesCmd(&configPath))
	root.AddCommand(newExportCmd(&configPath))
	return root
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newLogger(verbose bool) *slog.Logger {
	if !verbose {
		return nil
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func newProcessCmd(configPath *string, verbose *bool) *cobra.Command {
	var (
		voice         string
		speed         float64
		outputDir     string
		skipSynthesis bool
	)

	cmd := &cobra.Command{
		Use:   "process <pdf>",
		Short: "Run the full analysis pipeline on one document",
		Long: `Process ingests a PDF, analyzes its layout, extracts tables, formulas,
and images, synthesizes narration, and writes the output bundle.

The synthesizer is set by synth_command in the configuration. The
reserved value "silence" selects the builtin silent synthesizer, which
produces real chunk timings without an external program.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			if outputDir != "" {
				cfg.OutputDir = outputDir
			}
			if skipSynthesis {
				cfg.SkipSynthesis = true
			}

			svc, err := lectern.NewWithLogger(cfg, newLogger(*verbose))
			if err != nil {
				return err
			}

			doc, err := svc.Ingest(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Ingested %q: %d pages (doc %s)\n", doc.Title, doc.PageCount, doc.ID)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			j := svc.Start(ctx, doc, job.Params{Voice: voice, Speed: speed})
			watchProgress(out, j)

			status := j.Status()
			if status.State != job.StateCompleted {
				return fmt.Errorf("job %s: %s", status.State, status.Err)
			}
			res, ok := svc.Result(doc.ID)
			if !ok {
				return fmt.Errorf("job %s finished without a result", status.ID)
			}

			fmt.Fprintf(out, "Chunks: %d\n", len(res.Chunks))
			if res.Manifest.AudioTrack != "" && len(res.Chunks) > 0 {
				last := res.Chunks[len(res.Chunks)-1]
				fmt.Fprintf(out, "Audio:  %s (%.1fs)\n", res.Manifest.AudioTrack, float64(last.EndMS)/1000)
			}
			fmt.Fprintf(out, "Output: %s\n", res.OutputDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&voice, "voice", "", "narration voice (default from configuration)")
	cmd.Flags().Float64Var(&speed, "speed", 0, "narration speed multiplier (default from configuration)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "output directory (default from configuration)")
	cmd.Flags().BoolVar(&skipSynthesis, "skip-synthesis", false, "produce chunks without narration audio")
	return cmd
}

// watchProgress prints a progress line whenever the percentage moves,
// until the job reaches a terminal state.
func watchProgress(w io.Writer, j *job.Job) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	last := -1.0
	for {
		select {
		case <-j.Done():
			return
		case <-ticker.C:
			if status := j.Status(); status.Progress != last {
				fmt.Fprintf(w, "  %5.1f%%\n", status.Progress)
				last = status.Progress
			}
		}
	}
}

func newCapabilitiesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "capabilities",
		Short: "Show which optional detectors and engines are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			caps := capability.Resolve(&cfg)

			out := cmd.OutOrStdout()
			for _, c := range capability.All() {
				state := "unavailable"
				if caps.Has(c) {
					state = "available"
				}
				if v := caps.Version(c); v != "" {
					fmt.Fprintf(out, "%-16s %-12s %s\n", c, state, v)
				} else {
					fmt.Fprintf(out, "%-16s %s\n", c, state)
				}
			}
			return nil
		},
	}
}

func newExportCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "export <doc-id>",
		Short: "Regenerate text, markdown, and read-along exports from a stored manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			outDir := filepath.Join(cfg.OutputDir, args[0])
			m, err := manifest.Read(outDir)
			if err != nil {
				return err
			}

			ecfg := export.DefaultConfig()
			ecfg.Excluded = cfg.Excluded()
			paths, err := export.NewExporterWithConfig(ecfg).
				WriteAll(outDir, m.RebuildDocument(), m.Tables, m.Formulas, m.Chunks, m.AudioTrack)
			if err != nil {
				return err
			}
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(outDir, p))
			}
			return nil
		},
	}
}
