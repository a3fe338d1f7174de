package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dgallion1/mdhighlight/internal/assemble"
	"github.com/dgallion1/mdhighlight/internal/config"
	"github.com/dgallion1/mdhighlight/internal/document"
	"github.com/dgallion1/mdhighlight/internal/highlight"
	"github.com/dgallion1/mdhighlight/internal/parser"
	"github.com/dgallion1/mdhighlight/internal/pipeline"
	"github.com/dgallion1/mdhighlight/internal/segment"
	"github.com/dgallion1/mdhighlight/internal/store"
)

var runCmd = &cobra.Command{
	Use:   "run <file.md>",
	Short: "Annotate a single markdown file",
	Long: `Run sends one markdown file through the highlight pipeline and writes
the annotated result next to the input (file.annotated.md) or to --out.
Chunks that already carry highlight spans pass through untouched, so
re-running over a partially annotated file only fills in the gaps.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := applyRunFlags(cmd, config.Load())
		if cfg.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		}

		srcPath := args[0]
		log := newLogger(os.Stderr)

		doc, err := document.Load(srcPath)
		if err != nil {
			return fmt.Errorf("load document: %w", err)
		}

		outPath := assemble.OutputPath(srcPath)
		if v, _ := cmd.Flags().GetString("out"); v != "" {
			outPath = v
		}
		if cfg.InPlace {
			outPath = srcPath
		}

		rules, err := cfg.Rules()
		if err != nil {
			return err
		}

		ann := highlight.NewClaudeAnnotator(cfg.AnthropicAPIKey, cfg.AnthropicModel, highlight.SpanFormat(cfg.SpanFormat))
		defer ann.Close()

		stats := highlight.NewStats(15 * time.Minute)
		svc := highlight.NewService(ann, rules, cfg.RetryLimit, log, stats)

		runner := pipeline.NewRunner(svc, log)
		if cfg.Pipelined {
			runner = runner.WithPipelining()
		}

		segCfg := segment.Config{MinLines: cfg.ChunkMinLines, MaxLines: cfg.ChunkMaxLines}
		title := parser.Title(srcPath)

		ctx := cmd.Context()

		var ledger *store.Ledger
		runID := pipeline.NewID()
		if path, _ := cmd.Flags().GetString("ledger"); path != "" {
			ledger, err = store.Open(ctx, path)
			if err != nil {
				log.Warn("ledger unavailable", "path", path, "error", err)
			} else {
				defer ledger.Close()
				err := ledger.CreateRun(ctx, store.Run{
					ID:          runID,
					Path:        srcPath,
					OutputPath:  outPath,
					ContentHash: pipeline.ContentHashHex([]byte(doc.Text())),
					Status:      "running",
				})
				if err != nil {
					log.Warn("ledger create run failed", "error", err)
				}
				runner = runner.WithObserver(func(ac highlight.AnnotatedChunk) {
					status := "annotated"
					if ac.Degraded {
						status = "degraded"
					}
					if err := ledger.RecordChunk(ctx, store.ChunkRecord{
						RunID:     runID,
						Index:     ac.Index,
						StartLine: ac.StartLine,
						EndLine:   ac.EndLine,
						Status:    status,
					}); err != nil {
						log.Warn("ledger record chunk failed", "chunk", ac.Index, "error", err)
					}
				})
			}
		}

		res, err := runner.Run(ctx, doc, outPath, title, segCfg)
		if ledger != nil {
			status := "completed"
			if err != nil {
				status = "failed"
			} else if res.Degraded > 0 {
				status = "partial"
			}
			if uerr := ledger.UpdateRun(ctx, runID, status, res.TotalChunks, res.Annotated, res.Degraded); uerr != nil {
				log.Warn("ledger update run failed", "error", uerr)
			}
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(os.Stderr, "wrote %s (%d chunks, %d annotated, %d degraded)\n",
			res.OutputPath, res.TotalChunks, res.Annotated, res.Degraded)
		return nil
	},
}

// applyRunFlags overlays command-line flags onto the environment config.
func applyRunFlags(cmd *cobra.Command, cfg config.Config) config.Config {
	f := cmd.Flags()
	if f.Changed("min-lines") {
		cfg.ChunkMinLines, _ = f.GetInt("min-lines")
	}
	if f.Changed("max-lines") {
		cfg.ChunkMaxLines, _ = f.GetInt("max-lines")
	}
	if f.Changed("retry-limit") {
		cfg.RetryLimit, _ = f.GetInt("retry-limit")
	}
	if f.Changed("format") {
		cfg.SpanFormat, _ = f.GetString("format")
	}
	if f.Changed("model") {
		cfg.AnthropicModel, _ = f.GetString("model")
	}
	if f.Changed("rules") {
		cfg.RulesFile, _ = f.GetString("rules")
	}
	if f.Changed("pipelined") {
		cfg.Pipelined, _ = f.GetBool("pipelined")
	}
	if f.Changed("in-place") {
		cfg.InPlace, _ = f.GetBool("in-place")
	}
	return cfg
}

func init() {
	runCmd.Flags().String("out", "", "output path (default: <file>.annotated.md)")
	runCmd.Flags().Bool("in-place", false, "overwrite the input file")
	runCmd.Flags().Int("min-lines", 200, "minimum chunk size in lines")
	runCmd.Flags().Int("max-lines", 400, "maximum chunk size in lines")
	runCmd.Flags().Int("retry-limit", 2, "annotation retries per chunk before degrading")
	runCmd.Flags().String("format", "class", "span format: class or inline")
	runCmd.Flags().String("model", "", "Claude model override")
	runCmd.Flags().String("rules", "", "YAML file overriding density rules")
	runCmd.Flags().Bool("pipelined", false, "overlap next annotation with current write")
	runCmd.Flags().String("ledger", "", "sqlite ledger recording run progress (empty disables)")

	rootCmd.AddCommand(runCmd)
}
