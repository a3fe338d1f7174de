package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgallion1/mdhighlight/internal/assemble"
	"github.com/dgallion1/mdhighlight/internal/document"
	"github.com/dgallion1/mdhighlight/internal/highlight"
	"github.com/dgallion1/mdhighlight/internal/parser"
	"github.com/dgallion1/mdhighlight/internal/segment"
	"github.com/dgallion1/mdhighlight/internal/store"
)

// Worker processes a single highlight job: convert the upload to markdown,
// run the pipeline, keep the job and the ledger current.
type Worker struct {
	svc       *highlight.Service
	ledger    *store.Ledger
	log       *slog.Logger
	segCfg    segment.Config
	outputDir string
	pipelined bool
	pdfOpts   parser.Options
}

func NewWorker(svc *highlight.Service, ledger *store.Ledger, log *slog.Logger, segCfg segment.Config, outputDir string, pipelined bool, pdfOpts parser.Options) *Worker {
	return &Worker{
		svc:       svc,
		ledger:    ledger,
		log:       log,
		segCfg:    segCfg,
		outputDir: outputDir,
		pipelined: pipelined,
		pdfOpts:   pdfOpts,
	}
}

// Process runs the full highlight pipeline for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "run_id", job.RunID, "filename", job.Filename)

	// Phase 1: convert the upload to markdown.
	job.SetStatus(StatusConverting, "converting")
	p, err := parser.ForFile(job.Filename, w.pdfOpts)
	if err != nil {
		log.Error("unsupported format", "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "converting")
		return
	}
	md, err := p.ToMarkdown(bytes.NewReader(job.FileData()), job.Filename)
	if err != nil {
		log.Error("conversion failed", "error", err)
		job.AddError(fmt.Sprintf("convert: %s", err))
		job.SetStatus(StatusFailed, "converting")
		return
	}

	doc := document.FromText(md)
	doc.Path = job.Filename
	job.ContentHash = ContentHashHex([]byte(md))

	if err := os.MkdirAll(w.outputDir, 0o755); err != nil {
		log.Error("output directory unavailable", "dir", w.outputDir, "error", err)
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "converting")
		return
	}
	outPath := filepath.Join(w.outputDir, job.RunID+".annotated.md")
	job.SetOutput(outPath)

	if err := w.ledger.CreateRun(ctx, store.Run{
		ID:          job.RunID,
		Path:        job.Filename,
		OutputPath:  outPath,
		ContentHash: job.ContentHash,
		Status:      string(StatusSegmenting),
	}); err != nil {
		log.Warn("ledger create failed, continuing", "error", err)
	}

	// Phases 2+3: segment, annotate, write.
	job.SetStatus(StatusSegmenting, "segmenting")
	runner := NewRunner(w.svc, log).WithObserver(func(ac highlight.AnnotatedChunk) {
		job.ChunkDone(ac.Degraded)
		status := "annotated"
		if ac.Degraded {
			status = "degraded"
		}
		if err := w.ledger.RecordChunk(ctx, store.ChunkRecord{
			RunID:     job.RunID,
			Index:     ac.Index,
			StartLine: ac.StartLine,
			EndLine:   ac.EndLine,
			Status:    status,
		}); err != nil {
			log.Warn("ledger chunk record failed", "chunk", ac.Index, "error", err)
		}
	})
	if w.pipelined {
		runner = runner.WithPipelining()
	}

	job.SetStatus(StatusAnnotating, "annotating")
	res, err := runner.Run(ctx, doc, outPath, job.Title, w.segCfg)
	job.SetTotalChunks(res.TotalChunks)

	if err != nil {
		var ce *segment.ChunkingError
		var se *assemble.SequencingError
		switch {
		case errors.As(err, &ce):
			log.Error("chunking failed", "start_line", ce.StartLine, "end_line", ce.EndLine)
		case errors.As(err, &se):
			log.Error("sequencing violation", "expected", se.ExpectedLine, "got", se.GotLine)
		default:
			log.Error("run failed", "error", err)
		}
		job.AddError(err.Error())
		job.SetStatus(StatusFailed, "annotating")
		w.finishLedger(ctx, job, res, string(StatusFailed))
		return
	}

	log.Info("run complete", "chunks", res.TotalChunks, "annotated", res.Annotated, "degraded", res.Degraded)
	if res.Degraded > 0 {
		job.SetStatus(StatusPartial, "done")
		w.finishLedger(ctx, job, res, string(StatusPartial))
		return
	}
	job.SetStatus(StatusCompleted, "done")
	w.finishLedger(ctx, job, res, string(StatusCompleted))
}

func (w *Worker) finishLedger(ctx context.Context, job *Job, res RunResult, status string) {
	if err := w.ledger.UpdateRun(ctx, job.RunID, status, res.TotalChunks, res.Annotated, res.Degraded); err != nil {
		w.log.Warn("ledger update failed", "run_id", job.RunID, "error", err)
	}
}
