// Package pipeline orchestrates highlight runs: segment a document, send
// each chunk through the annotation service, and reassemble the output in
// order. Server mode adds a job queue and worker pool on top.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/dgallion1/mdhighlight/internal/assemble"
	"github.com/dgallion1/mdhighlight/internal/document"
	"github.com/dgallion1/mdhighlight/internal/highlight"
	"github.com/dgallion1/mdhighlight/internal/segment"
)

// RunResult summarizes one completed pipeline run.
type RunResult struct {
	OutputPath  string
	TotalChunks int
	Annotated   int // chunks carrying fresh or pre-existing spans
	Degraded    int // chunks written unannotated after retries ran out
}

// ChunkObserver is notified after each chunk is written. Used by server
// mode to keep the ledger current; nil is fine.
type ChunkObserver func(ac highlight.AnnotatedChunk)

// Runner executes the segment → annotate → write pipeline for single
// documents. Chunks are processed strictly in order; at most one chunk's
// text is in flight at a time (two in pipelined mode).
type Runner struct {
	svc       *highlight.Service
	log       *slog.Logger
	pipelined bool
	onChunk   ChunkObserver
}

func NewRunner(svc *highlight.Service, log *slog.Logger) *Runner {
	return &Runner{svc: svc, log: log}
}

// WithPipelining overlaps the annotation of chunk i+1 with the write of
// chunk i. Delivery order to the writer is unchanged.
func (r *Runner) WithPipelining() *Runner {
	r.pipelined = true
	return r
}

// WithObserver registers a per-chunk callback.
func (r *Runner) WithObserver(fn ChunkObserver) *Runner {
	r.onChunk = fn
	return r
}

// Run processes doc and writes the annotated result to outPath. On
// cancellation the in-flight chunk is abandoned and every already-written
// chunk remains valid on disk.
func (r *Runner) Run(ctx context.Context, doc *document.Document, outPath, title string, segCfg segment.Config) (RunResult, error) {
	chunks, err := segment.Split(doc, segCfg)
	if err != nil {
		return RunResult{}, err
	}

	res := RunResult{OutputPath: outPath, TotalChunks: len(chunks)}
	if len(chunks) == 0 {
		return res, nil
	}
	r.log.Info("document segmented", "path", doc.Path, "chunks", len(chunks), "lines", doc.LineCount())

	w := assemble.NewWriter(doc, outPath)

	accept := func(ac highlight.AnnotatedChunk) error {
		if err := w.WriteChunk(ac); err != nil {
			return err
		}
		if ac.Degraded {
			res.Degraded++
		} else {
			res.Annotated++
		}
		if r.onChunk != nil {
			r.onChunk(ac)
		}
		return nil
	}

	if r.pipelined {
		err = r.runPipelined(ctx, title, chunks, accept)
	} else {
		err = r.runSequential(ctx, title, chunks, accept)
	}
	if err != nil {
		return res, err
	}

	if err := w.Close(); err != nil {
		return res, err
	}
	return res, nil
}

// runSequential never requests chunk i+1 before chunk i is written.
func (r *Runner) runSequential(ctx context.Context, title string, chunks []segment.Chunk, accept func(highlight.AnnotatedChunk) error) error {
	for _, c := range chunks {
		if err := ctx.Err(); err != nil {
			return err
		}
		ac, err := r.svc.AnnotateChunk(ctx, title, c)
		if err != nil {
			return err
		}
		if err := accept(ac); err != nil {
			return err
		}
	}
	return nil
}

type annotateResult struct {
	ac  highlight.AnnotatedChunk
	err error
}

// runPipelined overlaps the annotation of the next chunk with the write of
// the current one. A single producer annotates in index order over a
// one-slot channel, so the writer still receives chunks strictly in order.
func (r *Runner) runPipelined(ctx context.Context, title string, chunks []segment.Chunk, accept func(highlight.AnnotatedChunk) error) error {
	prodCtx, stop := context.WithCancel(ctx)
	defer stop()

	results := make(chan annotateResult, 1)
	go func() {
		defer close(results)
		for _, c := range chunks {
			if prodCtx.Err() != nil {
				return
			}
			ac, err := r.svc.AnnotateChunk(prodCtx, title, c)
			select {
			case results <- annotateResult{ac: ac, err: err}:
			case <-prodCtx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	for ar := range results {
		if ar.err != nil {
			return ar.err
		}
		if err := accept(ar.ac); err != nil {
			stop()
			for range results {
			}
			return err
		}
	}
	return ctx.Err()
}
