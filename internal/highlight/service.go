package highlight

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/dgallion1/mdhighlight/internal/segment"
)

// retryBaseDelay is the initial backoff between annotation attempts.
// Tests override this to avoid real sleeps.
var retryBaseDelay = time.Second

// AnnotatedChunk is a chunk plus its validated marked-up text. When the
// annotator could not produce an acceptable result within the retry budget,
// MarkedText equals the raw text and Degraded is set.
type AnnotatedChunk struct {
	segment.Chunk
	MarkedText string
	Degraded   bool
}

// Service wraps an Annotator with the contract the pipeline relies on:
// every returned AnnotatedChunk satisfies content preservation and the
// density rules, or is explicitly degraded to the unannotated original.
type Service struct {
	ann        Annotator
	rules      Rules
	retryLimit uint
	log        *slog.Logger
	stats      *Stats
}

func NewService(ann Annotator, rules Rules, retryLimit int, log *slog.Logger, stats *Stats) *Service {
	if retryLimit < 0 {
		retryLimit = 0
	}
	return &Service{
		ann:        ann,
		rules:      rules,
		retryLimit: uint(retryLimit),
		log:        log,
		stats:      stats,
	}
}

// Rules returns the density rules the service validates against.
func (s *Service) Rules() Rules {
	return s.rules
}

// AnnotateChunk runs one chunk through the external annotator, validating
// the response and retrying transient or invalid results. A chunk that
// already carries spans passes through untouched, so re-running a pipeline
// over an annotated document never double-annotates. The only error ever
// returned is the context's, so cancellation stops the pipeline while
// annotator failures degrade the single chunk.
func (s *Service) AnnotateChunk(ctx context.Context, docTitle string, c segment.Chunk) (AnnotatedChunk, error) {
	raw := c.RawText()

	if HasSpans(raw) {
		return AnnotatedChunk{Chunk: c, MarkedText: raw}, nil
	}

	var marked string
	err := retry.Do(
		func() error {
			start := time.Now()
			out, err := s.ann.Annotate(ctx, docTitle, raw)
			if s.stats != nil {
				s.stats.Record(time.Since(start).Milliseconds())
			}
			if err != nil {
				return &AnnotationError{ChunkIndex: c.Index, Err: err}
			}
			if err := Validate(raw, out, s.rules); err != nil {
				return err
			}
			marked = out
			return nil
		},
		retry.RetryIf(IsRetryable),
		retry.Attempts(s.retryLimit+1),
		retry.Delay(retryBaseDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.MaxDelay(30*time.Second),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.log.Warn("retrying annotation",
				"chunk", c.Index,
				"attempt", n+1,
				"max_attempts", s.retryLimit+1,
				"error", err,
			)
		}),
	)

	if err != nil {
		if ctx.Err() != nil {
			return AnnotatedChunk{}, ctx.Err()
		}
		s.log.Warn("annotation gave up, emitting chunk unannotated",
			"chunk", c.Index,
			"lines", c.LineCount(),
			"error", err,
		)
		return AnnotatedChunk{Chunk: c, MarkedText: raw, Degraded: true}, nil
	}

	return AnnotatedChunk{Chunk: c, MarkedText: marked}, nil
}

// IsRetryable classifies errors worth another attempt: transient external
// failures and contract violations the annotator may fix on a retry.
// Non-retryable errors (bad request, auth) fail fast to the degrade path.
func IsRetryable(err error) bool {
	var re *RetryableError
	var ve *ValidationError
	var ae *AnnotationError
	if errors.As(err, &ve) {
		return true
	}
	if errors.As(err, &re) {
		return true
	}
	if errors.As(err, &ae) {
		return errors.As(ae.Err, &re) || errors.Is(ae.Err, context.DeadlineExceeded)
	}
	return false
}
