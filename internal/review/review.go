// Package review runs validation and comparison for submissions, one file
// or a whole directory at a time.
package review

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"animreview/internal/compare"
	"animreview/internal/diff"
	"animreview/internal/logging"
	"animreview/internal/schema"
	"animreview/internal/source"
	"animreview/internal/validate"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Band buckets an overall similarity score.
type Band string

const (
	BandGreen  Band = "green"
	BandYellow Band = "yellow"
	BandRed    Band = "red"
)

// Band thresholds, inclusive.
const (
	GreenAt  = 95.0
	YellowAt = 50.0
)

// Grade maps a similarity percentage to its band.
func Grade(score float64) Band {
	switch {
	case score >= GreenAt:
		return BandGreen
	case score >= YellowAt:
		return BandYellow
	default:
		return BandRed
	}
}

// Report is the review of a single submission.
type Report struct {
	Path       string           `json:"path"`
	Validation *validate.Result `json:"validation"`
	Comparison *compare.Result  `json:"comparison"`
	Band       Band             `json:"band"`
}

// Name is the base name of the submission.
func (r *Report) Name() string {
	return source.Document{Path: r.Path}.Name()
}

// Batch is the outcome of ReviewAll. Reports follow the input order.
type Batch struct {
	RunID     string        `json:"run_id"`
	BasePath  string        `json:"base_path"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
	Reports   []*Report     `json:"reports"`
}

// Summary aggregates a batch.
type Summary struct {
	Total   int          `json:"total"`
	Valid   int          `json:"valid"`
	Invalid int          `json:"invalid"`
	Average float64      `json:"average_similarity"`
	Bands   map[Band]int `json:"bands"`
}

// Summary counts valid submissions and averages the overall similarity.
func (b *Batch) Summary() Summary {
	s := Summary{Total: len(b.Reports), Bands: map[Band]int{}}
	var sum float64
	for _, r := range b.Reports {
		if r.Validation.Valid {
			s.Valid++
		} else {
			s.Invalid++
		}
		sum += r.Comparison.OverallSimilarity
		s.Bands[r.Band]++
	}
	if s.Total > 0 {
		s.Average = sum / float64(s.Total)
	}
	return s
}

// Options configure a Reviewer.
type Options struct {
	// BasePath is the template every submission is compared to.
	BasePath string
	// Workers bounds ReviewAll; 0 means GOMAXPROCS.
	Workers int
}

// Reviewer combines a validator and a comparator around one base template.
type Reviewer struct {
	validator  *validate.Validator
	comparator *compare.Comparator
	basePath   string
	workers    int
	logger     *zap.Logger
}

// New builds a reviewer. logger may be nil.
func New(vocab schema.Vocabulary, opts Options, logger *zap.Logger) *Reviewer {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Reviewer{
		validator:  validate.New(vocab, logger),
		comparator: compare.New(vocab, logger),
		basePath:   opts.BasePath,
		workers:    workers,
		logger:     logging.Named(logger, logging.CategoryReview),
	}
}

// BasePath returns the template path.
func (r *Reviewer) BasePath() string {
	return r.basePath
}

// Diff exposes the comparator's similarity engine.
func (r *Reviewer) Diff() *diff.Engine {
	return r.comparator.Engine()
}

// ReviewDocuments validates student and compares it with base.
func (r *Reviewer) ReviewDocuments(student, base source.Document) *Report {
	rep := &Report{
		Path:       student.Path,
		Validation: r.validator.Check(student),
		Comparison: r.comparator.Compare(student, base),
	}
	rep.Band = Grade(rep.Comparison.OverallSimilarity)
	return rep
}

// Review reads the base and one submission from disk. The only error is a
// cancelled context; read failures are reported inside the Report.
func (r *Reviewer) Review(ctx context.Context, path string) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.ReviewDocuments(source.Read(path), r.readBase()), nil
}

// ReviewAll reviews every path concurrently, reading the base once.
func (r *Reviewer) ReviewAll(ctx context.Context, paths []string) (*Batch, error) {
	batch := &Batch{
		RunID:     uuid.NewString(),
		BasePath:  r.basePath,
		StartedAt: time.Now(),
		Reports:   make([]*Report, len(paths)),
	}
	log := r.logger.With(zap.String("run_id", batch.RunID))
	log.Info("review started", zap.Int("files", len(paths)), zap.Int("workers", r.workers))

	base := r.readBase()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep := r.ReviewDocuments(source.Read(path), base)
			batch.Reports[i] = rep
			log.Debug("reviewed",
				zap.String("file", rep.Name()),
				zap.Bool("valid", rep.Validation.Valid),
				zap.Float64("overall", rep.Comparison.OverallSimilarity))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("review %s: %w", batch.RunID, err)
	}

	batch.Duration = time.Since(batch.StartedAt)
	log.Info("review finished", zap.Duration("duration", batch.Duration))
	return batch, nil
}

func (r *Reviewer) readBase() source.Document {
	base := source.Read(r.basePath)
	if base.Failed() {
		r.logger.Warn("base template unreadable", zap.String("path", r.basePath), zap.Error(base.Err))
	}
	return base
}
