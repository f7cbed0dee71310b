// Package pipeline runs the fixed stage sequence for one job: acquisition,
// sectioning, primary extraction, conditional fallback extraction, and
// summarization. Stage outcomes are translated into job-state transitions;
// nothing here ever lets a job failure escape as a crash.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/docminer/docminer/internal/cache"
	"github.com/docminer/docminer/internal/corpus"
	"github.com/docminer/docminer/internal/dict"
	"github.com/docminer/docminer/internal/entity"
	"github.com/docminer/docminer/internal/extract"
	"github.com/docminer/docminer/internal/match"
	"github.com/docminer/docminer/internal/report"
	"github.com/docminer/docminer/internal/section"
	"github.com/docminer/docminer/internal/store"
	"github.com/docminer/docminer/pkg/models"
	"github.com/google/uuid"
)

const statusTTL = 30 * time.Minute

// Executor runs the pipeline for one job at a time. It owns all mutations of
// the job's state while the job runs; pollers only read through the store.
type Executor struct {
	store        store.Store
	cache        cache.Cache
	fetcher      corpus.Fetcher
	sectioner    section.Sectioner
	extractor    entity.Extractor
	registry     *extract.Registry
	dictDir      string
	stageTimeout time.Duration
}

// NewExecutor wires an executor from its collaborators.
func NewExecutor(st store.Store, ca cache.Cache, fetcher corpus.Fetcher, sectioner section.Sectioner,
	extractor entity.Extractor, registry *extract.Registry, dictDir string, stageTimeout time.Duration) *Executor {
	return &Executor{
		store:        st,
		cache:        ca,
		fetcher:      fetcher,
		sectioner:    sectioner,
		extractor:    extractor,
		registry:     registry,
		dictDir:      dictDir,
		stageTimeout: stageTimeout,
	}
}

// Run executes the whole pipeline for jobID. It always drives the job to a
// terminal state: completed, or failed with the stage that broke.
func (e *Executor) Run(ctx context.Context, jobID uuid.UUID) {
	job, err := e.store.GetJob(ctx, jobID)
	if err != nil {
		slog.Error("pipeline cannot load job", "job_id", jobID, "error", err)
		return
	}
	// A job cancelled while still queued is already failed; its task may
	// still be sitting in the worker queue and must not run.
	if job.Status.Terminal() {
		slog.Info("skipping job in terminal state", "job_id", jobID, "status", job.Status)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in pipeline", "job_id", jobID, "panic", r)
			e.fail(jobID, &StageError{Stage: StageInternal, Err: fmt.Errorf("panic: %v", r)})
		}
	}()

	started := time.Now().UTC()
	_ = e.store.UpdateJobStatus(ctx, jobID, models.JobStatusRunning,
		store.WithStartedAt(started),
		store.WithProgress(10),
		store.WithStep("acquiring documents"))
	e.setCachedStatus(jobID, models.JobStatusRunning)

	if err := e.runStage(ctx, StageAcquisition, func(sctx context.Context) error {
		return e.acquire(sctx, job)
	}); err != nil {
		e.fail(jobID, err)
		return
	}
	e.progress(ctx, jobID, 20, "splitting sections")

	var sections []models.Section
	if err := e.runStage(ctx, StageSectioning, func(sctx context.Context) error {
		var err error
		sections, err = e.sectioner.Split(sctx, job.CorpusDir)
		return err
	}); err != nil {
		e.fail(jobID, err)
		return
	}
	e.progress(ctx, jobID, 40, "extracting entities")

	opts := models.ExtractOptions{
		Dictionary:    job.Params.Dictionary,
		SectionFilter: job.Params.SectionFilter,
		EntityFilter:  job.Params.EntityFilter,
	}
	var matches []models.Match
	if err := e.runStage(ctx, StageExtraction, func(sctx context.Context) error {
		var err error
		matches, err = e.extractor.Extract(sctx, sections, opts)
		return err
	}); err != nil {
		e.fail(jobID, err)
		return
	}
	e.progress(ctx, jobID, 70, "recording matches")

	// An empty match set with no error means the primary engine ran fine and
	// found nothing; that, and only that, triggers the fallback matcher.
	if len(matches) == 0 {
		e.progress(ctx, jobID, 70, "matching dictionary terms")
		matches = e.runFallback(ctx, job, sections)
	}

	e.progress(ctx, jobID, 90, "writing results")
	var artifacts map[string]string
	if err := e.runStage(ctx, StageArtifact, func(_ context.Context) error {
		var err error
		artifacts, err = report.WriteAll(job.CorpusDir, matches, job.Params.OutputFormat)
		return err
	}); err != nil {
		e.fail(jobID, err)
		return
	}

	summary := Summarize(job.CorpusDir, len(matches), artifacts, started)
	_ = e.store.UpdateJobStatus(ctx, jobID, models.JobStatusCompleted,
		store.WithProgress(100),
		store.WithStep("analysis complete"),
		store.WithFinishedAt(time.Now().UTC()),
		store.WithResult(summary))
	e.setCachedStatus(jobID, models.JobStatusCompleted)

	slog.Info("job completed", "job_id", jobID,
		"items", summary.ItemsProcessed, "matches", summary.MatchesFound, "elapsed", summary.Elapsed)
}

// runStage wraps one stage call with the cancellation check and per-stage
// timeout, tagging any failure with the stage name.
func (e *Executor) runStage(ctx context.Context, stage string, f func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return &StageError{Stage: stage, Err: err}
	}

	sctx := ctx
	if e.stageTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, e.stageTimeout)
		defer cancel()
	}

	if err := f(sctx); err != nil {
		return &StageError{Stage: stage, Err: err}
	}
	return nil
}

func (e *Executor) acquire(ctx context.Context, job *models.Job) error {
	switch job.Kind {
	case models.JobKindDownload:
		if err := os.MkdirAll(job.CorpusDir, 0o755); err != nil {
			return fmt.Errorf("create corpus dir: %w", err)
		}
		n, err := e.fetcher.Fetch(ctx, job.Params.Query, job.Params.Hits, job.CorpusDir)
		if err != nil {
			return err
		}
		slog.Info("corpus downloaded", "job_id", job.ID, "documents", n)
		return nil

	case models.JobKindUpload:
		return e.materializeUploads(job)

	case models.JobKindExisting:
		if info, err := os.Stat(job.CorpusDir); err != nil || !info.IsDir() {
			return fmt.Errorf("corpus directory %s not usable: %w", job.CorpusDir, err)
		}
		return nil

	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}

// materializeUploads lays each uploaded file out as its own document
// directory with a normalized fulltext.txt (and the raw XML alongside, when
// the source was XML), the layout sectioning expects.
func (e *Executor) materializeUploads(job *models.Job) error {
	if err := os.MkdirAll(job.CorpusDir, 0o755); err != nil {
		return fmt.Errorf("create corpus dir: %w", err)
	}

	for _, file := range job.Params.Files {
		docDir := filepath.Join(job.CorpusDir, section.DocPrefix+"_"+SanitizeFilename(file.OriginalName))
		if err := os.MkdirAll(docDir, 0o755); err != nil {
			return fmt.Errorf("create document dir: %w", err)
		}

		text := e.registry.Text(file.StoredPath)
		if err := os.WriteFile(filepath.Join(docDir, "fulltext.txt"), []byte(text), 0o644); err != nil {
			return fmt.Errorf("write normalized text for %s: %w", file.OriginalName, err)
		}

		if strings.EqualFold(filepath.Ext(file.OriginalName), ".xml") {
			raw, err := os.ReadFile(file.StoredPath)
			if err != nil {
				return fmt.Errorf("read upload %s: %w", file.OriginalName, err)
			}
			if err := os.WriteFile(filepath.Join(docDir, "fulltext.xml"), raw, 0o644); err != nil {
				return fmt.Errorf("copy upload %s: %w", file.OriginalName, err)
			}
		}
	}
	return nil
}

// runFallback performs whole-document word-boundary term matching. Failures
// here are non-fatal: the job still completes, with whatever was matched.
func (e *Executor) runFallback(ctx context.Context, job *models.Job, sections []models.Section) []models.Match {
	path, err := dict.Resolve(job.Params.Dictionary, e.dictDir)
	if err != nil {
		slog.Warn("fallback skipped", "job_id", job.ID, "error", err)
		return nil
	}
	d, err := dict.Load(path)
	if err != nil {
		slog.Warn("fallback skipped", "job_id", job.ID, "error", err)
		return nil
	}

	labels := make(map[string]string, len(d.Entries))
	for _, entry := range d.Entries {
		labels[strings.ToLower(entry.Term)] = entry.Label
	}

	// Group the sectioned text back into whole documents; the fallback is
	// deliberately blind to section structure.
	docOrder := make([]string, 0)
	docText := make(map[string]string)
	for _, sec := range sections {
		if _, ok := docText[sec.DocID]; !ok {
			docOrder = append(docOrder, sec.DocID)
		}
		docText[sec.DocID] += sec.Text + "\n\n"
	}

	var matches []models.Match
	for _, docID := range docOrder {
		if ctx.Err() != nil {
			break
		}
		text := docText[docID]
		for _, hit := range match.FindTerms(text, d.Terms()) {
			matches = append(matches, models.Match{
				DocID:    docID,
				Section:  "ALL",
				Sentence: match.Snippet(text, hit.Offset, 80),
				Term:     hit.Term,
				Label:    labels[strings.ToLower(hit.Term)],
				Source:   models.MatchSourceFallback,
			})
		}
	}
	slog.Info("fallback matching done", "job_id", job.ID, "matches", len(matches))
	return matches
}

func (e *Executor) progress(ctx context.Context, jobID uuid.UUID, progress int, step string) {
	_ = e.store.UpdateJobProgress(ctx, jobID, progress, step)
}

func (e *Executor) fail(jobID uuid.UUID, err error) {
	stage := StageInternal
	message := err.Error()
	if se, ok := err.(*StageError); ok {
		stage = se.Stage
		message = se.Err.Error()
	}

	slog.Error("job failed", "job_id", jobID, "stage", stage, "error", message)
	_ = e.store.UpdateJobStatus(context.Background(), jobID, models.JobStatusFailed,
		store.WithFinishedAt(time.Now().UTC()),
		store.WithError(stage, message))
	e.setCachedStatus(jobID, models.JobStatusFailed)
}

func (e *Executor) setCachedStatus(jobID uuid.UUID, status models.JobStatus) {
	if e.cache == nil {
		return
	}
	_ = e.cache.SetJobStatus(context.Background(), jobID, status, statusTTL)
}

var unsafeFilenameRe = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SanitizeFilename reduces a client-supplied filename to a safe directory
// name component.
func SanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = unsafeFilenameRe.ReplaceAllString(name, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "file"
	}
	return name
}
