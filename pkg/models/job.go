package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of an analysis job.
// Transitions are monotonic: queued -> running -> completed|failed.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether the status is a terminal state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// JobKind selects the acquisition strategy for a job.
type JobKind string

const (
	JobKindDownload JobKind = "download"
	JobKindUpload   JobKind = "upload"
	JobKindExisting JobKind = "existing"
)

// UploadedFile is one file handed to an upload job: the name the client gave
// it and the path the upload handler stored it under.
type UploadedFile struct {
	OriginalName string `json:"original_name"`
	StoredPath   string `json:"stored_path"`
}

// JobParams is the configuration supplied at submission. Immutable after
// Submit; the pipeline only reads it.
type JobParams struct {
	Query         string         `json:"query,omitempty"`
	Hits          int            `json:"hits,omitempty"`
	Dictionary    string         `json:"dictionary"`
	SectionFilter []string       `json:"section_filter,omitempty"`
	EntityFilter  []string       `json:"entity_filter,omitempty"`
	OutputFormat  string         `json:"output_format,omitempty"`
	Files         []UploadedFile `json:"files,omitempty"`
	CorpusDir     string         `json:"corpus_dir,omitempty"`
}

// JobError describes a failed job: which pipeline stage failed and why.
type JobError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
}

// Duration is a time.Duration that marshals as its string form ("2.5s")
// instead of raw nanoseconds. Unmarshal also accepts a bare nanosecond
// number, so result rows written before the string form still load.
type Duration time.Duration

func (d Duration) String() string { return time.Duration(d).String() }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", val, err)
		}
		*d = Duration(parsed)
	case float64:
		*d = Duration(time.Duration(val))
	default:
		return fmt.Errorf("invalid duration value %v", v)
	}
	return nil
}

// ResultSummary is the outcome of a completed job.
type ResultSummary struct {
	ItemsProcessed  int               `json:"items_processed"`
	MatchesFound    int               `json:"matches_found"`
	Elapsed         Duration          `json:"elapsed"`
	OutputArtifacts map[string]string `json:"output_artifacts"`
}

// Job tracks one run of the acquisition -> sectioning -> extraction pipeline.
// The API returns a job id on POST /api/v1/analyze; the client polls
// GET /api/v1/analyze/{job_id} until status is completed or failed. Mutable
// fields are owned by the executor running the job and must only be touched
// through the store so readers never observe a half-written record.
type Job struct {
	ID          uuid.UUID      `json:"id"`
	Kind        JobKind        `json:"kind"`
	Params      JobParams      `json:"params"`
	Status      JobStatus      `json:"status"`
	Progress    int            `json:"progress"`
	CurrentStep string         `json:"current_step"`
	CorpusDir   string         `json:"corpus_dir"`
	Result      *ResultSummary `json:"result,omitempty"`
	Error       *JobError      `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	FinishedAt  *time.Time     `json:"finished_at,omitempty"`
}

// Clone returns a deep copy of the job. Stores hand out clones so a poller
// can never race the executor mutating the original.
func (j *Job) Clone() *Job {
	cp := *j
	if j.Result != nil {
		r := *j.Result
		if j.Result.OutputArtifacts != nil {
			r.OutputArtifacts = make(map[string]string, len(j.Result.OutputArtifacts))
			for k, v := range j.Result.OutputArtifacts {
				r.OutputArtifacts[k] = v
			}
		}
		cp.Result = &r
	}
	if j.Error != nil {
		e := *j.Error
		cp.Error = &e
	}
	if j.StartedAt != nil {
		t := *j.StartedAt
		cp.StartedAt = &t
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		cp.FinishedAt = &t
	}
	cp.Params.SectionFilter = append([]string(nil), j.Params.SectionFilter...)
	cp.Params.EntityFilter = append([]string(nil), j.Params.EntityFilter...)
	cp.Params.Files = append([]UploadedFile(nil), j.Params.Files...)
	return &cp
}
