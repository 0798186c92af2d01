package pipeline

import (
	"context"
	"fmt"
	"time"

	"mandi/internal/gateway/datagov"
	"mandi/internal/gateway/notifier"
	"mandi/internal/logger"
	"mandi/internal/types"

	"github.com/google/uuid"
)

// Fetcher pulls every available raw record from the upstream API.
type Fetcher interface {
	FetchAll(ctx context.Context) ([]datagov.RawRecord, error)
}

// DatasetStore loads and atomically replaces the persisted master dataset.
type DatasetStore interface {
	Read() (*types.Dataset, error)
	Write(ds *types.Dataset) error
}

// RunRecorder persists one report per fetch run for later inspection.
type RunRecorder interface {
	Record(ctx context.Context, rep Report) error
}

// Report summarizes a single fetch run.
type Report struct {
	RunID      string    `json:"run_id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Fetched    int       `json:"fetched"`
	Rejected   int       `json:"rejected"`
	Merged     int       `json:"merged"`
	Status     string    `json:"status"` // "ok" | "failed"
	Err        string    `json:"error,omitempty"`
}

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Runner executes the sequential fetch → validate → merge → persist run.
type Runner struct {
	fetcher  Fetcher
	store    DatasetStore
	runs     RunRecorder
	notifier notifier.TextNotifier
}

// NewRunner wires a runner. runs and notify may be nil.
func NewRunner(fetcher Fetcher, store DatasetStore, runs RunRecorder, notify notifier.TextNotifier) (*Runner, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("fetcher cannot be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("dataset store cannot be nil")
	}
	return &Runner{fetcher: fetcher, store: store, runs: runs, notifier: notify}, nil
}

// Run performs one complete fetch run. On any fetch or persistence failure
// nothing is written: the previous master file stays authoritative and the
// failure is recorded and pushed to the operator channel.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	rep := Report{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	logger.Infof("fetch run %s started", rep.RunID)

	err := r.run(ctx, &rep)
	rep.FinishedAt = time.Now()
	if err != nil {
		rep.Status = StatusFailed
		rep.Err = err.Error()
		logger.Errorf("fetch run %s failed after %s: %v", rep.RunID, rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond), err)
		r.notifyFailure(rep)
	} else {
		rep.Status = StatusOK
		logger.Infof("fetch run %s completed in %s: fetched=%d rejected=%d merged=%d",
			rep.RunID, rep.FinishedAt.Sub(rep.StartedAt).Round(time.Millisecond), rep.Fetched, rep.Rejected, rep.Merged)
	}
	r.record(ctx, rep)
	return rep, err
}

func (r *Runner) run(ctx context.Context, rep *Report) error {
	raw, err := r.fetcher.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("fetch failed: %w", err)
	}
	rep.Fetched = len(raw)
	if len(raw) == 0 {
		return fmt.Errorf("api returned no records")
	}

	clean, stats := Validate(raw)
	rep.Rejected = stats.Total()
	if len(clean) == 0 {
		return fmt.Errorf("all %d fetched records were rejected", len(raw))
	}

	existing, err := r.store.Read()
	if err != nil {
		return fmt.Errorf("loading existing dataset failed: %w", err)
	}
	merged := Merge(existing, clean)
	rep.Merged = merged.Len()

	if err := r.store.Write(merged); err != nil {
		return fmt.Errorf("writing master dataset failed: %w", err)
	}
	return nil
}

func (r *Runner) record(ctx context.Context, rep Report) {
	if r.runs == nil {
		return
	}
	if err := r.runs.Record(ctx, rep); err != nil {
		logger.Warnf("recording run %s failed: %v", rep.RunID, err)
	}
}

func (r *Runner) notifyFailure(rep Report) {
	if r.notifier == nil {
		return
	}
	msg := fmt.Sprintf("mandi fetch run %s failed: %s", rep.RunID, rep.Err)
	if err := r.notifier.SendText(msg); err != nil {
		logger.Warnf("failure notification not delivered: %v", err)
	}
}
