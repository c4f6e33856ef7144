package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ersonp/lore-sync/internal/domain/entities"
	"github.com/ersonp/lore-sync/internal/domain/ports"
)

const (
	// DefaultChunkSize is the number of entities processed per chunk.
	DefaultChunkSize = 10
	// DefaultFanOut is the number of entities of a chunk processed concurrently.
	DefaultFanOut = 5
	// DefaultActor is recorded on change log entries written by a sync run.
	DefaultActor = "content-sync"
)

// outcomeFailed is the metrics label for entities that could not be classified.
const outcomeFailed = "failed"

// RunOptions controls a batch run.
type RunOptions struct {
	ChunkSize int
	FanOut    int
	Actor     string

	// Progress is called after every finished entity with a strictly
	// increasing current count. Calls never overlap.
	Progress func(current, total int)
}

func (o RunOptions) withDefaults() RunOptions {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.FanOut <= 0 {
		o.FanOut = DefaultFanOut
	}
	if o.Actor == "" {
		o.Actor = DefaultActor
	}
	return o
}

// Orchestrator drives entities through oracle, validator, change log and status store.
type Orchestrator struct {
	validator  *Validator
	oracle     ports.Oracle
	crossCheck ports.Oracle
	changes    *ChangeLogService
	status     *StatusService
	content    ports.ContentStore
	reference  *ReferenceService
	media      ports.MediaQueue
	metrics    ports.SyncMetrics
	logger     *zap.Logger
}

// OrchestratorOption configures optional collaborators.
type OrchestratorOption func(*Orchestrator)

// WithCrossCheck sends every entity to a second oracle and merges both outcomes.
func WithCrossCheck(oracle ports.Oracle) OrchestratorOption {
	return func(o *Orchestrator) { o.crossCheck = oracle }
}

// WithReference enables reference lookups before oracle calls and indexing
// of verified entities.
func WithReference(reference *ReferenceService) OrchestratorOption {
	return func(o *Orchestrator) { o.reference = reference }
}

// WithMediaQueue enables media jobs for entities without a photo.
func WithMediaQueue(queue ports.MediaQueue) OrchestratorOption {
	return func(o *Orchestrator) { o.media = queue }
}

// WithMetrics records pipeline metrics.
func WithMetrics(metrics ports.SyncMetrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = metrics }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) OrchestratorOption {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewOrchestrator creates a new batch orchestrator.
func NewOrchestrator(
	validator *Validator,
	oracle ports.Oracle,
	changes *ChangeLogService,
	status *StatusService,
	content ports.ContentStore,
	opts ...OrchestratorOption,
) *Orchestrator {
	o := &Orchestrator{
		validator: validator,
		oracle:    oracle,
		changes:   changes,
		status:    status,
		content:   content,
		metrics:   nopMetrics{},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run holds the mutable state of one batch run.
type run struct {
	id   string
	opts RunOptions

	mu      sync.Mutex
	summary entities.SyncSummary
}

// Run processes refs in sequential chunks of opts.ChunkSize, with up to
// opts.FanOut entities of a chunk in flight at once.
//
// A summary is always returned. The error is non-nil only when a storage
// write failed (the run stops, state PartiallyFailed, error wraps
// entities.ErrStorageUnreachable) or ctx was cancelled (state Cancelled).
// Oracle failures and unexpected per-entity errors never stop the run.
func (o *Orchestrator) Run(ctx context.Context, refs []entities.EntityRef, opts RunOptions) (*entities.SyncSummary, error) {
	opts = opts.withDefaults()
	r := &run{
		id:   uuid.New().String(),
		opts: opts,
		summary: entities.SyncSummary{
			Total:     len(refs),
			State:     entities.RunRunning,
			StartedAt: timeNow().UTC(),
		},
	}
	r.summary.RunID = r.id

	o.logger.Info("sync run started",
		zap.String("run_id", r.id),
		zap.Int("total", len(refs)),
		zap.Int("chunk_size", opts.ChunkSize),
		zap.Int("fan_out", opts.FanOut))

	var runErr error
	for start := 0; start < len(refs); start += opts.ChunkSize {
		if ctx.Err() != nil {
			break
		}
		end := min(start+opts.ChunkSize, len(refs))
		if err := o.runChunk(ctx, r, refs[start:end]); err != nil {
			runErr = err
			break
		}
	}

	return o.finish(ctx, r, runErr)
}

func (o *Orchestrator) runChunk(ctx context.Context, r *run, chunk []entities.EntityRef) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.FanOut)

	for _, ref := range chunk {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			return o.processEntity(gctx, r, ref)
		})
	}
	return g.Wait()
}

func (o *Orchestrator) finish(ctx context.Context, r *run, runErr error) (*entities.SyncSummary, error) {
	r.mu.Lock()
	summary := r.summary
	r.mu.Unlock()

	summary.FinishedAt = timeNow().UTC()
	switch {
	case ctx.Err() != nil:
		// Store errors caused by the cancellation itself are not failures.
		summary.State = entities.RunCancelled
		runErr = fmt.Errorf("sync run cancelled: %w", ctx.Err())
	case runErr != nil:
		summary.State = entities.RunPartiallyFailed
	default:
		summary.State = entities.RunCompleted
	}
	o.metrics.ObserveRun(summary.State)

	fields := []zap.Field{
		zap.String("run_id", summary.RunID),
		zap.String("state", string(summary.State)),
		zap.Int("processed", summary.Processed),
		zap.Int("verified", summary.Verified),
		zap.Int("needs_review", summary.NeedsReview),
		zap.Int("conflicting", summary.Conflicting),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", summary.FinishedAt.Sub(summary.StartedAt)),
	}
	if summary.State == entities.RunPartiallyFailed {
		o.logger.Error("sync run stopped", append(fields, zap.Error(runErr))...)
	} else {
		o.logger.Info("sync run finished", fields...)
	}

	return &summary, runErr
}

// processEntity runs one entity through the pipeline. The returned error is
// always a storage failure; everything else is folded into the summary.
func (o *Orchestrator) processEntity(ctx context.Context, r *run, ref entities.EntityRef) error {
	log := o.logger.With(zap.String("run_id", r.id), zap.String("entity", ref.Key()))

	data := ref.Data
	if data == nil {
		stored, err := o.content.GetContent(ctx, ref.Type, ref.ID)
		if err != nil {
			return storageError("reading content of "+ref.Key(), err)
		}
		if stored == nil {
			log.Warn("entity has no content")
			return o.fail(ctx, r, ref)
		}
		data = stored
	}
	ref.Data = data

	req := entities.NewVerificationRequest(ref)
	if o.reference != nil {
		related, err := o.reference.Related(ctx, ref)
		if err != nil {
			log.Warn("reference lookup failed", zap.Error(err))
		}
		req.Related = related
	}

	result, err := fetch(ctx, o.oracle, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		log.Warn("oracle call failed", zap.Error(err))
		return o.fail(ctx, r, ref)
	}
	if !result.OK() {
		log.Warn("oracle gave up",
			zap.String("kind", string(result.ErrKind)),
			zap.Int("attempts", result.Attempts),
			zap.Error(result.Err))
	}
	outcome := o.validator.Classify(data, result)

	if o.crossCheck != nil {
		second, err := fetch(ctx, o.crossCheck, req)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil
		case err != nil:
			log.Warn("cross-check oracle call failed", zap.Error(err))
		default:
			outcome = o.validator.Merge(outcome, o.validator.Classify(data, second))
		}
	}

	if len(outcome.Corrections) > 0 {
		if err := o.recordCorrections(ctx, r, ref, outcome); err != nil {
			return err
		}
	}

	if err := o.status.Upsert(ctx, ref.Type, ref.ID, entities.SyncStatusFor(outcome.Status), timeNow()); err != nil {
		return err
	}

	if o.reference != nil && outcome.Status == entities.StatusVerified {
		if err := o.reference.Remember(ctx, entities.EntityRef{Type: ref.Type, ID: ref.ID, Data: outcome.Apply(data)}); err != nil {
			log.Warn("reference indexing failed", zap.Error(err))
		}
	}

	dropped := false
	if o.media != nil && outcome.OracleErr == entities.OracleErrNone && !outcome.HasPhoto {
		dropped = !o.requestMedia(ctx, ref, log)
	}

	o.metrics.ObserveEntity(string(outcome.Status))
	r.tally(func(s *entities.SyncSummary) {
		switch outcome.Status {
		case entities.StatusVerified:
			s.Verified++
		case entities.StatusConflicting:
			s.Conflicting++
			s.NeedsReview++
		default:
			s.NeedsReview++
		}
		if outcome.HasPhoto {
			s.WithPhotos++
		}
		if len(outcome.Corrections) > 0 {
			s.Corrected++
		}
		if dropped {
			s.NotificationsDropped++
		}
	})
	return nil
}

// fail counts an entity that could not be classified and marks it pending.
func (o *Orchestrator) fail(ctx context.Context, r *run, ref entities.EntityRef) error {
	if err := o.status.Upsert(ctx, ref.Type, ref.ID, entities.SyncPending, timeNow()); err != nil {
		return err
	}
	o.metrics.ObserveEntity(outcomeFailed)
	r.tally(func(s *entities.SyncSummary) { s.Failed++ })
	return nil
}

func (o *Orchestrator) recordCorrections(ctx context.Context, r *run, ref entities.EntityRef, outcome entities.ValidationOutcome) error {
	fields := make([]string, 0, len(outcome.Corrections))
	for _, c := range outcome.Corrections {
		fields = append(fields, c.Field)
	}
	sort.Strings(fields)

	_, err := o.changes.Record(ctx, ChangeParams{
		Actor:      r.opts.Actor,
		Action:     entities.ActionUpdate,
		EntityType: ref.Type,
		EntityID:   ref.ID,
		Before:     ref.Data,
		After:      outcome.Apply(ref.Data),
		Metadata: map[string]any{
			entities.MetaRunID:       r.id,
			entities.MetaStatus:      string(outcome.Status),
			entities.MetaConfidence:  outcome.Confidence,
			entities.MetaCorrections: fields,
		},
	})
	if err != nil {
		return storageError("recording corrections of "+ref.Key(), err)
	}
	return nil
}

// requestMedia enqueues a media job and reports whether it was accepted.
func (o *Orchestrator) requestMedia(ctx context.Context, ref entities.EntityRef, log *zap.Logger) bool {
	job := entities.MediaJob{
		EntityType:  ref.Type,
		EntityID:    ref.ID,
		Reason:      "no photo",
		RequestedAt: timeNow().UTC(),
	}
	if err := o.media.Enqueue(ctx, job); err != nil {
		log.Warn("media job dropped", zap.Error(err))
		o.metrics.ObserveMediaJobDropped()
		return false
	}
	return true
}

// tally updates the summary and reports progress while holding the run lock,
// so progress callbacks observe a strictly increasing count.
func (r *run) tally(update func(s *entities.SyncSummary)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	update(&r.summary)
	r.summary.Processed++
	if r.opts.Progress != nil {
		r.opts.Progress(r.summary.Processed, r.summary.Total)
	}
}

// fetch calls an oracle, turning a panic into an error.
func fetch(ctx context.Context, oracle ports.Oracle, req entities.VerificationRequest) (result entities.OracleResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("oracle panicked: %v", p)
		}
	}()
	return oracle.FetchFinding(ctx, req)
}

func storageError(what string, err error) error {
	if errors.Is(err, entities.ErrStorageUnreachable) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", entities.ErrStorageUnreachable, what, err)
}

type nopMetrics struct{}

func (nopMetrics) ObserveEntity(string) {}

func (nopMetrics) ObserveOracleCall(string, string, int, time.Duration) {}

func (nopMetrics) ObserveRun(entities.RunState) {}

func (nopMetrics) ObserveMediaJobDropped() {}
