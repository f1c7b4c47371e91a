// Package pipeline sequences the export: gather, stats, package, upload.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"msgwrapped/internal/config"
	"msgwrapped/internal/domain"
	"msgwrapped/internal/packager"
	"msgwrapped/internal/stats"
	"msgwrapped/internal/store"
	"msgwrapped/internal/uploader"

	"github.com/google/uuid"
)

// Runner executes the export pipeline. One Run is one atomic invocation:
// it fully succeeds or fully fails, and a failed run is re-invoked from
// scratch (fresh connections, fresh key material).
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	uploader *uploader.Client
}

func New(cfg *config.Config, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:      cfg,
		logger:   logger,
		uploader: uploader.New(logger, 0),
	}
}

// Run executes the full pipeline and returns the host envelope as a JSON
// string. apiBaseURL overrides the configured endpoint when non-empty.
// The five phases run strictly sequentially; the only suspension point is
// the upload.
func (r *Runner) Run(ctx context.Context, apiBaseURL string) string {
	log := r.logger.With("run", uuid.NewString())
	wallStart := time.Now()
	report := &Report{}

	// Path resolution must surface before any phase starts.
	cfg, err := r.cfg.Resolve()
	if err != nil {
		return r.fail(log, ErrAnalysisFailed, "Failed to analyze messages", err)
	}

	rt := store.Acquire(log)
	defer rt.Release()

	messages, contacts, handles, gt, err := store.Gather(ctx, rt, cfg.ChatDBPath, cfg.AddressBookPath, log)
	if err != nil {
		return r.fail(log, ErrAnalysisFailed, "Failed to analyze messages", err)
	}
	report.Add("open message store", gt.OpenStore)
	report.Add("query messages", gt.QueryMessages)
	report.Add("load contacts", gt.LoadContacts)
	report.Add("load handles", gt.LoadHandles)
	log.Info("gather complete",
		"messages", len(messages), "contacts", contacts.Len(), "handles", len(handles),
		"elapsed", gt.Total)

	statsStart := time.Now()
	aggregate, statTimings := stats.Produce(messages, contacts, handles)
	for _, t := range statTimings {
		report.Add("stats: "+t.Name, t.Duration)
	}
	log.Info("stats complete", "years", len(aggregate.Years), "elapsed", time.Since(statsStart))

	// Drop the large structures before the network phase begins; the
	// gathered data has been consumed and peak memory matters more than
	// the references now.
	messages = nil
	contacts = domain.Contacts{}
	handles = nil

	payload, err := aggregate.Marshal()
	if err != nil {
		return r.fail(log, ErrUploadFailed, "Failed to generate your export", err)
	}

	sealStart := time.Now()
	key, ciphertext, err := packager.Seal(payload)
	if err != nil {
		return r.fail(log, ErrUploadFailed, "Failed to generate your export", err)
	}
	report.Add("encrypt", time.Since(sealStart))
	log.Info("artifact sealed", "plain", len(payload), "ciphertext", len(ciphertext))

	baseURL := cfg.APIBaseURL
	if apiBaseURL != "" {
		baseURL = apiBaseURL
	}

	uploadStart := time.Now()
	id, err := r.uploader.Upload(ctx, baseURL, ciphertext)
	if err != nil {
		return r.fail(log, ErrUploadFailed, "Failed to generate your export", err)
	}
	report.Add("upload", time.Since(uploadStart))

	shareURL := uploader.ShareLink(baseURL, id, key.Base64())
	report.SetWall(time.Since(wallStart))
	log.Info("export complete", "id", id, "elapsed", time.Since(wallStart))

	return successEnvelope(shareURL, key.Base64(), report.Render()).JSON()
}

// fail converts an internal error into the envelope. The short message
// crosses the boundary; the full chain goes to the diagnostic log only.
func (r *Runner) fail(log *slog.Logger, errorType, message string, err error) string {
	log.Error("export failed", "errorType", errorType, "err", err)
	return failureEnvelope(errorType, fmt.Sprintf("%s: %v", message, err), err).JSON()
}

// DatabaseSizeMB is the auxiliary size query. Bypasses the pipeline and
// never errors: 0.0 when the store is absent or unreadable.
func (r *Runner) DatabaseSizeMB() float64 {
	cfg, err := r.cfg.Resolve()
	if err != nil {
		return 0.0
	}
	return store.DatabaseSizeMB(cfg.ChatDBPath)
}

// HasContacts is the auxiliary presence query. Bypasses the pipeline and
// never errors: false when the path is missing, unreadable, or empty.
func (r *Runner) HasContacts(ctx context.Context) bool {
	cfg, err := r.cfg.Resolve()
	if err != nil {
		return false
	}
	return store.HasContacts(ctx, cfg.AddressBookPath)
}
