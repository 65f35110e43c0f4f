package uploader

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"sensechat/src/api"
	"sensechat/src/models"
)

// Backend is the slice of the API client the poller needs.
type Backend interface {
	UploadDocument(ctx context.Context, filePath string) (api.UploadReceipt, error)
	UploadGlobalDocument(ctx context.Context, filePath, description string, tags []string) (api.UploadReceipt, error)
	UploadStatus(ctx context.Context, documentID string) (models.UploadStatus, error)
}

// Defaults for the polling rhythm: a status fetch every 2s, give up after
// 60 fetches, keep a ready entry visible for 3s before it disappears.
const (
	DefaultInterval    = 2 * time.Second
	DefaultMaxAttempts = 60
	DefaultReadyGrace  = 3 * time.Second
)

const (
	uploadingMessage = "Téléchargement du fichier..."
	acceptedMessage  = "Fichier téléchargé, traitement en cours..."
	timeoutMessage   = "Le traitement du document a expiré. Veuillez réessayer."
	retryBusyMessage = "Ce document est déjà en cours de traitement"
	retryGoneMessage = "Téléchargement introuvable"
)

// Options tune one poller; zero values fall back to the defaults above.
type Options struct {
	Interval    time.Duration
	MaxAttempts int
	ReadyGrace  time.Duration
	Policy      models.UploadPolicy
}

// Poller submits uploads and follows each one with its own sequential
// polling loop. Loops for different uploads run independently; a failure in
// one never reaches another.
type Poller struct {
	backend Backend
	tracker *Tracker
	logger  *slog.Logger

	interval    time.Duration
	maxAttempts int
	readyGrace  time.Duration

	mu     sync.RWMutex
	policy models.UploadPolicy
}

func NewPoller(backend Backend, tracker *Tracker, opts Options, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Poller{
		backend:     backend,
		tracker:     tracker,
		logger:      logger.With("component", "poller"),
		interval:    opts.Interval,
		maxAttempts: opts.MaxAttempts,
		readyGrace:  opts.ReadyGrace,
		policy:      opts.Policy,
	}
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	if p.maxAttempts <= 0 {
		p.maxAttempts = DefaultMaxAttempts
	}
	if p.readyGrace <= 0 {
		p.readyGrace = DefaultReadyGrace
	}
	return p
}

// SetPolicy replaces the upload constraints, typically after the backend's
// supported-types endpoint has been consulted.
func (p *Poller) SetPolicy(policy models.UploadPolicy) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.policy = policy
}

// Policy returns the active upload constraints.
func (p *Poller) Policy() models.UploadPolicy {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.policy
}

// Upload starts an upload into the current user's corpus. It validates the
// file against the policy, registers a pending entry, and drives the rest
// in the background; the returned key identifies the entry in the tracker.
func (p *Poller) Upload(ctx context.Context, filePath string) (string, error) {
	return p.start(ctx, Entry{
		Key:       NewKey(filePath),
		Filename:  filepath.Base(filePath),
		FilePath:  filePath,
		Phase:     PhaseUploading,
		Message:   uploadingMessage,
		StartedAt: time.Now(),
	})
}

// UploadGlobal starts an upload into the shared corpus through the admin
// endpoint, with an optional description and tags.
func (p *Poller) UploadGlobal(ctx context.Context, filePath, description string, tags []string) (string, error) {
	return p.start(ctx, Entry{
		Key:         NewKey(filePath),
		Filename:    filepath.Base(filePath),
		FilePath:    filePath,
		Phase:       PhaseUploading,
		Message:     uploadingMessage,
		StartedAt:   time.Now(),
		Global:      true,
		Description: description,
		Tags:        tags,
	})
}

// Retry re-launches a failed upload with the same file and options. The old
// entry is replaced by a fresh one under a new key.
func (p *Poller) Retry(ctx context.Context, key string) (string, error) {
	entry, ok := p.tracker.Get(key)
	if !ok {
		return "", &models.NotFoundError{Message: retryGoneMessage}
	}
	if !entry.Phase.Failed() {
		return "", &models.ValidationError{Message: retryBusyMessage}
	}
	p.tracker.Dismiss(key)
	if entry.Global {
		return p.UploadGlobal(ctx, entry.FilePath, entry.Description, entry.Tags)
	}
	return p.Upload(ctx, entry.FilePath)
}

func (p *Poller) start(ctx context.Context, entry Entry) (string, error) {
	if err := p.checkPolicy(entry.FilePath); err != nil {
		return "", err
	}
	p.tracker.register(entry)
	go p.run(ctx, entry)
	return entry.Key, nil
}

func (p *Poller) checkPolicy(filePath string) error {
	policy := p.Policy()
	if !policy.Enforce {
		return nil
	}
	var size int64
	if info, err := os.Stat(filePath); err == nil {
		size = info.Size()
	}
	return policy.Allows(filePath, size)
}

func (p *Poller) run(ctx context.Context, entry Entry) {
	var receipt api.UploadReceipt
	var err error
	if entry.Global {
		receipt, err = p.backend.UploadGlobalDocument(ctx, entry.FilePath, entry.Description, entry.Tags)
	} else {
		receipt, err = p.backend.UploadDocument(ctx, entry.FilePath)
	}
	if err != nil {
		p.logger.Error("Upload failed", "file", entry.Filename, "error", err)
		p.fail(entry.Key, api.UserMessage(err))
		return
	}

	p.logger.Info("Upload accepted", "file", entry.Filename, "document_id", receipt.DocumentID)
	message := receipt.Message
	if message == "" {
		message = acceptedMessage
	}
	p.tracker.update(entry.Key, EventUpdated, func(e *Entry) {
		e.DocumentID = receipt.DocumentID
		e.Phase = Transition(e.Phase, models.StatusProcessing)
		e.Message = message
	})

	p.poll(ctx, entry.Key, receipt.DocumentID)
}

// poll fetches the processing status sequentially, with a fixed pause
// before each fetch, until a terminal state or the attempt bound. A fetch
// error ends the loop right away; the failed fetch is not retried.
func (p *Poller) poll(ctx context.Context, key, documentID string) {
	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.interval):
		}

		status, err := p.backend.UploadStatus(ctx, documentID)
		if err != nil {
			p.logger.Error("Status fetch failed", "document_id", documentID, "attempt", attempt, "error", err)
			p.fail(key, api.UserMessage(err))
			return
		}

		var phase Phase
		p.tracker.update(key, EventUpdated, func(e *Entry) {
			e.Phase = Transition(e.Phase, status.Status)
			if message := statusMessage(status); message != "" {
				e.Message = message
			}
			phase = e.Phase
		})

		switch {
		case phase == PhaseReady:
			p.logger.Info("Document ready", "document_id", documentID, "attempts", attempt)
			p.finish(ctx, key)
			return
		case phase.Failed():
			p.logger.Warn("Document processing failed", "document_id", documentID, "message", status.Error)
			return
		}
	}

	p.logger.Warn("Polling gave up", "document_id", documentID, "attempts", p.maxAttempts)
	p.tracker.update(key, EventUpdated, func(e *Entry) {
		e.Phase = PhaseTimedOut
		e.Message = timeoutMessage
	})
}

// finish keeps a ready entry visible for the grace period, then removes it
// and emits the one completion event the document views refresh on.
func (p *Poller) finish(ctx context.Context, key string) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(p.readyGrace):
	}
	p.tracker.update(key, EventCompleted, nil)
}

func (p *Poller) fail(key, message string) {
	p.tracker.update(key, EventUpdated, func(e *Entry) {
		e.Phase = PhaseError
		e.Message = message
	})
}

func statusMessage(status models.UploadStatus) string {
	if status.Status == models.StatusError && status.Error != "" {
		return status.Error
	}
	return status.Message
}
