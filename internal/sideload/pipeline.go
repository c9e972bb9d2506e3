// Package sideload downloads remote media by URL and registers it as an
// attachment. A run moves through a fixed sequence of states and stops at
// the first failure; the temporary download is removed on every path.
package sideload

import (
	"context"
	"log/slog"
	"time"

	"github.com/thatcatcamp/sideload/internal/logging"
	"github.com/thatcatcamp/sideload/internal/models"
)

// State is a pipeline stage
type State string

const (
	StateStart           State = "START"
	StateURLValidated    State = "URL_VALIDATED"
	StateFetched         State = "FETCHED"
	StateIngested        State = "INGESTED"
	StateRegistered      State = "REGISTERED"
	StateMetadataDerived State = "METADATA_DERIVED"
	StateDone            State = "DONE"
	StateFailed          State = "FAILED"
)

// Request is one upload-by-reference call
type Request struct {
	FileURL    string
	UploadedBy uint
}

// Result describes a successful run
type Result struct {
	Attachment      *models.Attachment
	URL             string
	MetadataDerived bool
	// Trail lists the states visited, ending in DONE
	Trail []State
}

// Pipeline wires the sideload stages together
type Pipeline struct {
	Fetcher   *Fetcher
	Ingestor  *Ingestor
	Registrar *Registrar
	Metrics   *Metrics

	logger *slog.Logger // lifecycle messages
	debug  *slog.Logger // failure branches, discarded unless debug logging is on
}

// New creates a pipeline. debug routes failure diagnostics to logger.
func New(fetcher *Fetcher, ingestor *Ingestor, registrar *Registrar, metrics *Metrics, logger *slog.Logger, debug bool) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if registrar != nil && registrar.Logger == nil {
		registrar.Logger = logging.Component(logger, "sideload-metadata")
	}
	return &Pipeline{
		Fetcher:   fetcher,
		Ingestor:  ingestor,
		Registrar: registrar,
		Metrics:   metrics,
		logger:    logging.Component(logger, "sideload"),
		debug:     logging.DebugSink(logger, debug),
	}
}

// Run executes the pipeline for req. It is not idempotent: two runs with the
// same URL create two stored files and two attachments.
func (p *Pipeline) Run(ctx context.Context, req Request) (res *Result, err error) {
	start := time.Now()
	trail := []State{StateStart}
	var size int64

	defer func() {
		code := "success"
		if err != nil {
			code = KindOf(err).Code()
		}
		p.Metrics.observe(code, time.Since(start), size)
	}()

	candidate, err := ValidateURL(req.FileURL)
	if err != nil {
		logging.Component(p.debug, "url-validation").Debug("Rejected file URL", "url", req.FileURL, "error", err)
		return nil, err
	}
	trail = append(trail, StateURLValidated)

	artifact, err := p.Fetcher.Fetch(ctx, candidate)
	if err != nil {
		logging.Component(p.debug, "download-error").Debug("Error downloading file", "url", req.FileURL, "error", err)
		return nil, err
	}
	guard := NewCleanupGuard(artifact.LocalPath, logging.Component(p.logger, "cleanup"))
	defer guard.Release()
	trail = append(trail, StateFetched)

	stored, err := p.Ingestor.Ingest(ctx, artifact)
	if err != nil {
		logging.Component(p.debug, "upload-error").Debug("Upload error", "url", req.FileURL, "error", err)
		return nil, err
	}
	trail = append(trail, StateIngested)

	att, derived, err := p.Registrar.Register(ctx, stored, req.UploadedBy, req.FileURL)
	if err != nil {
		// The stored file stays behind; nothing references it.
		logging.Component(p.debug, "attachment-error").Debug("Error inserting attachment", "key", stored.Key, "error", err)
		return nil, err
	}
	trail = append(trail, StateRegistered)
	if derived {
		trail = append(trail, StateMetadataDerived)
	}
	trail = append(trail, StateDone)
	size = stored.Size

	p.logger.Info("File sideloaded",
		"attachment_id", att.ID,
		"url", stored.PublicURL,
		"mime_type", stored.ConfirmedMime,
		"bytes", stored.Size,
		"duration", time.Since(start))

	return &Result{
		Attachment:      att,
		URL:             stored.PublicURL,
		MetadataDerived: derived,
		Trail:           trail,
	}, nil
}
