package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/intake/internal/logging"
)

// DefaultMaxFileSize caps an upload held in memory for parsing.
const DefaultMaxFileSize int64 = 10 << 20

// DefaultImportTimeout bounds a single import end to end.
const DefaultImportTimeout = 2 * time.Minute

// Import outcomes reported to the observer.
const (
	OutcomeSuccess  = "success"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// FirmDirectory supplies the users a firm has pre-registered.
// It is only used to tag company applicants.
type FirmDirectory interface {
	AuthorizedUsers(ctx context.Context, firmID string) ([]FirmUser, error)
}

// ImportObserver is notified once per import attempt.
type ImportObserver interface {
	ObserveImport(schema SchemaKind, outcome string, stats ImportStats, d time.Duration)
}

// ServiceConfig tunes the import service. Zero values use the defaults.
type ServiceConfig struct {
	MaxFileSize   int64
	MaxConcurrent int
	MaxWait       time.Duration
	ChunkSize     int
	Timeout       time.Duration
}

// Service runs uploads through detection and normalization.
type Service struct {
	cfg       ServiceConfig
	limiter   *ImportLimiter
	directory FirmDirectory
	observer  ImportObserver
}

// NewService creates a Service. directory and observer may be nil.
func NewService(cfg ServiceConfig, directory FirmDirectory, observer ImportObserver) *Service {
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = DefaultMaxFileSize
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultImportTimeout
	}
	return &Service{
		cfg:       cfg,
		limiter:   NewImportLimiter(cfg.MaxConcurrent, cfg.MaxWait),
		directory: directory,
		observer:  observer,
	}
}

// ImportRequest is one uploaded file.
type ImportRequest struct {
	FirmID   string
	FileName string
	Data     []byte
}

// Import parses an upload into entities.
//
// File-level problems return an error and no result. Row-level problems are
// reported inside the result and never fail the import.
func (s *Service) Import(ctx context.Context, req ImportRequest, progress ProgressCallback) (*ImportResult, error) {
	start := time.Now()
	importID := uuid.New().String()
	log := logging.WithFields(ctx, "import_id", importID, "file", req.FileName, "firm_id", req.FirmID)

	if len(req.Data) == 0 {
		s.observe("", OutcomeRejected, ImportStats{}, start)
		return nil, ErrEmptyFile
	}
	if int64(len(req.Data)) > s.cfg.MaxFileSize {
		s.observe("", OutcomeRejected, ImportStats{}, start)
		return nil, fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrFileTooLarge, len(req.Data), s.cfg.MaxFileSize)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		s.observe("", OutcomeRejected, ImportStats{}, start)
		return nil, fmt.Errorf("import %s: %w", req.FileName, err)
	}
	defer s.limiter.Release()

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	opts := ParseOptions{
		FileName:  req.FileName,
		ChunkSize: s.cfg.ChunkSize,
		Progress:  progress,
		FirmUsers: s.firmUsers(ctx, req.FirmID),
		Logger:    log,
	}
	report := func(p ImportProgress) {
		if progress != nil {
			p.FileName = req.FileName
			progress(p)
		}
	}
	fail := func(kind SchemaKind, err error) (*ImportResult, error) {
		log.Warn("import failed", "error", err)
		report(ImportProgress{Phase: PhaseFailed, Error: MapError(err).Message})
		s.observe(kind, OutcomeFailed, ImportStats{}, start)
		return nil, fmt.Errorf("import %s: %w", req.FileName, err)
	}

	report(ImportProgress{Phase: PhaseStarting, BytesTotal: int64(len(req.Data))})

	schema, err := Detect(ctx, req.FileName, req.Data, opts)
	if err != nil {
		return fail("", err)
	}

	batch, err := schema.Produce(ctx, opts)
	if err != nil {
		return fail(schema.Kind(), err)
	}

	result := &ImportResult{
		ImportID: importID,
		FileName: req.FileName,
		Batch:    *batch,
		Duration: time.Since(start),
	}

	log.Info("import complete",
		"schema", batch.Schema,
		"variant", batch.Variant,
		"rows", batch.Stats.Rows,
		"imported", batch.Stats.Imported,
		"incomplete", batch.Stats.Incomplete,
		"malformed", batch.Stats.Malformed,
		"orphans", batch.Stats.Orphans,
		"duration", result.Duration,
	)
	report(ImportProgress{Phase: PhaseComplete, TotalRows: batch.Stats.Rows, CurrentRow: batch.Stats.Rows})
	s.observe(batch.Schema, OutcomeSuccess, batch.Stats, start)

	return result, nil
}

// firmUsers looks up the firm's registered users. A lookup failure only
// costs applicant tagging, so it is logged and the import continues.
func (s *Service) firmUsers(ctx context.Context, firmID string) []FirmUser {
	if s.directory == nil || firmID == "" {
		return nil
	}
	users, err := s.directory.AuthorizedUsers(ctx, firmID)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logging.FromContext(ctx).Warn("firm user lookup failed", "firm_id", firmID, "error", err)
		}
		return nil
	}
	return users
}

func (s *Service) observe(kind SchemaKind, outcome string, stats ImportStats, start time.Time) {
	if s.observer != nil {
		s.observer.ObserveImport(kind, outcome, stats, time.Since(start))
	}
}

// LimiterStatus reports the import limiter state.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until in-flight imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// MaxFileSize is the largest upload Import accepts.
func (s *Service) MaxFileSize() int64 {
	return s.cfg.MaxFileSize
}
