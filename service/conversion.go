package service

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"convert-gateway/logging"
	"convert-gateway/logic/convert"
	"convert-gateway/logic/stage"
	"convert-gateway/storage/postgres"
	"convert-gateway/vars"
)

// RecordStore persists conversion history. ConversionRepo implements it.
type RecordStore interface {
	Create(ctx context.Context, c *postgres.Conversion) error
	Finish(ctx context.Context, id, status, errKind, detail string, elapsed time.Duration) error
	GetByID(ctx context.Context, id string) (*postgres.Conversion, error)
	ListRecent(ctx context.Context, limit int) ([]postgres.Conversion, error)
}

// Result is returned for an accepted and converted upload.
type Result struct {
	ID           string
	OriginalName string
	StoredName   string
	OutputDir    string
	Size         int64
	Elapsed      time.Duration
}

type ConversionService struct {
	scratch   *stage.Scratch
	converter convert.Converter
	records   RecordStore
	timeout   time.Duration
	log       logging.Logger
	newID     func() string
	now       func() time.Time
}

// NewConversionService wires the pipeline. records may be nil to disable history.
func NewConversionService(scratch *stage.Scratch, converter convert.Converter, records RecordStore, timeout time.Duration, log logging.Logger) *ConversionService {
	if log == nil {
		log = logging.NoOp()
	}
	return &ConversionService{
		scratch:   scratch,
		converter: converter,
		records:   records,
		timeout:   timeout,
		log:       log,
		newID:     func() string { return uuid.New().String() },
		now:       time.Now,
	}
}

// AllowedFile returns the lowercased extension when filename ends in one of
// vars.AllowedExtensions.
func AllowedFile(filename string) (string, bool) {
	i := strings.LastIndex(filename, ".")
	if i < 0 {
		return "", false
	}
	ext := strings.ToLower(filename[i+1:])
	_, ok := vars.AllowedExtensions[ext]
	return ext, ok
}

// Validate checks a client filename before anything touches disk.
func Validate(filename string) (string, error) {
	if filename == "" {
		return "", ErrNoSelectedFile
	}
	ext, ok := AllowedFile(filename)
	if !ok {
		return "", ErrUnsupportedType
	}
	return ext, nil
}

// Convert validates filename, stages src under a fresh id and runs the
// converter on it. The returned error is always a *ConversionError.
func (s *ConversionService) Convert(ctx context.Context, filename string, src io.Reader) (*Result, error) {
	ext, err := Validate(filename)
	if err != nil {
		return nil, newError(KindValidation, err, nil)
	}

	id := s.newID()
	log := s.log.With("conversion_id", id, "filename", filename)
	start := s.now()

	staged, err := s.scratch.Stage(id, stage.StagedName(filename, ext), src)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, newError(KindValidation, ErrFileTooLarge, err)
		}
		log.Error("staging upload failed", "error", err)
		return nil, newError(KindStaging, ErrStaging, err)
	}

	outDir, err := s.scratch.OutputDir(id)
	if err != nil {
		log.Error("creating output dir failed", "error", err)
		return nil, newError(KindStaging, ErrStaging, err)
	}

	s.recordStart(ctx, log, &postgres.Conversion{
		ID:           id,
		OriginalName: filename,
		StoredName:   staged.Name,
		Extension:    ext,
		SizeBytes:    staged.Size,
		Status:       vars.StatusPending,
		Backend:      s.converter.Name(),
		OutputDir:    outDir,
	})

	log.Info("dispatching conversion", "path", staged.Path, "backend", s.converter.Name(), "size", staged.Size)

	convCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	err = s.converter.Convert(convCtx, staged.Path, vars.OutputFormatMarkdown, outDir)
	elapsed := s.now().Sub(start)

	if err != nil {
		sentinel := ErrConversion
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			sentinel = ErrConversionTimeout
		}
		log.Error("conversion failed", "error", err, "elapsed", elapsed.String())
		s.recordFinish(log, id, vars.StatusFailed, KindConversion, err.Error(), elapsed)
		return nil, newError(KindConversion, sentinel, err)
	}

	log.Info("conversion finished", "output_dir", outDir, "elapsed", elapsed.String())
	s.recordFinish(log, id, vars.StatusSucceeded, "", "", elapsed)

	return &Result{
		ID:           id,
		OriginalName: filename,
		StoredName:   staged.Name,
		OutputDir:    outDir,
		Size:         staged.Size,
		Elapsed:      elapsed,
	}, nil
}

// Get returns a history record.
func (s *ConversionService) Get(ctx context.Context, id string) (*postgres.Conversion, error) {
	if s.records == nil {
		return nil, ErrHistoryDisabled
	}
	return s.records.GetByID(ctx, id)
}

// List returns the most recent history records.
func (s *ConversionService) List(ctx context.Context, limit int) ([]postgres.Conversion, error) {
	if s.records == nil {
		return nil, ErrHistoryDisabled
	}
	return s.records.ListRecent(ctx, limit)
}

// History failures are logged and never fail the request.
func (s *ConversionService) recordStart(ctx context.Context, log logging.Logger, c *postgres.Conversion) {
	if s.records == nil {
		return
	}
	if err := s.records.Create(ctx, c); err != nil {
		log.Warn("recording conversion failed", "error", err)
	}
}

func (s *ConversionService) recordFinish(log logging.Logger, id, status string, kind ErrorKind, detail string, elapsed time.Duration) {
	if s.records == nil {
		return
	}
	// The request context may already be cancelled here.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.records.Finish(ctx, id, status, string(kind), detail, elapsed); err != nil {
		log.Warn("updating conversion record failed", "error", err)
	}
}
