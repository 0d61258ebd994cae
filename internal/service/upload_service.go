package service

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/writeright/essay-api/internal/dto"
	"github.com/writeright/essay-api/internal/models"
	"github.com/writeright/essay-api/internal/observability"
	"github.com/writeright/essay-api/internal/repository"
)

var (
	// ErrUploadTooLarge indicates the payload exceeded the configured limit.
	ErrUploadTooLarge = errors.New("file exceeds maximum allowed size")
	// ErrUploadTypeNotAllowed indicates the MIME type is not permitted.
	ErrUploadTypeNotAllowed = errors.New("file type not allowed")
	// ErrUploadScanFailed indicates validation of the file failed.
	ErrUploadScanFailed = errors.New("file scanning failed")
	// ErrTooManyFiles indicates the batch exceeded the configured file count.
	ErrTooManyFiles = errors.New("too many files in one request")
)

const uploadMaxAttempts = 3

// allowedUploadMIMEs lists the formats the pipeline can extract text from.
var allowedUploadMIMEs = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/heif":      true,
	"image/heic":      true,
	"application/pdf": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

// UploadService validates and stores batches of submission files. Files in a
// batch succeed or fail independently, so callers receive per-file outcomes
// rather than an all-or-nothing result.
type UploadService interface {
	UploadBatch(ctx context.Context, files []*multipart.FileHeader, userID *uint) (dto.UploadBatchResponse, error)
	ListByUser(ctx context.Context, userID uint) ([]dto.UploadRecordResponse, error)
}

type uploadService struct {
	storage  FileStorage
	repo     repository.UploadRepository
	logger   zerolog.Logger
	maxSize  int64
	maxFiles int
	sleep    func(time.Duration)
	tracer   trace.Tracer
}

// NewUploadService constructs an upload service.
func NewUploadService(storage FileStorage, repo repository.UploadRepository, maxSizeMB, maxFiles int, logger zerolog.Logger) UploadService {
	if maxSizeMB <= 0 {
		maxSizeMB = 20
	}
	if maxFiles <= 0 {
		maxFiles = 10
	}
	return &uploadService{
		storage:  storage,
		repo:     repo,
		logger:   logger.With().Str("component", "upload_service").Logger(),
		maxSize:  int64(maxSizeMB) * 1024 * 1024,
		maxFiles: maxFiles,
		sleep:    time.Sleep,
		tracer:   otel.Tracer("github.com/writeright/essay-api/internal/service/upload"),
	}
}

func (s *uploadService) UploadBatch(ctx context.Context, files []*multipart.FileHeader, userID *uint) (dto.UploadBatchResponse, error) {
	ctx, span := s.tracer.Start(ctx, "upload.batch")
	defer span.End()

	span.SetAttributes(
		attribute.Int("upload.batch_size", len(files)),
		attribute.Int64("upload.max_bytes", s.maxSize),
	)

	if len(files) == 0 {
		err := errors.New("at least one file is required")
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.UploadBatchResponse{}, err
	}
	if len(files) > s.maxFiles {
		span.RecordError(ErrTooManyFiles)
		span.SetStatus(codes.Error, "too many files")
		return dto.UploadBatchResponse{}, ErrTooManyFiles
	}

	response := dto.UploadBatchResponse{Files: make([]dto.UploadFileResult, 0, len(files))}
	for _, file := range files {
		result := s.uploadOne(ctx, file, userID)
		if result.Accepted {
			response.Accepted++
		} else {
			response.Rejected++
		}
		response.Files = append(response.Files, result)
	}

	span.SetAttributes(
		attribute.Int("upload.accepted", response.Accepted),
		attribute.Int("upload.rejected", response.Rejected),
	)
	span.SetStatus(codes.Ok, "batch processed")

	return response, nil
}

func (s *uploadService) ListByUser(ctx context.Context, userID uint) ([]dto.UploadRecordResponse, error) {
	records, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return dto.NewUploadRecordResponseSlice(records), nil
}

func (s *uploadService) uploadOne(ctx context.Context, file *multipart.FileHeader, userID *uint) dto.UploadFileResult {
	ctx, span := s.tracer.Start(ctx, "upload.store")
	defer span.End()

	start := time.Now()
	defer func() {
		observability.UploadLatency().Observe(time.Since(start).Seconds())
	}()

	result := dto.UploadFileResult{FileName: strings.TrimSpace(file.Filename)}
	span.SetAttributes(
		attribute.String("upload.original_name", result.FileName),
		attribute.Int64("upload.request_size", file.Size),
	)

	// Oversized files are rejected before any bytes travel to storage.
	if file.Size > s.maxSize {
		return s.reject(span, result, "size", ErrUploadTooLarge)
	}

	handle, err := file.Open()
	if err != nil {
		return s.reject(span, result, "read", err)
	}
	defer handle.Close()

	buf := bytes.NewBuffer(nil)
	if _, err := io.Copy(buf, io.LimitReader(handle, s.maxSize+1)); err != nil {
		return s.reject(span, result, "read", err)
	}
	if int64(buf.Len()) > s.maxSize {
		return s.reject(span, result, "size", ErrUploadTooLarge)
	}

	mime := mimetype.Detect(buf.Bytes()).String()
	span.SetAttributes(attribute.String("upload.detected_mime", mime))
	if !allowedUploadMIMEs[mime] {
		return s.reject(span, result, "type", fmt.Errorf("%w: %s", ErrUploadTypeNotAllowed, mime))
	}

	if err := s.scan(buf.Bytes(), mime); err != nil {
		return s.reject(span, result, "scan", err)
	}

	checksum := sha256.Sum256(buf.Bytes())
	sanitizedName := sanitizeFileName(file.Filename)
	span.SetAttributes(
		attribute.String("upload.sanitized_name", sanitizedName),
		attribute.Int64("upload.size_bytes", int64(buf.Len())),
	)

	url, err := s.store(ctx, sanitizedName, buf.Bytes())
	if err != nil {
		return s.reject(span, result, "storage", err)
	}

	record := models.UploadRecord{
		FileName:  sanitizedName,
		URL:       url,
		MimeType:  mime,
		SizeBytes: int64(buf.Len()),
		Checksum:  hex.EncodeToString(checksum[:]),
	}
	if userID != nil {
		record.UserID = userID
		span.SetAttributes(attribute.Int("upload.user_id", int(*userID)))
	}

	if err := s.repo.Create(ctx, &record); err != nil {
		return s.reject(span, result, "persistence", err)
	}

	observability.UploadRequests().WithLabelValues(mime).Inc()
	span.SetStatus(codes.Ok, "stored")

	result.Accepted = true
	result.URL = url
	result.MimeType = record.MimeType
	result.SizeBytes = record.SizeBytes
	result.Checksum = record.Checksum
	return result
}

// store pushes the payload to storage, retrying transient failures with a
// linear backoff. The last error is returned once attempts are exhausted.
func (s *uploadService) store(ctx context.Context, name string, payload []byte) (string, error) {
	var lastErr error
	for attempt := 0; attempt < uploadMaxAttempts; attempt++ {
		if attempt > 0 {
			observability.UploadRetries().Inc()
			s.sleep(time.Duration(attempt) * time.Second)
		}

		url, err := s.storage.Upload(ctx, name, bytes.NewReader(payload))
		if err == nil {
			return url, nil
		}
		lastErr = err
		s.logger.Warn().Err(err).Str("file", name).Int("attempt", attempt+1).Msg("storage upload failed")
	}

	return "", lastErr
}

func (s *uploadService) reject(span trace.Span, result dto.UploadFileResult, reason string, err error) dto.UploadFileResult {
	observability.UploadRejected().WithLabelValues(reason).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, reason)
	s.logger.Warn().Err(err).Str("file", result.FileName).Str("reason", reason).Msg("upload rejected")
	result.Error = err.Error()
	return result
}

// scan guards against zip bombs in docx payloads.
func (s *uploadService) scan(payload []byte, mime string) error {
	if !strings.Contains(mime, "wordprocessingml") {
		return nil
	}
	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return ErrUploadScanFailed
	}
	var totalUncompressed uint64
	for _, f := range reader.File {
		totalUncompressed += f.UncompressedSize64
		if totalUncompressed > uint64(s.maxSize*20) {
			return fmt.Errorf("archive uncompressed size too large: %w", ErrUploadScanFailed)
		}
	}
	return nil
}

func sanitizeFileName(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	base = strings.ToLower(base)
	base = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			return r
		}
		if r == '-' || r == '_' {
			return r
		}
		return '-'
	}, base)
	base = strings.Trim(base, "-")
	if base == "" {
		base = fmt.Sprintf("upload-%d", time.Now().Unix())
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		ext = ".bin"
	}
	return base + ext
}
