package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fdg312/lifeos/internal/blob"
	"github.com/fdg312/lifeos/internal/logger"
	"github.com/fdg312/lifeos/internal/storage"
	"github.com/google/uuid"
)

const logModule = "reports"

var (
	ErrInvalidFormat  = errors.New("invalid format")
	ErrReportNotFound = errors.New("report not found")
	ErrMissingObject  = errors.New("object key is missing")
)

// Options: как отдавать файлы в S3 режиме
type Options struct {
	PresignTTLSeconds int
	PublicBaseURL     string
	PreferPublicURL   bool
	Location          *time.Location
}

type Service struct {
	reportsStorage storage.ReportsStorage
	generator      *Generator
	blobStore      blob.Store // nil => local режим
	log            logger.Logger
	opts           Options
	now            func() time.Time
}

func NewService(reportsStorage storage.ReportsStorage, generator *Generator, blobStore blob.Store, log logger.Logger, opts Options) *Service {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.PresignTTLSeconds <= 0 {
		opts.PresignTTLSeconds = 900
	}
	return &Service{
		reportsStorage: reportsStorage,
		generator:      generator,
		blobStore:      blobStore,
		log:            log,
		opts:           opts,
		now:            time.Now,
	}
}

func (s *Service) LocalMode() bool {
	return s.blobStore == nil
}

// CreateReport снимает текущую главную страницу и сохраняет файл
func (s *Service) CreateReport(ctx context.Context, userID, format string) (*Report, error) {
	if format != FormatPDF && format != FormatCSV {
		return nil, ErrInvalidFormat
	}

	day := s.now().In(s.opts.Location).Format("2006-01-02")

	snap, err := s.generator.Collect(ctx, userID, day)
	if err != nil {
		return nil, err
	}

	data, err := s.generator.Render(snap, format)
	if err != nil {
		return nil, fmt.Errorf("failed to generate report: %w", err)
	}

	meta := &storage.ReportMeta{
		ID:          uuid.New(),
		OwnerUserID: userID,
		Format:      format,
		SnapshotDay: day,
		SizeBytes:   int64(len(data)),
		Status:      StatusReady,
	}

	if s.LocalMode() {
		meta.Data = data
	} else {
		key := fmt.Sprintf("reports/%s/%s_%s.%s", userID, day, meta.ID.String(), format)
		if _, err := s.blobStore.PutObject(ctx, key, data, contentTypeFor(format)); err != nil {
			return nil, fmt.Errorf("failed to upload report: %w", err)
		}
		meta.ObjectKey = &key
	}

	if err := s.reportsStorage.CreateReport(ctx, meta); err != nil {
		return nil, fmt.Errorf("failed to save report metadata: %w", err)
	}

	s.log.Info(logModule, "report created", map[string]any{
		"user_id":    userID,
		"report_id":  meta.ID.String(),
		"format":     format,
		"size_bytes": meta.SizeBytes,
		"local":      s.LocalMode(),
	})

	return toReport(meta), nil
}

// GetReport: чужие отчёты выглядят как несуществующие
func (s *Service) GetReport(ctx context.Context, userID string, id uuid.UUID) (*Report, error) {
	meta, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	return toReport(meta), nil
}

func (s *Service) ListReports(ctx context.Context, userID string, limit, offset int) ([]Report, error) {
	metas, err := s.reportsStorage.ListReports(ctx, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}

	reports := make([]Report, len(metas))
	for i := range metas {
		reports[i] = *toReport(&metas[i])
	}
	return reports, nil
}

func (s *Service) DeleteReport(ctx context.Context, userID string, id uuid.UUID) error {
	meta, err := s.owned(ctx, userID, id)
	if err != nil {
		return err
	}

	if !s.LocalMode() && meta.ObjectKey != nil {
		if err := s.blobStore.DeleteObject(ctx, *meta.ObjectKey); err != nil {
			// метаданные всё равно удаляем
			s.log.Warn(logModule, "failed to delete report object", map[string]any{
				"report_id": id.String(),
				"key":       *meta.ObjectKey,
				"error":     err.Error(),
			})
		}
	}

	if err := s.reportsStorage.DeleteReport(ctx, id); err != nil {
		return fmt.Errorf("failed to delete report metadata: %w", err)
	}
	return nil
}

// DownloadURL: local: наш эндпоинт, S3: публичный или presigned URL
func (s *Service) DownloadURL(ctx context.Context, report *Report, baseURL string) (string, error) {
	if s.LocalMode() {
		return fmt.Sprintf("%s/v1/reports/%s/download", baseURL, report.ID.String()), nil
	}

	if report.ObjectKey == nil {
		return "", ErrMissingObject
	}

	if s.opts.PreferPublicURL && s.opts.PublicBaseURL != "" {
		return blob.PublicURL(s.opts.PublicBaseURL, *report.ObjectKey), nil
	}

	url, err := s.blobStore.PresignGet(ctx, *report.ObjectKey, s.opts.PresignTTLSeconds)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url, nil
}

func (s *Service) owned(ctx context.Context, userID string, id uuid.UUID) (*storage.ReportMeta, error) {
	meta, err := s.reportsStorage.GetReport(ctx, id)
	if err != nil || meta == nil {
		return nil, ErrReportNotFound
	}
	if meta.OwnerUserID != userID {
		return nil, ErrReportNotFound
	}
	return meta, nil
}

func toReport(meta *storage.ReportMeta) *Report {
	return &Report{
		ID:          meta.ID,
		OwnerUserID: meta.OwnerUserID,
		Format:      meta.Format,
		SnapshotDay: meta.SnapshotDay,
		ObjectKey:   meta.ObjectKey,
		SizeBytes:   meta.SizeBytes,
		Status:      meta.Status,
		Error:       meta.Error,
		CreatedAt:   meta.CreatedAt,
		UpdatedAt:   meta.UpdatedAt,
		Data:        meta.Data,
	}
}
