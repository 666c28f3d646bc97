package reports

import (
	"time"

	"github.com/google/uuid"
)

// Report: метаданные сгенерированного снимка
type Report struct {
	ID          uuid.UUID
	OwnerUserID string
	Format      string
	SnapshotDay string
	ObjectKey   *string
	SizeBytes   int64
	Status      string
	Error       *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Data        []byte // только local режим
}

type CreateReportRequest struct {
	Format string `json:"format" validate:"required,oneof=pdf csv"`
}

type ReportDTO struct {
	ID          uuid.UUID `json:"id"`
	Format      string    `json:"format"`
	SnapshotDay string    `json:"snapshot_day"`
	DownloadURL string    `json:"download_url"`
	SizeBytes   int64     `json:"size_bytes"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

type ReportsResponse struct {
	Reports []ReportDTO `json:"reports"`
}

type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	FormatPDF = "pdf"
	FormatCSV = "csv"

	StatusReady  = "ready"
	StatusFailed = "failed"
)

func contentTypeFor(format string) string {
	if format == FormatCSV {
		return "text/csv"
	}
	return "application/pdf"
}
