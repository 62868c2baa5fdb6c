package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/kestrelhq/arbscope/internal/domain"
)

// BlobWriter is the narrow upload surface the archiver needs.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}

// ScanArchiver uploads one JSON document per completed scan, keyed by
// scan time, so historical spreads survive process restarts.
type ScanArchiver struct {
	writer BlobWriter
	logger *slog.Logger
}

func NewScanArchiver(writer BlobWriter, logger *slog.Logger) *ScanArchiver {
	return &ScanArchiver{
		writer: writer,
		logger: logger.With(slog.String("component", "scan_archiver")),
	}
}

// ArchiveScan uploads the scan result. Empty scans are archived too; a
// run that found nothing is still a data point.
func (a *ScanArchiver) ArchiveScan(ctx context.Context, result domain.ArbitrageScanResult) error {
	buf, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("s3blob: marshal scan result: %w", err)
	}

	path := scanPath(result.ScannedAt)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/json"); err != nil {
		return fmt.Errorf("s3blob: archive scan: %w", err)
	}

	a.logger.InfoContext(ctx, "scan archived",
		slog.String("path", path),
		slog.Int("opportunities", len(result.Opportunities)),
	)
	return nil
}

// scanPath partitions scan documents by day:
//
//	scans/2026/09/01/093045.json
func scanPath(at time.Time) string {
	at = at.UTC()
	return fmt.Sprintf("scans/%s/%s.json", at.Format("2006/01/02"), at.Format("150405"))
}
