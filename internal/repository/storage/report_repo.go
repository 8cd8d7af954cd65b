package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"
)

// ReportRepository defines the interface for exported report storage.
// Arrears CSV exports and similar artifacts are archived here and served
// back through short-lived presigned URLs.
type ReportRepository interface {
	Upload(ctx context.Context, objectPath string, data io.Reader, contentType string, size int64) (string, error)
	Delete(ctx context.Context, objectPath string) error
	GeneratePresignedURL(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// GenerateObjectPath creates a unique object path for an exported report.
// Exports are grouped by kind and day so bucket listings stay navigable.
func GenerateObjectPath(kind string, at time.Time, ext string) string {
	filename := fmt.Sprintf("%s_%s%s", kind, at.UTC().Format("20060102T150405Z"), ext)
	return path.Join(kind, at.UTC().Format("2006-01-02"), filename)
}
