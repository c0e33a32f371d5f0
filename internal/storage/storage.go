package storage

import (
	"context"
)

// FileStorage stores chat attachments and hands back a retrievable URL.
type FileStorage interface {
	UploadFile(ctx context.Context, objectName string, data []byte, contentType string) (string, error)

	DeleteFile(ctx context.Context, fileURL string) error
}
