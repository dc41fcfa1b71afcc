package service

import (
	"context"
	"io"

	"ChartCast/internal/domain/models"
)

// Captioner turns a signal list into a one-line market comment.
type Captioner interface {
	Caption(ctx context.Context, req models.CaptionRequest) (string, error)
}

// CastPublisher posts a cast to the social network and returns its hash.
type CastPublisher interface {
	Publish(ctx context.Context, req models.CastRequest) (string, error)
}

// BlobStore uploads media and returns its public location.
type BlobStore interface {
	Put(ctx context.Context, filename, contentType string, body io.Reader) (*models.Blob, error)
}
