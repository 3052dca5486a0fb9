package ports

import (
	"context"
	"io"

	"github.com/aretw0/cooknet/pkg/domain"
)

// Messenger delivers a Response through the chat transport.
type Messenger interface {
	Send(ctx context.Context, resp domain.Response) error
}

// PhotoResolver turns an opaque photo reference into a public URL.
// It may perform network I/O. The URL must not carry transport credentials.
type PhotoResolver interface {
	ResolvePhotoURL(ctx context.Context, photoRef string) (string, error)
}

// PhotoFetcher downloads the bytes behind a photo reference.
type PhotoFetcher interface {
	FetchPhoto(ctx context.Context, photoRef string) (body io.ReadCloser, contentType string, err error)
}
