package preview

import "context"

// Provider resolves the preview URL for a stored document by filename.
// Previews are generated asynchronously by an external collaborator, so an
// empty URL with a nil error means "not yet available" and is not a failure.
type Provider interface {
	PreviewURL(ctx context.Context, filename string) (string, error)
}

// Unavailable is the Provider for deployments without a preview collaborator
// configured. Every lookup reports "not yet available".
type Unavailable struct{}

func (Unavailable) PreviewURL(ctx context.Context, filename string) (string, error) {
	return "", nil
}

var _ Provider = Unavailable{}
