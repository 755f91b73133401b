package interfaces

import "context"

// Fetcher retrieves document bytes from a URL. Implementations must bound the
// request with a timeout; a hung remote must not block the pipeline.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}
