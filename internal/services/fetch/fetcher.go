package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/lector/internal/common"
	"github.com/ternarybob/lector/internal/interfaces"
	"github.com/ternarybob/lector/internal/models"
)

// HTTPFetcher retrieves document bytes over HTTP with a bounded timeout and
// body size. Fetch failures are input errors: without document bytes there is
// nothing to refine, so they fail the request.
type HTTPFetcher struct {
	client      *http.Client
	maxBodySize int64
	logger      arbor.ILogger
}

var _ interfaces.Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a fetcher from fetch configuration.
func NewHTTPFetcher(cfg common.FetchConfig, logger arbor.ILogger) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxBodySize: cfg.MaxBodySize,
		logger:      logger,
	}
}

// Fetch downloads the document at url. Non-2xx statuses and transport
// failures surface as InputError.
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, models.NewInputError(fmt.Sprintf("invalid document URL: %v", err))
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, models.NewInputError(fmt.Sprintf("document fetch failed: %v", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, models.NewInputError(fmt.Sprintf("document fetch returned status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		return nil, models.NewInputError(fmt.Sprintf("document read failed: %v", err))
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, models.NewInputError(fmt.Sprintf("document exceeds maximum size of %d bytes", f.maxBodySize))
	}

	f.logger.Debug().
		Str("url", url).
		Int("bytes", len(body)).
		Msg("Document fetched")

	return body, nil
}
