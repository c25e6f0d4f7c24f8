package candidate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/imroc/req/v3"

	"github.com/tbckr/dnsbench/internal/apperr"
	"github.com/tbckr/dnsbench/internal/output"
	"github.com/tbckr/dnsbench/internal/worker"
)

// maxErrorBody caps the response body quoted in error messages.
const maxErrorBody = 200

// Fetcher downloads resolver lists published as plain text, one
// "Label=addr[:port]" or "addr[:port]" entry per line.
type Fetcher struct {
	client *req.Client
	logger *slog.Logger
}

// NewFetcher returns a Fetcher using the given HTTP client.
func NewFetcher(client *req.Client, logger *slog.Logger) *Fetcher {
	return &Fetcher{client: client, logger: logger}
}

// Fetch downloads and parses the list at url. Entries are tagged
// SourceConfigured and their labels are stripped of terminal escapes.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Candidate, error) {
	resp, err := f.client.R().
		SetContext(ctx).
		SetHeader("Accept", "text/plain").
		Get(url)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: fetching resolver list %q: %w", apperr.ErrRequestFailed, url, err)
	}
	if !resp.IsSuccessState() {
		body := resp.String()
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody] + "..."
		}
		return nil, fmt.Errorf("%w: resolver list %q returned HTTP %d: %q", apperr.ErrRequestFailed, url, resp.StatusCode, body)
	}

	lines, err := worker.ReadInputs(strings.NewReader(resp.String()))
	if err != nil {
		return nil, fmt.Errorf("reading resolver list %q: %w", url, err)
	}
	list, err := ParseList(lines, SourceConfigured)
	if err != nil {
		return nil, fmt.Errorf("parsing resolver list %q: %w", url, err)
	}
	for i := range list {
		list[i].Label = output.StripANSI(list[i].Label)
	}
	f.logger.Debug("fetched resolver list", "url", url, "count", len(list))
	return list, nil
}
