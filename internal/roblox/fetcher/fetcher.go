package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/bytedance/sonic"
	"github.com/jaxron/axonet/pkg/client"
)

// ErrUpstreamStatus is returned when a Roblox API responds with a non-2xx status.
var ErrUpstreamStatus = errors.New("unexpected upstream status")

// UpstreamError carries the status and body of a failed Roblox API response
// so handlers can attach them as diagnostics.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body)
}

func (e *UpstreamError) Unwrap() error {
	return ErrUpstreamStatus
}

// getJSON performs a GET through the shared axonet client and decodes the
// JSON response into out. Non-2xx responses become an *UpstreamError.
func getJSON(ctx context.Context, httpClient *client.Client, url string, query map[string]string, out any) error {
	builder := httpClient.NewRequest().
		Method(http.MethodGet).
		URL(url)

	for key, value := range query {
		builder = builder.Query(key, value)
	}

	resp, err := builder.Do(ctx)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading response from %s: %w", url, err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := sonic.Unmarshal(body, out); err != nil {
		return fmt.Errorf("error decoding response from %s: %w", url, err)
	}

	return nil
}
