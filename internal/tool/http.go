package tool

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-logr/logr"
	"github.com/hashicorp/go-retryablehttp"

	"github.com/dennisklein/helmtask/internal/pipeline"
)

// userAgent is sent with every upstream request; the GitHub API rejects
// requests without one.
const userAgent = "helmtask"

func (t *Tool) httpClient() *http.Client {
	return newRetryableClient(t.Log)
}

// newRetryableClient returns a standard client that retries transient
// failures and logs through log.
func newRetryableClient(log logr.Logger) *http.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 500 * time.Millisecond
	client.RetryWaitMax = 5 * time.Second
	client.Logger = pipeline.LeveledLogger{Log: log}

	return client.StandardClient()
}

// fetchHTTPContent performs a GET request and returns the response body content.
// It ensures proper error handling and response body cleanup.
func fetchHTTPContent(ctx context.Context, client *http.Client, url string) (data []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
