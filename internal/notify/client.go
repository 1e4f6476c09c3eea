package notify

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// NewRetryingClient returns an *http.Client that retries connection errors
// and 5xx/429 responses up to retries times with exponential backoff. Each
// attempt is bounded by timeout. A nil logger silences retry logging.
func NewRetryingClient(logger *slog.Logger, timeout time.Duration, retries int) *http.Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = retries
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = timeout
	if logger != nil {
		rc.Logger = logger
	} else {
		rc.Logger = nil
	}
	return rc.StandardClient()
}
