package market

import (
	"errors"
	"fmt"
)

// ErrNoCredentials indicates the client was constructed without an API key pair.
var ErrNoCredentials = errors.New("market: api key and secret are required")

// UpstreamError reports a failed call to the market data upstream. It carries
// the upstream HTTP status and response body so callers can log the exact
// provider failure.
type UpstreamError struct {
	Endpoint string
	Status   int
	Body     string
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("market: %s failed: http %d: %s", e.Endpoint, e.Status, e.Body)
	}
	return fmt.Sprintf("market: %s failed: %v", e.Endpoint, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
