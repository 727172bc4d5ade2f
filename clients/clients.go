package clients

import (
	"net/http"
	"time"
)

type HTTP struct{ c *http.Client }

// NewHTTP returns a client with the given timeout, 60s when zero.
func NewHTTP(timeout time.Duration) *HTTP {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &HTTP{c: &http.Client{Timeout: timeout}}
}
