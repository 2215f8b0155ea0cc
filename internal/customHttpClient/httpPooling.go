package customHttpClient

import (
	"net/http"
	"time"

	"github.com/akolanti/GoRAG/internal/config"
)

// one transport for every model client so connections to the same
// provider are reused across the embedder and the generator
var customTransport = &http.Transport{
	Proxy:               http.ProxyFromEnvironment,
	MaxIdleConns:        config.MaxIdleConns,
	MaxIdleConnsPerHost: config.MaxIdleConnsPerHost,
	IdleConnTimeout:     config.IdleConnTimeout,
}

// NewClient returns a client on the shared pool. A zero timeout leaves the
// deadline to the request context.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Transport: customTransport, Timeout: timeout}
}
