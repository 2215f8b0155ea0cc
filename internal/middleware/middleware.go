package middleware

import (
	"net/http"

	"github.com/akolanti/GoRAG/internal/adapter/utils"
	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/metrics"
	"github.com/akolanti/GoRAG/pkg/logger_i"
	"golang.org/x/time/rate"
)

type requestResponseStruct struct {
	writer     http.ResponseWriter
	req        *http.Request
	badRequest failureStruct
	logger     *logger_i.Logger
}

type failureStruct struct {
	isBadRequest bool
	httpCode     int
	code         string
	errorMessage string
}

type Options struct {
	AuthToken    string
	NoAuthBypass bool
	RatePerSec   float64
	Burst        int
}

// Chain runs trace injection, authentication and, for limited routes, the
// per-IP rate limiter before the handler.
type Chain struct {
	opts    Options
	limiter *IPRateLimiter
	logger  *logger_i.Logger
}

func New(opts Options) *Chain {
	if opts.RatePerSec <= 0 {
		opts.RatePerSec = config.RATE_LIMIT_PER_SECOND
	}
	if opts.Burst <= 0 {
		opts.Burst = config.BURST_RATE_LIMIT_PER_SECOND
	}
	logger := logger_i.NewLogger("middleware")
	if opts.NoAuthBypass {
		logger.Warn("Authentication is disabled")
	}
	return &Chain{
		opts:    opts,
		limiter: NewIPRateLimiter(rate.Limit(opts.RatePerSec), opts.Burst),
		logger:  logger,
	}
}

// Wrap protects a handler with trace ids and authentication.
func (c *Chain) Wrap(next http.HandlerFunc) http.HandlerFunc {
	return c.wrap(next, false)
}

// WrapLimited also applies the per-IP rate limiter.
func (c *Chain) WrapLimited(next http.HandlerFunc) http.HandlerFunc {
	return c.wrap(next, true)
}

func (c *Chain) wrap(next http.HandlerFunc, limited bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec := metrics.NewHttpStatusRecorder(w)
		re := c.processRequest(requestResponseStruct{req: r, writer: rec}, limited)

		if !re.badRequest.isBadRequest {
			next(rec, re.req)
		}
		metrics.CaptureHttpRequest(utils.RoutePattern(re.req), rec.Status)
	}
}

func (c *Chain) processRequest(re requestResponseStruct, limited bool) requestResponseStruct {
	re.logger = c.logger
	re = injectTrace(re)
	re.logger.Debug("New request received", "method", re.req.Method, "path", re.req.URL.Path)

	re = c.authenticate(re)
	if !handleBadRequest(re) {
		return re
	}
	if limited {
		re = c.rateLimiter(re)
		handleBadRequest(re)
	}
	return re
}
