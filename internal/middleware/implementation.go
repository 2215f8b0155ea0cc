package middleware

import (
	"context"
	"crypto/subtle"
	"net"
	"net/http"
	"strings"

	"github.com/akolanti/GoRAG/internal/adapter/utils"
	"github.com/akolanti/GoRAG/internal/config"
	"github.com/akolanti/GoRAG/internal/handlers"
	"github.com/akolanti/GoRAG/pkg/logger_i"
)

const TraceHeader = "X-Trace-Id"

func injectTrace(re requestResponseStruct) requestResponseStruct {
	req := re.req
	trace := req.Header.Get(TraceHeader)
	if trace == "" || len(trace) > 128 {
		trace = utils.GetNewUUID()
	}
	re.logger = re.logger.With("traceId", trace)
	ctx := context.WithValue(req.Context(), config.TRACE_ID_KEY, trace)
	re.writer.Header().Set(TraceHeader, trace)
	re.req = req.WithContext(ctx)
	return re
}

func (c *Chain) authenticate(re requestResponseStruct) requestResponseStruct {
	if !IsValidBearerToken(re.req.Header.Get("Authorization"), c.opts, re.logger) {
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusUnauthorized,
			code:         handlers.CodeUnauthorized,
			errorMessage: "missing or invalid bearer token",
		}
	}
	return re
}

// IsValidBearerToken compares in constant time. An empty configured token
// rejects everything unless the bypass is on.
func IsValidBearerToken(authHeader string, opts Options, log *logger_i.Logger) bool {
	if opts.NoAuthBypass {
		return true
	}
	if opts.AuthToken == "" {
		log.Error("No auth token configured")
		return false
	}
	if authHeader == "" {
		log.Warn("Empty authorization header")
		return false
	}
	token, found := strings.CutPrefix(authHeader, "Bearer ")
	if !found {
		log.Warn("No Bearer header")
		return false
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(opts.AuthToken)) != 1 {
		log.Warn("Invalid authorization header")
		return false
	}
	return true
}

func (c *Chain) rateLimiter(re requestResponseStruct) requestResponseStruct {
	ip, _, err := net.SplitHostPort(re.req.RemoteAddr)
	if err != nil {
		ip = re.req.RemoteAddr
	}

	if !c.limiter.GetLimiter(ip).Allow() {
		re.badRequest = failureStruct{
			isBadRequest: true,
			httpCode:     http.StatusTooManyRequests,
			code:         handlers.CodeTooManyRequests,
			errorMessage: "rate limit exceeded",
		}
	}
	return re
}

// handleBadRequest writes the error envelope and reports whether the
// request may continue.
func handleBadRequest(re requestResponseStruct) bool {
	if re.badRequest.isBadRequest {
		re.logger.Warn("Rejected request", "httpCode", re.badRequest.httpCode, "errorMessage", re.badRequest.errorMessage, "IP", re.req.RemoteAddr)
		handlers.WriteErrorResponse(re.writer, re.req.Context(), re.badRequest.httpCode, re.badRequest.code, re.badRequest.errorMessage)
		return false
	}
	return true
}
