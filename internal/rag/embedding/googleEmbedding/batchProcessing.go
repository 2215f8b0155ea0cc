package googleEmbedding

import (
	"errors"
	"net/http"

	"github.com/akolanti/GoRAG/pkg/logger_i"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func getContent(chunks []string) []*genai.Content {
	contentsToSend := make([]*genai.Content, 0, len(chunks))

	for _, chunk := range chunks {
		contentsToSend = append(contentsToSend, &genai.Content{
			Parts: []*genai.Part{{Text: chunk}},
		})
	}
	return contentsToSend
}

// doRetry reports whether err is a rate limit or a transient server error.
func doRetry(err error, log *logger_i.Logger) bool {
	if s, ok := status.FromError(err); ok {
		if s.Code() == codes.ResourceExhausted || s.Code() == codes.Unavailable {
			log.Warn("Rate limit hit", "error", err)
			return true
		}
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return retryableStatus(apiErr.Code, log)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return retryableStatus(apiErrPtr.Code, log)
	}
	return false
}

func retryableStatus(code int, log *logger_i.Logger) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusBadGateway:
		log.Warn("Retryable embedding status", "code", code)
		return true
	}
	return false
}
