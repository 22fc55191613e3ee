package observability

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/baxromumarov/jobportals/internal/httpx"
)

const (
	ErrorNetwork   = "network"
	ErrorParsing   = "parsing"
	ErrorRateLimit = "rate_limit"
	ErrorBlocked   = "blocked"
	ErrorStore     = "store"
	ErrorPanic     = "panic"
	ErrorCancelled = "cancelled"
	ErrorUnknown   = "unknown"
)

func ClassifyFetchError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	if errors.Is(err, context.Canceled) {
		return ErrorCancelled
	}
	var fe *httpx.FetchError
	if errors.As(err, &fe) {
		switch fe.Status {
		case http.StatusTooManyRequests:
			return ErrorRateLimit
		case http.StatusForbidden:
			return ErrorBlocked
		default:
			return ErrorNetwork
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorNetwork
	}
	return ErrorUnknown
}

// ClassifyScrapeError maps a diagnostics error message or error value to a kind.
func ClassifyScrapeError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	if kind := ClassifyFetchError(err); kind != ErrorUnknown {
		return kind
	}
	msg := strings.ToLower(err.Error())
	switch {
	case strings.HasPrefix(msg, "network error"):
		return ErrorNetwork
	case strings.HasPrefix(msg, "parsing error"),
		strings.Contains(msg, "parse failed"),
		strings.Contains(msg, "invalid character"):
		return ErrorParsing
	case strings.HasPrefix(msg, "unexpected error") && strings.Contains(msg, "cancelled"):
		return ErrorCancelled
	case strings.HasPrefix(msg, "unexpected error"):
		return ErrorPanic
	case strings.Contains(msg, "blocking automated access"):
		return ErrorBlocked
	}
	return ErrorUnknown
}
