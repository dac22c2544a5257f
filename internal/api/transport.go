package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sio/issyours/internal/logger"
)

// loggingRoundTripper logs every API request and response at debug level
type loggingRoundTripper struct {
	base   http.RoundTripper
	logger logger.Logger
}

func (rt *loggingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()

	fields := []interface{}{
		"method", req.Method,
		"url", req.URL.String(),
	}
	if auth := req.Header.Get("Authorization"); auth != "" {
		fields = append(fields, "authorization", maskAuthHeader(auth))
	}
	if since := req.Header.Get("If-Modified-Since"); since != "" {
		fields = append(fields, "if_modified_since", since)
	}
	rt.logger.Debug("github_api_request", fields...)

	resp, err := rt.base.RoundTrip(req)
	duration := time.Since(start)
	if err != nil {
		rt.logger.Error("github_api_error",
			"method", req.Method,
			"url", req.URL.String(),
			"duration_ms", duration.Milliseconds(),
			"error", err.Error(),
		)
		return nil, err
	}

	fields = []interface{}{
		"status_code", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
	}
	if remaining := resp.Header.Get(headerRateRemaining); remaining != "" {
		fields = append(fields, "rate_limit_remaining", remaining)
	}
	if reset := resp.Header.Get(headerRateReset); reset != "" {
		fields = append(fields, "rate_limit_reset", reset)
	}
	rt.logger.Debug("github_api_response", fields...)

	return resp, nil
}

func maskAuthHeader(auth string) string {
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) == 2 {
		return fmt.Sprintf("%s [REDACTED]", parts[0])
	}
	return "[REDACTED]"
}
