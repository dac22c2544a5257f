package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/google/go-github/v57/github"
)

const (
	// UserAgent identifies this fetcher to GitHub
	UserAgent = "Issue backup fetcher v0.0.1 <https://github.com/sio/issyours/>"

	acceptHeader = "application/vnd.github.v3+json," +
		"application/vnd.github.symmetra-preview+json," +
		"application/vnd.github.squirrel-girl-preview+json"
)

// Recorder receives statistics about every API response
type Recorder interface {
	RecordAPIResponse(statusCode int, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordAPIResponse(int, time.Duration) {}

// Page is a single successful API response
type Page struct {
	Body       []byte
	Header     http.Header
	StatusCode int
	NextPage   int
}

// Caller is a low level read only GitHub REST client. Every request waits on
// the rate limiter first and feeds the response headers back into it.
type Caller struct {
	client  *github.Client
	limiter *RateLimiter
	metrics Recorder
}

// NewCaller wraps a go-github client. A nil limiter means no pacing beyond the
// server-reported budget.
func NewCaller(client *github.Client, limiter *RateLimiter) *Caller {
	if limiter == nil {
		limiter = NewRateLimiter(0)
	}
	client.UserAgent = UserAgent
	return &Caller{
		client:  client,
		limiter: limiter,
		metrics: nopRecorder{},
	}
}

// SetRecorder installs a metrics recorder
func (c *Caller) SetRecorder(r Recorder) {
	if r == nil {
		r = nopRecorder{}
	}
	c.metrics = r
}

// Single fetches the first page of a call. target is either an endpoint
// relative to the API root or an absolute URL.
func (c *Caller) Single(ctx context.Context, target string, params url.Values, since Timestamp) (*Page, error) {
	for page, err := range c.Pages(ctx, target, params, since) {
		return page, err
	}
	return nil, fmt.Errorf("no response for %s", target)
}

// Pages lazily walks a paginated call. Each step performs one HTTP request;
// the sequence ends after the last page or the first error.
func (c *Caller) Pages(ctx context.Context, target string, params url.Values, since Timestamp) iter.Seq2[*Page, error] {
	return func(yield func(*Page, error) bool) {
		query := url.Values{}
		for k, v := range params {
			query[k] = append([]string(nil), v...)
		}

		for {
			u, err := withQuery(target, query)
			if err != nil {
				yield(nil, err)
				return
			}

			page, err := c.call(ctx, u, since)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(page, nil) {
				return
			}
			if page.NextPage == 0 {
				return
			}
			query.Set("page", strconv.Itoa(page.NextPage))
		}
	}
}

func (c *Caller) call(ctx context.Context, target string, since Timestamp) (*Page, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := c.client.NewRequest(http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", target, err)
	}
	req.Header.Set("Accept", acceptHeader)
	if !since.IsZero() {
		req.Header.Set("If-Modified-Since", since.Header())
	}

	var body bytes.Buffer
	start := time.Now()
	resp, err := c.client.Do(ctx, req, &body)
	if resp != nil && resp.Response != nil {
		c.limiter.Update(resp.Header)
		c.metrics.RecordAPIResponse(resp.StatusCode, time.Since(start))
	}
	if err != nil {
		return nil, classify(req.URL.String(), resp, err)
	}

	return &Page{
		Body:       body.Bytes(),
		Header:     resp.Header,
		StatusCode: resp.StatusCode,
		NextPage:   resp.NextPage,
	}, nil
}

// classify maps a failed call onto the error taxonomy, in priority order:
// not modified, quota exhausted, unauthorized, anything else.
func classify(target string, resp *github.Response, err error) error {
	if resp == nil || resp.Response == nil {
		return fmt.Errorf("failed to call %s: %w", target, err)
	}

	apiErr := &Error{
		Kind:       KindHTTP,
		StatusCode: resp.StatusCode,
		URL:        target,
		Err:        err,
	}

	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) {
		apiErr.Message = ghErr.Message
	}

	var rateErr *github.RateLimitError
	switch {
	case resp.StatusCode == http.StatusNotModified:
		apiErr.Kind = KindNotModified
	case errors.As(err, &rateErr):
		apiErr.Kind = KindRateLimit
		apiErr.Message = rateErr.Message
		apiErr.ResetTime = rateErr.Rate.Reset.Time
	case resp.StatusCode == http.StatusForbidden && resp.Header.Get(headerRateRemaining) == "0":
		apiErr.Kind = KindRateLimit
		if reset, perr := ParseUnix(resp.Header.Get(headerRateReset)); perr == nil {
			apiErr.ResetTime = reset.Time()
		}
	case resp.StatusCode == http.StatusUnauthorized:
		apiErr.Kind = KindUnauthorized
		if apiErr.Message == "" {
			apiErr.Message = "Unknown API error"
		}
	}
	return apiErr
}

func withQuery(target string, params url.Values) (string, error) {
	if len(params) == 0 {
		return target, nil
	}
	u, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("invalid API target %q: %w", target, err)
	}
	query := u.Query()
	for k, v := range params {
		query[k] = v
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}
