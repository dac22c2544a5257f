package api

import (
	"fmt"
	"strconv"
	"time"
)

const (
	// HeaderFormat is the layout of HTTP date headers such as Last-Modified
	HeaderFormat = "Mon, 02 Jan 2006 15:04:05 GMT"
	// ISOFormat is the layout GitHub uses for timestamps in JSON and query params
	ISOFormat = "2006-01-02T15:04:05Z"
)

// Timestamp is a point in time as accepted by the GitHub API.
// It is always normalized to UTC with whole-second precision.
// The zero value means "no timestamp".
type Timestamp struct {
	t time.Time
}

// NewTimestamp wraps t, converting it to UTC
func NewTimestamp(t time.Time) Timestamp {
	if t.IsZero() {
		return Timestamp{}
	}
	return Timestamp{t: t.UTC().Truncate(time.Second)}
}

// ParseHeader parses an HTTP header date
func ParseHeader(value string) (Timestamp, error) {
	t, err := time.Parse(HeaderFormat, value)
	if err != nil {
		return Timestamp{}, fmt.Errorf("failed to parse header timestamp %q: %w", value, err)
	}
	return NewTimestamp(t), nil
}

// ParseISO parses an ISO-8601 timestamp in UTC ("Z") notation
func ParseISO(value string) (Timestamp, error) {
	t, err := time.Parse(ISOFormat, value)
	if err != nil {
		return Timestamp{}, fmt.Errorf("failed to parse ISO timestamp %q: %w", value, err)
	}
	return NewTimestamp(t), nil
}

// FromUnix converts seconds since the epoch
func FromUnix(sec int64) Timestamp {
	return Timestamp{t: time.Unix(sec, 0).UTC()}
}

// ParseUnix parses a decimal seconds-since-epoch string
func ParseUnix(value string) (Timestamp, error) {
	sec, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return Timestamp{}, fmt.Errorf("failed to parse unix timestamp %q: %w", value, err)
	}
	return FromUnix(sec), nil
}

// Header formats the timestamp for HTTP headers
func (ts Timestamp) Header() string {
	return ts.t.Format(HeaderFormat)
}

// ISO formats the timestamp as ISO-8601
func (ts Timestamp) ISO() string {
	return ts.t.Format(ISOFormat)
}

// Unix returns seconds since the epoch
func (ts Timestamp) Unix() int64 {
	return ts.t.Unix()
}

// Time returns the underlying UTC time
func (ts Timestamp) Time() time.Time {
	return ts.t
}

func (ts Timestamp) IsZero() bool {
	return ts.t.IsZero()
}

func (ts Timestamp) Before(other Timestamp) bool {
	return ts.t.Before(other.t)
}

func (ts Timestamp) After(other Timestamp) bool {
	return ts.t.After(other.t)
}

func (ts Timestamp) Equal(other Timestamp) bool {
	return ts.t.Equal(other.t)
}

func (ts Timestamp) String() string {
	if ts.IsZero() {
		return "<none>"
	}
	return ts.ISO()
}

// Latest returns the later of two timestamps, ignoring zero values
func Latest(a, b Timestamp) Timestamp {
	if a.IsZero() || b.After(a) {
		return b
	}
	return a
}
