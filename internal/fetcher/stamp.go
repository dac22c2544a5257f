package fetcher

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sio/issyours/internal/api"
	"github.com/sio/issyours/internal/storage"
)

const (
	// Name identifies this fetcher in stamp files
	Name = "GitHubFetcher"

	// About is written into every stamp for humans browsing the archive
	About = "GitHub Issues Archive made with <https://github.com/sio/issyours>"

	// StampVersion changes whenever the archive layout changes incompatibly
	StampVersion = 1
)

// Stamp records fetch progress for the whole archive or a single issue
type Stamp struct {
	Timestamp    int64  `json:"timestamp"`
	Repo         string `json:"repo"`
	Fetcher      string `json:"fetcher"`
	About        string `json:"about"`
	StampVersion int    `json:"stamp_version"`
	IssueNo      int    `json:"issue_no,omitempty"`
}

// StampValidationError means the archive directory holds data written by a
// different fetcher, repository or layout version
type StampValidationError struct {
	Field    string
	Expected interface{}
	Received interface{}
}

func (e *StampValidationError) Error() string {
	return fmt.Sprintf("data on disk does not come from this fetcher: %q was expected to be %s but got %s instead",
		e.Field, quote(e.Expected), quote(e.Received))
}

func quote(v interface{}) string {
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return fmt.Sprint(v)
}

// nothing is reported for fields missing from a stamp
const nothing = "nothing"

// readStamp loads a stamp; issueNo 0 means the global stamp. ok is false when
// no stamp exists yet.
func (f *Fetcher) readStamp(issueNo int) (ts api.Timestamp, ok bool, err error) {
	path := f.stampPath(issueNo)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return api.Timestamp{}, false, nil
	}
	if err != nil {
		return api.Timestamp{}, false, fmt.Errorf("failed to read stamp %s: %w", path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return api.Timestamp{}, false, fmt.Errorf("failed to parse stamp %s: %w", path, err)
	}

	unix, err := f.validateStamp(raw, issueNo)
	if err != nil {
		return api.Timestamp{}, false, err
	}
	return api.FromUnix(unix), true, nil
}

// validateStamp checks identity fields in a fixed order and returns the
// recorded unix time
func (f *Fetcher) validateStamp(raw map[string]interface{}, issueNo int) (int64, error) {
	checks := []stampCheck{
		{"repo", f.repo},
		{"fetcher", Name},
		{"stamp_version", StampVersion},
	}
	if issueNo != 0 {
		checks = append(checks, stampCheck{"issue_no", issueNo})
	}

	for _, check := range checks {
		value, present := raw[check.field]
		if !present {
			return 0, &StampValidationError{Field: check.field, Expected: check.expected, Received: nothing}
		}
		if !sameValue(check.expected, value) {
			return 0, &StampValidationError{Field: check.field, Expected: check.expected, Received: value}
		}
	}

	value, present := raw["timestamp"]
	if !present {
		return 0, &StampValidationError{Field: "timestamp", Expected: "any value", Received: nothing}
	}
	number, ok := value.(json.Number)
	if !ok {
		return 0, &StampValidationError{Field: "timestamp", Expected: "unix time", Received: value}
	}
	unix, err := number.Int64()
	if err != nil {
		return 0, &StampValidationError{Field: "timestamp", Expected: "unix time", Received: value}
	}
	return unix, nil
}

type stampCheck struct {
	field    string
	expected interface{}
}

// sameValue compares a Go value with a JSON-decoded one
func sameValue(expected, received interface{}) bool {
	switch want := expected.(type) {
	case string:
		got, ok := received.(string)
		return ok && got == want
	case int:
		got, ok := received.(json.Number)
		if !ok {
			return false
		}
		n, err := got.Int64()
		return err == nil && n == int64(want)
	}
	return false
}

// writeStamp records ts for the whole archive (issueNo 0) or a single issue
func (f *Fetcher) writeStamp(issueNo int, ts api.Timestamp) error {
	stamp := Stamp{
		Timestamp:    ts.Unix(),
		Repo:         f.repo,
		Fetcher:      Name,
		About:        About,
		StampVersion: StampVersion,
		IssueNo:      issueNo,
	}
	path := f.stampPath(issueNo)
	if err := storage.WriteJSON(path, stamp); err != nil {
		return fmt.Errorf("failed to write stamp: %w", err)
	}
	f.logger.Debug("Saved timestamp file", "path", path, "timestamp", ts.ISO())
	return nil
}

func (f *Fetcher) stampPath(issueNo int) string {
	if issueNo == 0 {
		return f.layout.GlobalStampPath()
	}
	return f.layout.StampPath(issueNo)
}

// ErrNoArchive means a directory holds no global stamp
var ErrNoArchive = errors.New("no archive found")

// ArchiveRepository reports which repository the archive under root holds,
// as recorded in its global stamp
func ArchiveRepository(root string) (string, error) {
	path := storage.NewLayout("", root).GlobalStampPath()
	var stamp Stamp
	if err := storage.ReadJSON(path, &stamp); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w in %s", ErrNoArchive, root)
		}
		return "", fmt.Errorf("failed to read stamp %s: %w", path, err)
	}
	if stamp.Fetcher != Name {
		return "", &StampValidationError{Field: "fetcher", Expected: Name, Received: stamp.Fetcher}
	}
	if _, _, err := ParseRepository(stamp.Repo); err != nil {
		return "", err
	}
	return stamp.Repo, nil
}
