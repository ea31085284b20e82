// Package testing holds fixtures shared by the maestro test suites.
package testing

import (
	"database/sql"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/maestro/internal/shared"
)

var (
	errWrite      = errors.New("write failed")
	errWriteLimit = errors.New("write limit exceeded")
	errRead       = errors.New("read failed")
)

// MigratedDatabase opens an in-memory SQLite database with every migration
// applied. The handle is closed when the test ends.
func MigratedDatabase(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	return db
}

// FWriter rejects every write.
type FWriter struct{}

func (*FWriter) Write([]byte) (int, error) { return 0, errWrite }

// LimitedWriter forwards to target until maxWrites calls have gone through,
// then fails.
type LimitedWriter struct {
	target    io.Writer
	maxWrites int
	count     int
}

func NewLimitedWriter(maxWrites, count int, target io.Writer) LimitedWriter {
	return LimitedWriter{target: target, maxWrites: maxWrites, count: count}
}

func (w *LimitedWriter) Write(p []byte) (int, error) {
	if w.count >= w.maxWrites {
		return 0, errWriteLimit
	}
	w.count++
	return w.target.Write(p)
}

// MockRoundTripper answers every request with a canned response and keeps
// the requests it saw.
type MockRoundTripper struct {
	mu       sync.Mutex
	response *http.Response
	err      error
	requests []*http.Request
}

func NewMockRoundTripper(resp *http.Response, err error) *MockRoundTripper {
	return &MockRoundTripper{response: resp, err: err}
}

func (m *MockRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	return m.response, m.err
}

// Requests returns the requests seen so far.
func (m *MockRoundTripper) Requests() []*http.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*http.Request(nil), m.requests...)
}

// FCloser is a response body whose reads fail.
type FCloser struct{}

func (*FCloser) Read([]byte) (int, error) { return 0, errRead }
func (*FCloser) Close() error { return nil }

// MustGetwd returns the working directory or stops the test.
func MustGetwd(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	return dir
}

// MustChdir moves into dir or stops the test.
func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	switch {
	case err != nil:
		t.Errorf("expected file %s: %v", path, err)
	case info.IsDir():
		t.Errorf("expected %s to be a file, found a directory", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	switch {
	case err != nil:
		t.Errorf("expected directory %s: %v", path, err)
	case !info.IsDir():
		t.Errorf("expected %s to be a directory", path)
	}
}

// MustReadFile returns the contents of path as a string.
func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}
