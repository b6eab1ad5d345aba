// Package testing contains shared test doubles and file helpers.
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
)

// ExecCall is one recorded [FakeExecutor] invocation.
type ExecCall struct {
	Name string
	Args []string
}

// Has reports whether arg appears in the call's arguments.
func (c ExecCall) Has(arg string) bool {
	return slices.Contains(c.Args, arg)
}

// Value returns the argument following flag, or "" when flag is absent.
func (c ExecCall) Value(flag string) string {
	i := slices.Index(c.Args, flag)
	if i < 0 || i+1 >= len(c.Args) {
		return ""
	}
	return c.Args[i+1]
}

// FakeExecutor is a test double for services.Executor that records calls and never spawns processes.
//
// Respond scripts the result of each call; a nil Respond succeeds with empty output.
type FakeExecutor struct {
	Respond func(call ExecCall) (stdout, stderr []byte, err error)

	mu    sync.Mutex
	calls []ExecCall
}

func (f *FakeExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	call := ExecCall{Name: name, Args: append([]string{}, args...)}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if f.Respond == nil {
		return nil, nil, nil
	}
	return f.Respond(call)
}

// Calls returns a copy of the recorded invocations.
func (f *FakeExecutor) Calls() []ExecCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ExecCall{}, f.calls...)
}

// ExitError stands in for a non-zero exit status.
var ExitError = errors.New("exit status 1")

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// MustWriteFile creates path with content, creating parent directories.
func MustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write file %s: %v", path, err)
	}
}

// OutputPath expands a yt-dlp "-o" template the way the tool would for the given extension.
func OutputPath(template, ext string) string {
	return strings.ReplaceAll(template, "%(ext)s", ext)
}
