package services

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/desertthunder/spear/internal/models"
)

var (
	transientMarkers = []string{
		"http error 429",
		"too many requests",
		"timed out",
		"timeout",
		"connection reset",
		"connection refused",
		"connection aborted",
		"remote end closed connection",
		"temporary failure in name resolution",
		"name or service not known",
		"nodename nor servname",
		"network is unreachable",
		"getaddrinfo failed",
	}

	outdatedMarkers = []string{
		"yt-dlp -u",
		"latest version",
		"please update",
		"nsig extraction failed",
		"signature extraction failed",
		"unable to extract player",
	}

	serverErrorPattern = regexp.MustCompile(`http error 5\d\d`)
)

// classify turns a failed tool invocation into a [models.DownloadOutcome].
//
// Transient markers are checked before outdated ones: a throttled request must never trigger
// the update-and-restart protocol.
func classify(err error, stderr []byte) models.DownloadOutcome {
	if errors.Is(err, exec.ErrNotFound) {
		return models.Failed(fmt.Sprintf("download tool not found: %v", err), false)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return models.Failed(fmt.Sprintf("interrupted: %v", err), true)
	}

	reason := lastErrorLine(stderr)
	if reason == "" && err != nil {
		reason = err.Error()
	}
	text := strings.ToLower(string(stderr))

	if serverErrorPattern.MatchString(text) || containsAny(text, transientMarkers) {
		return models.Failed(reason, true)
	}
	if containsAny(text, outdatedMarkers) {
		return models.ToolOutdated(reason)
	}
	return models.Failed(reason, false)
}

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// lastErrorLine picks the most useful line of tool output for a human-readable reason.
func lastErrorLine(stderr []byte) string {
	lines := strings.Split(strings.TrimSpace(string(stderr)), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); strings.HasPrefix(l, "ERROR:") {
			return l
		}
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if l := strings.TrimSpace(lines[i]); l != "" {
			return l
		}
	}
	return ""
}
