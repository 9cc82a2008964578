// Package version provides build version information and runtime metadata.
package version

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"
)

var (
	// These are set via ldflags at build time
	Version = ""
	Commit  = ""
	Date    = ""

	once sync.Once

	execCommand = exec.CommandContext
)

const gitTimeout = 2 * time.Second

// Build holds resolved build metadata.
type Build struct {
	Version string
	Commit  string
	Date    string
}

func ensureInitialized() {
	once.Do(func() {
		if Date == "" {
			Date = time.Now().Format("2006-01-02")
		}
		if Commit == "" {
			Commit = git("unknown", "describe", "--always", "--dirty")
		}
		if Version == "" {
			Version = strings.TrimPrefix(git("dev", "describe", "--tags", "--abbrev=0"), "v")
		}
	})
}

// git runs a git subcommand and returns its trimmed output, or fallback
// when git fails or prints nothing.
func git(fallback string, args ...string) string {
	ctx, cancel := context.WithTimeout(context.Background(), gitTimeout)
	defer cancel()

	cmd := execCommand(ctx, "git", args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return fallback
	}
	if v := strings.TrimSpace(out.String()); v != "" {
		return v
	}
	return fallback
}

// Reset clears resolved metadata so it is computed again. Used by tests.
func Reset() {
	Version, Commit, Date = "", "", ""
	once = sync.Once{}
}

// Get returns the build metadata, falling back to git when it was not set
// at link time.
func Get() Build {
	ensureInitialized()
	return Build{Version: Version, Commit: Commit, Date: Date}
}

// Info returns a one-line version string.
func Info() string {
	b := Get()
	return fmt.Sprintf("spending-dashboard-tui %s (commit: %s, built: %s, %s/%s)",
		b.Version, b.Commit, b.Date, runtime.GOOS, runtime.GOARCH)
}
