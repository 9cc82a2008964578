// Package session provides the session credentials file with file watching.
package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/spending-dashboard-tui/internal/logger"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/api"
)

// DefaultCookieName is used when the file only carries a cookie value.
const DefaultCookieName = "JSESSIONID"

// File is the JSON structure of the session file.
type File struct {
	CookieName  string `json:"cookieName"`
	CookieValue string `json:"cookieValue"`
	CSRFToken   string `json:"csrfToken,omitempty"`
	CSRFHeader  string `json:"csrfHeader,omitempty"`
}

// Event represents a session service event.
type Event struct {
	Error error
	Type  EventType
}

// EventType defines the type of session event.
type EventType int

const (
	// EventSessionLoaded is sent once after the initial load.
	EventSessionLoaded EventType = iota
	// EventSessionChanged is sent after the file changed on disk.
	EventSessionChanged
	// EventError is sent when the file cannot be read or parsed.
	EventError
)

// Service holds the current session and reloads it when the file changes.
type Service struct {
	watcher       *fsnotify.Watcher
	eventChan     chan Event
	stopChan      chan struct{}
	debounceTimer *time.Timer
	filePath      string
	current       File
	mu            sync.RWMutex
}

// New loads the session file, creating an empty one when missing, and
// starts watching it.
func New(filePath string) (*Service, error) {
	if filePath == "" {
		return nil, fmt.Errorf("session path is empty")
	}

	s := &Service{
		filePath:  filePath,
		eventChan: make(chan Event, 100),
		stopChan:  make(chan struct{}),
	}

	if err := os.MkdirAll(filepath.Dir(filePath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create session directory: %w", err)
	}

	if err := s.load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to load session: %w", err)
		}
		if err := s.Save(File{}); err != nil {
			return nil, fmt.Errorf("failed to create session file: %w", err)
		}
	}

	if err := s.startWatcher(); err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}

	s.sendEvent(Event{Type: EventSessionLoaded})

	return s, nil
}

// Events returns the event channel for subscribing to session changes.
func (s *Service) Events() <-chan Event {
	return s.eventChan
}

// Path returns the session file path.
func (s *Service) Path() string {
	return s.filePath
}

// Current returns a copy of the loaded session.
func (s *Service) Current() File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// HasSession reports whether a session cookie is configured.
func (s *Service) HasSession() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.CookieValue != ""
}

// Credentials implements api.CredentialsProvider.
func (s *Service) Credentials() api.Credentials {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return api.Credentials{
		CookieName:  s.current.CookieName,
		CookieValue: s.current.CookieValue,
		CSRFHeader:  s.current.CSRFHeader,
		CSRFToken:   s.current.CSRFToken,
	}
}

// Save writes f to disk and makes it current.
func (s *Service) Save(f File) error {
	f = normalize(f)

	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write to temp file first, then rename
	tmpFile := s.filePath + ".tmp"
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpFile, s.filePath); err != nil {
		if removeErr := os.Remove(tmpFile); removeErr != nil {
			logger.Error("failed to remove temp file", "error", removeErr)
		}
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	s.current = f
	return nil
}

// ParseCookie parses "NAME=VALUE" or a bare value into a session.
func ParseCookie(raw string) File {
	raw = strings.TrimSpace(raw)
	if name, value, ok := strings.Cut(raw, "="); ok {
		return normalize(File{CookieName: strings.TrimSpace(name), CookieValue: strings.TrimSpace(value)})
	}
	return normalize(File{CookieValue: raw})
}

func normalize(f File) File {
	if f.CookieValue != "" && f.CookieName == "" {
		f.CookieName = DefaultCookieName
	}
	return f
}

func parse(data []byte) (File, error) {
	var f File
	if len(strings.TrimSpace(string(data))) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("failed to parse session file: %w", err)
	}
	return normalize(f), nil
}

func (s *Service) load() error {
	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return err
	}

	f, err := parse(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.current = f
	s.mu.Unlock()
	return nil
}

// startWatcher starts the file system watcher.
func (s *Service) startWatcher() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	s.watcher = watcher

	// Watch the directory (to catch editors that replace the file)
	dir := filepath.Dir(s.filePath)
	if err := watcher.Add(dir); err != nil {
		if closeErr := watcher.Close(); closeErr != nil {
			logger.Error("failed to close watcher", "error", closeErr)
		}
		return err
	}

	go s.watchLoop()
	return nil
}

// watchLoop handles file system events with debouncing.
func (s *Service) watchLoop() {
	const debounceInterval = 100 * time.Millisecond

	for {
		select {
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}

			if filepath.Base(event.Name) != filepath.Base(s.filePath) {
				continue
			}

			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				s.mu.Lock()
				if s.debounceTimer != nil {
					s.debounceTimer.Stop()
				}
				s.debounceTimer = time.AfterFunc(debounceInterval, s.handleFileChange)
				s.mu.Unlock()
			}

		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.sendEvent(Event{Type: EventError, Error: err})

		case <-s.stopChan:
			return
		}
	}
}

// handleFileChange reloads the session after an external change.
func (s *Service) handleFileChange() {
	before := s.Current()

	if err := s.load(); err != nil {
		logger.Warn("session reload failed", "path", s.filePath, "error", err)
		s.sendEvent(Event{Type: EventError, Error: err})
		return
	}

	if s.Current() == before {
		return
	}

	logger.Info("session reloaded", "path", s.filePath)
	s.sendEvent(Event{Type: EventSessionChanged})
}

// sendEvent sends an event to the event channel non-blocking.
func (s *Service) sendEvent(event Event) {
	select {
	case s.eventChan <- event:
	default:
		// Channel full, drop oldest event
		select {
		case <-s.eventChan:
		default:
		}
		select {
		case s.eventChan <- event:
		default:
		}
	}
}

// Close stops the file watcher and cleans up resources.
func (s *Service) Close() error {
	close(s.stopChan)

	s.mu.Lock()
	if s.debounceTimer != nil {
		s.debounceTimer.Stop()
	}
	s.mu.Unlock()

	if s.watcher != nil {
		return s.watcher.Close()
	}
	return nil
}
