// Package main is the entry point for the Spending Dashboard TUI application.
// It initializes configuration, services, and runs the Bubble Tea program.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/spending-dashboard-tui/internal/app"
	"github.com/j-veylop/spending-dashboard-tui/internal/config"
	"github.com/j-veylop/spending-dashboard-tui/internal/logger"
	"github.com/j-veylop/spending-dashboard-tui/internal/services"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/analysis"
	"github.com/j-veylop/spending-dashboard-tui/internal/services/session"
	"github.com/j-veylop/spending-dashboard-tui/internal/ui/tabs/history"
	"github.com/j-veylop/spending-dashboard-tui/internal/ui/tabs/info"
	"github.com/j-veylop/spending-dashboard-tui/internal/ui/tabs/monthly"
	"github.com/j-veylop/spending-dashboard-tui/internal/ui/tabs/notifications"
	"github.com/j-veylop/spending-dashboard-tui/internal/ui/tabs/peers"
	"github.com/j-veylop/spending-dashboard-tui/internal/version"
)

// options holds the parsed command-line flags.
type options struct {
	sessionCookie string
	month         string
}

var errUsage = errors.New("invalid arguments")

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "-v" || os.Args[1] == "--version") {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Handle help flag
	if len(os.Args) > 1 && (os.Args[1] == "-h" || os.Args[1] == "--help") {
		printUsage()
		os.Exit(0)
	}

	opts, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n\n", err)
		printUsage()
		os.Exit(2)
	}

	// Run the application
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// parseArgs reads "--flag value" and "--flag=value" forms.
func parseArgs(args []string) (options, error) {
	var opts options
	for i := 0; i < len(args); i++ {
		name, value, hasValue := strings.Cut(args[i], "=")
		if !hasValue {
			if i+1 >= len(args) {
				return opts, fmt.Errorf("%w: %s needs a value", errUsage, name)
			}
			i++
			value = args[i]
		}

		switch name {
		case "--session-cookie":
			opts.sessionCookie = value
		case "--month":
			if err := analysis.ValidateMonth(value); err != nil {
				return opts, err
			}
			opts.month = value
		default:
			return opts, fmt.Errorf("%w: unknown flag %s", errUsage, name)
		}
	}
	return opts, nil
}

// run contains the main application logic, separated for cleaner error handling.
func run(opts options) error {
	// 1. Load configuration from .env files and environment variables
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logCloser, err := logger.Init(cfg.LogPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logCloser.Close()

	// 2. Initialize the service manager
	// This opens the cache, watches the session file and polls notifications
	svcManager, err := services.NewManager(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	// Ensure cleanup on exit
	defer func() {
		if closeErr := svcManager.Close(); closeErr != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing services: %v\n", closeErr)
		}
	}()

	if opts.sessionCookie != "" {
		if err := svcManager.SaveSession(session.ParseCookie(opts.sessionCookie)); err != nil {
			return fmt.Errorf("failed to save session: %w", err)
		}
	}

	// 3. Create the root Bubble Tea model
	model := app.NewModel(svcManager, nil)

	// 4. Initialize tabs with shared state and commands
	state := model.GetState()
	if opts.month != "" {
		state.SetMonth(opts.month)
	}
	cmds := model.GetCommands()
	tabs := []app.Tab{
		monthly.New(state, cmds),       // Tab 0: Analysis - selected month
		history.New(state, cmds),       // Tab 1: History - stored versions
		peers.New(state, cmds),         // Tab 2: Peers - peer group comparison
		notifications.New(state, cmds), // Tab 3: Notifications
		info.New(state, cmds, cfg),     // Tab 4: Info - configuration and stats
	}
	model.SetTabs(tabs)

	// 5. Set up signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// 6. Create and configure the Bubble Tea program
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	// 7. Handle signals in a separate goroutine
	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	// 8. Run the TUI program
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`Spending Dashboard TUI - monthly spending analysis client

Usage:
  sdt [flags]

Flags:
  -h, --help               Show this help message
  -v, --version            Show version information
  --session-cookie VALUE   Store a session cookie ("NAME=VALUE" or bare value)
  --month YYYY-MM          Month to open (default: current month)

Keyboard Shortcuts:
  1-5             Switch tabs (Analysis, History, Peers, Notifications, Info)
  Tab/Shift+Tab   Navigate between tabs
  [ / ]           Previous / next month
  m               Enter a month
  n               Request a new analysis
  d               Delete the shown analysis
  p               Predict next month
  c               Compare versions (History)
  a               Mark all notifications read
  r               Retry / refresh
  ?               Toggle help
  q, Ctrl+C       Quit

Environment Variables:
  API_BASE_URL                Backend base URL
  SESSION_PATH                Session file path
  DATABASE_PATH               SQLite cache path
  LOG_PATH, LOG_LEVEL         Log file and level
  CSRF_HEADER, CSRF_TOKEN     Anti-forgery header override
  NOTIFICATION_POLL_INTERVAL  Notification polling interval (default: 1m)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/spending-tui/.env
  - ~/.spending-tui/.env`)
}
