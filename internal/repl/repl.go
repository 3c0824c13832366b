// Package repl implements the interactive shell: a readline loop with
// persisted history that keeps session settings and re-dispatches
// query commands through the regular CLI.
package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/shlex"

	"github.com/bookgrep-dev/bookgrep/internal/config"
)

// Dispatch runs one CLI command line, already tokenized. The command
// layer provides it; the repl never imports the command tree directly.
type Dispatch func(args []string) error

// Session holds the interactive state between commands.
type Session struct {
	cfg      config.Config
	dispatch Dispatch
	out      io.Writer
	errOut   io.Writer

	book         string
	format       string
	currencyMode string
	baseCurrency string
	fullAccount  bool
}

// New creates a session seeded from the effective configuration.
func New(cfg config.Config, book string, dispatch Dispatch) *Session {
	return &Session{
		cfg:          cfg,
		dispatch:     dispatch,
		out:          os.Stdout,
		errOut:       os.Stderr,
		book:         book,
		format:       cfg.Format,
		currencyMode: cfg.CurrencyMode,
		baseCurrency: cfg.BaseCurrency,
	}
}

// SetOutput redirects session output, used by tests.
func (s *Session) SetOutput(out, errOut io.Writer) {
	s.out = out
	s.errOut = errOut
}

var replCommands = []string{
	"open", "close", "accounts", "grep", "ledger", "tx", "split",
	"set", "show", "help", "quit", "exit",
}

// Run starts the readline loop and blocks until quit or EOF.
func (s *Session) Run() error {
	historyPath := s.cfg.HistoryPath
	if historyPath != "" {
		_ = os.MkdirAll(filepath.Dir(historyPath), 0o755)
	}

	var items []readline.PrefixCompleterInterface
	for _, c := range replCommands {
		items = append(items, readline.PcItem(c))
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:       "bookgrep> ",
		HistoryFile:  historyPath,
		AutoComplete: readline.NewPrefixCompleter(items...),
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	fmt.Fprintln(s.out, "bookgrep interactive mode. Type 'help' for commands, 'quit' to exit.")
	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err != nil {
			return nil
		}
		if s.Exec(line) {
			return nil
		}
	}
}

// Exec handles one input line, returning true when the session should end.
func (s *Session) Exec(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return false
	}

	parts, err := shlex.Split(line)
	if err != nil {
		fmt.Fprintf(s.errOut, "Parse error: %v\n", err)
		return false
	}
	if len(parts) == 0 {
		return false
	}

	cmd, args := strings.ToLower(parts[0]), parts[1:]
	switch cmd {
	case "quit", "exit":
		return true
	case "help":
		s.printHelp()
	case "open":
		s.open(args)
	case "close":
		s.book = ""
		fmt.Fprintln(s.out, "Book closed.")
	case "set":
		s.set(args)
	case "show":
		s.showSettings()
	case "accounts", "grep", "ledger", "tx", "split", "doctor", "cache":
		s.run(cmd, args)
	default:
		fmt.Fprintf(s.errOut, "Unknown command: %s. Type 'help' for commands.\n", cmd)
	}
	return false
}

func (s *Session) open(args []string) {
	path := s.cfg.Book
	if len(args) > 0 {
		path = args[0]
	}
	if path == "" {
		fmt.Fprintln(s.errOut, "No book path given and none configured.")
		return
	}
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(s.errOut, "Cannot open book: %v\n", err)
		return
	}
	s.book = path
	fmt.Fprintf(s.out, "Book: %s\n", path)
}

func (s *Session) run(cmd string, args []string) {
	if s.book == "" && cmd != "doctor" {
		fmt.Fprintln(s.errOut, "No book open. Use 'open [path]' first.")
		return
	}

	full := append([]string{cmd}, args...)
	if s.book != "" {
		full = append(full, "--book", s.book)
	}
	full = append(full, "--format", s.format)
	if s.fullAccount {
		full = append(full, "--full-account")
	}
	if cmd == "grep" || cmd == "ledger" {
		full = append(full, "--currency", s.currencyMode, "--base-currency", s.baseCurrency)
	}

	if err := s.dispatch(full); err != nil {
		fmt.Fprintf(s.errOut, "Error: %v\n", err)
	}
}

func (s *Session) set(args []string) {
	if len(args) < 2 {
		s.showSettings()
		return
	}
	key, value := strings.ToLower(args[0]), args[1]
	switch key {
	case "format":
		switch value {
		case "table", "csv", "json":
			s.format = value
			fmt.Fprintf(s.out, "Output format set to: %s\n", value)
		default:
			fmt.Fprintln(s.errOut, "Invalid format. Use: table, csv, json")
		}
	case "currency":
		switch value {
		case "auto", "base", "split", "account":
			s.currencyMode = value
			fmt.Fprintf(s.out, "Currency mode set to: %s\n", value)
		default:
			fmt.Fprintln(s.errOut, "Invalid mode. Use: auto, base, split, account")
		}
	case "base-currency":
		s.baseCurrency = strings.ToUpper(value)
		fmt.Fprintf(s.out, "Base currency set to: %s\n", s.baseCurrency)
	case "full-account":
		switch strings.ToLower(value) {
		case "on", "true", "yes", "1":
			s.fullAccount = true
			fmt.Fprintln(s.out, "Full account paths enabled")
		case "off", "false", "no", "0":
			s.fullAccount = false
			fmt.Fprintln(s.out, "Short account names enabled")
		default:
			fmt.Fprintln(s.errOut, "Invalid value. Use: on/off")
		}
	default:
		fmt.Fprintf(s.errOut, "Unknown setting: %s\n", key)
	}
}

func (s *Session) showSettings() {
	fmt.Fprintln(s.out, "Current settings:")
	fmt.Fprintf(s.out, "  book: %s\n", orNone(s.book))
	fmt.Fprintf(s.out, "  format: %s\n", s.format)
	fmt.Fprintf(s.out, "  currency: %s\n", s.currencyMode)
	fmt.Fprintf(s.out, "  base-currency: %s\n", s.baseCurrency)
	fmt.Fprintf(s.out, "  full-account: %t\n", s.fullAccount)
}

func (s *Session) printHelp() {
	fmt.Fprint(s.out, `Commands:

  open [PATH]         Open a GnuCash book (default: configured path)
  close               Close the current book
  accounts [PATTERN]  Search accounts by pattern
  grep TEXT           Search splits/transactions for text
  ledger ACCOUNT      Display ledger for accounts
  tx GUID             Show transaction by GUID
  split GUID          Show split by GUID
  cache build|status|drop
                      Manage the sidecar cache

  set format table|csv|json
  set currency auto|base|split|account
  set base-currency CUR
  set full-account on|off
  show                Show current settings

  help                Show this help
  quit / exit         Exit

Options are the same as the CLI. Example:
  grep amazon --after 2025-01-01 --amount 10..100
  ledger "Assets:Bank" --currency account
`)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
