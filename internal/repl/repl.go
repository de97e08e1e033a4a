// Package repl holds the interactive shell shared by the local console and
// the network client.
package repl

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/tuannm99/minidb/internal/sql/executor"
	"github.com/tuannm99/minidb/internal/sql/parser"
)

const continuationPrompt = "...> "

// ErrQuit ends the shell when returned by a command.
var ErrQuit = errors.New("repl: quit")

// Buffer accumulates input lines until they hold a ';' outside quotes.
type Buffer struct {
	b strings.Builder
}

// Add appends line and returns every statement the buffer now completes,
// each ending in ';'. Text after the last terminator stays buffered.
// Comment-only lines are dropped.
func (buf *Buffer) Add(line string) []string {
	line = strings.TrimSpace(parser.StripComments(line))
	if line == "" {
		return nil
	}
	if buf.b.Len() > 0 {
		buf.b.WriteByte('\n')
	}
	buf.b.WriteString(line)

	text := buf.b.String()
	end := lastTerminator(text)
	if end < 0 {
		return nil
	}

	buf.b.Reset()
	if tail := strings.TrimSpace(text[end+1:]); tail != "" {
		buf.b.WriteString(tail)
	}

	var stmts []string
	for stmt := range parser.Statements(text[:end+1]) {
		stmts = append(stmts, stmt+";")
	}
	return stmts
}

func (buf *Buffer) Pending() bool { return buf.b.Len() > 0 }

func (buf *Buffer) Reset() { buf.b.Reset() }

// StatementComplete checks if we have a terminating ';' outside single
// quotes.
func StatementComplete(s string) bool {
	return lastTerminator(s) >= 0
}

// lastTerminator is the index of the last ';' outside single quotes, or -1.
func lastTerminator(s string) int {
	inQuote := false
	last := -1
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\'':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				last = i
			}
		}
	}
	return last
}

func IsMetaCommand(line string) bool {
	line = strings.TrimSpace(line)
	return strings.HasPrefix(line, "\\") ||
		line == "quit" || line == "exit"
}

// PrintResult writes a statement report the way the console shows it.
func PrintResult(w io.Writer, res *executor.Result) {
	fmt.Fprintln(w, res.String())
	if res.Kind == executor.KindSelected {
		fmt.Fprintf(w, "(%d rows)\n", res.AffectedRows)
	}
}

// Command is a backslash command beyond the built-in ones.
type Command struct {
	Usage string
	Help  string
	Run   func(args []string) error
}

// Shell reads statements with readline and hands complete ones to Exec.
type Shell struct {
	Prompt   string
	Banner   string
	History  *History
	Out      io.Writer
	Exec     func(stmt string) error
	Commands map[string]Command
}

// Run loops until EOF, \q or a command returning ErrQuit.
func (s *Shell) Run() error {
	if s.History == nil {
		s.History = NewHistory("")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.Prompt,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer func() { _ = rl.Close() }()

	if s.Out == nil {
		s.Out = rl.Stdout()
	}

	// preload history into readline so the arrow keys work immediately
	for _, line := range s.History.Lines() {
		_ = rl.SaveHistory(line)
	}

	if s.Banner != "" {
		fmt.Fprintln(s.Out, s.Banner)
	}
	fmt.Fprintln(s.Out, `type \help for help`)

	var buf Buffer
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			// Ctrl+C clears the current buffer
			if buf.Pending() {
				buf.Reset()
				rl.SetPrompt(s.Prompt)
			}
			continue
		}
		if err != nil {
			// EOF
			fmt.Fprintln(s.Out)
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !buf.Pending() && IsMetaCommand(line) {
			_ = rl.SaveHistory(line)
			if err := s.meta(line); err != nil {
				if errors.Is(err, ErrQuit) {
					return nil
				}
				fmt.Fprintf(s.Out, "error: %v\n", err)
			}
			continue
		}

		stmts := buf.Add(line)
		if buf.Pending() {
			rl.SetPrompt(continuationPrompt)
		} else {
			rl.SetPrompt(s.Prompt)
		}

		for _, stmt := range stmts {
			_ = s.History.Append(stmt)
			_ = rl.SaveHistory(CompactOneLine(stmt))

			if err := s.Exec(stmt); err != nil {
				fmt.Fprintf(s.Out, "error: %v\n", err)
			}
		}
	}
}

func (s *Shell) meta(line string) error {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	switch name {
	case "\\q", "quit", "exit":
		return ErrQuit
	case "\\help":
		s.printHelp()
		return nil
	case "\\history":
		n := 50
		if len(args) > 0 {
			v, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("\\history: bad count %q", args[0])
			}
			n = v
		}
		s.History.Print(s.Out, n)
		return nil
	}

	cmd, ok := s.Commands[name]
	if !ok {
		return fmt.Errorf("unknown command: %s", name)
	}
	return cmd.Run(args)
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.Out, "meta commands:")
	fmt.Fprintf(s.Out, "  %-22s %s\n", `\q | quit | exit`, "quit")
	fmt.Fprintf(s.Out, "  %-22s %s\n", `\help`, "show help")
	fmt.Fprintf(s.Out, "  %-22s %s\n", `\history [n]`, "print the last n statements")

	names := make([]string, 0, len(s.Commands))
	for name := range s.Commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd := s.Commands[name]
		usage := cmd.Usage
		if usage == "" {
			usage = name
		}
		fmt.Fprintf(s.Out, "  %-22s %s\n", usage, cmd.Help)
	}

	fmt.Fprintln(s.Out, `
sql:
  end statements with ';'
  multiline is supported (the shell waits until ';')`)
}
