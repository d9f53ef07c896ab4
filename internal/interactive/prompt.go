// Package interactive provides the prompts used when a command needs an
// answer from the user: confirmations, the source-root path and the
// version bump choice.
package interactive

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/term"
)

var (
	// ErrCancelled is returned when the user declines or input ends.
	ErrCancelled = errors.New("cancelled by user")
	// ErrNotTerminal is returned when an answer is needed but stdin is not
	// a terminal.
	ErrNotTerminal = errors.New("stdin is not a terminal")
)

// Prompter reads answers line by line.
type Prompter struct {
	in      io.Reader
	out     io.Writer
	scanner *bufio.Scanner
}

// NewPrompterWithIO creates a prompter with custom input/output (for testing).
func NewPrompterWithIO(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{
		in:      in,
		out:     out,
		scanner: bufio.NewScanner(in),
	}
}

// IsTerminal checks if f is a terminal (TTY).
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// Interactive reports whether a person can answer: the input is a
// terminal, or it is not a file at all (scripted input in tests).
func (p *Prompter) Interactive() bool {
	f, ok := p.in.(*os.File)
	if !ok {
		return true
	}
	return IsTerminal(f)
}

// ask prints question and returns the trimmed answer. The bool is false
// when input ended.
func (p *Prompter) ask(question string) (string, bool) {
	_, _ = fmt.Fprint(p.out, question)
	if !p.scanner.Scan() {
		_, _ = fmt.Fprintln(p.out)
		return "", false
	}
	return strings.TrimSpace(p.scanner.Text()), true
}

// Confirm asks a yes/no question. An empty answer picks the default; end
// of input always means no.
func (p *Prompter) Confirm(question string, defaultYes bool) bool {
	choices := "[y/N]"
	if defaultYes {
		choices = "[Y/n]"
	}

	for {
		answer, ok := p.ask(fmt.Sprintf("%s %s ", question, choices))
		if !ok {
			return false
		}
		switch strings.ToLower(answer) {
		case "":
			return defaultYes
		case "y", "yes":
			return true
		case "n", "no":
			return false
		default:
			_, _ = fmt.Fprintln(p.out, "Please answer y or n.")
		}
	}
}

// AskPath asks for a directory until exists accepts it. Surrounding quotes
// are stripped and the answer is made absolute. After a missing directory
// the user is asked whether to try again; declining returns ErrCancelled.
func (p *Prompter) AskPath(question string, exists func(string) bool) (string, error) {
	for {
		answer, ok := p.ask(question + " ")
		if !ok {
			return "", ErrCancelled
		}

		cleaned := strings.Trim(answer, `"'`)
		if strings.TrimSpace(cleaned) == "" {
			_, _ = fmt.Fprintln(p.out, "Please enter a valid path.")
			continue
		}

		path, err := filepath.Abs(strings.TrimSpace(cleaned))
		if err != nil {
			return "", err
		}
		if exists(path) {
			return path, nil
		}

		_, _ = fmt.Fprintf(p.out, "Directory not found: %s\n", path)
		if !p.Confirm("Try again?", true) {
			return "", ErrCancelled
		}
	}
}

// AskBump shows the bump menu for current and returns the raw choice:
// a bump kind or an explicit version, validated by the caller.
func (p *Prompter) AskBump(current string, preview func(kind string) string) (string, error) {
	_, _ = fmt.Fprintf(p.out, "Current version: %s\n", current)
	_, _ = fmt.Fprintln(p.out, "Kind of update:")
	_, _ = fmt.Fprintf(p.out, "    patch (%s) -> type 1 or p\n", preview("patch"))
	_, _ = fmt.Fprintf(p.out, "    minor (%s) -> type 2 or min\n", preview("minor"))
	_, _ = fmt.Fprintf(p.out, "    major (%s) -> type 3 or maj\n", preview("major"))
	_, _ = fmt.Fprintln(p.out, "    or a version number (e.g. 2.0.0)")

	answer, ok := p.ask("Enter choice: ")
	if !ok || answer == "" {
		return "", ErrCancelled
	}
	return answer, nil
}
