package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"avsser/internal/extract"
)

// terminalPrompter asks overwrite questions on an interactive terminal.
type terminalPrompter struct {
	mu  sync.Mutex
	in  *bufio.Reader
	out io.Writer
}

// newPrompter returns a prompter when in is a terminal, or nil so the
// overwrite gate keeps existing files in unattended runs.
func newPrompter(in io.Reader, out io.Writer) extract.Prompter {
	file, ok := in.(*os.File)
	if !ok || !isTerminal(file.Fd()) {
		return nil
	}
	return &terminalPrompter{in: bufio.NewReader(in), out: out}
}

func isTerminal(fd uintptr) bool {
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func (p *terminalPrompter) Confirm(ctx context.Context, question string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(p.out, "%s [y/N] ", question)
	line, err := p.in.ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return false, nil
		}
		return false, fmt.Errorf("read answer: %w", err)
	}
	return parseAnswer(line), nil
}

func parseAnswer(line string) bool {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}
