package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"golang.org/x/term"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

// Prompter reads credentials from a terminal or a pipe.
type Prompter struct {
	reader *bufio.Reader
	out    io.Writer
	// fd is the input's file descriptor when it is a terminal, or -1.
	fd          int
	readingLock sync.Mutex
}

// NewPrompter creates a prompter reading from in and writing prompts to out.
func NewPrompter(in io.Reader, out io.Writer) *Prompter {
	if in == nil {
		panic("reader cannot be nil")
	}
	fd := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &Prompter{
		reader: bufio.NewReader(in),
		out:    out,
		fd:     fd,
	}
}

// ReadLine prompts with label and reads one trimmed line, respecting
// context cancellation.
func (p *Prompter) ReadLine(ctx context.Context, label string) (string, error) {
	p.prompt(label)

	type result struct {
		err   error
		value string
	}
	resultCh := make(chan result, 1)

	go func() {
		p.readingLock.Lock()
		defer p.readingLock.Unlock()

		value, err := p.reader.ReadString('\n')
		if errors.Is(err, io.EOF) && value != "" {
			err = nil
		}
		resultCh <- result{value: value, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case res := <-resultCh:
		if res.err != nil {
			return "", res.err
		}
		return strings.TrimSpace(res.value), nil
	}
}

// ReadPassword prompts with label and reads a line without echo when the
// input is a terminal. Piped input is read as a plain line.
func (p *Prompter) ReadPassword(ctx context.Context, label string) (string, error) {
	if p.fd < 0 {
		return p.ReadLine(ctx, label)
	}

	p.prompt(label)
	secret, err := term.ReadPassword(p.fd)
	_, _ = fmt.Fprintln(p.out)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(secret), nil
}

func (p *Prompter) prompt(label string) {
	if p.out != nil && label != "" {
		_, _ = fmt.Fprint(p.out, FormatPrompt(label))
	}
}
