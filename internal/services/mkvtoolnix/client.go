package mkvtoolnix

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"avsser/internal/services"
)

const component = "mkvtoolnix"

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client wraps mkvmerge and mkvextract invocations.
type Client struct {
	mkvmerge   string
	mkvextract string
	exec       Executor
}

// New constructs a client for the given binaries.
func New(mkvmerge, mkvextract string, opts ...Option) (*Client, error) {
	mkvmerge = strings.TrimSpace(mkvmerge)
	mkvextract = strings.TrimSpace(mkvextract)
	if mkvmerge == "" {
		return nil, errors.New("mkvmerge binary required")
	}
	if mkvextract == "" {
		return nil, errors.New("mkvextract binary required")
	}
	client := &Client{
		mkvmerge:   mkvmerge,
		mkvextract: mkvextract,
		exec:       commandExecutor{},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Identify runs `mkvmerge -J` against path and decodes the result.
func (c *Client) Identify(ctx context.Context, path string) (*Identification, error) {
	args := []string{"-J", path}
	out, err := c.exec.Run(ctx, c.mkvmerge, args)
	if err != nil {
		return nil, invocationError("identify", c.mkvmerge, err)
	}
	ident, err := ParseIdentification(out)
	if err != nil {
		return nil, services.Wrap(services.ErrParse, component, "identify", "decode mkvmerge output for "+path, err)
	}
	return ident, nil
}

// ExtractTrack writes track id of input to output.
func (c *Client) ExtractTrack(ctx context.Context, input string, id int, output string) error {
	args := []string{input, "tracks", strconv.Itoa(id) + ":" + output}
	if _, err := c.exec.Run(ctx, c.mkvextract, args); err != nil {
		return invocationError("extract track", c.mkvextract, err)
	}
	return nil
}

// ExtractAttachment writes attachment id of input to output.
func (c *Client) ExtractAttachment(ctx context.Context, input string, id int, output string) error {
	args := []string{input, "attachments", strconv.Itoa(id) + ":" + output}
	if _, err := c.exec.Run(ctx, c.mkvextract, args); err != nil {
		return invocationError("extract attachment", c.mkvextract, err)
	}
	return nil
}

func invocationError(operation, binary string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	message := "run " + binary
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.NotFound() {
		message = fmt.Sprintf("%s not found; install mkvtoolnix or set [tools] in config", binary)
	}
	return services.Wrap(services.ErrToolInvocation, component, operation, message, err)
}
