package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/junyeong-ai/mcp-atlassian/internal/mcp"
)

const (
	// maxEmptyReads bounds how many consecutive empty EOF reads are
	// tolerated before the loop treats the input as closed. Some hosts
	// briefly report EOF on an idle pipe that is still alive.
	maxEmptyReads = 3
	retryDelay    = 100 * time.Millisecond
)

// Handler processes a single inbound message. A nil response means
// nothing is written back.
type Handler interface {
	HandleMessage(ctx context.Context, line []byte) (*mcp.Response, error)
}

// Stdio runs the newline-delimited JSON-RPC loop over a reader/writer
// pair, normally the process's stdin and stdout. All diagnostics go to
// the logger; the writer carries protocol frames only.
type Stdio struct {
	in      io.Reader
	out     io.Writer
	handler Handler
	logger  *slog.Logger
}

func NewStdio(handler Handler, logger *slog.Logger) *Stdio {
	return NewStdioWith(os.Stdin, os.Stdout, handler, logger)
}

// NewStdioWith is the injectable form used by tests.
func NewStdioWith(in io.Reader, out io.Writer, handler Handler, logger *slog.Logger) *Stdio {
	if logger == nil {
		logger = slog.Default()
	}
	return &Stdio{in: in, out: out, handler: handler, logger: logger.With("component", "stdio")}
}

type readResult struct {
	line string
	err  error
}

// Run serves until the input closes, the context is cancelled, or a
// read fails with something other than EOF.
func (t *Stdio) Run(ctx context.Context) error {
	t.logger.Info("Starting stdio transport")

	lines := make(chan readResult)
	go t.readLoop(ctx, lines)

	writer := bufio.NewWriter(t.out)

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("Stdio transport stopping", "reason", ctx.Err())
			return nil
		case res, ok := <-lines:
			if !ok {
				t.logger.Info("Input closed, shutting down")
				return nil
			}
			if res.err != nil {
				return fmt.Errorf("read stdin: %w", res.err)
			}

			line := strings.TrimSpace(res.line)
			if line == "" {
				continue
			}

			resp, err := t.handler.HandleMessage(ctx, []byte(line))
			if err != nil {
				t.logger.Error("Error handling message", "error", err)
				resp = mcp.NewErrorResponse(nil, mcp.InternalError(err.Error()))
			}
			if resp == nil {
				continue
			}

			if err := t.write(writer, resp); err != nil {
				return fmt.Errorf("write stdout: %w", err)
			}
		}
	}
}

func (t *Stdio) readLoop(ctx context.Context, lines chan<- readResult) {
	defer close(lines)

	reader := bufio.NewReader(t.in)
	emptyReads := 0

	for {
		line, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			select {
			case lines <- readResult{err: err}:
			case <-ctx.Done():
			}
			return
		}

		if line != "" {
			emptyReads = 0
			select {
			case lines <- readResult{line: line}:
			case <-ctx.Done():
				return
			}
		}

		if err == io.EOF {
			emptyReads++
			if emptyReads > maxEmptyReads {
				return
			}
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (t *Stdio) write(w *bufio.Writer, resp *mcp.Response) error {
	out, err := json.Marshal(resp)
	if err != nil {
		// Response came from our own handlers; a marshal failure here is
		// a bug, not a peer error. Log and keep serving.
		t.logger.Error("Failed to marshal response", "error", err)
		return nil
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	if err := w.WriteByte('\n'); err != nil {
		return err
	}
	return w.Flush()
}
