package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harunnryd/mcpilot/internal/logger"
	"github.com/harunnryd/mcpilot/internal/orchestrator"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"
)

const quitCommand = "quit"

// QueryProcessor answers one query.
type QueryProcessor interface {
	ProcessQuery(ctx context.Context, query string) *orchestrator.Transcript
}

type REPL struct {
	processor   QueryProcessor
	in          io.Reader
	out         io.Writer
	sessionID   string
	startedAt   time.Time
	transcripts []*orchestrator.Transcript
}

func NewREPL(processor QueryProcessor, in io.Reader, out io.Writer) *REPL {
	return &REPL{
		processor: processor,
		in:        in,
		out:       out,
		sessionID: uuid.NewString(),
		startedAt: time.Now(),
	}
}

// Run reads queries until quit, end of input or ctx cancellation.
func (r *REPL) Run(ctx context.Context) error {
	ctx = logger.WithSessionID(ctx, r.sessionID)

	fmt.Fprintln(r.out, "\nmcpilot chat started!")
	fmt.Fprintf(r.out, "Type your query or '%s' to exit.\n", quitCommand)

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r.in)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(r.out, "\nQuery: ")

		var line string
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			return nil
		case line = <-lines:
		}

		query := strings.TrimSpace(line)
		if query == "" {
			continue
		}
		if strings.EqualFold(query, quitCommand) {
			return nil
		}

		tr := r.processor.ProcessQuery(ctx, query)
		r.transcripts = append(r.transcripts, tr)
		fmt.Fprintln(r.out, "\n"+tr.Render())
	}
}

type transcriptLog struct {
	SessionID   string                     `json:"session_id"`
	StartedAt   time.Time                  `json:"started_at"`
	Transcripts []*orchestrator.Transcript `json:"transcripts"`
}

// Save writes every transcript of the session to path, replacing the file
// atomically.
func (r *REPL) Save(path string) error {
	if path == "" || len(r.transcripts) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create transcript dir: %w", err)
	}

	data, err := json.MarshalIndent(transcriptLog{
		SessionID:   r.sessionID,
		StartedAt:   r.startedAt,
		Transcripts: r.transcripts,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode transcripts: %w", err)
	}
	return atomic.WriteFile(path, bytes.NewReader(data))
}
