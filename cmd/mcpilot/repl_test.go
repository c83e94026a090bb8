package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harunnryd/mcpilot/internal/orchestrator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type echoProcessor struct {
	queries []string
}

func (p *echoProcessor) ProcessQuery(ctx context.Context, query string) *orchestrator.Transcript {
	p.queries = append(p.queries, query)
	return &orchestrator.Transcript{
		QueryID:   "q" + query,
		Query:     query,
		Lines:     []string{"echo: " + query},
		FinalText: "echo: " + query,
		Outcome:   orchestrator.OutcomeAnswered,
	}
}

func TestREPLRunsUntilQuit(t *testing.T) {
	p := &echoProcessor{}
	in := strings.NewReader("hello\n\n  second question  \nQUIT\nnever asked\n")
	var out bytes.Buffer

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, NewREPL(p, in, &out).Run(ctx))

	assert.Equal(t, []string{"hello", "second question"}, p.queries)
	assert.Contains(t, out.String(), "echo: hello")
	assert.Contains(t, out.String(), "echo: second question")
	assert.Contains(t, out.String(), "Type your query or 'quit' to exit.")
}

func TestREPLStopsAtEndOfInput(t *testing.T) {
	p := &echoProcessor{}
	var out bytes.Buffer
	require.NoError(t, NewREPL(p, strings.NewReader("only\n"), &out).Run(context.Background()))
	assert.Equal(t, []string{"only"}, p.queries)
}

func TestREPLSave(t *testing.T) {
	p := &echoProcessor{}
	repl := NewREPL(p, strings.NewReader("a\nb\nquit\n"), &bytes.Buffer{})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, repl.Run(ctx))

	path := filepath.Join(t.TempDir(), "logs", "chat.json")
	require.NoError(t, repl.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var saved transcriptLog
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Equal(t, repl.sessionID, saved.SessionID)
	require.Len(t, saved.Transcripts, 2)
	assert.Equal(t, "echo: b", saved.Transcripts[1].FinalText)

	assert.NoError(t, repl.Save(""))
}

func TestREPLSaveSkipsEmptySession(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chat.json")
	repl := NewREPL(&echoProcessor{}, strings.NewReader(""), &bytes.Buffer{})
	require.NoError(t, repl.Save(path))
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}
