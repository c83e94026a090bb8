package session

import (
	"fmt"
	"net/url"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/shlex"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	ModeStdio = "stdio"
	ModeSSE   = "sse"
	ModeHTTP  = "http"

	stdioScheme = "stdio://"
)

// BuildTransport turns a server target into an MCP transport.
//
//	server.py / server.js     run with python / node over stdio
//	stdio://<command line>    run the command over stdio
//	http(s)://host/path       SSE, or streamable HTTP when mode is "http"
//	anything else             treated as a command line
func BuildTransport(target, mode string) (mcp.Transport, error) {
	target = strings.TrimSpace(target)
	if target == "" {
		return nil, fmt.Errorf("server target is empty")
	}

	lowered := strings.ToLower(target)
	switch {
	case strings.HasPrefix(lowered, "http://"), strings.HasPrefix(lowered, "https://"):
		u, err := url.Parse(target)
		if err != nil || u.Host == "" {
			return nil, fmt.Errorf("invalid server url %q", target)
		}
		if strings.EqualFold(mode, ModeHTTP) {
			return &mcp.StreamableClientTransport{Endpoint: u.String()}, nil
		}
		return &mcp.SSEClientTransport{Endpoint: u.String()}, nil

	case strings.HasPrefix(lowered, stdioScheme):
		return commandTransport(target[len(stdioScheme):])
	}

	if !strings.ContainsAny(target, " \t") {
		switch strings.ToLower(filepath.Ext(target)) {
		case ".py":
			return &mcp.CommandTransport{Command: exec.Command("python", target)}, nil
		case ".js":
			return &mcp.CommandTransport{Command: exec.Command("node", target)}, nil
		}
	}

	return commandTransport(target)
}

func commandTransport(line string) (mcp.Transport, error) {
	args, err := shlex.Split(strings.TrimSpace(line))
	if err != nil {
		return nil, fmt.Errorf("parse server command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("server command is empty")
	}
	return &mcp.CommandTransport{Command: exec.Command(args[0], args[1:]...)}, nil
}
