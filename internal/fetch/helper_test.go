package fetch

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelperLifecycle(t *testing.T) {
	lockPath := filepath.Join(t.TempDir(), "helper.lock")
	client := New(Options{})

	h := NewHelper(HelperOptions{
		Command:  "sleep 30",
		BaseURL:  "http://localhost:6399/v1",
		Settle:   50 * time.Millisecond,
		LockPath: lockPath,
	}, client)

	require.NoError(t, h.Start(context.Background()))
	assert.True(t, h.Running())
	assert.Equal(t, []string{"http://localhost:6399/v1"}, client.Services())

	second := NewHelper(HelperOptions{Command: "sleep 30", LockPath: lockPath}, nil)
	assert.ErrorIs(t, second.Start(context.Background()), ErrHelperRunning)

	h.Stop()
	assert.False(t, h.Running())
	h.Stop()

	require.NoError(t, second.Start(context.Background()))
	second.Stop()
}

func TestHelperExitDuringStartup(t *testing.T) {
	h := NewHelper(HelperOptions{
		Command:  "true",
		Settle:   2 * time.Second,
		LockPath: filepath.Join(t.TempDir(), "helper.lock"),
	}, nil)

	err := h.Start(context.Background())
	require.Error(t, err)
	assert.False(t, h.Running())
}

func TestHelperBadCommand(t *testing.T) {
	assert.Error(t, NewHelper(HelperOptions{Command: ""}, nil).Start(context.Background()))
	assert.Error(t, NewHelper(HelperOptions{Command: `"unterminated`}, nil).Start(context.Background()))
	assert.Error(t, NewHelper(HelperOptions{Command: "/definitely/not/here"}, nil).Start(context.Background()))
}
