package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/student-console/internal/repository"
)

func TestSessionLoadRoundTrip(t *testing.T) {
	repo := repository.NewMemoryStateRepository()
	sessions := NewSessionService(repo, nil, time.Hour, zap.NewNop())
	ctx := context.Background()

	console, found, err := sessions.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.NotNil(t, console)

	console.Shell.FormOpen = true
	require.NoError(t, sessions.Save(ctx, "s1", console))

	console, found, err = sessions.Load(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.True(t, console.Shell.FormOpen)
}

func TestSessionLoadDropsUnreadableState(t *testing.T) {
	repo := repository.NewMemoryStateRepository()
	sessions := NewSessionService(repo, nil, time.Hour, zap.NewNop())
	ctx := context.Background()

	// a JSON string cannot decode into a console
	require.NoError(t, repo.Set(ctx, "s1", "not-an-object", time.Hour))
	require.Equal(t, 1, repo.Len())

	console, found, err := sessions.Load(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, console.Shell.FormOpen)
	assert.Zero(t, repo.Len())
}
