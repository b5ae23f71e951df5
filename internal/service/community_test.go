package service

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"wellness-bot/internal/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCommunity(t *testing.T, gifDir string) *CommunityService {
	t.Helper()
	userData := NewUserDataService(dbtest.Open(t))
	return NewCommunityService(userData, gifDir).WithRand(rand.New(rand.NewSource(1)))
}

func TestUwuLockToggle(t *testing.T) {
	ctx := context.Background()
	svc := newCommunity(t, t.TempDir())

	locked, err := svc.IsUwuLocked(ctx, 7)
	require.NoError(t, err)
	assert.False(t, locked)

	changed, err := svc.SetUwuLocked(ctx, 7, true)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = svc.SetUwuLocked(ctx, 7, true)
	require.NoError(t, err)
	assert.False(t, changed)

	locked, err = svc.IsUwuLocked(ctx, 7)
	require.NoError(t, err)
	assert.True(t, locked)

	changed, err = svc.SetUwuLocked(ctx, 7, false)
	require.NoError(t, err)
	assert.True(t, changed)

	locked, err = svc.IsUwuLocked(ctx, 7)
	require.NoError(t, err)
	assert.False(t, locked)
}

func TestUwuify(t *testing.T) {
	svc := newCommunity(t, t.TempDir())

	out := svc.Uwuify("really lovely\n\nhello")
	assert.NotContains(t, out, "r")
	assert.NotContains(t, out, "l")
	assert.Contains(t, out, "\n\n")
}

func TestRecordInteraction(t *testing.T) {
	ctx := context.Background()
	svc := newCommunity(t, t.TempDir())

	hug, ok := GifActionFor("hug")
	require.True(t, ok)
	bonk, ok := GifActionFor("bonk")
	require.True(t, ok)

	require.NoError(t, svc.RecordInteraction(ctx, 1, 2, hug))
	require.NoError(t, svc.RecordInteraction(ctx, 1, 2, hug))
	require.NoError(t, svc.RecordInteraction(ctx, 2, 1, bonk))

	giver, err := svc.GetGifStats(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, giver.Given(hug))
	assert.Equal(t, 1, giver.Received(bonk))
	given, received := giver.Totals()
	assert.Equal(t, 2, given)
	assert.Equal(t, 1, received)

	receiver, err := svc.GetGifStats(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, receiver["hugsReceived"])
	assert.Equal(t, 1, receiver["bonksGiven"])

	empty, err := svc.GetGifStats(ctx, 3)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRandomGif(t *testing.T) {
	dir := t.TempDir()
	svc := newCommunity(t, dir)
	hug, _ := GifActionFor("hug")

	assert.Empty(t, svc.RandomGif(hug), "missing folder")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "hug"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hug", "notes.txt"), []byte("x"), 0o644))
	assert.Empty(t, svc.RandomGif(hug), "no images")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "hug", "a.GIF"), []byte("x"), 0o644))
	assert.Equal(t, filepath.Join(dir, "hug", "a.GIF"), svc.RandomGif(hug))
}
