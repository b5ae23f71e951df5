package service

import (
	"context"
	"errors"
	"testing"

	"wellness-bot/internal/database/dbtest"
	"wellness-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaffMembers(t *testing.T) {
	ctx := context.Background()
	svc := NewStaffService(dbtest.Open(t))

	role, err := svc.GetRole(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, role)

	assert.ErrorIs(t, svc.SetMember(ctx, 1, "owner", "", "", 9), ErrInvalidInput)

	require.NoError(t, svc.SetMember(ctx, 1, models.RoleMod, "alice", "Alice", 9))
	require.NoError(t, svc.SetMember(ctx, 2, models.RoleAdmin, "bob", "Bob", 9))
	require.NoError(t, svc.SetMember(ctx, 1, models.RoleMod, "alice", "Alice A", 2))

	role, err = svc.GetRole(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)

	members, err := svc.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, int64(2), members[0].UserID, "admins first")
	assert.Equal(t, "Alice A", members[1].FullName)

	removed, err := svc.RemoveMember(ctx, 2)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = svc.RemoveMember(ctx, 2)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestDirectory(t *testing.T) {
	ctx := context.Background()
	svc := NewDirectoryService(dbtest.Open(t))

	assert.Equal(t, "55", svc.DisplayName(ctx, 55))

	require.NoError(t, svc.SaveUser(ctx, 55, "@Kitty", "Kit", "Ten"))
	assert.Equal(t, "Kit Ten", svc.DisplayName(ctx, 55))

	id, err := svc.GetUserIDByUsername(ctx, "@kitty")
	require.NoError(t, err)
	assert.Equal(t, int64(55), id)

	require.NoError(t, svc.SaveUser(ctx, 55, "cat", "", ""))
	assert.Equal(t, "cat", svc.DisplayName(ctx, 55))

	_, err = svc.GetUserIDByUsername(ctx, "kitty")
	assert.ErrorIs(t, err, ErrNotFound)

	// id 0 is never stored
	require.NoError(t, svc.SaveUser(ctx, 0, "ghost", "", ""))
	_, err = svc.GetUserIDByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAuditLog(t *testing.T) {
	ctx := context.Background()
	svc := NewAuditService(dbtest.Open(t))

	svc.LogOperation(ctx, models.OpWarn, 5, 1, "rule=spam", nil)
	svc.LogOperation(ctx, models.OpWarn, 5, 1, "rule=spam", errors.New("boom"))
	svc.LogOperation(ctx, models.OpAddRule, 0, 1, "spam", nil)

	logs, err := svc.GetUserLogs(ctx, 5, 10)
	require.NoError(t, err)
	assert.Len(t, logs, 2)

	failed, err := svc.GetFailedLogs(ctx, 10)
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, "boom", failed[0].ErrorMsg)

	counts, err := svc.CountByType(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[models.OpWarn])
	assert.Equal(t, int64(1), counts[models.OpAddRule])
}
