package activity

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"cryptex-node/types"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

func newTestActivity(t *testing.T) *ActivitySvc {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc, err := NewActivitySvc(db)
	require.NoError(t, err)
	return svc
}

func TestAppendAssignsIncreasingSeq(t *testing.T) {
	ctx := context.Background()
	svc := newTestActivity(t)

	var last int64
	for i := 0; i < 5; i++ {
		seq, err := svc.Append(ctx, &types.ActivityEntry{
			Kind:    types.ActivityRegister,
			Asset:   "a.txt",
			From:    types.ZeroAddress,
			To:      "0xaaa0000000000000000000000000000000000001",
			Outcome: types.OutcomeSuccess,
			Address: "0xaaa0000000000000000000000000000000000001",
		})
		require.NoError(t, err)
		require.Greater(t, seq, last)
		last = seq
	}
}

func TestAppendRejectsUnknownEnums(t *testing.T) {
	ctx := context.Background()
	svc := newTestActivity(t)

	_, err := svc.Append(ctx, &types.ActivityEntry{
		Kind:    types.ActivityKind("burn"),
		Asset:   "a.txt",
		Outcome: types.OutcomeSuccess,
	})
	require.ErrorIs(t, err, types.ErrInvalidActivityEntry)

	_, err = svc.Append(ctx, &types.ActivityEntry{
		Kind:    types.ActivityVerify,
		Asset:   "a.txt",
		Outcome: types.ActivityOutcome("maybe"),
	})
	require.ErrorIs(t, err, types.ErrInvalidActivityEntry)
}

func TestListByAddressNewestFirst(t *testing.T) {
	ctx := context.Background()
	svc := newTestActivity(t)

	actor := "0xAAA0000000000000000000000000000000000001"
	for _, kind := range []types.ActivityKind{types.ActivityRegister, types.ActivityVerify, types.ActivityTransfer} {
		_, err := svc.Append(ctx, &types.ActivityEntry{
			Kind:    kind,
			Asset:   "a.txt",
			Outcome: types.OutcomeSuccess,
			Address: actor,
		})
		require.NoError(t, err)
	}
	_, err := svc.Append(ctx, &types.ActivityEntry{
		Kind:    types.ActivityRegister,
		Asset:   "other.txt",
		Outcome: types.OutcomeFailure,
		Address: "0xbbb0000000000000000000000000000000000002",
	})
	require.NoError(t, err)

	entries, err := svc.ListByAddress(ctx, actor, 0)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, types.ActivityTransfer, entries[0].Kind)
	require.Equal(t, types.ActivityRegister, entries[2].Kind)
	for i := 1; i < len(entries); i++ {
		require.Greater(t, entries[i-1].Seq, entries[i].Seq)
	}

	entries, err = svc.ListByAddress(ctx, actor, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
}
