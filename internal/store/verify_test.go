package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/wavefn/internal/ir"
)

func TestVerify_CleanStore(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			tx, err := b.Begin(ctx)
			require.NoError(t, err)
			for i, fn := range []string{"hello", "world"} {
				id, rec := record(fn, authorA)
				require.NoError(t, tx.Insert(ctx, id, rec))
				_, err := tx.AppendEvent(ctx, eventFor(fn, id, rec))
				require.NoError(t, err, "event %d", i)
			}
			require.NoError(t, tx.Commit())

			report, err := Verify(ctx, b, ir.Blake2b256)
			require.NoError(t, err)
			assert.True(t, report.OK())
			assert.Equal(t, 2, report.Records)
			assert.Equal(t, 2, report.Events)
			assert.Equal(t, ir.Blake2b256, report.Hasher)
		})
	}
}

func TestVerify_EmptyStore(t *testing.T) {
	report, err := Verify(context.Background(), NewMemStore(), ir.SHA256)
	require.NoError(t, err)
	assert.True(t, report.OK())
	assert.Zero(t, report.Records)
	assert.NotNil(t, report.Mismatches)
	assert.NotNil(t, report.EventProblems)
}

func TestVerify_WrongHasherReportsMismatch(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id, rec := record("hello", authorA)

			tx, err := b.Begin(ctx)
			require.NoError(t, err)
			require.NoError(t, tx.Insert(ctx, id, rec))
			require.NoError(t, tx.Commit())

			report, err := Verify(ctx, b, ir.SHA256)
			require.NoError(t, err)
			assert.False(t, report.OK())
			require.Len(t, report.Mismatches, 1)
			assert.Equal(t, id, report.Mismatches[0].Stored)
			assert.Equal(t, ir.MustRecordID(ir.SHA256, rec), report.Mismatches[0].Computed)
		})
	}
}

func TestVerify_EventWithoutRecord(t *testing.T) {
	for name, b := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			id, rec := record("orphan", authorB)

			tx, err := b.Begin(ctx)
			require.NoError(t, err)
			_, err = tx.AppendEvent(ctx, eventFor("call-1", id, rec))
			require.NoError(t, err)
			require.NoError(t, tx.Commit())

			report, err := Verify(ctx, b, ir.Blake2b256)
			require.NoError(t, err)
			require.Len(t, report.EventProblems, 1)
			assert.Equal(t, int64(1), report.EventProblems[0].Seq)
			assert.Equal(t, "no record stored at event id", report.EventProblems[0].Reason)
		})
	}
}

func TestVerify_EventPayloadDoesNotMatchID(t *testing.T) {
	b := NewMemStore()
	ctx := context.Background()
	id, rec := record("real", authorA)
	_, other := record("forged", authorA)

	tx, err := b.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Insert(ctx, id, rec))
	_, err = tx.AppendEvent(ctx, eventFor("call-1", id, other))
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	report, err := Verify(ctx, b, ir.Blake2b256)
	require.NoError(t, err)
	require.Len(t, report.EventProblems, 1)
	assert.Contains(t, report.EventProblems[0].Reason, "payload hashes to")
}
