package ledger

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) *Ledger {
	sqlDB := getMemoryDB()
	l, err := NewLedger(sqlDB)
	require.NoError(t, err)
	t.Cleanup(func() {
		l.Close()
		sqlDB.Close()
	})
	return l
}

func TestCreateAndGet(t *testing.T) {
	l := newTestLedger(t)

	rec, err := l.Create(RandCreateParams("user-1"))
	require.NoError(t, err)
	assert.NotEmpty(t, rec.BridgeID)
	assert.Equal(t, StatusInitiated, rec.Status)
	assert.Empty(t, rec.LockTxRef)
	assert.Nil(t, rec.CompletedAt)

	got, err := l.Get(rec.BridgeID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, rec.BridgeID, got.BridgeID)
	assert.True(t, got.LockAmount.Equal(rec.LockAmount))
	assert.True(t, got.ReleaseAmount.Equal(rec.ReleaseAmount))
}

func TestGetOwnershipOpacity(t *testing.T) {
	l := newTestLedger(t)

	rec, err := l.Create(RandCreateParams("user-1"))
	require.NoError(t, err)

	// Same error for someone else's record and for a record that does
	// not exist at all.
	_, errOther := l.Get(rec.BridgeID, "user-2")
	_, errMissing := l.Get("no-such-id", "user-2")
	assert.ErrorIs(t, errOther, ErrNotFound)
	assert.ErrorIs(t, errMissing, ErrNotFound)
	assert.Equal(t, errOther, errMissing)
}

func TestUpdateHappyPath(t *testing.T) {
	l := newTestLedger(t)

	rec, err := l.Create(RandCreateParams("user-1"))
	require.NoError(t, err)

	rec, err = l.Update(rec.BridgeID, func(r *BridgeRecord) error {
		r.Status = StatusLockPending
		r.LockTxRef = "lock-tx-1"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusLockPending, rec.Status)
	assert.Equal(t, int64(1), rec.Version)

	rec, err = l.Update(rec.BridgeID, func(r *BridgeRecord) error {
		r.Status = StatusLockConfirmed
		return nil
	})
	require.NoError(t, err)

	rec, err = l.Update(rec.BridgeID, func(r *BridgeRecord) error {
		r.Status = StatusReleasePending
		r.ReleaseTxRef = "release-tx-1"
		return nil
	})
	require.NoError(t, err)

	now := time.Now().UTC()
	rec, err = l.Update(rec.BridgeID, func(r *BridgeRecord) error {
		r.Status = StatusCompleted
		r.CompletedAt = &now
		return nil
	})
	require.NoError(t, err)

	got, err := l.Get(rec.BridgeID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)
	assert.Equal(t, "lock-tx-1", got.LockTxRef)
	assert.Equal(t, "release-tx-1", got.ReleaseTxRef)
	require.NotNil(t, got.CompletedAt)
	assert.False(t, got.CompletedAt.Before(got.CreatedAt))
}

func TestStaleWriteNeverClobbersTerminal(t *testing.T) {
	l := newTestLedger(t)

	rec, err := l.Create(RandCreateParams("user-1"))
	require.NoError(t, err)

	for _, s := range []Status{StatusLockPending, StatusLockConfirmed, StatusReleasePending} {
		_, err = l.Update(rec.BridgeID, func(r *BridgeRecord) error {
			r.Status = s
			return nil
		})
		require.NoError(t, err)
	}
	now := time.Now().UTC()
	_, err = l.Update(rec.BridgeID, func(r *BridgeRecord) error {
		r.Status = StatusCompleted
		r.CompletedAt = &now
		return nil
	})
	require.NoError(t, err)

	// A late LockPending write arrives after completion. It must be
	// dropped without error and without effect.
	got, err := l.Update(rec.BridgeID, func(r *BridgeRecord) error {
		r.Status = StatusLockPending
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, got.Status)

	stored, err := l.Get(rec.BridgeID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
}

func TestInvalidForwardJump(t *testing.T) {
	l := newTestLedger(t)

	rec, err := l.Create(RandCreateParams("user-1"))
	require.NoError(t, err)

	_, err = l.Update(rec.BridgeID, func(r *BridgeRecord) error {
		r.Status = StatusCompleted
		return nil
	})
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestErrorReachableFromAnyNonTerminal(t *testing.T) {
	l := newTestLedger(t)

	rec, err := l.Create(RandCreateParams("user-1"))
	require.NoError(t, err)

	_, err = l.Update(rec.BridgeID, func(r *BridgeRecord) error {
		r.Status = StatusLockPending
		r.LockTxRef = "lock-tx-1"
		return nil
	})
	require.NoError(t, err)

	got, err := l.Update(rec.BridgeID, func(r *BridgeRecord) error {
		r.Status = StatusError
		r.ErrorDetail = "release leg failed"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, StatusError, got.Status)
	// The executed lock stays visible in the error state.
	assert.Equal(t, "lock-tx-1", got.LockTxRef)
}

func TestConcurrentUpdatesSingleWinner(t *testing.T) {
	l := newTestLedger(t)

	rec, err := l.Create(RandCreateParams("user-1"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = l.Update(rec.BridgeID, func(r *BridgeRecord) error {
				r.Status = StatusLockPending
				r.LockTxRef = "lock-tx-1"
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := l.Get(rec.BridgeID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, StatusLockPending, got.Status)
}

func TestListByOwnerNewestFirst(t *testing.T) {
	l := newTestLedger(t)

	var ids []string
	for i := 0; i < 3; i++ {
		rec, err := l.Create(RandCreateParams("user-1"))
		require.NoError(t, err)
		ids = append(ids, rec.BridgeID)
		time.Sleep(2 * time.Millisecond)
	}
	_, err := l.Create(RandCreateParams("user-2"))
	require.NoError(t, err)

	recs, err := l.ListByOwner("user-1")
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, ids[2], recs[0].BridgeID)
	assert.Equal(t, ids[0], recs[2].BridgeID)
	for i := 1; i < len(recs); i++ {
		assert.False(t, recs[i-1].CreatedAt.Before(recs[i].CreatedAt))
	}
}

func TestListByAddress(t *testing.T) {
	l := newTestLedger(t)

	p := RandCreateParams("user-1")
	rec, err := l.Create(p)
	require.NoError(t, err)

	other := RandCreateParams("user-1")
	other.FromAddress = "GBLTXF46JTCGMWFJASQLVXMMA36IPYTDCN4EN73HRXCGSZGW4TSHXXXX"
	other.ToAddress = "0x0000000000000000000000000000000000000001"
	_, err = l.Create(other)
	require.NoError(t, err)

	recs, err := l.ListByAddress("user-1", p.FromAddress)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rec.BridgeID, recs[0].BridgeID)
}

func TestCountByLockTxRef(t *testing.T) {
	l := newTestLedger(t)

	recA, err := l.Create(RandCreateParams("user-1"))
	require.NoError(t, err)
	recB, err := l.Create(RandCreateParams("user-1"))
	require.NoError(t, err)

	for _, id := range []string{recA.BridgeID, recB.BridgeID} {
		_, err = l.Update(id, func(r *BridgeRecord) error {
			r.Status = StatusLockPending
			r.LockTxRef = "shared-lock-tx"
			return nil
		})
		require.NoError(t, err)
	}

	n, err := l.CountByLockTxRef("shared-lock-tx", recA.BridgeID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = l.CountByLockTxRef("unique-lock-tx", recA.BridgeID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestListUnfinished(t *testing.T) {
	l := newTestLedger(t)

	rec, err := l.Create(RandCreateParams("user-1"))
	require.NoError(t, err)
	done, err := l.Create(RandCreateParams("user-1"))
	require.NoError(t, err)

	for _, s := range []Status{StatusLockPending, StatusLockConfirmed, StatusReleasePending, StatusCompleted} {
		_, err = l.Update(done.BridgeID, func(r *BridgeRecord) error {
			r.Status = s
			if s == StatusCompleted {
				now := time.Now().UTC()
				r.CompletedAt = &now
			}
			if s == StatusLockPending {
				r.LockTxRef = "lock-tx"
			}
			if s == StatusReleasePending {
				r.ReleaseTxRef = "release-tx"
			}
			return nil
		})
		require.NoError(t, err)
	}

	recs, err := l.ListUnfinished()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rec.BridgeID, recs[0].BridgeID)
}

func TestCountByStatus(t *testing.T) {
	l := newTestLedger(t)

	_, err := l.Create(RandCreateParams("user-1"))
	require.NoError(t, err)
	_, err = l.Create(RandCreateParams("user-2"))
	require.NoError(t, err)

	counts, err := l.CountByStatus()
	require.NoError(t, err)
	assert.Equal(t, 2, counts[StatusInitiated])
}
