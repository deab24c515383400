package ledger

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"github.com/stellargate-io/bridge-go/database"
)

// casRetries bounds the optimistic-concurrency retry loop in Update.
const casRetries = 5

// Ledger is the authoritative store of bridge records. It is the only
// component that writes them; everything else holds transient copies.
type Ledger struct {
	stmtCache *database.StmtCache
}

func NewLedger(db *sql.DB) (*Ledger, error) {
	if _, err := db.Exec(bridgeTable); err != nil {
		return nil, err
	}
	return &Ledger{stmtCache: database.NewStmtCache(db)}, nil
}

func (l *Ledger) Close() {
	l.stmtCache.Clear()
}

// Create persists a new record in Initiated and returns it. The
// bridgeId is a fresh UUID, collision-resistant across processes.
func (l *Ledger) Create(p CreateParams) (*BridgeRecord, error) {
	rec := &BridgeRecord{
		BridgeID:      uuid.NewString(),
		OwnerUserID:   p.OwnerUserID,
		FromChain:     p.FromChain,
		ToChain:       p.ToChain,
		Token:         p.Token,
		FromAddress:   p.FromAddress,
		ToAddress:     p.ToAddress,
		Status:        StatusInitiated,
		LockAmount:    p.LockAmount,
		ReleaseAmount: p.ReleaseAmount,
		CreatedAt:     time.Now().UTC(),
	}

	query := `INSERT INTO bridge (` + recordColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := l.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}

	if _, err := stmt.Exec(
		rec.BridgeID, rec.OwnerUserID, rec.FromChain, rec.ToChain, rec.Token,
		rec.FromAddress, rec.ToAddress, string(rec.Status),
		rec.LockAmount.String(), rec.ReleaseAmount.String(),
		nil, nil, nil,
		rec.CreatedAt.UnixMilli(), nil, rec.Version,
	); err != nil {
		return nil, err
	}
	return rec, nil
}

// Get returns the record owned by ownerUserID. An unknown bridgeId and
// a bridgeId owned by someone else both return ErrNotFound with
// identical shape; existence must not leak across owners.
func (l *Ledger) Get(bridgeID, ownerUserID string) (*BridgeRecord, error) {
	query := `SELECT` + recordColumns + `FROM bridge WHERE bridgeId = ? AND ownerUserId = ?`
	stmt, err := l.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}
	return scanRecord(stmt.QueryRow(bridgeID, ownerUserID))
}

// getAny bypasses the ownership scope. Internal use only: the
// orchestrator's leg goroutines and Update already know the record.
func (l *Ledger) getAny(bridgeID string) (*BridgeRecord, error) {
	query := `SELECT` + recordColumns + `FROM bridge WHERE bridgeId = ?`
	stmt, err := l.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}
	return scanRecord(stmt.QueryRow(bridgeID))
}

// Update applies mutate to the current record under a version
// compare-and-swap.
//
// Status rules enforced here, not in callers:
//   - a terminal record never changes again; the stale write is
//     dropped and the stored record returned
//   - a backward transition (older status arriving late) is dropped
//     the same way
//   - an illegal forward jump returns ErrInvalidTransition
//
// Only status, tx refs, errorDetail and completedAt are writable.
func (l *Ledger) Update(bridgeID string, mutate func(*BridgeRecord) error) (*BridgeRecord, error) {
	for attempt := 0; attempt < casRetries; attempt++ {
		cur, err := l.getAny(bridgeID)
		if err != nil {
			return nil, err
		}

		next := cur.clone()
		if err := mutate(next); err != nil {
			return nil, err
		}

		if next.Status != cur.Status {
			if cur.Status.Terminal() || next.Status.rank() <= cur.Status.rank() {
				logger.WithFields(logger.Fields{
					"bridgeId": bridgeID,
					"stored":   cur.Status,
					"stale":    next.Status,
				}).Warn("dropping stale bridge status write")
				return cur, nil
			}
			if !ValidTransition(cur.Status, next.Status) {
				return nil, ErrInvalidTransition
			}
		}

		query := `UPDATE bridge
			SET status = ?, lockTxRef = ?, releaseTxRef = ?, errorDetail = ?, completedAt = ?, version = version + 1
			WHERE bridgeId = ? AND version = ?`
		stmt, err := l.stmtCache.Prepare(query)
		if err != nil {
			return nil, err
		}

		res, err := stmt.Exec(
			string(next.Status),
			nullable(next.LockTxRef), nullable(next.ReleaseTxRef), nullable(next.ErrorDetail),
			nullableMilli(next.CompletedAt),
			bridgeID, cur.Version,
		)
		if err != nil {
			return nil, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, err
		}
		if n == 1 {
			next.Version = cur.Version + 1
			return next, nil
		}
		// Lost the race; re-read and re-apply.
	}
	return nil, ErrUpdateConflict
}

// ListByOwner returns all records of one owner, newest first.
func (l *Ledger) ListByOwner(ownerUserID string) ([]*BridgeRecord, error) {
	query := `SELECT` + recordColumns + `FROM bridge WHERE ownerUserId = ? ORDER BY createdAt DESC, bridgeId`
	stmt, err := l.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(ownerUserID)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

// ListByAddress returns the owner's records touching the address on
// either side, newest first.
func (l *Ledger) ListByAddress(ownerUserID, address string) ([]*BridgeRecord, error) {
	query := `SELECT` + recordColumns + `FROM bridge
		WHERE ownerUserId = ? AND (fromAddress = ? OR toAddress = ?)
		ORDER BY createdAt DESC, bridgeId`
	stmt, err := l.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query(ownerUserID, address, address)
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

// ListUnfinished returns every non-terminal record, oldest first, so
// the orchestrator can resume interrupted bridges after a restart.
func (l *Ledger) ListUnfinished() ([]*BridgeRecord, error) {
	query := `SELECT` + recordColumns + `FROM bridge
		WHERE status NOT IN ('completed', 'error')
		ORDER BY createdAt ASC, bridgeId`
	stmt, err := l.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query()
	if err != nil {
		return nil, err
	}
	return scanRecords(rows)
}

// CountByLockTxRef counts records other than excludeBridgeID sharing
// the lock reference. Non-zero means a double spend.
func (l *Ledger) CountByLockTxRef(lockTxRef, excludeBridgeID string) (int, error) {
	query := `SELECT COUNT(*) FROM bridge WHERE lockTxRef = ? AND bridgeId != ?`
	stmt, err := l.stmtCache.Prepare(query)
	if err != nil {
		return 0, err
	}
	var n int
	if err := stmt.QueryRow(lockTxRef, excludeBridgeID).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// CountByStatus returns record counts grouped by status.
func (l *Ledger) CountByStatus() (map[Status]int, error) {
	query := `SELECT status, COUNT(*) FROM bridge GROUP BY status`
	stmt, err := l.stmtCache.Prepare(query)
	if err != nil {
		return nil, err
	}
	rows, err := stmt.Query()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[Status]int{}
	for rows.Next() {
		var s string
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[Status(s)] = n
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*BridgeRecord, error) {
	var (
		rec          BridgeRecord
		status       string
		lockAmount   string
		releaseAmt   string
		lockTxRef    sql.NullString
		releaseTxRef sql.NullString
		errorDetail  sql.NullString
		createdAt    int64
		completedAt  sql.NullInt64
	)
	err := row.Scan(
		&rec.BridgeID, &rec.OwnerUserID, &rec.FromChain, &rec.ToChain, &rec.Token,
		&rec.FromAddress, &rec.ToAddress, &status, &lockAmount, &releaseAmt,
		&lockTxRef, &releaseTxRef, &errorDetail, &createdAt, &completedAt, &rec.Version,
	)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rec.Status = Status(status)
	if rec.LockAmount, err = decimal.NewFromString(lockAmount); err != nil {
		return nil, err
	}
	if rec.ReleaseAmount, err = decimal.NewFromString(releaseAmt); err != nil {
		return nil, err
	}
	rec.LockTxRef = lockTxRef.String
	rec.ReleaseTxRef = releaseTxRef.String
	rec.ErrorDetail = errorDetail.String
	rec.CreatedAt = time.UnixMilli(createdAt).UTC()
	if completedAt.Valid {
		t := time.UnixMilli(completedAt.Int64).UTC()
		rec.CompletedAt = &t
	}
	return &rec, nil
}

func scanRecords(rows *sql.Rows) ([]*BridgeRecord, error) {
	defer rows.Close()

	var out []*BridgeRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func nullableMilli(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UnixMilli()
}
