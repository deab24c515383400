package ledger

// bridgeTable stores the full life cycle of a bridge operation.
// Amounts are decimal strings; timestamps are unix milliseconds.
var bridgeTable = `CREATE TABLE IF NOT EXISTS bridge (
	bridgeId CHAR(36) PRIMARY KEY NOT NULL,
	ownerUserId VARCHAR(64) NOT NULL,
	fromChain VARCHAR(16) NOT NULL,
	toChain VARCHAR(16) NOT NULL,
	token VARCHAR(12) NOT NULL,
	fromAddress VARCHAR(62) NOT NULL,
	toAddress VARCHAR(62) NOT NULL,
	status VARCHAR(16) NOT NULL,
	lockAmount VARCHAR(48) NOT NULL,
	releaseAmount VARCHAR(48) NOT NULL,
	lockTxRef VARCHAR(128),
	releaseTxRef VARCHAR(128),
	errorDetail TEXT,
	createdAt BIGINT NOT NULL,
	completedAt BIGINT,
	version BIGINT NOT NULL DEFAULT 0,
	CONSTRAINT chk_status CHECK (status IN ('initiated', 'lock_pending', 'lock_confirmed', 'release_pending', 'completed', 'error')),
	CONSTRAINT chk_chains CHECK (fromChain != toChain),
	CONSTRAINT chk_lockTxRef CHECK (lockTxRef IS NULL OR lockTxRef != ''),
	CONSTRAINT chk_releaseTxRef CHECK (releaseTxRef IS NULL OR releaseTxRef != '')
);
CREATE INDEX IF NOT EXISTS idx_bridge_owner_created ON bridge(ownerUserId, createdAt DESC);
CREATE INDEX IF NOT EXISTS idx_bridge_lockTxRef ON bridge(lockTxRef);
CREATE INDEX IF NOT EXISTS idx_bridge_status ON bridge(status);`

var recordColumns = ` bridgeId, ownerUserId, fromChain, toChain, token, fromAddress, toAddress,
	status, lockAmount, releaseAmount, lockTxRef, releaseTxRef, errorDetail,
	createdAt, completedAt, version `
