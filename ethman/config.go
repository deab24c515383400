package ethman

// Config connects an Ethman to one EVM chain.
type Config struct {
	// URL is the URL of the JSON-RPC node.
	URL string

	// ChainID of the target network, used for transaction signing.
	ChainID int64

	// Confirmations is the number of blocks a transaction must be
	// buried under before it counts as confirmed.
	Confirmations uint64

	// PrivateKeys are hex-encoded keys of the accounts this instance
	// may spend from. Transfers from any other address are rejected.
	PrivateKeys []string
}
