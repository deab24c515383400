package stellarman

import "time"

// Config connects a Stellarman to one Horizon instance.
type Config struct {
	// HorizonURL is the base URL of the Horizon API, without a
	// trailing slash.
	HorizonURL string

	// NetworkPassphrase identifies the Stellar network transactions
	// are signed for.
	NetworkPassphrase string

	// BaseFee is the per-operation fee in stroops.
	BaseFee int64

	// HTTPTimeout bounds every Horizon round trip.
	HTTPTimeout time.Duration
}

const (
	PublicNetworkPassphrase  = "Public Global Stellar Network ; September 2015"
	TestnetNetworkPassphrase = "Test SDF Network ; September 2015"

	defaultBaseFee     = int64(100)
	defaultHTTPTimeout = 30 * time.Second
)
