package ethman

import (
	"crypto/ecdsa"
	"encoding/hex"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient/simulated"
)

var (
	simulatedChainID = big.NewInt(1337)
	blockGasLimit    = uint64(999999999999999999)
)

type SimulatedChain struct {
	Backend   *simulated.Backend
	Keys      []*ecdsa.PrivateKey
	Addresses []common.Address
}

// NewSimulatedChain starts an in-memory chain with n funded accounts.
func NewSimulatedChain(n int) *SimulatedChain {
	keys := make([]*ecdsa.PrivateKey, n)
	addrs := make([]common.Address, n)
	genesisAlloc := map[common.Address]types.Account{}
	for i := 0; i < n; i++ {
		sk, _ := crypto.GenerateKey()
		keys[i] = sk
		addrs[i] = crypto.PubkeyToAddress(sk.PublicKey)

		balance, _ := new(big.Int).SetString("100000000000000000000", 10)
		genesisAlloc[addrs[i]] = types.Account{Balance: balance}
	}

	backend := simulated.NewBackend(genesisAlloc, simulated.WithBlockGasLimit(blockGasLimit))

	return &SimulatedChain{
		Backend:   backend,
		Keys:      keys,
		Addresses: addrs,
	}
}

// KeyHex returns account i's private key in the Config encoding.
func (c *SimulatedChain) KeyHex(i int) string {
	return hex.EncodeToString(crypto.FromECDSA(c.Keys[i]))
}

func (c *SimulatedChain) Close() {
	c.Backend.Close()
}
