package stellarman

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// StaticSigner is a test PaymentSigner producing a readable fake
// envelope the SimulatedHorizon can decode.
type StaticSigner struct {
	Account string
	// FailSigning makes every SignPayment call error.
	FailSigning bool
}

func (s *StaticSigner) Address() string { return s.Account }

func (s *StaticSigner) SignPayment(ctx context.Context, p *Payment) (string, error) {
	if s.FailSigning {
		return "", fmt.Errorf("signer unavailable for %s", s.Account)
	}
	return strings.Join([]string{
		"sim-envelope",
		p.From,
		p.To,
		p.Amount.String(),
		p.Memo,
		fmt.Sprintf("%d", p.SequenceNumber),
	}, "|"), nil
}

type simTx struct {
	hash       string
	successful bool
	from       string
	to         string
	amount     string
	createdAt  time.Time
}

// SimulatedHorizon is an in-memory Horizon stand-in for tests. It
// accepts StaticSigner envelopes and serves the resources Stellarman
// reads.
type SimulatedHorizon struct {
	Server *httptest.Server

	// RejectSubmissions makes Horizon answer every submission with a
	// 400 and a tx_failed result code.
	RejectSubmissions bool
	// Unavailable makes every endpoint answer 503.
	Unavailable bool
	// FailOnLedger marks accepted transactions as failed.
	FailOnLedger bool

	mu        sync.Mutex
	sequences map[string]int64
	txs       map[string]*simTx
	nextTx    int
	ledgerGap time.Duration
}

func NewSimulatedHorizon(accounts ...string) *SimulatedHorizon {
	h := &SimulatedHorizon{
		sequences: map[string]int64{},
		txs:       map[string]*simTx{},
		ledgerGap: 5 * time.Second,
	}
	for _, acc := range accounts {
		h.sequences[acc] = 100
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/transactions", h.handleSubmit)
	mux.HandleFunc("/transactions/", h.handleTransaction)
	mux.HandleFunc("/accounts/", h.handleAccount)
	mux.HandleFunc("/ledgers", h.handleLedgers)
	h.Server = httptest.NewServer(mux)
	return h
}

func (h *SimulatedHorizon) URL() string { return h.Server.URL }

func (h *SimulatedHorizon) Close() { h.Server.Close() }

// SetLedgerGap changes the spacing reported between the two most
// recent ledgers.
func (h *SimulatedHorizon) SetLedgerGap(gap time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ledgerGap = gap
}

func (h *SimulatedHorizon) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if h.Unavailable {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.RejectSubmissions {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"title":  "Transaction Failed",
			"status": 400,
			"extras": map[string]interface{}{
				"result_codes": map[string]string{"transaction": "tx_failed"},
			},
		})
		return
	}

	parts := strings.Split(r.FormValue("tx"), "|")
	if len(parts) != 6 || parts[0] != "sim-envelope" {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"title":  "Transaction Malformed",
			"status": 400,
			"extras": map[string]interface{}{
				"result_codes": map[string]string{"transaction": "tx_malformed"},
			},
		})
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextTx++
	h.sequences[parts[1]]++
	tx := &simTx{
		hash:       fmt.Sprintf("simhash-%d", h.nextTx),
		successful: !h.FailOnLedger,
		from:       parts[1],
		to:         parts[2],
		amount:     parts[3],
		createdAt:  time.Now().UTC(),
	}
	h.txs[tx.hash] = tx

	json.NewEncoder(w).Encode(map[string]interface{}{
		"hash":       tx.hash,
		"successful": tx.successful,
		"ledger":     h.nextTx,
		"created_at": tx.createdAt,
	})
}

func (h *SimulatedHorizon) handleTransaction(w http.ResponseWriter, r *http.Request) {
	if h.Unavailable {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/transactions/")
	hash := strings.TrimSuffix(rest, "/payments")

	h.mu.Lock()
	tx, ok := h.txs[hash]
	h.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	if strings.HasSuffix(rest, "/payments") {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"_embedded": map[string]interface{}{
				"records": []map[string]interface{}{{
					"type":   "payment",
					"from":   tx.from,
					"to":     tx.to,
					"amount": tx.amount,
				}},
			},
		})
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"hash":       tx.hash,
		"successful": tx.successful,
		"ledger":     1,
		"created_at": tx.createdAt,
	})
}

func (h *SimulatedHorizon) handleAccount(w http.ResponseWriter, r *http.Request) {
	if h.Unavailable {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	account := strings.TrimPrefix(r.URL.Path, "/accounts/")

	h.mu.Lock()
	seq, ok := h.sequences[account]
	h.mu.Unlock()
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"id":       account,
		"sequence": fmt.Sprintf("%d", seq),
	})
}

func (h *SimulatedHorizon) handleLedgers(w http.ResponseWriter, r *http.Request) {
	if h.Unavailable {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}

	h.mu.Lock()
	gap := h.ledgerGap
	h.mu.Unlock()

	now := time.Now().UTC()
	json.NewEncoder(w).Encode(map[string]interface{}{
		"_embedded": map[string]interface{}{
			"records": []map[string]interface{}{
				{"closed_at": now},
				{"closed_at": now.Add(-gap)},
			},
		},
	})
}
