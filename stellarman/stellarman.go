package stellarman

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/stellargate-io/bridge-go/chainadapter"
)

// defaultLedgerInterval is the expected Stellar ledger close time,
// used until two closed ledgers have been observed.
const defaultLedgerInterval = 5 * time.Second

// Stellarman moves the native asset on Stellar through the Horizon
// API. It implements chainadapter.ChainAdapter; signing is delegated
// to the registered PaymentSigners.
type Stellarman struct {
	horizonURL        string
	networkPassphrase string
	baseFee           int64
	httpClient        *http.Client
	signers           map[string]PaymentSigner

	// seqMu serializes sequence number consumption per instance.
	seqMu sync.Mutex
}

func NewStellarman(cfg *Config, signers ...PaymentSigner) *Stellarman {
	baseFee := cfg.BaseFee
	if baseFee == 0 {
		baseFee = defaultBaseFee
	}
	timeout := cfg.HTTPTimeout
	if timeout == 0 {
		timeout = defaultHTTPTimeout
	}

	byAddr := make(map[string]PaymentSigner, len(signers))
	for _, s := range signers {
		byAddr[s.Address()] = s
	}

	return &Stellarman{
		horizonURL:        strings.TrimSuffix(cfg.HorizonURL, "/"),
		networkPassphrase: cfg.NetworkPassphrase,
		baseFee:           baseFee,
		httpClient:        &http.Client{Timeout: timeout},
		signers:           byAddr,
	}
}

// horizonTransaction is the subset of Horizon's transaction resource
// the adapter reads.
type horizonTransaction struct {
	Hash       string    `json:"hash"`
	Successful bool      `json:"successful"`
	Ledger     int64     `json:"ledger"`
	CreatedAt  time.Time `json:"created_at"`
}

type horizonError struct {
	Title  string `json:"title"`
	Status int    `json:"status"`
	Extras struct {
		ResultCodes struct {
			Transaction string `json:"transaction"`
		} `json:"result_codes"`
	} `json:"extras"`
}

type horizonPaymentsPage struct {
	Embedded struct {
		Records []struct {
			Type   string `json:"type"`
			From   string `json:"from"`
			To     string `json:"to"`
			Amount string `json:"amount"`
		} `json:"records"`
	} `json:"_embedded"`
}

type horizonLedgersPage struct {
	Embedded struct {
		Records []struct {
			ClosedAt time.Time `json:"closed_at"`
		} `json:"records"`
	} `json:"_embedded"`
}

func (s *Stellarman) SubmitNativeTransfer(ctx context.Context, from, to string, amount decimal.Decimal, memo string) (chainadapter.TxRef, error) {
	signer, ok := s.signers[from]
	if !ok {
		return "", fmt.Errorf("%w: no signer for account %s", chainadapter.ErrTransactionRejected, from)
	}

	s.seqMu.Lock()
	defer s.seqMu.Unlock()

	seq, err := s.accountSequence(ctx, from)
	if err != nil {
		return "", err
	}

	envelope, err := signer.SignPayment(ctx, &Payment{
		From:              from,
		To:                to,
		Amount:            amount,
		Memo:              memo,
		SequenceNumber:    seq + 1,
		BaseFee:           s.baseFee,
		NetworkPassphrase: s.networkPassphrase,
	})
	if err != nil {
		return "", fmt.Errorf("%w: signing failed: %v", chainadapter.ErrTransactionRejected, err)
	}

	form := url.Values{"tx": {envelope}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.horizonURL+"/transactions", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", chainadapter.ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", chainadapter.ErrNetworkUnavailable, err)
	}

	if resp.StatusCode >= 500 {
		return "", fmt.Errorf("%w: horizon returned %d", chainadapter.ErrNetworkUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		var herr horizonError
		_ = json.Unmarshal(body, &herr)
		return "", fmt.Errorf("%w: %s (%s)", chainadapter.ErrTransactionRejected,
			herr.Title, herr.Extras.ResultCodes.Transaction)
	}

	var tx horizonTransaction
	if err := json.Unmarshal(body, &tx); err != nil {
		return "", fmt.Errorf("%w: malformed horizon response: %v", chainadapter.ErrNetworkUnavailable, err)
	}
	return chainadapter.TxRef(tx.Hash), nil
}

func (s *Stellarman) GetTransactionStatus(ctx context.Context, ref chainadapter.TxRef) (chainadapter.TxStatus, error) {
	var tx horizonTransaction
	code, err := s.getJSON(ctx, "/transactions/"+string(ref), &tx)
	if err != nil {
		return chainadapter.TxStatus{}, err
	}
	if code == http.StatusNotFound {
		return chainadapter.TxStatus{}, fmt.Errorf("%w: %s", chainadapter.ErrTxNotFound, ref)
	}
	if code != http.StatusOK {
		return chainadapter.TxStatus{}, fmt.Errorf("%w: horizon returned %d", chainadapter.ErrNetworkUnavailable, code)
	}

	// Horizon only serves transactions already included in a ledger.
	st := chainadapter.TxStatus{
		Confirmed:  true,
		Succeeded:  tx.Successful,
		ObservedAt: time.Now().UTC(),
	}

	var payments horizonPaymentsPage
	if code, err := s.getJSON(ctx, "/transactions/"+string(ref)+"/payments", &payments); err == nil && code == http.StatusOK {
		for _, rec := range payments.Embedded.Records {
			if rec.Type != "payment" {
				continue
			}
			if amt, err := decimal.NewFromString(rec.Amount); err == nil {
				st.Amount = amt
				st.Recipient = rec.To
			}
			break
		}
	}
	return st, nil
}

// EstimateConfirmationLatency measures the spacing of the two most
// recently closed ledgers.
func (s *Stellarman) EstimateConfirmationLatency(ctx context.Context) (time.Duration, error) {
	var page horizonLedgersPage
	code, err := s.getJSON(ctx, "/ledgers?order=desc&limit=2", &page)
	if err != nil {
		return 0, err
	}
	if code != http.StatusOK || len(page.Embedded.Records) < 2 {
		return defaultLedgerInterval, nil
	}

	delta := page.Embedded.Records[0].ClosedAt.Sub(page.Embedded.Records[1].ClosedAt)
	if delta <= 0 {
		return defaultLedgerInterval, nil
	}
	return delta, nil
}

func (s *Stellarman) accountSequence(ctx context.Context, account string) (int64, error) {
	var acc struct {
		Sequence string `json:"sequence"`
	}
	code, err := s.getJSON(ctx, "/accounts/"+account, &acc)
	if err != nil {
		return 0, err
	}
	if code == http.StatusNotFound {
		return 0, fmt.Errorf("%w: account %s does not exist", chainadapter.ErrTransactionRejected, account)
	}
	if code != http.StatusOK {
		return 0, fmt.Errorf("%w: horizon returned %d", chainadapter.ErrNetworkUnavailable, code)
	}

	seq, err := strconv.ParseInt(acc.Sequence, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed sequence %q", chainadapter.ErrNetworkUnavailable, acc.Sequence)
	}
	return seq, nil
}

// getJSON fetches a Horizon resource. Transport failures map to
// ErrNetworkUnavailable; HTTP status handling is left to the caller.
func (s *Stellarman) getJSON(ctx context.Context, path string, out interface{}) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.horizonURL+path, nil)
	if err != nil {
		return 0, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", chainadapter.ErrNetworkUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return 0, fmt.Errorf("%w: malformed horizon response: %v", chainadapter.ErrNetworkUnavailable, err)
		}
	}
	return resp.StatusCode, nil
}
