package stellarman

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// RemoteSigner asks an external signing service for transaction
// envelopes. The service holds the secret seed; this process never
// does.
type RemoteSigner struct {
	account    string
	signerURL  string
	httpClient *http.Client
}

func NewRemoteSigner(account, signerURL string) *RemoteSigner {
	return &RemoteSigner{
		account:    account,
		signerURL:  signerURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (rs *RemoteSigner) Address() string { return rs.account }

type signRequest struct {
	From              string `json:"from"`
	To                string `json:"to"`
	Amount            string `json:"amount"`
	Memo              string `json:"memo"`
	SequenceNumber    int64  `json:"sequenceNumber"`
	BaseFee           int64  `json:"baseFee"`
	NetworkPassphrase string `json:"networkPassphrase"`
}

type signResponse struct {
	EnvelopeXDR string `json:"envelopeXdr"`
	Error       string `json:"error"`
}

func (rs *RemoteSigner) SignPayment(ctx context.Context, p *Payment) (string, error) {
	raw, err := json.Marshal(signRequest{
		From:              p.From,
		To:                p.To,
		Amount:            p.Amount.String(),
		Memo:              p.Memo,
		SequenceNumber:    p.SequenceNumber,
		BaseFee:           p.BaseFee,
		NetworkPassphrase: p.NetworkPassphrase,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rs.signerURL, bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := rs.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out signResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("malformed signer response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("signer returned %d: %s", resp.StatusCode, out.Error)
	}
	if out.EnvelopeXDR == "" {
		return "", fmt.Errorf("signer returned empty envelope")
	}
	return out.EnvelopeXDR, nil
}
