package stellarman

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoteSignerSignsPayment(t *testing.T) {
	var got signRequest
	signer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(signResponse{EnvelopeXDR: "AAAA-signed"})
	}))
	defer signer.Close()

	rs := NewRemoteSigner(custodyAccount, signer.URL)
	assert.Equal(t, custodyAccount, rs.Address())

	envelope, err := rs.SignPayment(context.Background(), &Payment{
		From:              custodyAccount,
		To:                userAccount,
		Amount:            decimal.RequireFromString("2.5"),
		Memo:              "bridge:abc",
		SequenceNumber:    101,
		BaseFee:           100,
		NetworkPassphrase: TestnetNetworkPassphrase,
	})
	require.NoError(t, err)
	assert.Equal(t, "AAAA-signed", envelope)

	assert.Equal(t, custodyAccount, got.From)
	assert.Equal(t, "2.5", got.Amount)
	assert.Equal(t, int64(101), got.SequenceNumber)
}

func TestRemoteSignerErrorResponse(t *testing.T) {
	signer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(signResponse{Error: "policy: amount over limit"})
	}))
	defer signer.Close()

	rs := NewRemoteSigner(custodyAccount, signer.URL)
	_, err := rs.SignPayment(context.Background(), &Payment{
		From:   custodyAccount,
		To:     userAccount,
		Amount: decimal.NewFromInt(1),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "policy: amount over limit")
}
