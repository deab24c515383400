// Reader is a testing facility to exercise a running http reporter.

package reporter

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

type HttpReader struct {
	baseURL string // scheme://host:port
	token   string // bearer token, empty for anonymous calls
}

func NewHttpReader(baseURL string, token string) *HttpReader {
	return &HttpReader{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
	}
}

func (hr *HttpReader) GetChains() (int, string, error) {
	return hr.do(http.MethodGet, ROUTE_CHAINS, nil)
}

func (hr *HttpReader) GetState() (int, string, error) {
	return hr.do(http.MethodGet, ROUTE_STATE, nil)
}

func (hr *HttpReader) PostInitiate(body interface{}) (int, string, error) {
	return hr.do(http.MethodPost, ROUTE_INITIATE, body)
}

func (hr *HttpReader) GetStatus(bridgeID string) (int, string, error) {
	route := strings.Replace(ROUTE_STATUS, ":bridgeId", bridgeID, 1)
	return hr.do(http.MethodGet, route, nil)
}

func (hr *HttpReader) PostEstimate(body interface{}) (int, string, error) {
	return hr.do(http.MethodPost, ROUTE_ESTIMATE, body)
}

func (hr *HttpReader) GetValidate(bridgeID string) (int, string, error) {
	route := strings.Replace(ROUTE_VALIDATE, ":bridgeId", bridgeID, 1)
	return hr.do(http.MethodGet, route, nil)
}

func (hr *HttpReader) GetHistory(address string) (int, string, error) {
	route := strings.Replace(ROUTE_HISTORY, ":userAddress", address, 1)
	return hr.do(http.MethodGet, route, nil)
}

func (hr *HttpReader) do(method, route string, body interface{}) (int, string, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, "", err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, hr.baseURL+route, reader)
	if err != nil {
		return 0, "", err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if hr.token != "" {
		req.Header.Set("Authorization", "Bearer "+hr.token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	// Read the response body
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", err
	}

	return resp.StatusCode, string(raw), nil
}
