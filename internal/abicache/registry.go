package abicache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RegistryClient fetches verified contract ABIs from an etherscan-style
// HTTP API (module=contract&action=getabi).
type RegistryClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewRegistryClient creates a registry client for the given API endpoint
func NewRegistryClient(baseURL, apiKey string, timeout time.Duration) *RegistryClient {
	return &RegistryClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

// registryResponse is the etherscan-style API envelope. Result holds the ABI
// JSON as a string on success, or an error description otherwise.
type registryResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  string `json:"result"`
}

// FetchABI fetches the ABI JSON for a contract address.
// Returns nil and false when the registry has no ABI for the address.
func (c *RegistryClient) FetchABI(ctx context.Context, address common.Address) ([]byte, bool, error) {
	query := url.Values{}
	query.Set("module", "contract")
	query.Set("action", "getabi")
	query.Set("address", address.Hex())
	if c.apiKey != "" {
		query.Set("apikey", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build registry request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("registry request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read registry response: %w", err)
	}

	var envelope registryResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, false, fmt.Errorf("failed to parse registry response: %w", err)
	}

	// Status "0" covers both missing ABIs and rejected requests; neither is
	// fatal for resolution, the address simply stays unresolved.
	if envelope.Status != "1" {
		return nil, false, nil
	}

	return []byte(envelope.Result), true, nil
}
