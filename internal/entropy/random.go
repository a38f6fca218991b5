// Package entropy supplies fresh world seeds for requests that do not name
// one. Seeds come from random.org when an API key is configured and from
// crypto/rand otherwise or on any API failure.
package entropy

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const randomOrgURL = "https://api.random.org/json-rpc/4/invoke"

// random.org caps integers at 1e9, so a seed is built from two draws.
const intLimit = 1_000_000_000

// Client draws seeds from random.org.
type Client struct {
	apiKey string
	url    string
	client *http.Client
}

// NewClient creates a random.org client. Returns nil if apiKey is empty.
func NewClient(apiKey string) *Client {
	if apiKey == "" {
		return nil
	}
	return &Client{
		apiKey: apiKey,
		url:    randomOrgURL,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

// Enabled returns true if the client has a valid API key.
func (c *Client) Enabled() bool {
	return c != nil && c.apiKey != ""
}

// Seed returns a positive seed. A nil client uses crypto/rand.
func (c *Client) Seed(ctx context.Context) int64 {
	if !c.Enabled() {
		return CryptoSeed()
	}
	draws, err := c.integers(ctx, 2)
	if err != nil {
		slog.Debug("random.org seed failed, using crypto/rand", "error", err)
		return CryptoSeed()
	}
	seed := draws[0]*intLimit + draws[1]
	if seed <= 0 {
		return CryptoSeed()
	}
	return seed
}

func (c *Client) integers(ctx context.Context, n int) ([]int64, error) {
	req := map[string]any{
		"jsonrpc": "2.0",
		"method":  "generateIntegers",
		"params": map[string]any{
			"apiKey": c.apiKey,
			"n":      n,
			"min":    0,
			"max":    intLimit - 1,
		},
		"id": 1,
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var result struct {
		Result struct {
			Random struct {
				Data []int64 `json:"data"`
			} `json:"random"`
		} `json:"result"`
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("parse random.org response: %w", err)
	}
	if result.Error != nil {
		return nil, fmt.Errorf("random.org: %s", result.Error.Message)
	}
	if len(result.Result.Random.Data) != n {
		return nil, fmt.Errorf("random.org returned %d integers, want %d", len(result.Result.Random.Data), n)
	}
	return result.Result.Random.Data, nil
}

// CryptoSeed returns a positive seed from crypto/rand.
func CryptoSeed() int64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return time.Now().UnixNano() & (1<<62 - 1)
	}
	seed := int64(binary.LittleEndian.Uint64(buf[:]) >> 1)
	if seed == 0 {
		return 1
	}
	return seed
}
