package solana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"hzk-leaderboard/internal/observability"
)

// Default configuration values.
const (
	DefaultCallTimeout = 15 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 500 * time.Millisecond
)

// HTTPClient implements RPCClient using HTTP JSON-RPC 2.0.
//
// Every call races the operation against a per-attempt timeout and retries
// with linearly increasing backoff (retryDelay * attempt). This is the only
// place where timeout/retry policy lives; callers see either a result or
// ErrUnavailable.
type HTTPClient struct {
	endpoint    string
	client      *http.Client
	callTimeout time.Duration
	maxRetries  int
	retryDelay  time.Duration
	requestID   atomic.Uint64
}

// ClientOption configures HTTPClient.
type ClientOption func(*HTTPClient)

// WithCallTimeout sets the per-attempt timeout.
func WithCallTimeout(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.callTimeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *HTTPClient) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets the base retry delay. Attempt n waits n*d.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *HTTPClient) {
		c.retryDelay = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *HTTPClient) {
		c.client = client
	}
}

// NewHTTPClient creates a new Solana RPC HTTP client.
func NewHTTPClient(endpoint string, opts ...ClientOption) *HTTPClient {
	c := &HTTPClient{
		endpoint:    endpoint,
		client:      &http.Client{},
		callTimeout: DefaultCallTimeout,
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Compile-time interface check.
var _ RPCClient = (*HTTPClient)(nil)

// rpcRequest represents a JSON-RPC 2.0 request.
type rpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params,omitempty"`
}

// rpcResponse represents a JSON-RPC 2.0 response.
type rpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      uint64          `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// rpcError represents a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("RPC error %d: %s", e.Code, e.Message)
}

// call performs a JSON-RPC call with retries and linear backoff.
func (c *HTTPClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	reqID := c.requestID.Add(1)
	reqBody := rpcRequest{
		JSONRPC: "2.0",
		ID:      reqID,
		Method:  method,
		Params:  params,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	var lastErr error
	start := time.Now()

	for attempt := 1; attempt <= c.maxRetries+1; attempt++ {
		if attempt > 1 {
			observability.RecordRPCRetry(method)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay * time.Duration(attempt-1)):
			}
		}

		done, err := c.attempt(ctx, body, result)
		if done {
			status := "ok"
			if err != nil {
				status = "error"
			}
			observability.RecordRPCCall(method, status, time.Since(start).Seconds())
			return err
		}
		lastErr = err
	}

	observability.RecordRPCCall(method, "unavailable", time.Since(start).Seconds())
	return fmt.Errorf("%w: %s failed after %d attempts: %v", ErrUnavailable, method, c.maxRetries+1, lastErr)
}

// attempt performs one HTTP round trip under the per-attempt timeout.
// done=true means the outcome is final (success or non-retryable error).
func (c *HTTPClient) attempt(ctx context.Context, body []byte, result interface{}) (done bool, err error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return true, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		// Abort immediately if the parent context is gone; retrying
		// cannot help.
		if ctx.Err() != nil {
			return true, ctx.Err()
		}
		return false, fmt.Errorf("http request: %w", err)
	}

	respBody, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return false, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return false, fmt.Errorf("rate limited (429)")
	}

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	var rpcResp rpcResponse
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return false, fmt.Errorf("unmarshal response: %w", err)
	}

	if rpcResp.Error != nil {
		// RPC errors are not retried
		return true, rpcResp.Error
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return true, fmt.Errorf("unmarshal result: %w", err)
		}
	}

	return true, nil
}

// GetSignaturesForAddress retrieves signatures for an address with pagination.
func (c *HTTPClient) GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error) {
	config := make(map[string]interface{})
	if opts != nil {
		if opts.Before != "" {
			config["before"] = opts.Before
		}
		if opts.Until != "" {
			config["until"] = opts.Until
		}
		if opts.Limit > 0 {
			config["limit"] = opts.Limit
		}
	}

	params := []interface{}{address}
	if len(config) > 0 {
		params = append(params, config)
	}

	var result []getSignaturesResult
	if err := c.call(ctx, "getSignaturesForAddress", params, &result); err != nil {
		return nil, err
	}

	sigs := make([]SignatureInfo, len(result))
	for i, r := range result {
		sigs[i] = SignatureInfo{
			Signature: r.Signature,
			Slot:      r.Slot,
			BlockTime: r.BlockTime,
			Err:       r.Err,
		}
	}

	return sigs, nil
}

// getSignaturesResult is the raw RPC response item for getSignaturesForAddress.
type getSignaturesResult struct {
	Signature string      `json:"signature"`
	Slot      int64       `json:"slot"`
	BlockTime *int64      `json:"blockTime"`
	Err       interface{} `json:"err"`
}

// GetTransaction retrieves a transaction by signature with jsonParsed
// encoding, so instruction arguments and token balance owners come back
// decoded. Returns nil if the transaction is not found.
func (c *HTTPClient) GetTransaction(ctx context.Context, signature string) (*Transaction, error) {
	params := []interface{}{
		signature,
		map[string]interface{}{
			"encoding":                       "jsonParsed",
			"maxSupportedTransactionVersion": 0,
		},
	}

	var result getTransactionResult
	if err := c.call(ctx, "getTransaction", params, &result); err != nil {
		return nil, err
	}

	if result.Slot == 0 && result.BlockTime == nil {
		// Transaction not found
		return nil, nil
	}

	tx := &Transaction{
		Slot:      result.Slot,
		Signature: signature,
	}

	if result.BlockTime != nil {
		tx.BlockTime = *result.BlockTime
	}

	if result.Meta != nil {
		tx.Meta = &TransactionMeta{
			Err:               result.Meta.Err,
			LogMessages:       result.Meta.LogMessages,
			PreTokenBalances:  convertTokenBalances(result.Meta.PreTokenBalances),
			PostTokenBalances: convertTokenBalances(result.Meta.PostTokenBalances),
		}
		for _, inner := range result.Meta.InnerInstructions {
			tx.Meta.InnerInstructions = append(tx.Meta.InnerInstructions, InnerInstructionSet{
				Index:        inner.Index,
				Instructions: convertInstructions(inner.Instructions),
			})
		}
	}

	if result.Transaction != nil && result.Transaction.Message != nil {
		msg := result.Transaction.Message
		keys := make([]string, len(msg.AccountKeys))
		for i, k := range msg.AccountKeys {
			keys[i] = k.Pubkey
		}
		tx.Message = &TransactionMessage{
			AccountKeys:  keys,
			Instructions: convertInstructions(msg.Instructions),
		}
	}

	return tx, nil
}

// getTransactionResult is the raw RPC response for getTransaction.
type getTransactionResult struct {
	Slot        int64               `json:"slot"`
	BlockTime   *int64              `json:"blockTime"`
	Meta        *getTransactionMeta `json:"meta"`
	Transaction *getTransactionTx   `json:"transaction"`
}

type getTransactionMeta struct {
	Err               interface{}       `json:"err"`
	LogMessages       []string          `json:"logMessages"`
	PreTokenBalances  []rawTokenBalance `json:"preTokenBalances"`
	PostTokenBalances []rawTokenBalance `json:"postTokenBalances"`
	InnerInstructions []rawInnerSet     `json:"innerInstructions"`
}

type getTransactionTx struct {
	Message *getTransactionMessage `json:"message"`
}

type getTransactionMessage struct {
	AccountKeys  []rawAccountKey  `json:"accountKeys"`
	Instructions []rawInstruction `json:"instructions"`
}

type rawTokenBalance struct {
	AccountIndex  int          `json:"accountIndex"`
	Mint          string       `json:"mint"`
	Owner         string       `json:"owner"`
	UITokenAmount *rawUIAmount `json:"uiTokenAmount"`
}

type rawUIAmount struct {
	Amount   string `json:"amount"`
	Decimals int    `json:"decimals"`
}

type rawInnerSet struct {
	Index        int              `json:"index"`
	Instructions []rawInstruction `json:"instructions"`
}

// rawAccountKey accepts both encodings of accountKeys: the plain string form
// and the jsonParsed object form {"pubkey": ..., "signer": ..., ...}.
type rawAccountKey struct {
	Pubkey string
}

func (k *rawAccountKey) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		k.Pubkey = s
		return nil
	}
	var obj struct {
		Pubkey string `json:"pubkey"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	k.Pubkey = obj.Pubkey
	return nil
}

type rawInstruction struct {
	Program   string          `json:"program"`
	ProgramID string          `json:"programId"`
	Parsed    json.RawMessage `json:"parsed"`
}

type rawParsed struct {
	Type string  `json:"type"`
	Info rawInfo `json:"info"`
}

type rawInfo struct {
	Source        string       `json:"source"`
	Destination   string       `json:"destination"`
	Authority     string       `json:"authority"`
	MintAuthority string       `json:"mintAuthority"`
	Account       string       `json:"account"`
	Mint          string       `json:"mint"`
	Amount        flexString   `json:"amount"`
	TokenAmount   *rawUIAmount `json:"tokenAmount"`
}

// flexString tolerates both string and numeric JSON encodings of an amount.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

func convertTokenBalances(raw []rawTokenBalance) []TokenBalance {
	if len(raw) == 0 {
		return nil
	}
	balances := make([]TokenBalance, 0, len(raw))
	for _, r := range raw {
		b := TokenBalance{
			AccountIndex: r.AccountIndex,
			Mint:         r.Mint,
			Owner:        r.Owner,
		}
		if r.UITokenAmount != nil {
			b.Amount = r.UITokenAmount.Amount
			b.Decimals = r.UITokenAmount.Decimals
		}
		balances = append(balances, b)
	}
	return balances
}

func convertInstructions(raw []rawInstruction) []Instruction {
	if len(raw) == 0 {
		return nil
	}
	instructions := make([]Instruction, 0, len(raw))
	for _, r := range raw {
		inst := Instruction{
			Program:   r.Program,
			ProgramID: r.ProgramID,
		}
		if len(r.Parsed) > 0 {
			// Parsed may be a bare string for some programs (memo);
			// only the object form carries decodable arguments.
			var p rawParsed
			if err := json.Unmarshal(r.Parsed, &p); err == nil {
				inst.Type = p.Type
				inst.Info = InstructionInfo{
					Source:        p.Info.Source,
					Destination:   p.Info.Destination,
					Authority:     p.Info.Authority,
					MintAuthority: p.Info.MintAuthority,
					Account:       p.Info.Account,
					Mint:          p.Info.Mint,
					Amount:        string(p.Info.Amount),
				}
				if p.Info.TokenAmount != nil {
					inst.Info.TokenAmount = &UITokenAmount{
						Amount:   p.Info.TokenAmount.Amount,
						Decimals: p.Info.TokenAmount.Decimals,
					}
				}
			}
		}
		instructions = append(instructions, inst)
	}
	return instructions
}

// GetAccountInfo retrieves account info by public key.
// Returns nil if account not found.
func (c *HTTPClient) GetAccountInfo(ctx context.Context, pubkey string) (*AccountInfo, error) {
	params := []interface{}{
		pubkey,
		map[string]interface{}{
			"encoding": "base64",
		},
	}

	var result getAccountInfoResult
	if err := c.call(ctx, "getAccountInfo", params, &result); err != nil {
		return nil, err
	}

	if result.Value == nil {
		return nil, nil
	}

	info := &AccountInfo{
		Lamports:   result.Value.Lamports,
		Owner:      result.Value.Owner,
		Executable: result.Value.Executable,
		RentEpoch:  result.Value.RentEpoch,
	}

	if len(result.Value.Data) >= 1 {
		info.Data = result.Value.Data[0]
	}

	return info, nil
}

type getAccountInfoResult struct {
	Value *getAccountInfoValue `json:"value"`
}

type getAccountInfoValue struct {
	Lamports   uint64   `json:"lamports"`
	Owner      string   `json:"owner"`
	Data       []string `json:"data"` // [base64_data, encoding]
	Executable bool     `json:"executable"`
	RentEpoch  uint64   `json:"rentEpoch"`
}
