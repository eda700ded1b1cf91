package solana

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestHTTPClient_GetTransaction(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}

		if req.Method != "getTransaction" {
			t.Errorf("expected method getTransaction, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"slot":      int64(123456),
				"blockTime": int64(1700000000),
				"meta": map[string]interface{}{
					"err":         nil,
					"logMessages": []string{"Program log: ok"},
					"preTokenBalances": []map[string]interface{}{
						{
							"accountIndex": 2,
							"mint":         "mintA",
							"owner":        "ownerA",
							"uiTokenAmount": map[string]interface{}{
								"amount":   "5000000",
								"decimals": 6,
							},
						},
					},
					"postTokenBalances": []map[string]interface{}{
						{
							"accountIndex": 2,
							"mint":         "mintA",
							"owner":        "ownerA",
							"uiTokenAmount": map[string]interface{}{
								"amount":   "7000000",
								"decimals": 6,
							},
						},
					},
					"innerInstructions": []map[string]interface{}{
						{
							"index": 0,
							"instructions": []map[string]interface{}{
								{
									"program":   "spl-token",
									"programId": "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
									"parsed": map[string]interface{}{
										"type": "transfer",
										"info": map[string]interface{}{
											"source":      "src",
											"destination": "dst",
											"authority":   "auth",
											"amount":      "2000000",
										},
									},
								},
							},
						},
					},
				},
				"transaction": map[string]interface{}{
					"message": map[string]interface{}{
						"accountKeys": []interface{}{
							map[string]interface{}{"pubkey": "addr1", "signer": true},
							"addr2",
						},
						"instructions": []map[string]interface{}{
							{
								"program":   "spl-memo",
								"programId": "MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr",
								"parsed":    "hello",
							},
						},
					},
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx := context.Background()

	tx, err := client.GetTransaction(ctx, "testsig123")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}

	if tx == nil {
		t.Fatal("expected transaction, got nil")
	}

	if tx.Slot != 123456 {
		t.Errorf("expected slot 123456, got %d", tx.Slot)
	}

	if tx.Meta == nil {
		t.Fatal("expected meta, got nil")
	}

	if len(tx.Meta.PreTokenBalances) != 1 || len(tx.Meta.PostTokenBalances) != 1 {
		t.Fatalf("expected 1 pre and 1 post token balance, got %d/%d",
			len(tx.Meta.PreTokenBalances), len(tx.Meta.PostTokenBalances))
	}

	pre := tx.Meta.PreTokenBalances[0]
	if pre.AccountIndex != 2 || pre.Mint != "mintA" || pre.Owner != "ownerA" {
		t.Errorf("unexpected pre balance: %+v", pre)
	}
	if pre.Amount != "5000000" || pre.Decimals != 6 {
		t.Errorf("unexpected pre amount: %+v", pre)
	}

	if len(tx.Meta.InnerInstructions) != 1 {
		t.Fatalf("expected 1 inner instruction set, got %d", len(tx.Meta.InnerInstructions))
	}
	inner := tx.Meta.InnerInstructions[0].Instructions[0]
	if inner.Program != "spl-token" || inner.Type != "transfer" {
		t.Errorf("unexpected inner instruction: %+v", inner)
	}
	if inner.Info.Source != "src" || inner.Info.Destination != "dst" || inner.Info.Amount != "2000000" {
		t.Errorf("unexpected inner instruction info: %+v", inner.Info)
	}

	if tx.Message == nil {
		t.Fatal("expected message, got nil")
	}

	// Both accountKeys encodings must decode to plain pubkeys.
	if len(tx.Message.AccountKeys) != 2 || tx.Message.AccountKeys[0] != "addr1" || tx.Message.AccountKeys[1] != "addr2" {
		t.Errorf("unexpected account keys: %v", tx.Message.AccountKeys)
	}

	// String-valued parsed field (memo) must not fail decoding.
	if len(tx.Message.Instructions) != 1 || tx.Message.Instructions[0].Type != "" {
		t.Errorf("unexpected top-level instructions: %+v", tx.Message.Instructions)
	}
}

func TestHTTPClient_GetTransaction_NotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  nil,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx := context.Background()

	tx, err := client.GetTransaction(ctx, "nonexistent")
	if err != nil {
		t.Fatalf("GetTransaction: %v", err)
	}

	if tx != nil {
		t.Errorf("expected nil for not found, got %+v", tx)
	}
}

func TestHTTPClient_GetSignaturesForAddress(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "getSignaturesForAddress" {
			t.Errorf("expected method getSignaturesForAddress, got %s", req.Method)
		}

		if len(req.Params) != 2 {
			t.Fatalf("expected address + opts params, got %d", len(req.Params))
		}
		opts, ok := req.Params[1].(map[string]interface{})
		if !ok {
			t.Fatalf("expected opts map, got %T", req.Params[1])
		}
		if opts["before"] != "cursorsig" {
			t.Errorf("expected before cursor, got %v", opts["before"])
		}
		if opts["limit"] != float64(1000) {
			t.Errorf("expected limit 1000, got %v", opts["limit"])
		}

		blockTime := int64(1700000000)
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": []map[string]interface{}{
				{"signature": "sig1", "slot": 100, "blockTime": blockTime, "err": nil},
				{"signature": "sig2", "slot": 99, "blockTime": blockTime, "err": map[string]interface{}{"InstructionError": []interface{}{}}},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx := context.Background()

	sigs, err := client.GetSignaturesForAddress(ctx, "someaddr", &SignaturesOpts{Before: "cursorsig", Limit: 1000})
	if err != nil {
		t.Fatalf("GetSignaturesForAddress: %v", err)
	}

	if len(sigs) != 2 {
		t.Fatalf("expected 2 signatures, got %d", len(sigs))
	}
	if sigs[0].Signature != "sig1" || sigs[0].Err != nil {
		t.Errorf("unexpected first signature: %+v", sigs[0])
	}
	if sigs[1].Err == nil {
		t.Errorf("expected failed transaction marker on sig2")
	}
}

func TestHTTPClient_GetAccountInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		if req.Method != "getAccountInfo" {
			t.Errorf("expected method getAccountInfo, got %s", req.Method)
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result": map[string]interface{}{
				"value": map[string]interface{}{
					"lamports":   uint64(2039280),
					"owner":      "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA",
					"data":       []string{"aGVsbG8=", "base64"},
					"executable": false,
					"rentEpoch":  uint64(361),
				},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx := context.Background()

	info, err := client.GetAccountInfo(ctx, "tokenaccount")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info == nil {
		t.Fatal("expected account info, got nil")
	}
	if info.Data != "aGVsbG8=" {
		t.Errorf("expected base64 data, got %q", info.Data)
	}
	if info.Owner != "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA" {
		t.Errorf("unexpected owner: %s", info.Owner)
	}
}

func TestHTTPClient_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		if n < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  []map[string]interface{}{},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(time.Millisecond),
	)

	_, err := client.GetSignaturesForAddress(context.Background(), "addr", nil)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestHTTPClient_Unavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(1),
		WithRetryDelay(time.Millisecond),
	)

	_, err := client.GetSignaturesForAddress(context.Background(), "addr", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestHTTPClient_RPCErrorNotRetried(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error":   map[string]interface{}{"code": -32602, "message": "invalid params"},
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(time.Millisecond),
	)

	_, err := client.GetSignaturesForAddress(context.Background(), "addr", nil)
	if err == nil {
		t.Fatal("expected RPC error")
	}
	if errors.Is(err, ErrUnavailable) {
		t.Errorf("RPC errors must not map to ErrUnavailable: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected single attempt, got %d", calls.Load())
	}
}
