// Package svmchain implements the SVM chain adapter as a raw JSON-RPC
// client (POST {jsonrpc,method,params,id}, retry with delay, deferred
// body close). No third-party Solana SDK is used because none of the
// retrieved example repositories import one.
package svmchain

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mr-tron/base58"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgeerrors"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/chain"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/logging"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/seeds"
)

// PublicKey is a 32-byte SVM public key / program-derived address.
type PublicKey [32]byte

// String base58-encodes the key, the SVM ecosystem's standard textual form.
func (p PublicKey) String() string { return base58.Encode(p[:]) }

// DecodePublicKey base58-decodes s into a PublicKey, left-padding to 32
// bytes if the decoded value is shorter (in practice base58 SVM keys
// always decode to exactly 32 bytes).
func DecodePublicKey(s string) (PublicKey, error) {
	raw, err := base58.Decode(s)
	if err != nil {
		return PublicKey{}, fmt.Errorf("decode base58 pubkey %q: %w", s, err)
	}
	if len(raw) > 32 {
		return PublicKey{}, fmt.Errorf("pubkey %q decodes to %d bytes, want at most 32", s, len(raw))
	}
	var pk PublicKey
	copy(pk[32-len(raw):], raw)
	return pk, nil
}

// Config configures a new Adapter.
type Config struct {
	ChainId       string // CAIP-2 id, e.g. "solana:mainnet"
	RpcURL        string
	Keypair       []byte // optional 64-byte ed25519 keypair (seed||pubkey)
	RetryAttempts int
	RetryDelay    time.Duration
	Timeout       time.Duration
	Logger        logging.Logger
}

// Adapter is the SVM chain adapter.
type Adapter struct {
	chainId       string
	rpcURL        string
	client        *http.Client
	retryAttempts int
	retryDelay    time.Duration
	log           logging.Logger
	keypair       []byte
	hasSigner     bool
}

// New builds an Adapter. It performs no I/O; call Ping to verify
// connectivity.
func New(cfg Config) *Adapter {
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	log = log.With("svmchain")

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	retryDelay := cfg.RetryDelay
	if retryDelay == 0 {
		retryDelay = 250 * time.Millisecond
	}

	return &Adapter{
		chainId:       cfg.ChainId,
		rpcURL:        cfg.RpcURL,
		client:        &http.Client{Timeout: timeout},
		retryAttempts: cfg.RetryAttempts,
		retryDelay:    retryDelay,
		log:           log,
		keypair:       cfg.Keypair,
		hasSigner:     len(cfg.Keypair) == 64,
	}
}

func (a *Adapter) Kind() chain.Kind { return chain.KindSVM }
func (a *Adapter) HasSigner() bool  { return a.hasSigner }

func (a *Adapter) Ping(ctx context.Context) error {
	_, err := a.LatestBlockhash(ctx)
	return err
}

type rpcRequest struct {
	Jsonrpc string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	Id      int    `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// performRequest issues one JSON-RPC call, retrying on transport failure
// with a fixed delay between attempts.
func (a *Adapter) performRequest(ctx context.Context, method string, params []any, result any) error {
	body, err := json.Marshal(rpcRequest{Jsonrpc: "2.0", Method: method, Params: params, Id: 1})
	if err != nil {
		return fmt.Errorf("marshal rpc request for method %s: %w", method, err)
	}

	var resp *http.Response
	var lastErr error
	for attempt := 0; attempt <= a.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(a.retryDelay):
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.rpcURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build rpc request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, lastErr = a.client.Do(req)
		if lastErr == nil {
			break
		}
	}
	if lastErr != nil {
		return bridgeerrors.New(bridgeerrors.CodeRpcError, bridgeerrors.StageInitiate, "svm rpc request failed").
			WithChain(a.chainId).Wrap(lastErr)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	var envelope rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return bridgeerrors.New(bridgeerrors.CodeRpcError, bridgeerrors.StageInitiate, "decode svm rpc response").
			WithChain(a.chainId).Wrap(err)
	}
	if envelope.Error != nil {
		return bridgeerrors.Newf(bridgeerrors.CodeRpcError, bridgeerrors.StageInitiate, "svm rpc error %d: %s", envelope.Error.Code, envelope.Error.Message).
			WithChain(a.chainId)
	}
	if result != nil {
		if err := json.Unmarshal(envelope.Result, result); err != nil {
			return fmt.Errorf("unmarshal svm rpc result for method %s: %w", method, err)
		}
	}
	return nil
}

// LatestBlockhash reads getLatestBlockhash.
func (a *Adapter) LatestBlockhash(ctx context.Context) (string, error) {
	var out struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	if err := a.performRequest(ctx, "getLatestBlockhash", []any{map[string]any{"commitment": "confirmed"}}, &out); err != nil {
		return "", err
	}
	return out.Value.Blockhash, nil
}

// AccountInfo is the decoded subset of getAccountInfo's response this SDK
// cares about.
type AccountInfo struct {
	Exists bool
	Owner  string
	Data   []byte
}

// GetAccountInfo reads an account by base58 address, base64-decoding the
// data field.
func (a *Adapter) GetAccountInfo(ctx context.Context, address PublicKey) (AccountInfo, error) {
	var out struct {
		Value *struct {
			Owner string   `json:"owner"`
			Data  []string `json:"data"`
		} `json:"value"`
	}
	params := []any{address.String(), map[string]any{"encoding": "base64", "commitment": "confirmed"}}
	if err := a.performRequest(ctx, "getAccountInfo", params, &out); err != nil {
		return AccountInfo{}, err
	}
	if out.Value == nil {
		return AccountInfo{Exists: false}, nil
	}
	var data []byte
	if len(out.Value.Data) > 0 {
		decoded, err := base64.StdEncoding.DecodeString(out.Value.Data[0])
		if err != nil {
			return AccountInfo{}, fmt.Errorf("decode account data: %w", err)
		}
		data = decoded
	}
	return AccountInfo{Exists: true, Owner: out.Value.Owner, Data: data}, nil
}

// SendTransaction submits a base64-encoded signed transaction and waits
// for confirmed commitment, polling getSignatureStatuses with the given
// timeout/poll interval.
func (a *Adapter) SendTransaction(ctx context.Context, signedTxBase64 string, waitTimeout, pollInterval time.Duration) (string, error) {
	var signature string
	err := a.performRequest(ctx, "sendTransaction", []any{
		signedTxBase64,
		map[string]any{"encoding": "base64", "preflightCommitment": "confirmed"},
	}, &signature)
	if err != nil {
		return "", err
	}

	deadline := time.Now().Add(waitTimeout)
	for time.Now().Before(deadline) {
		confirmed, err := a.signatureConfirmed(ctx, signature)
		if err != nil {
			return "", err
		}
		if confirmed {
			return signature, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(pollInterval):
		}
	}
	return "", bridgeerrors.Newf(bridgeerrors.CodeTimeout, bridgeerrors.StageInitiate, "transaction %s not confirmed within %s", signature, waitTimeout).
		WithChain(a.chainId)
}

func (a *Adapter) signatureConfirmed(ctx context.Context, signature string) (bool, error) {
	var out struct {
		Value []*struct {
			ConfirmationStatus string `json:"confirmationStatus"`
			Err                any    `json:"err"`
		} `json:"value"`
	}
	if err := a.performRequest(ctx, "getSignatureStatuses", []any{[]string{signature}}, &out); err != nil {
		return false, err
	}
	if len(out.Value) == 0 || out.Value[0] == nil {
		return false, nil
	}
	status := out.Value[0]
	if status.Err != nil {
		return false, bridgeerrors.Newf(bridgeerrors.CodeExecutionReverted, bridgeerrors.StageInitiate, "transaction %s failed: %v", signature, status.Err).
			WithChain(a.chainId)
	}
	return status.ConfirmationStatus == "confirmed" || status.ConfirmationStatus == "finalized", nil
}

// DeriveProgramAddress is a thin pass-through to seeds.FindProgramAddress,
// kept on the adapter so callers do not need to import the seeds package
// directly for the common case.
func (a *Adapter) DeriveProgramAddress(seedParts [][]byte, programId PublicKey) (PublicKey, uint8, error) {
	addr, bump, err := seeds.FindProgramAddress(seedParts, [32]byte(programId))
	return PublicKey(addr), bump, err
}
