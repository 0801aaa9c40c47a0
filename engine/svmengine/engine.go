// Package svmengine implements the SVM source engine: the operations that
// build and submit SVM-originated bridge transactions, and the EVM→SVM
// terminal execution step (proveIncomingMessage / executeIncomingMessage).
package svmengine

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/singleflight"

	"github.com/Cogwheel-Validator/spectra-bridge-sdk/bridgeerrors"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/chain/svmchain"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/identity"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/logging"
	"github.com/Cogwheel-Validator/spectra-bridge-sdk/seeds"
)

// KeypairLoader reads a 64-byte ed25519 keypair (seed||pubkey) from a
// filesystem path. The default is os.ReadFile.
type KeypairLoader func(path string) ([]byte, error)

// Config configures a new Engine.
type Config struct {
	Adapter        *svmchain.Adapter
	BridgeProgram  svmchain.PublicKey
	RelayerProgram svmchain.PublicKey
	// DefaultKeypair, when set, is used whenever an operation is not
	// given an explicit signer path.
	DefaultKeypair []byte
	Loader         KeypairLoader
	Logger         logging.Logger

	SendTimeout  time.Duration
	PollInterval time.Duration
}

// Engine is the SVM source engine.
type Engine struct {
	adapter        *svmchain.Adapter
	bridgeProgram  svmchain.PublicKey
	relayerProgram svmchain.PublicKey
	loader         KeypairLoader
	log            logging.Logger
	sendTimeout    time.Duration
	pollInterval   time.Duration

	defaultKeypair []byte

	mu       sync.Mutex
	keypairs map[string][]byte
	sf       singleflight.Group
}

// New builds an Engine.
func New(cfg Config) *Engine {
	log := cfg.Logger
	if log == nil {
		log = logging.Nop()
	}
	log = log.With("svmengine")

	loader := cfg.Loader
	if loader == nil {
		loader = os.ReadFile
	}
	sendTimeout := cfg.SendTimeout
	if sendTimeout == 0 {
		sendTimeout = 60 * time.Second
	}
	pollInterval := cfg.PollInterval
	if pollInterval == 0 {
		pollInterval = 5 * time.Second
	}

	return &Engine{
		adapter:        cfg.Adapter,
		bridgeProgram:  cfg.BridgeProgram,
		relayerProgram: cfg.RelayerProgram,
		loader:         loader,
		log:            log,
		sendTimeout:    sendTimeout,
		pollInterval:   pollInterval,
		defaultKeypair: cfg.DefaultKeypair,
		keypairs:       make(map[string][]byte),
	}
}

// resolveSigner returns the keypair for path, loading and caching it under
// single-flight discipline on first use (populate-once, never evicted). An
// empty path means "use the engine's default keypair".
func (e *Engine) resolveSigner(path string) ([]byte, error) {
	if path == "" {
		if len(e.defaultKeypair) == 0 {
			return nil, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageInitiate, "no signer configured: no default keypair and no path given")
		}
		return e.defaultKeypair, nil
	}

	e.mu.Lock()
	if kp, ok := e.keypairs[path]; ok {
		e.mu.Unlock()
		return kp, nil
	}
	e.mu.Unlock()

	result, err, _ := e.sf.Do(path, func() (any, error) {
		kp, err := e.loader(path)
		if err != nil {
			return nil, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageInitiate, "load keypair").Wrap(err)
		}
		if len(kp) != ed25519.PrivateKeySize {
			return nil, bridgeerrors.Newf(bridgeerrors.CodeConfigError, bridgeerrors.StageInitiate, "keypair at %s is %d bytes, want %d", path, len(kp), ed25519.PrivateKeySize)
		}
		e.mu.Lock()
		e.keypairs[path] = kp
		e.mu.Unlock()
		return kp, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// signerPubkey derives the 32-byte public key from a 64-byte keypair.
func signerPubkey(keypair []byte) svmchain.PublicKey {
	var pk svmchain.PublicKey
	copy(pk[:], ed25519.PrivateKey(keypair).Public().(ed25519.PublicKey))
	return pk
}

// SendOptions is shared by every bridge* operation.
type SendOptions struct {
	PayForRelay    bool
	GasLimit       uint64
	IdempotencyKey string
	SignerPath     string
}

// OutgoingResult is returned by every initiation operation.
type OutgoingResult struct {
	OutgoingMessagePda svmchain.PublicKey
	Signature          string
}

// deriveSalt computes the 32-byte salt an outgoing message PDA is seeded
// with: keccak256(idempotencyKey) when one is given, else 32 fresh random
// bytes.
func deriveSalt(idempotencyKey string) ([32]byte, error) {
	var salt [32]byte
	if idempotencyKey != "" {
		h := sha3.NewLegacyKeccak256()
		h.Write([]byte(idempotencyKey))
		copy(salt[:], h.Sum(nil))
		return salt, nil
	}
	if _, err := rand.Read(salt[:]); err != nil {
		return salt, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageInitiate, "generate random salt").Wrap(err)
	}
	return salt, nil
}

func (e *Engine) outgoingMessagePda(salt [32]byte) (svmchain.PublicKey, error) {
	addr, _, err := seeds.FindProgramAddress([][]byte{seeds.OutgoingMessageSeed, salt[:]}, [32]byte(e.bridgeProgram))
	return svmchain.PublicKey(addr), err
}

func (e *Engine) tokenVaultPda(mint, remoteToken [32]byte) (svmchain.PublicKey, error) {
	addr, _, err := seeds.FindProgramAddress([][]byte{seeds.TokenVaultSeed, mint[:], remoteToken[:]}, [32]byte(e.bridgeProgram))
	return svmchain.PublicKey(addr), err
}

func (e *Engine) relayPayPda(salt [32]byte) (svmchain.PublicKey, error) {
	addr, _, err := seeds.FindProgramAddress([][]byte{seeds.RelayerMeteringSeed, salt[:]}, [32]byte(e.relayerProgram))
	return svmchain.PublicKey(addr), err
}

// submit assembles the final transaction around coreInstructions, signs it
// with the resolved signer, and submits it with a confirmed-commitment
// wait.
func (e *Engine) submit(ctx context.Context, signerPath string, coreInstructions []svmchain.Instruction, outgoingPda svmchain.PublicKey) (OutgoingResult, error) {
	keypair, err := e.resolveSigner(signerPath)
	if err != nil {
		return OutgoingResult{}, err
	}
	payer := signerPubkey(keypair)

	blockhash, err := e.adapter.LatestBlockhash(ctx)
	if err != nil {
		return OutgoingResult{}, err
	}

	tx := svmchain.Transaction{
		FeePayer:        payer,
		Instructions:    coreInstructions,
		RecentBlockhash: blockhash,
	}
	signed, err := tx.Sign(keypair)
	if err != nil {
		return OutgoingResult{}, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageInitiate, "sign transaction").Wrap(err)
	}

	sig, err := e.adapter.SendTransaction(ctx, signed, e.sendTimeout, e.pollInterval)
	if err != nil {
		return OutgoingResult{}, err
	}
	return OutgoingResult{OutgoingMessagePda: outgoingPda, Signature: sig}, nil
}

func payForRelayInstruction(e *Engine, salt [32]byte, payer svmchain.PublicKey) (svmchain.Instruction, error) {
	relayPda, err := e.relayPayPda(salt)
	if err != nil {
		return svmchain.Instruction{}, err
	}
	return svmchain.Instruction{
		ProgramId: e.relayerProgram,
		Accounts: []svmchain.AccountMeta{
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: relayPda, IsWritable: true},
		},
		Data: encodePayForRelay(salt, e.relayerProgram),
	}, nil
}

// BridgeNative sends native SOL to an EVM (or, for a hub reached through
// this SVM chain, any route-configured) destination address.
func (e *Engine) BridgeNative(ctx context.Context, to svmchain.PublicKey, amount uint64, nestedCall []byte, opts SendOptions) (OutgoingResult, error) {
	salt, err := deriveSalt(opts.IdempotencyKey)
	if err != nil {
		return OutgoingResult{}, err
	}
	outgoingPda, err := e.outgoingMessagePda(salt)
	if err != nil {
		return OutgoingResult{}, err
	}
	keypair, err := e.resolveSigner(opts.SignerPath)
	if err != nil {
		return OutgoingResult{}, err
	}
	payer := signerPubkey(keypair)

	ix := svmchain.Instruction{
		ProgramId: e.bridgeProgram,
		Accounts: []svmchain.AccountMeta{
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: outgoingPda, IsWritable: true},
		},
		// The encoded nested call, if any, follows its presence flag.
		Data: append(encodeBridgeNative(to, amount, opts.PayForRelay, opts.GasLimit, len(nestedCall) > 0), nestedCall...),
	}
	instructions := []svmchain.Instruction{ix}
	if opts.PayForRelay {
		relayIx, err := payForRelayInstruction(e, salt, payer)
		if err != nil {
			return OutgoingResult{}, err
		}
		instructions = append(instructions, relayIx)
	}
	return e.submit(ctx, opts.SignerPath, instructions, outgoingPda)
}

// BridgeToken sends a fungible token whose mapping to a remote-chain token
// is already registered on-chain.
func (e *Engine) BridgeToken(ctx context.Context, to, mint svmchain.PublicKey, remoteToken [32]byte, amount uint64, opts SendOptions) (OutgoingResult, error) {
	salt, err := deriveSalt(opts.IdempotencyKey)
	if err != nil {
		return OutgoingResult{}, err
	}
	outgoingPda, err := e.outgoingMessagePda(salt)
	if err != nil {
		return OutgoingResult{}, err
	}
	vaultPda, err := e.tokenVaultPda([32]byte(mint), remoteToken)
	if err != nil {
		return OutgoingResult{}, err
	}
	keypair, err := e.resolveSigner(opts.SignerPath)
	if err != nil {
		return OutgoingResult{}, err
	}
	payer := signerPubkey(keypair)

	ix := svmchain.Instruction{
		ProgramId: e.bridgeProgram,
		Accounts: []svmchain.AccountMeta{
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: outgoingPda, IsWritable: true},
			{Pubkey: mint},
			{Pubkey: vaultPda, IsWritable: true},
		},
		Data: encodeBridgeToken(to, mint, remoteToken, amount, opts.PayForRelay, opts.GasLimit),
	}
	instructions := []svmchain.Instruction{ix}
	if opts.PayForRelay {
		relayIx, err := payForRelayInstruction(e, salt, payer)
		if err != nil {
			return OutgoingResult{}, err
		}
		instructions = append(instructions, relayIx)
	}
	return e.submit(ctx, opts.SignerPath, instructions, outgoingPda)
}

// BridgeWrapped sends a wrapped token minted by this SVM chain's bridge
// program back to its EVM-native form.
func (e *Engine) BridgeWrapped(ctx context.Context, to, mint svmchain.PublicKey, amount uint64, opts SendOptions) (OutgoingResult, error) {
	salt, err := deriveSalt(opts.IdempotencyKey)
	if err != nil {
		return OutgoingResult{}, err
	}
	outgoingPda, err := e.outgoingMessagePda(salt)
	if err != nil {
		return OutgoingResult{}, err
	}
	keypair, err := e.resolveSigner(opts.SignerPath)
	if err != nil {
		return OutgoingResult{}, err
	}
	payer := signerPubkey(keypair)

	ix := svmchain.Instruction{
		ProgramId: e.bridgeProgram,
		Accounts: []svmchain.AccountMeta{
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: outgoingPda, IsWritable: true},
			{Pubkey: mint, IsWritable: true},
		},
		Data: encodeBridgeWrapped(to, mint, amount, opts.PayForRelay, opts.GasLimit),
	}
	instructions := []svmchain.Instruction{ix}
	if opts.PayForRelay {
		relayIx, err := payForRelayInstruction(e, salt, payer)
		if err != nil {
			return OutgoingResult{}, err
		}
		instructions = append(instructions, relayIx)
	}
	return e.submit(ctx, opts.SignerPath, instructions, outgoingPda)
}

// BridgeCall sends an arbitrary destination-side call with no asset
// transfer attached.
func (e *Engine) BridgeCall(ctx context.Context, to [32]byte, value uint64, data []byte, callType uint8, opts SendOptions) (OutgoingResult, error) {
	salt, err := deriveSalt(opts.IdempotencyKey)
	if err != nil {
		return OutgoingResult{}, err
	}
	outgoingPda, err := e.outgoingMessagePda(salt)
	if err != nil {
		return OutgoingResult{}, err
	}
	keypair, err := e.resolveSigner(opts.SignerPath)
	if err != nil {
		return OutgoingResult{}, err
	}
	payer := signerPubkey(keypair)

	ix := svmchain.Instruction{
		ProgramId: e.bridgeProgram,
		Accounts: []svmchain.AccountMeta{
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: outgoingPda, IsWritable: true},
		},
		Data: encodeBridgeCall(to, value, data, callType, opts.PayForRelay, opts.GasLimit),
	}
	instructions := []svmchain.Instruction{ix}
	if opts.PayForRelay {
		relayIx, err := payForRelayInstruction(e, salt, payer)
		if err != nil {
			return OutgoingResult{}, err
		}
		instructions = append(instructions, relayIx)
	}
	return e.submit(ctx, opts.SignerPath, instructions, outgoingPda)
}

// WrapTokenMetadata creates the on-chain wrapped-mint metadata needed
// before a remote token can be bridged in wrapped form. The wrapped
// mint's address is a PDA derived from a deterministic hash of the
// metadata blob.
func (e *Engine) WrapTokenMetadata(ctx context.Context, remoteToken [32]byte, name, symbol string, decimals uint8, scalerExponent int8, signerPath string) (svmchain.PublicKey, string, error) {
	h := sha3.NewLegacyKeccak256()
	h.Write(remoteToken[:])
	_ = putStringForHash(h, name)
	_ = putStringForHash(h, symbol)
	h.Write([]byte{decimals, byte(scalerExponent)})
	var metadataHash [32]byte
	copy(metadataHash[:], h.Sum(nil))

	wrappedMint, _, err := seeds.FindProgramAddress([][]byte{seeds.WrappedTokenSeed, metadataHash[:]}, [32]byte(e.bridgeProgram))
	if err != nil {
		return svmchain.PublicKey{}, "", err
	}

	keypair, err := e.resolveSigner(signerPath)
	if err != nil {
		return svmchain.PublicKey{}, "", err
	}
	payer := signerPubkey(keypair)

	ix := svmchain.Instruction{
		ProgramId: e.bridgeProgram,
		Accounts: []svmchain.AccountMeta{
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: svmchain.PublicKey(wrappedMint), IsWritable: true},
		},
		Data: encodeWrapTokenMetadata(remoteToken, name, symbol, decimals, scalerExponent),
	}
	result, err := e.submit(ctx, signerPath, []svmchain.Instruction{ix}, svmchain.PublicKey(wrappedMint))
	if err != nil {
		return svmchain.PublicKey{}, "", err
	}
	return svmchain.PublicKey(wrappedMint), result.Signature, nil
}

// putStringForHash is a length-prefixed write into a running hash, so
// distinct strings never collide through concatenation ambiguity.
func putStringForHash(h interface{ Write([]byte) (int, error) }, s string) error {
	length := uint32(len(s))
	lenBytes := []byte{byte(length), byte(length >> 8), byte(length >> 16), byte(length >> 24)}
	if _, err := h.Write(lenBytes); err != nil {
		return err
	}
	_, err := h.Write([]byte(s))
	return err
}

// LatestDestinationBlockNumber reads the bridge account's recorded hub
// block height, used by route adapters to gate prove readiness.
func (e *Engine) LatestDestinationBlockNumber(ctx context.Context) (uint64, error) {
	bridgePda, _, err := seeds.FindProgramAddress([][]byte{seeds.BridgeSeed}, [32]byte(e.bridgeProgram))
	if err != nil {
		return 0, err
	}
	info, err := e.adapter.GetAccountInfo(ctx, svmchain.PublicKey(bridgePda))
	if err != nil {
		return 0, err
	}
	if !info.Exists {
		return 0, bridgeerrors.New(bridgeerrors.CodeConfigError, bridgeerrors.StageProve, "bridge account not found")
	}
	// Layout convention: the recorded hub block height is the first 8
	// bytes of the account data after an 8-byte account discriminator.
	if len(info.Data) < 16 {
		return 0, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageProve, "bridge account data too short")
	}
	var height uint64
	for i := 0; i < 8; i++ {
		height |= uint64(info.Data[8+i]) << (8 * i)
	}
	return height, nil
}

// FetchOutgoingMessage re-fetches an outgoing message account by PDA and
// decodes the raw (pre-ABI-encoding) message it carries. The account
// layout convention (8-byte discriminator, nonce, sender, then a tagged
// message) mirrors the instruction-data convention this engine writes in
// instructions.go — there is no on-chain program IDL to follow instead.
func (e *Engine) FetchOutgoingMessage(ctx context.Context, pda svmchain.PublicKey) (identity.OutgoingMessage, error) {
	info, err := e.adapter.GetAccountInfo(ctx, pda)
	if err != nil {
		return identity.OutgoingMessage{}, err
	}
	if !info.Exists {
		return identity.OutgoingMessage{}, bridgeerrors.New(bridgeerrors.CodeRpcError, bridgeerrors.StageInitiate, "outgoing message account not found")
	}
	return decodeOutgoingMessageAccount(info.Data, pda)
}

func decodeOutgoingMessageAccount(data []byte, pda svmchain.PublicKey) (identity.OutgoingMessage, error) {
	const headerLen = 8 + 8 + 32 + 1 // discriminator + nonce + sender + actionKind
	if len(data) < headerLen {
		return identity.OutgoingMessage{}, bridgeerrors.New(bridgeerrors.CodeInvariantViolated, bridgeerrors.StageInitiate, "outgoing message account data too short")
	}

	var nonce uint64
	for i := 0; i < 8; i++ {
		nonce |= uint64(data[8+i]) << (8 * i)
	}
	var sender [32]byte
	copy(sender[:], data[16:48])

	action, err := decodeStoredAction(data[48:])
	if err != nil {
		return identity.OutgoingMessage{}, err
	}

	return identity.OutgoingMessage{
		Nonce:     nonce,
		Sender:    sender,
		Action:    action,
		ProgramId: [32]byte(pda),
	}, nil
}

// IncomingEvent is the EVM-originated event the SVM engine proves against.
type IncomingEvent struct {
	MessageHash [32]byte
	MmrRoot     [32]byte
	Nonce       uint64
	Sender      [32]byte
	Ty          uint8
	Data        []byte
}

// ProveResult is returned by ProveIncomingMessage.
type ProveResult struct {
	Signature   string // empty if the proof was already submitted (idempotent no-op)
	MessageHash [32]byte
}

// ProveIncomingMessage submits the Merkle proof for an EVM-originated
// message, or, if the incoming PDA already exists, returns just the hash
// — idempotent, safe to call repeatedly.
func (e *Engine) ProveIncomingMessage(ctx context.Context, event IncomingEvent, proof [][32]byte, blockNumber uint64, signerPath string) (ProveResult, error) {
	incomingPda, _, err := seeds.FindProgramAddress([][]byte{seeds.IncomingMessageSeed, event.MessageHash[:]}, [32]byte(e.bridgeProgram))
	if err != nil {
		return ProveResult{}, err
	}

	info, err := e.adapter.GetAccountInfo(ctx, svmchain.PublicKey(incomingPda))
	if err != nil {
		return ProveResult{}, err
	}
	if info.Exists {
		return ProveResult{MessageHash: event.MessageHash}, nil
	}

	keypair, err := e.resolveSigner(signerPath)
	if err != nil {
		return ProveResult{}, err
	}
	payer := signerPubkey(keypair)

	ix := svmchain.Instruction{
		ProgramId: e.bridgeProgram,
		Accounts: []svmchain.AccountMeta{
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: svmchain.PublicKey(incomingPda), IsWritable: true},
		},
		Data: encodeProveIncoming(event.MessageHash, proof, blockNumber),
	}
	result, err := e.submit(ctx, signerPath, []svmchain.Instruction{ix}, svmchain.PublicKey(incomingPda))
	if err != nil {
		return ProveResult{}, err
	}
	return ProveResult{Signature: result.Signature, MessageHash: event.MessageHash}, nil
}

// IncomingMessageState reports whether an incoming message PDA exists for
// messageHash and, if so, whether its executed flag is set. Used by the
// EVM→SVM route adapter's status probe.
func (e *Engine) IncomingMessageState(ctx context.Context, messageHash [32]byte) (pda svmchain.PublicKey, executed bool, exists bool, err error) {
	addr, _, err := seeds.FindProgramAddress([][]byte{seeds.IncomingMessageSeed, messageHash[:]}, [32]byte(e.bridgeProgram))
	if err != nil {
		return svmchain.PublicKey{}, false, false, err
	}
	pda = svmchain.PublicKey(addr)

	info, err := e.adapter.GetAccountInfo(ctx, pda)
	if err != nil {
		return pda, false, false, err
	}
	if !info.Exists {
		return pda, false, false, nil
	}
	executed = len(info.Data) >= 9 && info.Data[8] == 1
	return pda, executed, true, nil
}

// RemainingAccount mirrors one entry the relay instruction needs beyond
// the fixed account set: recipient, vaults, nested-instruction programs
// and accounts.
type RemainingAccount struct {
	Pubkey     svmchain.PublicKey
	IsSigner   bool
	IsWritable bool
}

// ExecuteIncomingMessage checks that the incoming message PDA exists and is
// not yet executed, then submits the single relayMessage instruction with
// the caller-supplied remaining accounts appended, downgrading any write
// flag on the bridge CPI authority account to read-only. It does not read
// the stored message to rebuild the remaining-accounts list itself.
func (e *Engine) ExecuteIncomingMessage(ctx context.Context, messageHash [32]byte, remaining []RemainingAccount, signerPath string) (string, error) {
	incomingPda, _, err := seeds.FindProgramAddress([][]byte{seeds.IncomingMessageSeed, messageHash[:]}, [32]byte(e.bridgeProgram))
	if err != nil {
		return "", err
	}
	info, err := e.adapter.GetAccountInfo(ctx, svmchain.PublicKey(incomingPda))
	if err != nil {
		return "", err
	}
	if !info.Exists {
		return "", bridgeerrors.New(bridgeerrors.CodeNotProven, bridgeerrors.StageExecute, "incoming message not proven")
	}
	if len(info.Data) >= 9 && info.Data[8] == 1 {
		return "", bridgeerrors.New(bridgeerrors.CodeAlreadyExecuted, bridgeerrors.StageExecute, "incoming message already executed")
	}

	cpiAuthority, _, err := seeds.FindProgramAddress([][]byte{seeds.BridgeCpiAuthoritySeed}, [32]byte(e.bridgeProgram))
	if err != nil {
		return "", err
	}

	keypair, err := e.resolveSigner(signerPath)
	if err != nil {
		return "", err
	}
	payer := signerPubkey(keypair)

	accounts := []svmchain.AccountMeta{
		{Pubkey: payer, IsSigner: true, IsWritable: true},
		{Pubkey: svmchain.PublicKey(incomingPda), IsWritable: true},
		{Pubkey: svmchain.PublicKey(cpiAuthority), IsWritable: false},
	}
	for _, r := range remaining {
		isWritable := r.IsWritable
		if r.Pubkey == svmchain.PublicKey(cpiAuthority) {
			isWritable = false
		}
		accounts = append(accounts, svmchain.AccountMeta{Pubkey: r.Pubkey, IsSigner: r.IsSigner, IsWritable: isWritable})
	}

	ix := svmchain.Instruction{
		ProgramId: e.bridgeProgram,
		Accounts:  accounts,
		Data:      encodeExecuteIncoming(messageHash),
	}
	result, err := e.submit(ctx, signerPath, []svmchain.Instruction{ix}, svmchain.PublicKey(incomingPda))
	if err != nil {
		return "", err
	}
	return result.Signature, nil
}
