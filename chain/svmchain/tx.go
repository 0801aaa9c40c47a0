package svmchain

import (
	"crypto/ed25519"
	"encoding/base64"
	"fmt"

	"github.com/mr-tron/base58"
)

// AccountMeta is one account reference inside an Instruction.
type AccountMeta struct {
	Pubkey     PublicKey
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single SVM instruction: a program id, its ordered
// account list, and opaque instruction data (the program's own
// discriminator + borsh-encoded arguments; this package does not know or
// care about any particular program's layout).
type Instruction struct {
	ProgramId PublicKey
	Accounts  []AccountMeta
	Data      []byte
}

// Transaction is an unsigned (or partially signed) legacy SVM transaction:
// one fee payer, a flat instruction list, and a recent blockhash.
type Transaction struct {
	FeePayer        PublicKey
	Instructions    []Instruction
	RecentBlockhash string // base58
}

// accountRole tracks the signer/writable flags accumulated for one account
// across every instruction that references it, so each account appears
// exactly once in the compiled message's account list.
type accountRole struct {
	pubkey     PublicKey
	isSigner   bool
	isWritable bool
	isProgram  bool
}

// compile flattens the transaction into the legacy wire message: a
// deduplicated account list ordered (writable signers, readonly signers,
// writable non-signers, readonly non-signers), a header, the blockhash,
// and the instruction list addressed by index into that account list.
func (tx Transaction) compile() (header [3]byte, accounts []PublicKey, instructions []Instruction, err error) {
	order := []PublicKey{tx.FeePayer}
	roles := map[PublicKey]*accountRole{
		tx.FeePayer: {pubkey: tx.FeePayer, isSigner: true, isWritable: true},
	}

	touch := func(pk PublicKey, signer, writable, program bool) {
		r, ok := roles[pk]
		if !ok {
			r = &accountRole{pubkey: pk}
			roles[pk] = r
			order = append(order, pk)
		}
		r.isSigner = r.isSigner || signer
		r.isWritable = r.isWritable || writable
		r.isProgram = r.isProgram || program
	}

	for _, ix := range tx.Instructions {
		touch(ix.ProgramId, false, false, true)
		for _, am := range ix.Accounts {
			touch(am.Pubkey, am.IsSigner, am.IsWritable, false)
		}
	}

	writableSigners := make([]PublicKey, 0, len(order))
	readonlySigners := make([]PublicKey, 0, len(order))
	writableOthers := make([]PublicKey, 0, len(order))
	readonlyOthers := make([]PublicKey, 0, len(order))
	for _, pk := range order {
		r := roles[pk]
		switch {
		case r.isSigner && r.isWritable:
			writableSigners = append(writableSigners, pk)
		case r.isSigner:
			readonlySigners = append(readonlySigners, pk)
		case r.isWritable:
			writableOthers = append(writableOthers, pk)
		default:
			readonlyOthers = append(readonlyOthers, pk)
		}
	}

	accounts = make([]PublicKey, 0, len(order))
	accounts = append(accounts, writableSigners...)
	accounts = append(accounts, readonlySigners...)
	accounts = append(accounts, writableOthers...)
	accounts = append(accounts, readonlyOthers...)

	index := make(map[PublicKey]uint8, len(accounts))
	for i, pk := range accounts {
		index[pk] = uint8(i)
	}

	header = [3]byte{
		uint8(len(writableSigners) + len(readonlySigners)),
		uint8(len(readonlySigners)),
		uint8(len(readonlyOthers)),
	}

	compiled := make([]Instruction, len(tx.Instructions))
	for i, ix := range tx.Instructions {
		if _, ok := index[ix.ProgramId]; !ok {
			return header, nil, nil, fmt.Errorf("program id %s missing from compiled account list", ix.ProgramId)
		}
		compiled[i] = ix
	}
	instructions = compiled
	return header, accounts, instructions, nil
}

func putCompactU16(buf []byte, n int) []byte {
	v := uint16(n)
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf = append(buf, b|0x80)
		} else {
			buf = append(buf, b)
			break
		}
	}
	return buf
}

// Message returns the serialized legacy message bytes: the payload that
// gets signed (and later embedded, alongside signatures, into the full
// transaction wire format).
func (tx Transaction) Message() ([]byte, error) {
	header, accounts, instructions, err := tx.compile()
	if err != nil {
		return nil, err
	}
	blockhash, err := base58.Decode(tx.RecentBlockhash)
	if err != nil {
		return nil, fmt.Errorf("decode recent blockhash: %w", err)
	}
	if len(blockhash) != 32 {
		return nil, fmt.Errorf("recent blockhash decodes to %d bytes, want 32", len(blockhash))
	}

	accountIndex := make(map[PublicKey]uint8, len(accounts))
	for i, pk := range accounts {
		accountIndex[pk] = uint8(i)
	}

	var msg []byte
	msg = append(msg, header[:]...)
	msg = putCompactU16(msg, len(accounts))
	for _, pk := range accounts {
		msg = append(msg, pk[:]...)
	}
	msg = append(msg, blockhash...)
	msg = putCompactU16(msg, len(instructions))
	for _, ix := range instructions {
		msg = append(msg, accountIndex[ix.ProgramId])
		msg = putCompactU16(msg, len(ix.Accounts))
		for _, am := range ix.Accounts {
			msg = append(msg, accountIndex[am.Pubkey])
		}
		msg = putCompactU16(msg, len(ix.Data))
		msg = append(msg, ix.Data...)
	}
	return msg, nil
}

// Sign produces the base64-encoded wire transaction (signature section +
// message) signed by keypair, which must be a 64-byte ed25519 private key
// (seed||pubkey, the same layout ed25519.PrivateKey itself uses) whose
// public half is the transaction's fee payer.
func (tx Transaction) Sign(keypair []byte) (string, error) {
	if len(keypair) != ed25519.PrivateKeySize {
		return "", fmt.Errorf("signing keypair must be %d bytes, got %d", ed25519.PrivateKeySize, len(keypair))
	}
	priv := ed25519.PrivateKey(keypair)
	var signerPk PublicKey
	copy(signerPk[:], priv.Public().(ed25519.PublicKey))
	if signerPk != tx.FeePayer {
		return "", fmt.Errorf("keypair public key does not match transaction fee payer")
	}

	message, err := tx.Message()
	if err != nil {
		return "", err
	}
	signature := ed25519.Sign(priv, message)

	var wire []byte
	wire = putCompactU16(wire, 1)
	wire = append(wire, signature...)
	wire = append(wire, message...)
	return base64.StdEncoding.EncodeToString(wire), nil
}
