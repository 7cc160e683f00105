package wallet

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/google/uuid"
)

// ErrBadAuthorization is returned when a signature does not prove the
// claimed caller.
var ErrBadAuthorization = errors.New("authorization does not match caller")

// Call describes one state-changing contract call.
type Call struct {
	Contract common.Address
	Calldata []byte
}

// Authorization is a signed statement that a wallet made a Call.
type Authorization struct {
	ID        uuid.UUID
	Call      Call
	Message   []byte
	Signature []byte
}

// Signer authorizes calls for a signing wallet.
type Signer struct {
	wallet *Wallet
	ks     KeystoreBackend
}

// NewSigner creates a signer for the given wallet.
func NewSigner(w *Wallet, ks KeystoreBackend) *Signer {
	return &Signer{wallet: w, ks: ks}
}

// Address returns the wallet's address.
func (s *Signer) Address() string {
	return s.wallet.Address
}

// Authorize signs an EIP-191 message naming the contract, the calldata and
// a fresh request id.
func (s *Signer) Authorize(call Call) (*Authorization, error) {
	id := uuid.New()
	msg := callMessage(id, call)
	sig, err := SignMessage(s.wallet, s.ks, msg)
	if err != nil {
		return nil, err
	}
	return &Authorization{ID: id, Call: call, Message: msg, Signature: sig}, nil
}

// Recover returns the caller proven by a. The message must describe a.Call.
func Recover(a *Authorization) (common.Address, error) {
	if !bytes.Equal(a.Message, callMessage(a.ID, a.Call)) {
		return common.Address{}, fmt.Errorf("%w: message does not describe the call", ErrBadAuthorization)
	}
	return VerifyMessage(a.Message, a.Signature)
}

// RecoverAs is Recover plus a check against the expected caller.
func RecoverAs(a *Authorization, want common.Address) (common.Address, error) {
	got, err := Recover(a)
	if err != nil {
		return common.Address{}, err
	}
	if got != want {
		return common.Address{}, fmt.Errorf("%w: signed by %s, expected %s", ErrBadAuthorization, got.Hex(), want.Hex())
	}
	return got, nil
}

func callMessage(id uuid.UUID, call Call) []byte {
	return []byte(fmt.Sprintf("w3bond call\ncontract: %s\ncalldata: %s\nrequest: %s",
		call.Contract.Hex(), hexutil.Encode(call.Calldata), id))
}
