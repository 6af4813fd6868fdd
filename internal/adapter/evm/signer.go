package evm

import (
	"errors"
	"fmt"

	"multisig-registry/internal/core/domain"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrInvalidSignature = errors.New("invalid signature")

// SignerRecoverer recovers the signer of an EIP-191 personal message.
type SignerRecoverer struct{}

func NewSignerRecoverer() *SignerRecoverer {
	return &SignerRecoverer{}
}

// Recover accepts a 65-byte [R || S || V] signature with V in {0,1} or {27,28}.
func (SignerRecoverer) Recover(message []byte, signature []byte) (domain.Member, error) {
	if len(signature) != crypto.SignatureLength {
		return domain.Member{}, fmt.Errorf("%w: length %d", ErrInvalidSignature, len(signature))
	}
	sig := make([]byte, len(signature))
	copy(sig, signature)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash(message), sig)
	if err != nil {
		return domain.Member{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}

// SignMessage produces a personal-message signature with V in {27,28}, the
// form wallets return from personal_sign.
func SignMessage(message []byte, key []byte) ([]byte, error) {
	priv, err := crypto.ToECDSA(key)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(accounts.TextHash(message), priv)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}
