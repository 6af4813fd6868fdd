package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"multisig-registry/internal/core/domain"
	"multisig-registry/internal/core/ports"
	"multisig-registry/pkg/apperror"
)

// AuthServiceImpl implements ports.AuthService. A member proves control of
// its address by signing a one-time challenge as an EIP-191 personal message.
type AuthServiceImpl struct {
	challenges   ports.ChallengeStore
	recoverer    ports.SignerRecoverer
	tokenSvc     ports.TokenService
	challengeTTL time.Duration
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	challenges ports.ChallengeStore,
	recoverer ports.SignerRecoverer,
	tokenSvc ports.TokenService,
	challengeTTL time.Duration,
) *AuthServiceImpl {
	return &AuthServiceImpl{
		challenges:   challenges,
		recoverer:    recoverer,
		tokenSvc:     tokenSvc,
		challengeTTL: challengeTTL,
	}
}

// Challenge issues a fresh login message for member, replacing any
// outstanding one.
func (s *AuthServiceImpl) Challenge(ctx context.Context, member domain.Member) (*ports.Challenge, error) {
	if member == (domain.Member{}) {
		return nil, apperror.Validation("member address is required")
	}

	nonce, err := generateRandomHex(16)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("generate nonce: %w", err))
	}
	expiresAt := time.Now().UTC().Add(s.challengeTTL)
	message := ChallengeMessage(member, nonce, expiresAt)

	if err := s.challenges.Put(ctx, member, message, s.challengeTTL); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("store challenge: %w", err))
	}

	return &ports.Challenge{
		Member:    member,
		Message:   message,
		ExpiresAt: expiresAt,
	}, nil
}

// Login redeems the outstanding challenge. The challenge is consumed even
// when the signature is wrong.
func (s *AuthServiceImpl) Login(ctx context.Context, member domain.Member, signature []byte) (string, time.Time, error) {
	message, err := s.challenges.Take(ctx, member)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("take challenge: %w", err))
	}
	if message == "" {
		return "", time.Time{}, apperror.ErrChallengeExpired()
	}

	signer, err := s.recoverer.Recover([]byte(message), signature)
	if err != nil || signer != member {
		return "", time.Time{}, apperror.ErrInvalidSignature()
	}

	token, expiry, err := s.tokenSvc.Generate(member)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}
	return token, expiry, nil
}

// ChallengeMessage is the exact text a member signs to log in.
func ChallengeMessage(member domain.Member, nonce string, expiresAt time.Time) string {
	return fmt.Sprintf("Sign in to multisig-registry\nMember: %s\nNonce: %s\nExpires: %s",
		member.Hex(), nonce, expiresAt.Format(time.RFC3339))
}

// generateRandomHex generates a random hex string of n bytes.
func generateRandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
