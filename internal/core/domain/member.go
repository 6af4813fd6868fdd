package domain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Member is an account address authorized to act on a wallet.
type Member = common.Address

// Membership validation failures. Errors returned by the domain wrap one of these.
var (
	ErrInvalidThreshold = errors.New("invalid threshold")
	ErrDuplicateMember  = errors.New("duplicate member")
	ErrNotMember        = errors.New("not a member")
	ErrInvalidMember    = errors.New("invalid member address")
)

// MemberError ties a membership failure to the member that caused it.
type MemberError struct {
	Err    error
	Member Member
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Member.Hex())
}

func (e *MemberError) Unwrap() error { return e.Err }

// ThresholdError reports a required/member-count combination outside 1..len(members).
type ThresholdError struct {
	Members  int
	Required int
}

func (e *ThresholdError) Error() string {
	return fmt.Sprintf("%v: required %d with %d members", ErrInvalidThreshold, e.Required, e.Members)
}

func (e *ThresholdError) Unwrap() error { return ErrInvalidThreshold }

// ParseMember parses a 0x-prefixed hex address.
func ParseMember(s string) (Member, error) {
	if !common.IsHexAddress(s) {
		return Member{}, fmt.Errorf("%w: %q", ErrInvalidMember, s)
	}
	return common.HexToAddress(s), nil
}

// ValidateMembership checks a member list and threshold: no zero address,
// no duplicates, and 1 <= required <= len(members).
func ValidateMembership(members []Member, required int) error {
	seen := make(map[Member]struct{}, len(members))
	for _, m := range members {
		if m == (Member{}) {
			return &MemberError{Err: ErrInvalidMember, Member: m}
		}
		if _, dup := seen[m]; dup {
			return &MemberError{Err: ErrDuplicateMember, Member: m}
		}
		seen[m] = struct{}{}
	}
	return validateThreshold(len(members), required)
}

func validateThreshold(members, required int) error {
	if required < 1 || required > members {
		return &ThresholdError{Members: members, Required: required}
	}
	return nil
}
