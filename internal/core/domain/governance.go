package domain

import (
	"slices"
	"strings"

	"github.com/samber/lo"
)

// GovernanceKind tags a self-administration operation.
type GovernanceKind string

const (
	GovernanceAddMember      GovernanceKind = "ADD_MEMBER"
	GovernanceRemoveMember   GovernanceKind = "REMOVE_MEMBER"
	GovernanceReplaceMember  GovernanceKind = "REPLACE_MEMBER"
	GovernanceChangeMembers  GovernanceKind = "CHANGE_MEMBERS"
	GovernanceChangeMetadata GovernanceKind = "CHANGE_METADATA"
)

// GovernanceOp is one of the closed set of membership and metadata changes a
// wallet applies to itself when a self-destined transaction executes.
//
// Apply mutates w in place and reports what changed. On error w may be
// partially modified, so callers apply to a Clone and discard it on failure.
type GovernanceOp interface {
	Kind() GovernanceKind
	Apply(w *Wallet) (*GovernanceEffect, error)
}

// GovernanceEffect lists the membership and metadata deltas of an applied
// operation in the order they happened.
type GovernanceEffect struct {
	Added           []Member
	Removed         []Member
	MetadataChanged bool
}

type AddMember struct {
	Member Member `json:"member"`
}

type RemoveMember struct {
	Member Member `json:"member"`
}

type ReplaceMember struct {
	Old Member `json:"old"`
	New Member `json:"new"`
}

// ChangeMembers removes then adds as one all-or-nothing batch. Removals run
// first in input order and keep the relative order of the remaining members;
// additions are then appended in input order.
type ChangeMembers struct {
	Additions []Member `json:"additions"`
	Removals  []Member `json:"removals"`
}

type ChangeMetadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (AddMember) Kind() GovernanceKind      { return GovernanceAddMember }
func (RemoveMember) Kind() GovernanceKind   { return GovernanceRemoveMember }
func (ReplaceMember) Kind() GovernanceKind  { return GovernanceReplaceMember }
func (ChangeMembers) Kind() GovernanceKind  { return GovernanceChangeMembers }
func (ChangeMetadata) Kind() GovernanceKind { return GovernanceChangeMetadata }

func (op AddMember) Apply(w *Wallet) (*GovernanceEffect, error) {
	if err := addMember(w, op.Member); err != nil {
		return nil, err
	}
	return &GovernanceEffect{Added: []Member{op.Member}}, nil
}

func (op RemoveMember) Apply(w *Wallet) (*GovernanceEffect, error) {
	if err := removeMember(w, op.Member); err != nil {
		return nil, err
	}
	if err := validateThreshold(len(w.Members), w.Required); err != nil {
		return nil, err
	}
	return &GovernanceEffect{Removed: []Member{op.Member}}, nil
}

func (op ReplaceMember) Apply(w *Wallet) (*GovernanceEffect, error) {
	i := w.IndexOf(op.Old)
	if i < 0 {
		return nil, &MemberError{Err: ErrNotMember, Member: op.Old}
	}
	if op.New == (Member{}) {
		return nil, &MemberError{Err: ErrInvalidMember, Member: op.New}
	}
	if w.IsMember(op.New) {
		return nil, &MemberError{Err: ErrDuplicateMember, Member: op.New}
	}
	w.Members[i] = op.New
	return &GovernanceEffect{Added: []Member{op.New}, Removed: []Member{op.Old}}, nil
}

func (op ChangeMembers) Apply(w *Wallet) (*GovernanceEffect, error) {
	if dups := lo.FindDuplicates(op.Additions); len(dups) > 0 {
		return nil, &MemberError{Err: ErrDuplicateMember, Member: dups[0]}
	}
	// Removals move the last member into the freed slot; additions are
	// appended last to first.
	for _, m := range op.Removals {
		if err := swapRemoveMember(w, m); err != nil {
			return nil, err
		}
	}
	for _, m := range slices.Backward(op.Additions) {
		if err := addMember(w, m); err != nil {
			return nil, err
		}
	}
	if err := validateThreshold(len(w.Members), w.Required); err != nil {
		return nil, err
	}
	return &GovernanceEffect{
		Added:   slices.Clone(op.Additions),
		Removed: slices.Clone(op.Removals),
	}, nil
}

// Apply stores metadata trimmed but otherwise verbatim, whether it arrived
// through the API or as raw calldata.
func (op ChangeMetadata) Apply(w *Wallet) (*GovernanceEffect, error) {
	w.Name = strings.TrimSpace(op.Name)
	w.Description = strings.TrimSpace(op.Description)
	return &GovernanceEffect{MetadataChanged: true}, nil
}

func addMember(w *Wallet, m Member) error {
	if m == (Member{}) {
		return &MemberError{Err: ErrInvalidMember, Member: m}
	}
	if w.IsMember(m) {
		return &MemberError{Err: ErrDuplicateMember, Member: m}
	}
	w.Members = append(w.Members, m)
	return nil
}

func swapRemoveMember(w *Wallet, m Member) error {
	i := w.IndexOf(m)
	if i < 0 {
		return &MemberError{Err: ErrNotMember, Member: m}
	}
	last := len(w.Members) - 1
	w.Members[i] = w.Members[last]
	w.Members = w.Members[:last]
	return nil
}

func removeMember(w *Wallet, m Member) error {
	i := w.IndexOf(m)
	if i < 0 {
		return &MemberError{Err: ErrNotMember, Member: m}
	}
	w.Members = slices.Delete(w.Members, i, i+1)
	return nil
}
