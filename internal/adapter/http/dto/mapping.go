package dto

import (
	"fmt"
	"time"

	"multisig-registry/internal/core/domain"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
)

// ParseMembers converts validated address strings to members.
func ParseMembers(addrs []string) []domain.Member {
	return lo.Map(addrs, func(a string, _ int) domain.Member {
		return common.HexToAddress(a)
	})
}

func hexMembers(members []domain.Member) []string {
	return lo.Map(members, func(m domain.Member, _ int) string { return m.Hex() })
}

func timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// ToDomain builds the governance operation named by Kind, checking that the
// fields it needs are present.
func (op GovernanceOperation) ToDomain() (domain.GovernanceOp, error) {
	switch domain.GovernanceKind(op.Kind) {
	case domain.GovernanceAddMember:
		if op.Member == "" {
			return nil, fmt.Errorf("%s requires member", op.Kind)
		}
		return domain.AddMember{Member: common.HexToAddress(op.Member)}, nil
	case domain.GovernanceRemoveMember:
		if op.Member == "" {
			return nil, fmt.Errorf("%s requires member", op.Kind)
		}
		return domain.RemoveMember{Member: common.HexToAddress(op.Member)}, nil
	case domain.GovernanceReplaceMember:
		if op.Old == "" || op.New == "" {
			return nil, fmt.Errorf("%s requires old and new", op.Kind)
		}
		return domain.ReplaceMember{Old: common.HexToAddress(op.Old), New: common.HexToAddress(op.New)}, nil
	case domain.GovernanceChangeMembers:
		return domain.ChangeMembers{
			Additions: ParseMembers(op.Additions),
			Removals:  ParseMembers(op.Removals),
		}, nil
	case domain.GovernanceChangeMetadata:
		if op.Name == "" {
			return nil, fmt.Errorf("%s requires name", op.Kind)
		}
		return domain.ChangeMetadata{Name: op.Name, Description: op.Description}, nil
	}
	return nil, fmt.Errorf("unknown governance operation %q", op.Kind)
}

func ToWalletStateResponse(w *domain.Wallet) WalletStateResponse {
	return WalletStateResponse{
		Handle:           w.Handle.Hex(),
		Name:             w.Name,
		Description:      w.Description,
		Creator:          w.Creator.Hex(),
		Seed:             w.Seed,
		Members:          hexMembers(w.Members),
		Required:         w.Required,
		TransactionCount: w.TransactionCount,
		CreatedAt:        timestamp(w.CreatedAt),
		UpdatedAt:        timestamp(w.UpdatedAt),
	}
}

func ToRegistryEntryResponse(e domain.RegistryEntry) RegistryEntryResponse {
	return RegistryEntryResponse{
		Wallet:      e.Wallet.Hex(),
		Name:        e.Name,
		Description: e.Description,
		Creator:     e.Creator.Hex(),
		CreatedAt:   timestamp(e.CreatedAt),
	}
}

func ToRegistryEntryResponses(entries []domain.RegistryEntry) []RegistryEntryResponse {
	return lo.Map(entries, func(e domain.RegistryEntry, _ int) RegistryEntryResponse {
		return ToRegistryEntryResponse(e)
	})
}

func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		Wallet:        t.Wallet.Hex(),
		ID:            t.ID,
		Title:         t.Title,
		Description:   t.Description,
		Destination:   t.Destination.Hex(),
		Value:         "0",
		Payload:       hexutil.Encode(t.Payload),
		Executed:      t.Executed,
		Status:        string(t.Status()),
		FailureReason: t.FailureReason,
		Confirmations: hexMembers(t.Confirmations),
		SubmittedBy:   t.SubmittedBy.Hex(),
		CreatedAt:     timestamp(t.CreatedAt),
	}
	if t.Value != nil {
		resp.Value = t.Value.String()
	}
	if t.ExecutedAt != nil {
		s := timestamp(*t.ExecutedAt)
		resp.ExecutedAt = &s
	}
	return resp
}

func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	return lo.Map(txns, func(t domain.Transaction, _ int) TransactionResponse {
		return ToTransactionResponse(&t)
	})
}

func ToEventResponses(events []domain.Event) []EventResponse {
	return lo.Map(events, func(e domain.Event, _ int) EventResponse {
		resp := EventResponse{
			ID:            e.ID.String(),
			Type:          string(e.Type),
			Wallet:        e.Wallet.Hex(),
			TransactionID: e.TransactionID,
			Change:        string(e.Change),
			Detail:        e.Detail,
			CreatedAt:     timestamp(e.CreatedAt),
		}
		if e.Member != nil {
			m := e.Member.Hex()
			resp.Member = &m
		}
		return resp
	})
}

func ToMembers(members []domain.Member) []string {
	return hexMembers(members)
}
