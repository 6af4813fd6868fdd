package evm

import (
	"errors"
	"fmt"
	"strings"

	"multisig-registry/internal/core/domain"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// governanceABI is the self-call surface of a wallet.
const governanceABI = `[
	{"type":"function","name":"addMember","inputs":[{"name":"member","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"removeMember","inputs":[{"name":"member","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"replaceMember","inputs":[{"name":"oldMember","type":"address"},{"name":"newMember","type":"address"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"changeMember","inputs":[{"name":"additions","type":"address[]"},{"name":"removals","type":"address[]"}],"outputs":[],"stateMutability":"nonpayable"},
	{"type":"function","name":"changeMetadata","inputs":[{"name":"name","type":"string"},{"name":"description","type":"string"}],"outputs":[],"stateMutability":"nonpayable"}
]`

const (
	methodAddMember      = "addMember"
	methodRemoveMember   = "removeMember"
	methodReplaceMember  = "replaceMember"
	methodChangeMember   = "changeMember"
	methodChangeMetadata = "changeMetadata"
)

var (
	ErrUnknownOperation = errors.New("unknown governance operation")
	ErrMalformedPayload = errors.New("malformed governance payload")
)

// GovernanceCodec encodes governance operations as Solidity ABI calldata.
type GovernanceCodec struct {
	abi abi.ABI
}

// NewGovernanceCodec parses the governance ABI.
func NewGovernanceCodec() (*GovernanceCodec, error) {
	parsed, err := abi.JSON(strings.NewReader(governanceABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse governance ABI: %w", err)
	}
	return &GovernanceCodec{abi: parsed}, nil
}

// Encode packs op into calldata: 4-byte selector followed by the arguments.
func (c *GovernanceCodec) Encode(op domain.GovernanceOp) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch o := op.(type) {
	case domain.AddMember:
		data, err = c.abi.Pack(methodAddMember, o.Member)
	case domain.RemoveMember:
		data, err = c.abi.Pack(methodRemoveMember, o.Member)
	case domain.ReplaceMember:
		data, err = c.abi.Pack(methodReplaceMember, o.Old, o.New)
	case domain.ChangeMembers:
		data, err = c.abi.Pack(methodChangeMember, addresses(o.Additions), addresses(o.Removals))
	case domain.ChangeMetadata:
		data, err = c.abi.Pack(methodChangeMetadata, o.Name, o.Description)
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnknownOperation, op)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", op.Kind(), err)
	}
	return data, nil
}

// Decode resolves the selector and unpacks the arguments.
func (c *GovernanceCodec) Decode(payload []byte) (domain.GovernanceOp, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("%w: %d bytes", ErrMalformedPayload, len(payload))
	}
	method, err := c.abi.MethodById(payload[:4])
	if err != nil {
		return nil, fmt.Errorf("%w: selector 0x%x", ErrUnknownOperation, payload[:4])
	}
	args, err := method.Inputs.Unpack(payload[4:])
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedPayload, method.Name, err)
	}

	switch method.Name {
	case methodAddMember:
		m, err := arg[common.Address](args, 0)
		if err != nil {
			return nil, err
		}
		return domain.AddMember{Member: m}, nil
	case methodRemoveMember:
		m, err := arg[common.Address](args, 0)
		if err != nil {
			return nil, err
		}
		return domain.RemoveMember{Member: m}, nil
	case methodReplaceMember:
		oldM, err := arg[common.Address](args, 0)
		if err != nil {
			return nil, err
		}
		newM, err := arg[common.Address](args, 1)
		if err != nil {
			return nil, err
		}
		return domain.ReplaceMember{Old: oldM, New: newM}, nil
	case methodChangeMember:
		additions, err := arg[[]common.Address](args, 0)
		if err != nil {
			return nil, err
		}
		removals, err := arg[[]common.Address](args, 1)
		if err != nil {
			return nil, err
		}
		return domain.ChangeMembers{Additions: additions, Removals: removals}, nil
	case methodChangeMetadata:
		name, err := arg[string](args, 0)
		if err != nil {
			return nil, err
		}
		description, err := arg[string](args, 1)
		if err != nil {
			return nil, err
		}
		return domain.ChangeMetadata{Name: name, Description: description}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, method.Name)
}

func arg[T any](args []interface{}, i int) (T, error) {
	var zero T
	if i >= len(args) {
		return zero, fmt.Errorf("%w: missing argument %d", ErrMalformedPayload, i)
	}
	v, ok := args[i].(T)
	if !ok {
		return zero, fmt.Errorf("%w: argument %d has type %T", ErrMalformedPayload, i, args[i])
	}
	return v, nil
}

func addresses(members []domain.Member) []common.Address {
	if members == nil {
		return []common.Address{}
	}
	return members
}
