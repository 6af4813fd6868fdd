package postgres

import (
	"fmt"
	"math/big"
	"strconv"

	"multisig-registry/internal/core/domain"

	"github.com/ethereum/go-ethereum/common"
)

// Member lists are stored as BYTEA[] in list order.

func membersToBytes(members []domain.Member) [][]byte {
	out := make([][]byte, len(members))
	for i, m := range members {
		out[i] = m.Bytes()
	}
	return out
}

func bytesToMembers(raw [][]byte) ([]domain.Member, error) {
	out := make([]domain.Member, len(raw))
	for i, b := range raw {
		if len(b) != common.AddressLength {
			return nil, fmt.Errorf("member %d: expected %d bytes, got %d", i, common.AddressLength, len(b))
		}
		out[i] = common.BytesToAddress(b)
	}
	return out, nil
}

// Amounts and seeds travel as decimal text and are cast to NUMERIC in SQL.

func bigToText(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func textToBig(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid numeric %q", s)
	}
	return v, nil
}

func uintToText(v uint64) string {
	return strconv.FormatUint(v, 10)
}

func textToUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}
