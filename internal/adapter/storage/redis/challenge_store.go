package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"multisig-registry/internal/core/domain"

	goredis "github.com/redis/go-redis/v9"
)

// ChallengeStore implements ports.ChallengeStore. A member has at most one
// outstanding challenge; issuing a new one replaces the old.
type ChallengeStore struct {
	client *goredis.Client
	prefix string
}

// NewChallengeStore creates a new Redis-backed login challenge store.
func NewChallengeStore(client *goredis.Client) *ChallengeStore {
	return &ChallengeStore{
		client: client,
		prefix: "msr:challenge:",
	}
}

func (s *ChallengeStore) key(member domain.Member) string {
	return s.prefix + strings.ToLower(member.Hex())
}

func (s *ChallengeStore) Put(ctx context.Context, member domain.Member, challenge string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(member), challenge, ttl).Err(); err != nil {
		return fmt.Errorf("redis challenge put: %w", err)
	}
	return nil
}

// Take atomically reads and deletes the challenge so a signature can be
// redeemed only once.
func (s *ChallengeStore) Take(ctx context.Context, member domain.Member) (string, error) {
	val, err := s.client.GetDel(ctx, s.key(member)).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("redis challenge take: %w", err)
	}
	return val, nil
}
