// Package cache keeps read-through snapshots of loans in redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/segyhp/installment-engine/internal/domain"
)

// ErrMiss is returned by Get when no snapshot is stored
var ErrMiss = errors.New("cache: miss")

// LoanCache stores loan snapshots, plan included
type LoanCache interface {
	Get(ctx context.Context, loanID string) (*domain.Loan, error)
	Set(ctx context.Context, loan *domain.Loan) error
	Invalidate(ctx context.Context, loanID string) error
}

type redisLoanCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLoanCache(client *redis.Client, ttl time.Duration) LoanCache {
	return &redisLoanCache{client: client, ttl: ttl}
}

// Key is the redis key of a loan snapshot
func Key(loanID string) string {
	return fmt.Sprintf("loan:%s", loanID)
}

func (c *redisLoanCache) Get(ctx context.Context, loanID string) (*domain.Loan, error) {
	data, err := c.client.Get(ctx, Key(loanID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, err
	}

	var loan domain.Loan
	if err := json.Unmarshal(data, &loan); err != nil {
		return nil, fmt.Errorf("decode cached loan %s: %w", loanID, err)
	}

	return &loan, nil
}

func (c *redisLoanCache) Set(ctx context.Context, loan *domain.Loan) error {
	data, err := json.Marshal(loan)
	if err != nil {
		return fmt.Errorf("encode loan %s: %w", loan.ID, err)
	}

	return c.client.Set(ctx, Key(loan.ID), data, c.ttl).Err()
}

func (c *redisLoanCache) Invalidate(ctx context.Context, loanID string) error {
	return c.client.Del(ctx, Key(loanID)).Err()
}
