package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"time"

	"cf_coach/internal/judge"

	"github.com/redis/go-redis/v9"
)

const problemPoolKey = "cf_coach:problem_pool"

// problemPool serves random challenge problems for account verification.
// The judge's full problem set is large and changes rarely, so it is cached
// in Redis with a TTL instead of being refetched per Start call. A cache
// failure falls through to the judge; a judge failure surfaces as
// JudgeUnavailable.
type problemPool struct {
	rdb *redis.Client
	api judge.API
	ttl time.Duration
}

func newProblemPool(rdb *redis.Client, api judge.API, ttl time.Duration) *problemPool {
	return &problemPool{rdb: rdb, api: api, ttl: ttl}
}

func (p *problemPool) Random(ctx context.Context) (*judge.Problem, error) {
	problems, err := p.load(ctx)
	if err != nil {
		return nil, err
	}
	if len(problems) == 0 {
		return nil, fmt.Errorf("judge returned an empty problem set")
	}
	return &problems[rand.Intn(len(problems))], nil
}

func (p *problemPool) load(ctx context.Context) ([]judge.Problem, error) {
	if p.rdb != nil {
		if cached, err := p.rdb.Get(ctx, problemPoolKey).Bytes(); err == nil {
			var problems []judge.Problem
			if err := json.Unmarshal(cached, &problems); err == nil && len(problems) > 0 {
				return problems, nil
			}
		}
	}

	problems, err := p.api.ProblemSet(ctx)
	if err != nil {
		return nil, err
	}

	if p.rdb != nil {
		if encoded, err := json.Marshal(problems); err == nil {
			if err := p.rdb.Set(ctx, problemPoolKey, encoded, p.ttl).Err(); err != nil {
				log.Printf("Failed to cache problem pool: %v", err)
			}
		}
	}
	return problems, nil
}
