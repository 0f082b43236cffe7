package cache

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/kass/go-geo-dominance/pkg/models"
)

// LRU is an in-process cache bounded by entry count
type LRU struct {
	lru *lru.Cache[string, models.Result]
}

func NewLRU(size int) (*LRU, error) {
	c, err := lru.New[string, models.Result](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create lru cache: %w", err)
	}
	return &LRU{lru: c}, nil
}

func (c *LRU) Get(_ context.Context, key string) (models.Result, bool, error) {
	result, ok := c.lru.Get(key)
	return result, ok, nil
}

func (c *LRU) Set(_ context.Context, key string, result models.Result) error {
	c.lru.Add(key, result)
	return nil
}

func (c *LRU) Len() int {
	return c.lru.Len()
}

func (c *LRU) Close() error {
	c.lru.Purge()
	return nil
}
