package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gymstack/rbac/models"
	valkey "github.com/valkey-io/valkey-go"
)

// ValkeyPermissionCache keeps permission sets in Valkey (Redis-compatible).
type ValkeyPermissionCache struct {
	client valkey.Client
	prefix string
	ttl    time.Duration
}

// NewValkeyPermissionCache connects to a Valkey node.
// addr example: "127.0.0.1:6379"; prefix helps namespace keys.
func NewValkeyPermissionCache(addr, prefix string, ttl time.Duration) (*ValkeyPermissionCache, error) {
	cli, err := valkey.NewClient(valkey.ClientOption{InitAddress: []string{addr}})
	if err != nil {
		return nil, err
	}
	if prefix == "" {
		prefix = "rbac:"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &ValkeyPermissionCache{client: cli, prefix: prefix, ttl: ttl}, nil
}

func (c *ValkeyPermissionCache) Get(ctx context.Context, orgID string, module models.Module) ([]string, bool, error) {
	res := c.client.Do(ctx, c.client.B().Get().Key(permCacheKey(c.prefix, orgID, module)).Build())
	if res.Error() != nil {
		return nil, false, nil // miss, including nil replies
	}
	val, err := res.ToString()
	if err != nil || val == "" {
		return nil, false, nil
	}
	var slugs []string
	if err := json.Unmarshal([]byte(val), &slugs); err != nil {
		return nil, false, err
	}
	return slugs, true, nil
}

func (c *ValkeyPermissionCache) Put(ctx context.Context, orgID string, module models.Module, slugs []string) error {
	jv, err := json.Marshal(slugs)
	if err != nil {
		return err
	}
	return c.client.Do(ctx, c.client.B().Set().
		Key(permCacheKey(c.prefix, orgID, module)).
		Value(string(jv)).Ex(c.ttl).Build()).Error()
}

// Invalidate deletes the cached set; a missing key is not an error.
func (c *ValkeyPermissionCache) Invalidate(ctx context.Context, orgID string, module models.Module) error {
	return c.client.Do(ctx, c.client.B().Del().Key(permCacheKey(c.prefix, orgID, module)).Build()).Error()
}

func (c *ValkeyPermissionCache) Close() { c.client.Close() }
