package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/gymstack/rbac/models"
	"github.com/tidwall/buntdb"
)

// BuntPermissionCache keeps permission sets in an embedded buntdb, for dev
// runs and tests where no Valkey node is available.
type BuntPermissionCache struct {
	db     *buntdb.DB
	prefix string
	ttl    time.Duration
}

// NewBuntPermissionCache opens an in-memory buntdb cache.
func NewBuntPermissionCache(ttl time.Duration) (*BuntPermissionCache, error) {
	db, err := buntdb.Open(":memory:")
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &BuntPermissionCache{db: db, prefix: "rbac:", ttl: ttl}, nil
}

func (c *BuntPermissionCache) Get(_ context.Context, orgID string, module models.Module) ([]string, bool, error) {
	var slugs []string
	found := false
	err := c.db.View(func(tx *buntdb.Tx) error {
		val, err := tx.Get(permCacheKey(c.prefix, orgID, module))
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return json.Unmarshal([]byte(val), &slugs)
	})
	if err != nil {
		return nil, false, err
	}
	return slugs, found, nil
}

func (c *BuntPermissionCache) Put(_ context.Context, orgID string, module models.Module, slugs []string) error {
	jv, err := json.Marshal(slugs)
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *buntdb.Tx) error {
		_, _, err := tx.Set(permCacheKey(c.prefix, orgID, module), string(jv),
			&buntdb.SetOptions{Expires: true, TTL: c.ttl})
		return err
	})
}

// Invalidate deletes the cached set; a missing key is not an error.
func (c *BuntPermissionCache) Invalidate(_ context.Context, orgID string, module models.Module) error {
	return c.db.Update(func(tx *buntdb.Tx) error {
		_, err := tx.Delete(permCacheKey(c.prefix, orgID, module))
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil
		}
		return err
	})
}

func (c *BuntPermissionCache) Close() { _ = c.db.Close() }
