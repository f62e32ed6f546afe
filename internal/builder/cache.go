package builder

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

const tablePrefixEnvArtifacts = "env_artifacts_"

// Cache stores the artifact files of built environments keyed by a
// fingerprint of their sources and compiler settings, so unchanged
// environments are restored instead of recompiled.
type Cache struct {
	db *badger.DB
}

func NewCache(path string) (*Cache, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	badgerInstance, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: badgerInstance}, nil
}

func NewCacheInMemory() (*Cache, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	badgerInstance, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Cache{db: badgerInstance}, nil
}

func (c *Cache) Get(env string, fingerprint []byte) (map[string][]byte, bool, error) {
	tx := c.createRoTx()
	defer tx.Discard()

	item, err := tx.Get(makeKey(env, fingerprint))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached artifacts: %w", err)
	}

	data, err := item.ValueCopy(nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to copy value: %w", err)
	}

	files := make(map[string][]byte)
	if err := json.Unmarshal(data, &files); err != nil {
		return nil, false, err
	}
	return files, true, nil
}

func (c *Cache) Put(env string, fingerprint []byte, files map[string][]byte) error {
	tx := c.createRwTx()
	defer tx.Discard()

	data, err := json.Marshal(files)
	if err != nil {
		return err
	}

	if err := tx.Set(makeKey(env, fingerprint), data); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// Drop discards every cached entry.
func (c *Cache) Drop() error {
	return c.db.DropAll()
}

func (c *Cache) Close() error {
	return c.db.Close()
}

func (c *Cache) createRoTx() *badger.Txn {
	return c.db.NewTransaction(false)
}

func (c *Cache) createRwTx() *badger.Txn {
	return c.db.NewTransaction(true)
}

func makeKey(env string, fingerprint []byte) []byte {
	return append([]byte(tablePrefixEnvArtifacts+env+"_"), fingerprint...)
}
