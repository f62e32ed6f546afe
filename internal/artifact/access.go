package artifact

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/solgraph/solgraph/common/check"
	"github.com/solgraph/solgraph/common/concurrent"
)

const artifactCacheSize = 128

// Reader provides cached access to built artifacts for test and deployment
// code. Paths are relative to the store's output root.
type Reader struct {
	store     *Store
	artifacts *lru.Cache[string, *Artifact]
	codeCache *concurrent.Map[string, []byte]
	abiCache  *concurrent.Map[string, *abi.ABI]
}

func NewReader(store *Store) *Reader {
	cache, err := lru.New[string, *Artifact](artifactCacheSize)
	check.PanicIfErr(err)

	return &Reader{
		store:     store,
		artifacts: cache,
		codeCache: concurrent.NewMap[string, []byte](),
		abiCache:  concurrent.NewMap[string, *abi.ABI](),
	}
}

func (r *Reader) Artifact(relPath string) (*Artifact, error) {
	if res, ok := r.artifacts.Get(relPath); ok {
		return res, nil
	}

	res, err := r.store.ReadArtifact(relPath)
	if err != nil {
		return nil, err
	}
	r.artifacts.Add(relPath, res)
	return res, nil
}

// Code returns the contract bytecode from an artifact.
func (r *Reader) Code(relPath string) ([]byte, error) {
	// The result taken from the cache must be cloned.
	if res, ok := r.codeCache.Get(relPath); ok {
		return bytes.Clone(res), nil
	}

	a, err := r.Artifact(relPath)
	if err != nil {
		return nil, err
	}

	bin := a.Bin
	if !strings.HasPrefix(bin, "0x") {
		bin = "0x" + bin
	}
	res, err := hexutil.Decode(bin)
	if err != nil {
		return nil, fmt.Errorf("artifact %s holds malformed bytecode: %w", relPath, err)
	}
	r.codeCache.Put(relPath, res)
	return bytes.Clone(res), nil
}

// ABI returns the parsed contract interface from an artifact.
func (r *Reader) ABI(relPath string) (*abi.ABI, error) {
	if res, ok := r.abiCache.Get(relPath); ok {
		return res, nil
	}

	a, err := r.Artifact(relPath)
	if err != nil {
		return nil, err
	}

	res, err := abi.JSON(bytes.NewReader(a.Abi))
	if err != nil {
		return nil, fmt.Errorf("failed to parse abi of artifact %s: %w", relPath, err)
	}

	r.abiCache.Put(relPath, &res)
	return &res, nil
}

// Pack encodes a method call against the artifact's interface.
func (r *Reader) Pack(relPath, methodName string, args ...any) ([]byte, error) {
	abiCallee, err := r.ABI(relPath)
	if err != nil {
		return nil, err
	}
	return abiCallee.Pack(methodName, args...)
}
