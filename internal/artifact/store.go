package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common/compiler"
	"github.com/solgraph/solgraph/internal/graph"
)

var ErrArtifactNotProduced = errors.New("artifact not produced")

// Artifact is the JSON document written per compiled contract.
type Artifact struct {
	ContractName string          `json:"contractName"`
	Abi          json.RawMessage `json:"abi"`
	Bin          string          `json:"bin"`
}

// Store lays compiled artifacts out under a single output root:
// <root>/<env>/artifacts/<Contract>.json for environments and
// <root>/<library>/<published-name> for library copies.
type Store struct {
	root string
}

func NewStore(root string) *Store {
	return &Store{root: root}
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) EnvDir(env string) string {
	return filepath.Join(s.root, env, "artifacts")
}

func (s *Store) LibDir(lib string) string {
	return filepath.Join(s.root, lib)
}

// WriteEnv writes one artifact file per compiled contract into the
// environment's output directory and returns the written paths.
func (s *Store) WriteEnv(env string, contracts map[string]*compiler.Contract) ([]string, error) {
	dir := s.EnvDir(env)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact dir: %w", err)
	}

	names := make([]string, 0, len(contracts))
	for name := range contracts {
		names = append(names, name)
	}
	sort.Strings(names)

	var written []string
	for _, name := range names {
		c := contracts[name]
		abiData, err := json.Marshal(c.Info.AbiDefinition)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal abi for contract %s: %w", name, err)
		}

		data, err := json.MarshalIndent(&Artifact{
			ContractName: name,
			Abi:          abiData,
			Bin:          c.Code,
		}, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal artifact for contract %s: %w", name, err)
		}

		fileName := filepath.Join(dir, name+".json")
		if err := os.WriteFile(fileName, data, 0o644); err != nil { //nolint:gosec
			return nil, fmt.Errorf("failed to write artifact for contract %s: %w", name, err)
		}
		written = append(written, fileName)
	}
	return written, nil
}

// WriteEnvFiles restores raw artifact files into the environment's output
// directory, e.g. from the build cache.
func (s *Store) WriteEnvFiles(env string, files map[string][]byte) error {
	dir := s.EnvDir(env)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create artifact dir: %w", err)
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil { //nolint:gosec
			return fmt.Errorf("failed to restore artifact %s: %w", name, err)
		}
	}
	return nil
}

// ReadEnvFiles returns the artifact files of an environment keyed by file name.
func (s *Store) ReadEnvFiles(env string) (map[string][]byte, error) {
	dir := s.EnvDir(env)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact dir: %w", err)
	}

	files := make(map[string][]byte)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read artifact %s: %w", e.Name(), err)
		}
		files[e.Name()] = data
	}
	return files, nil
}

// Publish copies the library's declared artifacts from their generated
// locations into the library directory under the published names.
// Every generated path must already exist, i.e. the producing environment
// must have been built first.
func (s *Store) Publish(lib *graph.Library) error {
	if len(lib.Artifacts) == 0 {
		return nil
	}

	dir := s.LibDir(lib.Name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create library dir: %w", err)
	}

	for _, a := range lib.Artifacts {
		src := filepath.Join(s.root, a.GeneratedPath)
		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("%w: %s (published as %s): %w",
				ErrArtifactNotProduced, a.GeneratedPath, a.PublishedName, err)
		}
		dst := filepath.Join(dir, a.PublishedName)
		if err := os.WriteFile(dst, data, 0o644); err != nil { //nolint:gosec
			return fmt.Errorf("failed to publish artifact %s: %w", a.PublishedName, err)
		}
	}
	return nil
}

// ReadArtifact loads a single artifact by path relative to the output root.
func (s *Store) ReadArtifact(relPath string) (*Artifact, error) {
	data, err := os.ReadFile(filepath.Join(s.root, relPath))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", relPath, err)
	}
	res := new(Artifact)
	if err := json.Unmarshal(data, res); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact %s: %w", relPath, err)
	}
	return res, nil
}

// Clean removes the whole output root.
func (s *Store) Clean() error {
	return os.RemoveAll(s.root)
}
