package manifest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/solgraph/solgraph/internal/graph"
	"gopkg.in/yaml.v3"
)

var (
	ErrMissingSource    = errors.New("source file not found")
	ErrUnknownContract  = errors.New("contract not reachable through environment libraries")
	ErrInvalidArtifact  = errors.New("invalid artifact entry")
	ErrInvalidManifest  = errors.New("invalid manifest")
	ErrUnknownSourceLib = errors.New("environment references unknown library")
)

// Manifest is the declarative build description: contract libraries,
// compilation environments and explicit ordering edges between them.
type Manifest struct {
	// Prefix is the default source prefix for libraries that declare none,
	// relative to the manifest location.
	Prefix string `yaml:"prefix,omitempty"`

	Libs []LibraryDecl    `yaml:"libs,omitempty"`
	Envs []EnvDecl        `yaml:"envs,omitempty"`
	Deps []DependencyDecl `yaml:"deps,omitempty"`

	// root is the directory the manifest was loaded from; all relative
	// paths resolve against it.
	root string
}

type LibraryDecl struct {
	Name      string         `yaml:"name"`
	Prefix    string         `yaml:"prefix,omitempty"`
	Files     []string       `yaml:"files,omitempty"`
	Libs      []string       `yaml:"libs,omitempty"`
	Artifacts []ArtifactDecl `yaml:"artifacts,omitempty"`
}

// ArtifactDecl publishes a generated artifact under a new name, e.g.
// path: test_erc20_sol_env/artifacts/TestERC20.json, name: TestERC20.json.
type ArtifactDecl struct {
	Path string `yaml:"path"`
	Name string `yaml:"name"`
}

type EnvDecl struct {
	Name      string       `yaml:"name"`
	Contracts []string     `yaml:"contracts"`
	Libs      []string     `yaml:"libs,omitempty"`
	Compiler  CompilerDecl `yaml:"compiler,omitempty"`
}

type CompilerDecl struct {
	Version      string   `yaml:"version,omitempty"`
	EvmVersion   string   `yaml:"evm-version,omitempty"`
	BasePath     string   `yaml:"base-path,omitempty"`
	AllowPaths   []string `yaml:"allow-paths,omitempty"`
	OptimizeRuns int      `yaml:"optimize-runs,omitempty"`
	Remappings   []string `yaml:"remappings,omitempty"`
	ViaIR        bool     `yaml:"via-ir,omitempty"`
}

type DependencyDecl struct {
	Target   string   `yaml:"target"`
	Requires []string `yaml:"requires"`
}

// Load reads a YAML manifest. Relative source paths are later resolved
// against the manifest's directory.
func Load(name string) (*Manifest, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("can't read manifest %s: %w", name, err)
	}

	m := &Manifest{}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("can't parse manifest %s: %w", name, err)
	}
	m.root = filepath.Dir(name)
	return m, nil
}

// Root returns the directory relative paths resolve against.
func (m *Manifest) Root() string {
	return m.root
}

// SetRoot overrides the resolution root (used when a manifest is built
// in memory rather than loaded from disk).
func (m *Manifest) SetRoot(root string) {
	m.root = root
}

// Build registers every declared target into a fresh build graph, checking
// that library files exist and that each environment contract maps to a
// source file reachable through the environment's libraries.
func (m *Manifest) Build() (*graph.Graph, error) {
	g := graph.New()

	for i := range m.Libs {
		lib, err := m.library(&m.Libs[i])
		if err != nil {
			return nil, err
		}
		if err := g.AddLibrary(lib); err != nil {
			return nil, err
		}
	}

	for i := range m.Envs {
		env, err := m.env(&m.Envs[i])
		if err != nil {
			return nil, err
		}
		if err := g.AddEnv(env); err != nil {
			return nil, err
		}
	}

	for _, d := range m.Deps {
		g.AddDependencies(d.Target, d.Requires...)
	}

	return g, nil
}

func (m *Manifest) library(decl *LibraryDecl) (*graph.Library, error) {
	prefix := decl.Prefix
	if prefix == "" {
		prefix = m.Prefix
	}

	lib := &graph.Library{
		Name:   decl.Name,
		Prefix: prefix,
		Files:  decl.Files,
		Libs:   decl.Libs,
	}

	for _, src := range lib.SourcePaths() {
		if _, err := os.Stat(filepath.Join(m.root, src)); err != nil {
			return nil, fmt.Errorf("%w: %s (library %s)", ErrMissingSource, src, decl.Name)
		}
	}

	for _, a := range decl.Artifacts {
		if a.Path == "" || a.Name == "" {
			return nil, fmt.Errorf("%w: library %s needs both path and name", ErrInvalidArtifact, decl.Name)
		}
		lib.Artifacts = append(lib.Artifacts, graph.ArtifactCopy{
			GeneratedPath: a.Path,
			PublishedName: a.Name,
		})
	}

	return lib, nil
}

func (m *Manifest) env(decl *EnvDecl) (*graph.Env, error) {
	if len(decl.Contracts) == 0 {
		return nil, fmt.Errorf("%w: environment %s declares no contracts", ErrInvalidManifest, decl.Name)
	}

	env := &graph.Env{
		Name:      decl.Name,
		Contracts: decl.Contracts,
		Libs:      decl.Libs,
		Compiler: graph.CompilerConfig{
			Version:      decl.Compiler.Version,
			EvmVersion:   decl.Compiler.EvmVersion,
			BasePath:     m.resolvePath(decl.Compiler.BasePath),
			OptimizeRuns: decl.Compiler.OptimizeRuns,
			Remappings:   decl.Compiler.Remappings,
			ViaIR:        decl.Compiler.ViaIR,
		},
	}
	for _, p := range decl.Compiler.AllowPaths {
		env.Compiler.AllowPaths = append(env.Compiler.AllowPaths, m.resolvePath(p))
	}

	// Contract names map 1:1 to .sol files in the libraries' file sets,
	// including file sets pulled in transitively.
	sources, err := m.sourceIndex(decl.Name, decl.Libs)
	if err != nil {
		return nil, err
	}
	for _, contract := range decl.Contracts {
		src, ok := sources[contract+".sol"]
		if !ok {
			return nil, fmt.Errorf("%w: %s (environment %s)", ErrUnknownContract, contract, decl.Name)
		}
		env.Sources = append(env.Sources, filepath.Join(m.root, src))
	}

	return env, nil
}

// resolvePath makes a manifest-relative path resolve against the manifest
// root. Empty and absolute paths are returned as is.
func (m *Manifest) resolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.root, p)
}

// sourceIndex maps base file names to source paths across the given
// libraries and everything they depend on.
func (m *Manifest) sourceIndex(envName string, libs []string) (map[string]string, error) {
	decls := make(map[string]*LibraryDecl, len(m.Libs))
	for i := range m.Libs {
		decls[m.Libs[i].Name] = &m.Libs[i]
	}

	index := make(map[string]string)
	seen := make(map[string]struct{})

	var walk func(name string) error
	walk = func(name string) error {
		if _, ok := seen[name]; ok {
			return nil
		}
		seen[name] = struct{}{}

		decl, ok := decls[name]
		if !ok {
			return fmt.Errorf("%w: %s (environment %s)", ErrUnknownSourceLib, name, envName)
		}

		prefix := decl.Prefix
		if prefix == "" {
			prefix = m.Prefix
		}
		for _, f := range decl.Files {
			base := filepath.Base(f)
			if _, ok := index[base]; !ok {
				index[base] = filepath.Join(prefix, f)
			}
		}
		for _, dep := range decl.Libs {
			if err := walk(dep); err != nil {
				return err
			}
		}
		return nil
	}

	for _, lib := range libs {
		if err := walk(lib); err != nil {
			return nil, err
		}
	}
	return index, nil
}
