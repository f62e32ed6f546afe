package graph

import "path/filepath"

type Kind uint8

const (
	KindLibrary Kind = iota + 1
	KindEnv
)

func (k Kind) String() string {
	switch k {
	case KindLibrary:
		return "library"
	case KindEnv:
		return "env"
	default:
		return "unknown"
	}
}

// Target is a named unit of build configuration tracked in the build graph.
type Target interface {
	TargetName() string
	TargetKind() Kind

	// requires returns the names of targets this one was declared against.
	// Extra edges added via Graph.AddDependencies are not included.
	requires() []string
}

// ArtifactCopy maps a generated artifact path (relative to the build output
// root) to the name under which the owning library publishes it.
type ArtifactCopy struct {
	GeneratedPath string
	PublishedName string
}

// Library is a named set of contract source files. It may also publish
// artifacts produced by an environment it depends on.
type Library struct {
	Name      string
	Prefix    string
	Files     []string
	Libs      []string
	Artifacts []ArtifactCopy
}

func (l *Library) TargetName() string { return l.Name }
func (l *Library) TargetKind() Kind   { return KindLibrary }
func (l *Library) requires() []string { return l.Libs }

// SourcePaths returns the library files joined with its prefix.
func (l *Library) SourcePaths() []string {
	res := make([]string, 0, len(l.Files))
	for _, f := range l.Files {
		res = append(res, filepath.Join(l.Prefix, f))
	}
	return res
}

// CompilerConfig holds per-environment compiler settings.
// An empty Version means whatever solc is found on PATH.
type CompilerConfig struct {
	Version      string
	EvmVersion   string
	BasePath     string
	AllowPaths   []string
	OptimizeRuns int
	Remappings   []string
	ViaIR        bool
}

// Env is a compilation environment: it compiles the named contracts, sourced
// from the listed libraries, into per-contract artifacts.
type Env struct {
	Name      string
	Contracts []string
	Libs      []string
	Compiler  CompilerConfig

	// Sources holds the resolved source file path of each contract,
	// parallel to Contracts. Filled in during manifest registration.
	Sources []string
}

func (e *Env) TargetName() string { return e.Name }
func (e *Env) TargetKind() Kind   { return KindEnv }
func (e *Env) requires() []string { return e.Libs }
