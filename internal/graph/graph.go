package graph

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrDuplicateTarget = errors.New("duplicate target name")
	ErrUnknownTarget   = errors.New("unknown target")
	ErrDependencyCycle = errors.New("dependency cycle")
	ErrEmptyTargetName = errors.New("empty target name")
	ErrResolved        = errors.New("graph is already resolved")
)

// Graph is the set of all declared targets and their dependency edges.
// Targets are registered once during configuration; Resolve freezes the
// graph and produces a build order.
type Graph struct {
	targets  map[string]Target
	order    []string
	extra    map[string][]string
	resolved bool
}

func New() *Graph {
	return &Graph{
		targets: make(map[string]Target),
		extra:   make(map[string][]string),
	}
}

// AddLibrary registers a library target. The name must be unique within the
// graph; dependency names may refer to targets registered later.
func (g *Graph) AddLibrary(lib *Library) error {
	return g.add(lib)
}

// AddEnv registers a compilation environment target.
func (g *Graph) AddEnv(env *Env) error {
	return g.add(env)
}

func (g *Graph) add(t Target) error {
	if g.resolved {
		return ErrResolved
	}
	name := t.TargetName()
	if name == "" {
		return ErrEmptyTargetName
	}
	if _, ok := g.targets[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTarget, name)
	}
	g.targets[name] = t
	g.order = append(g.order, name)
	return nil
}

// AddDependencies records explicit edges from target to its prerequisites,
// e.g. ordering a library after the environment producing its artifacts.
// Names are validated during Resolve, so forward references are fine.
func (g *Graph) AddDependencies(target string, prereqs ...string) {
	g.extra[target] = append(g.extra[target], prereqs...)
}

func (g *Graph) Target(name string) (Target, bool) {
	t, ok := g.targets[name]
	return t, ok
}

// Targets returns all targets in registration order.
func (g *Graph) Targets() []Target {
	res := make([]Target, 0, len(g.order))
	for _, name := range g.order {
		res = append(res, g.targets[name])
	}
	return res
}

// DependenciesOf returns the deduplicated prerequisite names of a target:
// its declared libs plus any explicit edges.
func (g *Graph) DependenciesOf(name string) []string {
	t, ok := g.targets[name]
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	var res []string
	for _, dep := range append(t.requires(), g.extra[name]...) {
		if _, ok := seen[dep]; ok {
			continue
		}
		seen[dep] = struct{}{}
		res = append(res, dep)
	}
	return res
}

// Resolve validates every dependency reference, rejects cycles and freezes
// the graph. The returned Resolved holds a topological build order.
func (g *Graph) Resolve() (*Resolved, error) {
	if g.resolved {
		return nil, ErrResolved
	}

	for _, name := range g.order {
		for _, dep := range g.DependenciesOf(name) {
			if _, ok := g.targets[dep]; !ok {
				return nil, fmt.Errorf("%w: %s (required by %s)", ErrUnknownTarget, dep, name)
			}
		}
	}
	for target := range g.extra {
		if _, ok := g.targets[target]; !ok {
			return nil, fmt.Errorf("%w: %s (has explicit dependencies)", ErrUnknownTarget, target)
		}
	}

	topo, err := g.sortTargets()
	if err != nil {
		return nil, err
	}

	g.resolved = true
	return &Resolved{graph: g, topo: topo}, nil
}

const (
	colorWhite = iota
	colorGray
	colorBlack
)

// sortTargets produces a topological order via DFS, deterministic in
// registration order. A gray-node revisit is a cycle.
func (g *Graph) sortTargets() ([]Target, error) {
	colors := make(map[string]int, len(g.order))
	topo := make([]Target, 0, len(g.order))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		switch colors[name] {
		case colorBlack:
			return nil
		case colorGray:
			start := 0
			for i, n := range path {
				if n == name {
					start = i
					break
				}
			}
			cycle := append(path[start:], name)
			return fmt.Errorf("%w: %s", ErrDependencyCycle, strings.Join(cycle, " -> "))
		}

		colors[name] = colorGray
		path = append(path, name)
		for _, dep := range g.DependenciesOf(name) {
			if err := visit(dep); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		colors[name] = colorBlack
		topo = append(topo, g.targets[name])
		return nil
	}

	for _, name := range g.order {
		if err := visit(name); err != nil {
			return nil, err
		}
	}
	return topo, nil
}

// Resolved is a frozen build graph with a valid topological order.
type Resolved struct {
	graph *Graph
	topo  []Target
}

// Order returns the targets in build order: every target appears after all
// of its prerequisites.
func (r *Resolved) Order() []Target {
	return r.topo
}

func (r *Resolved) Target(name string) (Target, bool) {
	return r.graph.Target(name)
}

func (r *Resolved) DependenciesOf(name string) []string {
	return r.graph.DependenciesOf(name)
}

// Dot renders the graph in graphviz format for inspection.
func (r *Resolved) Dot() string {
	var b strings.Builder
	b.WriteString("digraph targets {\n")

	names := make([]string, 0, len(r.topo))
	for _, t := range r.topo {
		names = append(names, t.TargetName())
	}
	sort.Strings(names)

	for _, name := range names {
		t, _ := r.graph.Target(name)
		shape := "box"
		if t.TargetKind() == KindEnv {
			shape = "ellipse"
		}
		fmt.Fprintf(&b, "  %q [shape=%s];\n", name, shape)
	}
	for _, name := range names {
		for _, dep := range r.DependenciesOf(name) {
			fmt.Fprintf(&b, "  %q -> %q;\n", name, dep)
		}
	}
	b.WriteString("}\n")
	return b.String()
}
