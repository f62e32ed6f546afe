package builder

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/ethereum/go-ethereum/common/compiler"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/jonboulle/clockwork"
	"github.com/solgraph/solgraph/common/logging"
	"github.com/solgraph/solgraph/internal/artifact"
	"github.com/solgraph/solgraph/internal/graph"
	"github.com/solgraph/solgraph/internal/solc"
	"golang.org/x/sync/errgroup"
)

// CompileFunc compiles an environment's sources. The default implementation
// shells out to solc; tests substitute their own.
type CompileFunc func(ctx context.Context, env *graph.Env) (map[string]*compiler.Contract, error)

// Builder materializes a resolved build graph: it runs compilation
// environments and publishes library artifacts, in dependency order, with
// independent targets running in parallel.
type Builder struct {
	resolved *graph.Resolved
	store    *artifact.Store
	cache    *Cache
	clock    clockwork.Clock
	compile  CompileFunc
	workers  int
	logger   logging.Logger
}

type Option func(*Builder)

// WithCache enables incremental rebuilds backed by the given cache.
func WithCache(cache *Cache) Option {
	return func(b *Builder) {
		b.cache = cache
	}
}

func WithClock(clock clockwork.Clock) Option {
	return func(b *Builder) {
		b.clock = clock
	}
}

func WithCompileFunc(compile CompileFunc) Option {
	return func(b *Builder) {
		b.compile = compile
	}
}

func WithWorkers(workers int) Option {
	return func(b *Builder) {
		b.workers = workers
	}
}

func WithLogger(logger logging.Logger) Option {
	return func(b *Builder) {
		b.logger = logger
	}
}

func New(resolved *graph.Resolved, store *artifact.Store, options ...Option) *Builder {
	b := &Builder{
		resolved: resolved,
		store:    store,
		clock:    clockwork.NewRealClock(),
		compile:  defaultCompile,
		workers:  runtime.GOMAXPROCS(0),
		logger:   logging.NewLogger("builder"),
	}
	for _, o := range options {
		o(b)
	}
	if b.workers <= 0 {
		b.workers = 1
	}
	return b
}

// Run builds every target. A target starts only after all of its
// prerequisites finished; the first failure cancels the rest of the run.
func (b *Builder) Run(ctx context.Context) error {
	order := b.resolved.Order()

	done := make(map[string]chan struct{}, len(order))
	for _, t := range order {
		done[t.TargetName()] = make(chan struct{})
	}

	b.logger.Info().
		Int(logging.FieldWorkers, b.workers).
		Int("targets", len(order)).
		Msg("starting build")

	g, gctx := errgroup.WithContext(ctx)
	// Targets are scheduled in topological order, so every goroutine waits
	// only on targets already scheduled and the limit cannot deadlock.
	g.SetLimit(b.workers)

	for _, t := range order {
		g.Go(func() error {
			name := t.TargetName()
			for _, dep := range b.resolved.DependenciesOf(name) {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-done[dep]:
				}
			}

			if err := b.buildTarget(gctx, t); err != nil {
				return fmt.Errorf("target %s: %w", name, err)
			}
			close(done[name])
			return nil
		})
	}

	return g.Wait()
}

func (b *Builder) buildTarget(ctx context.Context, t graph.Target) error {
	switch target := t.(type) {
	case *graph.Env:
		return b.buildEnv(ctx, target)
	case *graph.Library:
		return b.buildLibrary(target)
	default:
		return fmt.Errorf("unsupported target kind: %s", t.TargetKind())
	}
}

func (b *Builder) buildEnv(ctx context.Context, env *graph.Env) error {
	start := b.clock.Now()
	logger := b.logger.With().Str(logging.FieldEnv, env.Name).Logger()

	var fingerprint []byte
	if b.cache != nil {
		var err error
		fingerprint, err = envFingerprint(env)
		if err != nil {
			return err
		}

		files, ok, err := b.cache.Get(env.Name, fingerprint)
		if err != nil {
			return err
		}
		if ok {
			if err := b.store.WriteEnvFiles(env.Name, files); err != nil {
				return err
			}
			logger.Info().
				Bool(logging.FieldCacheHit, true).
				Str(logging.FieldCacheKey, hexutil.Encode(fingerprint)).
				Msg("restored artifacts from cache")
			return nil
		}
	}

	contracts, err := b.compile(ctx, env)
	if err != nil {
		return fmt.Errorf("compilation failed: %w", err)
	}

	// The compiler output may include transitively pulled-in contracts;
	// only the declared ones become artifacts.
	named := make(map[string]*compiler.Contract, len(env.Contracts))
	for _, name := range env.Contracts {
		c, ok := contracts[name]
		if !ok {
			return fmt.Errorf("contract %s missing from compiler output", name)
		}
		named[name] = c
	}

	if _, err := b.store.WriteEnv(env.Name, named); err != nil {
		return err
	}

	if b.cache != nil {
		files, err := b.store.ReadEnvFiles(env.Name)
		if err != nil {
			return err
		}
		if err := b.cache.Put(env.Name, fingerprint, files); err != nil {
			// A cold cache on the next run is the only consequence.
			logger.Warn().Err(err).Msg("failed to store artifacts in cache")
		}
	}

	logger.Info().
		Int("contracts", len(named)).
		Dur(logging.FieldDuration, b.clock.Since(start)).
		Msg("environment built")
	return nil
}

func (b *Builder) buildLibrary(lib *graph.Library) error {
	logger := b.logger.With().Str(logging.FieldLibrary, lib.Name).Logger()

	if len(lib.Artifacts) == 0 {
		logger.Debug().Msg("nothing to publish")
		return nil
	}

	if err := b.store.Publish(lib); err != nil {
		return err
	}
	logger.Info().Int("artifacts", len(lib.Artifacts)).Msg("artifacts published")
	return nil
}

// envFingerprint hashes an environment's compiler settings together with the
// names and contents of its contract sources.
func envFingerprint(env *graph.Env) ([]byte, error) {
	settings, err := json.Marshal(env.Compiler)
	if err != nil {
		return nil, err
	}

	parts := [][]byte{crypto.Keccak256(settings)}
	for i, src := range env.Sources {
		data, err := os.ReadFile(src)
		if err != nil {
			return nil, fmt.Errorf("failed to read source %s: %w", src, err)
		}
		parts = append(parts, crypto.Keccak256([]byte(env.Contracts[i])), crypto.Keccak256(data))
	}
	return crypto.Keccak256(parts...), nil
}

func defaultCompile(_ context.Context, env *graph.Env) (map[string]*compiler.Contract, error) {
	binary, err := solc.FindCompiler(env.Compiler.Version)
	if err != nil {
		return nil, err
	}

	opts, err := compilerOptions(&env.Compiler)
	if err != nil {
		return nil, err
	}

	return solc.CompileSources(binary, env.Sources, opts...)
}

// compilerOptions translates environment compiler settings into solc
// invocation options.
func compilerOptions(cfg *graph.CompilerConfig) ([]solc.CompileOption, error) {
	var opts []solc.CompileOption
	if cfg.BasePath != "" {
		opts = append(opts, solc.CompileOptionBasePath(cfg.BasePath))
	}
	if len(cfg.AllowPaths) > 0 {
		opts = append(opts, solc.CompileOptionAllowedPaths(cfg.AllowPaths...))
	}
	if cfg.OptimizeRuns > 0 {
		opts = append(opts, solc.CompileOptionOptimizeRuns(cfg.OptimizeRuns))
	}
	if cfg.EvmVersion != "" {
		opts = append(opts, solc.CompileOptionEvmVersion(cfg.EvmVersion))
	}
	if cfg.ViaIR {
		opts = append(opts, solc.CompileOptionViaIR())
	}
	for _, r := range cfg.Remappings {
		from, to, ok := strings.Cut(r, "=")
		if !ok {
			return nil, fmt.Errorf("invalid remapping %q, expected from=to", r)
		}
		opts = append(opts, solc.CompileOptionRemapping(from, to))
	}
	return opts, nil
}
