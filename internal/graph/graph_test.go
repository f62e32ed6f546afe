package graph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAddDuplicateTarget(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.AddLibrary(&Library{Name: "test_erc20_sol"}))

	err := g.AddLibrary(&Library{Name: "test_erc20_sol"})
	require.ErrorIs(t, err, ErrDuplicateTarget)
	require.Contains(t, err.Error(), "test_erc20_sol")

	err = g.AddEnv(&Env{Name: "test_erc20_sol"})
	require.ErrorIs(t, err, ErrDuplicateTarget)

	require.ErrorIs(t, g.AddLibrary(&Library{}), ErrEmptyTargetName)
}

func TestForwardReference(t *testing.T) {
	t.Parallel()

	g := New()
	// The library is declared before the target it depends on.
	require.NoError(t, g.AddLibrary(&Library{
		Name: "test_erc20_sol",
		Libs: []string{"starkware_solidity_lib"},
	}))
	require.NoError(t, g.AddLibrary(&Library{Name: "starkware_solidity_lib"}))

	r, err := g.Resolve()
	require.NoError(t, err)
	require.Len(t, r.Order(), 2)
	require.Equal(t, "starkware_solidity_lib", r.Order()[0].TargetName())
}

func TestUnknownDependency(t *testing.T) {
	t.Parallel()

	t.Run("declared", func(t *testing.T) {
		t.Parallel()

		g := New()
		require.NoError(t, g.AddEnv(&Env{
			Name: "test_erc20_sol_env",
			Libs: []string{"no_such_lib"},
		}))

		_, err := g.Resolve()
		require.ErrorIs(t, err, ErrUnknownTarget)
		require.Contains(t, err.Error(), "no_such_lib")
		require.Contains(t, err.Error(), "test_erc20_sol_env")
	})

	t.Run("explicit edge", func(t *testing.T) {
		t.Parallel()

		g := New()
		require.NoError(t, g.AddLibrary(&Library{Name: "proxy_contract_lib"}))
		g.AddDependencies("proxy_contract_lib", "proxy_contract")

		_, err := g.Resolve()
		require.ErrorIs(t, err, ErrUnknownTarget)
		require.Contains(t, err.Error(), "proxy_contract")
	})
}

func TestDependencyCycle(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.AddLibrary(&Library{Name: "a", Libs: []string{"b"}}))
	require.NoError(t, g.AddLibrary(&Library{Name: "b", Libs: []string{"c"}}))
	require.NoError(t, g.AddLibrary(&Library{Name: "c", Libs: []string{"a"}}))

	_, err := g.Resolve()
	require.ErrorIs(t, err, ErrDependencyCycle)
	require.Contains(t, err.Error(), "a -> b -> c -> a")
}

func TestTopologicalOrder(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.AddLibrary(&Library{
		Name:  "test_erc20_sol",
		Files: []string{"TestERC20.sol"},
	}))
	require.NoError(t, g.AddEnv(&Env{
		Name:      "test_erc20_sol_env",
		Contracts: []string{"TestERC20"},
		Libs:      []string{"test_erc20_sol"},
	}))
	require.NoError(t, g.AddLibrary(&Library{
		Name: "starkware_contracts_test_contracts_lib",
		Artifacts: []ArtifactCopy{
			{GeneratedPath: "test_erc20_sol_env/artifacts/TestERC20.json", PublishedName: "TestERC20.json"},
		},
	}))
	g.AddDependencies("starkware_contracts_test_contracts_lib", "test_erc20_sol_env")

	r, err := g.Resolve()
	require.NoError(t, err)

	pos := make(map[string]int)
	for i, target := range r.Order() {
		pos[target.TargetName()] = i
	}
	require.Less(t, pos["test_erc20_sol"], pos["test_erc20_sol_env"])
	require.Less(t, pos["test_erc20_sol_env"], pos["starkware_contracts_test_contracts_lib"])

	// The graph is frozen after resolution.
	require.ErrorIs(t, g.AddLibrary(&Library{Name: "late"}), ErrResolved)
	_, err = g.Resolve()
	require.ErrorIs(t, err, ErrResolved)
}

func TestDependenciesDeduplicated(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.AddLibrary(&Library{Name: "proxy_contract"}))
	require.NoError(t, g.AddLibrary(&Library{
		Name: "proxy_contract_lib",
		Libs: []string{"proxy_contract"},
	}))
	g.AddDependencies("proxy_contract_lib", "proxy_contract")

	require.Equal(t, []string{"proxy_contract"}, g.DependenciesOf("proxy_contract_lib"))
}

func TestDot(t *testing.T) {
	t.Parallel()

	g := New()
	require.NoError(t, g.AddLibrary(&Library{Name: "proxy_sol", Files: []string{"Proxy.sol"}}))
	require.NoError(t, g.AddEnv(&Env{
		Name:      "proxy_contract",
		Contracts: []string{"Proxy"},
		Libs:      []string{"proxy_sol"},
	}))

	r, err := g.Resolve()
	require.NoError(t, err)

	dot := r.Dot()
	require.Contains(t, dot, `"proxy_contract" [shape=ellipse];`)
	require.Contains(t, dot, `"proxy_sol" [shape=box];`)
	require.Contains(t, dot, `"proxy_contract" -> "proxy_sol";`)
}

func TestLibrarySourcePaths(t *testing.T) {
	t.Parallel()

	lib := &Library{
		Name:   "test_erc20_sol",
		Prefix: "contracts/erc20",
		Files:  []string{"TestERC20.sol", "ERC20.sol"},
	}
	require.Equal(t,
		[]string{"contracts/erc20/TestERC20.sol", "contracts/erc20/ERC20.sol"},
		lib.SourcePaths())
}
