package solc

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const testContract = `// SPDX-License-Identifier: MIT
pragma solidity >=0.8.0;

contract Counter {
    uint256 public value;

    function increment() external {
        value += 1;
    }
}
`

func TestCompileSource(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("solc"); err != nil {
		t.Skip("solc not installed")
	}

	src := filepath.Join(t.TempDir(), "Counter.sol")
	require.NoError(t, os.WriteFile(src, []byte(testContract), 0o644))

	contracts, err := CompileSource(src, CompileOptionOptimizeRuns(200))
	require.NoError(t, err)

	counter, ok := contracts["Counter"]
	require.True(t, ok)
	require.NotEmpty(t, counter.Code)

	abi := ExtractABI(counter)
	_, ok = abi.Methods["increment"]
	require.True(t, ok)
}

func TestCompileSourceBroken(t *testing.T) {
	t.Parallel()

	if _, err := exec.LookPath("solc"); err != nil {
		t.Skip("solc not installed")
	}

	src := filepath.Join(t.TempDir(), "Broken.sol")
	require.NoError(t, os.WriteFile(src, []byte("pragma solidity >=0.8.0;\ncontract Broken { nope }\n"), 0o644))

	_, err := CompileSource(src)
	require.ErrorContains(t, err, "failed to execute")
}
