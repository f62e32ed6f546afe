package solc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Output of `solc --combined-json abi,bin` for a contract with a single
// getter, trimmed to the parts the parser cares about.
const combinedJSON = `{
  "contracts": {
    "contracts/test/TestERC20.sol:TestERC20": {
      "abi": [
        {
          "inputs": [],
          "name": "totalSupply",
          "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
          "stateMutability": "view",
          "type": "function"
        }
      ],
      "bin": "6080604052348015600e575f5ffd5b50"
    },
    "contracts/upgradability/Proxy.sol:Proxy": {
      "abi": [],
      "bin": "60806040525f5ffd"
    }
  },
  "version": "0.8.28+commit.7893614a.Linux.g++"
}`

func TestParseCombinedJSON(t *testing.T) {
	t.Parallel()

	contracts, err := ParseCombinedJSON([]byte(combinedJSON))
	require.NoError(t, err)
	require.Len(t, contracts, 2)

	// Contract names are stripped of their source file prefix.
	erc20, ok := contracts["TestERC20"]
	require.True(t, ok)
	require.NotEmpty(t, erc20.Code)

	_, ok = contracts["Proxy"]
	require.True(t, ok)
}

func TestParseCombinedJSONInvalid(t *testing.T) {
	t.Parallel()

	_, err := ParseCombinedJSON([]byte("not json"))
	require.ErrorContains(t, err, "failed to parse solc output")
}

func TestExtractABI(t *testing.T) {
	t.Parallel()

	contracts, err := ParseCombinedJSON([]byte(combinedJSON))
	require.NoError(t, err)

	abi := ExtractABI(contracts["TestERC20"])
	method, ok := abi.Methods["totalSupply"]
	require.True(t, ok)
	require.Empty(t, method.Inputs)
}

func TestCompileOptionsToArgs(t *testing.T) {
	t.Parallel()

	args := Args([]string{"contracts/test/TestERC20.sol"},
		CompileOptionBasePath("/src"),
		CompileOptionRemapping("@starkware", "/src/starkware"),
		CompileOptionAllowedPaths("/src/third_party", "/src/vendor"),
		CompileOptionEvmVersion("cancun"),
		CompileOptionOptimizeRuns(200),
		CompileOptionViaIR(),
	)
	require.Equal(t, []string{
		"--combined-json", "abi,bin",
		"--base-path", "/src",
		"@starkware=/src/starkware",
		"--allow-paths", "/src/third_party,/src/vendor",
		"--evm-version", "cancun",
		"--optimize", "--optimize-runs", "200",
		"--via-ir",
		"contracts/test/TestERC20.sol",
	}, args)
}

func TestCompileOptionAllowedPathsRelative(t *testing.T) {
	t.Parallel()

	wd, err := os.Getwd()
	require.NoError(t, err)

	args := Args(nil, CompileOptionAllowedPaths("third_party"))
	require.Equal(t, []string{
		"--combined-json", "abi,bin",
		"--allow-paths", filepath.Join(wd, "third_party"),
	}, args)
}

func TestValidateVersion(t *testing.T) {
	t.Parallel()

	require.NoError(t, ValidateVersion("0.8.28"))
	require.NoError(t, ValidateVersion("0.6.0"))

	require.ErrorContains(t, ValidateVersion("0.5.16"), "not supported")
	require.ErrorContains(t, ValidateVersion("latest"), "invalid compiler version")
}
