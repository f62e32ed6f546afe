package solc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/compiler"
	"github.com/solgraph/solgraph/common"
)

func ParseCombinedJSON(json []byte) (map[string]*compiler.Contract, error) {
	// Provide empty strings for the additional required arguments
	contracts, err := compiler.ParseCombinedJSON(
		json,
		"", /* source */
		"", /* langVersion */
		"", /* compilerVersion */
		"" /* compilerOpts */)
	if err != nil {
		return nil, fmt.Errorf("failed to parse solc output: %w", err)
	}

	res := make(map[string]*compiler.Contract)
	for name, c := range contracts {
		// extract contract name
		contractName := name[strings.LastIndex(name, ":")+1:]
		res[contractName] = c
	}

	return res, nil
}

type compileOptions struct {
	allowedPaths  []string
	basePath      string
	remappings    []string
	evmVersion    string
	optimizeParam int
	viaIR         bool
}

func (opts *compileOptions) toArgs(sourcePaths []string) []string {
	args := []string{
		"--combined-json", "abi,bin",
	}

	if len(opts.basePath) > 0 {
		args = append(args, "--base-path", opts.basePath)
	}
	args = append(args, opts.remappings...)
	if len(opts.allowedPaths) > 0 {
		args = append(args, "--allow-paths")
		args = append(args, strings.Join(opts.allowedPaths, ","))
	}
	if len(opts.evmVersion) > 0 {
		args = append(args, "--evm-version", opts.evmVersion)
	}
	if opts.optimizeParam > 0 {
		args = append(args,
			"--optimize",
			"--optimize-runs",
			strconv.Itoa(opts.optimizeParam))
	}
	if opts.viaIR {
		args = append(args, "--via-ir")
	}

	args = append(args, sourcePaths...)
	return args
}

type CompileOption func(*compileOptions)

func CompileOptionAllowedPaths(paths ...string) CompileOption {
	return func(o *compileOptions) {
		for _, path := range paths {
			o.allowedPaths = append(o.allowedPaths, common.GetAbsolutePath(path))
		}
	}
}

func CompileOptionBasePath(basePath string) CompileOption {
	return func(o *compileOptions) {
		o.basePath = basePath
	}
}

// allows to use @mylib in .sol files with proper path resolution
func CompileOptionRemapping(from, to string) CompileOption {
	return func(o *compileOptions) {
		o.remappings = append(o.remappings, fmt.Sprintf("%s=%s", from, to))
	}
}

func CompileOptionEvmVersion(version string) CompileOption {
	return func(o *compileOptions) {
		o.evmVersion = version
	}
}

// useful to reduce the size of the compiled contract (limitations are pretty tight)
func CompileOptionOptimizeRuns(val int) CompileOption {
	return func(o *compileOptions) {
		o.optimizeParam = val
	}
}

func CompileOptionViaIR() CompileOption {
	return func(o *compileOptions) {
		o.viaIR = true
	}
}

// Args renders the final solc argument list for the given options.
func Args(sourcePaths []string, options ...CompileOption) []string {
	opts := compileOptions{}
	for _, o := range options {
		o(&opts)
	}
	return opts.toArgs(sourcePaths)
}

// CompileSources runs the given solc binary over the source files and returns
// the compiled contracts keyed by contract name. A compiler failure is final;
// stderr is folded into the returned error.
func CompileSources(binary string, sourcePaths []string, options ...CompileOption) (map[string]*compiler.Contract, error) {
	cmd := exec.Command(binary, Args(sourcePaths, options...)...)

	var stderrBuf bytes.Buffer
	cmd.Stderr = &stderrBuf

	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to execute `%s`: %w.\n%s", cmd, err, stderrBuf.String())
	}

	return ParseCombinedJSON(output)
}

// CompileSource compiles a single file with whatever solc is found on PATH.
func CompileSource(sourcePath string, options ...CompileOption) (map[string]*compiler.Contract, error) {
	binary, err := exec.LookPath("solc")
	if err != nil {
		return nil, fmt.Errorf("solc compiler not found: %w", err)
	}
	return CompileSources(binary, []string{sourcePath}, options...)
}

func ExtractABI(c *compiler.Contract) abi.ABI {
	data, err := json.Marshal(c.Info.AbiDefinition)
	if err != nil {
		panic(fmt.Errorf("failed to extract abi: %w", err))
	}

	abi, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		panic(fmt.Errorf("failed to extract abi: %w", err))
	}
	return abi
}
