package solc

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/Masterminds/semver/v3"
	"github.com/fabelx/go-solc-select/pkg/config"
	"github.com/fabelx/go-solc-select/pkg/installer"
	"github.com/fabelx/go-solc-select/pkg/versions"
)

// Contracts written for older compilers use constructs the artifact layout
// does not account for.
const minSupportedVersion = "0.6.0"

// ValidateVersion checks that the pinned compiler version is a proper semver
// release new enough to be driven by this package.
func ValidateVersion(version string) error {
	v, err := semver.NewVersion(version)
	if err != nil {
		return fmt.Errorf("invalid compiler version %q: %w", version, err)
	}

	constraint, err := semver.NewConstraint(">= " + minSupportedVersion)
	if err != nil {
		return err
	}
	if !constraint.Check(v) {
		return fmt.Errorf("compiler version %s is not supported, need >= %s", version, minSupportedVersion)
	}
	return nil
}

// FindCompiler returns the path of the solc binary for the requested version,
// installing it if needed. An empty version falls back to PATH.
func FindCompiler(version string) (string, error) {
	if version == "" {
		solc, err := exec.LookPath("solc")
		if err != nil {
			return "", fmt.Errorf("solc compiler not found: %w", err)
		}
		return solc, nil
	}

	if err := ValidateVersion(version); err != nil {
		return "", err
	}

	installed := versions.GetInstalled()
	_, ok := installed[version]
	if !ok {
		if err := installer.InstallSolc(version); err != nil {
			return "", fmt.Errorf("failed to install compiler %s: %w", version, err)
		}
	}
	solc, ok := versions.GetInstalled()[version]
	if !ok {
		return "", fmt.Errorf("failed to find compiler %s", version)
	}
	solc = "solc-" + solc

	fileName := filepath.Join(config.SolcArtifacts, solc, solc)
	if _, err := os.Stat(fileName); err != nil {
		return "", fmt.Errorf("failed to find compiler %s: %w", version, err)
	}
	return fileName, nil
}
