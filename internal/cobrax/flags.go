package cobrax

import (
	"github.com/spf13/pflag"
)

func AddLogLevelFlag(fset *pflag.FlagSet, dst *string) {
	if *dst == "" {
		*dst = "info"
	}
	fset.StringVarP(dst, "log-level", "l", *dst, "log level: trace|debug|info|warn|error|fatal|panic")
}

func AddManifestFlag(fset *pflag.FlagSet, dst *string) {
	if *dst == "" {
		*dst = "solgraph.yaml"
	}
	fset.StringVarP(dst, "manifest", "m", *dst, "path to the build manifest")
}

func AddOutputDirFlag(fset *pflag.FlagSet, dst *string) {
	if *dst == "" {
		*dst = "build"
	}
	fset.StringVarP(dst, "output-dir", "o", *dst, "directory for generated artifacts")
}

func AddWorkersFlag(fset *pflag.FlagSet, dst *int) {
	fset.IntVarP(dst, "workers", "j", *dst, "max targets built in parallel (0 means one per CPU)")
}
