package cobrax

import (
	"os"

	"github.com/spf13/pflag"
)

// AddConfigFlag adds a flag to the flag set to specify a config file.
// It doesn't attach the flag to any variable because normally GetConfigNameFromArgs is used.
func AddConfigFlag(fset *pflag.FlagSet) {
	fset.StringP("config", "c", "", "config file")
}

// GetConfigNameFromArgs searches for a config file name in the command line arguments.
// Generally, it should be called before argument parsing because the latter depends on the config (default values).
func GetConfigNameFromArgs() string {
	for i, f := range os.Args[:len(os.Args)-1] {
		if f == "--config" || f == "-c" {
			return os.Args[i+1]
		}
	}
	return ""
}
