// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the fedsearch CLI.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/pdiddy/fedsearch/internal/config"
	"github.com/pdiddy/fedsearch/internal/federate"
	"github.com/pdiddy/fedsearch/internal/logger"
	"github.com/pdiddy/fedsearch/internal/secrets"
	"github.com/pdiddy/fedsearch/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// Exit codes.
const (
	exitOK = iota
	exitError
	exitConfig
	exitBackend
	exitCancelled
	exitNotReached
)

// appFS is the filesystem for config, secrets, and data files.
var appFS = afero.NewOsFs()

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets secrets.Secrets

// rootCmd is the base command for the fedsearch CLI.
var rootCmd = &cobra.Command{
	Use:   "fedsearch",
	Short: "Federated, paginated search across several search backends",
	Long: `fedsearch sends one query to every configured search backend, merges the
ranked results by score, and prints one fixed-size page of the merged stream.

Backends are listed in fedsearch.yaml (or the file given by --config). Each
backend is a REST search service, a local SQLite index, or an in-memory
collection. API keys are read from .secrets/<backend>-api-key when a backend
has no credential in the config.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		logger.SetVerbose(verbose)

		s, err := secrets.Load(appFS, secrets.DefaultDir)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			logger.Info("loaded secrets: %v", s.Names())
		}

		cfgFile, _ := cmd.Flags().GetString("config")
		config.Setup(viper.GetViper(), appFS, cfgFile)
		used, err := config.Read(viper.GetViper())
		if err != nil {
			return err
		}
		if used != "" {
			logger.Info("using config file: %s", used)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./fedsearch.yaml or ~/.config/fedsearch/fedsearch.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log rounds and backend activity to stderr")
}

// loadConfig decodes and validates the bound configuration and fills
// missing credentials from secrets.
func loadConfig() (types.Config, error) {
	cfg, err := config.Load(viper.GetViper(), appFS)
	if err != nil {
		return types.Config{}, err
	}
	if filled := loadedSecrets.FillCredentials(cfg.Backends); len(filled) > 0 {
		logger.Debug("credentials from secrets: %v", filled)
	}
	return cfg, nil
}

// bindFlags binds each named flag in fs to its viper key.
func bindFlags(fs *pflag.FlagSet, keys map[string]string) {
	for flag, key := range keys {
		if err := viper.BindPFlag(key, fs.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("binding --%s: %v", flag, err))
		}
	}
}

// errPageNotReached is returned by search --strict on an overrun.
var errPageNotReached = errors.New("requested page not reached")

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, federate.ErrConfiguration), errors.Is(err, federate.ErrInvalidRequest):
		return exitConfig
	case errors.Is(err, federate.ErrCancelled):
		return exitCancelled
	case errors.Is(err, federate.ErrBackend):
		return exitBackend
	case errors.Is(err, errPageNotReached):
		return exitNotReached
	}
	return exitError
}

func main() {
	os.Exit(exitCode(rootCmd.Execute()))
}
