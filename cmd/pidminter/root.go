package main

import (
	"fmt"
	"log/slog"

	"github.com/arthur-debert/pidminter/internal/config"
	"github.com/arthur-debert/pidminter/internal/validation"
	"github.com/arthur-debert/pidminter/txlog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what every command needs once configuration is loaded.
type app struct {
	v   *viper.Viper
	cfg *config.Config

	log     *slog.Logger
	tx      *txlog.Logger
	closers []func() error
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
	a.closers = nil
}

func newRootCmd(a *app) *cobra.Command {
	a.v = config.NewViper()

	root := &cobra.Command{
		Use:   "pidminter",
		Short: "Identifier minter maintenance and DOI/ARK canonicalization",
		Long: `pidminter canonicalizes DOI and ARK identifiers, maps DOIs to and from
shadow ARKs, and inspects or adjusts the state of identifier minters kept in
a JSON file or a LevelDB database.

Settings come from flags, PIDMINTER_* environment variables and an optional
pidminter.yaml.

Examples:
  # Canonicalize an ARK
  pidminter ark 13030/-foo--bar

  # Create a minter and give it a counter
  pidminter --store minter.json minter init
  pidminter --store minter.json minter add-counter --top 290

  # Show a minter stored in LevelDB
  pidminter --store minter.db --backend leveldb minter show --compact`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.loadConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringP("store", "s", "", "path to the minter store")
	flags.StringP("backend", "b", config.DefaultBackend, "store backend: json|leveldb")
	flags.BoolP("dry-run", "n", false, "read and validate but never write the minter")
	flags.StringP("format", "f", config.DefaultFormat, "output format: yaml|json")
	flags.Bool("debug", false, "debug mode: no administrator notifications")
	flags.String("log-level", config.DefaultLogLevel, "log level: debug|info|warn|error")

	bindings := map[string]string{
		"store":     "store",
		"backend":   "backend",
		"dry-run":   "dry-run",
		"format":    "format",
		"debug":     "debug",
		"log.level": "log-level",
	}
	for key, flag := range bindings {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(newDoiCmd(), newArkCmd(), newShadowCmd(), newUnshadowCmd())
	root.AddCommand(newEncodeCmd(), newDecodeCmd())
	root.AddCommand(newMinterCmd(a))
	return root
}

// loadConfig loads and validates configuration.
func (a *app) loadConfig() error {
	cfg, err := config.Load(a.v)
	if err != nil {
		return NewConfigError("load configuration", err.Error(), CommonSuggestions.CheckConfig)
	}
	if err := validation.Validate(cfg); err != nil {
		return NewConfigError("validate configuration", err.Error(), CommonSuggestions.CheckConfig, CommonSuggestions.CheckFlags)
	}
	a.cfg = cfg
	return nil
}

// setup loads configuration and starts logging, for commands that touch a
// minter.
func (a *app) setup() error {
	if err := a.loadConfig(); err != nil {
		return err
	}
	if err := a.initLogging(); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}
