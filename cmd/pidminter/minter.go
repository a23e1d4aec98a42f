package main

import (
	"fmt"
	"strconv"

	"github.com/arthur-debert/pidminter/internal/validation"
	"github.com/arthur-debert/pidminter/minter"
	"github.com/arthur-debert/pidminter/storage"
	"github.com/arthur-debert/pidminter/txlog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newMinterCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "minter",
		Short: "Inspect and maintain a minter",
		Long: `Inspect and maintain the state of an identifier minter.

Every command opens the minter for the duration of one session. Changes are
written only if the command succeeds and --dry-run is not set.`,
		// Replaces the root hook: only minter commands open the logs.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	cmd.AddCommand(
		newMinterInitCmd(a),
		newMinterShowCmd(a),
		newMinterAddCounterCmd(a),
		newMinterSetCmd(a),
		newMinterRetireCmd(a),
	)
	return cmd
}

func newMinterInitCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty minter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.update(cmd, "init", nil, func(st *minter.State) error { return nil }, minter.WithNew())
		},
	}
}

func newMinterShowCmd(a *app) *cobra.Command {
	var compact bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the minter state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, "show", nil, func(c storage.Collection) ([]byte, error) {
				var out []byte
				err := minter.View(c, func(st *minter.State) error {
					var err error
					out, err = a.render(st, compact)
					return err
				}, minter.WithLogger(a.log))
				return out, err
			})
		},
	}
	cmd.Flags().BoolVar(&compact, "compact", false, "render lists as single strings")
	return cmd
}

func newMinterAddCounterCmd(a *app) *cobra.Command {
	var top int
	cmd := &cobra.Command{
		Use:   "add-counter",
		Short: "Add an active counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.update(cmd, "add-counter", []string{strconv.Itoa(top)}, func(st *minter.State) error {
				if top <= 0 {
					return badRequest("counter top must be positive, got %d", top)
				}
				if st.MaxPerCounter > 0 && top > st.MaxPerCounter {
					return badRequest("counter top %d exceeds the per-counter maximum %d", top, st.MaxPerCounter)
				}
				id := "c" + strconv.Itoa(len(st.Counters))
				st.Counters = append(st.Counters, minter.Counter{Top: top})
				st.ActiveCounters = append(st.ActiveCounters, id)
				a.log.Info("counter added", "counter", id, "top", top)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&top, "top", 0, "highest value the counter may reach")
	_ = cmd.MarkFlagRequired("top")
	return cmd
}

// minterSettings are the flags of "minter set". Inherited flags such as
// --store are not settings.
var minterSettings = []string{"template", "mask", "atlast", "max-per-counter", "max-combined"}

// changedSettings renders the named flags the user set as name=value.
func changedSettings(flags *pflag.FlagSet, names ...string) []string {
	var changed []string
	for _, name := range names {
		if f := flags.Lookup(name); f != nil && f.Changed {
			changed = append(changed, name+"="+f.Value.String())
		}
	}
	return changed
}

func newMinterSetCmd(a *app) *cobra.Command {
	var (
		template      string
		mask          string
		atLast        string
		maxPerCounter int
		maxCombined   int
	)
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Change minter settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			changed := changedSettings(flags, minterSettings...)
			return a.update(cmd, "set", changed, func(st *minter.State) error {
				if len(changed) == 0 {
					return badRequest("no setting given")
				}
				if flags.Changed("template") {
					st.Template = template
				}
				if flags.Changed("mask") {
					st.Mask = mask
				}
				if flags.Changed("atlast") {
					st.AtLast = atLast
				}
				if flags.Changed("max-per-counter") {
					st.MaxPerCounter = maxPerCounter
				}
				if flags.Changed("max-combined") {
					st.MaxCombinedCount = maxCombined
				}
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&template, "template", "", "identifier template, e.g. fk4{eedk}")
	f.StringVar(&mask, "mask", "", "identifier mask, e.g. eedk")
	f.StringVar(&atLast, "atlast", "", "what to do when the minter is exhausted")
	f.IntVar(&maxPerCounter, "max-per-counter", 0, "cap on each counter")
	f.IntVar(&maxCombined, "max-combined", 0, "cap on the combined count, 0 for unbounded")
	return cmd
}

func newMinterRetireCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "retire <counter>",
		Short: "Move an active counter to the inactive list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := args[0]
			return a.update(cmd, "retire", args, func(st *minter.State) error {
				idx := -1
				for i, c := range st.ActiveCounters {
					if c == id {
						idx = i
						break
					}
				}
				if idx < 0 {
					return badRequest("counter %q is not active", id)
				}
				st.ActiveCounters = append(st.ActiveCounters[:idx], st.ActiveCounters[idx+1:]...)
				st.InactiveCounters = append(st.InactiveCounters, id)
				return nil
			})
		},
	}
}

// update runs fn in a writable session and prints the resulting state.
func (a *app) update(cmd *cobra.Command, name string, args []string, fn func(*minter.State) error, opts ...minter.Option) error {
	return a.run(cmd, name, args, func(c storage.Collection) ([]byte, error) {
		var out []byte
		opts = append(opts, minter.WithDryRunIf(a.cfg.DryRun), minter.WithLogger(a.log))
		err := minter.Update(c, func(st *minter.State) error {
			if err := fn(st); err != nil {
				return err
			}
			if err := st.Validate(); err != nil {
				return err
			}
			var err error
			out, err = a.render(st, false)
			return err
		}, opts...)
		return out, err
	})
}

// run opens the configured store and executes one minter transaction,
// bracketing it with transaction log records.
func (a *app) run(cmd *cobra.Command, name string, args []string, fn func(storage.Collection) ([]byte, error)) error {
	if err := validation.ValidateStore(a.cfg); err != nil {
		return NewConfigError(name, err.Error(), CommonSuggestions.CheckFlags)
	}

	id := txlog.NewTransactionID()
	a.tx.Begin(id, append([]string{"minter." + name, a.cfg.Store}, args...)...)

	out, err := a.transact(fn)
	switch {
	case err == nil:
		a.tx.Success(id)
	case isBadRequest(err):
		a.tx.BadRequest(id)
	default:
		a.tx.Error(id, err)
	}
	if err != nil {
		return WrapError(name+" minter", err, CommonSuggestions.CheckStore)
	}

	_, err = cmd.OutOrStdout().Write(out)
	return err
}

func (a *app) transact(fn func(storage.Collection) ([]byte, error)) ([]byte, error) {
	c, err := storage.Open(storage.Kind(a.cfg.Backend), a.cfg.Store)
	if err != nil {
		return nil, err
	}
	// The minter session owns c from here on and closes it.
	return fn(c)
}

func (a *app) render(st *minter.State, compact bool) ([]byte, error) {
	switch a.cfg.Format {
	case "json":
		out, err := st.JSON(compact)
		if err != nil {
			return nil, err
		}
		return append(out, '\n'), nil
	case "yaml":
		return st.YAML(compact)
	default:
		return nil, fmt.Errorf("unsupported format %q", a.cfg.Format)
	}
}
