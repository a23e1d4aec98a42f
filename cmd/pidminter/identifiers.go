package main

import (
	"fmt"
	"strconv"

	"github.com/arthur-debert/pidminter/codec"
	"github.com/arthur-debert/pidminter/identifier"
	"github.com/spf13/cobra"
)

func newDoiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doi <identifier>",
		Short: "Validate a scheme-less DOI and print its canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doi, ok := identifier.ValidateDoi(args[0])
			if !ok {
				return NewValidationError("validate DOI", "DOI", args[0], "DOIs look like 10.5060/FOO")
			}
			fmt.Fprintln(cmd.OutOrStdout(), doi)
			return nil
		},
	}
}

func newArkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ark <identifier>",
		Short: "Validate a scheme-less ARK and print its canonical form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ark, ok := identifier.ValidateArk(args[0])
			if !ok {
				return NewValidationError("validate ARK", "ARK", args[0], "ARKs look like 13030/foo")
			}
			fmt.Fprintln(cmd.OutOrStdout(), ark)
			return nil
		},
	}
}

func newShadowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shadow <doi>",
		Short: "Map a scheme-less DOI to its shadow ARK",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ark, ok := identifier.DoiToShadow(args[0])
			if !ok {
				return NewValidationError("shadow DOI", "DOI", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), ark)
			return nil
		},
	}
}

func newUnshadowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unshadow <ark>",
		Short: "Map a shadow ARK back to its DOI",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), identifier.ShadowToDoi(args[0]))
			return nil
		},
	}
}

func newEncodeCmd() *cobra.Command {
	var profile int
	cmd := &cobra.Command{
		Use:   "encode <text>",
		Short: "Percent-encode text",
		Long: `Percent-encode text under one of the encoding profiles:

  1  log message: graphic ASCII and space pass through, except %
  2  log field: as 1, with space encoded
  3  noid argument: as 2, with ' and " encoded
  4  noid element: as 3, with : encoded`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := codec.ParseProfile(profile)
			if err != nil {
				return NewValidationError("encode", "profile", strconv.Itoa(profile), "Use a profile between 1 and 4")
			}
			fmt.Fprintln(cmd.OutOrStdout(), codec.Encode(p, args[0]))
			return nil
		},
	}
	cmd.Flags().IntVarP(&profile, "profile", "p", int(codec.LogMessage), "encoding profile (1-4)")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <text>",
		Short: "Decode percent-encoded text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := codec.Decode(args[0])
			if err != nil {
				return &CLIError{Operation: "decode", Cause: err.Error(), Underlying: err}
			}
			fmt.Fprintln(cmd.OutOrStdout(), s)
			return nil
		},
	}
}
