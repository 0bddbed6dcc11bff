package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"rotacore/internal/core"
)

func newGenerateCmd(a *app) *cobra.Command {
	var (
		rowsFile string
		samples  int
		horizon  int
		feasible bool
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Solve for roster options and archive them",
		Long: `Builds the model from the stored rows (or --rows FILE), samples up to
--samples independently seeded solutions and archives the generation. The first
option is printed with per-person diagnostics; use "rota show" for the rest.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("samples") {
				a.cfg.Sampling.Samples = samples
			}
			if cmd.Flags().Changed("horizon") {
				a.cfg.Schedule.HorizonWeeks = horizon
			}
			if cmd.Flags().Changed("accept-feasible") {
				a.cfg.Sampling.AcceptFeasible = feasible
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			ctx := cmd.Context()
			svc, err := a.service(ctx, rowsFile == "", true)
			if err != nil {
				return err
			}

			var gen core.Generation
			if rowsFile != "" {
				rows, err := readRowsFile(rowsFile)
				if err != nil {
					return err
				}
				gen, err = svc.Generate(ctx, rows)
				if err != nil {
					return err
				}
			} else {
				gen, err = svc.GenerateFromStore(ctx)
				if err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderGenerationHeader(gen, 1))
			if len(gen.Samples) == 0 {
				return errNoOptions(gen)
			}
			fmt.Fprintln(out, renderSample(gen.Samples[0]))
			return nil
		},
	}
	cmd.Flags().StringVar(&rowsFile, "rows", "", "YAML or JSON file of form rows to solve instead of the row store")
	cmd.Flags().IntVarP(&samples, "samples", "n", 0, "number of independently seeded solves")
	cmd.Flags().IntVar(&horizon, "horizon", 0, "number of weeks to schedule (1-10)")
	cmd.Flags().BoolVar(&feasible, "accept-feasible", false, "keep time-limited solutions that are not proven optimal")
	return cmd
}

func errNoOptions(gen core.Generation) error {
	switch gen.Outcome() {
	case core.OutcomeInfeasible:
		return errors.New("no roster satisfies the hard rules; check leaders, pianists and vocalists per week")
	case core.OutcomeTimedOut:
		return errors.New("solver budget exhausted before any roster was found; raise time_limit")
	case core.OutcomeRejected:
		return errors.New("only unproven rosters were found; rerun with --accept-feasible or a larger budget")
	default:
		return errors.New("no options requested")
	}
}

func newRowsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rows",
		Short: "Manage stored availability rows",
	}

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Insert or replace rows from a YAML or JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := readRowsFile(args[0])
			if err != nil {
				return err
			}
			svc, err := a.service(cmd.Context(), true, false)
			if err != nil {
				return err
			}
			if err := svc.ImportRows(cmd.Context(), rows); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows\n", len(rows))
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored rows in insertion order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context(), true, false)
			if err != nil {
				return err
			}
			rows, err := svc.ListRows(cmd.Context())
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no rows stored")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderRows(rows))
			return nil
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a stored row",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), true, false)
			if err != nil {
				return err
			}
			if err := svc.DeleteRow(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(importCmd, listCmd, deleteCmd)
	return cmd
}

func newLeadersCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leaders",
		Short: "Manage which people can lead",
	}
	var exclusive bool
	setCmd := &cobra.Command{
		Use:   "set NAME...",
		Short: "Mark people as leaders",
		Long: `Marks the named rows as leaders in one update; an unknown name changes
nothing. With --clear every other stored row loses its leader flag.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := a.service(cmd.Context(), true, false)
			if err != nil {
				return err
			}
			if err := svc.SetLeaders(cmd.Context(), args, exclusive); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d leaders updated\n", len(args))
			return nil
		},
	}
	setCmd.Flags().BoolVar(&exclusive, "clear", false, "clear the leader flag on everyone not named")
	cmd.AddCommand(setCmd)
	return cmd
}

func newShowCmd(a *app) *cobra.Command {
	var (
		index  int
		asJSON bool
		url    bool
		expiry time.Duration
	)
	cmd := &cobra.Command{
		Use:   "show GENERATION_ID",
		Short: "Show one option of an archived generation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, err := a.service(ctx, false, true)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if url {
				link, err := svc.Archive().URL(ctx, args[0], expiry)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, link)
				return nil
			}
			gen, err := svc.LoadGeneration(ctx, args[0])
			if err != nil {
				return err
			}
			if len(gen.Samples) == 0 {
				fmt.Fprintln(out, renderGenerationHeader(gen, 0))
				return errNoOptions(gen)
			}
			if index < 1 || index > len(gen.Samples) {
				return fmt.Errorf("option %d out of range 1..%d", index, len(gen.Samples))
			}
			sample := gen.Samples[index-1]
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(sample)
			}
			fmt.Fprintln(out, renderGenerationHeader(gen, index))
			fmt.Fprintln(out, renderSample(sample))
			return nil
		},
	}
	cmd.Flags().IntVarP(&index, "index", "i", 1, "1-based option number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the option as JSON")
	cmd.Flags().BoolVar(&url, "url", false, "print a download link for the archived generation")
	cmd.Flags().DurationVar(&expiry, "expiry", 15*time.Minute, "lifetime of the --url link")
	return cmd
}

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List archived generations, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := a.service(cmd.Context(), false, true)
			if err != nil {
				return err
			}
			infos, err := svc.ListGenerations(cmd.Context())
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no generations archived")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderHistory(infos))
			return nil
		},
	}
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or write the configuration",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init PATH",
		Short: "Write the effective configuration to PATH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.cfg.Save(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", args[0])
			return nil
		},
	})
	return cmd
}
