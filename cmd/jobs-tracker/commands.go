package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/joseph-ayodele/jobs-tracker/internal/form"
	repo "github.com/joseph-ayodele/jobs-tracker/internal/repository"
	"github.com/joseph-ayodele/jobs-tracker/internal/server"
)

func rootCmd() *cobra.Command {
	var verbose bool
	cmd := &cobra.Command{
		Use:           "jobs-tracker",
		Short:         "Allocate job numbers and record survey jobs",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log at debug level")

	// run opens the app for one command and closes it afterwards.
	run := func(fn func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			logger := newLogger(cmd.ErrOrStderr(), verbose)
			a, err := open(cmd.Context(), logger)
			if err != nil {
				return err
			}
			defer a.Close()
			return fn(cmd.Context(), cmd, a, args)
		}
	}

	cmd.AddCommand(
		nextCmd(run),
		submitCmd(run),
		showCmd(run),
		exportCmd(run),
		initDBCmd(run),
		serveCmd(run),
		registryCmd(run),
	)
	return cmd
}

type runner func(fn func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error

func nextCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "next",
		Short: "Print the next unused job number",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			svc, err := a.service(ctx, false)
			if err != nil {
				return err
			}
			id, err := svc.NextJobNumber(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		}),
	}
}

func submitCmd(run runner) *cobra.Command {
	var file string
	flagged := []struct {
		name, usage string
	}{
		{form.JobNumber, "job number (YYMMSSSS)"},
		{form.ParcelID, "county parcel identifier"},
		{form.JobDate, "job date"},
		{form.FieldworkDate, "fieldwork date"},
		{form.EntryBy, "initials of the person entering the job"},
		{form.RequestedServices, "requested services"},
		{form.ContactInfo, "client contact information"},
		{form.AdditionalInfo, "additional information"},
	}
	values := make(map[string]*string, len(flagged))

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Record a job in the existing and active job tables",
		Long: `Record a job. Values come from --file (a JSON object of column names to
strings) and the flags, flags winning. Columns the county parcel record
carries always take the county's value.`,
		Args: cobra.NoArgs,
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			inputs := map[string]string{}
			if file != "" {
				raw, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(raw, &inputs); err != nil {
					return fmt.Errorf("parse %s: %w", file, err)
				}
			}

			f := form.New()
			f.Populate(inputs)
			for name, v := range values {
				if cmd.Flags().Changed(flagName(name)) {
					if err := f.Set(name, *v); err != nil {
						return err
					}
				}
			}
			if err := f.Validate(); err != nil {
				return err
			}
			for name, v := range f.Values() {
				inputs[name] = v
			}

			svc, err := a.service(ctx, true)
			if err != nil {
				return err
			}
			res, err := svc.Submit(ctx, inputs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "job %s: existing %s, active %s\n", res.JobNumber, res.Archival, res.Operational)
			return nil
		}),
	}

	cmd.Flags().StringVar(&file, "file", "", "JSON file of input values")
	for _, fl := range flagged {
		v := new(string)
		values[fl.name] = v
		cmd.Flags().StringVar(v, flagName(fl.name), "", fl.usage)
	}
	return cmd
}

// flagName turns a column name into its flag spelling.
func flagName(column string) string {
	return strings.ReplaceAll(column, "_", "-")
}

func showCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "show <job-number>",
		Short: "Print the details recorded for an existing job",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			svc, err := a.service(ctx, false)
			if err != nil {
				return err
			}
			details, ok, err := svc.ExistingJobDetails(ctx, args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("job %s is not an existing job", args[0])
			}
			keys := make([]string, 0, len(details))
			for k := range details {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", k, details[k])
			}
			return nil
		}),
	}
}

func exportCmd(run runner) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write both job tables to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			data, err := a.exporter().ExportJobsXLSX(ctx)
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}
			a.logger.Info("export.written", "path", out, "bytes", len(data))
			return nil
		}),
	}
	cmd.Flags().StringVar(&out, "out", "jobs.xlsx", "output XLSX file path")
	return cmd
}

func initDBCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "init-db",
		Short: "Create the job tables if they do not exist",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, _ *cobra.Command, a *app, _ []string) error {
			return repo.CreateTables(ctx, a.db, a.schema, a.logger)
		}),
	}
}

func serveCmd(run runner) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the jobs gRPC API",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, _ *cobra.Command, a *app, _ []string) error {
			svc, err := a.service(ctx, true)
			if err != nil {
				return err
			}

			lis, err := net.Listen("tcp", a.cfg.Server.GRPCAddr)
			if err != nil {
				a.logger.Error("failed to listen on address", "addr", a.cfg.Server.GRPCAddr, "error", err)
				return err
			}
			grpcServer, healthServer := server.NewGRPCServer(svc, a.logger)

			errCh := make(chan error, 1)
			a.logger.Info("jobs-tracker listening", "addr", lis.Addr().String())
			go func() { errCh <- grpcServer.Serve(lis) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}
			a.logger.Info("shutting down")
			healthServer.Shutdown()
			grpcServer.GracefulStop()
			return nil
		}),
	}
}

func registryCmd(run runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "registry",
		Short: "Inspect the job number registry",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Print the existing and active job numbers",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app, _ []string) error {
			svc, err := a.service(ctx, false)
			if err != nil {
				return err
			}
			reg := svc.Registry()
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "existing (%d)\n", len(reg.Existing()))
			for _, id := range reg.Existing() {
				fmt.Fprintln(w, " ", id)
			}
			fmt.Fprintf(w, "active (%d)\n", len(reg.Active()))
			for _, id := range reg.Active() {
				fmt.Fprintln(w, " ", id)
			}
			return nil
		}),
	}

	remove := &cobra.Command{
		Use:   "remove <job-number>",
		Short: "Drop a job number from this session's existing set",
		Long: `Drop a job number from the session's existing set. Neither the store nor
the active set changes, and the registry is rebuilt on the next start.`,
		Args: cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, cmd *cobra.Command, a *app, args []string) error {
			svc, err := a.service(ctx, false)
			if err != nil {
				return err
			}
			if err := svc.RemoveJobNumber(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "removed %s (%d existing remain)\n", args[0], len(svc.Registry().Existing()))
			return nil
		}),
	}

	cmd.AddCommand(list, remove)
	return cmd
}
