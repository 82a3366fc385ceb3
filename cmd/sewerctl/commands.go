package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"sewernet/internal/config"
	"sewernet/internal/domain"
	"sewernet/internal/handler"
	"sewernet/internal/hub"
	"sewernet/internal/service"
	"sewernet/internal/watcher"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file>",
		Short: "Load a network document and report structural problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.newService(false)
			if err != nil {
				return err
			}
			defer done()

			if _, err := svc.LoadFile(args[0]); err != nil {
				return err
			}
			issues, err := svc.Validate()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			errs := 0
			for _, is := range issues {
				if is.Severity == domain.SeverityError {
					errs++
				}
				fmt.Fprintf(out, "%-7s %s: %s\n", is.Severity, is.Subject, is.Message)
			}
			if errs > 0 {
				return fmt.Errorf("%d validation errors", errs)
			}
			fmt.Fprintf(out, "%s is valid (%d warnings)\n", args[0], len(issues))
			return nil
		},
	}
}

func newOutletsCmd(a *app) *cobra.Command {
	var (
		promote bool
		output  string
		format  string
	)
	cmd := &cobra.Command{
		Use:   "outlets <file>",
		Short: "List outlet compartments and outlet candidates",
		Long: `List the outlet compartments of a network and the compartments that
qualify as outlets: the only compartment of a manhole that receives flow and
does not discharge into another connection.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.newService(false)
			if err != nil {
				return err
			}
			defer done()

			if _, err := svc.LoadFile(args[0]); err != nil {
				return err
			}
			if promote {
				if _, err := svc.PromoteOutlets(); err != nil {
					return err
				}
			}
			outlets, err := svc.Outlets()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "MANHOLE\tCOMPARTMENT\tSTATUS")
			for _, o := range outlets {
				status := "candidate"
				if o.Outlet {
					status = "outlet"
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", o.Manhole, o.Compartment, status)
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			if output != "" {
				return writeNetwork(svc, nil, output, format)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&promote, "promote", false, "convert candidates into outlet compartments")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the resulting document to this file")
	cmd.Flags().StringVar(&format, "format", "", "output format: yaml or json (default: from extension)")
	return cmd
}

func newExportCmd(a *app) *cobra.Command {
	var (
		output string
		format string
	)
	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Convert a network document to another format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.newService(false)
			if err != nil {
				return err
			}
			defer done()

			if _, err := svc.LoadFile(args[0]); err != nil {
				return err
			}
			return writeNetwork(svc, cmd.OutOrStdout(), output, format)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&format, "format", "", "output format: yaml or json")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Store a network document in the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.newService(true)
			if err != nil {
				return err
			}
			defer done()

			result, err := svc.LoadFile(args[0])
			if err != nil {
				return err
			}
			if err := svc.Save(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "stored %s: %d manholes, %d connections\n",
				result.Name, result.Manholes, result.Connections)
			return nil
		},
	}
}

func newListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the networks stored in the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.newService(true)
			if err != nil {
				return err
			}
			defer done()

			list, err := svc.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tMANHOLES\tCONNECTIONS\tSAVED")
			for _, s := range list {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%s\n", s.Name, s.Manholes, s.Connections, s.SavedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}
}

func newRestoreCmd(a *app) *cobra.Command {
	var (
		output string
		format string
	)
	cmd := &cobra.Command{
		Use:   "restore <name>",
		Short: "Write a stored network as a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.newService(true)
			if err != nil {
				return err
			}
			defer done()

			if _, err := svc.Restore(cmd.Context(), args[0]); err != nil {
				return err
			}
			return writeNetwork(svc, cmd.OutOrStdout(), output, format)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	cmd.Flags().StringVar(&format, "format", "", "output format: yaml or json")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a stored network",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, done, err := a.newService(true)
			if err != nil {
				return err
			}
			defer done()

			if err := svc.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
			return nil
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <file>",
		Short: "Reload a network document on every change and report its outlets and problems",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, done, err := a.newService(false)
			if err != nil {
				return err
			}
			defer done()

			events := make(chan service.Event, 16)
			svc.Events().Subscribe(events)
			defer svc.Events().Unsubscribe(events)

			out := cmd.OutOrStdout()
			report := func() {
				issues, _ := svc.Validate()
				outlets, _ := svc.Outlets()
				summary, err := svc.Summary()
				if err != nil {
					return
				}
				fmt.Fprintf(out, "%s: %d manholes, %d connections, %d outlets/candidates, %d issues\n",
					summary.Name, summary.Manholes, summary.Connections, len(outlets), len(issues))
			}

			if _, err := svc.LoadFile(args[0]); err != nil {
				return err
			}
			w := watcher.New(args[0], svc.Reload).
				WithDebounce(a.cfg.Watch.Debounce.Duration()).
				WithLogger(a.logger)
			go func() {
				if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
					a.logger.Error("watcher stopped", "error", err)
					stop()
				}
			}()

			for {
				select {
				case e := <-events:
					switch e.Type {
					case service.EventNetworkLoaded:
						report()
					case service.EventReloadFailed:
						fmt.Fprintf(out, "reload failed: %v\n", e.Payload)
					}
				case <-ctx.Done():
					return nil
				}
			}
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		network string
	)
	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Serve the network API, reloading the document when it changes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			svc, done, err := a.newService(true)
			if err != nil {
				return err
			}
			defer done()

			switch {
			case len(args) == 1:
				if _, err := svc.LoadFile(args[0]); err != nil {
					return err
				}
				w := watcher.New(args[0], svc.Reload).
					WithDebounce(a.cfg.Watch.Debounce.Duration()).
					WithLogger(a.logger)
				go func() {
					if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
						a.logger.Error("watcher stopped", "error", err)
					}
				}()
			case network != "":
				if _, err := svc.Restore(ctx, network); err != nil {
					return err
				}
			}

			sseHub := hub.New(a.logger)
			go sseHub.Run(ctx)

			events := make(chan service.Event, 100)
			svc.Events().Subscribe(events)
			defer svc.Events().Unsubscribe(events)
			go hub.Forward[service.Event](ctx, sseHub, events)

			mux := http.NewServeMux()
			handler.NewNetworkHandler(svc, a.logger).Register(mux)
			mux.Handle("GET /events", sseHub)

			server := &http.Server{
				Addr: addr,
				Handler: handler.Chain(mux,
					handler.Recover(a.logger),
					handler.CORS,
					handler.Logger(a.logger),
				),
				ReadHeaderTimeout: 10 * time.Second,
				IdleTimeout:       60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("server listening", "addr", addr)
				if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address (default from config)")
	cmd.Flags().StringVar(&network, "network", "", "restore this stored network when no file is given")
	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			path := a.configPath
			if path == "" {
				path = "(defaults)"
			}
			fmt.Fprintf(out, "Config: %s\n%s\n", path, a.cfg.Summary())
			return nil
		},
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultConfigPath()
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}
			if err := config.DefaultConfig().Save(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cmd.AddCommand(initCmd)
	return cmd
}
