package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"sewernet/internal/config"
	"sewernet/internal/loader"
	"sewernet/internal/logging"
	"sewernet/internal/repository/sqlite"
	"sewernet/internal/service"
)

// app carries the state shared by all commands
type app struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
}

func newRootCmd() *cobra.Command {
	var (
		a        = &app{}
		cfgFlag  string
		logLevel string
		dbPath   string
		jsonLogs bool
	)

	root := &cobra.Command{
		Use:           "sewerctl",
		Short:         "Inspect and maintain sewer network topologies",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfgFlag != "" {
				a.cfg, a.configPath, err = config.LoadFromPath(cfgFlag)
			} else {
				a.cfg, a.configPath, err = config.Load()
			}
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("log-level") {
				a.cfg.Logging.Level = logLevel
			}
			if jsonLogs {
				a.cfg.Logging.JSON = true
			}
			if dbPath != "" {
				a.cfg.Database.Path = dbPath
			}

			lc := a.cfg.LoggerConfig("sewerctl")
			lc.Output = cmd.ErrOrStderr()
			a.logger = logging.New(lc)
			a.logger.Debug("configuration loaded", "path", a.configPath)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfgFlag, "config", "", "config file (default: search "+config.EnvConfigPath+", ./sewernet.yaml, ~/.config/sewernet)")
	pf.StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.BoolVar(&jsonLogs, "json-logs", false, "write logs as JSON")
	pf.StringVar(&dbPath, "db", "", "SQLite database path (overrides config)")

	root.AddCommand(
		newValidateCmd(a),
		newOutletsCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newListCmd(a),
		newRestoreCmd(a),
		newDeleteCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) loaderOptions() loader.Options {
	return loader.Options{
		Logger:          a.logger,
		DefaultProfiles: a.cfg.DefaultProfiles(),
	}
}

// newService builds a service. With storage it opens the configured
// database; the returned func closes it.
func (a *app) newService(storage bool) (*service.NetworkService, func(), error) {
	if !storage {
		return service.NewNetworkService(nil, nil, a.loaderOptions()), func() {}, nil
	}
	repo, err := sqlite.New(a.cfg.Database.Path)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Debug("database opened", "path", a.cfg.Database.Path)
	closeFn := func() {
		if err := repo.Close(); err != nil {
			a.logger.Warn("failed to close database", "error", err)
		}
	}
	return service.NewNetworkService(repo, nil, a.loaderOptions()), closeFn, nil
}

// writeNetwork exports the loaded network to path, or to w when path is
// empty. An empty format is taken from the extension of path.
func writeNetwork(svc *service.NetworkService, w io.Writer, path, format string) error {
	if format == "" {
		format = "yaml"
		if ext := filepath.Ext(path); ext != "" {
			format = ext[1:]
		}
	}
	if path == "" {
		return svc.Export(w, format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := svc.Export(f, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
