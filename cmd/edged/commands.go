package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	kratoslog "github.com/go-kratos/kratos/v2/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	edgedconfig "github.com/go-edge/edged/config"
	"github.com/go-edge/edged/docgen"
	"github.com/go-edge/edged/kernel"
	"github.com/go-edge/edged/lifecycle"
	"github.com/go-edge/edged/metrics"
	rtlog "github.com/go-edge/edged/rtlog"
)

func newLogger() kratoslog.Logger {
	return rtlog.New(rtlog.Options{
		Level:          resolveLogLevel(flagLogLevel),
		FilePath:       flagLogFile,
		Pretty:         isTTY(os.Stdout),
		ServiceName:    "edged",
		ServiceVersion: release,
	})
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// buildApplication registers every built-in kind and returns the application
// plus the document it was configured from.
func buildApplication(configPath string, logger kratoslog.Logger) (*lifecycle.Application, *edgedconfig.Document, []lifecycle.InstanceConfig, error) {
	doc, err := edgedconfig.Load(configPath)
	if err != nil {
		return nil, nil, nil, err
	}
	app := lifecycle.New(logger)
	if err := registerBuiltinKinds(app, logger); err != nil {
		return nil, nil, nil, err
	}
	instances := make([]lifecycle.InstanceConfig, 0, len(doc.Top.Plugins))
	names := make([]string, 0, len(doc.Top.Plugins))
	for name := range doc.Top.Plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		inst := doc.Top.Plugins[name]
		cfg, err := doc.InstanceConfig(name)
		if err != nil {
			return nil, nil, nil, err
		}
		instances = append(instances, lifecycle.InstanceConfig{Name: name, Kind: inst.Kind, Config: cfg})
	}
	return app, doc, instances, nil
}

var runCmd = &cobra.Command{
	Use:   "run <config>",
	Short: "load a configuration and run the kernel until cancelled",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := newLogger()
		helper := kratoslog.NewHelper(kratoslog.With(logger, "op", "host"))

		shutdownTracing, err := setupTracing(flagChromeTrace, flagTracy)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdownTracing(ctx); err != nil {
				helper.Warnw("op", "host", "event", "trace_shutdown_failed", "err", err)
			}
		}()

		app, doc, instances, err := buildApplication(args[0], logger)
		if err != nil {
			return err
		}

		reg := metrics.NewRegistry(prometheus.NewRegistry())

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
		go func() {
			sig := <-sigCh
			helper.Infow("op", "host", "event", "signal_received", "signal", sig.String())
			cancel()
		}()

		shutdownTimeout := time.Duration(doc.Top.PluginShutdownTimeoutMS) * time.Millisecond
		opts := lifecycle.Options{
			CommunicationBufferSize: doc.Top.CommunicationBufferSize,
			PluginShutdownTimeout:   shutdownTimeout,
			Metrics:                 reg,
		}
		return app.Run(ctx, instances, opts)
	},
}

var validateConfigCmd = &cobra.Command{
	Use:   "validate-config <config>",
	Short: "load and verify a configuration without running it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := rtlog.NewNop()
		app, _, instances, err := buildApplication(args[0], logger)
		if err != nil {
			return err
		}
		if err := app.Validate(instances); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
		return nil
	},
}

var getPluginKindsCmd = &cobra.Command{
	Use:   "get-plugin-kinds",
	Short: "list every plugin kind this binary can instantiate",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := lifecycle.New(rtlog.NewNop())
		if err := registerBuiltinKinds(app, rtlog.NewNop()); err != nil {
			return err
		}
		names := app.KindNames()
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

var docCmd = &cobra.Command{
	Use:   "doc [plugin_name]",
	Short: "render configuration documentation for one or all plugin kinds",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := lifecycle.New(rtlog.NewNop())
		if err := registerBuiltinKinds(app, rtlog.NewNop()); err != nil {
			return err
		}
		var names []string
		if len(args) == 1 {
			names = []string{args[0]}
		} else {
			names = app.KindNames()
			sort.Strings(names)
		}
		for _, name := range names {
			b, ok := app.Kind(name)
			if !ok {
				return fmt.Errorf("doc: unknown plugin kind %q", name)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderKind(name, b))
		}
		return nil
	},
}

func renderKind(name string, b kernel.Builder) string {
	return docgen.RenderPlugin(name, b.KindConfiguration()) + "\n"
}
