package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pthm/hal"
	"github.com/pthm/hal/lib/routeconfig"
)

// app carries state shared by all subcommands.
type app struct {
	v      *viper.Viper
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New(), logger: slog.Default()}

	root := &cobra.Command{
		Use:   "hal",
		Short: "Render and document HAL hypermedia resources",
		Long: `hal works with a route config file describing namespaces, link relations
and the links and embedded resources of each route.

Every flag can also be set through the environment with a HAL_ prefix,
e.g. HAL_CONFIG=api/hal.yaml or HAL_RELS_PATH=/docs/rels.`,
		Version:      version,
		SilenceUsage: true,
	}
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return a.init(cmd)
	}

	pf := root.PersistentFlags()
	pf.StringP("config", "c", "hal.yaml", "route config file")
	pf.String("rels-path", hal.DefaultRelsPath, "path CURIE hrefs point at")
	pf.Bool("strict", false, "reject rels that are not registered")
	pf.String("log-level", "info", "log level (debug, info, warn, error)")
	for _, name := range []string{"config", "rels-path", "strict", "log-level"} {
		_ = a.v.BindPFlag(name, pf.Lookup(name))
	}

	a.v.SetEnvPrefix("HAL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	root.AddCommand(newRenderCmd(a), newRelsCmd(a), newServeCmd(a))
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(a.v.GetString("log-level"))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}

// load reads the route config file and registers its namespaces.
func (a *app) load() (*routeconfig.File, *hal.Registry, error) {
	f, err := routeconfig.Load(a.v.GetString("config"))
	if err != nil {
		return nil, nil, err
	}
	reg := hal.NewRegistry(hal.WithRegistryLogger(a.logger))
	if err := f.Register(reg); err != nil {
		return nil, nil, err
	}
	a.logger.Debug("loaded route config", "file", a.v.GetString("config"), "routes", len(f.Routes), "namespaces", len(f.Namespaces))
	return f, reg, nil
}

func (a *app) factory(reg *hal.Registry) *hal.Factory {
	return hal.NewFactory(
		hal.WithRegistry(reg),
		hal.WithRelsPath(a.v.GetString("rels-path")),
		hal.WithStrictRels(a.v.GetBool("strict")),
		hal.WithLogger(a.logger),
	)
}
