// FILE: lixenwraith/spice/cmd/spice/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/lixenwraith/spice"
	"github.com/lixenwraith/spice/internal/logging"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:   "spice",
		Usage:  "inspect layered configuration",
		Writer: os.Stdout,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration file (toml, json or yaml)",
			},
			&cli.StringFlag{
				Name:  "config-name",
				Usage: "discover a configuration file by base name",
			},
			&cli.StringFlag{
				Name:  "env-prefix",
				Usage: "read environment variables named PREFIX_KEY",
			},
			&cli.StringSliceFlag{
				Name:  "set",
				Usage: "explicit override key=value (repeatable)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "warn",
				Usage: "log level: debug, info, warn, error",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "get",
				Usage:     "print the resolved value of a key",
				ArgsUsage: "KEY",
				Action:    getAction,
			},
			{
				Name:   "keys",
				Usage:  "list every known key and the layer answering it",
				Action: keysAction,
			},
			{
				Name:   "layers",
				Usage:  "list layers in resolution order",
				Action: layersAction,
			},
			{
				Name:  "dump",
				Usage: "print the merged configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "format",
						Value: spice.FormatTOML,
						Usage: "output format: toml, json or yaml",
					},
				},
				Action: dumpAction,
			},
		},
	}
}

// load assembles a Spice from the root command's flags.
func load(cmd *cli.Command) (*spice.Spice, *zap.Logger, error) {
	root := cmd.Root()

	logger, err := logging.New(root.String("log-level"))
	if err != nil {
		return nil, nil, err
	}

	s := spice.New(spice.WithLogger(logger))

	if path := root.String("config"); path != "" {
		if _, err := s.AddConfigFile(path); err != nil {
			return nil, logger, err
		}
		s.SetConfigFile(path)
	} else if name := root.String("config-name"); name != "" {
		s.SetConfigName(name)
		if err := s.ReadInConfig(); err != nil {
			if !errors.Is(err, spice.ErrConfigNotFound) {
				return nil, logger, err
			}
			logger.Info("no configuration file found", zap.String("name", name))
		}
	}

	if root.IsSet("env-prefix") {
		s.SetEnvPrefix(root.String("env-prefix"))
		s.AutomaticEnv()
	}

	for _, pair := range root.StringSlice("set") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, logger, fmt.Errorf("--set %q: expected key=value", pair)
		}
		if err := s.Set(key, value); err != nil {
			return nil, logger, err
		}
	}

	return s, logger, nil
}

func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func getAction(_ context.Context, cmd *cli.Command) error {
	key := cmd.Args().First()
	if key == "" {
		return fmt.Errorf("get: missing KEY argument")
	}

	s, logger, err := load(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	v, ok, err := s.Get(key)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("key %q is not set", key)
	}
	_, err = fmt.Fprintln(output(cmd), v.String())
	return err
}

func keysAction(_ context.Context, cmd *cli.Command) error {
	s, logger, err := load(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	w := output(cmd)
	for _, key := range s.AllKeys() {
		origin, _, err := s.Origin(key)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\n", key, origin)
	}
	return nil
}

func layersAction(_ context.Context, cmd *cli.Command) error {
	s, logger, err := load(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	w := output(cmd)
	for _, info := range s.LayerInfo() {
		fmt.Fprintf(w, "%s\t%s\n", info.Name, info.Priority)
	}
	return nil
}

func dumpAction(_ context.Context, cmd *cli.Command) error {
	s, logger, err := load(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	return s.Encode(output(cmd), cmd.String("format"))
}
