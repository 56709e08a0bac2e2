package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	mmerr "github.com/viant/mmvec/errors"
	"github.com/viant/mmvec/internal/config"
)

// NewRootCmd creates the root mmvec command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:           "mmvec",
		Short:         "mmvec: persistent multimodal vector collections",
		Long:          "mmvec stores images and text as embedded records in a local SQLite collection and answers nearest-neighbour queries over them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	// Global flags; these map to config keys in init.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("path", "", "storage directory")
	root.PersistentFlags().String("collection", "", "collection name")
	root.PersistentFlags().String("embedding", "", "embedding provider: hash, openai or google")
	root.PersistentFlags().String("base-dir", "", "directory relative content uris are resolved against")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
	root.PersistentFlags().Bool("no-color", false, "disable colored output")

	root.AddCommand(
		newIngestCmd(a),
		newQueryCmd(a),
		newGetCmd(a),
		newPeekCmd(a),
		newCountCmd(a),
		newDeleteCmd(a),
		newReindexCmd(a),
		newLogCmd(a),
		newCollectionsCmd(a),
		newDropCmd(a),
		newSyncCmd(a),
		newDemoCmd(a),
	)
	return root
}

var flagKeys = map[string]string{
	"path":       "storage.path",
	"collection": "collection.name",
	"embedding":  "embedding.provider",
	"base-dir":   "loader.base_dir",
	"verbose":    "verbose",
}

// setup resolves configuration with flag > env > file > default precedence
// and installs the logger.
func (a *app) setup(cmd *cobra.Command) error {
	v := a.v
	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return mmerr.Errorf(mmerr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		v.SetConfigName("mmvec")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/mmvec")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return mmerr.Errorf(mmerr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
		}
	}

	for flag, key := range flagKeys {
		if err := v.BindPFlag(key, cmd.Root().PersistentFlags().Lookup(flag)); err != nil {
			return mmerr.Errorf(mmerr.CodeCLISetupFailure, "binding %s flag: %w", flag, err)
		}
	}

	cfg, err := config.FromViper(v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.noColor, _ = cmd.Flags().GetBool("no-color")

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return nil
}
