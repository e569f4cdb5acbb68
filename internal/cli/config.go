package cli

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/runoshun/boardsync/internal/app"
	"github.com/runoshun/boardsync/internal/domain"
	"github.com/runoshun/boardsync/internal/usecase"
)

// newConfigCommand creates the config command.
func newConfigCommand(c *app.Container) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `Manage boardsync configuration files and settings.`,
		// No RunE: shows subcommand list when called without arguments
	}

	cmd.AddCommand(newConfigShowCommand(c))
	cmd.AddCommand(newConfigInitCommand(c))

	return cmd
}

// newConfigShowCommand creates the config show subcommand.
func newConfigShowCommand(c *app.Container) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display effective configuration",
		Long: `Display effective configuration after merging all sources.

Sources are applied in order: defaults, global config, per-directory
config, .env file, then BOARDSYNC_* environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.ShowConfigUseCase().Execute(cmd.Context(), usecase.ShowConfigInput{})
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(w, "[Loaded from]")
			printConfigSource(w, "global", out.GlobalConfig)
			printConfigSource(w, "local", out.LocalConfig)
			_, _ = fmt.Fprintln(w)

			_, _ = fmt.Fprintln(w, "[Effective config]")
			if err := writeEffectiveConfig(w, out.EffectiveConfig); err != nil {
				return err
			}

			if len(out.EffectiveConfig.Warnings) > 0 {
				_, _ = fmt.Fprintln(w)
				_, _ = fmt.Fprintln(w, "[Warnings]")
				for _, warn := range out.EffectiveConfig.Warnings {
					_, _ = fmt.Fprintf(w, "  %s\n", warn)
				}
			}
			return nil
		},
	}
}

func printConfigSource(w io.Writer, label string, info domain.ConfigInfo) {
	state := "not found"
	if info.Exists {
		state = "loaded"
	}
	_, _ = fmt.Fprintf(w, "  %s: %s (%s)\n", label, info.Path, state)
}

// effectiveConfig mirrors the config file layout for display.
type effectiveConfig struct {
	API struct {
		BaseURL string `toml:"base_url"`
		Timeout string `toml:"timeout"`
	} `toml:"api"`
	Push struct {
		Transport     string `toml:"transport"`
		URL           string `toml:"url,omitempty"`
		RedisAddr     string `toml:"redis_addr,omitempty"`
		ChannelPrefix string `toml:"redis_channel_prefix,omitempty"`
	} `toml:"push"`
	Log struct {
		Level string `toml:"level"`
	} `toml:"log"`
	Session struct {
		Path string `toml:"path"`
	} `toml:"session"`
	Board struct {
		RevertFailedMoves bool `toml:"revert_failed_moves"`
		DedupeComments    bool `toml:"dedupe_comments"`
	} `toml:"board"`
}

// writeEffectiveConfig encodes cfg in the config file's TOML layout.
func writeEffectiveConfig(w io.Writer, cfg *domain.Config) error {
	var out effectiveConfig
	out.API.BaseURL = cfg.API.BaseURL
	out.API.Timeout = cfg.API.Timeout.String()
	out.Push.Transport = cfg.Push.Transport
	out.Push.URL = cfg.Push.URL
	out.Push.RedisAddr = cfg.Push.RedisAddr
	out.Push.ChannelPrefix = cfg.Push.ChannelPrefix
	out.Log.Level = cfg.Log.Level
	out.Session.Path = cfg.Session.Path
	out.Board.RevertFailedMoves = cfg.Board.RevertFailedMoves
	out.Board.DedupeComments = cfg.Board.DedupeComments

	if err := toml.NewEncoder(w).Encode(out); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// newConfigInitCommand creates the config init subcommand.
func newConfigInitCommand(c *app.Container) *cobra.Command {
	var global bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Generate configuration file template",
		Long: `Generate a configuration file template.

By default, creates the per-directory configuration file at .boardsync/config.toml.
With --global, creates the global configuration file at ~/.config/boardsync/config.toml.

Error conditions:
- Target file already exists: error`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := c.InitConfigUseCase().Execute(cmd.Context(), usecase.InitConfigInput{
				Global: global,
				Config: domain.NewDefaultConfig(),
			})
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created config file: %s\n", out.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&global, "global", false, "Generate global configuration")

	return cmd
}
