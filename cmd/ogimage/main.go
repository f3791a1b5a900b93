package main

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/charmbracelet/lipgloss"
	"github.com/flanksource/commons/logger"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vircadia/ogimage"
	"github.com/vircadia/ogimage/render"
	"github.com/vircadia/ogimage/shutdown"
)

// Build information (set by goreleaser)
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	rootCmd := newRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ogimage",
		Short: "Render the site's Open-Graph preview image",
		Long: `ogimage renders the 1200x630 Open-Graph preview image for the site: the logo
centred over the tagline, set in the site's own font.

Without a subcommand it behaves like 'ogimage generate' with the default site
layout: static/img/logo.png, static/font/Manrope/Manrope-VariableFont_wght.ttf and
the tagline from docusaurus.config.ts, written to static/img/og/vircadia.png.`,
		Example: `  ogimage
  ogimage generate --root ./website --backend native
  ogimage generate --tagline "Reactivity layer for games." -o og.png
  ogimage backends`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			ogimage.Flags.UseFlags()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context())
		},
	}

	ogimage.BindAllFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newGenerateCommand())
	rootCmd.AddCommand(newBackendsCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newGenerateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "generate",
		Short: "Render the preview image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd.Context())
		},
	}
}

func runGenerate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	shutdown.HandleSignals()

	params, err := ogimage.Flags.GenerateOptions.Params()
	if err != nil {
		return err
	}

	c, err := ogimage.Flags.CacheOptions.Cache()
	if err != nil {
		logger.Warnf("render cache unavailable: %v", err)
		c = nil
	}
	if c != nil {
		defer c.Close()
	}

	result, err := ogimage.New(ogimage.Flags.GenerateOptions.Manager(), c).Generate(ctx, params)
	if err != nil {
		return err
	}

	fmt.Println("OG image generated at", result.OutputPath)
	return nil
}

func newBackendsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the renderers and whether they can run here",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := ogimage.Flags.GenerateOptions.Manager()

			styled := term.IsTerminal(int(os.Stdout.Fd()))
			name := lipgloss.NewStyle().Bold(true).Width(12)
			ok := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
			missing := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

			for _, backend := range manager.Names() {
				r, err := manager.Get(backend)
				if err != nil {
					return err
				}
				status, style := "available", ok
				if !r.IsAvailable() {
					status, style = "not available", missing
				}
				if styled {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", name.Render(backend), style.Render(status))
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", backend, status)
				}
			}

			if best, err := manager.Best(); err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "\n%s selects %s\n", render.BackendAuto, best.Name())
			}
			return nil
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), getVersionInfo())
		},
	}
}

func getVersionInfo() string {
	return fmt.Sprintf("ogimage %s (commit: %s, built: %s, go: %s)",
		version, commit, date, runtime.Version())
}
