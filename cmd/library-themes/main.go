// Command library-themes discovers themed playlists in a music library.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/justestif/go-library-themes/internal/themes"
	"github.com/justestif/go-library-themes/internal/web"
)

func main() {
	app := &cli.App{
		Name:  "library-themes",
		Usage: "Discover themed playlists hiding in a music library",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "configuration file (YAML, JSON or TOML)",
				EnvVars: []string{"THEMES_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "override logging.level (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "discover",
				Usage: "Group the library into themes and cache the result",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "ignore cached themes and run discovery again",
					},
				},
				Action: discoverAction,
			},
			{
				Name:   "show",
				Usage:  "Print the cached themes",
				Action: showAction,
			},
			{
				Name:   "clear-cache",
				Usage:  "Delete cached themes and enrichment data",
				Action: clearCacheAction,
			},
			{
				Name:  "serve",
				Usage: "Serve the theme API over HTTP",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "addr",
						Usage: "listen address (defaults to server.addr)",
					},
				},
				Action: serveAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func discoverAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, c)
	if err != nil {
		return err
	}
	defer a.Close()

	if !c.Bool("force") {
		if cached, ok := a.engine.Cached(); ok {
			fmt.Print(themes.FormatSummary(cached))
			fmt.Println("\n(cached result, use --force to run discovery again)")
			return nil
		}
	}

	bar := newProgressBar(os.Stderr)
	res, err := a.engine.Discover(ctx, bar.Update)
	bar.Finish()
	if errors.Is(err, context.Canceled) {
		fmt.Println("Discovery cancelled")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Print(themes.FormatSummary(res.Themes))
	if res.Notice != "" {
		fmt.Println(res.Notice)
	}
	if len(res.Degraded) > 0 {
		fmt.Printf("Note: %s\n", strings.Join(res.Degraded, "; "))
	}
	return nil
}

func showAction(c *cli.Context) error {
	a, err := newApp(c.Context, c)
	if err != nil {
		return err
	}
	defer a.Close()

	cached, ok := a.engine.Cached()
	if !ok {
		fmt.Println("No cached themes. Run `library-themes discover` first.")
		return nil
	}
	fmt.Print(themes.FormatSummary(cached))
	return nil
}

func clearCacheAction(c *cli.Context) error {
	a, err := newApp(c.Context, c)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.engine.ClearCache(); err != nil {
		return fmt.Errorf("clearing theme cache: %w", err)
	}
	if err := a.clearEnrichmentStore(); err != nil {
		return err
	}
	fmt.Println("Cache cleared")
	return nil
}

func serveAction(c *cli.Context) error {
	a, err := newApp(c.Context, c)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := c.String("addr")
	if addr == "" {
		addr = a.cfg.Server.Addr
	}
	a.log.Info("serving theme API", zap.String("addr", addr))

	server := web.NewServer(web.ServerConfig{
		Addr:     addr,
		Engine:   a.engine,
		Gatherer: a.registry,
	}, a.log)
	return server.Run()
}
