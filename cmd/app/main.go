package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/atelier/internal"
	"github.com/starford/atelier/internal/decor"
	pkgconfig "github.com/starford/atelier/pkg/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	configPath := cmd.String("config")

	cfg := internal.NewDefaultConfig()
	found, err := pkgconfig.LoadOptional(configPath, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if !found && cmd.IsSet("config") {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}
	return cfg, nil
}

func options(cmd *cli.Command) ([]internal.Option, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	return []internal.Option{
		internal.WithConfig(cfg),
		internal.WithVersion(version),
	}, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, opts...); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func mcp(ctx context.Context, cmd *cli.Command) error {
	opts, err := options(cmd)
	if err != nil {
		return err
	}
	return internal.RunMCP(ctx, opts...)
}

func exportSVG(_ context.Context, cmd *cli.Command) error {
	scene := cmd.Args().First()
	if scene == "" {
		return fmt.Errorf("scene name required: one of %s", strings.Join(decor.SceneNames, ", "))
	}
	opts, err := options(cmd)
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if out := cmd.String("out"); out != "" && out != "-" {
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	return internal.ExportSVG(w, scene, opts...)
}

func newLog(ctx context.Context, cmd *cli.Command) error {
	project := cmd.Args().Get(0)
	title := strings.Join(cmd.Args().Tail(), " ")
	if project == "" || title == "" {
		return fmt.Errorf("usage: new-log <project> <title...>")
	}

	date := time.Now()
	if raw := cmd.String("date"); raw != "" {
		d, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return fmt.Errorf("invalid --date %q: want YYYY-MM-DD", raw)
		}
		date = d
	}

	opts, err := options(cmd)
	if err != nil {
		return err
	}
	opts = append(opts, internal.WithLogOutput(os.Stderr))

	path, err := internal.NewLog(ctx, project, title, date, cmd.String("body"), opts...)
	if err != nil {
		return err
	}
	fmt.Println(path)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "atelier",
		Usage:   "Portfolio site server: projects, build logs, posts and generated SVG backdrops",
		Version: version,
		Action:  serve,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "Path to config file",
				DefaultText: "config/config.yaml",
				Value:       "config/config.yaml",
				Sources:     cli.EnvVars("APP_CONFIG_FILE"),
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the HTTP API, SVG endpoints and live event stream (default)",
				Action: serve,
			},
			{
				Name:   "mcp",
				Usage:  "Serve the MCP tools over stdio",
				Action: mcp,
			},
			{
				Name:      "svg",
				Usage:     "Write a decorative scene as SVG",
				ArgsUsage: "<" + strings.Join(decor.SceneNames, "|") + ">",
				Action:    exportSVG,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "out",
						Aliases: []string{"o"},
						Usage:   "Output file (default stdout)",
					},
				},
			},
			{
				Name:      "new-log",
				Usage:     "Create a dated log entry for a project",
				ArgsUsage: "<project> <title...>",
				Action:    newLog,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "date",
						Usage: "Log date as YYYY-MM-DD (default today)",
					},
					&cli.StringFlag{
						Name:  "body",
						Usage: "Markdown body",
					},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
