package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/urfave/cli/v3"

	"github.com/starford/cinesuite/internal"
	"github.com/starford/cinesuite/internal/codec"
	"github.com/starford/cinesuite/internal/transfer"
	pkgconfig "github.com/starford/cinesuite/pkg/config"
)

func loadConfig(cmd *cli.Command) (*internal.Config, error) {
	cfg := internal.NewDefaultConfig()
	if _, err := pkgconfig.LoadOptional(cmd.String("config"), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := internal.Run(ctx, internal.WithConfig(cfg)); err != nil {
		return fmt.Errorf("app run error: %w", err)
	}
	return nil
}

func play(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logFile, err := os.OpenFile(cmd.String("log-file"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()
	return internal.Play(ctx, internal.WithConfig(cfg), internal.WithLogOutput(logFile))
}

func serveMCP(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	return internal.ServeMCP(ctx, internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
}

func export(ctx context.Context, cmd *cli.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	f, err := codec.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}
	name, err := internal.Export(ctx, cmd.String("project"), cmd.String("scene"), f,
		internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	if err != nil {
		return err
	}
	fmt.Println(name)
	return nil
}

func importScene(ctx context.Context, cmd *cli.Command) error {
	path := cmd.Args().First()
	if path == "" {
		return fmt.Errorf("usage: cinesuite import <file>")
	}
	f, ok := codec.FormatFromName(path)
	if !ok {
		return fmt.Errorf("%s: expected a .json, .yaml or .yml file", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	res, err := internal.Import(ctx, cmd.String("project"), data,
		transfer.ImportOptions{Strict: cmd.Bool("strict"), Format: f},
		internal.WithConfig(cfg), internal.WithLogOutput(os.Stderr))
	for _, is := range res.Issues {
		fmt.Fprintln(os.Stderr, is.String())
	}
	if err != nil {
		return err
	}
	fmt.Println(res.Scene.ID)
	return nil
}

func main() {
	cmd := &cli.Command{
		Name:   "cinesuite",
		Usage:  "Fake on-screen interfaces for film and video production",
		Action: serve,
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
				Usage:  "Run the HTTP API",
				Action: serve,
			},
			{
				Name:   "play",
				Usage:  "Play the current project full screen in the terminal",
				Action: play,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "log-file",
						Usage: "Where to write the log while the screen is taken",
						Value: "cinesuite-play.log",
					},
				},
			},
			{
				Name:   "mcp",
				Usage:  "Serve MCP tools over stdio",
				Action: serveMCP,
			},
			{
				Name:   "export",
				Usage:  "Write a scene to the transfer directory",
				Action: export,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "project", Usage: "Project id (with --scene)"},
					&cli.StringFlag{Name: "scene", Usage: "Scene id; the current scene when empty"},
					&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "json or yaml", Value: "json"},
				},
			},
			{
				Name:      "import",
				Usage:     "Add a transfer file to a project",
				ArgsUsage: "<file>",
				Action:    importScene,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "project", Usage: "Project id; the current project when empty"},
					&cli.BoolFlag{Name: "strict", Usage: "Refuse documents with shape issues"},
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
