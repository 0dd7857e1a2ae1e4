package main

import (
	"context"
	"os"
	"time"

	"github.com/timmy/devmeme/internal/compositor"
	"github.com/timmy/devmeme/internal/config"
	"github.com/timmy/devmeme/internal/logger"
	"github.com/timmy/devmeme/internal/storage"
	"github.com/urfave/cli"
)

const Version = "0.1.0"

func run(c *cli.Context) error {
	if !c.IsSet("image") {
		cli.ShowAppHelp(c)
		return cli.NewExitError("Missing --image arg.", 1)
	}

	loaderCfg := &compositor.LoaderConfig{
		FetchTimeout:    30 * time.Second,
		MaxImageBytes:   20 << 20,
		AllowLocalFiles: true,
	}
	fontPath := c.String("font")

	var objects compositor.ObjectReader
	if c.IsSet("config") {
		cfg, err := config.Load(c.String("config"))
		if err != nil {
			return cli.NewExitError("Failed to load config: "+err.Error(), 1)
		}
		loaderCfg.FetchTimeout = cfg.Render.FetchTimeout
		loaderCfg.MaxImageBytes = cfg.Render.MaxImageBytes
		loaderCfg.MaxImagePixels = cfg.Render.MaxImagePixels
		if fontPath == "" {
			fontPath = cfg.Render.FontPath
		}
		if cfg.Storage.Enabled {
			s, err := storage.NewStorage(cfg.GetStorageConfig())
			if err != nil {
				return cli.NewExitError("Failed to initialize storage: "+err.Error(), 1)
			}
			objects = s
		}
	}

	font, fontName, err := compositor.LoadFont(fontPath)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}

	loader := compositor.NewLoader(loaderCfg, objects)
	exporter := compositor.NewExporter(compositor.New(loader), font)

	out := c.String("out")
	dl, err := exporter.Export(context.Background(), c.String("image"), c.String("top"), c.String("bottom"), out)
	if err != nil {
		return cli.NewExitError(err.Error(), 1)
	}
	if err := os.WriteFile(out, dl.Data, 0o644); err != nil {
		return cli.NewExitError("Failed to write "+out+": "+err.Error(), 1)
	}

	logger.GetDefault().WithFields(logger.Fields{
		"out":    out,
		"font":   fontName,
		"width":  dl.Width,
		"height": dl.Height,
	}).Info("Meme written")
	return nil
}

func main() {
	logger.SetDefaultLogger(logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		Output:      os.Stderr,
		ServiceName: "devmeme-render",
	}))

	app := cli.NewApp()
	app.Name = "devmeme-render"
	app.Version = Version
	app.Usage = "caption an image the way the DevMeme server does"
	app.Action = run
	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:  "image",
			Usage: "Source image: a path, http(s) URL, data: URL or s3://bucket/key",
		},
		cli.StringFlag{
			Name:  "top",
			Usage: "Top caption",
		},
		cli.StringFlag{
			Name:  "bottom",
			Usage: "Bottom caption",
		},
		cli.StringFlag{
			Name:  "out",
			Usage: "Output PNG path",
			Value: compositor.DefaultFileName,
		},
		cli.StringFlag{
			Name:   "font",
			Usage:  "TrueType display font, falls back to Go Bold",
			EnvVar: "MEME_FONT_PATH",
		},
		cli.StringFlag{
			Name:   "config",
			Usage:  "Config file for render and storage settings",
			EnvVar: "CONFIG_PATH",
		},
	}

	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}
