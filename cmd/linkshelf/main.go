package main

import (
	"context"
	"os"

	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/signals"
	"github.com/shishobooks/linkshelf/pkg/config"
	"github.com/shishobooks/linkshelf/pkg/inpx"
	"github.com/shishobooks/linkshelf/pkg/linker"
	"github.com/shishobooks/linkshelf/pkg/resolver"
	"github.com/shishobooks/linkshelf/pkg/version"
	"github.com/shishobooks/linkshelf/pkg/worker"
	"github.com/urfave/cli/v2"
)

func main() {
	log := logger.New()

	app := &cli.App{
		Name:           "linkshelf",
		Usage:          "organize an ebook collection into a tree of symlinks",
		Description:    "Looks every book file up in an INPX index, or reads its FB2 description when the index doesn't know it, and links it under by-name, by-author and by-sequence.",
		Version:        version.Version,
		Flags:          flags,
		DefaultCommand: "link",
		Commands: []*cli.Command{
			{
				Name:  "link",
				Usage: "link every book once and exit",
				Action: func(c *cli.Context) error {
					return run(c, false)
				},
			},
			{
				Name:  "watch",
				Usage: "link every book, then keep linking new ones until interrupted",
				Action: func(c *cli.Context) error {
					return run(c, true)
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Err(err).Fatal("app run error")
	}
}

var flags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "YAML config file",
		EnvVars: []string{config.EnvPrefix + "CONFIG"},
	},
	&cli.StringFlag{
		Name:    "inpx",
		Aliases: []string{"i"},
		Usage:   "INPX index of the collection",
	},
	&cli.StringFlag{
		Name:    "search-dir",
		Aliases: []string{"d"},
		Usage:   "directory holding the book files",
	},
	&cli.StringFlag{
		Name:    "dest",
		Aliases: []string{"o"},
		Usage:   "directory the link tree is created in",
	},
	&cli.BoolFlag{
		Name:    "skip",
		Aliases: []string{"s"},
		Usage:   "leave existing links alone",
		Value:   true,
	},
	&cli.BoolFlag{
		Name:    "do-not-skip",
		Aliases: []string{"S"},
		Usage:   "add numbered links next to existing ones instead of skipping them",
	},
	&cli.StringFlag{
		Name:  "report",
		Usage: "write a JSON summary of every run to this file",
	},
	&cli.StringFlag{
		Name:  "log-level",
		Usage: "one of debug, info, warn or error",
	},
}

// flagOverrides applies the flags that were given explicitly, so they win
// over the config file and the environment.
func flagOverrides(c *cli.Context) config.Option {
	return func(cfg *config.Config) {
		if c.IsSet("inpx") {
			cfg.IndexPath = c.String("inpx")
		}
		if c.IsSet("search-dir") {
			cfg.SearchDir = c.String("search-dir")
		}
		if c.IsSet("dest") {
			cfg.DestDir = c.String("dest")
		}
		if c.IsSet("skip") {
			cfg.Skip = c.Bool("skip")
		}
		if c.Bool("do-not-skip") {
			cfg.Skip = false
		}
		if c.IsSet("report") {
			cfg.ReportPath = c.String("report")
		}
		if c.IsSet("log-level") {
			cfg.LogLevel = c.String("log-level")
		}
	}
}

func run(c *cli.Context, watch bool) error {
	cfg, err := config.New(c.String("config"), flagOverrides(c))
	if err != nil {
		return err
	}

	log := logger.NewWithLevel(cfg.LogLevel)
	log.Info("starting linkshelf", logger.Data{"version": version.Version})

	ctx, cancel := context.WithCancel(log.WithContext(c.Context))
	defer cancel()

	graceful := signals.Setup()
	go func() {
		<-graceful
		log.Info("starting graceful shutdown")
		cancel()
	}()

	// The whole index is loaded before anything is linked. Without it no
	// file can be placed, so a broken index ends the run here.
	idx, err := inpx.Load(ctx, cfg.IndexPath)
	if err != nil {
		return err
	}
	log.Info("index loaded", logger.Data{"books": idx.Len(), "collection": idx.Collection()})

	wrkr := worker.New(cfg, resolver.New(idx, cfg.BookExtensions), linker.New(cfg.DestDir, cfg.Skip))
	wrkr.IndexSize = idx.Len()

	if watch {
		return wrkr.Watch(ctx)
	}

	_, err = wrkr.Run(ctx)
	if err != nil && ctx.Err() != nil {
		log.Info("run interrupted; rerun to pick up where it stopped")
		return nil
	}
	return err
}
