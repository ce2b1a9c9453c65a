package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/casconsole/internal/buildinfo"
	"github.com/dmitrijs2005/casconsole/internal/client/cli"
	"github.com/dmitrijs2005/casconsole/internal/client/config"
	"github.com/dmitrijs2005/casconsole/internal/logging"
)

func main() {

	buildinfo.PrintBuildData(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	logger := logging.NewDefault(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	app, cleanup, err := cli.NewApp(ctx, cfg, logger, os.Stdin, os.Stdout)
	if err != nil {
		log.Fatalf("%v", err)
	}
	defer cleanup()

	app.Run(ctx)
}
