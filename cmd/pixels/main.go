package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/pixels/internal/buildinfo"
	"github.com/dmitrijs2005/pixels/internal/cli"
	"github.com/dmitrijs2005/pixels/internal/config"
	"github.com/dmitrijs2005/pixels/internal/flagx"
	"github.com/dmitrijs2005/pixels/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	cmd := flagx.Positionals(args, config.ValueFlags()...)
	if len(cmd) > 0 && cmd[0] == "version" {
		buildinfo.PrintBuildData(os.Stdout)
		return nil
	}

	cfg, err := config.LoadConfig(args)
	if err != nil {
		return err
	}
	log := logging.New(os.Stderr, cfg.LogLevel)

	app, err := cli.NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	if err := app.Run(ctx, cmd); err != nil {
		log.Error(ctx, "command failed", "command", cmd, "error", err)
		return err
	}
	return nil
}
