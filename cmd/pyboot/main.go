package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/matzehuels/pyboot/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	// PYBOOT_* settings may come from a .env file in the working directory.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := cli.New(os.Stderr, cli.LogInfo).Execute(ctx, os.Args[1:])
	cli.ReportError(os.Stderr, err)
	return cli.ExitCode(err)
}
