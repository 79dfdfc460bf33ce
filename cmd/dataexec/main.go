// Package main provides the entry point for the dataexec command.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/txn2/dataexec/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return cli.Execute(ctx)
}
