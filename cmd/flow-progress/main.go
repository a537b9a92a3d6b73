package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"flowprogress/cmd/flow-progress/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := commands.ExecuteContext(ctx)
	stop()
	os.Exit(code)
}
