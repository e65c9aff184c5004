package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := BuildCLI().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "celestium: %s\n", err)
		stop()
		os.Exit(1)
	}
}
