package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bryanmaina/wikipedia-scraper/cmd/harvester/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := commands.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
