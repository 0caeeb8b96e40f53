package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/devsum/internal/config"
	"github.com/danmuck/devsum/internal/tasks"
)

func main() {
	env, err := tasks.NewEnv(config.Manifest{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "devsum: %v\n", err)
		os.Exit(1)
	}
	root, err := newRootCommand(env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "devsum: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "devsum: %v\n", err)
		stop()
		os.Exit(1)
	}
}
