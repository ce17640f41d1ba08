package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/mediaxfer/internal/client/cli"
	"github.com/dmitrijs2005/mediaxfer/internal/client/media"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		code := 1
		if errors.Is(err, media.ErrTimeout) {
			code = 2
		}
		stop()
		os.Exit(code)
	}
}
