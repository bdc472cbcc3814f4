package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load() // best-effort: HF_TOKEN and CAPTIONSYNC_* may live in .env

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand()
	err := cmd.ExecuteContext(ctx)
	code := exitCode(err)
	if err != nil && !errors.Is(err, context.Canceled) && !isSilent(err) {
		fmt.Fprintln(os.Stderr, err)
	}
	stop()
	os.Exit(code)
}
