package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"trendflow/internal/cli"
	"trendflow/internal/platform/config"
	perr "trendflow/internal/platform/errors"
	"trendflow/internal/platform/logger"
)

func main() {
	if err := config.LoadDotenv(); err != nil {
		logger.Get().Panic().Err(err).Msg("load .env failed")
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	b := cli.NewBackend(config.New(), logger.Named("cli"))
	err := cli.New(b.Env()).ExecuteContext(ctx)
	_ = b.Close(context.Background())
	stop()
	if err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		if perr.IsCode(err, perr.ErrorCodeInvalidArgument) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
