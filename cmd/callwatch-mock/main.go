package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/voicedesk/callwatch/internal/mockapi"
)

func main() {
	os.Exit(run())
}

func run() int {
	addr := flag.String("addr", "127.0.0.1:5001", "listen address")
	user := flag.String("user", mockapi.DefaultUsername, "basic auth username")
	password := flag.String("password", mockapi.DefaultPassword, "basic auth password")
	verbose := flag.Bool("v", false, "log every request")
	flag.Parse()

	cfg := zap.NewProductionConfig()
	if *verbose {
		cfg = zap.NewDevelopmentConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "callwatch-mock: init logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	srv := mockapi.New(
		mockapi.WithCredentials(*user, *password),
		mockapi.WithLogger(logger),
	)
	if err := srv.ListenAndServe(ctx, *addr); err != nil {
		logger.Error("mock backend stopped", zap.Error(err))
		return 1
	}
	return 0
}
