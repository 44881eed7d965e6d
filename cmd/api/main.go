package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/aptscope/aptscope-backend/internal/app"
	"github.com/aptscope/aptscope-backend/internal/observability"
	"github.com/aptscope/aptscope-backend/internal/platform/shutdown"
)

func main() {
	_ = godotenv.Load()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx, stop := shutdown.NotifyContext(context.Background())
	defer stop()

	otelShutdown := observability.InitOTel(ctx, application.Log, observability.OtelConfig{
		ServiceName: "aptscope",
		Environment: os.Getenv("APP_ENV"),
		Version:     os.Getenv("APP_VERSION"),
	})
	if otelShutdown != nil {
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(sctx)
		}()
	}

	application.Start()

	application.Log.Info("Server listening", "addr", application.Cfg.HTTPAddr)
	if err := application.RunContext(ctx); err != nil {
		fmt.Printf("server exited: %v\n", err)
		os.Exit(1)
	}
}
