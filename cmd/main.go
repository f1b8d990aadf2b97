package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/knograph/knograph-backend/internal/app"
)

func main() {
	ctx := context.Background()

	a, err := app.New(ctx)
	if err != nil {
		fmt.Printf("Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		a.Close(shutdownCtx)
	}()

	if err := a.Run(); err != nil {
		a.Log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
