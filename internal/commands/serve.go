package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
)

const shutdownTimeout = 10 * time.Second

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(quit)
		select {
		case <-quit:
			log.Println("Shutdown signal received")
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// serve runs app on addr until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, name string, app *fiber.App, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("Starting %s on %s", name, addr)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("%s server failed: %w", name, err)
	case <-ctx.Done():
	}

	log.Printf("Shutting down %s...", name)
	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Printf("Error during %s shutdown: %v", name, err)
	}
	log.Printf("%s gracefully stopped", name)
	return nil
}
