package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"log/slog"

	"github.com/spf13/cobra"
	"github.com/wingmanlabs/wingman/internal/app"
	"github.com/wingmanlabs/wingman/internal/config"
	"github.com/wingmanlabs/wingman/internal/logging"
	"github.com/wingmanlabs/wingman/internal/pubsub"
	"github.com/wingmanlabs/wingman/internal/status"
	"github.com/wingmanlabs/wingman/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "wingman",
	Short: "An editor sidecar for AI code completions",
	Long: `Wingman bridges a host editor to a background completion language
server. It spawns the server, performs the sign-in handshake, and brokers
completion requests and streamed panel results on the editor's behalf.
Run standalone it keeps the server warm and reports status to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flag("help").Changed {
			cmd.Help()
			return nil
		}
		if cmd.Flag("version").Changed {
			fmt.Println(version.Version)
			return nil
		}

		// Setup logging
		if err := logging.InitService(); err != nil {
			return err
		}
		if err := status.InitService(); err != nil {
			return err
		}
		logger := slog.New(slog.NewTextHandler(logging.NewSlogWriter(), nil))
		slog.SetDefault(logger)

		// Load the config
		debug, _ := cmd.Flags().GetBool("debug")
		cwd, _ := cmd.Flags().GetString("cwd")
		if cwd != "" {
			err := os.Chdir(cwd)
			if err != nil {
				return fmt.Errorf("failed to change directory: %v", err)
			}
		}
		if cwd == "" {
			c, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get current working directory: %v", err)
			}
			cwd = c
		}
		cfg, err := config.Load(cwd, debug)
		if err != nil {
			return err
		}
		config.Watch()

		if server, _ := cmd.Flags().GetStringSlice("server"); len(server) > 0 {
			cfg.Server.Command = server
		}

		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		renderer := &stderrRenderer{}
		application, err := app.New(ctx, renderer, renderer)
		if err != nil {
			slog.Error("Failed to create app", "error", err)
			return err
		}

		// Send status and log events to stderr until shutdown.
		cancelSubs := setupSubscriptions(ctx)

		if err := application.Start(ctx); err != nil {
			cancelSubs()
			return err
		}

		<-ctx.Done()
		slog.Info("Shutting down")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := application.Shutdown(shutdownCtx); err != nil {
			slog.Warn("Language server shutdown failed", "error", err)
		}
		cancelSubs()
		status.Shutdown()
		return nil
	},
}

func setupSubscriber[T any](
	ctx context.Context,
	wg *sync.WaitGroup,
	name string,
	subscriber func(context.Context) <-chan pubsub.Event[T],
	print func(T),
) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer logging.RecoverPanic(fmt.Sprintf("subscription-%s", name), nil)

		subCh := subscriber(ctx)
		for {
			select {
			case event, ok := <-subCh:
				if !ok {
					return
				}
				print(event.Payload)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func setupSubscriptions(parentCtx context.Context) func() {
	wg := sync.WaitGroup{}
	ctx, cancel := context.WithCancel(parentCtx)

	setupSubscriber(ctx, &wg, "status", status.Subscribe, func(msg status.Message) {
		fmt.Fprintf(os.Stderr, "[%s] %s\n", msg.Level, msg.Message)
	})
	setupSubscriber(ctx, &wg, "logging", logging.Subscribe, func(log logging.Log) {
		fmt.Fprintf(os.Stderr, "%s %s %s\n",
			log.Timestamp.Format(time.RFC3339), log.Level, log.Message)
	})

	return func() {
		cancel()

		waitCh := make(chan struct{})
		go func() {
			defer logging.RecoverPanic("subscription-cleanup", nil)
			wg.Wait()
			close(waitCh)
		}()

		select {
		case <-waitCh:
		case <-time.After(5 * time.Second):
			slog.Warn("Timed out waiting for subscription goroutines to complete")
		}
	}
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().BoolP("version", "v", false, "Version")
	rootCmd.Flags().BoolP("debug", "d", false, "Debug")
	rootCmd.Flags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.Flags().StringSlice("server", nil, "Language server command, overrides server.command from config (comma-separated argv)")
}
