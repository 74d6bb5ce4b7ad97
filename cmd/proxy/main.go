// Command proxy runs the Anthropic-to-OpenAI protocol translation gateway.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/relaybridge/anthropic-openai-proxy/internal/breaker"
	"github.com/relaybridge/anthropic-openai-proxy/internal/catalog"
	"github.com/relaybridge/anthropic-openai-proxy/internal/config"
	"github.com/relaybridge/anthropic-openai-proxy/internal/server"
)

var (
	version   = "dev"
	gitCommit = "unknown"

	configFile string
	verbose    bool
	logFile    string
)

var rootCmd = &cobra.Command{
	Use:   "proxy",
	Short: "Anthropic-to-OpenAI protocol translation gateway",
	Long: `proxy accepts Anthropic Messages API requests and forwards them to an
OpenAI Chat-Completions-speaking backend, translating the streaming response
back into Anthropic-style SSE events.`,
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "optional YAML configuration overlay")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose (debug-level) logging")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "write logs to this file with rotation (default: stderr)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("proxy %s (%s)\n", version, gitCommit)
		},
	})
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	log := newLogger()

	cfg := config.FromEnv()
	cfg, err := config.LoadYAMLOverlay(cfg, configFile)
	if err != nil {
		log.WithError(err).Error("failed to load configuration overlay")
		return err
	}
	if verbose {
		cfg.Verbose = true
		log.SetLevel(logrus.DebugLevel)
	}

	br := breaker.New(cfg.EnableCircuitBreaker)
	cat := catalog.New(cfg.BackendURL, nil, log)

	bgCtx, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()

	if err := cat.Refresh(bgCtx); err != nil {
		log.WithError(err).Warn("initial model catalog load failed, continuing with empty catalog")
	}
	cat.StartBackgroundRefresh(bgCtx)

	srv := server.New(cfg, br, cat, nil, log)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.HostPort),
		Handler: srv.Router(),
	}

	serverErr := make(chan error, 1)
	go func() {
		log.WithField("port", cfg.HostPort).Info("proxy listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.WithError(err).Error("server stopped unexpectedly")
		return err
	case <-sigChan:
		log.Info("received shutdown signal, stopping server")
	}

	cancelBg()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("error during graceful shutdown")
		return err
	}
	return nil
}

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if logFile != "" {
		log.SetOutput(&lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     28,
			Compress:   true,
		})
	}
	return log
}
