package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/parlorchat/parlor/server/adaptor"
	"github.com/parlorchat/parlor/server/domain"
	"github.com/parlorchat/parlor/server/repository"
	"github.com/parlorchat/parlor/server/usecase"
)

const (
	listenAddrKey = "listen_addr"
	dbPathKey     = "db_path"
)

var rootCmd = &cobra.Command{
	Use:   "parlord",
	Short: "Chatroom presence and broadcast server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().String("listen", ":8080", "HTTP listen address")
	rootCmd.Flags().String("db", "./parlor.db", "sqlite database path")
	_ = viper.BindPFlag(listenAddrKey, rootCmd.Flags().Lookup("listen"))
	_ = viper.BindPFlag(dbPathKey, rootCmd.Flags().Lookup("db"))
	viper.SetEnvPrefix("parlor")
	viper.AutomaticEnv()
}

func run() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	db, err := sql.Open("sqlite3", viper.GetString(dbPathKey))
	if err != nil {
		return err
	}
	defer db.Close()
	if err := repository.Setup(db); err != nil {
		return err
	}

	repo := repository.NewRepository(db)
	router := domain.NewRouter(logger)
	coordinator := usecase.NewCoordinator(repo, router, logger)
	chat := usecase.NewChatUsecase(repo, router, logger)
	ad := adaptor.NewAdaptor(chat, coordinator, router, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := coordinator.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("coordinator stopped", "error", err)
		}
	}()

	server := &http.Server{
		Addr:         viper.GetString(listenAddrKey),
		Handler:      ad.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
