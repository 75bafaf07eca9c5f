package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"messagewall/cmd/app"
	"messagewall/internal/config"
)

func main() {
	log.SetPrefix("[messagewall] ")

	// setting up config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Ошибка конфигурации: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Не удалось запустить приложение: %v", err)
	}
	defer application.Close()

	go application.Listener.Run(ctx)
	go application.Hub.Run(ctx)
	application.Board.Start(ctx)

	addr := fmt.Sprintf(":%d", cfg.ServerPort)
	server := &http.Server{
		Addr:              addr,
		Handler:           application.Handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		// Starting the server
		log.Printf("Сервер запущен на %s", addr)
		log.Printf("База данных: %s", cfg.DB.DbNAME)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Ошибка запуска сервера: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Останавливаем сервер...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Ошибка остановки сервера: %v", err)
	}
}
