package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	mongooptions "go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"rradiant-backend/handlers"
	"rradiant-backend/internal/auth"
	"rradiant-backend/internal/lifecycle"
	"rradiant-backend/internal/metrics"
	"rradiant-backend/internal/orders"
	"rradiant-backend/internal/payment"
	"rradiant-backend/internal/products"
	"rradiant-backend/internal/shiprocket"
	"rradiant-backend/internal/stores/kafka"
	"rradiant-backend/internal/users"
	"rradiant-backend/pkg/logkey"
)

func main() {
	setupSlog()

	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment")
	}

	if err := startApp(); err != nil {
		slog.Error("startup failed", slog.String(logkey.Error, err.Error()))
		os.Exit(1)
	}
}

func setupSlog() {
	logHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		AddSource: true,
	})
	slog.SetDefault(slog.New(logHandler))
}

func startApp() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoURI := getEnv("MONGODB_URI", "mongodb://localhost:27017")
	client, err := mongo.Connect(ctx, mongooptions.Client().ApplyURI(mongoURI))
	if err != nil {
		return err
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			slog.Error("mongo disconnect failed", slog.String(logkey.Error, err.Error()))
		}
	}()
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return err
	}
	db := client.Database(getEnv("MONGODB_DATABASE", "rradiant"))

	orderConf, err := orders.NewConf(db)
	if err != nil {
		return err
	}
	productConf, err := products.NewConf(db)
	if err != nil {
		return err
	}
	userConf, err := users.NewConf(db)
	if err != nil {
		return err
	}

	gateway, err := payment.NewConf(os.Getenv("RAZORPAY_KEY_ID"), os.Getenv("RAZORPAY_KEY_SECRET"))
	if err != nil {
		return err
	}

	partner, err := shiprocket.NewClient(shiprocket.Config{
		BaseURL:  os.Getenv("SHIPROCKET_BASE_URL"),
		Email:    os.Getenv("SHIPROCKET_EMAIL"),
		Password: os.Getenv("SHIPROCKET_PASSWORD"),
	})
	if err != nil {
		return err
	}

	// Kafka is optional; without brokers the orchestrator simply skips
	// event publication.
	var events lifecycle.EventProducer
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		kafkaConf, err := kafka.NewConf(brokers)
		if err != nil {
			return err
		}
		defer kafkaConf.Close()
		events = kafkaConf
	} else {
		slog.Warn("KAFKA_BROKERS not set, order events disabled")
	}

	authKeys, err := auth.NewKeys(os.Getenv("JWT_SECRET"))
	if err != nil {
		return err
	}

	metrics.Register()

	orch := lifecycle.NewOrchestrator(orderConf, productConf, gateway, partner, events)
	router := handlers.API(orch, orderConf, productConf, userConf, partner, authKeys)

	port := getEnv("PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", slog.String("port", port))
		serverErr <- server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return err
	case sig := <-shutdown:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				return closeErr
			}
			return err
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
