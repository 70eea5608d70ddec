package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/homegrid-labs/mobile-gateway/internal/capability"
	"github.com/homegrid-labs/mobile-gateway/internal/config"
	"github.com/homegrid-labs/mobile-gateway/internal/mqtt"
	"github.com/homegrid-labs/mobile-gateway/internal/registry"
	"github.com/homegrid-labs/mobile-gateway/internal/server"
	"github.com/homegrid-labs/mobile-gateway/internal/service"
	sigbus "github.com/homegrid-labs/mobile-gateway/internal/signal"
	"github.com/homegrid-labs/mobile-gateway/internal/storage/bolt"
	"github.com/homegrid-labs/mobile-gateway/internal/webhook"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger, err := buildLogger(cfg.Log.Debug)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	store, err := bolt.New(cfg.Storage.Path)
	if err != nil {
		logger.Fatal("open store", zap.Error(err))
	}
	defer store.Close()

	reg := registry.New(store, logger)
	if err := reg.Restore(context.Background()); err != nil {
		logger.Fatal("restore registry", zap.Error(err))
	}

	bus := sigbus.New()

	dispatchCfg := webhook.Config{
		Registry:  reg,
		Bus:       bus,
		Templates: capability.NewTextRenderer(),
		Logger:    logger,
	}

	var mqttClient *mqtt.Client
	if cfg.MQTT.Enabled {
		mqttClient, err = mqtt.New(mqtt.Config{
			BrokerURL:      cfg.MQTT.BrokerURL,
			ClientID:       cfg.MQTT.ClientID,
			Username:       cfg.MQTT.Username,
			Password:       cfg.MQTT.Password,
			TopicPrefix:    cfg.MQTT.TopicPrefix,
			ConnectTimeout: cfg.MQTT.ConnectTimeout,
			PublishTimeout: cfg.MQTT.PublishTimeout,
		}, logger)
		if err != nil {
			logger.Fatal("connect mqtt broker", zap.Error(err))
		}
		defer mqttClient.Close()

		dispatchCfg.Services = &mqtt.ServiceCommander{Client: mqttClient}
		dispatchCfg.Events = &mqtt.EventPublisher{Client: mqttClient, Logger: logger}
		dispatchCfg.Tracker = &mqtt.LocationPublisher{Client: mqttClient}

		stopForwarding := mqtt.ForwardSensorUpdates(bus, mqttClient, logger)
		defer stopForwarding()
	}

	dispatcher := webhook.New(dispatchCfg)
	authSvc := service.NewAuthService(cfg)

	srv := server.New(cfg, reg, dispatcher, authSvc, nil, logger)

	go func() {
		if err := srv.Start(); err != nil {
			logger.Fatal("server stopped", zap.Error(err))
		}
	}()

	// graceful shutdown
	waitForSignal()
	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.WriteTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}

func buildLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func waitForSignal() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
}
