package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/nixxel-company-limited/escpos-http-bridge/adapter"
	"github.com/nixxel-company-limited/escpos-http-bridge/config"
	"github.com/nixxel-company-limited/escpos-http-bridge/logger"
	"github.com/nixxel-company-limited/escpos-http-bridge/printer"
	"github.com/nixxel-company-limited/escpos-http-bridge/server"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// The configured logger is not known yet; report with the defaults
		boot, lerr := logger.New(logger.DefaultConfig())
		if lerr != nil {
			fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}
		boot.Fatal("Failed to load config", zap.Error(err))
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
		Output: cfg.LogOutput,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	gin.SetMode(cfg.GinMode)

	registry := printer.NewRegistry(printer.DriverOptions{
		USB: adapter.USBOptions{
			VendorID:  cfg.USBVendorID,
			ProductID: cfg.USBProductID,
			Serial:    cfg.USBSerial,
		},
		BluetoothChannel: cfg.BluetoothChannel,
	}, log.Named("adapter"))

	manager := printer.NewManager(registry,
		printer.WithTimeout(cfg.PrintTimeout),
		printer.WithLogger(log.Named("printer")),
	)

	validator := printer.NewValidator(printer.Defaults{
		Address: cfg.DefaultAddress,
		Port:    cfg.DefaultPort,
	})

	svr := server.New(manager, validator, cfg.ServerAddress, log.Named("server"))
	if err := svr.StartAsync(); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
	log.Info("Server is running",
		zap.String("url", "http://"+svr.ListenAddr().String()),
		zap.Duration("print_timeout", manager.Timeout()),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if err := svr.Stop(); err != nil {
		log.Error("Error during shutdown", zap.Error(err))
	}
}
