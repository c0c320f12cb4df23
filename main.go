package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"minpdf/api"
	"minpdf/config"
	"minpdf/logger"
	"minpdf/pdf"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(logger.OptionsFrom("minpdf", cfg)); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logging: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	page, err := pdf.LookupPageSize(cfg.Scan.PageSize)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid PAGE_SIZE")
	}

	apiConfig := &api.Config{
		MaxFileSize: cfg.Server.MaxFileSize,
		UploadDir:   cfg.Server.UploadDir,
		ImagePage: pdf.ImagePageOptions{
			DPI:       cfg.Scan.DPI,
			Reduction: cfg.Scan.Reduction,
			Page:      page,
			Quality:   cfg.Scan.JPEGQuality,
		},
		Reencode: pdf.ReencodeOptions{
			Quality: cfg.Scan.JPEGQuality,
			Page:    page,
		},
		Optimize: cfg.Scan.Optimize,
	}

	if !cfg.Logging.Pretty {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.MaxMultipartMemory = cfg.Server.MaxFileSize

	// API routes with config
	api.SetupRoutes(r, apiConfig)

	// Create HTTP server with timeout settings
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in a goroutine
	go func() {
		log.Info().
			Str("addr", srv.Addr).
			Int64("max_file_size", cfg.Server.MaxFileSize).
			Str("upload_dir", cfg.Server.UploadDir).
			Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server exited gracefully")
}
