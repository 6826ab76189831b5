// Package main provides the entry point for the vidgrab service.
// @title vidgrab API
// @version 1.0
// @description Probe public video URLs, list their formats and download the selected one.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/denisAlshanov/vidgrab/docs" // Import for swagger docs
	"github.com/denisAlshanov/vidgrab/internal/api/handlers"
	"github.com/denisAlshanov/vidgrab/internal/api/router"
	"github.com/denisAlshanov/vidgrab/internal/config"
	"github.com/denisAlshanov/vidgrab/internal/services/downloader"
	"github.com/denisAlshanov/vidgrab/internal/services/extractor"
	"github.com/denisAlshanov/vidgrab/internal/services/storage"
	"github.com/denisAlshanov/vidgrab/internal/services/transcoder"
	"github.com/denisAlshanov/vidgrab/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := utils.GetLogger()
	logger.Info("Starting vidgrab service")

	ctx := context.Background()

	// Leftovers from a previous crash are older than any live request
	staleAfter := cfg.Extractor.FetchTimeout + cfg.Transcode.Timeout
	if removed, err := downloader.SweepStaleWorkspaces(ctx, cfg.Download.TempDir, staleAfter); err != nil {
		logger.Warnf("Failed to sweep temp directory: %v", err)
	} else if removed > 0 {
		logger.Infof("Removed %d stale workspaces from %s", removed, cfg.Download.TempDir)
	}

	ext, err := extractor.New(&cfg.Extractor)
	if err != nil {
		logger.Fatalf("Failed to initialize extractor: %v", err)
	}

	ffmpeg := transcoder.NewFFmpeg(&cfg.Transcode)
	if err := ffmpeg.Available(); err != nil {
		logger.Warnf("ffmpeg not available, muxing and MP3 conversion will fail: %v", err)
	}

	downloaderService, err := downloader.NewDownloader(ext, ffmpeg, cfg)
	if err != nil {
		logger.Fatalf("Failed to initialize downloader: %v", err)
	}

	// Initialize S3 storage (optional)
	s3Storage, err := storage.NewStorage(&cfg.S3)
	if err != nil {
		logger.Fatalf("Failed to initialize storage: %v", err)
	}

	ytdlpBinary := cfg.Extractor.YTDLPPath
	if ytdlpBinary == "" {
		ytdlpBinary = "yt-dlp"
	}
	checks := map[string]handlers.CheckFunc{
		"yt-dlp": handlers.BinaryCheck(ytdlpBinary),
		"ffmpeg": handlers.BinaryCheck(cfg.Transcode.FFmpegPath),
	}
	if s3Storage != nil {
		checks["s3"] = s3Storage.Ping
	}

	// Initialize handlers
	mediaHandler := handlers.NewMediaHandler(downloaderService, s3Storage, cfg.Download.LinkExpiry)
	healthHandler := handlers.NewHealthHandler(checks)
	infoHandler := handlers.NewInfoHandler(s3Storage != nil)

	// Initialize router
	r := router.NewRouter(cfg, mediaHandler, healthHandler, infoHandler, s3Storage != nil)

	// Start server
	go func() {
		logger.Infof("Starting server on %s:%s", cfg.Server.Host, cfg.Server.Port)
		if err := r.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a deadline for shutdown
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := r.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Failed to shut down server: %v", err)
	}

	logger.Info("Server shutdown complete")
}
