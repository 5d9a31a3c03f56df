package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"inkyspace/internal/client"
	"inkyspace/internal/gateway"
	"inkyspace/internal/logutils"
	"inkyspace/internal/serverconfig"
)

func main() {
	log := logutils.Log

	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		addr       = flag.String("addr", "", "HTTP listen address (overrides config)")
		apiURL     = flag.String("api", "", "InkySpace API base URL (overrides config)")
	)
	flag.Parse()

	cfg, err := serverconfig.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logutils.Configure(cfg.LogLevel, cfg.LogFormat)
	if *addr != "" {
		cfg.Web.Addr = *addr
	}
	if *apiURL != "" {
		cfg.Web.APIURL = *apiURL
	}

	var uploader *client.Uploader
	if cfg.Web.UploadURL != "" {
		uploader = client.NewUploader(cfg.Web.UploadURL, cfg.Web.UploadPreset)
	}
	gw, err := gateway.New(gateway.Options{
		APIURL:        cfg.Web.APIURL,
		APITimeout:    cfg.Web.APITimeout,
		CORSOrigins:   cfg.Web.CORSOrigins,
		Logger:        log,
		SecureCookies: cfg.Environment == "production",
		Uploader:      uploader,
	})
	if err != nil {
		log.Fatalf("build gateway: %v", err)
	}

	server := &http.Server{
		Addr:        cfg.Web.Addr,
		Handler:     gw.Router(),
		ReadTimeout: cfg.Web.ReadTimeout,
		IdleTimeout: 60 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.WithError(err).Error("graceful shutdown failed")
		}
	}()

	log.WithFields(logutils.Fields{"addr": server.Addr, "api": cfg.Web.APIURL, "env": cfg.Environment}).
		Info("inky-web listening")
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
	<-shutdownDone
	log.Info("inky-web stopped")
}
