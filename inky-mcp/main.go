package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"inkyspace/internal/api"
	"inkyspace/internal/cli/config"
	"inkyspace/internal/client"
	"inkyspace/internal/mcptools"
)

var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// resolve picks the API url and session from INKY_API_URL and INKY_SESSION,
// falling back to the server saved by `inky connect` and `inky login`.
func resolve() (string, string, error) {
	baseURL := strings.TrimSpace(os.Getenv("INKY_API_URL"))
	session := strings.TrimSpace(os.Getenv("INKY_SESSION"))
	if baseURL == "" || session == "" {
		cfg, err := config.Load()
		if err != nil {
			return "", "", fmt.Errorf("load config: %w", err)
		}
		if srv, ok := cfg.Default(); ok {
			if baseURL == "" {
				baseURL = srv.URL
			}
			if session == "" && srv.URL == baseURL {
				session = srv.Session
			}
		}
	}
	if baseURL == "" {
		return "", "", errors.New("INKY_API_URL is required (or run `inky connect <url>`)")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return "", "", fmt.Errorf("invalid INKY_API_URL: %w", err)
	}
	return baseURL, session, nil
}

func run() error {
	baseURL, session, err := resolve()
	if err != nil {
		return err
	}
	hc, err := client.New(baseURL, client.WithTimeout(30*time.Second))
	if err != nil {
		return err
	}
	if session != "" {
		hc.SetSession(session)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := mcptools.NewServer(api.New(hc), version)
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
