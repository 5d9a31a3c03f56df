package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"inkyspace/internal/auth"
	"inkyspace/internal/db"
	"inkyspace/internal/devapi"
	"inkyspace/internal/logutils"
	"inkyspace/internal/models"
	"inkyspace/internal/serverconfig"
)

const serverVersion = "0.1.0-dev"

const sessionSecretKey = "session_secret"

func main() {
	log := logutils.Log
	if len(os.Args) > 1 && os.Args[1] == "user" {
		if err := runCreateUser(os.Args[2:]); err != nil {
			log.Fatalf("create user failed: %v", err)
		}
		return
	}

	var (
		configPath = flag.String("config", "", "path to a YAML config file")
		addr       = flag.String("addr", "", "HTTP listen address (overrides config)")
		dbPath     = flag.String("db", "", "path to SQLite database (overrides config)")
	)
	flag.Parse()

	cfg, err := serverconfig.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logutils.Configure(cfg.LogLevel, cfg.LogFormat)
	if *addr != "" {
		cfg.DevAPI.Addr = *addr
	}
	if *dbPath != "" {
		cfg.DevAPI.DBPath = *dbPath
	}

	ctx := context.Background()
	database, err := db.Init(ctx, cfg.DevAPI.DBPath)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer database.Close()

	secret, err := sessionSecret(ctx, database, cfg.DevAPI.SessionSecret)
	if err != nil {
		log.Fatalf("session secret: %v", err)
	}

	api := devapi.New(database, devapi.Options{
		Version:     serverVersion,
		Sessions:    auth.NewSessions(secret, cfg.DevAPI.SessionTTL),
		Logger:      log,
		CORSOrigins: cfg.DevAPI.CORSOrigins,
		LoginLimit:  cfg.DevAPI.LoginLimit,
		LoginWindow: cfg.DevAPI.LoginWindow,
	})

	server := &http.Server{
		Addr:        cfg.DevAPI.Addr,
		Handler:     api.Router(),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		<-sigCh

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.WithError(err).Error("graceful shutdown failed")
		}
	}()

	log.WithFields(logutils.Fields{"addr": server.Addr, "db": cfg.DevAPI.DBPath, "version": serverVersion}).
		Info("inky-devserver listening")
	err = server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalf("server error: %v", err)
	}
	<-shutdownDone
	log.Info("inky-devserver stopped")
}

// sessionSecret returns the configured secret, or the one persisted in the
// database, creating it on first start so sessions survive restarts.
func sessionSecret(ctx context.Context, database *sql.DB, configured string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	return db.EnsureSetting(ctx, database, sessionSecretKey, func() (string, error) {
		return auth.GenerateToken("")
	})
}

// runCreateUser adds a verified, onboarded account. Admins can only be
// created this way.
func runCreateUser(args []string) error {
	fs := flag.NewFlagSet("user", flag.ContinueOnError)
	dbPath := fs.String("db", "./inky.db", "path to SQLite database")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "login email")
	password := fs.String("password", "", "password (at least 8 characters)")
	role := fs.String("role", "A", "role letter: U, O or A")
	if err := fs.Parse(args); err != nil {
		return err
	}
	r := models.Role(strings.ToUpper(strings.TrimSpace(*role)))
	if r != models.RoleReader && r != models.RoleOwner && r != models.RoleAdmin {
		return fmt.Errorf("unsupported role %q", *role)
	}
	if strings.TrimSpace(*email) == "" || strings.TrimSpace(*name) == "" {
		return errors.New("missing --name or --email")
	}
	hash, err := auth.HashPassword(*password)
	if err != nil {
		return err
	}

	ctx := context.Background()
	database, err := db.Init(ctx, *dbPath)
	if err != nil {
		return err
	}
	defer database.Close()

	user, err := db.CreateUser(ctx, database, db.NewUser{
		Name:         *name,
		Email:        *email,
		PasswordHash: hash,
		Role:         r,
		Verified:     true,
	})
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	if err := db.CompleteOnboarding(ctx, database, user.UserID); err != nil {
		return err
	}
	logutils.Log.WithFields(logutils.Fields{"user": user.UserID, "role": r.String()}).Info("user created")
	return nil
}
