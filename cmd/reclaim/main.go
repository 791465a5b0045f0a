package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"flag"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/reclaimhq/reclaim/internal/ai"
	"github.com/reclaimhq/reclaim/internal/api"
	"github.com/reclaimhq/reclaim/internal/chat"
	"github.com/reclaimhq/reclaim/internal/config"
	"github.com/reclaimhq/reclaim/internal/db"
	"github.com/reclaimhq/reclaim/internal/queue"
	"github.com/reclaimhq/reclaim/internal/store"
)

func main() {
	fs := flag.NewFlagSet("reclaim", flag.ContinueOnError)

	var configPath string
	fs.StringVar(&configPath, "config", "", "")
	fs.StringVar(&configPath, "c", "", "")

	var dbPath string
	fs.StringVar(&dbPath, "db", "", "")
	fs.StringVar(&dbPath, "d", "", "")

	var addr string
	fs.StringVar(&addr, "addr", "", "")
	fs.StringVar(&addr, "a", "", "")

	var adminUser string
	fs.StringVar(&adminUser, "user", "Admin", "")
	fs.StringVar(&adminUser, "u", "Admin", "")

	fs.Usage = func() {
		fmt.Fprint(os.Stdout, `Usage: reclaim [flags]

Flags:
  -c, -config <path>      YAML config file (default: none, env and flags only)
  -d, -db <path>          SQLite database path (default: reclaim.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: Admin)
  -h, -help               show this help and exit
`)
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected argument: %s\n", fs.Arg(0))
		fs.Usage()
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})))
	log := slog.Default()

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Flags win over config file and environment.
	if dbPath != "" {
		cfg.Server.DBPath = dbPath
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}

	if cfg.Server.JWTSecret == "" {
		// Sessions will not survive a restart without a configured secret.
		secret := make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			log.Error("failed to generate JWT secret", "error", err)
			os.Exit(1)
		}
		cfg.Server.JWTSecret = hex.EncodeToString(secret)
		log.Warn("no JWT secret configured, generated an ephemeral one")
	}

	// Check if DB exists, auto-init if not.
	if _, err := os.Stat(cfg.Server.DBPath); os.IsNotExist(err) {
		database, password, err := initDatabase(cfg.Server.DBPath, adminUser)
		if err != nil {
			log.Error("failed to initialize database", "error", err)
			os.Exit(1)
		}
		database.Close()

		printInitResult(cfg.Server.DBPath, adminUser, password)
		fmt.Println()
	}

	database, err := db.Open(cfg.Server.DBPath)
	if err != nil {
		log.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := db.EnsureSchema(database); err != nil {
		log.Error("failed to ensure database schema", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(database); err != nil {
		log.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	log.Info("database ready", "path", cfg.Server.DBPath)

	// Flush submissions queued while the service was unreachable.
	if flushed, err := queue.Flush(context.Background(), database, log); err != nil {
		log.Warn("startup queue flush failed", "error", err)
	} else if flushed > 0 {
		log.Info("flushed queued submissions", "count", flushed)
	}

	var genOpts []ai.GeminiOption
	if cfg.AI.Model != "" {
		genOpts = append(genOpts, ai.WithModel(cfg.AI.Model))
	}
	if cfg.AI.BaseURL != "" {
		genOpts = append(genOpts, ai.WithBaseURL(cfg.AI.BaseURL))
	}
	gen := ai.NewGeminiClient(cfg.AI.APIKey, genOpts...)
	if cfg.AI.APIKey == "" {
		log.Warn("no AI API key configured, matching and analysis are disabled")
	}

	hub := chat.NewHub()

	handler := api.LoggingMiddleware(api.NewRouter(database, cfg.Server.JWTSecret, gen, hub, log))

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		log.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			log.Error("server forced to shutdown", "error", err)
		}
	}()

	log.Info("server started", "addr", cfg.Server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}

	log.Info("server stopped, closing database")
}

// initDatabase creates a new database, ensures the schema, and creates the admin user.
func initDatabase(path, adminUsername string) (*sql.DB, string, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening database: %w", err)
	}

	if err := db.EnsureSchema(database); err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("ensuring schema: %w", err)
	}

	password, err := generatePassword(16)
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("generating password: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("hashing password: %w", err)
	}

	ctx := context.Background()
	if _, err := store.CreateUser(ctx, database, adminUsername, string(hash), "admin"); err != nil {
		database.Close()
		os.Remove(path)
		return nil, "", fmt.Errorf("creating admin user: %w", err)
	}

	return database, password, nil
}

// printInitResult prints the database initialization result to stdout.
func printInitResult(dbPath, username, password string) {
	fmt.Printf("Database created: %s\n", dbPath)
	fmt.Println("Schema initialized.")
	fmt.Println()
	fmt.Println("Admin account created:")
	fmt.Printf("  Username: %s\n", username)
	fmt.Printf("  Password: %s\n", password)
	fmt.Println()
	fmt.Println("Save this password — it cannot be recovered.")
	fmt.Println("The admin can change it after logging in.")
}

// generatePassword creates a random password of the given length.
func generatePassword(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%&*"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
