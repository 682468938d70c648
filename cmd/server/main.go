/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the leave ledger server. Handles configuration,
  dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional), parse command-line flags
  2. Initialize SQLite store
  3. Load policy config and holiday calendar
  4. Create the leave service, API handler, and router
  5. Start the accrual scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080, env PORT)
  -db      SQLite database path (default: leave.db, env DB_PATH)
           Use ":memory:" for in-memory database
  -policy  JSON policy file; empty uses the built-in defaults
           (env POLICY_PATH)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the accrual scheduler
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database and a policy file
  ./server -db="./data/leave.db" -policy="./config/policy.json"

  # Run with in-memory database
  ./server -db=":memory:"

SEE ALSO:
  - api/server.go: Router configuration
  - factory/policy.go: Policy file loading
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/warp/leave-ledger/api"
	"github.com/warp/leave-ledger/calendar"
	"github.com/warp/leave-ledger/factory"
	"github.com/warp/leave-ledger/leave"
	"github.com/warp/leave-ledger/store/sqlite"
)

func main() {
	// .env is optional; flags and defaults cover the rest.
	_ = godotenv.Load()

	port := flag.Int("port", envInt("PORT", 8080), "HTTP server port")
	dbPath := flag.String("db", envStr("DB_PATH", "leave.db"), "SQLite database path")
	policyPath := flag.String("policy", envStr("POLICY_PATH", ""), "JSON policy file (empty: built-in defaults)")
	flag.Parse()

	// Initialize store
	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Policy config
	cfg := leave.DefaultPolicy()
	if *policyPath != "" {
		cfg, err = factory.LoadConfigFile(*policyPath)
		if err != nil {
			log.Fatalf("Failed to load policy file: %v", err)
		}
		log.Printf("Loaded policy from %s", *policyPath)
	}

	// Working calendar: weekend plus this year's and next year's holidays.
	ctx := context.Background()
	year := time.Now().Year()
	var holidays []calendar.Holiday
	for _, y := range []int{year, year + 1} {
		hs, err := store.ListHolidays(ctx, y)
		if err != nil {
			log.Fatalf("Failed to load holidays: %v", err)
		}
		holidays = append(holidays, hs...)
	}
	cal := calendar.New(calendar.DefaultWeekend(), holidays)

	// Service and HTTP surface
	svc := leave.NewService(store, cfg, cal)
	handler := api.NewHandler(svc, store, cfg)
	router := api.NewRouter(handler)

	// Accrual scheduler
	scheduler := api.NewAccrualScheduler(svc)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
