package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/quietpost/quietpost/internal/action"
	"github.com/quietpost/quietpost/internal/admission"
	"github.com/quietpost/quietpost/internal/blocklist"
	blredis "github.com/quietpost/quietpost/internal/blocklist/redis"
	"github.com/quietpost/quietpost/internal/ledger"
	"github.com/quietpost/quietpost/internal/metrics"
	"github.com/quietpost/quietpost/internal/notify"
	"github.com/quietpost/quietpost/internal/ratelimit"
	rlmemory "github.com/quietpost/quietpost/internal/ratelimit/memory"
	rlredis "github.com/quietpost/quietpost/internal/ratelimit/redis"
	"github.com/quietpost/quietpost/internal/relay"
	"github.com/quietpost/quietpost/internal/server"
	"github.com/quietpost/quietpost/internal/transport/console"
)

// from -> https://www.gmarik.info/blog/2019/12-factor-golang-flag-package/
func LookupEnvOrString(key string, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

func LookupEnvOrInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		v, err := strconv.Atoi(val)
		if err != nil {
			log.Fatalf("LookupEnvOrInt[%s]: %v", key, err)
		}
		return v
	}
	return defaultVal
}

func LookupEnvOrBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		v, err := strconv.ParseBool(val)
		if err != nil {
			log.Fatalf("LookupEnvOrBool[%s]: %v", key, err)
		}
		return v
	}
	return defaultVal
}

var debug = flag.Bool("debug", LookupEnvOrBool("DEBUG", false), "Enable debug logging")
var apiAddr = flag.String("api-addr", LookupEnvOrString("API_ADDR", ":8322"), "Ops API address to listen to")

var adminID = flag.Int("admin-id", LookupEnvOrInt("QUIETPOST_ADMIN_ID", 0), "Sender ID of the administrator receiving forwarded feedback")
var dataDir = flag.String("data-dir", LookupEnvOrString("QUIETPOST_DATA_DIR", "data"), "Directory holding the ledger and block list files")

var redisHost = flag.String("redis-host", LookupEnvOrString("REDIS_HOST", ""), "Redis host")
var redisPort = flag.String("redis-port", LookupEnvOrString("REDIS_PORT", "6379"), "Redis port")
var redisPassword = flag.String("redis-password", LookupEnvOrString("REDIS_PASSWORD", ""), "Redis password")
var redisDB = flag.String("redis-db", LookupEnvOrString("REDIS_DB", "0"), "Redis database number")

var sendRateAmount = flag.Int("send-rate-amount", LookupEnvOrInt("SEND_RATE_AMOUNT", 0), "Outbound send rate (amount, 0 disables)")
var sendRatePer = flag.Int("send-rate-per", LookupEnvOrInt("SEND_RATE_PER", 0), "Outbound send rate (per seconds)")

var emailHost = flag.String("email-host", LookupEnvOrString("EMAIL_HOST", ""), "SMTP host for feedback email copies (optional)")
var emailPort = flag.Int("email-port", LookupEnvOrInt("EMAIL_PORT", 25), "SMTP port")
var emailFrom = flag.String("email-from", LookupEnvOrString("EMAIL_FROM", ""), "From address for feedback email copies")
var emailTo = flag.String("email-to", LookupEnvOrString("EMAIL_TO", ""), "Administrator address receiving feedback email copies")
var emailPlainAuth = flag.Bool("email-plain-auth", LookupEnvOrBool("EMAIL_PLAIN_AUTH", false), "Email plain auth (username and password)")
var emailUsername = flag.String("email-username", LookupEnvOrString("EMAIL_USERNAME", ""), "Email username")
var emailPassword = flag.String("email-password", LookupEnvOrString("EMAIL_PASSWORD", ""), "Email password")
var emailTLS = flag.Bool("email-tls", LookupEnvOrBool("EMAIL_TLS", false), "Use STARTTLS")
var emailTLSInsecure = flag.Bool("email-tls-insecure", LookupEnvOrBool("EMAIL_TLS_INSECURE", false), "Skip TLS verification")

func newLogger() *slog.Logger {
	var opts *slog.HandlerOptions
	if *debug {
		opts = &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func main() {
	flag.Parse()

	logger := newLogger()
	slog.SetDefault(logger)

	if *adminID == 0 {
		slog.Error("QUIETPOST_ADMIN_ID not set")
		os.Exit(1)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ledg, err := ledger.Open(filepath.Join(*dataDir, "feedback.json"))
	if err != nil {
		slog.Error("Failed to open ledger", "error", err)
		os.Exit(1)
	}

	var counters ratelimit.CounterStore
	var mirror blocklist.Mirror
	memCounters := rlmemory.NewStore()
	if *redisHost == "" {
		slog.Warn("REDIS_HOST not set, using in-process rate limit counters and no block list mirror")
		counters = memCounters
	} else {
		var redisURL string
		if *redisPassword != "" {
			redisURL = fmt.Sprintf("redis://:%s@%s:%s/%s", *redisPassword, *redisHost, *redisPort, *redisDB)
		} else {
			redisURL = fmt.Sprintf("redis://%s:%s/%s", *redisHost, *redisPort, *redisDB)
		}
		store, err := rlredis.NewStoreFromURL(redisURL)
		if err != nil {
			slog.Error("Failed to connect to Redis", "host", *redisHost, "error", err)
			os.Exit(1)
		}
		slog.Info("Using Redis rate limit counters", "host", *redisHost, "port", *redisPort, "db", *redisDB)
		counters = store
		mirror = blredis.NewMirror(store.Client())
		defer store.Close()
	}

	blocks, err := blocklist.Open(filepath.Join(*dataDir, "blocked.json"), mirror, logger)
	if err != nil {
		slog.Error("Failed to open block list", "error", err)
		os.Exit(1)
	}

	limiter := ratelimit.New(counters, logger, metrics.RateLimitDegraded.Inc)
	controller := admission.New(blocks, limiter, logger)
	notes := action.NewRegistry()

	var emailer relay.EmailCopier
	if *emailHost != "" {
		emailer = notify.NewEmailer(notify.EmailConfig{
			Host:        *emailHost,
			Port:        *emailPort,
			From:        *emailFrom,
			To:          *emailTo,
			PlainAuth:   *emailPlainAuth,
			Username:    *emailUsername,
			Password:    *emailPassword,
			TLS:         *emailTLS,
			TLSInsecure: *emailTLSInsecure,
		}, logger)
		slog.Info("Email feedback copies enabled", "host", *emailHost, "to", *emailTo)
	}

	conn := console.NewConn(os.Stdout)
	router := relay.NewRouter(relay.Config{
		Conn:    conn,
		Admit:   controller,
		Ledger:  ledg,
		Blocks:  blocks,
		Notes:   notes,
		Email:   emailer,
		AdminID: int64(*adminID),
		RateMax: *sendRateAmount,
		RatePer: time.Second * time.Duration(*sendRatePer),
		Log:     logger,
	})

	s := server.NewServer(*apiAddr, ledg)
	go func() {
		if err := s.Serve(); err != nil {
			slog.Error("Serve failed", "error", err)
			os.Exit(1)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Periodic state sweeps: expired notes and, without Redis, expired
	// rate limit counters.
	go func() {
		t := time.NewTicker(time.Minute)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				notes.Sweep()
				memCounters.Sweep()
			}
		}
	}()

	go func() {
		slog.Info("Relay is now running", "admin", *adminID)
		if err := console.Run(ctx, os.Stdin, router.HandleMessage, router.HandleCallback); err != nil && ctx.Err() == nil {
			slog.Error("Transport loop failed", "error", err)
		}
	}()

	<-stop
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	s.Shutdown(shutdownCtx)
	slog.Info("Exiting")
}
