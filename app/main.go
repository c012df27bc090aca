package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/tasklist/app/web"
	"github.com/umputun/tasklist/app/web/persistence"
)

var opts struct {
	Listen     string        `short:"l" long:"listen" env:"TASKLIST_LISTEN" default:":8080" description:"listen address"`
	DB         string        `long:"db" env:"TASKLIST_DB" default:"tasklist.db" description:"sqlite file or postgres:// dsn"`
	DBAttempts int           `long:"db-attempts" env:"TASKLIST_DB_ATTEMPTS" default:"3" description:"database connection attempts"`
	DBDelay    time.Duration `long:"db-delay" env:"TASKLIST_DB_DELAY" default:"1s" description:"delay between connection attempts"`
	BaseURL    string        `long:"base-url" env:"TASKLIST_BASE_URL" description:"base url path for reverse proxy, e.g. /tasks"`
	WriteRate  float64       `long:"write-rate" env:"TASKLIST_WRITE_RATE" default:"10" description:"max write requests per second per client, 0 disables"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging to file"`
		Debug           bool   `long:"debug" env:"DEBUG" description:"debug mode"`
		Filename        string `long:"file" env:"FILE" default:"tasklist.log" description:"log file"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max log file size in megabytes"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"max days to keep rotated logs, 0 keeps all"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"max number of rotated logs"`
		EnabledCompress bool   `long:"compress" env:"COMPRESS" description:"compress rotated logs"`
	} `group:"log" namespace:"log" env-namespace:"TASKLIST_LOG"`
}

var revision = "unknown"

func main() {
	fmt.Printf("tasklist %s\n", revision)

	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}
	setupLogs()

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	signals(cancel) // handle SIGQUIT, SIGINT and SIGTERM

	if err := run(ctx); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
	log.Printf("[INFO] terminated")
}

// run connects the store and serves http until ctx is canceled
func run(ctx context.Context) error {
	client := persistence.NewClient(persistence.ClientParams{DSN: opts.DB, Attempts: opts.DBAttempts, Delay: opts.DBDelay})
	defer func() {
		if err := client.Close(); err != nil {
			log.Printf("[WARN] failed to close database: %v", err)
		}
	}()

	// connect early to report problems on startup, requests reconnect on demand
	if _, err := client.Store(ctx); err != nil {
		log.Printf("[WARN] database is not available at startup: %v", err)
	}

	srv, err := web.New(web.Config{
		Store:     client,
		BaseURL:   validateBaseURL(opts.BaseURL),
		Version:   revision,
		WriteRate: opts.WriteRate,
	})
	if err != nil {
		return fmt.Errorf("failed to create web server: %w", err)
	}
	return srv.Run(ctx, opts.Listen)
}

// setupLogs configures lgr and returns the writer logs go to, rotated file if enabled
func setupLogs() io.Writer {
	var out io.Writer = os.Stdout
	if opts.Log.Enabled {
		out = &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxAge:     opts.Log.MaxAge,
			MaxBackups: opts.Log.MaxBackups,
			Compress:   opts.Log.EnabledCompress,
		}
	}

	if opts.Log.Debug {
		log.Setup(log.Out(out), log.Debug, log.Msec, log.CallerFunc, log.CallerPkg, log.CallerFile)
		return out
	}
	log.Setup(log.Out(out), log.Msec, log.LevelBraces)
	return out
}

// validateBaseURL normalizes base url to "/path" form, empty for root
func validateBaseURL(base string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return ""
	}
	if !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	return base
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			log.Printf("[INFO] %s received, shutting down", sig)
			cancel() // terminate on SIGINT and SIGTERM
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGINT, syscall.SIGTERM)
}
