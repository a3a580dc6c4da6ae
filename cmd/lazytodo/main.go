package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/Joseda-hg/lazytodo/internal/api"
	"github.com/Joseda-hg/lazytodo/internal/config"
	"github.com/Joseda-hg/lazytodo/internal/db"
	"github.com/Joseda-hg/lazytodo/internal/fakeapi"
	"github.com/Joseda-hg/lazytodo/internal/model"
	"github.com/Joseda-hg/lazytodo/internal/session"
	"github.com/Joseda-hg/lazytodo/internal/tui"
)

func main() {
	configPathFlag := flag.String("config", "", "config file path (.json or .toml)")
	dbPathFlag := flag.String("db", "", "sqlite session db path")
	apiFlag := flag.String("api", "", "todo API base URL")
	sessionFlag := flag.String("session", "", "session backend: sqlite, redis or memory")
	redisFlag := flag.String("redis", "", "redis URL for the redis session backend")
	logFlag := flag.String("log", "", "log file path")
	debugFlag := flag.Bool("debug", false, "enable debug logging")
	demoFlag := flag.Bool("demo", false, "serve an in-memory demo API and use it")
	portFlag := flag.Int("port", 0, "demo API port")
	flag.Parse()

	cfgPath, err := resolveConfigPath(*configPathFlag)
	if err != nil {
		log.Fatal(err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal(err)
	}

	if *dbPathFlag != "" {
		cfg.DBPath = *dbPathFlag
	}
	if *sessionFlag != "" {
		cfg.SessionBackend = *sessionFlag
	}
	if *redisFlag != "" {
		cfg.RedisURL = *redisFlag
	}
	if *logFlag != "" {
		cfg.LogFile = *logFlag
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(filepath.Dir(cfgPath), "lazytodo.db")
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(filepath.Dir(cfgPath), "lazytodo.log")
	}

	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if err := config.Save(cfgPath, cfg); err != nil {
		log.Fatal(err)
	}

	// Environment and one-off flags apply to this run only.
	cfg = config.ApplyEnv(cfg)
	if *apiFlag != "" {
		cfg.APIURL = strings.TrimRight(*apiFlag, "/")
	}
	if *debugFlag {
		cfg.LogLevel = "debug"
	}

	logFile, err := setupLogging(cfg.LogFile, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logFile.Close()

	ctx := context.Background()

	if *demoFlag {
		addr, err := serveDemo(*portFlag)
		if err != nil {
			log.Fatal(err)
		}
		cfg.APIURL = "http://" + addr
		cfg.SessionBackend = config.SessionMemory
	}

	backend, closeBackend, err := openSessionBackend(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer closeBackend()

	sess := session.New(backend)
	if err := sess.Load(ctx); err != nil {
		log.Fatal(err)
	}

	log.WithFields(log.Fields{"api": cfg.APIURL, "session": cfg.SessionBackend}).Info("starting lazytodo")

	client := api.New(cfg.APIURL, sess, api.WithLogger(log.StandardLogger()))
	err = tui.Run(ctx, tui.Deps{
		Session:    sess,
		Auth:       api.NewAuthService(client, sess),
		Categories: api.NewCategoryService(client),
		Tasks:      api.NewTaskService(client),
		Log:        log.StandardLogger(),
	})
	if err != nil {
		log.WithError(err).Error("tui exited")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func resolveConfigPath(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	return config.DefaultConfigPath()
}

// setupLogging sends logrus output to path. The terminal belongs to the UI.
func setupLogging(path, level string) (*os.File, error) {
	if err := config.EnsureDir(path); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	log.SetOutput(file)
	log.SetLevel(parsed)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true, DisableColors: true})
	return file, nil
}

func openSessionBackend(ctx context.Context, cfg config.Config) (session.Backend, func(), error) {
	switch cfg.SessionBackend {
	case config.SessionMemory:
		return session.NewMemoryBackend(), func() {}, nil
	case config.SessionRedis:
		client, err := session.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return session.NewRedisBackend(client), func() { _ = client.Close() }, nil
	default:
		store, err := openStore(cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}
}

func openStore(dbPath string) (*db.Store, error) {
	if err := config.EnsureDir(dbPath); err != nil {
		return nil, err
	}

	sqlDB, err := db.Open(dbPath)
	if err != nil {
		return nil, err
	}

	return db.NewStore(sqlDB), nil
}

// serveDemo starts the in-memory API with one account and returns its
// address.
func serveDemo(port int) (string, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return "", fmt.Errorf("demo api: %w", err)
	}

	demo := fakeapi.New()
	token := demo.AddUser("Demo", "demo@example.com", "demo123")
	inbox := demo.SeedCategory(token, "Inbox", "Things to sort out")
	demo.SeedTask(token, inbox.ID, "Try lazytodo", model.PriorityHigh)

	go func() {
		if err := http.Serve(listener, demo.Handler()); err != nil {
			log.WithError(err).Error("demo api stopped")
		}
	}()

	addr := listener.Addr().String()
	log.WithField("addr", addr).Info("demo api running, log in as demo@example.com / demo123")
	return addr, nil
}
