package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"InkBoard/internal/config"
	"InkBoard/internal/history"
	"InkBoard/internal/logging"
	inknet "InkBoard/internal/net"
	"InkBoard/internal/notebook"
	"InkBoard/internal/recognize"
	"InkBoard/internal/state"
	"InkBoard/internal/ui"
)

func defaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "inkboard.toml"
	}
	return filepath.Join(dir, "inkboard", "config.toml")
}

func main() {
	configPath := flag.String("config", defaultConfigPath(), "path to the TOML config file")
	flag.Parse()

	loader := config.NewLoader(*configPath)
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "inkboard: %v\n", err)
		os.Exit(1)
	}
	if _, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Fprintf(os.Stderr, "inkboard: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	switch arg := flag.Arg(0); {
	case arg == "discover":
		runDiscover()
	case inknet.IsShareLink(arg):
		runViewer(ctx, cfg, arg)
	default:
		runHost(ctx, loader, cfg)
	}
}

// runDiscover prints the share link of every InkBoard host on the LAN.
func runDiscover() {
	err := inknet.Browse(3*time.Second, func(addr string) {
		fmt.Println(inknet.ShareScheme + addr)
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "inkboard: discover: %v\n", err)
		os.Exit(1)
	}
}

// openHandle builds and initializes the configured backend. A handle that
// fails to open stays in the gateway; recognition then falls back to demo.
func openHandle(ctx context.Context, rc config.RecognitionConfig) *recognize.Handle {
	log := logging.WithComponent("recognize")
	backend, err := recognize.NewBackend(recognize.Options{
		Backend:  rc.Backend,
		Endpoint: rc.Endpoint,
		Lang:     rc.Lang,
		Credentials: recognize.Credentials{
			ApplicationKey: rc.ApplicationKey,
			HMACKey:        rc.HMACKey,
		},
		AzureEndpoint: rc.AzureEndpoint,
		AzureKey:      rc.AzureKey,
		Timeout:       rc.Timeout(),
	})
	if err != nil {
		log.Error("build backend, using demo", "error", err)
		backend = recognize.Demo{}
	}
	policy := recognize.DefaultRetryPolicy()
	policy.MaxAttempts = rc.InitAttempts
	policy.BaseDelay = rc.InitBackoff()

	h := recognize.NewHandle(backend, policy, log)
	if err := h.Open(ctx); err != nil {
		log.Warn("recognizer unavailable, results will be demo output", "backend", backend.Name(), "error", err)
	}
	return h
}

func runHost(ctx context.Context, loader *config.Loader, cfg *config.Config) {
	log := logging.WithComponent("main")
	log.Info("starting InkBoard", "backend", cfg.Recognition.Backend)

	gateway := recognize.NewGateway(openHandle(ctx, cfg.Recognition), logging.WithComponent("gateway"))
	defer func() { _ = gateway.Handle().Close() }()

	var journal notebook.Journal
	var hist inknet.HistorySource
	if cfg.History.Path != "" {
		store, err := history.Open(cfg.History.Path)
		if err != nil {
			log.Error("open history, continuing without it", "error", err)
		} else {
			defer store.Close()
			journal, hist = store, store
		}
	}

	session := notebook.New(notebook.Options{
		Width:   cfg.Canvas.Width,
		Height:  cfg.Canvas.Height,
		Gateway: gateway,
		Journal: journal,
		Logger:  logging.WithComponent("notebook"),
	})

	var shareLink string
	if cfg.Share.Enabled {
		srv := inknet.NewServer(session, hist, logging.WithComponent("share"))
		go func() {
			if err := srv.ListenAndServe(cfg.Share.Port); err != nil {
				log.Error("share server stopped", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		if cfg.Share.Advertise {
			if mdnsServer, err := inknet.Advertise(cfg.Share.Port); err != nil {
				log.Warn("mDNS advertising disabled", "error", err)
			} else {
				defer mdnsServer.Shutdown()
			}
		}
		shareLink = inknet.ShareLink(cfg.Share.Port)
		log.Info("sharing notebook", "link", shareLink)
	}

	loader.OnChange(func(next *config.Config) {
		if _, err := logging.Setup(next.Logging.Level, next.Logging.Format); err != nil {
			log.Warn("ignoring logging change", "error", err)
		}
		if next.Recognition == cfg.Recognition {
			return
		}
		log.Info("recognition settings changed, reopening backend")
		gateway.Swap(openHandle(ctx, next.Recognition))
		cfg = next
	})
	if err := loader.Watch(ctx); err != nil {
		log.Warn("config hot reload disabled", "error", err)
	}
	go func() {
		for err := range loader.Errors() {
			log.Warn("config reload failed", "error", err)
		}
	}()

	app := ui.NewApp(session, ui.Options{
		ExportDir: cfg.Export.Dir,
		ShareLink: shareLink,
		Logger:    logging.WithComponent("ui"),
	})
	app.Run()
}

func runViewer(ctx context.Context, cfg *config.Config, link string) {
	log := logging.WithComponent("viewer")
	log.Info("starting InkBoard viewer", "link", link)

	session := notebook.New(notebook.Options{
		Width:  cfg.Canvas.Width,
		Height: cfg.Canvas.Height,
		Logger: logging.WithComponent("notebook"),
	})
	app := ui.NewApp(session, ui.Options{
		ExportDir: cfg.Export.Dir,
		ShareLink: link,
		ReadOnly:  true,
		Logger:    logging.WithComponent("ui"),
	})

	go func() {
		err := inknet.Follow(ctx, link, func(op state.Op) {
			session.ApplyRemote(op)
			app.Refresh()
		}, log)
		if err != nil {
			log.Error("lost share host", "error", err)
		}
	}()
	app.Run()
}
