package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bluescreen10/hubx"
	"github.com/bluescreen10/hubx/internal/config"
	"github.com/bluescreen10/hubx/internal/logger"
	"github.com/bluescreen10/hubx/internal/ui"
	"go.uber.org/zap"
)

// Version is set at build time
var Version = "dev"

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	var err error
	switch cmd {
	case "serve":
		err = serve()
	case "logout":
		err = logout()
	case "version":
		fmt.Printf("hubx %s\n", Version)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`hubx - UofT Secondhand Hub client

Usage:
  hubx [command]

Commands:
  serve     Serve the marketplace on LISTEN_ADDR (default)
  logout    Forget the stored credential
  version   Show version

Environment Variables:
  LISTEN_ADDR     Local UI address (default: 127.0.0.1:3000)
  AUTH_URL        Auth service (default: http://localhost:5001)
  LISTINGS_URL    Listings service (default: http://localhost:5000)
  TOKEN_STORE     sqlite, postgres, mysql, gorm-mysql, redis or memory (default: sqlite)
  TOKEN_DSN       Database file or DSN (default: hubx.db)
  REDIS_ADDR      Redis address (default: localhost:6379)
  REDIS_PASSWORD  Redis password
  LOG_LEVEL       debug, info, warn or error (default: info)
  REDIRECT_DELAY  Delay before leaving the login view (default: 1.5s)
  HTTP_TIMEOUT    Timeout for remote calls (default: 30s)
  SELLER_ID       Seller id recorded on new listings
  SELLER_NAME     Seller name recorded on new listings
`)
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("starting hubx",
		zap.String("version", Version),
		zap.String("auth_url", cfg.AuthURL),
		zap.String("listings_url", cfg.ListingsURL),
		zap.String("token_store", cfg.TokenStore),
	)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	tokens := hubx.NewTokenStore(store, cfg.AuthURL)
	session, err := hubx.NewSession(tokens, hubx.WithSessionLogger(log.Named("session")))
	if err != nil {
		return err
	}

	client := hubx.NewClient(cfg.AuthURL, cfg.ListingsURL,
		hubx.WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		hubx.WithTokens(tokens),
		hubx.WithClientLogger(log.Named("client")),
		hubx.WithSeller(cfg.SellerID, cfg.SellerName),
	)

	router := hubx.NewRouter(hubx.NewGate(session), session,
		hubx.WithRouterLogger(log.Named("router")),
		hubx.OnNavigate(func(path string) {
			log.Debug("location changed", zap.String("path", path))
		}),
	)

	live := hubx.NewLiveSession(session)
	server := ui.New(ui.Deps{
		Session:   session,
		Router:    router,
		Discovery: hubx.NewDiscovery(client, hubx.WithDiscoveryLogger(log.Named("discovery"))),
		AuthFlow: hubx.NewAuthFlow(client, session, router,
			hubx.WithRedirectDelay(cfg.RedirectDelay),
			hubx.WithAuthLogger(log.Named("auth")),
		),
		Listings: client,
		Live:     live,
	}, ui.WithLogger(log))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := client.Health(healthCtx); err != nil {
		log.Warn("listings service unavailable", zap.Error(err))
	}
	cancel()

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: server.Handler(),
	}
	srv.RegisterOnShutdown(live.Close)

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving", zap.String("addr", cfg.ListenAddr), zap.Stringer("session", session.State()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
	server.Wait()
	return nil
}

func logout() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	session, err := hubx.NewSession(hubx.NewTokenStore(store, cfg.AuthURL))
	if err != nil {
		return err
	}
	if err := session.Logout(); err != nil {
		return err
	}

	fmt.Println("Logged out.")
	return nil
}
