package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhaowei/shopmate/internal/agent"
	"github.com/zhaowei/shopmate/internal/config"
	"github.com/zhaowei/shopmate/internal/handler"
	"github.com/zhaowei/shopmate/internal/kb"
	"github.com/zhaowei/shopmate/internal/llm"
	"github.com/zhaowei/shopmate/internal/metrics"
	"github.com/zhaowei/shopmate/internal/orderapi"
	"github.com/zhaowei/shopmate/internal/orders"
	"github.com/zhaowei/shopmate/internal/resolve"
	"github.com/zhaowei/shopmate/internal/retry"
	"github.com/zhaowei/shopmate/internal/routing"
	"github.com/zhaowei/shopmate/internal/session"
	chatservice "github.com/zhaowei/shopmate/internal/service/chat"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	// Session persistence.
	var store session.Store
	switch cfg.Session.Backend {
	case "sqlite":
		sqliteStore, err := session.NewSQLite(cfg.Session.DBPath)
		if err != nil {
			log.Fatalf("failed to open session database: %v", err)
		}
		defer sqliteStore.Close()
		store = sqliteStore
		log.Printf("session store: sqlite (%s)", cfg.Session.DBPath)
	default:
		store = session.NewMemoryStore()
		log.Println("session store: in-memory")
	}
	manager := session.NewManager(store)

	// Order system client: external HTTP when configured, seeded local
	// otherwise.
	var orderClient orderapi.Client
	if cfg.OrderAPI.BaseURL != "" {
		orderClient = orderapi.NewHTTPClient(orderapi.HTTPConfig{
			BaseURL:        cfg.OrderAPI.BaseURL,
			Timeout:        cfg.OrderAPI.Timeout,
			MaxAttempts:    cfg.OrderAPI.MaxRetries,
			InitialBackoff: cfg.OrderAPI.InitialBackoff,
		})
		log.Printf("order api: %s", cfg.OrderAPI.BaseURL)
	} else {
		orderClient = orderapi.NewLocalClient(time.Now)
		log.Println("order api: seeded local client")
	}
	orderSvc := orders.New(orderClient, time.Now)

	// LLM service feeds both the llm routing strategy and the context
	// resolver; the system stays fully functional without it.
	var llmSvc *llm.Service
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
		} else {
			caller := retry.New(retry.Policy{
				MaxAttempts:    cfg.AI.MaxRetries,
				InitialBackoff: cfg.AI.Backoff,
			})
			llmSvc, err = llm.NewService(ctx, chatModel, caller)
			if err != nil {
				log.Printf("warning: failed to initialize llm service: %v", err)
			} else {
				log.Println("llm service initialized")
			}
		}
	} else {
		log.Println("Ark credentials not configured, llm routing and resolution disabled")
	}

	// Routing strategy.
	var strategy routing.Strategy
	switch cfg.Router.Strategy {
	case "bayes":
		strategy = routing.NewBayesStrategy()
	case "llm":
		if llmSvc != nil {
			strategy = routing.NewLLMStrategy(llmSvc)
		} else {
			log.Println("warning: llm strategy requested but llm service unavailable, using keyword")
			strategy = routing.NewKeywordStrategy()
		}
	default:
		strategy = routing.NewKeywordStrategy()
	}
	log.Printf("routing strategy: %s", strategy.Name())

	// Reference resolver: the LLM rung is skipped when the service is nil.
	var contextModel resolve.ContextModel
	if llmSvc != nil {
		contextModel = llmSvc
	}
	resolver := resolve.New(contextModel, cfg.Router.ResolverMinConfidence)

	orchestrator := agent.New(strategy, resolver, orderSvc, kb.NewJSONLookup(cfg.KB.Path))
	chatSvc := chatservice.NewService(manager, orchestrator)
	stats := metrics.New()

	router := handler.NewRouter(chatSvc, stats)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Shopmate support backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
