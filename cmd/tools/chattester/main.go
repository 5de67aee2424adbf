// chattester runs one support-chat turn in process, without the HTTP server,
// so routing and resolution behavior can be exercised from the command line:
//
//	go run ./cmd/tools/chattester -session demo -message "Track ORD-1234"
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhaowei/shopmate/internal/agent"
	"github.com/zhaowei/shopmate/internal/config"
	"github.com/zhaowei/shopmate/internal/kb"
	"github.com/zhaowei/shopmate/internal/llm"
	"github.com/zhaowei/shopmate/internal/orderapi"
	"github.com/zhaowei/shopmate/internal/orders"
	"github.com/zhaowei/shopmate/internal/resolve"
	"github.com/zhaowei/shopmate/internal/retry"
	"github.com/zhaowei/shopmate/internal/routing"
	"github.com/zhaowei/shopmate/internal/session"
	chatservice "github.com/zhaowei/shopmate/internal/service/chat"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env, using system environment: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	sessionKey := flag.String("session", "", "session key, auto-generated when empty")
	message := flag.String("message", "", "user message to run (required)")
	strategyName := flag.String("strategy", "", "routing strategy override: keyword, bayes or llm")
	timeout := flag.Duration("timeout", 30*time.Second, "turn timeout")
	flag.Parse()

	if *message == "" {
		flag.Usage()
		log.Fatal("provide a user message with -message")
	}

	key := *sessionKey
	if key == "" {
		key = fmt.Sprintf("manual-%d", time.Now().UnixNano())
	}
	if *strategyName != "" {
		cfg.Router.Strategy = *strategyName
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	var llmSvc *llm.Service
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: chat model unavailable: %v", err)
		} else {
			caller := retry.New(retry.Policy{
				MaxAttempts:    cfg.AI.MaxRetries,
				InitialBackoff: cfg.AI.Backoff,
			})
			if llmSvc, err = llm.NewService(ctx, chatModel, caller); err != nil {
				log.Printf("warning: llm service unavailable: %v", err)
			}
		}
	}

	var strategy routing.Strategy
	switch cfg.Router.Strategy {
	case "bayes":
		strategy = routing.NewBayesStrategy()
	case "llm":
		if llmSvc == nil {
			log.Fatal("llm strategy requested but Ark credentials are not configured")
		}
		strategy = routing.NewLLMStrategy(llmSvc)
	default:
		strategy = routing.NewKeywordStrategy()
	}

	var orderClient orderapi.Client
	if cfg.OrderAPI.BaseURL != "" {
		orderClient = orderapi.NewHTTPClient(orderapi.HTTPConfig{
			BaseURL:        cfg.OrderAPI.BaseURL,
			Timeout:        cfg.OrderAPI.Timeout,
			MaxAttempts:    cfg.OrderAPI.MaxRetries,
			InitialBackoff: cfg.OrderAPI.InitialBackoff,
		})
	} else {
		orderClient = orderapi.NewLocalClient(time.Now)
	}

	var contextModel resolve.ContextModel
	if llmSvc != nil {
		contextModel = llmSvc
	}

	orchestrator := agent.New(
		strategy,
		resolve.New(contextModel, cfg.Router.ResolverMinConfidence),
		orders.New(orderClient, time.Now),
		kb.NewJSONLookup(cfg.KB.Path),
	)
	svc := chatservice.NewService(session.NewManager(session.NewMemoryStore()), orchestrator)

	log.Printf("running turn: session=%s strategy=%s", key, strategy.Name())
	resp, err := svc.RunTurn(ctx, key, *message)
	if err != nil {
		log.Fatalf("turn failed: %v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(resp); err != nil {
		log.Fatalf("failed to print response: %v", err)
	}
}
