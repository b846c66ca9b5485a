package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/ritzzi23/clawfin/internal/api"
	"github.com/ritzzi23/clawfin/internal/bot"
	"github.com/ritzzi23/clawfin/internal/buyer"
	"github.com/ritzzi23/clawfin/internal/commands"
	"github.com/ritzzi23/clawfin/internal/config"
	"github.com/ritzzi23/clawfin/internal/db"
	"github.com/ritzzi23/clawfin/internal/llm"
	"github.com/ritzzi23/clawfin/internal/metrics"
	"github.com/ritzzi23/clawfin/internal/notify"
	"github.com/ritzzi23/clawfin/internal/seller"
	"github.com/ritzzi23/clawfin/internal/session"
)

// app holds what every command shares: config, the session store and metrics.
type app struct {
	cfg      *config.Config
	database *db.DB
	store    session.Store
	metrics  *metrics.Metrics
}

// newApp loads config and opens the session store. Without DATABASE_URL the
// store is process-local, which only works when requireDB is false.
func newApp(ctx context.Context, requireDB bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	a := &app{cfg: cfg, metrics: metrics.New()}

	if cfg.DatabaseURL == "" {
		if requireDB {
			return nil, cfg.RequireDatabase()
		}
		log.Println("DATABASE_URL not set, keeping sessions in memory (single process only)")
		a.store = session.NewMemoryStore(session.WithMaxRounds(cfg.MaxRounds))
		return a, nil
	}

	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	a.database = database
	a.store = database.Sessions(cfg.MaxRounds)
	return a, nil
}

func (a *app) close() {
	if a.database != nil {
		a.database.Close()
	}
}

func (a *app) generator() llm.Generator {
	return llm.NewClient(a.cfg.OpenRouterAPIKey, a.cfg.OpenRouterBaseURL,
		llm.WithReferer(a.cfg.WebUIBaseURL, appName))
}

func (a *app) notifier() notify.Notifier {
	var fanout notify.Fanout
	if a.database != nil {
		fanout = append(fanout, notify.NewLedger(a.database))
	}
	if a.cfg.DealWebhookURL != "" {
		fanout = append(fanout, notify.NewWebhook(a.cfg.DealWebhookURL))
	}
	return fanout
}

func (a *app) startBuyer(ctx context.Context) (*bot.Bot, *buyer.Agent, error) {
	b, err := bot.New(a.cfg.BuyerName, a.cfg.BuyerToken)
	if err != nil {
		return nil, nil, err
	}
	agent := buyer.New(buyer.Config{
		Name:           a.cfg.BuyerName,
		Model:          a.cfg.BuyerModel,
		MaxRounds:      a.cfg.MaxRounds,
		RoundDelay:     a.cfg.RoundDelay,
		OpeningDelay:   a.cfg.OpeningDelay,
		TriggerPhrases: a.cfg.TriggerPhrases,
	}, a.store, b.Sender(), a.generator(), a.cfg.Sellers,
		buyer.WithNotifier(a.notifier()),
		buyer.WithMetrics(a.metrics),
	)
	b.Handle(agent)
	b.Commands(a.commandService(agent))
	if err := b.Start(ctx); err != nil {
		return nil, nil, err
	}
	return b, agent, nil
}

func (a *app) commandService(agent *buyer.Agent) *commands.Service {
	if a.database == nil {
		return commands.NewService(a.store, agent, nil)
	}
	return commands.NewService(a.store, agent, a.database)
}

func (a *app) startSellers(ctx context.Context) ([]*bot.Bot, error) {
	gen := a.generator()
	var bots []*bot.Bot
	for _, profile := range a.cfg.Sellers {
		b, err := bot.New(profile.Name, profile.Token)
		if err != nil {
			stopAll(bots)
			return nil, err
		}
		agent := seller.New(profile, seller.Config{
			BuyerName: a.cfg.BuyerName,
			Model:     a.cfg.SellerModel,
			MaxRounds: a.cfg.MaxRounds,
		}, a.store, b.Sender(), gen, seller.WithMetrics(a.metrics))
		b.Handle(agent)
		if err := b.Start(ctx); err != nil {
			stopAll(bots)
			return nil, err
		}
		bots = append(bots, b)
	}
	return bots, nil
}

func (a *app) startAPI() (*api.API, error) {
	if err := a.cfg.RequireAPI(); err != nil {
		return nil, err
	}
	server := api.New(a.cfg, a.store, a.database, a.metrics.Handler())
	go func() {
		if err := server.Start(); err != nil {
			log.Printf("API server error: %v", err)
		}
	}()
	return server, nil
}

func (a *app) stopAPI(server *api.API) {
	if server == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("API shutdown error: %v", err)
	}
}

func stopBot(b *bot.Bot) {
	if err := b.Stop(); err != nil {
		log.Printf("failed to stop bot: %v", err)
	}
}

func stopAll(bots []*bot.Bot) {
	for _, b := range bots {
		stopBot(b)
	}
}
