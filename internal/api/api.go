// Package api serves a read-only HTTP view of negotiations and closed deals.
package api

import (
	"context"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ritzzi23/clawfin/internal/config"
	"github.com/ritzzi23/clawfin/internal/notify"
	"github.com/ritzzi23/clawfin/internal/rewards"
	"github.com/ritzzi23/clawfin/internal/session"
	"github.com/rs/cors"
	"golang.org/x/oauth2"
)

// DealReader is the read side of the deal ledger; implemented by db.DB.
type DealReader interface {
	ListDeals(ctx context.Context, limit int) ([]*notify.Deal, error)
	GetDeal(ctx context.Context, id string) (*notify.Deal, error)
}

type API struct {
	router      *mux.Router
	sessions    session.Store
	deals       DealReader
	cards       rewards.Lookup
	metrics     http.Handler
	config      *config.Config
	oauthConfig *oauth2.Config
	jwtSecret   []byte
	discordAPI  string
	server      *http.Server
}

func New(cfg *config.Config, sessions session.Store, deals DealReader, metrics http.Handler) *API {
	api := &API{
		router:     mux.NewRouter(),
		sessions:   sessions,
		deals:      deals,
		cards:      rewards.DefaultCatalog,
		metrics:    metrics,
		config:     cfg,
		jwtSecret:  []byte(cfg.JWTSecret),
		discordAPI: "https://discord.com/api",
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURI,
			Scopes:       []string{"identify"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  "https://discord.com/api/oauth2/authorize",
				TokenURL: "https://discord.com/api/oauth2/token",
			},
		},
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	// Auth endpoints
	a.router.HandleFunc("/api/auth/login", a.handleLogin).Methods("GET")
	a.router.HandleFunc("/api/auth/callback", a.handleCallback).Methods("GET")
	a.router.HandleFunc("/api/auth/logout", a.handleLogout).Methods("POST")

	// Public endpoints
	a.router.HandleFunc("/api/public/negotiations/{conversation_id}", a.handleGetNegotiation).Methods("GET")
	a.router.HandleFunc("/api/public/negotiations/{conversation_id}/ranking", a.handleNegotiationRanking).Methods("GET")
	if a.metrics != nil {
		a.router.Handle("/metrics", a.metrics).Methods("GET")
	}

	// Protected endpoints
	protected := a.router.PathPrefix("/api").Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("/user/me", a.handleMe).Methods("GET")
	protected.HandleFunc("/deals", a.handleListDeals).Methods("GET")
	protected.HandleFunc("/deals/{id}", a.handleGetDeal).Methods("GET")
}

// Handler returns the router wrapped in CORS.
func (a *API) Handler() http.Handler {
	// When AllowedOrigins is "*", AllowCredentials must be false
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}
	return cors.New(corsOptions).Handler(a.router)
}

// Start blocks serving on WEB_BIND until Shutdown is called.
func (a *API) Start() error {
	a.server = &http.Server{Addr: a.config.WebBind, Handler: a.Handler()}
	log.Printf("API server listening on http://%s", a.config.WebBind)
	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *API) Shutdown(ctx context.Context) error {
	if a.server == nil {
		return nil
	}
	return a.server.Shutdown(ctx)
}
