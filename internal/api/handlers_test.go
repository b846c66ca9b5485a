package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ritzzi23/clawfin/internal/config"
	"github.com/ritzzi23/clawfin/internal/db"
	"github.com/ritzzi23/clawfin/internal/notify"
	"github.com/ritzzi23/clawfin/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDeals struct {
	deals     []*notify.Deal
	err       error
	lastLimit int
}

func (f *fakeDeals) ListDeals(_ context.Context, limit int) ([]*notify.Deal, error) {
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	if limit < len(f.deals) {
		return f.deals[:limit], nil
	}
	return f.deals, nil
}

func (f *fakeDeals) GetDeal(_ context.Context, id string) (*notify.Deal, error) {
	for _, d := range f.deals {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, db.ErrNotFound
}

func newTestAPI(t *testing.T) (*API, *session.MemoryStore, *fakeDeals) {
	t.Helper()
	store := session.NewMemoryStore()
	deals := &fakeDeals{deals: []*notify.Deal{
		{ID: "01HZX0000000000000000000A1", ProductName: "Widget X", WinnerSeller: "DealDasher", Price: 260},
		{ID: "01HZX0000000000000000000A0", ProductName: "Widget Y", WinnerSeller: "PremiumHub", Price: 120},
	}}
	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("clawfin_negotiations_started_total 1\n"))
	})
	cfg := &config.Config{
		JWTSecret:           "test-secret",
		DiscordClientID:     "client",
		DiscordClientSecret: "secret",
		DiscordRedirectURI:  "http://localhost:3000/api/auth/callback",
	}
	return New(cfg, store, deals, metrics), store, deals
}

func (a *API) do(t *testing.T, method, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.Handler().ServeHTTP(w, req)
	return w
}

func TestGetNegotiation(t *testing.T) {
	api, store, _ := newTestAPI(t)
	ctx := context.Background()
	_, err := store.Create(ctx, "chan-1", "Widget X", 300, 210, 1)
	require.NoError(t, err)
	require.NoError(t, store.RecordOffer(ctx, "chan-1", session.Offer{Seller: "A", Price: 260, BundleItems: []string{}}))

	w := api.do(t, "GET", "/api/public/negotiations/chan-1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var got session.Session
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "Widget X", got.ProductName)
	assert.Equal(t, session.StatusSearching, got.Status)
	assert.Equal(t, 260.0, got.Offers["A"].Price)

	w = api.do(t, "GET", "/api/public/negotiations/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestNegotiationRanking(t *testing.T) {
	api, store, _ := newTestAPI(t)
	ctx := context.Background()
	_, err := store.Create(ctx, "chan-1", "Widget X", 300, 210, 1)
	require.NoError(t, err)
	require.NoError(t, store.RecordOffer(ctx, "chan-1", session.Offer{Seller: "A", Price: 260, HasWarranty: true}))
	require.NoError(t, store.RecordOffer(ctx, "chan-1", session.Offer{Seller: "B", Price: 250, IsRefurbished: true}))

	w := api.do(t, "GET", "/api/public/negotiations/chan-1/ranking", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got struct {
		Ranking []struct {
			Seller string `json:"seller"`
			Rank   int    `json:"rank"`
		} `json:"ranking"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got.Ranking, 2)
	assert.Equal(t, "A", got.Ranking[0].Seller)
	assert.Equal(t, 1, got.Ranking[0].Rank)
}

func TestDeals_RequireToken(t *testing.T) {
	api, _, _ := newTestAPI(t)

	w := api.do(t, "GET", "/api/deals", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = api.do(t, "GET", "/api/deals", "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	other := &API{jwtSecret: []byte("other-secret")}
	forged, err := other.issueToken("u1", "mallory", time.Now())
	require.NoError(t, err)
	w = api.do(t, "GET", "/api/deals", forged)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	expired, err := api.issueToken("u1", "alice", time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	w = api.do(t, "GET", "/api/deals", expired)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestListDeals(t *testing.T) {
	api, _, deals := newTestAPI(t)
	token, err := api.issueToken("u1", "alice", time.Now())
	require.NoError(t, err)

	w := api.do(t, "GET", "/api/deals", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultDealLimit, deals.lastLimit)

	w = api.do(t, "GET", "/api/deals?limit=1", token)
	require.Equal(t, http.StatusOK, w.Code)
	var got []notify.Deal
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "DealDasher", got[0].WinnerSeller)

	w = api.do(t, "GET", "/api/deals?limit=5000", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, maxDealLimit, deals.lastLimit)

	w = api.do(t, "GET", "/api/deals?limit=-1", token)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	deals.err = errors.New("connection reset")
	w = api.do(t, "GET", "/api/deals", token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestGetDeal(t *testing.T) {
	api, _, _ := newTestAPI(t)
	token, err := api.issueToken("u1", "alice", time.Now())
	require.NoError(t, err)

	w := api.do(t, "GET", "/api/deals/01HZX0000000000000000000A0", token)
	require.Equal(t, http.StatusOK, w.Code)
	var got notify.Deal
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "PremiumHub", got.WinnerSeller)

	w = api.do(t, "GET", "/api/deals/nope", token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMe(t *testing.T) {
	api, _, _ := newTestAPI(t)
	token, err := api.issueToken("u1", "alice", time.Now())
	require.NoError(t, err)

	w := api.do(t, "GET", "/api/user/me", token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"u1","username":"alice"}`, w.Body.String())
}

func TestLoginAndMetrics(t *testing.T) {
	api, _, _ := newTestAPI(t)

	w := api.do(t, "GET", "/api/auth/login", "")
	require.Equal(t, http.StatusOK, w.Code)
	var login map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&login))
	assert.Contains(t, login["auth_url"], "https://discord.com/api/oauth2/authorize")
	assert.Contains(t, login["auth_url"], "client_id=client")
	assert.Len(t, login["state"], 32)

	w = api.do(t, "GET", "/api/auth/callback", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = api.do(t, "GET", "/metrics", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "clawfin_negotiations_started_total")
}

func TestGetDiscordUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/@me", r.URL.Path)
		assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))
		w.Write([]byte(`{"id":"42","username":"alice","global_name":"Alice A."}`))
	}))
	defer server.Close()

	api, _, _ := newTestAPI(t)
	api.discordAPI = server.URL
	user, err := api.getDiscordUser(context.Background(), "access")
	require.NoError(t, err)
	assert.Equal(t, "42", user.ID)
	assert.Equal(t, "Alice A.", getUsername(user))
}
