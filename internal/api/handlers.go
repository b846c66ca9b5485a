package api

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/ritzzi23/clawfin/internal/db"
	"github.com/ritzzi23/clawfin/internal/ranking"
	"github.com/ritzzi23/clawfin/internal/session"
)

const (
	defaultDealLimit = 20
	maxDealLimit     = 100
)

// Public handlers
func (a *API) handleGetNegotiation(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sess)
}

// handleNegotiationRanking ranks the offers captured so far.
func (a *API) handleNegotiationRanking(w http.ResponseWriter, r *http.Request) {
	sess, ok := a.loadSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversation_id": sess.ConversationID,
		"status":          sess.Status,
		"round":           sess.Round,
		"ranking":         ranking.Rank(sess.OfferList(), sess.ProductName, a.cards),
	})
}

func (a *API) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := mux.Vars(r)["conversation_id"]
	sess, err := a.sessions.Get(r.Context(), id)
	if errors.Is(err, session.ErrNotFound) {
		http.Error(w, "negotiation not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		log.Printf("api: failed to load session %s: %v", id, err)
		http.Error(w, "failed to load negotiation", http.StatusInternalServerError)
		return nil, false
	}
	return sess, true
}

// Protected handlers
func (a *API) handleListDeals(w http.ResponseWriter, r *http.Request) {
	limit := defaultDealLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = min(n, maxDealLimit)
	}

	deals, err := a.deals.ListDeals(r.Context(), limit)
	if err != nil {
		log.Printf("api: failed to list deals: %v", err)
		http.Error(w, "failed to list deals", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, deals)
}

func (a *API) handleGetDeal(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	deal, err := a.deals.GetDeal(r.Context(), id)
	if errors.Is(err, db.ErrNotFound) {
		http.Error(w, "deal not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("api: failed to load deal %s: %v", id, err)
		http.Error(w, "failed to load deal", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, deal)
}
