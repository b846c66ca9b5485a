package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type notifierFunc func(ctx context.Context, deal Deal) (string, error)

func (f notifierFunc) Notify(ctx context.Context, deal Deal) (string, error) { return f(ctx, deal) }

type fakeWriter struct {
	deals []Deal
	err   error
}

func (w *fakeWriter) InsertDeal(_ context.Context, d Deal) error {
	if w.err != nil {
		return w.err
	}
	w.deals = append(w.deals, d)
	return nil
}

func sampleDeal() Deal {
	return Deal{
		ID:             "01J0000000000000000000000",
		ConversationID: "chan-1",
		ProductName:    "Widget X",
		WinnerSeller:   "DealDasher",
		Price:          260,
		EffectivePrice: 256.1,
		CardName:       "Chase Freedom Flex",
		Savings:        43.9,
	}
}

func TestFanout_CollectsLinesAndSkipsFailures(t *testing.T) {
	f := Fanout{
		notifierFunc(func(context.Context, Deal) (string, error) { return "first", nil }),
		notifierFunc(func(context.Context, Deal) (string, error) { return "", errors.New("down") }),
		notifierFunc(func(context.Context, Deal) (string, error) { return "", nil }),
		notifierFunc(func(context.Context, Deal) (string, error) { return "last", nil }),
	}
	report, err := f.Notify(context.Background(), sampleDeal())
	require.NoError(t, err)
	assert.Equal(t, "\n• first\n• last", report)
}

func TestFanout_Empty(t *testing.T) {
	report, err := Fanout(nil).Notify(context.Background(), sampleDeal())
	require.NoError(t, err)
	assert.Empty(t, report)
}

func TestLedger(t *testing.T) {
	w := &fakeWriter{}
	line, err := NewLedger(w).Notify(context.Background(), sampleDeal())
	require.NoError(t, err)
	assert.Contains(t, line, "01J0000000000000000000000")
	require.Len(t, w.deals, 1)

	w.err = errors.New("conn refused")
	_, err = NewLedger(w).Notify(context.Background(), sampleDeal())
	assert.ErrorIs(t, err, w.err)
}

func TestWebhook(t *testing.T) {
	var got map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	line, err := NewWebhook(server.URL).Notify(context.Background(), sampleDeal())
	require.NoError(t, err)
	assert.NotEmpty(t, line)
	assert.Contains(t, got["text"], "*Widget X* closed with *DealDasher* at $260.00")
}

func TestWebhook_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid_token", http.StatusForbidden)
	}))
	defer server.Close()

	_, err := NewWebhook(server.URL).Notify(context.Background(), sampleDeal())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_token")
}

func TestNewID(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	id := NewID(now)
	parsed, err := ulid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, uint64(now.UnixMilli()), parsed.Time())
}
