package cartclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkravets/storefront/internal/transport"
)

// fakeCartServer is a minimal in-memory stand-in for the cart endpoints:
// it accumulates quantities per product and rejects adds over stock.
type fakeCartServer struct {
	mu    sync.Mutex
	stock map[uint]uint
	price map[uint]float64
	lines []transport.LineView
}

func newFakeCartServer() *fakeCartServer {
	return &fakeCartServer{
		stock: make(map[uint]uint),
		price: make(map[uint]float64),
	}
}

func (f *fakeCartServer) view() transport.CartView {
	var total float64
	for _, l := range f.lines {
		total += l.UnitPrice * float64(l.Quantity)
	}
	return transport.CartView{Lines: f.lines, Total: total}
}

func (f *fakeCartServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/cart", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(transport.Envelope{Success: false, Message: "unauthorized"})
			return
		}

		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(transport.Envelope{Success: true, Data: f.view()})
		case http.MethodPost:
			var req transport.AddItemRequest
			json.NewDecoder(r.Body).Decode(&req)

			var have uint
			for _, l := range f.lines {
				if l.ProductID == req.ProductID {
					have = l.Quantity
				}
			}
			if have+req.Quantity > f.stock[req.ProductID] {
				w.WriteHeader(http.StatusConflict)
				json.NewEncoder(w).Encode(transport.Envelope{Success: false, Message: "insufficient stock"})
				return
			}

			found := false
			for i := range f.lines {
				if f.lines[i].ProductID == req.ProductID {
					f.lines[i].Quantity += req.Quantity
					f.lines[i].LineTotal = f.lines[i].UnitPrice * float64(f.lines[i].Quantity)
					found = true
				}
			}
			if !found {
				f.lines = append(f.lines, transport.LineView{
					LineID:    uint(len(f.lines) + 1),
					ProductID: req.ProductID,
					UnitPrice: f.price[req.ProductID],
					Quantity:  req.Quantity,
					LineTotal: f.price[req.ProductID] * float64(req.Quantity),
				})
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(transport.Envelope{Success: true, Data: f.view()})
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	return mux
}

func newTestAdapter(t *testing.T) (*Adapter, *fakeCartServer) {
	t.Helper()

	fake := newFakeCartServer()
	srv := httptest.NewServer(fake.handler())
	t.Cleanup(srv.Close)
	return NewAdapter(NewClient(srv.URL)), fake
}

func TestAddOptimistic_FlushConfirms(t *testing.T) {
	adapter, fake := newTestAdapter(t)
	fake.stock[1] = 10
	fake.price[1] = 10

	require.NoError(t, adapter.Login(context.Background(), NewSession("tok")))

	adapter.AddOptimistic(ProductRef{ID: 1, Name: "shirt", Price: 10}, 2)

	// The mirror shows the line before any network round trip.
	snap := adapter.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.EqualValues(t, 2, snap.Lines[0].Quantity)
	assert.Equal(t, 20.0, snap.Total)
	assert.Equal(t, 1, adapter.Pending())

	require.NoError(t, adapter.Flush(context.Background()))
	assert.Zero(t, adapter.Pending())

	// After flush the mirror is server truth, line ids included.
	snap = adapter.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.NotZero(t, snap.Lines[0].LineID)
	assert.Equal(t, 20.0, snap.Total)
}

func TestAddOptimistic_RollbackOnRejection(t *testing.T) {
	adapter, fake := newTestAdapter(t)
	fake.stock[1] = 2
	fake.price[1] = 10

	require.NoError(t, adapter.Login(context.Background(), NewSession("tok")))

	adapter.AddOptimistic(ProductRef{ID: 1, Name: "shirt", Price: 10}, 2)
	require.NoError(t, adapter.Flush(context.Background()))

	// This one exceeds stock server-side; the phantom line must go away.
	adapter.AddOptimistic(ProductRef{ID: 1, Name: "shirt", Price: 10}, 3)
	snap := adapter.Snapshot()
	assert.EqualValues(t, 5, snap.Lines[0].Quantity)

	err := adapter.Flush(context.Background())
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)

	snap = adapter.Snapshot()
	require.Len(t, snap.Lines, 1)
	assert.EqualValues(t, 2, snap.Lines[0].Quantity)
	assert.Equal(t, 20.0, snap.Total)
	assert.Zero(t, adapter.Pending())
}

func TestFlush_WithoutSession(t *testing.T) {
	adapter, _ := newTestAdapter(t)

	adapter.AddOptimistic(ProductRef{ID: 1, Name: "shirt", Price: 10}, 1)
	err := adapter.Flush(context.Background())
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLogin_MergesAnonymousLines(t *testing.T) {
	adapter, fake := newTestAdapter(t)
	fake.stock[1] = 10
	fake.stock[2] = 10
	fake.price[1] = 10
	fake.price[2] = 5

	// Server cart already holds product 1 from an earlier session.
	fake.lines = []transport.LineView{
		{LineID: 1, ProductID: 1, UnitPrice: 10, Quantity: 1, LineTotal: 10},
	}

	// Anonymous browsing collected product 1 again and product 2.
	adapter.AddOptimistic(ProductRef{ID: 1, Name: "shirt", Price: 10}, 2)
	adapter.AddOptimistic(ProductRef{ID: 2, Name: "socks", Price: 5}, 1)

	require.NoError(t, adapter.Login(context.Background(), NewSession("tok")))
	assert.Zero(t, adapter.Pending())

	snap := adapter.Snapshot()
	require.Len(t, snap.Lines, 2)
	// Duplicate product accumulated, new product appended.
	assert.EqualValues(t, 3, snap.Lines[0].Quantity)
	assert.EqualValues(t, 1, snap.Lines[1].Quantity)
	assert.Equal(t, 35.0, snap.Total)
}

func TestLogout_DropsState(t *testing.T) {
	adapter, fake := newTestAdapter(t)
	fake.stock[1] = 10
	fake.price[1] = 10

	require.NoError(t, adapter.Login(context.Background(), NewSession("tok")))
	adapter.AddOptimistic(ProductRef{ID: 1, Name: "shirt", Price: 10}, 1)

	adapter.Logout()
	snap := adapter.Snapshot()
	assert.Empty(t, snap.Lines)
	assert.Zero(t, snap.Total)
	assert.Zero(t, adapter.Pending())

	err := adapter.Flush(context.Background())
	require.NoError(t, err)
}
