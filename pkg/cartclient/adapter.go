package cartclient

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/mkravets/storefront/internal/transport"
)

var ErrNoSession = errors.New("cartclient: no active session")

// ProductRef is the slice of catalog data the adapter needs to build an
// optimistic line before the server has confirmed it.
type ProductRef struct {
	ID    uint
	Name  string
	Image string
	Price float64
}

type pendingAdd struct {
	product  ProductRef
	quantity uint
}

// Adapter mirrors the server-side cart for responsive UI updates. It is
// the single source of truth on the client: optimistic adds mutate the
// mirror immediately and go onto a pending queue; Flush pushes the queue
// to the server and rolls the mirror back when a mutation is rejected.
type Adapter struct {
	client *Client

	mu      sync.Mutex
	session *Session
	lines   []transport.LineView
	total   float64
	pending []pendingAdd
}

func NewAdapter(client *Client) *Adapter {
	return &Adapter{client: client}
}

// Login attaches the session and replaces local state with server truth.
// Lines collected while browsing anonymously are merged by replaying them
// through the server's add operation, so duplicates accumulate the same
// way a direct add would.
func (a *Adapter) Login(ctx context.Context, s *Session) error {
	// The mirror already reflects every queued add, so it is the full
	// anonymous cart; the queue itself is dropped to avoid replaying
	// the same mutation twice.
	a.mu.Lock()
	anonymous := make([]pendingAdd, 0, len(a.lines))
	for _, line := range a.lines {
		anonymous = append(anonymous, pendingAdd{
			product: ProductRef{
				ID:    line.ProductID,
				Name:  line.Name,
				Image: line.Image,
				Price: line.UnitPrice,
			},
			quantity: line.Quantity,
		})
	}
	a.session = s
	a.pending = nil
	a.mu.Unlock()

	view, err := a.client.GetCart(ctx, s)
	if err != nil {
		return fmt.Errorf("sync cart: %w", err)
	}

	for _, add := range anonymous {
		view, err = a.client.AddItem(ctx, s, add.product.ID, add.quantity)
		if err != nil {
			// The merge is best-effort per line: an item that went out
			// of stock while anonymous is dropped, not retried.
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				continue
			}
			return fmt.Errorf("merge cart line: %w", err)
		}
	}

	a.replace(view)
	return nil
}

// Logout drops the session and the mirror.
func (a *Adapter) Logout() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.session = nil
	a.lines = nil
	a.total = 0
	a.pending = nil
}

// AddOptimistic applies the add to the local mirror immediately and
// queues it for the server. The caller sees the new line at once; the
// mutation is confirmed or rolled back on the next Flush.
func (a *Adapter) AddOptimistic(product ProductRef, quantity uint) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.applyAdd(product, quantity)
	a.pending = append(a.pending, pendingAdd{product: product, quantity: quantity})
}

// Flush drains the pending queue against the server in order. On the
// first rejected mutation it reverses that mutation in the mirror, keeps
// the remaining queue intact, and returns the server's error.
func (a *Adapter) Flush(ctx context.Context) error {
	for {
		a.mu.Lock()
		if len(a.pending) == 0 {
			a.mu.Unlock()
			return nil
		}
		s := a.session
		next := a.pending[0]
		a.mu.Unlock()

		if s == nil {
			return ErrNoSession
		}

		view, err := a.client.AddItem(ctx, s, next.product.ID, next.quantity)

		a.mu.Lock()
		a.pending = a.pending[1:]
		if err != nil {
			a.revertAdd(next.product.ID, next.quantity)
			a.mu.Unlock()
			return err
		}
		a.lines = view.Lines
		a.total = view.Total
		a.mu.Unlock()
	}
}

// Snapshot returns a copy of the mirrored cart for rendering.
func (a *Adapter) Snapshot() transport.CartView {
	a.mu.Lock()
	defer a.mu.Unlock()

	lines := make([]transport.LineView, len(a.lines))
	copy(lines, a.lines)
	return transport.CartView{Lines: lines, Total: a.total}
}

func (a *Adapter) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

func (a *Adapter) replace(view *transport.CartView) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lines = view.Lines
	a.total = view.Total
}

// applyAdd mirrors the server's accumulation rule: an existing line for
// the product grows by quantity at its original unit price, otherwise a
// new line is appended.
func (a *Adapter) applyAdd(product ProductRef, quantity uint) {
	for i := range a.lines {
		if a.lines[i].ProductID == product.ID {
			a.lines[i].Quantity += quantity
			a.lines[i].LineTotal = a.lines[i].UnitPrice * float64(a.lines[i].Quantity)
			a.recomputeTotal()
			return
		}
	}
	a.lines = append(a.lines, transport.LineView{
		ProductID: product.ID,
		Name:      product.Name,
		Image:     product.Image,
		UnitPrice: product.Price,
		Quantity:  quantity,
		LineTotal: product.Price * float64(quantity),
	})
	a.recomputeTotal()
}

func (a *Adapter) revertAdd(productID, quantity uint) {
	for i := range a.lines {
		if a.lines[i].ProductID != productID {
			continue
		}
		if a.lines[i].Quantity <= quantity {
			a.lines = append(a.lines[:i], a.lines[i+1:]...)
		} else {
			a.lines[i].Quantity -= quantity
			a.lines[i].LineTotal = a.lines[i].UnitPrice * float64(a.lines[i].Quantity)
		}
		a.recomputeTotal()
		return
	}
}

func (a *Adapter) recomputeTotal() {
	var total float64
	for _, line := range a.lines {
		total += line.UnitPrice * float64(line.Quantity)
	}
	a.total = total
}
