// Package order converts a persisted cart snapshot into an immutable
// order. Creation takes the same per-user lock as cart mutation, so a
// checkout never interleaves with cart edits for that user.
package order

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mkravets/storefront/internal/domain"
	"github.com/mkravets/storefront/internal/locks"
	"github.com/mkravets/storefront/internal/models"
	"github.com/mkravets/storefront/internal/payment"
	"github.com/mkravets/storefront/internal/repo"
)

// amountTolerance bounds the allowed rounding drift between the client
// authorized amount and the commit-time total.
const amountTolerance = 0.01

type CreateOrderRequest struct {
	Address      models.ShippingAddress
	CardToken    string
	CardLast4    string
	CardType     string
	Amount       float64
	Currency     string
	CustomerNote string
}

type Service struct {
	Repo     *repo.GormRepo
	Payments payment.Gateway
	Locks    *locks.Keyed

	// newID is a seam for tests; production always uses uuid.
	newID func() string
}

func New(r *repo.GormRepo, gw payment.Gateway, l *locks.Keyed) *Service {
	return &Service{Repo: r, Payments: gw, Locks: l, newID: uuid.NewString}
}

// CreateOrder commits the user's persisted cart. The stock re-check, the
// payment capture and the order/cart persistence run as one unit: the
// conditional stock decrements happen inside the transaction before the
// capture, so a lost stock race surfaces as InsufficientStock without
// ever charging the card, and a declined capture rolls the decrements
// back. Only a persistence failure after a successful capture leaves the
// unit broken; that case is flagged as a reconciliation record and is
// never retried automatically.
func (s *Service) CreateOrder(ctx context.Context, userID uint, req CreateOrderRequest) (*models.Order, error) {
	s.Locks.Lock(userID)
	defer s.Locks.Unlock(userID)

	// The commit must run to completion even if the client abandons the
	// request; the persisted result is authoritative.
	ctx = context.WithoutCancel(ctx)

	cart, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("cart: %w", domain.ErrEmptyCart)
		}
		return nil, err
	}
	if len(cart.Lines) == 0 {
		return nil, domain.ErrEmptyCart
	}

	// Re-validate stock and snapshot product data before touching
	// anything. Time may have passed since the items were added.
	items := make([]models.OrderItem, 0, len(cart.Lines))
	var total float64
	for _, line := range cart.Lines {
		product, err := s.Repo.GetProduct(ctx, line.ProductID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, fmt.Errorf("product %d: %w", line.ProductID, domain.ErrNotFound)
			}
			return nil, err
		}
		if line.Quantity > product.Stock {
			return nil, fmt.Errorf("%q has %d in stock: %w", product.Name, product.Stock, domain.ErrInsufficientStock)
		}
		items = append(items, models.OrderItem{
			ProductID: product.ID,
			Name:      product.Name,
			Quantity:  line.Quantity,
			Price:     line.UnitPrice,
			Image:     product.Image,
		})
		total += line.UnitPrice * float64(line.Quantity)
	}

	if math.Abs(total-req.Amount) > amountTolerance {
		return nil, fmt.Errorf("cart total %.2f, authorized %.2f: %w", total, req.Amount, domain.ErrPaymentAmountMismatch)
	}

	orderID := s.newID()
	currency := req.Currency
	if currency == "" {
		currency = "eur"
	}

	var (
		order    *models.Order
		captured *payment.CaptureResult
	)
	err = s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		for _, item := range items {
			ok, err := tx.DecrementStock(ctx, item.ProductID, item.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("%q: %w", item.Name, domain.ErrInsufficientStock)
			}
		}

		result, err := s.Payments.Capture(ctx, payment.CaptureRequest{
			Amount:         total,
			Currency:       currency,
			CardToken:      req.CardToken,
			IdempotencyKey: orderID,
		})
		if err != nil {
			return fmt.Errorf("%w: %v", domain.ErrPaymentFailure, err)
		}
		captured = result

		now := time.Now().UTC()
		order = &models.Order{
			OrderID: orderID,
			UserID:  userID,
			Items:   items,
			Address: req.Address,
			Payment: models.PaymentRecord{
				CardLast4:     req.CardLast4,
				CardType:      req.CardType,
				Amount:        total,
				TransactionID: result.TransactionID,
			},
			TotalAmount:  total,
			Status:       models.OrderStatusPending,
			CustomerNote: req.CustomerNote,
			IsPaid:       true,
			PaidAt:       &now,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		if err := tx.DeleteLines(ctx, cart.ID); err != nil {
			return err
		}
		_, err = tx.UpdateCartTotal(ctx, cart.ID)
		return err
	})
	if err != nil {
		if captured != nil && !errors.Is(err, domain.ErrPaymentFailure) {
			return nil, s.flagReconciliation(ctx, orderID, userID, captured.TransactionID, total, err)
		}
		return nil, err
	}
	return order, nil
}

// flagReconciliation persists the broken post-capture state as a distinct
// flagged record. Swallowing or retrying here could double-charge the
// card or double-decrement stock.
func (s *Service) flagReconciliation(ctx context.Context, orderID string, userID uint, transactionID string, amount float64, cause error) error {
	rec := models.ReconciliationRecord{
		OrderID:       orderID,
		UserID:        userID,
		TransactionID: transactionID,
		Amount:        amount,
		Reason:        cause.Error(),
	}
	if recErr := s.Repo.CreateReconciliation(ctx, &rec); recErr != nil {
		return fmt.Errorf("%w: order %s txn %s: flag persist failed (%v) after %v",
			domain.ErrReconciliationRequired, orderID, transactionID, recErr, cause)
	}
	return fmt.Errorf("%w: order %s txn %s: %v", domain.ErrReconciliationRequired, orderID, transactionID, cause)
}

func (s *Service) GetOrder(ctx context.Context, userID uint, orderID string) (*models.Order, error) {
	order, err := s.Repo.GetOrderForUser(ctx, userID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
		}
		return nil, err
	}
	return order, nil
}

func (s *Service) ListOrders(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx, userID)
}

func (s *Service) ListAllOrders(ctx context.Context) ([]models.Order, error) {
	return s.Repo.ListAllOrders(ctx)
}
