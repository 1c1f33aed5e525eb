package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/mkravets/storefront/internal/domain"
	"github.com/mkravets/storefront/internal/models"
)

// transitions is the full status machine. delivered and cancelled are
// terminal; cancelled is reachable only before shipping.
var transitions = map[string][]string{
	models.OrderStatusPending:   {models.OrderStatusPreparing, models.OrderStatusCancelled},
	models.OrderStatusPreparing: {models.OrderStatusShipped, models.OrderStatusCancelled},
	models.OrderStatusShipped:   {models.OrderStatusDelivered},
	models.OrderStatusDelivered: {},
	models.OrderStatusCancelled: {},
}

func canTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s *Service) SetStatus(ctx context.Context, orderID, newStatus string) (*models.Order, error) {
	if _, ok := transitions[newStatus]; !ok {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidArgument, newStatus)
	}

	order, err := s.Repo.GetOrderByOrderID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
		}
		return nil, err
	}

	if !canTransition(order.Status, newStatus) {
		return nil, fmt.Errorf("%s -> %s: %w", order.Status, newStatus, domain.ErrInvalidTransition)
	}

	order.Status = newStatus
	if newStatus == models.OrderStatusDelivered {
		now := time.Now().UTC()
		order.IsDelivered = true
		order.DeliveredAt = &now
	}

	if err := s.Repo.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}
