package cart

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mkravets/storefront/internal/models"
	"github.com/mkravets/storefront/internal/transport"
)

// View normalizes the cart into the single line shape clients consume.
// Name and image come from the live product; the price is always the
// captured unit price. A product deleted after the add keeps its line,
// priced as captured, with the snapshot-less fields empty.
func (s *Service) View(ctx context.Context, c *models.Cart) (*transport.CartView, error) {
	view := transport.CartView{
		Lines: make([]transport.LineView, 0, len(c.Lines)),
		Total: c.Total,
	}
	for _, line := range c.Lines {
		lv := transport.LineView{
			LineID:    line.ID,
			ProductID: line.ProductID,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			LineTotal: line.UnitPrice * float64(line.Quantity),
		}
		product, err := s.Repo.GetProduct(ctx, line.ProductID)
		switch {
		case err == nil:
			lv.Name = product.Name
			lv.Image = product.Image
		case errors.Is(err, gorm.ErrRecordNotFound):
			// keep the line, product fields stay empty
		default:
			return nil, err
		}
		view.Lines = append(view.Lines, lv)
	}
	return &view, nil
}
