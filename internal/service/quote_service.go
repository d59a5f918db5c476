package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"gearrent/internal/domain"
	"gearrent/internal/repository"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrInvalidWindow   = errors.New("rental window invalid")
	ErrInvalidQuantity = errors.New("quantity invalid")
)

// QuoteService carga la tabla de tarifas de un producto y corre el
// calculador de precios sobre ella.
type QuoteService struct {
	logger   *zap.Logger
	products repository.ProductRepository
}

func NewQuoteService(logger *zap.Logger, products repository.ProductRepository) *QuoteService {
	return &QuoteService{
		logger:   logger,
		products: products,
	}
}

// QuoteProduct valida la entrada, resuelve el producto y calcula la
// cotización. ErrUnpriceable sube tal cual para que la capa HTTP lo
// distinga de un precio cero.
func (s *QuoteService) QuoteProduct(ctx context.Context, productID string, start, end time.Time, quantity int64) (domain.Quote, error) {
	if s.products == nil {
		return domain.Quote{}, errors.New("quote service not configured")
	}
	if !end.After(start) {
		return domain.Quote{}, ErrInvalidWindow
	}
	if quantity < 1 {
		return domain.Quote{}, ErrInvalidQuantity
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Quote{}, ErrProductNotFound
		}
		return domain.Quote{}, err
	}

	return CalculateQuote(start, end, quantity, product.Rates)
}
