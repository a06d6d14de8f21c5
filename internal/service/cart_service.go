package service

import (
	"context"
	"fmt"

	"storefront/internal/cart"
	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// cartService implements CartService.
type cartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
	calc        *cart.Calculator
	logger      zerolog.Logger
}

// NewCartService creates a new cart service.
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	calc *cart.Calculator,
	logger zerolog.Logger,
) CartService {
	return &cartService{
		cartRepo:    cartRepo,
		productRepo: productRepo,
		calc:        calc,
		logger:      logger.With().Str("service", "cart").Logger(),
	}
}

// GetCart retrieves the customer's cart with computed totals.
func (s *cartService) GetCart(ctx context.Context, customerID uuid.UUID) (*model.CartResponse, error) {
	c, err := s.cartRepo.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return s.respond(c), nil
}

// AddItem adds a product to the cart after checking purchasability.
func (s *cartService) AddItem(ctx context.Context, customerID uuid.UUID, req *model.AddCartItemRequest) (*model.CartResponse, error) {
	if req.Quantity <= 0 {
		return nil, model.ErrInvalidQuantity
	}

	if _, err := s.resolvePurchasable(ctx, req.ProductID, req.VariantID); err != nil {
		return nil, err
	}

	c, err := s.cartRepo.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}

	line := &model.CartLine{
		ID:        uuid.New(),
		CartID:    c.ID,
		ProductID: req.ProductID,
		VariantID: req.VariantID,
		Quantity:  req.Quantity,
	}
	if err := s.cartRepo.UpsertLine(ctx, line); err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	s.logger.Debug().
		Str("customer_id", customerID.String()).
		Str("product_id", req.ProductID.String()).
		Int("quantity", req.Quantity).
		Msg("cart item added")

	return s.GetCart(ctx, customerID)
}

// UpdateItem sets a line's quantity; zero or less removes the line.
func (s *cartService) UpdateItem(ctx context.Context, customerID, lineID uuid.UUID, quantity int) (*model.CartResponse, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, customerID, lineID)
	}

	if err := s.cartRepo.UpdateLineQuantity(ctx, lineID, quantity); err != nil {
		return nil, err
	}

	return s.GetCart(ctx, customerID)
}

// RemoveItem removes a single line.
func (s *cartService) RemoveItem(ctx context.Context, customerID, lineID uuid.UUID) (*model.CartResponse, error) {
	if err := s.cartRepo.DeleteLine(ctx, lineID); err != nil {
		return nil, err
	}
	return s.GetCart(ctx, customerID)
}

// Clear removes all lines from the customer's cart.
func (s *cartService) Clear(ctx context.Context, customerID uuid.UUID) error {
	c, err := s.cartRepo.GetByCustomer(ctx, customerID)
	if err != nil {
		return fmt.Errorf("failed to get cart: %w", err)
	}
	return s.cartRepo.Clear(ctx, nil, c.ID)
}

// respond assembles the cart view with totals.
func (s *cartService) respond(c *model.Cart) *model.CartResponse {
	subtotal := s.calc.Subtotal(c.Lines)
	tax := s.calc.TaxAmount(subtotal)
	return &model.CartResponse{
		Cart:     c,
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// resolvePurchasable loads the product (and variant, when given), checks
// that the variant belongs to the product and that both are sellable.
func (s *cartService) resolvePurchasable(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to load product: %w", err)
	}
	if product == nil {
		return nil, model.ErrProductNotFound
	}
	if !product.Purchasable() {
		return nil, model.ErrNotPurchasable
	}

	if variantID != nil {
		variant, err := s.productRepo.GetVariantByID(ctx, *variantID)
		if err != nil {
			return nil, fmt.Errorf("failed to load variant: %w", err)
		}
		if variant == nil {
			return nil, model.ErrProductNotFound
		}
		if variant.ProductID != product.ID {
			return nil, model.ErrVariantMismatch
		}
		if !variant.Purchasable() {
			return nil, model.ErrNotPurchasable
		}
	}

	return product, nil
}
