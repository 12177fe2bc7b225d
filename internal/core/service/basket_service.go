package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/singleflight"

	"github.com/lqhuy/marketplace/internal/core/domain"
	"github.com/lqhuy/marketplace/internal/port"
)

// BasketService owns every business rule around mutating a user's active
// basket and transitioning it to a completed order. Callers pass an already
// authenticated user ID; credentials are never re-verified here.
type BasketService struct {
	store     port.BasketStore
	inventory port.InventoryGateway
	cache     port.BasketCache
	tx        port.TxManager
	sfg       singleflight.Group // collapses concurrent basket reads per user
}

func NewBasketService(store port.BasketStore, inventory port.InventoryGateway, cache port.BasketCache, tx port.TxManager) *BasketService {
	return &BasketService{
		store:     store,
		inventory: inventory,
		cache:     cache,
		tx:        tx,
	}
}

type CheckoutResult struct {
	Order     *domain.BasketView `json:"order"`
	Message   string             `json:"message"`
	NewBasket *domain.BasketView `json:"new_basket"`
}

// GetBasket returns the user's active basket, creating one if absent.
func (s *BasketService) GetBasket(ctx context.Context, userID string) (*domain.BasketView, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		view, err := s.cache.GetBasketView(ctx, userID)
		if err == nil {
			return view, nil
		}
		if !errors.Is(err, port.ErrCacheMiss) {
			log.Printf("basket cache get failed for user %s: %v", userID, err)
		}

		basket, err := s.store.GetOrCreateActiveBasket(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("get or create basket: %w", err)
		}

		view, err = s.buildView(ctx, basket)
		if err != nil {
			return nil, err
		}

		s.putCache(ctx, userID, view)
		return view, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.BasketView), nil
}

// AddItem adds quantity of a product to the user's active basket, merging
// into an existing line item if present. The stock check is additive: the
// prospective total (existing + requested) must not exceed current stock.
// The read-validate-upsert sequence runs in one transaction with the product
// row locked, so two concurrent adds cannot jointly oversell.
func (s *BasketService) AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.BasketView, string, error) {
	if quantity <= 0 {
		return nil, "", &InvalidQuantityError{Reason: "quantity must be positive"}
	}

	var (
		view    *domain.BasketView
		message string
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		product, err := s.inventory.GetProductForUpdate(ctx, productID)
		if err != nil {
			return fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			return ErrProductNotFound
		}

		basket, err := s.store.GetOrCreateActiveBasket(ctx, userID)
		if err != nil {
			return fmt.Errorf("get or create basket: %w", err)
		}

		existing, err := s.store.GetLineItem(ctx, basket.ID, productID)
		if err != nil {
			return fmt.Errorf("get line item: %w", err)
		}
		existingQty := 0
		if existing != nil {
			existingQty = existing.Quantity
		}

		if existingQty+quantity > product.Stock {
			max := product.Stock - existingQty
			return insufficientStock(product.ID, max, "cannot add %d, maximum available: %d", quantity, max)
		}

		_, created, err := s.store.UpsertLineItem(ctx, basket.ID, productID, quantity)
		if err != nil {
			return fmt.Errorf("upsert line item: %w", err)
		}
		if created {
			message = "Product added to basket"
		} else {
			message = "Product updated in basket"
		}

		view, err = s.buildViewByID(ctx, basket.ID)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	s.putCache(ctx, userID, view)
	return view, message, nil
}

// UpdateItem sets the absolute quantity of a line item. Quantity zero removes
// the item and is a no-op success when the item is already gone. Unlike
// AddItem, the stock check compares the absolute requested quantity against
// current stock.
func (s *BasketService) UpdateItem(ctx context.Context, userID, productID string, quantity int) (*domain.BasketView, string, error) {
	if quantity < 0 {
		return nil, "", &InvalidQuantityError{Reason: "quantity cannot be negative"}
	}

	var (
		view    *domain.BasketView
		message string
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		basket, err := s.store.GetActiveBasket(ctx, userID)
		if err != nil {
			return fmt.Errorf("get basket: %w", err)
		}
		if basket == nil {
			return ErrBasketNotFound
		}

		if quantity > 0 {
			product, err := s.inventory.GetProductForUpdate(ctx, productID)
			if err != nil {
				return fmt.Errorf("get product: %w", err)
			}
			if product == nil {
				return ErrProductNotFound
			}
			if quantity > product.Stock {
				return insufficientStock(product.ID, product.Stock, "not enough stock, available: %d", product.Stock)
			}
		}

		item, err := s.store.SetLineItemQuantity(ctx, basket.ID, productID, quantity)
		if err != nil {
			return fmt.Errorf("set line item quantity: %w", err)
		}
		if item == nil && quantity > 0 {
			return ErrItemNotFound
		}

		if quantity == 0 {
			message = "Item removed from basket"
		} else {
			message = "Item quantity updated"
		}

		view, err = s.buildViewByID(ctx, basket.ID)
		return err
	})
	if err != nil {
		return nil, "", err
	}

	s.putCache(ctx, userID, view)
	return view, message, nil
}

// RemoveItem deletes a product's line item from the active basket.
func (s *BasketService) RemoveItem(ctx context.Context, userID, productID string) (*domain.BasketView, string, error) {
	basket, err := s.store.GetActiveBasket(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("get basket: %w", err)
	}
	if basket == nil {
		return nil, "", ErrBasketNotFound
	}

	removed, err := s.store.RemoveLineItem(ctx, basket.ID, productID)
	if err != nil {
		return nil, "", fmt.Errorf("remove line item: %w", err)
	}
	if !removed {
		return nil, "", ErrItemNotFound
	}

	view, err := s.buildViewByID(ctx, basket.ID)
	if err != nil {
		return nil, "", err
	}

	s.putCache(ctx, userID, view)
	return view, "Item removed from basket", nil
}

// ClearBasket empties all line items from the active basket.
func (s *BasketService) ClearBasket(ctx context.Context, userID string) (*domain.BasketView, string, error) {
	basket, err := s.store.GetActiveBasket(ctx, userID)
	if err != nil {
		return nil, "", fmt.Errorf("get basket: %w", err)
	}
	if basket == nil {
		return nil, "", ErrBasketNotFound
	}

	if err := s.store.ClearLineItems(ctx, basket.ID); err != nil {
		return nil, "", fmt.Errorf("clear line items: %w", err)
	}

	view, err := s.buildViewByID(ctx, basket.ID)
	if err != nil {
		return nil, "", err
	}

	s.putCache(ctx, userID, view)
	return view, "Basket cleared", nil
}

// Checkout atomically turns the active basket into a completed order:
// validate stock for every line item, decrement every product's stock, mark
// the basket completed and create a fresh active basket. Either every effect
// lands or none does.
func (s *BasketService) Checkout(ctx context.Context, userID string) (*CheckoutResult, error) {
	var result CheckoutResult
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		basket, err := s.store.GetActiveBasket(ctx, userID)
		if err != nil {
			return fmt.Errorf("get basket: %w", err)
		}
		if basket == nil {
			return ErrBasketNotFound
		}

		items, err := s.store.ListLineItems(ctx, basket.ID)
		if err != nil {
			return fmt.Errorf("list line items: %w", err)
		}
		if len(items) == 0 {
			return ErrEmptyBasket
		}

		// Validate everything before mutating anything. The row locks taken
		// here serialize conflicting checkouts over the same products.
		for _, item := range items {
			product, err := s.inventory.GetProductForUpdate(ctx, item.ProductID)
			if err != nil {
				return fmt.Errorf("get product: %w", err)
			}
			if product == nil {
				return ErrProductNotFound
			}
			if product.Stock < item.Quantity {
				return insufficientStock(product.ID, product.Stock,
					"product %q is out of stock, available: %d", product.Name, product.Stock)
			}
		}

		for _, item := range items {
			if err := s.inventory.DecrementStock(ctx, item.ProductID, item.Quantity); err != nil {
				if errors.Is(err, port.ErrStockConflict) {
					available := 0
					if product, perr := s.inventory.GetProduct(ctx, item.ProductID); perr == nil && product != nil {
						available = product.Stock
					}
					return insufficientStock(item.ProductID, available,
						"product %s is out of stock, available: %d", item.ProductID, available)
				}
				return fmt.Errorf("decrement stock: %w", err)
			}
		}

		if err := s.store.MarkCompleted(ctx, basket.ID); err != nil {
			if errors.Is(err, port.ErrBasketConflict) {
				// A concurrent checkout completed this basket first. Returning
				// the error aborts the transaction, undoing our decrements.
				return ErrBasketNotFound
			}
			return fmt.Errorf("complete basket: %w", err)
		}

		fresh, err := s.store.CreateBasket(ctx, userID)
		if err != nil {
			return fmt.Errorf("create replacement basket: %w", err)
		}

		order, err := s.buildViewByID(ctx, basket.ID)
		if err != nil {
			return err
		}
		newView, err := s.buildViewByID(ctx, fresh.ID)
		if err != nil {
			return err
		}

		result = CheckoutResult{
			Order:     order,
			Message:   "Checkout successful",
			NewBasket: newView,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.putCache(ctx, userID, result.NewBasket)
	return &result, nil
}

// GetOrderHistory returns the user's completed baskets, newest first.
func (s *BasketService) GetOrderHistory(ctx context.Context, userID string) ([]*domain.BasketView, error) {
	baskets, err := s.store.ListBasketsByUser(ctx, userID, domain.BasketStatusCompleted)
	if err != nil {
		return nil, fmt.Errorf("list baskets: %w", err)
	}

	orders := make([]*domain.BasketView, 0, len(baskets))
	for i := range baskets {
		view, err := s.buildView(ctx, &baskets[i])
		if err != nil {
			return nil, err
		}
		orders = append(orders, view)
	}
	return orders, nil
}

// buildView serializes a basket with line totals computed from current
// product prices. Items whose product has vanished are omitted.
func (s *BasketService) buildView(ctx context.Context, basket *domain.Basket) (*domain.BasketView, error) {
	items, err := s.store.ListLineItems(ctx, basket.ID)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}

	views := make([]domain.LineItemView, 0, len(items))
	total := 0.0
	for _, item := range items {
		product, err := s.inventory.GetProduct(ctx, item.ProductID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if product == nil {
			continue
		}
		subtotal := product.Price * float64(item.Quantity)
		views = append(views, domain.LineItemView{
			ID:       item.ID,
			Product:  product.View(),
			Quantity: item.Quantity,
			Subtotal: subtotal,
			AddedAt:  item.AddedAt,
		})
		total += subtotal
	}

	return &domain.BasketView{
		ID:         basket.ID,
		UserID:     basket.UserID,
		Status:     basket.Status,
		Items:      views,
		TotalItems: len(views),
		TotalPrice: total,
		CreatedAt:  basket.CreatedAt,
		UpdatedAt:  basket.UpdatedAt,
	}, nil
}

func (s *BasketService) buildViewByID(ctx context.Context, basketID string) (*domain.BasketView, error) {
	basket, err := s.store.GetBasketByID(ctx, basketID)
	if err != nil {
		return nil, fmt.Errorf("get basket: %w", err)
	}
	if basket == nil {
		return nil, ErrBasketNotFound
	}
	return s.buildView(ctx, basket)
}

// putCache refreshes the cached view after a committed change. When the write
// fails the entry is invalidated instead, so a stale pre-mutation view never
// outlives the mutation; the store remains the source of truth either way.
func (s *BasketService) putCache(ctx context.Context, userID string, view *domain.BasketView) {
	if err := s.cache.SetBasketView(ctx, userID, view); err != nil {
		log.Printf("basket cache set failed for user %s: %v", userID, err)
		if err := s.cache.Invalidate(ctx, userID); err != nil {
			log.Printf("basket cache invalidate failed for user %s: %v", userID, err)
		}
	}
}
