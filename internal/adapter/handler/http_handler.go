package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/lqhuy/marketplace/internal/core/domain"
	"github.com/lqhuy/marketplace/internal/core/service"
)

type BasketEngine interface {
	GetBasket(ctx context.Context, userID string) (*domain.BasketView, error)
	AddItem(ctx context.Context, userID, productID string, quantity int) (*domain.BasketView, string, error)
	UpdateItem(ctx context.Context, userID, productID string, quantity int) (*domain.BasketView, string, error)
	RemoveItem(ctx context.Context, userID, productID string) (*domain.BasketView, string, error)
	ClearBasket(ctx context.Context, userID string) (*domain.BasketView, string, error)
	Checkout(ctx context.Context, userID string) (*service.CheckoutResult, error)
	GetOrderHistory(ctx context.Context, userID string) ([]*domain.BasketView, error)
}

type AuthProvider interface {
	Signup(ctx context.Context, username, email, password string) (*service.AuthResult, error)
	Login(ctx context.Context, username, password string) (*service.AuthResult, error)
}

type ProductCatalog interface {
	CreateProduct(ctx context.Context, actor *domain.User, in service.CreateProductInput) (*domain.ProductView, error)
	GetProduct(ctx context.Context, productID string) (*domain.ProductView, error)
	ListProducts(ctx context.Context, page, perPage int, category, search string) (*service.ProductPage, error)
	UpdateProduct(ctx context.Context, actor *domain.User, productID string, update domain.ProductUpdate) (*domain.ProductView, error)
	DeleteProduct(ctx context.Context, actor *domain.User, productID string) error
	Categories(ctx context.Context) ([]string, error)
}

type HTTPHandler struct {
	baskets  BasketEngine
	auth     AuthProvider
	products ProductCatalog
}

func NewHTTPHandler(baskets BasketEngine, auth AuthProvider, products ProductCatalog) *HTTPHandler {
	return &HTTPHandler{baskets: baskets, auth: auth, products: products}
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- auth ---

type signupRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *HTTPHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.auth.Signup(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, "User registered successfully", result)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Login successful", result)
}

// --- products ---

type createProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"image_url"`
}

func (h *HTTPHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.products.CreateProduct(r.Context(), userFromContext(r.Context()), service.CreateProductInput{
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusCreated, "Product created successfully", product)
}

func (h *HTTPHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.products.GetProduct(r.Context(), chi.URLParam(r, "productID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Product retrieved successfully", product)
}

func (h *HTTPHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))

	result, err := h.products.ListProducts(r.Context(), page, perPage, q.Get("category"), q.Get("search"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Products retrieved successfully", result)
}

type updateProductRequest struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Stock       *int     `json:"stock"`
	Category    *string  `json:"category"`
	ImageURL    *string  `json:"image_url"`
}

func (h *HTTPHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var req updateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product, err := h.products.UpdateProduct(r.Context(), userFromContext(r.Context()),
		chi.URLParam(r, "productID"), domain.ProductUpdate{
			Name:        req.Name,
			Description: req.Description,
			Price:       req.Price,
			Stock:       req.Stock,
			Category:    req.Category,
			ImageURL:    req.ImageURL,
		})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Product updated successfully", product)
}

func (h *HTTPHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	err := h.products.DeleteProduct(r.Context(), userFromContext(r.Context()), chi.URLParam(r, "productID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Product deleted successfully", nil)
}

func (h *HTTPHandler) Categories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.products.Categories(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Categories retrieved successfully", map[string]any{"categories": categories})
}

// --- basket ---

func (h *HTTPHandler) GetBasket(w http.ResponseWriter, r *http.Request) {
	basket, err := h.baskets.GetBasket(r.Context(), userFromContext(r.Context()).ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Basket retrieved successfully", basket)
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

func (h *HTTPHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	// Quantity defaults to 1 when omitted.
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	basket, message, err := h.baskets.AddItem(r.Context(), userFromContext(r.Context()).ID, req.ProductID, quantity)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, message, basket)
}

type updateItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  *int   `json:"quantity"`
}

func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.ProductID == "" || req.Quantity == nil {
		respondError(w, http.StatusBadRequest, "product_id and quantity are required")
		return
	}

	basket, message, err := h.baskets.UpdateItem(r.Context(), userFromContext(r.Context()).ID, req.ProductID, *req.Quantity)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, message, basket)
}

func (h *HTTPHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	basket, message, err := h.baskets.RemoveItem(r.Context(), userFromContext(r.Context()).ID, chi.URLParam(r, "productID"))
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, message, basket)
}

func (h *HTTPHandler) ClearBasket(w http.ResponseWriter, r *http.Request) {
	basket, message, err := h.baskets.ClearBasket(r.Context(), userFromContext(r.Context()).ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, message, basket)
}

func (h *HTTPHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	result, err := h.baskets.Checkout(r.Context(), userFromContext(r.Context()).ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, result.Message, result)
}

func (h *HTTPHandler) GetOrderHistory(w http.ResponseWriter, r *http.Request) {
	orders, err := h.baskets.GetOrderHistory(r.Context(), userFromContext(r.Context()).ID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondSuccess(w, http.StatusOK, "Order history retrieved successfully", map[string]any{"orders": orders})
}
