package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/accessgate/access-system/internal/api/middleware"
)

// BusinessHandler serves the demo business endpoints. The data is mock; the
// point of these routes is exercising the permission matrix in front of them.
// The router gates each route with the matching (resource, operation) pair.
type BusinessHandler struct{}

func NewBusinessHandler() *BusinessHandler {
	return &BusinessHandler{}
}

type product struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
}

type order struct {
	ID          int     `json:"id"`
	IdentityID  string  `json:"identity_id"`
	TotalAmount float64 `json:"total_amount"`
	Status      string  `json:"status"`
}

// ListProducts handles GET /api/products. Requires products:read.
func (h *BusinessHandler) ListProducts(c echo.Context) error {
	products := []product{
		{ID: 1, Name: "Lenovo laptop", Price: 45000, Category: "electronics"},
		{ID: 2, Name: "Samsung phone", Price: 25000, Category: "electronics"},
		{ID: 3, Name: "Sony headphones", Price: 8000, Category: "accessories"},
	}
	return c.JSON(http.StatusOK, products)
}

// GetProduct handles GET /api/products/:id. Requires products:read.
func (h *BusinessHandler) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid product id")
	}
	return c.JSON(http.StatusOK, product{
		ID:       id,
		Name:     "Product " + c.Param("id"),
		Price:    float64(1000 * id),
		Category: "electronics",
	})
}

// CreateProduct handles POST /api/products. Requires products:create.
func (h *BusinessHandler) CreateProduct(c echo.Context) error {
	var body map[string]any
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"message": "product created",
		"data":    body,
	})
}

// UpdateProduct handles PUT /api/products/:id. Requires products:update or
// products:update_all; the own/all distinction would matter once products
// carried real owners.
func (h *BusinessHandler) UpdateProduct(c echo.Context) error {
	var body map[string]any
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"message":    "product updated",
		"product_id": c.Param("id"),
		"data":       body,
	})
}

// DeleteProduct handles DELETE /api/products/:id. Requires products:delete or
// products:delete_all.
func (h *BusinessHandler) DeleteProduct(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"message":    "product deleted",
		"product_id": c.Param("id"),
	})
}

// ListOrders handles GET /api/orders. Requires orders:read.
func (h *BusinessHandler) ListOrders(c echo.Context) error {
	identity := middleware.CurrentIdentity(c)
	orders := []order{
		{ID: 1, IdentityID: identity.ID, TotalAmount: 53000, Status: "completed"},
		{ID: 2, IdentityID: identity.ID, TotalAmount: 12000, Status: "processing"},
	}
	return c.JSON(http.StatusOK, orders)
}

// CreateOrder handles POST /api/orders. Requires orders:create.
func (h *BusinessHandler) CreateOrder(c echo.Context) error {
	var body map[string]any
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	return c.JSON(http.StatusCreated, map[string]any{
		"message":  "order created",
		"order_id": 123,
	})
}

// Dashboard handles GET /api/dashboard. Requires dashboard:read.
func (h *BusinessHandler) Dashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"total_products": 156,
		"total_orders":   42,
		"total_users":    23,
		"revenue":        1250000,
	})
}
