package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"order-relay/internal/model"
	"order-relay/internal/repository"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type createOrderReq struct {
	CustomerName string `json:"customer_name"`
	ProductName  string `json:"product_name"`
	Status       string `json:"status"`
}

func listOrdersHandler(repo repository.OrdersRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		orders, err := repo.List(c.Request().Context())
		if err != nil {
			log.Errorf("list orders failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}

		return c.JSON(http.StatusOK, orders)
	}
}

func createOrderHandler(repo repository.OrdersRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createOrderReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		req.CustomerName = strings.TrimSpace(req.CustomerName)
		req.ProductName = strings.TrimSpace(req.ProductName)
		if req.CustomerName == "" || req.ProductName == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		order, err := repo.Create(c.Request().Context(), req.CustomerName, req.ProductName, req.Status)
		if err != nil {
			log.Errorf("create order failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}

		return c.JSON(http.StatusOK, order)
	}
}

func updateOrderHandler(repo repository.OrdersRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := orderID(c)
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
		}

		var patch model.OrderPatch
		if err := c.Bind(&patch); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		order, err := repo.Update(c.Request().Context(), id, patch)
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
		}
		if err != nil {
			log.Errorf("update order %d failed: %v", id, err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}

		return c.JSON(http.StatusOK, order)
	}
}

func deleteOrderHandler(repo repository.OrdersRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := orderID(c)
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
		}

		order, err := repo.Delete(c.Request().Context(), id)
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "not found"})
		}
		if err != nil {
			log.Errorf("delete order %d failed: %v", id, err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}

		return c.JSON(http.StatusOK, map[string]any{"deleted": true, "row": order})
	}
}

// orderID parses the :id path param. A non-numeric id can never exist,
// so it is reported as not found rather than a generic failure.
func orderID(c echo.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
