package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/shop-backend/internal/middleware"
	"github.com/judyrop/shop-backend/internal/service"
)

type OrderHTTP struct {
	S service.OrderService
	E ErrorWriter
}

func NewOrderHTTP(s service.OrderService, e ErrorWriter) *OrderHTTP {
	return &OrderHTTP{S: s, E: e}
}

func (h *OrderHTTP) Create(c *gin.Context) {
	var req struct {
		Items []service.OrderLine `json:"items"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON body"})
		return
	}

	claims, _ := middleware.CurrentUser(c)
	order, err := h.S.Place(c.Request.Context(), claims.UserID, req.Items)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order created successfully", "order": order})
}

func (h *OrderHTTP) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	claims, _ := middleware.CurrentUser(c)
	order, err := h.S.Get(c.Request.Context(), id, claims.UserID, claims.Role)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *OrderHTTP) MyOrders(c *gin.Context) {
	claims, _ := middleware.CurrentUser(c)
	orders, err := h.S.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *OrderHTTP) AllOrders(c *gin.Context) {
	orders, err := h.S.ListAll(c.Request.Context())
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

func (h *OrderHTTP) UpdateStatus(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON body"})
		return
	}

	order, err := h.S.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated successfully", "order": order})
}

func (h *OrderHTTP) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.S.Delete(c.Request.Context(), id); err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order deleted successfully"})
}
