package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/shop-backend/internal/middleware"
	"github.com/judyrop/shop-backend/internal/service"
)

type CartHTTP struct {
	S service.CartService
	E ErrorWriter
}

func NewCartHTTP(s service.CartService, e ErrorWriter) *CartHTTP {
	return &CartHTTP{S: s, E: e}
}

func (h *CartHTTP) Get(c *gin.Context) {
	claims, _ := middleware.CurrentUser(c)
	items, err := h.S.Get(c.Request.Context(), claims.UserID)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	summary, err := h.S.Summary(c.Request.Context(), claims.UserID)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "summary": summary})
}

func (h *CartHTTP) Add(c *gin.Context) {
	var req struct {
		ProductID uint `json:"productId"`
		Quantity  int  `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON body"})
		return
	}
	if req.ProductID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Product ID is required"})
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	claims, _ := middleware.CurrentUser(c)
	item, err := h.S.Add(c.Request.Context(), claims.UserID, req.ProductID, req.Quantity)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	summary, err := h.S.Summary(c.Request.Context(), claims.UserID)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message":  "Product added to cart",
		"cartItem": item,
		"summary":  summary,
	})
}

func (h *CartHTTP) UpdateItem(c *gin.Context) {
	cartItemID, ok := pathID(c, "cartItemId")
	if !ok {
		return
	}
	var req struct {
		Quantity *int `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity == nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Quantity is required"})
		return
	}

	claims, _ := middleware.CurrentUser(c)
	if err := h.S.UpdateQuantity(c.Request.Context(), claims.UserID, cartItemID, *req.Quantity); err != nil {
		h.E.Write(c, err)
		return
	}
	summary, err := h.S.Summary(c.Request.Context(), claims.UserID)
	if err != nil {
		h.E.Write(c, err)
		return
	}

	message := "Cart updated"
	if *req.Quantity <= 0 {
		message = "Item removed from cart"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "summary": summary})
}

func (h *CartHTTP) RemoveItem(c *gin.Context) {
	cartItemID, ok := pathID(c, "cartItemId")
	if !ok {
		return
	}
	claims, _ := middleware.CurrentUser(c)
	if err := h.S.Remove(c.Request.Context(), claims.UserID, cartItemID); err != nil {
		h.E.Write(c, err)
		return
	}
	summary, err := h.S.Summary(c.Request.Context(), claims.UserID)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item removed from cart", "summary": summary})
}

func (h *CartHTTP) Clear(c *gin.Context) {
	claims, _ := middleware.CurrentUser(c)
	deleted, err := h.S.Clear(c.Request.Context(), claims.UserID)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared", "deletedCount": deleted})
}

func (h *CartHTTP) Summary(c *gin.Context) {
	claims, _ := middleware.CurrentUser(c)
	summary, err := h.S.Summary(c.Request.Context(), claims.UserID)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
