package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/shop-backend/internal/middleware"
	"github.com/judyrop/shop-backend/internal/service"
)

type PaymentHTTP struct {
	S service.PaymentService
	E ErrorWriter
}

func NewPaymentHTTP(s service.PaymentService, e ErrorWriter) *PaymentHTTP {
	return &PaymentHTTP{S: s, E: e}
}

func (h *PaymentHTTP) Create(c *gin.Context) {
	var req struct {
		OrderID       uint   `json:"orderId"`
		PaymentMethod string `json:"paymentMethod"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON body"})
		return
	}
	if req.OrderID == 0 || req.PaymentMethod == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Order ID and payment method are required"})
		return
	}

	claims, _ := middleware.CurrentUser(c)
	payment, err := h.S.Create(c.Request.Context(), req.OrderID, req.PaymentMethod, claims.UserID, claims.Role)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Payment created successfully", "payment": payment})
}

func (h *PaymentHTTP) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	claims, _ := middleware.CurrentUser(c)
	payment, err := h.S.Get(c.Request.Context(), id, claims.UserID, claims.Role)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

func (h *PaymentHTTP) MyPayments(c *gin.Context) {
	claims, _ := middleware.CurrentUser(c)
	payments, err := h.S.ListByUser(c.Request.Context(), claims.UserID)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (h *PaymentHTTP) AllPayments(c *gin.Context) {
	payments, err := h.S.ListAll(c.Request.Context())
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

func (h *PaymentHTTP) UpdateStatus(c *gin.Context) {
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

	claims, _ := middleware.CurrentUser(c)
	payment, err := h.S.UpdateStatus(c.Request.Context(), id, req.Status, claims.UserID, claims.Role)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payment status updated successfully", "payment": payment})
}
