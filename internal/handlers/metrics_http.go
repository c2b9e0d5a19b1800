package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/shop-backend/internal/service"
)

// MetricsHTTP serves the admin dashboard aggregates.
type MetricsHTTP struct {
	S service.MetricsService
	E ErrorWriter
}

func NewMetricsHTTP(s service.MetricsService, e ErrorWriter) *MetricsHTTP {
	return &MetricsHTTP{S: s, E: e}
}

func (h *MetricsHTTP) Overview(c *gin.Context) {
	out, err := h.S.Overview(c.Request.Context())
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MetricsHTTP) Users(c *gin.Context) {
	out, err := h.S.Users(c.Request.Context())
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MetricsHTTP) Products(c *gin.Context) {
	out, err := h.S.Products(c.Request.Context())
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MetricsHTTP) Orders(c *gin.Context) {
	out, err := h.S.Orders(c.Request.Context())
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MetricsHTTP) Categories(c *gin.Context) {
	out, err := h.S.Categories(c.Request.Context())
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MetricsHTTP) DailyOrders(c *gin.Context) {
	out, err := h.S.DailyOrders(c.Request.Context())
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MetricsHTTP) TopProducts(c *gin.Context) {
	out, err := h.S.TopSellingProducts(c.Request.Context())
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MetricsHTTP) ClearCache(c *gin.Context) {
	if err := h.S.ClearCache(c.Request.Context()); err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Metrics cache cleared"})
}
