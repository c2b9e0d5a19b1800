package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/judyrop/shop-backend/internal/service"
)

type CategoryHTTP struct {
	S service.CategoryService
	E ErrorWriter
}

func NewCategoryHTTP(s service.CategoryService, e ErrorWriter) *CategoryHTTP {
	return &CategoryHTTP{S: s, E: e}
}

func (h *CategoryHTTP) List(c *gin.Context) {
	categories, err := h.S.List(c.Request.Context())
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *CategoryHTTP) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	category, err := h.S.Get(c.Request.Context(), id)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHTTP) Create(c *gin.Context) {
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON body"})
		return
	}
	category, err := h.S.Create(c.Request.Context(), req.Name)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CategoryHTTP) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON body"})
		return
	}
	category, err := h.S.Update(c.Request.Context(), id, req.Name)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *CategoryHTTP) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.S.Delete(c.Request.Context(), id); err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted successfully"})
}

func (h *CategoryHTTP) Products(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	products, err := h.S.Products(c.Request.Context(), id)
	if err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *CategoryHTTP) AttachProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req struct {
		ProductID uint `json:"product_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.ProductID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "product_id is required"})
		return
	}
	if err := h.S.AttachProduct(c.Request.Context(), id, req.ProductID); err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Product added to category"})
}

func (h *CategoryHTTP) DetachProduct(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	productID, ok := pathID(c, "productId")
	if !ok {
		return
	}
	if err := h.S.DetachProduct(c.Request.Context(), id, productID); err != nil {
		h.E.Write(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product removed from category"})
}
