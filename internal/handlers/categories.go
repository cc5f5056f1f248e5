package handlers

import (
	"net/http"

	"taskboard/backend/internal/models"
	"taskboard/backend/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

type CategoryHandler struct {
	store *store.TaskStore
}

func NewCategoryHandler(st *store.TaskStore) *CategoryHandler {
	return &CategoryHandler{store: st}
}

func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var categoryInput struct {
		Name  string `json:"name" binding:"required"`
		Color string `json:"color" binding:"required"`
	}
	if err := c.ShouldBindJSON(&categoryInput); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	categoryID, err := uuid.NewV4()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "failed to generate category ID",
			"details": err.Error(),
		})
		return
	}

	category := models.Category{
		ID:    categoryID,
		Name:  categoryInput.Name,
		Color: categoryInput.Color,
	}
	h.store.AddCategory(category)
	c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) GetCategories(c *gin.Context) {
	categories := h.store.Categories()
	c.JSON(http.StatusOK, gin.H{
		"categories": categories,
		"total":      len(categories),
	})
}
