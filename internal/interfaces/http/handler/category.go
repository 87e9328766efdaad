package handler

import (
	"strings"

	financeapp "github.com/erp/ledger/internal/application/finance"
	"github.com/erp/ledger/internal/domain/finance"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// CategoryHandler handles the category mapping dictionary
type CategoryHandler struct {
	BaseHandler
	categories *financeapp.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categories *financeapp.CategoryService) *CategoryHandler {
	return &CategoryHandler{categories: categories}
}

// RegisterRoutes mounts the category endpoints
func (h *CategoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	categories := rg.Group("/categories")
	categories.GET("", h.List)
	categories.POST("/confirm", h.Confirm)
	categories.GET("/suggest", h.Suggest)
	categories.GET("/unmapped", h.Unmapped)
}

// List godoc
// @Summary      List category mappings
// @Tags         categories
// @Success      200 {object} dto.Response{data=[]finance.CategoryMapping}
// @Router       /categories [get]
func (h *CategoryHandler) List(c *gin.Context) {
	mappings, err := h.categories.List(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if mappings == nil {
		mappings = []finance.CategoryMapping{}
	}
	h.Success(c, mappings)
}

// Confirm godoc
// @Summary      Confirm a category mapping
// @Tags         categories
// @Param        request body dto.ConfirmCategoryRequest true "Mapping"
// @Success      200 {object} dto.Response{data=finance.CategoryMapping}
// @Router       /categories/confirm [post]
func (h *CategoryHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmCategoryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	mapping, err := h.categories.Confirm(c.Request.Context(), financeapp.ConfirmCategoryInput{
		Label:    req.Label,
		Group:    finance.CategoryGroup(req.Group),
		Subgroup: req.Subgroup,
		Actor:    middleware.GetActor(c),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mapping)
}

// Suggest godoc
// @Summary      Suggest a classification for a label
// @Tags         categories
// @Param        label query string true "Category label"
// @Success      200 {object} dto.Response{data=finance.Suggestion}
// @Router       /categories/suggest [get]
func (h *CategoryHandler) Suggest(c *gin.Context) {
	label := strings.TrimSpace(c.Query("label"))
	if label == "" {
		h.ValidationError(c, []dto.ValidationDetail{{Field: "label", Message: "This field is required"}})
		return
	}
	h.Success(c, h.categories.Suggest(label))
}

// Unmapped godoc
// @Summary      List unmapped category labels with suggestions
// @Tags         categories
// @Param        start query string false "Start date"
// @Param        end query string false "End date"
// @Param        period_type query string false "MONTH, QUARTER, SEMESTER or YEAR"
// @Success      200 {object} dto.Response{data=[]financeapp.UnmappedSuggestion}
// @Router       /categories/unmapped [get]
func (h *CategoryHandler) Unmapped(c *gin.Context) {
	start, end, ok := h.reportRange(c)
	if !ok {
		return
	}
	suggestions, err := h.categories.SuggestUnmapped(c.Request.Context(), start, end)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, suggestions)
}
