package handler

import (
	"fmt"
	"strings"

	financeapp "github.com/erp/ledger/internal/application/finance"
	csvimport "github.com/erp/ledger/internal/infrastructure/import"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// LedgerHandler handles import staging, commit and record lookup
type LedgerHandler struct {
	BaseHandler
	importer *csvimport.Importer
	staging  *financeapp.StagingService
	commit   *financeapp.CommitService
}

// NewLedgerHandler creates a new LedgerHandler
func NewLedgerHandler(importer *csvimport.Importer, staging *financeapp.StagingService, commit *financeapp.CommitService) *LedgerHandler {
	return &LedgerHandler{
		importer: importer,
		staging:  staging,
		commit:   commit,
	}
}

// RegisterRoutes mounts the ledger endpoints
func (h *LedgerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	ledger := rg.Group("/ledger/:variant")
	ledger.POST("/stage", h.Stage)
	ledger.POST("/commit", h.Commit)
	ledger.GET("/records/*id", h.GetRecord)
}

// Stage godoc
// @Summary      Stage an import batch
// @Description  Accepts a CSV upload (multipart "file" or text/csv body) or JSON rows and classifies every record as NEW, CHANGED or UNCHANGED
// @Tags         ledger
// @Param        variant path string true "receivable or payable"
// @Success      200 {object} dto.Response{data=dto.StageResponse}
// @Router       /ledger/{variant}/stage [post]
func (h *LedgerHandler) Stage(c *gin.Context) {
	variant, ok := h.variantParam(c)
	if !ok {
		return
	}

	var (
		result *csvimport.Result
		err    error
	)
	switch contentType := c.ContentType(); {
	case strings.HasPrefix(contentType, "multipart/"):
		file, ferr := c.FormFile("file")
		if ferr != nil {
			h.BadRequest(c, "multipart upload requires a \"file\" field")
			return
		}
		f, ferr := file.Open()
		if ferr != nil {
			h.BadRequest(c, fmt.Sprintf("cannot open upload: %v", ferr))
			return
		}
		defer f.Close()
		result, err = h.importer.ReadCSV(f, variant)
	case contentType == "text/csv" || contentType == "text/plain" || contentType == "application/octet-stream":
		result, err = h.importer.ReadCSV(c.Request.Body, variant)
	default:
		var req dto.StageRequest
		if !h.bindJSON(c, &req) {
			return
		}
		result, err = h.importer.MapRows(variant, req.Rows)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	staged, err := h.staging.Stage(c.Request.Context(), variant, result.Records)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp := dto.StageResponse{
		Variant: staged.Variant,
		Items:   staged.Items,
		Summary: staged.Summary,
	}
	for _, col := range result.UnknownHeaders {
		resp.Warnings = append(resp.Warnings, fmt.Sprintf("column %q was ignored", col))
	}
	h.Success(c, resp)
}

// Commit godoc
// @Summary      Commit a staged batch
// @Tags         ledger
// @Param        variant path string true "receivable or payable"
// @Param        request body dto.CommitRequest true "Reviewed staged items"
// @Success      200 {object} dto.Response{data=financeapp.CommitResult}
// @Router       /ledger/{variant}/commit [post]
func (h *LedgerHandler) Commit(c *gin.Context) {
	variant, ok := h.variantParam(c)
	if !ok {
		return
	}
	var req dto.CommitRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.commit.Commit(c.Request.Context(), financeapp.CommitRequest{
		Variant:    variant,
		Items:      req.Items,
		Actor:      middleware.GetActor(c),
		SourceName: req.SourceName,
		BatchSize:  req.BatchSize,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetRecord godoc
// @Summary      Get a persisted record
// @Tags         ledger
// @Param        variant path string true "receivable or payable"
// @Param        id path string true "Record id, may contain slashes"
// @Success      200 {object} dto.Response{data=finance.LedgerRecord}
// @Router       /ledger/{variant}/records/{id} [get]
func (h *LedgerHandler) GetRecord(c *gin.Context) {
	variant, ok := h.variantParam(c)
	if !ok {
		return
	}
	record, err := h.staging.Record(c.Request.Context(), variant, strings.TrimPrefix(c.Param("id"), "/"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}
