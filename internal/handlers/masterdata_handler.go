package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "pricebook/internal/errors"
	"pricebook/internal/models"
	"pricebook/internal/pagination"
	"pricebook/internal/services"
)

// MasterDataHandler handles lifecycle requests for every master-data
// category. The category is a path parameter; the registry picks the
// matching lifecycle manager.
type MasterDataHandler struct {
	masterData   services.MasterDataServicer
	auditService services.AuditServicer
}

// NewMasterDataHandler creates a new MasterDataHandler.
func NewMasterDataHandler(masterData services.MasterDataServicer, auditService services.AuditServicer) *MasterDataHandler {
	return &MasterDataHandler{masterData: masterData, auditService: auditService}
}

// categoryURI binds the :category path parameter.
type categoryURI struct {
	Category string `uri:"category" binding:"required,md_category"`
}

// manager resolves the lifecycle manager for the :category path parameter.
func (h *MasterDataHandler) manager(c *gin.Context) (services.LifecycleServicer, bool) {
	var uri categoryURI
	if err := c.ShouldBindUri(&uri); err != nil {
		respondWithError(c, apperrors.ErrUnknownCategory)
		return nil, false
	}

	manager, err := h.masterData.ForCategory(models.Category(uri.Category))
	if err != nil {
		respondWithError(c, err)
		return nil, false
	}
	return manager, true
}

// CreateRecordRequest represents the request payload for opening a draft.
type CreateRecordRequest struct {
	NaturalKey      string          `json:"natural_key" binding:"required,min=1,max=100"`
	CustomerGroupID string          `json:"customer_group_id" binding:"max=100"`
	Value           decimal.Decimal `json:"value" binding:"required"`
	Currency        string          `json:"currency" binding:"omitempty,iso4217"`
	ChangeReason    string          `json:"change_reason" binding:"max=500"`
}

// UpdateRecordRequest represents the request payload for editing a record.
type UpdateRecordRequest struct {
	Value        *decimal.Decimal `json:"value"`
	Currency     *string          `json:"currency" binding:"omitempty,iso4217"`
	ChangeReason *string          `json:"change_reason" binding:"omitempty,max=500"`
}

// ListRecordsQuery represents the list endpoint's filter parameters.
type ListRecordsQuery struct {
	NaturalKey      string `form:"natural_key"`
	CustomerGroupID string `form:"customer_group_id"`
	Status          string `form:"status" binding:"omitempty,record_status"`
}

// CreateRecord opens a new draft for a natural key.
// @Summary     Create a draft record
// @Description Open a new master-data draft for a natural key, optionally scoped to a customer group
// @Tags        master-data
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       category path string true "Master-data category"
// @Param       request body CreateRecordRequest true "Record details"
// @Success     201 {object} models.MasterDataRecord "Draft created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Draft already exists"
// @Router      /master-data/{category} [post]
func (h *MasterDataHandler) CreateRecord(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	manager, ok := h.manager(c)
	if !ok {
		return
	}

	var req CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	record, err := manager.Create(req.NaturalKey, req.CustomerGroupID, req.Value, req.Currency, userID, req.ChangeReason)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_RECORD", string(manager.Category()), record.ID, c.ClientIP(),
		map[string]interface{}{"natural_key": req.NaturalKey, "customer_group_id": req.CustomerGroupID, "value": req.Value})

	c.JSON(http.StatusCreated, gin.H{"record": record})
}

// UpdateRecord edits a record; non-draft targets spawn or update a draft.
// @Summary     Update a record
// @Description Patch a draft in place, or spawn/update the sibling draft of an active or archived record
// @Tags        master-data
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       category path string true "Master-data category"
// @Param       id       path string true "Record ID"
// @Param       request body UpdateRecordRequest true "Fields to change"
// @Success     200 {object} models.MasterDataRecord "Draft holding the change"
// @Failure     404 {object} ErrorResponse "Record not found"
// @Router      /master-data/{category}/{id} [put]
func (h *MasterDataHandler) UpdateRecord(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	manager, ok := h.manager(c)
	if !ok {
		return
	}

	id, err := pathID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	record, err := manager.Update(id, services.RecordPatch{
		Value:        req.Value,
		Currency:     req.Currency,
		ChangeReason: req.ChangeReason,
	}, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_RECORD", string(manager.Category()), record.ID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"record": record})
}

// ApproveRecord promotes a draft to active, archiving the previous active.
// @Summary     Approve a draft
// @Description Atomically archive the current active record for the key and activate the draft
// @Tags        master-data
// @Produce     json
// @Security    BearerAuth
// @Param       category path string true "Master-data category"
// @Param       id       path string true "Record ID"
// @Success     200 {object} models.MasterDataRecord "Activated record"
// @Failure     404 {object} ErrorResponse "Record not found"
// @Failure     409 {object} ErrorResponse "Record is not a draft"
// @Router      /master-data/{category}/{id}/approve [post]
func (h *MasterDataHandler) ApproveRecord(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	manager, ok := h.manager(c)
	if !ok {
		return
	}

	id, err := pathID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	record, err := manager.Approve(id, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "APPROVE_RECORD", string(manager.Category()), record.ID, c.ClientIP(),
		map[string]interface{}{"natural_key": record.NaturalKey, "version": record.Version})

	c.JSON(http.StatusOK, gin.H{"record": record})
}

// RollbackRecord reopens an archived version as a new draft.
// @Summary     Roll back to an archived version
// @Description Create a fresh draft copying the archived record's values; it must pass approval again
// @Tags        master-data
// @Produce     json
// @Security    BearerAuth
// @Param       category path string true "Master-data category"
// @Param       id       path string true "Archived record ID"
// @Success     201 {object} models.MasterDataRecord "New draft"
// @Failure     404 {object} ErrorResponse "Record not found"
// @Failure     409 {object} ErrorResponse "Record is not archived"
// @Router      /master-data/{category}/{id}/rollback [post]
func (h *MasterDataHandler) RollbackRecord(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	manager, ok := h.manager(c)
	if !ok {
		return
	}

	id, err := pathID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	record, err := manager.Rollback(id, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "ROLLBACK_RECORD", string(manager.Category()), record.ID, c.ClientIP(),
		map[string]interface{}{"natural_key": record.NaturalKey, "version": record.Version})

	c.JSON(http.StatusCreated, gin.H{"record": record})
}

// DeleteRecord removes a draft.
// @Summary     Delete a draft
// @Tags        master-data
// @Produce     json
// @Security    BearerAuth
// @Param       category path string true "Master-data category"
// @Param       id       path string true "Record ID"
// @Success     204 "Deleted"
// @Failure     404 {object} ErrorResponse "Record not found"
// @Failure     409 {object} ErrorResponse "Record is not a draft"
// @Router      /master-data/{category}/{id} [delete]
func (h *MasterDataHandler) DeleteRecord(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	manager, ok := h.manager(c)
	if !ok {
		return
	}

	id, err := pathID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := manager.Delete(id); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_RECORD", string(manager.Category()), id, c.ClientIP(), nil)

	c.Status(http.StatusNoContent)
}

// GetHistory lists every version sharing the record's key, newest first.
// @Summary     Get record history
// @Tags        master-data
// @Produce     json
// @Security    BearerAuth
// @Param       category path string true "Master-data category"
// @Param       id       path string true "Record ID"
// @Success     200 {array} models.MasterDataRecord
// @Failure     404 {object} ErrorResponse "Record not found"
// @Router      /master-data/{category}/{id}/history [get]
func (h *MasterDataHandler) GetHistory(c *gin.Context) {
	manager, ok := h.manager(c)
	if !ok {
		return
	}

	id, err := pathID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	records, err := manager.History(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"records": records})
}

// GetActive returns the effective active record for a natural key.
// @Summary     Get the active record for a key
// @Tags        master-data
// @Produce     json
// @Security    BearerAuth
// @Param       category path  string true  "Master-data category"
// @Param       key      query string true  "Natural key"
// @Param       customer_group_id query string false "Customer group scope"
// @Success     200 {object} models.MasterDataRecord
// @Failure     404 {object} ErrorResponse "No active record"
// @Router      /master-data/{category}/active [get]
func (h *MasterDataHandler) GetActive(c *gin.Context) {
	manager, ok := h.manager(c)
	if !ok {
		return
	}

	key := c.Query("key")
	if key == "" {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "key query parameter is required"))
		return
	}

	record, err := manager.ActiveFor(key, c.Query("customer_group_id"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"record": record})
}

// ListRecords lists a category's records with optional filters.
// @Summary     List records
// @Tags        master-data
// @Produce     json
// @Security    BearerAuth
// @Param       category path  string true  "Master-data category"
// @Param       natural_key       query string false "Filter by natural key"
// @Param       customer_group_id query string false "Filter by customer group"
// @Param       status            query string false "Filter by status (draft/active/archived)"
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.MasterDataRecord]
// @Router      /master-data/{category} [get]
func (h *MasterDataHandler) ListRecords(c *gin.Context) {
	manager, ok := h.manager(c)
	if !ok {
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var query ListRecordsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var filter services.RecordFilter
	if query.NaturalKey != "" {
		filter.NaturalKey = &query.NaturalKey
	}
	if query.CustomerGroupID != "" {
		filter.CustomerGroupID = &query.CustomerGroupID
	}
	if query.Status != "" {
		status := models.RecordStatus(query.Status)
		filter.Status = &status
	}

	result, err := manager.List(page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
