// History HTTP handlers.
//
// This file exposes REST endpoints for the conversation log:
//   - GET    /chat/history       (list, paginated newest-first, ETag support)
//   - DELETE /chat/history/{id}  (owner-scoped delete)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/zenbotlabs/zenbot-backend/internal/domain"
	"github.com/zenbotlabs/zenbot-backend/internal/http/middleware"
	"github.com/zenbotlabs/zenbot-backend/internal/repo"
	"github.com/zenbotlabs/zenbot-backend/internal/services"
	"github.com/zenbotlabs/zenbot-backend/internal/utils"
)

//
// DTOs
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// HistoryResponse wraps a page of conversation entries and pagination
// information. Entries are ordered newest first.
type HistoryResponse struct {
	History    []domain.Conversation `json:"history"`
	Pagination Pagination            `json:"pagination"`
}

// DeleteHistoryResponse acknowledges a successful history deletion.
type DeleteHistoryResponse struct {
	Success bool `json:"success"`
}

//
// Helpers
//

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

//
// Handlers
//

// History godoc
// @ID          listHistory
// @Summary     List conversation history (paginated)
// @Description Returns a page of the user's past exchanges, newest first. Supports weak ETag via If-None-Match and may return 304.
// @Tags        History
// @Produce     json
// @Security    BearerAuth
//
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} handlers.HistoryResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Missing or invalid token"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chat/history [get]
func (h *Handlers) History(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if db := h.db(); db != nil {
		count, maxTS, err := repo.HistoryStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"history:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	// Fetch page.
	items, total, err := h.histSvc.ListPage(ctx, uid, page, pageSize)
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("history list failed")
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, "could not list history")
		return
	}

	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	resp := HistoryResponse{
		History: items,
		Pagination: Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
	ok(c, http.StatusOK, resp)
}

// DeleteHistory godoc
// @ID          deleteHistory
// @Summary     Delete a history entry
// @Description Removes one of the user's past exchanges. Entries owned by other users are reported as not found.
// @Tags        History
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path  string  true  "History entry ID (UUID)"  format(uuid)
//
// @Success     200  {object} handlers.DeleteHistoryResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Missing or invalid token"
// @Failure     404  {object} handlers.ErrorResponse "Entry not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /chat/history/{id} [delete]
func (h *Handlers) DeleteHistory(c *gin.Context) {
	entryID := c.Param("id")
	if _, err := uuid.Parse(entryID); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "history id must be a UUID")
		return
	}

	if err := h.histSvc.Delete(c.Request.Context(), userID(c), entryID); err != nil {
		if errors.Is(err, services.ErrEntryNotFound) {
			fail(c, http.StatusNotFound, ErrCodeNotFound, "history entry not found")
			return
		}
		middleware.LoggerFrom(c).Error().Err(err).Msg("history delete failed")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not delete history entry")
		return
	}

	ok(c, http.StatusOK, DeleteHistoryResponse{Success: true})
}
