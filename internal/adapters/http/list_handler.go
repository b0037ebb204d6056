package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

// ListHandler handles task list requests
type ListHandler struct {
	listService ports.ListService
	logger      *logger.Logger
}

func NewListHandler(listService ports.ListService, logger *logger.Logger) *ListHandler {
	return &ListHandler{
		listService: listService,
		logger:      logger,
	}
}

// CreateList godoc
// @Summary Append a list to a board
// @Tags lists
// @Accept json
// @Produce json
// @Param boardId path string true "Board ID"
// @Param request body ports.CreateListRequest true "List data"
// @Success 201 {object} ports.Result
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /boards/{boardId}/lists [post]
func (h *ListHandler) CreateList(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	boardID, err := uuidParam(c, "boardId")
	if err != nil {
		return err
	}
	var req ports.CreateListRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.listService.CreateList(c.Request().Context(), boardID, req, user)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusCreated, result)
}

// ListContent godoc
// @Summary List with its cards
// @Tags lists
// @Produce json
// @Param listId path int true "List ID"
// @Success 200 {object} ports.Result
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /lists/{listId} [get]
func (h *ListHandler) ListContent(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	listID, err := int64Param(c, "listId")
	if err != nil {
		return err
	}

	content, err := h.listService.ListContent(c.Request().Context(), listID, user)
	if err != nil {
		return Fail(err)
	}
	return data(c, "content", content)
}

// EditList godoc
// @Summary Rename or recolor a list
// @Tags lists
// @Accept json
// @Produce json
// @Param listId path int true "List ID"
// @Param request body ports.EditListRequest true "List fields"
// @Success 200 {object} ports.Result
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /lists/{listId} [patch]
func (h *ListHandler) EditList(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	listID, err := int64Param(c, "listId")
	if err != nil {
		return err
	}
	var req ports.EditListRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.listService.EditList(c.Request().Context(), listID, req, user)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusOK, result)
}

// MoveList godoc
// @Summary Reorder a list
// @Description Omit after_id to move the list to the head of the board
// @Tags lists
// @Accept json
// @Produce json
// @Param listId path int true "List ID"
// @Param request body ports.MoveListRequest true "Anchor list"
// @Success 200 {object} ports.Result
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /lists/{listId}/move [post]
func (h *ListHandler) MoveList(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	listID, err := int64Param(c, "listId")
	if err != nil {
		return err
	}
	var req ports.MoveListRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.listService.MoveList(c.Request().Context(), listID, req, user)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusOK, result)
}

// ArchiveList godoc
// @Summary Archive a list
// @Tags lists
// @Produce json
// @Param listId path int true "List ID"
// @Success 200 {object} ports.Result
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /lists/{listId}/archive [post]
func (h *ListHandler) ArchiveList(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	listID, err := int64Param(c, "listId")
	if err != nil {
		return err
	}

	result, err := h.listService.ArchiveList(c.Request().Context(), listID, user)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusOK, result)
}
