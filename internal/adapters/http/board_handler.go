package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

// BoardHandler handles board lifecycle requests
type BoardHandler struct {
	boardService ports.BoardService
	logger       *logger.Logger
}

// NewBoardHandler creates a new board handler
func NewBoardHandler(boardService ports.BoardService, logger *logger.Logger) *BoardHandler {
	return &BoardHandler{
		boardService: boardService,
		logger:       logger,
	}
}

// CreateBoard godoc
// @Summary Create a board
// @Description The caller becomes the board's first admin
// @Tags boards
// @Accept json
// @Produce json
// @Param request body ports.CreateBoardRequest true "Board data"
// @Success 201 {object} ports.Result
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /boards [post]
func (h *BoardHandler) CreateBoard(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	var req ports.CreateBoardRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.boardService.CreateBoard(c.Request().Context(), req, user)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusCreated, result)
}

// ListBoards godoc
// @Summary Boards of the caller
// @Description Starred boards first, archived boards hidden
// @Tags boards
// @Produce json
// @Success 200 {object} ports.Result
// @Security BearerAuth
// @Router /boards [get]
func (h *BoardHandler) ListBoards(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}

	views, err := h.boardService.ListOfBoard(c.Request().Context(), user)
	if err != nil {
		return Fail(err)
	}
	return data(c, "boards", views)
}

// BoardContent godoc
// @Summary Board with its lists
// @Tags boards
// @Produce json
// @Param boardId path string true "Board ID"
// @Success 200 {object} ports.Result
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /boards/{boardId} [get]
func (h *BoardHandler) BoardContent(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	boardID, err := uuidParam(c, "boardId")
	if err != nil {
		return err
	}

	content, err := h.boardService.BoardContent(c.Request().Context(), boardID, user)
	if err != nil {
		return Fail(err)
	}
	return data(c, "content", content)
}

// UpdateBoard godoc
// @Summary Update title or description
// @Tags boards
// @Accept json
// @Produce json
// @Param boardId path string true "Board ID"
// @Param request body ports.UpdateBoardRequest true "Board fields"
// @Success 200 {object} ports.Result
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /boards/{boardId} [patch]
func (h *BoardHandler) UpdateBoard(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	boardID, err := uuidParam(c, "boardId")
	if err != nil {
		return err
	}
	var req ports.UpdateBoardRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.boardService.UpdateBoard(c.Request().Context(), boardID, req, user)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusOK, result)
}

// CloseBoard godoc
// @Summary Close a board
// @Description A closed board is read-only but still listed
// @Tags boards
// @Produce json
// @Param boardId path string true "Board ID"
// @Success 200 {object} ports.Result
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /boards/{boardId}/close [post]
func (h *BoardHandler) CloseBoard(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	boardID, err := uuidParam(c, "boardId")
	if err != nil {
		return err
	}

	result, err := h.boardService.CloseBoard(c.Request().Context(), boardID, user)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusOK, result)
}

// ArchiveBoard godoc
// @Summary Archive a board
// @Tags boards
// @Produce json
// @Param boardId path string true "Board ID"
// @Success 200 {object} ports.Result
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /boards/{boardId}/archive [post]
func (h *BoardHandler) ArchiveBoard(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	boardID, err := uuidParam(c, "boardId")
	if err != nil {
		return err
	}

	result, err := h.boardService.ArchiveBoard(c.Request().Context(), boardID, user)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusOK, result)
}
