package http

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/core/internal/domain/entities"
	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

// CardHandler handles card requests
type CardHandler struct {
	cardService ports.CardService
	logger      *logger.Logger
}

func NewCardHandler(cardService ports.CardService, logger *logger.Logger) *CardHandler {
	return &CardHandler{
		cardService: cardService,
		logger:      logger,
	}
}

// CreateCard godoc
// @Summary Append a card to a list
// @Tags cards
// @Accept json
// @Produce json
// @Param listId path int true "List ID"
// @Param request body ports.CreateCardRequest true "Card data"
// @Success 201 {object} ports.Result
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /lists/{listId}/cards [post]
func (h *CardHandler) CreateCard(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	listID, err := int64Param(c, "listId")
	if err != nil {
		return err
	}
	var req ports.CreateCardRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.cardService.CreateCard(c.Request().Context(), listID, req, user)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusCreated, result)
}

// CardDetail godoc
// @Summary Get a card
// @Tags cards
// @Produce json
// @Param cardId path int true "Card ID"
// @Success 200 {object} ports.Result
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /cards/{cardId} [get]
func (h *CardHandler) CardDetail(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	cardID, err := int64Param(c, "cardId")
	if err != nil {
		return err
	}

	card, err := h.cardService.CardDetail(c.Request().Context(), cardID, user)
	if err != nil {
		return Fail(err)
	}
	return data(c, "card", card)
}

// EditCard godoc
// @Summary Edit title, description or due date
// @Tags cards
// @Accept json
// @Produce json
// @Param cardId path int true "Card ID"
// @Param request body ports.EditCardRequest true "Card fields"
// @Success 200 {object} ports.Result
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /cards/{cardId} [patch]
func (h *CardHandler) EditCard(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	cardID, err := int64Param(c, "cardId")
	if err != nil {
		return err
	}
	var req ports.EditCardRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.cardService.EditCard(c.Request().Context(), cardID, req, user)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusOK, result)
}

// MoveCard godoc
// @Summary Move a card
// @Description Give list_id to move to the head of another list, after_id to move behind a card
// @Tags cards
// @Accept json
// @Produce json
// @Param cardId path int true "Card ID"
// @Param request body ports.MoveCardRequest true "Destination"
// @Success 200 {object} ports.Result
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /cards/{cardId}/move [post]
func (h *CardHandler) MoveCard(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	cardID, err := int64Param(c, "cardId")
	if err != nil {
		return err
	}
	var req ports.MoveCardRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.cardService.MoveCard(c.Request().Context(), cardID, req, user)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusOK, result)
}

// CompleteCard godoc
// @Summary Mark a card finished
// @Tags cards
// @Produce json
// @Param cardId path int true "Card ID"
// @Success 200 {object} ports.Result
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /cards/{cardId}/complete [post]
func (h *CardHandler) CompleteCard(c echo.Context) error {
	return h.simple(c, h.cardService.CompleteTask)
}

// IncompleteCard godoc
// @Summary Mark a card unfinished
// @Tags cards
// @Produce json
// @Param cardId path int true "Card ID"
// @Success 200 {object} ports.Result
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /cards/{cardId}/incomplete [post]
func (h *CardHandler) IncompleteCard(c echo.Context) error {
	return h.simple(c, h.cardService.IncompleteTask)
}

// ArchiveCard godoc
// @Summary Archive a card
// @Tags cards
// @Produce json
// @Param cardId path int true "Card ID"
// @Success 200 {object} ports.Result
// @Failure 403 {object} ErrorResponse
// @Security BearerAuth
// @Router /cards/{cardId}/archive [post]
func (h *CardHandler) ArchiveCard(c echo.Context) error {
	return h.simple(c, h.cardService.ArchiveTask)
}

type cardAction func(ctx context.Context, cardID int64, user *entities.Account) (*ports.Result, error)

// simple runs an action that takes nothing but the card id.
func (h *CardHandler) simple(c echo.Context, action cardAction) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	cardID, err := int64Param(c, "cardId")
	if err != nil {
		return err
	}

	result, err := action(c.Request().Context(), cardID, user)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusOK, result)
}
