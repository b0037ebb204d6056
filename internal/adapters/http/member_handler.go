package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskboard/core/internal/infrastructure/logger"
	"github.com/taskboard/core/internal/ports"
)

// MemberHandler manages who can see and edit a board
type MemberHandler struct {
	memberService ports.MemberService
	logger        *logger.Logger
}

func NewMemberHandler(memberService ports.MemberService, logger *logger.Logger) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
		logger:        logger,
	}
}

// ListMembers godoc
// @Summary Active members of a board
// @Tags members
// @Produce json
// @Param boardId path string true "Board ID"
// @Success 200 {object} ports.Result
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /boards/{boardId}/members [get]
func (h *MemberHandler) ListMembers(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	boardID, err := uuidParam(c, "boardId")
	if err != nil {
		return err
	}

	members, err := h.memberService.ListMembers(c.Request().Context(), boardID, user)
	if err != nil {
		return Fail(err)
	}
	return data(c, "members", members)
}

// InviteMember godoc
// @Summary Invite an account to a board
// @Tags members
// @Accept json
// @Produce json
// @Param boardId path string true "Board ID"
// @Param request body ports.InviteMemberRequest true "Guest and role"
// @Success 201 {object} ports.Result
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /boards/{boardId}/members [post]
func (h *MemberHandler) InviteMember(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	boardID, err := uuidParam(c, "boardId")
	if err != nil {
		return err
	}
	var req ports.InviteMemberRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.memberService.InviteMember(c.Request().Context(), boardID, req, user)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusCreated, result)
}

// UpdateMember godoc
// @Summary Change a member's role
// @Tags members
// @Accept json
// @Produce json
// @Param boardId path string true "Board ID"
// @Param userId path string true "Member account ID"
// @Param request body ports.UpdateMemberRequest true "New role"
// @Success 200 {object} ports.Result
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /boards/{boardId}/members/{userId} [patch]
func (h *MemberHandler) UpdateMember(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	boardID, err := uuidParam(c, "boardId")
	if err != nil {
		return err
	}
	targetID, err := uuidParam(c, "userId")
	if err != nil {
		return err
	}
	var req ports.UpdateMemberRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.memberService.UpdateMember(c.Request().Context(), boardID, targetID, req, user)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusOK, result)
}

// RemoveMember godoc
// @Summary Remove a member or leave a board
// @Tags members
// @Produce json
// @Param boardId path string true "Board ID"
// @Param userId path string true "Member account ID"
// @Success 200 {object} ports.Result
// @Failure 403 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /boards/{boardId}/members/{userId} [delete]
func (h *MemberHandler) RemoveMember(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	boardID, err := uuidParam(c, "boardId")
	if err != nil {
		return err
	}
	targetID, err := uuidParam(c, "userId")
	if err != nil {
		return err
	}

	result, err := h.memberService.RemoveMember(c.Request().Context(), boardID, targetID, user)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusOK, result)
}

// StarBoard godoc
// @Summary Star or unstar a board for the caller
// @Tags members
// @Accept json
// @Produce json
// @Param boardId path string true "Board ID"
// @Param request body ports.StarBoardRequest true "Starred flag"
// @Success 200 {object} ports.Result
// @Failure 409 {object} ErrorResponse
// @Security BearerAuth
// @Router /boards/{boardId}/star [put]
func (h *MemberHandler) StarBoard(c echo.Context) error {
	user, err := currentAccount(c)
	if err != nil {
		return err
	}
	boardID, err := uuidParam(c, "boardId")
	if err != nil {
		return err
	}
	var req ports.StarBoardRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	result, err := h.memberService.StarBoard(c.Request().Context(), boardID, req.Starred, user)
	if err != nil {
		return Fail(err)
	}
	return ok(c, http.StatusOK, result)
}
