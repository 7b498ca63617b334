package handler

import (
	"net/http"

	"kioskpos/internal/dto"
	"kioskpos/internal/service"

	"github.com/gin-gonic/gin"
)

type AccountsHandler struct{ svc service.AccountService }

func NewAccountsHandler(svc service.AccountService) *AccountsHandler {
	return &AccountsHandler{svc: svc}
}

// Login exchanges credentials for a bearer token. Bad credentials are a 400.
func (h *AccountsHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Register creates an account; the role defaults to frontdesk.
func (h *AccountsHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AccountsHandler) List(c *gin.Context) {
	resp, err := h.svc.List(c.Request.Context())
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AccountsHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Compte supprimé"})
}
