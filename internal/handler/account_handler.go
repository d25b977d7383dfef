package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/alphaarena/account-service/internal/middleware"
	"github.com/alphaarena/account-service/internal/models"
	"github.com/alphaarena/account-service/internal/repository"
	"github.com/alphaarena/account-service/internal/service"
	"github.com/gin-gonic/gin"
)

// AccountManager defines the account operations used by AccountHandler.
type AccountManager interface {
	List(userID int64) ([]models.AccountView, error)
	Create(cmd service.CreateAccountCommand) (*models.AccountView, error)
	Get(accountID, requestingUserID int64) (*models.AccountView, error)
	Update(cmd service.UpdateAccountCommand) (*models.AccountView, error)
	Delete(accountID, requestingUserID int64) (string, error)
	GetOrCreateDefault(userID int64) (*models.AccountView, error)
}

// AccountHandler handles the /api/accounts HTTP surface.
type AccountHandler struct {
	accounts AccountManager
}

func NewAccountHandler(accounts AccountManager) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

type CreateAccountRequest struct {
	Name           string  `json:"name" validate:"required"`
	Model          string  `json:"model"`
	BaseURL        string  `json:"base_url"`
	APIKey         string  `json:"api_key" validate:"required"`
	InitialCapital float64 `json:"initial_capital" validate:"omitempty,gt=0"`
	AccountType    string  `json:"account_type" validate:"omitempty,oneof=AI MANUAL"`
}

// applyDefaults fills the platform defaults for fields the client omitted.
func (r *CreateAccountRequest) applyDefaults() {
	if r.Model == "" {
		r.Model = repository.DefaultModel
	}
	if r.BaseURL == "" {
		r.BaseURL = repository.DefaultBaseURL
	}
	if r.InitialCapital == 0 {
		r.InitialCapital = repository.DefaultInitialCapital
	}
	if r.AccountType == "" {
		r.AccountType = models.AccountTypeAI
	}
}

type UpdateAccountRequest struct {
	Name    *string `json:"name"`
	Model   *string `json:"model"`
	BaseURL *string `json:"base_url"`
	APIKey  *string `json:"api_key"`
}

// ListAccounts handles GET /api/accounts/.
func (h *AccountHandler) ListAccounts(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	views, err := h.accounts.List(userID)
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to get account list: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, views)
}

// CreateAccount handles POST /api/accounts/.
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}
	if validationErrors := middleware.ValidateRequest(req); validationErrors != nil {
		middleware.RespondWithValidationError(c, validationErrors)
		return
	}
	req.applyDefaults()

	view, err := h.accounts.Create(service.CreateAccountCommand{
		UserID:         userID,
		Name:           req.Name,
		AccountType:    req.AccountType,
		Model:          req.Model,
		BaseURL:        req.BaseURL,
		APIKey:         req.APIKey,
		InitialCapital: req.InitialCapital,
	})
	if err != nil {
		if errors.Is(err, service.ErrDuplicateName) {
			middleware.RespondWithError(c, http.StatusBadRequest, "Account name already exists")
			return
		}
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to create account: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, view)
}

// GetAccount handles GET /api/accounts/:id.
func (h *AccountHandler) GetAccount(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	accountID, err := parseAccountID(c)
	if err != nil {
		middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
		return
	}

	view, err := h.accounts.Get(accountID, userID)
	if err != nil {
		h.respondAccountError(c, err, "Failed to get account details")
		return
	}

	c.JSON(http.StatusOK, view)
}

// UpdateAccount handles PUT /api/accounts/:id.
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	accountID, err := parseAccountID(c)
	if err != nil {
		middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.RespondWithError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	view, err := h.accounts.Update(service.UpdateAccountCommand{
		AccountID:        accountID,
		RequestingUserID: userID,
		Name:             req.Name,
		Model:            req.Model,
		BaseURL:          req.BaseURL,
		APIKey:           req.APIKey,
	})
	if err != nil {
		if errors.Is(err, service.ErrDuplicateName) {
			middleware.RespondWithError(c, http.StatusBadRequest, "Account name already exists")
			return
		}
		h.respondAccountError(c, err, "Failed to update account")
		return
	}

	c.JSON(http.StatusOK, view)
}

// DeleteAccount handles DELETE /api/accounts/:id. Deletion is a soft
// delete; the response confirms with the account's name.
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	accountID, err := parseAccountID(c)
	if err != nil {
		middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
		return
	}

	name, err := h.accounts.Delete(accountID, userID)
	if err != nil {
		h.respondAccountError(c, err, "Failed to delete account")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Account " + name + " deactivated successfully",
	})
}

// GetDefaultAccount handles GET /api/accounts/:id/default. The path id is
// ignored: the default account is scoped to the session's user. The route
// shape is kept for client compatibility.
func (h *AccountHandler) GetDefaultAccount(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	view, err := h.accounts.GetOrCreateDefault(userID)
	if err != nil {
		middleware.RespondWithError(c, http.StatusInternalServerError, "Failed to get default account: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, view)
}

// respondAccountError maps domain errors from account-scoped operations
// onto their status codes; anything unrecognised is a 500 carrying the
// underlying error text.
func (h *AccountHandler) respondAccountError(c *gin.Context, err error, internalPrefix string) {
	switch {
	case errors.Is(err, service.ErrAccountNotFound):
		middleware.RespondWithError(c, http.StatusNotFound, "Account not found")
	case errors.Is(err, service.ErrAccessDenied):
		middleware.RespondWithError(c, http.StatusForbidden, "Access denied")
	default:
		middleware.RespondWithError(c, http.StatusInternalServerError, internalPrefix+": "+err.Error())
	}
}

func parseAccountID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
