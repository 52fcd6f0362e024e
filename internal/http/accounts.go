package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/vkarpenko/placesync/internal/audit"
	"github.com/vkarpenko/placesync/internal/database"
	"github.com/vkarpenko/placesync/internal/entities"
	"github.com/vkarpenko/placesync/internal/oauth2"
	"github.com/vkarpenko/placesync/internal/tokenstore"
)

// AccountsController handles connected account management and the OAuth
// connect flow.
type AccountsController struct {
	db           *database.Database
	flow         *oauth2.FlowHandler
	tokens       *tokenstore.TokenStore
	auditService *audit.Service
	redirectURL  string
}

// NewAccountsController creates a new AccountsController. flow and tokens
// may be nil when OAuth credentials are not configured.
func NewAccountsController(db *database.Database, flow *oauth2.FlowHandler, tokens *tokenstore.TokenStore, auditService *audit.Service, redirectURL string) *AccountsController {
	return &AccountsController{
		db:           db,
		flow:         flow,
		tokens:       tokens,
		auditService: auditService,
		redirectURL:  redirectURL,
	}
}

// ListAccounts handles GET /api/accounts
func (ac *AccountsController) ListAccounts(c *gin.Context) {
	userID := GetUserID(c)

	accounts, err := ac.db.GetAccountsForUser(userID)
	if err != nil {
		respondInternalError(c, err, "list accounts")
		return
	}

	c.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

// GetAccount handles GET /api/accounts/:id
func (ac *AccountsController) GetAccount(c *gin.Context) {
	userID := GetUserID(c)
	accountID := c.Param("id")

	account, err := ac.db.GetAccountForUser(c.Request.Context(), accountID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondNotFound(c, "account")
			return
		}
		respondInternalError(c, err, "get account")
		return
	}

	response := gin.H{"account": account}
	if ac.tokens != nil {
		// Token material is never returned; the access token is masked.
		info, err := ac.tokens.GetTokenInfo(account.ExternalID)
		if err != nil {
			respondInternalError(c, err, "get account")
			return
		}
		response["connection"] = info
	}

	c.JSON(http.StatusOK, response)
}

// GetAccountActivity handles GET /api/accounts/:id/activity
// Returns recent audit events for the account.
func (ac *AccountsController) GetAccountActivity(c *gin.Context) {
	userID := GetUserID(c)
	accountID := c.Param("id")

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	events, err := ac.auditService.GetAccountActivity(userID, accountID, limit)
	if err != nil {
		respondInternalError(c, err, "account activity")
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// ConnectAccountRequest is the request body for POST /api/accounts/connect
type ConnectAccountRequest struct {
	AccountID   string `json:"account_id" binding:"required"`
	DisplayName string `json:"display_name"`
}

// ConnectAccount handles POST /api/accounts/connect
// Registers the account for the user and returns the provider consent URL.
func (ac *AccountsController) ConnectAccount(c *gin.Context) {
	if ac.flow == nil {
		respondError(c, http.StatusServiceUnavailable, "oauth is not configured")
		return
	}

	userID := GetUserID(c)

	var req ConnectAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "account_id is required")
		return
	}

	account := &entities.Account{
		ExternalID:  req.AccountID,
		UserID:      userID,
		DisplayName: req.DisplayName,
	}
	if err := ac.db.SaveAccount(account); err != nil {
		respondInternalError(c, err, "connect account")
		return
	}

	authURL, err := ac.flow.StartConnect(req.AccountID, userID, ac.redirectURL)
	if err != nil {
		respondInternalError(c, err, "connect account")
		return
	}

	c.JSON(http.StatusOK, gin.H{"auth_url": authURL})
}

// OAuthCallback handles GET /api/accounts/oauth/callback
// Completes the consent flow and stores the obtained tokens.
func (ac *AccountsController) OAuthCallback(c *gin.Context) {
	if ac.flow == nil {
		respondError(c, http.StatusServiceUnavailable, "oauth is not configured")
		return
	}

	state := c.Query("state")
	code := c.Query("code")
	if errParam := c.Query("error"); errParam != "" {
		respondBadRequest(c, "provider denied authorization: "+errParam)
		return
	}

	result, err := ac.flow.CompleteConnect(c.Request.Context(), state, code)
	if err != nil {
		if ac.auditService != nil {
			ac.auditService.LogAuth(0, "", "account_connect", err)
		}
		respondBadRequest(c, "authorization failed: "+err.Error())
		return
	}

	if ac.auditService != nil {
		ac.auditService.LogAuth(result.UserID, result.AccountID, "account_connected", nil)
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "account connected",
		"account_id": result.AccountID,
	})
}
