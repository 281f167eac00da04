package httpserver

import (
	"net/http"

	"feathermart/internal/domain"
	customersvc "feathermart/internal/service/customer"
	"github.com/gin-gonic/gin"
)

// tokenRequest accepts JSON or the form-encoded password grant.
type tokenRequest struct {
	Email    string `json:"email" form:"username"`
	Password string `json:"password" form:"password"`
}

type tokenResponse struct {
	AccessToken string           `json:"access_token"`
	TokenType   string           `json:"token_type"`
	ExpiresIn   int              `json:"expires_in"`
	Customer    *domain.Customer `json:"customer"`
}

type anonymousTokenResponse struct {
	Token       string `json:"token"`
	AnonymousID string `json:"anonymousId"`
	ExpiresIn   int    `json:"expires_in"`
}

func (a *api) signup(c *gin.Context) {
	var req customersvc.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid body: %v", err)
		return
	}
	customer, err := a.CustomerSvc.Signup(c.Request.Context(), req)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"customer": customer})
}

// token logs a user in. A valid X-Anonymous-Token on the request announces
// the login together with the anonymous id so the guest cart can be merged.
func (a *api) token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBind(&req); err != nil || req.Email == "" || req.Password == "" {
		badRequest(c, "email and password are required")
		return
	}
	ctx := c.Request.Context()
	customer, access, err := a.CustomerSvc.Login(ctx, req.Email, req.Password)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}

	anonymousID := a.Sessions.AnonymousID(ctx, c.GetHeader(anonymousTokenHeader))
	a.Sessions.NotifyLogin(ctx, customer.ID, anonymousID)

	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   a.CustomerSvc.AccessTTLSeconds(),
		Customer:    customer,
	})
}

func (a *api) logout(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		writeError(c, a.logger, domain.ErrAuthenticationRequired)
		return
	}
	if err := a.CustomerSvc.Logout(c.Request.Context(), token); err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (a *api) anonymousToken(c *gin.Context) {
	token, id, err := a.AnonymousSvc.Issue(c.Request.Context())
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.Header(anonymousTokenHeader, token)
	c.JSON(http.StatusCreated, anonymousTokenResponse{Token: token, AnonymousID: id, ExpiresIn: a.AnonymousSvc.TTLSeconds()})
}

func (a *api) me(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		writeError(c, a.logger, domain.ErrAuthenticationRequired)
		return
	}
	customer, err := a.CustomerSvc.LookupByToken(c.Request.Context(), token)
	if err != nil {
		writeError(c, a.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customer": customer})
}
