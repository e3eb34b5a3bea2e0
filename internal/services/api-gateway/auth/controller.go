package auth

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reelhouse/reelhouse/internal/domain/user"
	"github.com/reelhouse/reelhouse/internal/obs"
	"github.com/reelhouse/reelhouse/internal/services/api-gateway/auth/provider"
)

const oauthStateCookie = "oauth_state"

type CookieOpts struct {
	Name   string
	Domain string
	Path   string
	Secure bool
}

type Controller struct {
	log        *zap.Logger
	uc         *Service
	users      user.Repo
	providers  *provider.Registry
	cookie     CookieOpts
	refreshTTL time.Duration
}

type ControllerOpts struct {
	Logger     *zap.Logger
	Providers  *provider.Registry
	Cookie     CookieOpts
	RefreshTTL time.Duration
}

func NewController(uc *Service, users user.Repo, o ControllerOpts) *Controller {
	log := o.Logger
	if log == nil {
		log, _ = zap.NewProduction()
	}
	providers := o.Providers
	if providers == nil {
		providers = provider.NewRegistry()
	}
	return &Controller{
		log:        log,
		uc:         uc,
		users:      users,
		providers:  providers,
		cookie:     o.Cookie,
		refreshTTL: o.RefreshTTL,
	}
}

func (c *Controller) Register(r gin.IRouter) {
	g := r.Group("/v1/auth")
	g.POST("/sign-up", c.signUp)
	g.POST("/sign-in", c.signIn)
	g.POST("/refresh", c.refresh)
	g.POST("/logout", c.logout)
	g.GET("/oauth/:provider", c.oauthRedirect)
	g.GET("/oauth/:provider/callback", c.oauthCallback)

	authed := g.Group("", RequireAuth(c.uc.ParseAccess))
	authed.GET("/me", c.me)
	authed.PUT("/password", c.updatePassword)
}

type credentialsReq struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (c *Controller) signUp(g *gin.Context) {
	var req credentialsReq
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ref, err := c.uc.RegisterLocalUser(g.Request.Context(), req.Email, req.Password)
	if err != nil {
		c.fail(g, "sign_up", err)
		return
	}

	res, err := c.uc.Login(g.Request.Context(), ref.ID)
	if err != nil {
		c.fail(g, "sign_up", err)
		return
	}

	obs.AuthRequests.WithLabelValues("sign_up", "ok").Inc()
	c.setRefreshCookie(g, res.RefreshToken)
	g.JSON(http.StatusOK, res)
}

func (c *Controller) signIn(g *gin.Context) {
	var req credentialsReq
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := g.Request.Context()
	ref, err := c.uc.ValidateLocalUser(ctx, req.Email, req.Password)
	if err != nil {
		c.fail(g, "sign_in", err)
		return
	}

	res, err := c.uc.Login(ctx, ref.ID)
	if err != nil {
		c.fail(g, "sign_in", err)
		return
	}

	obs.AuthRequests.WithLabelValues("sign_in", "ok").Inc()
	c.setRefreshCookie(g, res.RefreshToken)
	g.JSON(http.StatusOK, res)
}

// refresh rotates the session: validate the presented token against the
// stored hash, then issue and store a fresh pair. The old token is dead from
// this point even though its JWT expiry may be far away.
func (c *Controller) refresh(g *gin.Context) {
	raw := c.refreshFromRequest(g)
	if raw == "" {
		c.fail(g, "refresh", ErrInvalidRefreshToken)
		return
	}

	ctx := g.Request.Context()
	uid, err := c.uc.ParseRefresh(raw)
	if err != nil {
		c.clearRefreshCookie(g)
		c.fail(g, "refresh", err)
		return
	}
	ref, err := c.uc.ValidateRefreshToken(ctx, uid, raw)
	if err != nil {
		c.clearRefreshCookie(g)
		c.fail(g, "refresh", err)
		return
	}

	pair, err := c.uc.RefreshTokens(ctx, ref.ID)
	if err != nil {
		c.fail(g, "refresh", err)
		return
	}

	obs.AuthRequests.WithLabelValues("refresh", "ok").Inc()
	c.setRefreshCookie(g, pair.RefreshToken)
	g.JSON(http.StatusOK, pair)
}

func (c *Controller) logout(g *gin.Context) {
	if raw := c.refreshFromRequest(g); raw != "" {
		if uid, err := c.uc.ParseRefresh(raw); err == nil {
			if err := c.uc.Logout(g.Request.Context(), uid); err != nil {
				obs.WithTrace(g.Request.Context(), c.log).Warn("logout", zap.Error(err))
			}
		}
	}

	obs.AuthRequests.WithLabelValues("logout", "ok").Inc()
	c.clearRefreshCookie(g)
	g.Status(http.StatusNoContent)
}

func (c *Controller) oauthRedirect(g *gin.Context) {
	p, ok := c.providers.Get(g.Param("provider"))
	if !ok {
		g.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return
	}

	state := uuid.NewString()
	g.SetSameSite(http.SameSiteLaxMode)
	g.SetCookie(oauthStateCookie, state, int((10 * time.Minute).Seconds()), c.cookie.Path, c.cookie.Domain, c.cookie.Secure, true)
	g.Redirect(http.StatusFound, p.AuthCodeURL(state))
}

func (c *Controller) oauthCallback(g *gin.Context) {
	p, ok := c.providers.Get(g.Param("provider"))
	if !ok {
		g.JSON(http.StatusNotFound, gin.H{"error": "unknown provider"})
		return
	}

	state, err := g.Cookie(oauthStateCookie)
	if err != nil || state == "" || state != g.Query("state") {
		c.fail(g, "oauth", ErrInvalidCredentials)
		return
	}
	g.SetCookie(oauthStateCookie, "", -1, c.cookie.Path, c.cookie.Domain, c.cookie.Secure, true)

	ctx := g.Request.Context()
	identity, err := p.Exchange(ctx, g.Query("code"))
	if err != nil {
		obs.WithTrace(ctx, c.log).Warn("oauth exchange", zap.String("provider", p.Name()), zap.Error(err))
		c.fail(g, "oauth", ErrInvalidCredentials)
		return
	}

	ref, err := c.uc.ValidateOAuthUser(ctx, *identity)
	if err != nil {
		c.fail(g, "oauth", err)
		return
	}

	res, err := c.uc.Login(ctx, ref.ID)
	if err != nil {
		c.fail(g, "oauth", err)
		return
	}

	obs.AuthRequests.WithLabelValues("oauth", "ok").Inc()
	c.setRefreshCookie(g, res.RefreshToken)
	g.JSON(http.StatusOK, res)
}

func (c *Controller) me(g *gin.Context) {
	uid, ok := UserIDFrom(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	u, err := c.users.GetByID(g.Request.Context(), uid)
	if err != nil {
		g.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	g.JSON(http.StatusOK, u)
}

type updatePasswordReq struct {
	CurrentPassword    string `json:"current_password" binding:"required"`
	NewPassword        string `json:"new_password" binding:"required"`
	NewPasswordConfirm string `json:"new_password_confirm" binding:"required"`
}

func (c *Controller) updatePassword(g *gin.Context) {
	uid, ok := UserIDFrom(g)
	if !ok {
		g.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req updatePasswordReq
	if err := g.ShouldBindJSON(&req); err != nil {
		g.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := c.uc.UpdatePassword(g.Request.Context(), uid, PasswordChange{
		Current: req.CurrentPassword,
		New:     req.NewPassword,
		Confirm: req.NewPasswordConfirm,
	})
	if err != nil {
		c.fail(g, "password_change", err)
		return
	}

	obs.AuthRequests.WithLabelValues("password_change", "ok").Inc()
	g.Status(http.StatusNoContent)
}

func (c *Controller) fail(g *gin.Context, kind string, err error) {
	switch {
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrInvalidRefreshToken):
		obs.AuthRequests.WithLabelValues(kind, "unauthorized").Inc()
		g.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, ErrPasswordMismatch), errors.Is(err, ErrWeakPassword):
		obs.AuthRequests.WithLabelValues(kind, "bad_request").Inc()
		g.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, ErrEmailExists):
		obs.AuthRequests.WithLabelValues(kind, "conflict").Inc()
		g.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		obs.AuthRequests.WithLabelValues(kind, "error").Inc()
		obs.WithTrace(g.Request.Context(), c.log).Error("auth."+kind, zap.Error(err))
		g.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (c *Controller) refreshFromRequest(g *gin.Context) string {
	if v, err := g.Cookie(c.cookie.Name); err == nil && v != "" {
		return v
	}
	return g.GetHeader("X-Refresh-Token")
}

func (c *Controller) setRefreshCookie(g *gin.Context, raw string) {
	g.SetSameSite(http.SameSiteLaxMode)
	g.SetCookie(c.cookie.Name, raw, int(c.refreshTTL.Seconds()), c.cookie.Path, c.cookie.Domain, c.cookie.Secure, true)
}

func (c *Controller) clearRefreshCookie(g *gin.Context) {
	g.SetSameSite(http.SameSiteLaxMode)
	g.SetCookie(c.cookie.Name, "", -1, c.cookie.Path, c.cookie.Domain, c.cookie.Secure, true)
}
