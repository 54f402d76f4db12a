package main

import (
	"log"

	"github.com/go-playground/validator/v10"

	_ "github.com/noah-isme/edustream-api/api/swagger"
	"github.com/noah-isme/edustream-api/internal/handler"
	internalmiddleware "github.com/noah-isme/edustream-api/internal/middleware"
	"github.com/noah-isme/edustream-api/internal/models"
	"github.com/noah-isme/edustream-api/internal/repository"
	"github.com/noah-isme/edustream-api/internal/server"
	"github.com/noah-isme/edustream-api/internal/service"
	"github.com/noah-isme/edustream-api/pkg/config"
	"github.com/noah-isme/edustream-api/pkg/oauth"
)

// @title EduStream Auth API
// @version 1.0.0
// @description Google sign-in, session tokens and admin role management
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	rt, err := server.Setup(config.ServiceAuth)
	if err != nil {
		log.Fatalf("failed to start auth service: %v", err)
	}
	cfg := rt.Config

	users := repository.NewUserRepository(rt.DB)
	sessions := repository.NewSessionRepository(rt.Redis)
	provider := oauth.NewGoogleProvider(oauth.GoogleConfig{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RedirectURL:  cfg.Google.CallbackURL,
	})
	tokens := service.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.Issuer)

	authSvc := service.NewAuthService(users, sessions, provider, tokens, rt.Logger, service.AuthConfig{
		SessionTTL:      cfg.JWT.Expiration,
		StateTTL:        cfg.Google.StateTTL,
		AdminSeedEmails: cfg.Admin.SeedEmails,
	})
	userSvc := service.NewUserService(users, validator.New(), rt.Logger)

	authHandler := handler.NewAuthHandler(authSvc, cfg.FrontendURL, rt.Logger)
	userHandler := handler.NewUserHandler(userSvc)

	r := rt.Router()
	api := r.Group(cfg.APIPrefix)
	api.GET("/google", authHandler.GoogleLogin)
	api.GET("/google/callback", authHandler.GoogleCallback)

	secured := api.Group("")
	secured.Use(internalmiddleware.JWT(authSvc))
	secured.GET("/me", authHandler.Me)
	secured.GET("/verify", authHandler.Verify)
	secured.POST("/logout", authHandler.Logout)
	secured.POST("/refresh", authHandler.Refresh)

	admin := secured.Group("")
	admin.Use(internalmiddleware.RequireRoles(models.RoleAdmin), internalmiddleware.UUIDParams("id"))
	admin.GET("/users", userHandler.List)
	admin.PUT("/users/:id/role", internalmiddleware.Audit(users, rt.Logger, models.AuditActionRoleChange, "user"), userHandler.ChangeRole)
	admin.GET("/admins", userHandler.ListAdmins)
	admin.POST("/admins", internalmiddleware.Audit(users, rt.Logger, models.AuditActionAdminGrant, "user"), userHandler.GrantAdmin)
	admin.DELETE("/admins/:id", internalmiddleware.Audit(users, rt.Logger, models.AuditActionAdminRevoke, "user"), userHandler.RevokeAdmin)

	if err := rt.Serve(r); err != nil {
		log.Fatalf("auth service stopped: %v", err)
	}
}
