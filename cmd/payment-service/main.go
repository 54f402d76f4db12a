package main

import (
	"log"

	"github.com/go-playground/validator/v10"

	_ "github.com/noah-isme/edustream-api/api/swagger"
	"github.com/noah-isme/edustream-api/internal/handler"
	internalmiddleware "github.com/noah-isme/edustream-api/internal/middleware"
	"github.com/noah-isme/edustream-api/internal/repository"
	"github.com/noah-isme/edustream-api/internal/server"
	"github.com/noah-isme/edustream-api/internal/service"
	"github.com/noah-isme/edustream-api/pkg/billing"
	"github.com/noah-isme/edustream-api/pkg/config"
)

// @title EduStream Payment API
// @version 1.0.0
// @description Subscriptions, payment history and Stripe webhooks
// @BasePath /
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	rt, err := server.Setup(config.ServicePayment)
	if err != nil {
		log.Fatalf("failed to start payment service: %v", err)
	}
	cfg := rt.Config

	webhookPath := cfg.APIPrefix + "/webhooks/stripe"
	r := rt.Router(webhookPath)
	notifier := rt.Events()

	subscriptions := repository.NewSubscriptionRepository(rt.DB)
	payments := repository.NewPaymentRepository(rt.DB)
	gateway := billing.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, nil, rt.Logger)
	plans := service.NewPlanCatalog(cfg.Stripe)

	subscriptionSvc := service.NewSubscriptionService(subscriptions, gateway, plans, notifier, validator.New(), rt.Logger, service.SubscriptionConfig{
		TrialDays: cfg.Stripe.TrialDays,
	})
	paymentSvc := service.NewPaymentService(payments, rt.Logger)
	exportSvc := service.NewExportService(payments, rt.Logger)
	webhookSvc := service.NewWebhookService(subscriptions, payments, gateway, notifier, rt.Metrics, rt.Logger)

	subscriptionHandler := handler.NewSubscriptionHandler(subscriptionSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, exportSvc)
	webhookHandler := handler.NewWebhookHandler(webhookSvc)

	verifier := service.NewJWTVerifier(service.NewTokenIssuer(cfg.JWT.Secret, cfg.JWT.Expiration, cfg.JWT.Issuer))
	auth := internalmiddleware.JWT(verifier)

	api := r.Group(cfg.APIPrefix)
	api.POST("/webhooks/stripe", webhookHandler.Stripe)

	subs := api.Group("/subscriptions")
	subs.GET("/plans", subscriptionHandler.Plans)
	subs.GET("/current", auth, subscriptionHandler.Current)
	subs.POST("/create", auth, subscriptionHandler.Create)
	subs.POST("/cancel", auth, subscriptionHandler.Cancel)
	subs.POST("/resume", auth, subscriptionHandler.Resume)
	subs.POST("/change-plan", auth, subscriptionHandler.ChangePlan)

	pays := api.Group("/payments", auth, internalmiddleware.UUIDParams("id"))
	pays.GET("/history", paymentHandler.History)
	pays.GET("/history/export", paymentHandler.Export)
	pays.GET("/:id", paymentHandler.Get)

	if err := rt.Serve(r); err != nil {
		log.Fatalf("payment service stopped: %v", err)
	}
}
