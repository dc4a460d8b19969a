package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/byjojo/store-backend/config"
	"github.com/byjojo/store-backend/controllers"
	"github.com/byjojo/store-backend/database"
	"github.com/byjojo/store-backend/middleware"
	"github.com/byjojo/store-backend/models"
	awspkg "github.com/byjojo/store-backend/pkg/aws"
	apperrors "github.com/byjojo/store-backend/pkg/errors"
	"github.com/byjojo/store-backend/pkg/logger"
	"github.com/byjojo/store-backend/repository"
	"github.com/byjojo/store-backend/routes"
	"github.com/byjojo/store-backend/sender"
	"github.com/byjojo/store-backend/services"
)

const serviceName = "store-backend"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("[StoreBackend] Failed to load config:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// CloudWatch log shipping is optional; the writer is inert unless enabled.
	var zapLogger *zap.Logger
	cwLogs, cwErr := awspkg.NewCloudWatchLogsClient(ctx, serviceName)
	if cwErr == nil && cwLogs.IsEnabled() {
		zapLogger, err = logger.InitializeWithWriter(cfg.Env, cwLogs)
	} else {
		zapLogger, err = logger.Initialize(cfg.Env)
	}
	if err != nil {
		log.Fatal("[StoreBackend] Failed to initialize logger:", err)
	}
	defer zapLogger.Sync()

	db, err := database.ConnectPostgres(cfg, zapLogger, &models.Order{})
	if err != nil {
		zapLogger.Fatal("Failed to connect to Postgres", zap.Error(err))
	}
	defer database.Close(db)

	orderRepo := repository.NewGormOrderRepository(db)
	gateway := services.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret)

	var events awspkg.SNSPublisher
	if cfg.OrderEventsTopicARN != "" {
		awsCfg, err := awspkg.LoadAWSConfig(ctx)
		if err != nil {
			zapLogger.Warn("AWS config unavailable, order events disabled", zap.Error(err))
		} else {
			events = awspkg.NewSNSClient(awsCfg)
		}
	}

	var emailSender sender.EmailSender
	if smtpSender, err := sender.NewSMTPSender(); err != nil {
		zapLogger.Warn("SMTP not configured, confirmation emails disabled", zap.Error(err))
		emailSender = sender.NoopSender{}
	} else {
		emailSender = smtpSender
	}

	notifier, err := services.NewNotificationService(emailSender, cfg.FrontendURL, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to initialize notification service", zap.Error(err))
	}

	checkoutSvc := services.NewCheckoutService(gateway, orderRepo, cfg.FrontendURL, cfg.GatewayHost, zapLogger)
	verifier := services.NewPaymentVerifier(gateway, orderRepo, notifier, events, cfg.OrderEventsTopicARN, zapLogger)

	reconciler := services.NewReconciler(orderRepo, verifier, events, cfg.OrderEventsTopicARN,
		cfg.ReconcileInterval, cfg.PendingTTL, cfg.ExpireAfter, zapLogger)
	go reconciler.Run(ctx)

	metricsClient, err := awspkg.NewMetricsClient(ctx)
	if err != nil {
		zapLogger.Warn("CloudWatch metrics unavailable", zap.Error(err))
	}

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Recovery())
	r.Use(logger.RequestLogger(zapLogger))
	r.Use(middleware.CORS())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.RateLimit(middleware.NewRateLimiter(rate.Limit(20), 40, 10*time.Minute)))
	r.Use(middleware.MetricsMiddleware(metricsClient, serviceName))
	r.Use(apperrors.ErrorMiddleware())

	cc := &controllers.CheckoutController{
		Checkout: checkoutSvc,
		Verifier: verifier,
		Gateway:  gateway,
		Logger:   zapLogger,
	}
	oc := &controllers.OrderController{Orders: orderRepo, Logger: zapLogger}
	nc := &controllers.NotificationController{Notifier: notifier, Logger: zapLogger}

	webhookEnabled := cfg.StripeWebhookSecret != ""
	if !webhookEnabled {
		zapLogger.Warn("STRIPE_WEBHOOK_SECRET not set, webhook route disabled")
	}
	routes.Register(r, cc, oc, nc, []byte(cfg.JWTSecret), webhookEnabled)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}

	go func() {
		zapLogger.Info("Store backend running", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zapLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown failed", zap.Error(err))
	}
}
