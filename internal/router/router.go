package router

import (
	"log"
	"time"

	"idosolink/config"
	"idosolink/internal/handler"
	"idosolink/internal/middleware"
	"idosolink/internal/repository"
	"idosolink/internal/service"
	"idosolink/internal/ws"
	"idosolink/pkg/cloudinary"
	"idosolink/pkg/kyc"
	"idosolink/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client, platformUserID uint) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RateLimit(middleware.NewRateLimiter(100, 60*time.Second)))

	// Repositories
	txRunner := repository.NewTxRunner(db)
	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	ledgerRepo := repository.NewLedgerRepository(db)
	contractRepo := repository.NewContractRepository(db)
	escrowRepo := repository.NewEscrowRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	actionRepo := repository.NewAdminActionRepository(db)
	caregiverRepo := repository.NewCaregiverRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	favRepo := repository.NewFavoriteRepository(db)
	chatRepo := repository.NewChatRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	withdrawalRepo := repository.NewWithdrawalRepository(db)
	kycRepo := repository.NewKycRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	chatHub := ws.NewChatHub()

	// Providers
	var payProvider payment.Provider
	if cfg.Payment.AccountID != "" {
		payProvider = payment.NewEasypayProvider(cfg.Payment.BaseURL, cfg.Payment.AccountID, cfg.Payment.APIKey, cfg.Payment.WebhookSecret)
	} else {
		log.Printf("[payment] EASYPAY_ACCOUNT_ID not set, using stub provider")
		payProvider = &payment.StubProvider{}
	}
	var kycProvider kyc.Provider
	if cfg.KYC.APIKey != "" {
		kycProvider = kyc.NewDiditProvider(cfg.KYC.BaseURL, cfg.KYC.APIKey, cfg.KYC.WebhookSecret)
	} else {
		log.Printf("[kyc] DIDIT_API_KEY not set, using stub provider")
		kycProvider = &kyc.StubProvider{}
	}

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	notifSvc := service.NewNotificationService(notificationRepo)
	engine := service.NewLedgerEngine(txRunner, walletRepo, ledgerRepo, escrowRepo, paymentRepo, actionRepo, settingRepo, platformUserID)
	contractSvc := service.NewContractService(txRunner, contractRepo, escrowRepo, userRepo, caregiverRepo, engine, actionRepo)
	paymentSvc := service.NewPaymentService(txRunner, paymentRepo, userRepo, contractRepo, engine, contractSvc, settingRepo, payProvider, cfg.Payment)
	withdrawalSvc := service.NewWithdrawalService(txRunner, withdrawalRepo, engine)
	kycSvc := service.NewKycService(kycRepo, caregiverRepo, kycProvider, notifSvc)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	googleOAuthHandler := handler.NewGoogleOAuthHandler(cfg, authSvc)
	meHandler := handler.NewMeHandler(userRepo, walletRepo, kycRepo)
	walletHandler := handler.NewWalletHandler(walletRepo, ledgerRepo)
	contractHandler := handler.NewContractHandler(contractSvc, contractRepo, userRepo, notifSvc)
	paymentHandler := handler.NewPaymentHandler(paymentSvc, paymentRepo, userRepo)
	paymentWebhookHandler := handler.NewPaymentWebhookHandler(paymentSvc, notifSvc, cfg)
	kycHandler := handler.NewKycHandler(kycSvc, kycProvider)
	caregiverHandler := handler.NewCaregiverHandler(caregiverRepo, reviewRepo)
	reviewHandler := handler.NewReviewHandler(reviewRepo, contractRepo, caregiverRepo)
	favoriteHandler := handler.NewFavoriteHandler(favRepo)
	notificationHandler := handler.NewNotificationHandler(notificationRepo)
	chatHandler := handler.NewChatHandler(chatRepo, contractRepo)
	uploadHandler := handler.NewUploadHandler(cloud)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalSvc, withdrawalRepo, notifSvc, cfg)
	adminHandler := handler.NewAdminHandler(adminRepo, settingRepo, actionRepo, caregiverRepo, contractSvc, paymentSvc, engine, notifSvc)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.PATCH("/change-password", authMw, authHandler.ChangePassword)
			authGroup.GET("/google", googleOAuthHandler.Redirect)
			authGroup.GET("/google/callback", googleOAuthHandler.Callback)
			authGroup.POST("/google/token", googleOAuthHandler.Token)
		}

		me := api.Group("/me")
		me.Use(authMw)
		{
			me.GET("", meHandler.Get)
			me.PATCH("", meHandler.Update)
			me.GET("/wallet", walletHandler.Get)
			me.GET("/wallet/history", walletHandler.History)
			me.GET("/favorites", favoriteHandler.List)
			me.GET("/notifications", notificationHandler.List)
			me.PUT("/notifications/:id/read", notificationHandler.MarkRead)
			me.POST("/upload", uploadHandler.Upload)
		}

		api.GET("/caregivers", authMw, caregiverHandler.Search)
		api.GET("/caregivers/:id", authMw, caregiverHandler.Get)
		api.GET("/caregivers/:id/reviews", authMw, reviewHandler.ListForCaregiver)
		api.POST("/favorites/:id", authMw, middleware.RequireRole("FAMILY"), favoriteHandler.Add)
		api.DELETE("/favorites/:id", authMw, middleware.RequireRole("FAMILY"), favoriteHandler.Remove)

		caregivers := api.Group("/caregivers")
		caregivers.Use(authMw, middleware.RequireRole("CAREGIVER"))
		{
			caregivers.PUT("/profile", caregiverHandler.UpsertProfile)
			caregivers.GET("/profile", caregiverHandler.GetProfile)
		}

		contracts := api.Group("/contracts")
		contracts.Use(authMw)
		{
			contracts.POST("", middleware.RequireRole("FAMILY"), contractHandler.Create)
			contracts.GET("", contractHandler.List)
			contracts.GET("/:id", contractHandler.Get)
			contracts.POST("/:id/accept", contractHandler.Accept)
			contracts.POST("/:id/cancel", contractHandler.Cancel)
			contracts.POST("/:id/complete", middleware.RequireRole("FAMILY"), contractHandler.Complete)
			contracts.POST("/:id/dispute", contractHandler.Dispute)
			contracts.POST("/:id/tip", middleware.RequireRole("FAMILY"), contractHandler.Tip)
			contracts.GET("/:id/messages", chatHandler.History)
			contracts.POST("/:id/review", middleware.RequireRole("FAMILY"), reviewHandler.Create)
		}

		payments := api.Group("/payments")
		payments.Use(authMw)
		{
			payments.POST("/checkout", paymentHandler.Checkout)
			payments.GET("", paymentHandler.List)
			payments.GET("/:id", paymentHandler.Status)
		}

		api.POST("/kyc/session", authMw, middleware.RequireRole("CAREGIVER"), kycHandler.Start)
		api.GET("/kyc/status", authMw, middleware.RequireRole("CAREGIVER"), kycHandler.Status)

		api.POST("/withdrawals", authMw, middleware.RequireRole("CAREGIVER"), withdrawalHandler.Request)
		api.GET("/withdrawals", authMw, middleware.RequireRole("CAREGIVER"), withdrawalHandler.List)

		api.POST("/webhooks/payment", paymentWebhookHandler.Handle)
		api.POST("/webhooks/kyc", kycHandler.Webhook)
		api.POST("/webhooks/withdrawal", withdrawalHandler.Webhook)

		admin := api.Group("/admin")
		admin.Use(authMw, middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/users", adminHandler.ListUsers)
			admin.GET("/users/:id", adminHandler.GetUser)
			admin.PATCH("/users/:id/status", adminHandler.SetUserStatus)
			admin.POST("/users/:id/adjust-tokens", adminHandler.AdjustTokens)
			admin.POST("/caregivers/:id/verify", adminHandler.VerifyCaregiver)
			admin.GET("/contracts", adminHandler.ListContracts)
			admin.POST("/contracts/:id/resolve", adminHandler.ResolveDispute)
			admin.POST("/contracts/:id/cancel", adminHandler.CancelContract)
			admin.POST("/contracts/:id/complete", adminHandler.CompleteContract)
			admin.POST("/escrows/:id/release", adminHandler.ReleaseEscrow)
			admin.GET("/payments", adminHandler.ListPayments)
			admin.POST("/payments/:id/refund", adminHandler.RefundPayment)
			admin.GET("/ledger", adminHandler.ListLedger)
			admin.GET("/withdrawals", adminHandler.ListWithdrawals)
			admin.GET("/reviews", adminHandler.ListReviews)
			admin.GET("/actions", adminHandler.ListActions)
			admin.GET("/settings", adminHandler.GetSettings)
			admin.PUT("/settings", adminHandler.UpdateSettings)
		}
	}

	r.GET("/ws/chat", handler.UpgradeChatWS(&cfg.JWT, chatHub, contractRepo, chatRepo))

	return r
}
