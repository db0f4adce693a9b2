package app

import (
	"net/http"

	"github.com/Creativestefan/startwealth-capital-sub003/internal/handler"
	"github.com/Creativestefan/startwealth-capital-sub003/internal/middleware"
)

func (app *Application) routes() http.Handler {
	mux := http.NewServeMux()

	middlewareRepo := middleware.New(app.errorHandler, app.Logger, app.DB.User(), &app.Config)

	healthHandler := handler.NewHealthCheckHandler(app.errorHandler)

	authHandler := handler.NewAuthHandler(&handler.AuthHandler{
		DB:         app.DB,
		ErrHandler: app.errorHandler,
		Helper:     app.Helper,
		Mailer:     app.Mailer,
		Config:     &app.Config,
	})

	walletHandler := handler.NewWalletHandler(&handler.WalletHandler{
		DB:         app.DB,
		ErrHandler: app.errorHandler,
		Helper:     app.Helper,
	})

	propertyHandler := handler.NewPropertyHandler(&handler.PropertyHandler{
		DB:         app.DB,
		ErrHandler: app.errorHandler,
		Helper:     app.Helper,
		Cache:      app.Cache,
		Kafka:      app.Kafka,
	})

	equipmentHandler := handler.NewEquipmentHandler(&handler.EquipmentHandler{
		DB:         app.DB,
		ErrHandler: app.errorHandler,
		Helper:     app.Helper,
		Cache:      app.Cache,
		Kafka:      app.Kafka,
	})

	investmentHandler := handler.NewInvestmentHandler(&handler.InvestmentHandler{
		DB:         app.DB,
		ErrHandler: app.errorHandler,
		Helper:     app.Helper,
		Config:     &app.Config,
		Kafka:      app.Kafka,
	})

	referralHandler := handler.NewReferralHandler(&handler.ReferralHandler{
		DB:         app.DB,
		ErrHandler: app.errorHandler,
	})

	notificationHandler := handler.NewNotificationHandler(&handler.NotificationHandler{
		DB:         app.DB,
		ErrHandler: app.errorHandler,
	})

	adminHandler := handler.NewAdminHandler(&handler.AdminHandler{
		DB:         app.DB,
		ErrHandler: app.errorHandler,
		Helper:     app.Helper,
		Cache:      app.Cache,
		Kafka:      app.Kafka,
	})

	mux.HandleFunc("GET /status", healthHandler.HandleHealthCheck)

	mux.HandleFunc("POST /auth/register", authHandler.HandleAuthRegister)
	mux.HandleFunc("POST /auth/login", authHandler.HandleAuthLogin)
	mux.Handle("POST /auth/kyc", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(authHandler.HandleKycSubmit)))

	mux.Handle("GET /wallet", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(walletHandler.HandleWalletDetails)))
	mux.Handle("GET /wallet/transactions", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(walletHandler.HandleWalletTransactions)))
	mux.Handle("POST /wallet/deposits", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(walletHandler.HandleWalletDeposit)))
	mux.Handle("POST /wallet/withdrawals", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(walletHandler.HandleWalletWithdraw)))

	mux.Handle("GET /real-estate/properties", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(propertyHandler.HandlePropertyList)))
	mux.Handle("GET /real-estate/properties/{id}", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(propertyHandler.HandlePropertyDetails)))
	mux.Handle("POST /real-estate/properties/{id}/purchase", middlewareRepo.RequireApprovedKyc(http.HandlerFunc(propertyHandler.HandlePropertyPurchase)))
	mux.Handle("GET /real-estate/property-transactions", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(propertyHandler.HandlePropertyOrders)))
	mux.Handle("POST /real-estate/property-transactions/{id}/installments", middlewareRepo.RequireApprovedKyc(http.HandlerFunc(propertyHandler.HandlePropertyInstallmentPayment)))

	mux.Handle("GET /green-energy/equipments", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(equipmentHandler.HandleEquipmentList)))
	mux.Handle("GET /green-energy/equipments/{id}", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(equipmentHandler.HandleEquipmentDetails)))
	mux.Handle("POST /green-energy/equipments/{id}/purchase", middlewareRepo.RequireApprovedKyc(http.HandlerFunc(equipmentHandler.HandleEquipmentPurchase)))
	mux.Handle("GET /green-energy/equipment-transactions", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(equipmentHandler.HandleEquipmentOrders)))
	mux.Handle("POST /green-energy/equipment-transactions/{id}/installments", middlewareRepo.RequireApprovedKyc(http.HandlerFunc(equipmentHandler.HandleEquipmentInstallmentPayment)))

	mux.Handle("GET /investments/plans", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(investmentHandler.HandleInvestmentPlans)))
	mux.Handle("POST /investments", middlewareRepo.RequireApprovedKyc(http.HandlerFunc(investmentHandler.HandleCreateInvestment)))
	mux.Handle("GET /investments", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(investmentHandler.HandleUserInvestments)))
	mux.Handle("GET /investments/{id}", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(investmentHandler.HandleInvestmentDetails)))
	mux.Handle("POST /investments/{id}/withdraw", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(investmentHandler.HandleInvestmentWithdraw)))

	mux.Handle("GET /referrals", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(referralHandler.HandleReferralOverview)))

	mux.Handle("GET /notifications", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(notificationHandler.HandleNotificationList)))
	mux.Handle("PATCH /notifications/{id}/read", middlewareRepo.RequireAuthenticatedUser(http.HandlerFunc(notificationHandler.HandleNotificationMarkRead)))

	mux.Handle("PATCH /admin/users/{id}/kyc", middlewareRepo.RequireAdminUser(http.HandlerFunc(adminHandler.HandleAdminKycDecision)))
	mux.Handle("POST /admin/investments/{id}/mature", middlewareRepo.RequireAdminUser(http.HandlerFunc(adminHandler.HandleAdminMatureInvestment)))
	mux.Handle("POST /admin/investments/{id}/cancel", middlewareRepo.RequireAdminUser(http.HandlerFunc(adminHandler.HandleAdminCancelInvestment)))
	mux.Handle("PATCH /admin/orders/property/{id}/status", middlewareRepo.RequireAdminUser(http.HandlerFunc(adminHandler.HandleAdminPropertyOrderStatus)))
	mux.Handle("PATCH /admin/orders/equipment/{id}/status", middlewareRepo.RequireAdminUser(http.HandlerFunc(adminHandler.HandleAdminEquipmentOrderStatus)))
	mux.Handle("PATCH /admin/wallet-transactions/{id}/approve", middlewareRepo.RequireAdminUser(http.HandlerFunc(adminHandler.HandleAdminApproveTransaction)))
	mux.Handle("PATCH /admin/wallet-transactions/{id}/decline", middlewareRepo.RequireAdminUser(http.HandlerFunc(adminHandler.HandleAdminDeclineTransaction)))
	mux.Handle("POST /admin/commissions/{id}/pay", middlewareRepo.RequireAdminUser(http.HandlerFunc(adminHandler.HandleAdminPayCommission)))

	return middlewareRepo.LogAccess(middlewareRepo.RecoverPanic(middlewareRepo.Authenticate(mux)))
}
