package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/ialvarenga/financial-management-sub001/internal/config"
	"github.com/ialvarenga/financial-management-sub001/internal/handler"
	"github.com/ialvarenga/financial-management-sub001/internal/integrations/cbr"
	"github.com/ialvarenga/financial-management-sub001/internal/middleware"
	"github.com/ialvarenga/financial-management-sub001/internal/notifications"
	"github.com/ialvarenga/financial-management-sub001/internal/repository"
	"github.com/ialvarenga/financial-management-sub001/internal/service"
	"github.com/ialvarenga/financial-management-sub001/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	rateClient := cbr.NewClient(cfg, logger)
	mailer := email.NewSender(cfg, logger)
	svc := service.NewService(repo, logger, cfg, rateClient, mailer)
	h := handler.NewHandler(svc, notifications.DefaultRegistry(), logger)

	// Daily bill closure
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ClosureSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()
		report, err := svc.RunClosure(ctx, time.Now().UTC())
		if err != nil {
			logger.Errorf("Closure run failed: %v", err)
			return
		}
		logger.WithFields(logrus.Fields{
			"closed":         report.Closed,
			"overdue_closed": report.OverdueClosed,
			"marked_overdue": report.MarkedOverdue,
			"pruned":         report.NotificationsPruned,
			"attempts":       report.Attempts,
		}).Info("Closure run completed")
	}); err != nil {
		logger.Fatalf("Failed to schedule closure: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/accounts", h.CreateAccount).Methods("POST")
	authRouter.HandleFunc("/accounts", h.ListAccounts).Methods("GET")
	authRouter.HandleFunc("/accounts/{accountID}/forecast", h.BalanceForecast).Methods("GET")
	authRouter.HandleFunc("/cards", h.CreateCard).Methods("POST")
	authRouter.HandleFunc("/cards", h.ListCards).Methods("GET")
	authRouter.HandleFunc("/cards/{cardID}/bills", h.ListBills).Methods("GET")
	authRouter.HandleFunc("/cards/{cardID}/purchases", h.CreatePurchase).Methods("POST")
	authRouter.HandleFunc("/cards/{cardID}/import", h.ImportCSV).Methods("POST")
	authRouter.HandleFunc("/bills/{billID}/items", h.ListBillItems).Methods("GET")
	authRouter.HandleFunc("/bills/{billID}/pay", h.PayBill).Methods("POST")
	authRouter.HandleFunc("/items/{itemID}/category", h.UpdateItemCategory).Methods("PUT")
	authRouter.HandleFunc("/closure/run", h.RunClosure).Methods("POST")
	authRouter.HandleFunc("/notifications", h.IngestNotification).Methods("POST")
	authRouter.HandleFunc("/recurrences", h.CreateRecurrence).Methods("POST")
	authRouter.HandleFunc("/recurrences/{recurrenceID}/projection", h.ProjectRecurrence).Methods("GET")
	authRouter.HandleFunc("/recurrences/{recurrenceID}/confirm", h.ConfirmOccurrence).Methods("POST")
	authRouter.HandleFunc("/recurrences/{recurrenceID}", h.DeactivateRecurrence).Methods("DELETE")
	authRouter.HandleFunc("/transfers", h.CreateTransfer).Methods("POST")
	authRouter.HandleFunc("/transfers/{transferID}", h.GetTransfer).Methods("GET")
	authRouter.HandleFunc("/transfers/{transferID}/complete", h.CompleteTransfer).Methods("POST")
	authRouter.HandleFunc("/transfers/{transferID}/cancel", h.CancelTransfer).Methods("POST")
	authRouter.HandleFunc("/transactions", h.CreateTransaction).Methods("POST")
	authRouter.HandleFunc("/transactions/{transactionID}", h.GetTransaction).Methods("GET")
	authRouter.HandleFunc("/transactions/{transactionID}/complete", h.CompleteTransaction).Methods("POST")
	authRouter.HandleFunc("/transactions/{transactionID}/cancel", h.CancelTransaction).Methods("POST")
	authRouter.HandleFunc("/backup/export", h.ExportBackup).Methods("GET")
	authRouter.HandleFunc("/backup/import", h.ImportBackup).Methods("POST")
	authRouter.HandleFunc("/analytics/monthly", h.MonthlyStats).Methods("GET")
	authRouter.HandleFunc("/analytics/credit-burden", h.CreditBurden).Methods("GET")
	// Key rate endpoint
	r.HandleFunc("/key-rate", func(w http.ResponseWriter, r *http.Request) {
		rate, err := rateClient.GetKeyRate()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get key rate: %v", err), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]float64{"key_rate": rate})
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Server failed: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Shutdown failed: %v", err)
	}
}
