package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ogurasousui/hrms-clean-arch/internal/adapters/extraction/gemini"
	"github.com/ogurasousui/hrms-clean-arch/internal/adapters/http/handler"
	"github.com/ogurasousui/hrms-clean-arch/internal/adapters/mail/smtp"
	"github.com/ogurasousui/hrms-clean-arch/internal/adapters/repository/postgres"
	"github.com/ogurasousui/hrms-clean-arch/internal/core/account"
	"github.com/ogurasousui/hrms-clean-arch/internal/core/employee"
	"github.com/ogurasousui/hrms-clean-arch/internal/core/intake"
	"github.com/ogurasousui/hrms-clean-arch/internal/platform/config"
	pg "github.com/ogurasousui/hrms-clean-arch/internal/platform/db/postgres"
	"github.com/ogurasousui/hrms-clean-arch/internal/platform/hash"
	"github.com/ogurasousui/hrms-clean-arch/internal/platform/server"
	"github.com/ogurasousui/hrms-clean-arch/internal/platform/token"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	dbPool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("failed to initialize database pool: %v", err)
	}
	defer dbPool.Close()

	txManager := pg.NewTransactionManager(dbPool)
	employeeRepo := postgres.NewEmployeeRepository(dbPool)
	accountRepo := postgres.NewAccountRepository(dbPool)

	hasher := hash.NewBcryptHasher(cfg.Auth.BcryptCost)
	issuer := token.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL, nil)

	mailer, err := smtp.NewSender(cfg.Mail)
	if err != nil {
		log.Fatalf("failed to initialize mail sender: %v", err)
	}

	var extractor intake.Extractor
	if cfg.AI.Enabled() {
		extractor = gemini.New(cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout)
	} else {
		log.Printf("level=warn msg=\"ai.api_key is empty; employee intake is disabled\"")
	}

	employeeSvc := employee.NewService(employeeRepo, nil)
	accountSvc := account.NewService(accountRepo, hasher, issuer, nil)
	intakeSvc := intake.NewService(
		employeeRepo, accountRepo,
		employeeSvc, accountSvc,
		txManager, extractor, mailer, nil,
		intake.Config{
			PasswordLength: cfg.Intake.PasswordLength,
			SystemActorID:  cfg.Intake.SystemActorID,
		},
	)

	router := handler.NewRouter(
		handler.NewAuthHandler(accountSvc),
		handler.NewEmployeeHandler(employeeSvc),
		handler.NewIntakeHandler(intakeSvc),
		issuer,
	)

	httpServer := server.New(cfg.Server.ListenAddr, router)

	log.Printf("level=info msg=\"http server listening\" addr=%s", cfg.Server.ListenAddr)

	if err := httpServer.Run(ctx); err != nil {
		log.Fatalf("server stopped with error: %v", err)
	}
}
