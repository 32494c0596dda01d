package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"task-points-market/config"
	"task-points-market/database"
	"task-points-market/handlers"
	"task-points-market/middleware"
	"task-points-market/services"
	"task-points-market/utils"
	"task-points-market/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	log := utils.NewLogger("main")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("invalid configuration")
	}
	utils.ConfigureLogger(cfg.LogLevel, cfg.LogFormat)

	admins, err := cfg.Admins()
	if err != nil {
		log.WithError(err).Fatal("invalid ADMIN_IDS")
	}
	if len(admins) == 0 {
		log.Warn("⚠️  ADMIN_IDS is empty, nobody can review submissions or payments")
	}

	db, err := database.Open(database.Options{
		DSN:         cfg.DatabaseURL,
		Development: !cfg.IsProduction(),
		MaxOpen:     25,
	})
	if err != nil {
		log.WithError(err).Fatal("database setup failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- proof storage: R2 when configured, local disk otherwise ---
	var proofs utils.ProofStore
	if cfg.R2.Enabled() {
		proofs, err = utils.NewR2Store(ctx, utils.R2Options{
			AccountID:       cfg.R2.AccountID,
			AccessKeyID:     cfg.R2.AccessKeyID,
			AccessKeySecret: cfg.R2.AccessKeySecret,
			Bucket:          cfg.R2.Bucket,
			CDNBaseURL:      cfg.R2.CDNBaseURL,
		})
		if err != nil {
			log.WithError(err).Fatal("failed to initialize R2 client")
		}
	} else {
		local, err := utils.NewLocalStore("./uploads", "/uploads")
		if err != nil {
			log.WithError(err).Fatal("failed to ensure upload dir")
		}
		proofs = local
		log.Warn("⚠️  R2 not configured, proof files are stored in ./uploads")
	}

	// --- services ---
	rules := cfg.Rules()
	rules.ProofRefPrefixes = []string{proofs.BaseURL() + "/"}
	ledger := services.NewLedgerService(db, rules)
	market := services.NewMarketplaceService(db)
	submissions := services.NewSubmissionService(db, rules)
	recharges := services.NewRechargeService(db, rules)
	withdrawals := services.NewWithdrawalService(db, rules)
	audit := services.NewAuditService(db)
	review := services.NewReviewService(db, admins, services.Workflows{
		Submissions: submissions,
		Recharges:   recharges,
		Withdrawals: withdrawals,
		Tasks:       market,
		Audit:       audit,
	})

	if _, err := audit.StartAuditScheduler(ctx, cfg.AuditInterval); err != nil {
		log.WithError(err).Fatal("failed to start audit scheduler")
	}

	if cfg.NotifyURL != "" {
		notifier := workers.NewReviewNotifier(db, cfg.NotifyURL, cfg.ServiceToken)
		go workers.PollPendingReviews(ctx, notifier, cfg.NotifyInterval)
	}

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	limiter.StartCleanup(10*time.Minute, ctx.Done())

	// --- HTTP ---
	app := fiber.New(fiber.Config{
		BodyLimit: 50 * 1024 * 1024, // proof videos
	})
	app.Use(recover.New())
	app.Use(middleware.MetricsMiddleware())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Origins(),
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID",
		MaxAge:       86400,
	}))
	// 🔐❗ GLOBAL: Only Gateway requests allowed, probes excepted
	app.Use(middleware.GatewayAuthMiddleware(cfg.ServiceToken, "/healthz", "/metrics"))
	if !cfg.R2.Enabled() {
		app.Static("/uploads", "./uploads")
	}

	handlers.SetupRoutes(app, handlers.Services{
		Ledger:      ledger,
		Market:      market,
		Submissions: submissions,
		Recharges:   recharges,
		Withdrawals: withdrawals,
		Review:      review,
		Proofs:      proofs,
	}, limiter)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("server error")
		}
	}()

	log.WithField("port", cfg.Port).Info("✅ Server running")
	log.WithField("interval", cfg.AuditInterval).Info("✅ Ledger audit scheduled")
	if cfg.NotifyURL != "" {
		log.WithField("interval", cfg.NotifyInterval).Info("✅ Review notifications running")
	}

	<-ctx.Done()
	log.Info("Shutting down server...")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
