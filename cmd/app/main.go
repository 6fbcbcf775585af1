package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"

	"gym-membership/internal/config"
	"gym-membership/internal/domain/ports/adapter"
	"gym-membership/internal/infra/adapters/storage"
	tele "gym-membership/internal/infra/adapters/telegram"
	"gym-membership/internal/infra/api"
	"gym-membership/internal/infra/api/apiv1"
	"gym-membership/internal/infra/auth"
	pg "gym-membership/internal/infra/db/postgres"
	"gym-membership/internal/infra/i18n"
	"gym-membership/internal/infra/logging"
	"gym-membership/internal/infra/metrics"
	red "gym-membership/internal/infra/redis"
	"gym-membership/internal/infra/sched"
	"gym-membership/internal/infra/worker"
	"gym-membership/internal/usecase"
)

// set via -ldflags
var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, unredacted fields)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		logging.Global.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	logger.Info().Str("version", version).Str("commit", commit).Bool("dev", cfg.Runtime.Dev).Msg("starting gym-membership")

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	tm := pg.NewTxManager(pool)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	locker := red.NewMemberLocker(redisClient, 0)
	limiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	profileRepo := pg.NewPostgresProfileRepo(pool)
	planRepo := pg.NewPlanRepoCacheDecorator(pg.NewPostgresPlanRepo(pool), redisClient, cfg.Redis.TTL, logger)
	trxRepo := pg.NewPostgresTransactionRepo(pool)
	identity := pg.NewPostgresIdentityRepo(pool)

	// ---- Adapters ----
	maxUpload := cfg.HTTP.MaxUploadMB << 20
	proofs, err := storage.NewLocalProofStore(cfg.Storage.ProofDir, cfg.Storage.PublicPrefix, maxUpload)
	if err != nil {
		logger.Fatal().Err(err).Msg("proof store")
	}
	notifyPool := worker.NewPool("admin_notify", 2, logger)
	notifyPool.Start(ctx)
	defer notifyPool.Stop()

	var notifier adapter.AdminNotifier
	if cfg.Telegram.Token != "" {
		tn, err := tele.NewAdminNotifier(&cfg.Telegram, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram notifier")
		}
		notifier = tele.NewAsyncNotifier(tn, notifyPool, 30*time.Second)
	} else {
		logger.Warn().Msg("telegram token not set; admin notifications are logged only")
		notifier = tele.NewNoopNotifier(logger)
	}
	msgs, err := i18n.NewTranslator(i18n.LocalesFS, cfg.Telegram.Language)
	if err != nil {
		logger.Fatal().Err(err).Msg("messages")
	}
	tokens := auth.NewManager(&cfg.Auth)

	// ---- Use cases ----
	memberUC := usecase.NewMemberUseCase(profileRepo, planRepo, trxRepo, identity, locker, tm, nil, logger)
	planUC := usecase.NewPlanUseCase(planRepo, logger)
	paymentUC := usecase.NewPaymentUseCase(trxRepo, planRepo, profileRepo, proofs, notifier, msgs, locker, tm, nil, logger)
	statsUC := usecase.NewStatsUseCase(profileRepo, trxRepo, nil, logger)
	reportUC := usecase.NewReportUseCase(trxRepo, nil, logger)
	authUC := usecase.NewAuthUseCase(identity, profileRepo, tokens, limiter, usecase.LoginPolicy{
		Attempts: cfg.Auth.LoginAttempts,
		Window:   cfg.Auth.LoginWindow,
		KeyFunc:  red.LoginKey,
	}, usecase.PasswordReset{
		Tokens:   red.NewResetTokens(redisClient),
		Notifier: notifier,
		Messages: msgs,
		TTL:      cfg.Auth.ResetTokenTTL,
		Attempts: 3,
		Window:   time.Hour,
		LinkBase: cfg.Auth.ResetURL,
		KeyFunc:  red.ResetKey,
	}, tm, logger)
	notifUC := usecase.NewNotificationUseCase(memberUC, trxRepo, notifier, msgs, nil, logger)

	// ---- HTTP ----
	v1 := apiv1.NewServer(apiv1.Deps{
		Members:        memberUC,
		Plans:          planUC,
		Payments:       paymentUC,
		Stats:          statsUC,
		Reports:        reportUC,
		Auth:           authUC,
		Proofs:         proofs,
		Sessions:       tokens,
		MaxUploadBytes: maxUpload,
	}, logger)
	server := api.NewServer(cfg.HTTP, v1, map[string]api.Pinger{
		"postgres": pool.Ping,
		"redis":    redisClient.Ping,
	}, logger)

	// ---- Workers ----
	var wg sync.WaitGroup
	runners := []interface {
		Run(ctx context.Context) error
	}{
		sched.NewExpiryWorker(cfg.Scheduler.ExpiryInterval, memberUC, logger),
		sched.NewNotificationWorker(cfg.Scheduler.NotificationInterval, cfg.Scheduler.ExpiringWithinDays, notifUC, logger),
		sched.NewPendingReminder(notifUC, cfg.Scheduler.NotificationInterval, cfg.Scheduler.PendingReminderAfter, logger),
	}
	for _, r := range runners {
		r := r
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := r.Run(ctx); err != nil && ctx.Err() == nil {
				logger.Error().Err(err).Msg("worker stopped")
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		reportPoolStats(ctx, pool, 30*time.Second)
	}()

	go func() {
		if err := server.Start(); err != nil {
			logger.Error().Err(err).Msg("http server")
			cancel()
		}
	}()

	// ---- Graceful shutdown ----
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-sigc:
		logger.Info().Str("signal", s.String()).Msg("shutdown requested")
	case <-ctx.Done():
	}

	shutdownCtx, stop := context.WithTimeout(context.Background(), 15*time.Second)
	defer stop()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	cancel()
	wg.Wait()
	logger.Info().Msg("bye")
}

func reportPoolStats(ctx context.Context, pool *pgxpool.Pool, every time.Duration) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		s := pool.Stat()
		metrics.SetDBPoolStats("primary", s.TotalConns(), s.IdleConns(), s.AcquiredConns())
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
