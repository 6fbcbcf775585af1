package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v4"

	"gym-membership/internal/config"
	"gym-membership/internal/domain"
	"gym-membership/internal/domain/model"
	"gym-membership/internal/domain/ports/adapter"
	"gym-membership/internal/domain/ports/repository"
	pg "gym-membership/internal/infra/db/postgres"
	"gym-membership/internal/infra/logging"
	"gym-membership/internal/usecase"
)

// seed creates the first admin account and a default plan catalogue.
// It is idempotent: existing admins and plans are left alone.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	adminEmail := flag.String("admin-email", "admin@gym.local", "admin login email")
	adminName := flag.String("admin-name", "Admin", "admin display name")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, true)
	if err != nil {
		logging.Global.Fatal().Err(err).Msg("config")
	}
	logger := logging.New(cfg.Log, true)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, &cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	tm := pg.NewTxManager(pool)
	profiles := pg.NewPostgresProfileRepo(pool)
	identity := pg.NewPostgresIdentityRepo(pool)
	planUC := usecase.NewPlanUseCase(pg.NewPostgresPlanRepo(pool), logger)

	// ---- admin ----
	password := os.Getenv("SEED_ADMIN_PASSWORD")
	if password == "" {
		logger.Fatal().Msg("SEED_ADMIN_PASSWORD must be set")
	}
	switch existing, err := profiles.FindByEmail(ctx, repository.NoTX, *adminEmail); {
	case err == nil:
		fmt.Printf("admin %s already present (role=%s). No changes.\n", existing.Email, existing.Role)
	case errors.Is(err, domain.ErrNotFound):
		p, err := model.NewProfile("", *adminName, *adminEmail, "")
		if err != nil {
			logger.Fatal().Err(err).Msg("admin profile")
		}
		p.Role = model.RoleAdmin
		err = tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
			if _, err := identity.CreateUser(ctx, tx, adapter.Credentials{UserID: p.ID, Email: p.Email, Password: password, Role: model.RoleAdmin}); err != nil {
				return err
			}
			return profiles.Save(ctx, tx, p)
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("create admin")
		}
		fmt.Printf("created admin %s (%s)\n", p.Email, p.ID)
	default:
		logger.Fatal().Err(err).Msg("lookup admin")
	}

	// ---- plans ----
	plans, err := planUC.List(ctx, false)
	if err != nil {
		logger.Fatal().Err(err).Msg("list plans")
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (days=%d, price=%s, active=%t)\n", p.Name, p.DurationDays, model.FormatRupiah(p.Price), p.IsActive)
		}
		return
	}

	seed := []struct {
		Name  string
		Days  int
		Price int64
	}{
		{"Harian", 1, 25_000},
		{"Mingguan", 7, 100_000},
		{"Bulanan", 30, 150_000},
		{"3 Bulan", 90, 400_000},
	}
	for _, s := range seed {
		p, err := planUC.Create(ctx, s.Name, s.Price, s.Days)
		if err != nil {
			logger.Fatal().Err(err).Str("plan", s.Name).Msg("create plan")
		}
		fmt.Printf("created plan %s (%s)\n", p.Name, p.ID)
	}
}
