// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command seed fills the user directory with generated demo users.
//
// It shares the API's configuration, so DATABASE_URL, REDIS_URL and
// BCRYPT_COST must be set. Migrations are applied first.
//
//	seed --count 50 --seed 42
package main

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/taibuivan/userdir/internal/platform/config"
	"github.com/taibuivan/userdir/internal/platform/constants"
	"github.com/taibuivan/userdir/internal/platform/migration"
	pgstore "github.com/taibuivan/userdir/internal/platform/postgres"
	redisstore "github.com/taibuivan/userdir/internal/platform/redis"
	"github.com/taibuivan/userdir/internal/platform/sec"
	"github.com/taibuivan/userdir/internal/users/account"
)

func main() {
	count := pflag.IntP("count", "n", 50, "number of users to create")
	seed := pflag.Uint64("seed", 0, "random seed; 0 picks one from the clock")
	pflag.Parse()

	log := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(slog.String("app", constants.AppName+"-seed"))

	if *count <= 0 {
		log.Error("invalid_count", slog.Int("count", *count))
		os.Exit(2)
	}
	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}

	if err := run(log, *count, *seed); err != nil {
		log.Error("seed_failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(log *slog.Logger, count int, seed uint64) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.StartupTimeout)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, cfg.DatabaseURL, constants.GlobalRequestTimeout, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	rdb, err := redisstore.NewClient(ctx, cfg.RedisURL, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	if err := migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log); err != nil {
		return err
	}

	// The cache is only attached so the batch invalidates any stale report.
	service := account.NewService(
		account.NewPostgresRepository(pool),
		sec.NewHasher(cfg.BcryptCost),
		log,
		account.WithReportCache(account.NewRedisReportCache(rdb), cfg.DemographicsCacheTTL),
	)

	rng := rand.New(rand.NewPCG(seed, seed))
	users, err := service.CreateMany(ctx, generateUsers(rng, count, time.Now().UTC()))
	if err != nil {
		return err
	}

	log.Info("users_seeded", slog.Int("count", len(users)), slog.Uint64("seed", seed))
	return nil
}
