package db

import (
	"context"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"

	"timepay/internal/platform/config"
)

// Seed creates the bootstrap operator account when one is configured and no
// operator with that email exists yet. Safe to run on every boot.
func Seed(ctx context.Context, pool *pgxpool.Pool, cfg config.Config) error {
	if cfg.SeedOperatorEmail == "" || cfg.SeedOperatorPassword == "" {
		return nil
	}

	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(1) FROM operators WHERE email = $1", cfg.SeedOperatorEmail).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.SeedOperatorPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	if _, err := pool.Exec(ctx, `
    INSERT INTO operators (email, password_hash, name)
    VALUES ($1,$2,$3)
  `, cfg.SeedOperatorEmail, hash, "Bootstrap Operator"); err != nil {
		return err
	}
	slog.Info("seeded bootstrap operator", "email", cfg.SeedOperatorEmail)
	return nil
}
