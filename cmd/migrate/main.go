package main

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	autherrors "birshibpur/internal/auth/errors"
	authrepo "birshibpur/internal/auth/repository"
	authservice "birshibpur/internal/auth/service"
	mongoMigration "birshibpur/internal/migrations/mongo"
	"birshibpur/pkg/config"
	"birshibpur/pkg/logger"
	"birshibpur/pkg/model"
	"birshibpur/pkg/validation"

	"golang.org/x/crypto/bcrypt"
)

const JobName = "mongo-migration"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()
	cfg := config.Load(JobName)
	cfg.SetMongo()
	cfg.Log.Info("Starting Mongo migration job")
	defer cfg.GracefulShutdown()

	migrateMongo(ctx, cfg)
	bootstrapAdmin(ctx, cfg)
	cfg.Log.Info("Migration completed successfully")
}

func migrateMongo(ctx context.Context, cfg *config.Config) {
	if err := mongoMigration.RunMigration(ctx, cfg.Client.Mongo, cfg.MongoDatabaseName, cfg.Log); err != nil {
		cfg.Log.Fatal("Migration failed", logger.Err(err))
	}
}

// bootstrapAdmin creates the first admin account from the environment.
// An existing account with the same e-mail is left untouched.
func bootstrapAdmin(ctx context.Context, cfg *config.Config) {
	email := strings.ToLower(strings.TrimSpace(os.Getenv(config.EnvBootstrapAdminEmail)))
	password := os.Getenv(config.EnvBootstrapAdminPassword)
	if email == "" || password == "" {
		cfg.Log.Info("Admin bootstrap skipped, credentials not configured")
		return
	}

	name := strings.TrimSpace(os.Getenv(config.EnvBootstrapAdminName))
	if name == "" {
		name = "Temple Admin"
	}

	req := model.AdminCreate{Name: name, Email: email, Password: password}
	if err := validation.New(cfg.Log).Struct(&req); err != nil {
		cfg.Log.Fatal("Invalid bootstrap admin", "email", email, logger.Err(err))
	}

	hash, err := authservice.HashPassword(req.Password, bcrypt.DefaultCost)
	if err != nil {
		cfg.Log.Fatal("Failed to hash bootstrap admin password", logger.Err(err))
	}

	admin := &model.Admin{Name: req.Name, Email: req.Email, PasswordHash: hash}
	err = authrepo.NewMongoAdminRepository(cfg).Create(ctx, admin)
	switch {
	case errors.Is(err, autherrors.ErrDuplicateEmail):
		cfg.Log.Info("Bootstrap admin already exists", "email", email)
	case err != nil:
		cfg.Log.Fatal("Failed to create bootstrap admin", "email", email, logger.Err(err))
	default:
		cfg.Log.Info("Bootstrap admin created", "id", admin.ID, "email", email)
	}
}
