// Command seed resets the database and loads the development fixtures:
// an admin account and a handful of sample tickets.
package main

import (
	"context"
	"log"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/config"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/observability"
	"github.com/spec-kit/helpdesk/internal/persistence"
	"github.com/spec-kit/helpdesk/internal/repository"
	"github.com/spec-kit/helpdesk/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Postgres.DSN == "" {
		log.Fatal("POSTGRES_DSN is required for seeding")
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx := context.Background()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	pool := pg.PoolHandle()
	if err := persistence.RunMigrations(ctx, pool, logger); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}

	if _, err := pool.Exec(ctx, `TRUNCATE ticket_comments, tickets, users CASCADE`); err != nil {
		logger.Fatal("failed to clear tables", zap.Error(err))
	}
	if _, err := pool.Exec(ctx, `ALTER SEQUENCE ticket_number_seq RESTART WITH 1`); err != nil {
		logger.Fatal("failed to reset ticket sequence", zap.Error(err))
	}

	userRepo := repository.NewUserRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	ticketService := service.NewTicketService(service.TicketDependencies{TicketRepo: ticketRepo})

	hash, err := auth.HashPassword("password123", cfg.Auth.BcryptCost)
	if err != nil {
		logger.Fatal("failed to hash admin password", zap.Error(err))
	}
	admin := &domain.User{
		Username:     "admin",
		Email:        "admin@example.com",
		Name:         "Admin User",
		Role:         domain.RoleAdmin,
		PasswordHash: hash,
	}
	if err := userRepo.Create(ctx, admin); err != nil {
		logger.Fatal("failed to create admin user", zap.Error(err))
	}
	logger.Info("admin user created", zap.String("username", admin.Username))

	samples := []service.TicketCreateInput{
		{
			Title:       "Unable to login to account",
			Description: "User cannot access their account after password reset",
			Category:    domain.CategoryAuthentication,
			Priority:    domain.TicketPriorityHigh,
		},
		{
			Title:       "Payment processing error",
			Description: "Credit card payment fails during checkout",
			Category:    domain.CategoryBilling,
			Priority:    domain.TicketPriorityMedium,
		},
		{
			Title:       "Feature request: Dark mode",
			Description: "User requests dark mode option in settings",
			Category:    domain.CategoryFeatureRequest,
			Priority:    domain.TicketPriorityLow,
		},
	}

	for _, sample := range samples {
		ticket, err := ticketService.CreateTicket(ctx, admin.Ref(), sample)
		if err != nil {
			logger.Fatal("failed to create sample ticket", zap.String("title", sample.Title), zap.Error(err))
		}
		logger.Info("sample ticket created", zap.String("code", ticket.Code), zap.String("title", ticket.Title))
	}

	logger.Info("database seeded", zap.Int("tickets", len(samples)))
}
