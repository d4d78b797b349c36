package app

import (
	"context"
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/upb/property-listings/config"
	"github.com/upb/property-listings/identity"
	"github.com/upb/property-listings/middleware"
	"github.com/upb/property-listings/repositories"
	"github.com/upb/property-listings/repositories/postgres"
	"github.com/upb/property-listings/services"
	"github.com/upb/property-listings/services/ratelimit"
	"github.com/upb/property-listings/session"
	"github.com/upb/property-listings/storage"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Redis  *redis.Client
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users      repositories.UserRepository
	Identities repositories.IdentityRepository
	Listings   repositories.ListingRepository
	TxManager  repositories.TransactionManager

	// Identity and sessions
	Tokens         *identity.TokenIssuer
	Identity       *identity.Provider
	SessionChecker *session.Checker
	RefreshChecker *session.Checker

	// Storage
	Uploader *storage.LocalUploader

	// Services
	UserService    *services.UserService
	ListingService *services.ListingService
	RateLimiter    *ratelimit.RateLimitService

	// Middleware
	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware
}

// NewDependencies opens the database and wires up all application dependencies
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesWithFactory(ctx, cfg, logger, factory)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesWithFactory wires the application over an existing repository factory
func NewDependenciesWithFactory(ctx context.Context, cfg *config.Config, logger *zap.Logger, factory *postgres.RepositoryFactory) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	deps.initRepositories()

	if err := deps.initSessions(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize sessions: %w", err)
	}

	deps.initRateLimiter(ctx, cfg)

	deps.Uploader = storage.NewLocalUploader(cfg.Storage.Dir, cfg.Storage.PublicBaseURL, logger)

	deps.UserService = services.NewUserService(
		deps.Users, deps.Identity, deps.Tokens, deps.RefreshChecker, deps.TxManager, logger)
	deps.ListingService = services.NewListingService(
		deps.Listings, deps.Uploader, cfg.Storage.Bucket, deps.TxManager, logger)

	deps.AuthMiddleware = middleware.NewAuthMiddleware(deps.SessionChecker, logger)
	deps.RateLimitMiddleware = middleware.NewRateLimitMiddleware(rateLimiter(deps.RateLimiter), logger)

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Users = repos.Users
	d.Identities = repos.Identities
	d.Listings = repos.Listings
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initSessions builds the token issuer, the identity provider and the two session checkers
func (d *Dependencies) initSessions(cfg *config.Config) error {
	secret := []byte(cfg.Auth.JWTSecret)

	tokens, err := identity.NewTokenIssuer(secret, cfg.Auth.Issuer, cfg.Auth.AccessTokenTTL, cfg.Auth.RefreshTokenTTL)
	if err != nil {
		return err
	}
	d.Tokens = tokens
	d.Identity = identity.NewProvider(d.Identities, tokens, cfg.Auth.EmailDomain, cfg.Auth.BcryptCost, d.Logger)

	d.SessionChecker, err = session.NewChecker(session.Config{
		Secret: secret,
		Grace:  cfg.Auth.SessionGrace,
		Issuer: cfg.Auth.Issuer,
	}, d.Users, d.Logger)
	if err != nil {
		return err
	}

	d.RefreshChecker, err = session.NewChecker(session.Config{
		Secret:   secret,
		Grace:    cfg.Auth.SessionGrace,
		Issuer:   cfg.Auth.Issuer,
		TokenUse: session.TokenUseRefresh,
	}, d.Users, d.Logger)
	return err
}

// initRateLimiter connects to Redis when configured. An unreachable Redis
// disables limiting instead of failing startup.
func (d *Dependencies) initRateLimiter(ctx context.Context, cfg *config.Config) {
	if cfg.RateLimit.RedisAddr == "" {
		d.Logger.Info("rate limiting disabled, REDIS_ADDR not set")
		return
	}

	rdb, err := ratelimit.NewRedisClient(ctx, cfg.RateLimit.RedisAddr, cfg.RateLimit.RedisPassword, cfg.RateLimit.RedisDB)
	if err != nil {
		d.Logger.Warn("rate limiting disabled, redis unavailable", zap.Error(err))
		return
	}

	d.Redis = rdb
	d.RateLimiter = ratelimit.NewRateLimitService(rdb, d.Logger)
	d.Logger.Info("rate limiting enabled", zap.String("redis_addr", cfg.RateLimit.RedisAddr))
}

// rateLimiter keeps a nil service from becoming a non-nil interface
func rateLimiter(s *ratelimit.RateLimitService) middleware.RateLimiter {
	if s == nil {
		return nil
	}
	return s
}

// AuthBucket returns the limiter bucket for the public login and register endpoints
func (d *Dependencies) AuthBucket() ratelimit.Bucket {
	return ratelimit.Bucket{
		RequestsPerMinute: d.Config.RateLimit.AuthPerMinute,
		BurstSize:         d.Config.RateLimit.AuthBurst,
	}
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
