package api

import (
	"context"
	"fmt"
	"time"

	"gatehouse/internal/common"
	"gatehouse/internal/config"
	"gatehouse/internal/constants"
	"gatehouse/internal/db"
	"gatehouse/internal/db/repositories"
	"gatehouse/internal/logging"
	"gatehouse/internal/metrics"
	"gatehouse/internal/middleware"
	"gatehouse/internal/providers"
	"gatehouse/internal/services"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Repositories struct {
	Collections   *db.Collections
	Applications  *repositories.ApplicationRepository
	Types         *repositories.ApplicationTypeRepository
	Bans          *repositories.BanListRepository
	Blacklist     *repositories.BanListRepository
	Activity      *repositories.ActivityLogRepository
	ActivitySQL   *repositories.ActivityLogSQLRepo
	Notifications *repositories.NotificationRepository
}

type Services struct {
	Auth          *services.AuthService
	Eligibility   *services.EligibilityService
	Applications  *services.ApplicationService
	Review        *services.ReviewService
	Types         *services.ApplicationTypeService
	Bans          *services.ModerationService
	Blacklist     *services.ModerationService
	Activity      *services.ActivityService
	Notifications *services.NotificationService
	Delivery      *services.DecisionDelivery
	Queue         *common.RedisQueueService
}

// Infra holds the connections owned by the process.
type Infra struct {
	Redis   *redis.Client
	ORM     *gorm.DB
	AuditDB *sqlx.DB
	Cache   *common.CacheService
}

type Dependencies struct {
	Config        *config.Config
	Metrics       *metrics.MetricsRegistry
	Repo          *Repositories
	Services      *Services
	Infra         *Infra
	SubmitLimiter *middleware.RateLimiter
	StartedAt     time.Time
}

// InitDependencies opens storage and external clients and builds every
// service.
func InitDependencies(cfg *config.Config, m *metrics.MetricsRegistry) (*Dependencies, error) {
	infra := &Infra{Cache: common.NewCacheService(cfg.RoleCacheTTL, 10*time.Minute)}

	store, err := openDocumentStore(cfg, infra)
	if err != nil {
		return nil, err
	}
	cols := db.NewCollections(store, cfg.StorageMissingAsEmpty, m)

	repo := &Repositories{
		Collections:   cols,
		Applications:  repositories.NewApplicationRepository(cols, time.Now),
		Types:         repositories.NewApplicationTypeRepository(cols),
		Bans:          repositories.NewBanListRepository(cols, constants.CollectionBans),
		Blacklist:     repositories.NewBanListRepository(cols, constants.CollectionBlacklist),
		Activity:      repositories.NewActivityLogRepository(cols),
		Notifications: repositories.NewNotificationRepository(cols),
	}

	var mirrors []repositories.ActivitySink
	if cfg.AuditDSN != "" {
		auditDB, err := db.InitAuditDB(cfg.AuditDSN)
		if err != nil {
			return nil, fmt.Errorf("failed to connect audit database: %w", err)
		}
		infra.AuditDB = auditDB
		repo.ActivitySQL = repositories.NewActivityLogSQLRepo(auditDB)
		mirrors = append(mirrors, repo.ActivitySQL)
	}

	var (
		sessions common.SessionStore
		queue    *common.RedisQueueService
		roleTier common.RoleCache = infra.Cache
	)
	if cfg.RedisEnabled() {
		infra.Redis = common.NewRedisClient(cfg.RedisAddr(), cfg.RedisPassword, cfg.RedisDB)
		sessions = common.NewSessionService(infra.Redis, cfg.SessionTTL)
		queue = common.NewRedisQueueService(infra.Redis)
		roleTier = common.NewRedisCacheService(infra.Redis, "gatehouse:")
	} else {
		logging.Warn("REDIS_HOST not set, sessions are kept in memory")
		sessions = common.NewMemorySessionStore(infra.Cache, cfg.SessionTTL)
	}

	var (
		roles providers.RoleResolver
		dm    providers.DirectMessenger
	)
	if cfg.DiscordEnabled() {
		discord, err := providers.NewDiscordProvider(cfg.DiscordBotToken, cfg.DiscordGuildID)
		if err != nil {
			return nil, err
		}
		roles = providers.NewCachedRoleResolver(discord, roleTier, cfg.RoleCacheTTL, m)
		dm = discord
	} else {
		logging.Warn("Discord bot not configured, role lookups and DMs are disabled")
	}

	var mailer providers.Mailer
	if cfg.EmailEnabled() {
		mailer = providers.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPFrom)
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		logging.Warn("SESSION_SECRET not set, using an ephemeral signing key")
		secret = []byte(uuid.NewString() + uuid.NewString())
	}
	stateSigner := common.NewStateSigner(secret, infra.Cache, 10*time.Minute)

	activity := services.NewActivityService(repo.Activity, time.Now, mirrors...)
	notifications := services.NewNotificationService(repo.Notifications, time.Now)
	eligibility := services.NewEligibilityService(repo.Applications, repo.Types, repo.Bans, repo.Blacklist, m, time.Now)
	priority := services.NewPriorityClassifier(roles, cfg.PriorityRoles())
	delivery := services.NewDecisionDelivery(dm, mailer, cfg.ServerName)

	var effectQueue services.EffectQueue
	if queue != nil {
		effectQueue = queue
	}
	effects := services.NewEffectRunner(effectQueue, m, time.Now)

	svc := &Services{
		Auth: services.NewAuthService(
			providers.NewDiscordOAuthProvider(cfg.DiscordClientID, cfg.DiscordClientSecret, cfg.DiscordRedirectURI),
			providers.DiscordIdentityFetcher{},
			roles,
			sessions,
			stateSigner,
			activity,
			cfg.StaffRoles(),
			cfg.AdminRoles(),
		),
		Eligibility:   eligibility,
		Applications:  services.NewApplicationService(repo.Applications, eligibility, priority, activity, notifications, effects, m, time.Now),
		Review:        services.NewReviewService(repo.Applications, eligibility, activity, notifications, delivery, effects, m, time.Now),
		Types:         services.NewApplicationTypeService(repo.Types, activity),
		Bans:          services.NewBanService(repo.Bans, activity, time.Now),
		Blacklist:     services.NewBlacklistService(repo.Blacklist, activity, time.Now),
		Activity:      activity,
		Notifications: notifications,
		Delivery:      delivery,
		Queue:         queue,
	}

	return &Dependencies{
		Config:        cfg,
		Metrics:       m,
		Repo:          repo,
		Services:      svc,
		Infra:         infra,
		SubmitLimiter: middleware.NewRateLimiter(cfg.SubmitRatePerMinute, cfg.SubmitRateBurst),
		StartedAt:     time.Now(),
	}, nil
}

func openDocumentStore(cfg *config.Config, infra *Infra) (db.DocumentStore, error) {
	switch cfg.StorageBackend {
	case "sqlite", "postgres":
		orm, err := db.InitORM(cfg.StorageBackend, cfg.StorageDSN)
		if err != nil {
			return nil, err
		}
		infra.ORM = orm
		return db.NewGormDocumentStore(orm, cfg.StorageBackend), nil
	default:
		logging.Info("Using JSON file storage", "dir", cfg.DataDir)
		return db.NewJSONFileStore(cfg.DataDir)
	}
}

// Close releases connections. Errors are logged.
func (d *Dependencies) Close(ctx context.Context) {
	if d.Infra.Redis != nil {
		if err := d.Infra.Redis.Close(); err != nil {
			logging.Warn("Redis close failed", "error", err.Error())
		}
	}
	if d.Infra.AuditDB != nil {
		if err := d.Infra.AuditDB.Close(); err != nil {
			logging.Warn("Audit DB close failed", "error", err.Error())
		}
	}
	if d.Infra.ORM != nil {
		if sqlDB, err := d.Infra.ORM.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	d.Infra.Cache.Flush()
}
