package provider

import (
	"github.com/affiliate-next/internal/cache"
	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/logger"
	"github.com/affiliate-next/internal/models"
	"github.com/affiliate-next/internal/queue"
	"github.com/affiliate-next/internal/repository"
	"github.com/affiliate-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	AdminRepo      repository.AdminRepository
	AffiliateRepo  repository.AffiliateRepository
	ReferralRepo   repository.ReferralRepository
	PayoutRepo     repository.PayoutRepository
	ClickRepo      repository.ClickRepository
	WebhookLogRepo repository.WebhookLogRepository
	DashboardRepo  repository.DashboardRepository

	// Services
	AuthService      *service.AuthService
	AffiliateService *service.AffiliateService
	WebhookService   *service.WebhookService
	AdminService     *service.AdminService
	ClickService     *service.ClickService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	queueClient, err := queue.NewClient(&cfg.Queue)
	if err != nil {
		logger.Errorw("provider_init_queue_client_failed", "error", err)
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.AdminRepo = repository.NewAdminRepository(db)
	c.AffiliateRepo = repository.NewAffiliateRepository(db)
	c.ReferralRepo = repository.NewReferralRepository(db)
	c.PayoutRepo = repository.NewPayoutRepository(db)
	c.ClickRepo = repository.NewClickRepository(db)
	c.WebhookLogRepo = repository.NewWebhookLogRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config, c.AdminRepo, c.AffiliateRepo)
	c.AffiliateService = service.NewAffiliateService(c.Config, c.AuthService, c.AffiliateRepo, c.ReferralRepo, c.PayoutRepo, c.ClickRepo)
	c.WebhookService = service.NewWebhookService(c.Config, c.AffiliateRepo, c.ReferralRepo, c.WebhookLogRepo)
	c.AdminService = service.NewAdminService(c.Config, c.AffiliateRepo, c.ReferralRepo, c.PayoutRepo, c.WebhookLogRepo, c.DashboardRepo)
	c.ClickService = service.NewClickService(c.AffiliateRepo, c.ClickRepo, c.QueueClient)
}
