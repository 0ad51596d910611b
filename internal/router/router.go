package router

import (
	"fmt"
	"strings"

	"github.com/affiliate-next/internal/cache"
	"github.com/affiliate-next/internal/config"
	adminhandlers "github.com/affiliate-next/internal/http/handlers/admin"
	publichandlers "github.com/affiliate-next/internal/http/handlers/public"
	"github.com/affiliate-next/internal/logger"
	"github.com/affiliate-next/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	// 初始化 Handler（按公开/后台分组）
	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "aff"
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		Message:       "too many login attempts",
	}
	adminLoginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:admin_login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
		BlockSeconds:  cfg.Security.LoginRateLimit.BlockSeconds,
		Message:       "too many login attempts",
	}

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// API 路由组
	apiV1 := r.Group("/api/v1")
	{
		// 认证接口
		auth := apiV1.Group("/auth")
		{
			auth.POST("/affiliate/register", publicHandler.AffiliateRegister)
			auth.POST("/affiliate/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.AffiliateLogin)
			auth.POST("/admin/login", RateLimitMiddleware(redisClient, adminLoginRule, KeyByIP), adminHandler.AdminLogin)
		}

		// 点击追踪与 Webhook（无需鉴权，Webhook 走 HMAC 签名）
		apiV1.GET("/track/click", publicHandler.TrackClick)
		apiV1.POST("/webhooks/signup", publicHandler.SignupWebhook)
		apiV1.POST("/webhooks/payment", publicHandler.PaymentWebhook)

		// 推广用户接口（需鉴权，仅审核通过的账号可访问）
		affiliate := apiV1.Group("/affiliate")
		affiliate.Use(AffiliateJWTAuthMiddleware(cfg.AffiliateJWT.SecretKey, c.AffiliateRepo))
		{
			affiliate.GET("/dashboard", publicHandler.GetAffiliateDashboard)
			affiliate.GET("/earnings", publicHandler.GetAffiliateEarnings)
			affiliate.GET("/referrals", publicHandler.GetAffiliateReferrals)
			affiliate.GET("/link", publicHandler.GetAffiliateLink)
			affiliate.POST("/payout/request", publicHandler.RequestAffiliatePayout)
			affiliate.GET("/payouts", publicHandler.GetAffiliatePayouts)
			affiliate.GET("/profile", publicHandler.GetAffiliateProfile)
			affiliate.PUT("/profile", publicHandler.UpdateAffiliateProfile)
		}

		// 管理员接口
		admin := apiV1.Group("/admin")
		admin.Use(AdminJWTAuthMiddleware(cfg.JWT.SecretKey, c.AdminRepo))
		{
			admin.GET("/dashboard", adminHandler.GetDashboard)

			admin.GET("/affiliates", adminHandler.GetAdminAffiliates)
			admin.GET("/affiliates/:id", adminHandler.GetAdminAffiliate)
			admin.PUT("/affiliates/:id/status", adminHandler.UpdateAdminAffiliateStatus)

			admin.GET("/referrals", adminHandler.GetAdminReferrals)

			admin.GET("/payouts", adminHandler.GetAdminPayouts)
			admin.GET("/payouts/:id", adminHandler.GetAdminPayout)
			admin.PUT("/payouts/:id", adminHandler.AdvanceAdminPayout)

			admin.GET("/webhooks/logs", adminHandler.GetAdminWebhookLogs)

			admin.PUT("/password", adminHandler.UpdateAdminPassword)
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
