package main

import (
	"fmt"
	"time"

	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/logger"
	"github.com/affiliate-next/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 默认管理员
	if err := models.InitDefaultAdmin(cfg.Admin.Email, cfg.Admin.Password); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("demo1234"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("Failed to hash demo password: %v", err)
	}

	// 演示推广用户
	affiliates := []models.Affiliate{
		{
			Name:          "Demo Approved",
			Email:         "demo-approved@example.com",
			PasswordHash:  string(hash),
			ReferralCode:  "DEMO2APR",
			WalletAddress: "TDemoWalletAddressApproved000000001",
			Status:        constants.AffiliateStatusApproved,
		},
		{
			Name:         "Demo Pending",
			Email:        "demo-pending@example.com",
			PasswordHash: string(hash),
			ReferralCode: "DEMO2PEN",
			Status:       constants.AffiliateStatusPending,
		},
		{
			Name:         "Demo Suspended",
			Email:        "demo-suspended@example.com",
			PasswordHash: string(hash),
			ReferralCode: "DEMO2SUS",
			Status:       constants.AffiliateStatusSuspended,
		},
	}

	affiliateIDs := map[string]uint{}
	for _, item := range affiliates {
		var existing models.Affiliate
		if err := models.DB.Where("email = ?", item.Email).First(&existing).Error; err != nil {
			if err := models.DB.Create(&item).Error; err != nil {
				stdLog.Printf("Failed to create affiliate %s: %v", item.Email, err)
				continue
			}
			stdLog.Printf("Created affiliate: %s", item.Email)
			affiliateIDs[item.Email] = item.ID
		} else {
			stdLog.Printf("Affiliate already exists: %s", item.Email)
			affiliateIDs[item.Email] = existing.ID
		}
	}

	approvedID := affiliateIDs["demo-approved@example.com"]
	if approvedID == 0 {
		stdLog.Fatalf("Approved demo affiliate missing, abort seeding")
	}

	// 推荐记录：两条已付费、一条仅注册
	now := time.Now()
	paidAt1 := now.Add(-72 * time.Hour)
	paidAt2 := now.Add(-24 * time.Hour)
	payment1 := models.NewMoneyFromDecimal(decimal.NewFromFloat(120.00))
	payment2 := models.NewMoneyFromDecimal(decimal.NewFromFloat(75.50))
	rate := models.NewMoneyFromDecimal(decimal.NewFromInt(constants.CommissionTier1RatePercent))
	commission1 := models.NewMoneyFromDecimal(decimal.NewFromFloat(12.00))
	commission2 := models.NewMoneyFromDecimal(decimal.NewFromFloat(7.55))

	referrals := []models.Referral{
		{
			AffiliateID:      approvedID,
			ReferredUserID:   "seed-user-001",
			ReferredEmail:    "buyer-001@example.com",
			Status:           constants.ReferralStatusPaid,
			PaymentAmount:    &payment1,
			CommissionRate:   &rate,
			CommissionAmount: &commission1,
			Currency:         constants.DefaultCurrency,
			TransactionID:    "seed-tx-001",
			SignedUpAt:       now.Add(-96 * time.Hour),
			PaidAt:           &paidAt1,
		},
		{
			AffiliateID:      approvedID,
			ReferredUserID:   "seed-user-002",
			ReferredEmail:    "buyer-002@example.com",
			Status:           constants.ReferralStatusPaid,
			PaymentAmount:    &payment2,
			CommissionRate:   &rate,
			CommissionAmount: &commission2,
			Currency:         constants.DefaultCurrency,
			TransactionID:    "seed-tx-002",
			SignedUpAt:       now.Add(-48 * time.Hour),
			PaidAt:           &paidAt2,
		},
		{
			AffiliateID:    approvedID,
			ReferredUserID: "seed-user-003",
			ReferredEmail:  "buyer-003@example.com",
			Status:         constants.ReferralStatusSignedUp,
			SignedUpAt:     now.Add(-12 * time.Hour),
		},
	}

	createdReferrals := 0
	for _, item := range referrals {
		var existing models.Referral
		if err := models.DB.Where("referred_user_id = ?", item.ReferredUserID).First(&existing).Error; err != nil {
			if err := models.DB.Create(&item).Error; err != nil {
				stdLog.Printf("Failed to create referral %s: %v", item.ReferredUserID, err)
				continue
			}
			createdReferrals++
			stdLog.Printf("Created referral: %s", item.ReferredUserID)
		} else {
			stdLog.Printf("Referral already exists: %s", item.ReferredUserID)
		}
	}
	if createdReferrals > 0 {
		if err := models.DB.Model(&models.Affiliate{}).
			Where("id = ?", approvedID).
			Update("total_referrals", len(referrals)).Error; err != nil {
			stdLog.Printf("Failed to update total_referrals: %v", err)
		}
	}

	// 点击记录
	var clickCount int64
	if err := models.DB.Model(&models.Click{}).Where("affiliate_id = ?", approvedID).Count(&clickCount).Error; err == nil && clickCount == 0 {
		for i := 0; i < 20; i++ {
			click := models.Click{
				AffiliateID: approvedID,
				IPAddress:   fmt.Sprintf("203.0.113.%d", i+1),
				UserAgent:   "Mozilla/5.0 (seed)",
				ReferrerURL: "https://blog.example.com/review",
			}
			if err := models.DB.Create(&click).Error; err != nil {
				stdLog.Printf("Failed to create click: %v", err)
			}
		}
		stdLog.Printf("Created 20 clicks for affiliate %d", approvedID)
	}

	// 一条待处理提现
	var payoutCount int64
	if err := models.DB.Model(&models.Payout{}).Where("affiliate_id = ?", approvedID).Count(&payoutCount).Error; err == nil && payoutCount == 0 {
		payout := models.Payout{
			AffiliateID:   approvedID,
			Amount:        models.NewMoneyFromDecimal(decimal.NewFromFloat(10.00)),
			WalletAddress: "TDemoWalletAddressApproved000000001",
			Status:        constants.PayoutStatusPending,
			RequestedAt:   now.Add(-6 * time.Hour),
		}
		if err := models.DB.Create(&payout).Error; err != nil {
			stdLog.Printf("Failed to create payout: %v", err)
		} else {
			stdLog.Printf("Created pending payout for affiliate %d", approvedID)
		}
	}

	fmt.Println("\n✅ Demo data created successfully!")
	fmt.Println("Summary:")
	fmt.Println("- 3 Affiliates (approved / pending / suspended, password: demo1234)")
	fmt.Println("- 3 Referrals (2 paid + 1 signed up)")
	fmt.Println("- 20 Clicks")
	fmt.Println("- 1 Pending payout")
}
