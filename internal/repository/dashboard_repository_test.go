package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupDashboardRepositoryTest(t *testing.T) (*GormDashboardRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:dashboard_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Affiliate{},
		&models.Referral{},
		&models.Click{},
		&models.Payout{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewDashboardRepository(db), db
}

func createDashboardTestPayout(t *testing.T, db *gorm.DB, affiliateID uint, amount, status string) models.Payout {
	t.Helper()
	row := models.Payout{
		AffiliateID:   affiliateID,
		Amount:        models.NewMoneyFromDecimal(decimal.RequireFromString(amount)),
		WalletAddress: "TDashWallet00000000000000000000001",
		Status:        status,
		RequestedAt:   time.Now(),
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create payout failed: %v", err)
	}
	return row
}

func TestDashboardOverviewTotals(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	affiliate := createTestAffiliate(t, db, "OVER1234")
	now := time.Now().UTC().Truncate(time.Second)

	createPaidReferral(t, db, affiliate.ID, "over-paid-1", "10.00", now)
	createPaidReferral(t, db, affiliate.ID, "over-paid-2", "5.00", now)

	createDashboardTestPayout(t, db, affiliate.ID, "12.00", constants.PayoutStatusPending)
	createDashboardTestPayout(t, db, affiliate.ID, "7.50", constants.PayoutStatusCompleted)
	createDashboardTestPayout(t, db, affiliate.ID, "4.50", constants.PayoutStatusCompleted)
	createDashboardTestPayout(t, db, affiliate.ID, "3.00", constants.PayoutStatusFailed)

	overview, err := repo.GetOverview()
	if err != nil {
		t.Fatalf("get overview failed: %v", err)
	}
	if overview.TotalAffiliates != 1 || overview.PaidReferrals != 2 {
		t.Fatalf("unexpected counts: %+v", overview)
	}
	if !overview.TotalCommissions.Equal(decimal.RequireFromString("15.00")) {
		t.Fatalf("total commissions want 15.00 got %s", overview.TotalCommissions.String())
	}
	if overview.PendingPayoutCount != 1 || !overview.PendingPayoutAmount.Equal(decimal.RequireFromString("12.00")) {
		t.Fatalf("unexpected pending payouts: %+v", overview)
	}
	if !overview.TotalPaidOut.Equal(decimal.RequireFromString("12.00")) {
		t.Fatalf("total paid out want 12.00 got %s", overview.TotalPaidOut.String())
	}
}

func TestDashboardRevenueTrendsKeyedOnPaidAt(t *testing.T) {
	repo, db := setupDashboardRepositoryTest(t)
	affiliate := createTestAffiliate(t, db, "TRND1234")
	now := time.Now().UTC().Truncate(time.Second)
	startAt := now.AddDate(0, 0, -30)
	endAt := now.Add(24 * time.Hour)

	// 注册在窗口外、付费在窗口内：趋势必须按付费日落点
	oldSignup := now.AddDate(0, 0, -45)
	recentPay := now.Add(-3 * time.Hour)
	payment := models.NewMoneyFromDecimal(decimal.RequireFromString("200.00"))
	rate := models.NewMoneyFromDecimal(decimal.RequireFromString("10.00"))
	commission := models.NewMoneyFromDecimal(decimal.RequireFromString("20.00"))
	lateConvert := models.Referral{
		AffiliateID:      affiliate.ID,
		ReferredUserID:   "trend-late-convert",
		Status:           constants.ReferralStatusPaid,
		PaymentAmount:    &payment,
		CommissionRate:   &rate,
		CommissionAmount: &commission,
		Currency:         constants.DefaultCurrency,
		SignedUpAt:       oldSignup,
		PaidAt:           &recentPay,
		CreatedAt:        oldSignup,
	}
	if err := db.Create(&lateConvert).Error; err != nil {
		t.Fatalf("create late-converting referral failed: %v", err)
	}

	// 付费在窗口外：不计入趋势
	createPaidReferral(t, db, affiliate.ID, "trend-old-pay", "9.00", now.AddDate(0, 0, -40))

	rows, err := repo.GetRevenueTrends(startAt, endAt)
	if err != nil {
		t.Fatalf("get revenue trends failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("trend rows want 1 got %d: %+v", len(rows), rows)
	}
	wantDay := recentPay.Format("2006-01-02")
	if rows[0].Day != wantDay {
		t.Fatalf("trend day want %s got %s", wantDay, rows[0].Day)
	}
	if rows[0].Payments != 1 {
		t.Fatalf("payments want 1 got %d", rows[0].Payments)
	}
	if !rows[0].Revenue.Equal(decimal.RequireFromString("200.00")) {
		t.Fatalf("revenue want 200.00 got %s", rows[0].Revenue.String())
	}
	if !rows[0].Commissions.Equal(decimal.RequireFromString("20.00")) {
		t.Fatalf("commissions want 20.00 got %s", rows[0].Commissions.String())
	}
}
