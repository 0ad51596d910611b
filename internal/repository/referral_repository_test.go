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

func setupReferralRepositoryTest(t *testing.T) (*GormReferralRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:referral_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Affiliate{},
		&models.Referral{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewReferralRepository(db), db
}

func createTestAffiliate(t *testing.T, db *gorm.DB, code string) models.Affiliate {
	t.Helper()
	affiliate := models.Affiliate{
		Name:         "Tester " + code,
		Email:        code + "@example.com",
		PasswordHash: "hash",
		ReferralCode: code,
		Status:       constants.AffiliateStatusApproved,
	}
	if err := db.Create(&affiliate).Error; err != nil {
		t.Fatalf("create affiliate failed: %v", err)
	}
	return affiliate
}

func createPaidReferral(t *testing.T, db *gorm.DB, affiliateID uint, userID, commission string, paidAt time.Time) models.Referral {
	t.Helper()
	payment := models.NewMoneyFromDecimal(decimal.RequireFromString(commission).Mul(decimal.NewFromInt(10)))
	rate := models.NewMoneyFromDecimal(decimal.RequireFromString("10.00"))
	amount := models.NewMoneyFromDecimal(decimal.RequireFromString(commission))
	referral := models.Referral{
		AffiliateID:      affiliateID,
		ReferredUserID:   userID,
		Status:           constants.ReferralStatusPaid,
		PaymentAmount:    &payment,
		CommissionRate:   &rate,
		CommissionAmount: &amount,
		Currency:         constants.DefaultCurrency,
		SignedUpAt:       paidAt.Add(-time.Hour),
		PaidAt:           &paidAt,
		CreatedAt:        paidAt.Add(-time.Hour),
		UpdatedAt:        paidAt,
	}
	if err := db.Create(&referral).Error; err != nil {
		t.Fatalf("create paid referral failed: %v", err)
	}
	return referral
}

func TestReferralRepositoryUniqueReferredUser(t *testing.T) {
	repo, db := setupReferralRepositoryTest(t)
	affiliate := createTestAffiliate(t, db, "UNIQ1234")

	first := models.Referral{
		AffiliateID:    affiliate.ID,
		ReferredUserID: "user-1",
		Status:         constants.ReferralStatusSignedUp,
		SignedUpAt:     time.Now(),
	}
	if err := repo.Create(&first); err != nil {
		t.Fatalf("create first referral failed: %v", err)
	}

	dup := models.Referral{
		AffiliateID:    affiliate.ID,
		ReferredUserID: "user-1",
		Status:         constants.ReferralStatusSignedUp,
		SignedUpAt:     time.Now(),
	}
	if err := repo.Create(&dup); err == nil {
		t.Fatalf("expected unique violation for duplicate referred_user_id")
	}

	row, err := repo.GetByReferredUserID("user-1")
	if err != nil {
		t.Fatalf("get by referred user failed: %v", err)
	}
	if row == nil || row.ID != first.ID {
		t.Fatalf("expected first referral to survive")
	}
}

func TestReferralRepositoryPaidAggregates(t *testing.T) {
	repo, db := setupReferralRepositoryTest(t)
	affiliate := createTestAffiliate(t, db, "AGGR1234")
	other := createTestAffiliate(t, db, "OTHR1234")
	now := time.Now().UTC().Truncate(time.Second)

	createPaidReferral(t, db, affiliate.ID, "paid-1", "10.00", now.Add(-48*time.Hour))
	createPaidReferral(t, db, affiliate.ID, "paid-2", "25.50", now.Add(-24*time.Hour))
	createPaidReferral(t, db, other.ID, "paid-3", "99.00", now)

	signedUp := models.Referral{
		AffiliateID:    affiliate.ID,
		ReferredUserID: "pending-1",
		Status:         constants.ReferralStatusSignedUp,
		SignedUpAt:     now,
	}
	if err := db.Create(&signedUp).Error; err != nil {
		t.Fatalf("create signed_up referral failed: %v", err)
	}

	count, err := repo.CountPaidByAffiliate(affiliate.ID)
	if err != nil {
		t.Fatalf("count paid failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("paid count want 2 got %d", count)
	}

	sum, err := repo.SumPaidCommissionByAffiliate(affiliate.ID)
	if err != nil {
		t.Fatalf("sum paid commission failed: %v", err)
	}
	if !sum.Equal(decimal.RequireFromString("35.50")) {
		t.Fatalf("paid commission sum want 35.50 got %s", sum.String())
	}

	stats, err := repo.GetCommissionStats(affiliate.ID)
	if err != nil {
		t.Fatalf("commission stats failed: %v", err)
	}
	if stats.PaidCount != 2 {
		t.Fatalf("stats paid count want 2 got %d", stats.PaidCount)
	}
	if !stats.MaxCommission.Equal(decimal.RequireFromString("25.50")) {
		t.Fatalf("max commission want 25.50 got %s", stats.MaxCommission.String())
	}
	if !stats.AvgCommission.Equal(decimal.RequireFromString("17.75")) {
		t.Fatalf("avg commission want 17.75 got %s", stats.AvgCommission.String())
	}
}

func TestReferralRepositoryMonthlyEarningsKeyedOnPaidAt(t *testing.T) {
	repo, db := setupReferralRepositoryTest(t)
	affiliate := createTestAffiliate(t, db, "MNTH1234")
	now := time.Now().UTC().Truncate(time.Second)
	startAt := now.AddDate(0, -12, 0)

	// 注册在 14 个月前，付费在昨天：必须计入近 12 个月明细
	oldSignup := now.AddDate(0, -14, 0)
	recentPay := now.Add(-24 * time.Hour)
	payment := models.NewMoneyFromDecimal(decimal.RequireFromString("120.00"))
	rate := models.NewMoneyFromDecimal(decimal.RequireFromString("10.00"))
	commission := models.NewMoneyFromDecimal(decimal.RequireFromString("12.00"))
	lateConvert := models.Referral{
		AffiliateID:      affiliate.ID,
		ReferredUserID:   "month-late-convert",
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

	// 付费在 13 个月前：不计入，即使记录行更新时间较新
	stalePay := now.AddDate(0, -13, 0)
	createPaidReferral(t, db, affiliate.ID, "month-stale-pay", "30.00", stalePay)

	rows, err := repo.ListMonthlyEarnings(affiliate.ID, startAt)
	if err != nil {
		t.Fatalf("list monthly earnings failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("monthly rows want 1 got %d: %+v", len(rows), rows)
	}
	if rows[0].Month != recentPay.Format("2006-01") {
		t.Fatalf("month want %s got %s", recentPay.Format("2006-01"), rows[0].Month)
	}
	if rows[0].Paid != 1 {
		t.Fatalf("paid count want 1 got %d", rows[0].Paid)
	}
	if !rows[0].Earnings.Equal(decimal.RequireFromString("12.00")) {
		t.Fatalf("earnings want 12.00 got %s", rows[0].Earnings.String())
	}
}

func TestReferralRepositoryDailyStatsPaidKeyedOnPaidAt(t *testing.T) {
	repo, db := setupReferralRepositoryTest(t)
	affiliate := createTestAffiliate(t, db, "DAYS1234")
	now := time.Now().UTC().Truncate(time.Second)
	startAt := now.AddDate(0, 0, -30)
	endAt := now.Add(24 * time.Hour)

	oldSignup := now.AddDate(0, 0, -45)
	recentPay := now.Add(-2 * time.Hour)
	payment := models.NewMoneyFromDecimal(decimal.RequireFromString("80.00"))
	rate := models.NewMoneyFromDecimal(decimal.RequireFromString("10.00"))
	commission := models.NewMoneyFromDecimal(decimal.RequireFromString("8.00"))
	lateConvert := models.Referral{
		AffiliateID:      affiliate.ID,
		ReferredUserID:   "day-late-convert",
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

	rows, err := repo.ListDailyStats(affiliate.ID, startAt, endAt)
	if err != nil {
		t.Fatalf("list daily stats failed: %v", err)
	}
	wantDay := recentPay.Format("2006-01-02")
	var found *ReferralDailyStatRow
	for i := range rows {
		if rows[i].Day == wantDay {
			found = &rows[i]
		}
	}
	if found == nil {
		t.Fatalf("paid day %s missing from daily stats: %+v", wantDay, rows)
	}
	if found.Paid != 1 {
		t.Fatalf("paid count want 1 got %d", found.Paid)
	}
	if !found.Earnings.Equal(decimal.RequireFromString("8.00")) {
		t.Fatalf("earnings want 8.00 got %s", found.Earnings.String())
	}
	if found.Signups != 0 {
		t.Fatalf("signup registered 45 days ago should not count today, got %d", found.Signups)
	}
}

func TestReferralRepositoryListFilters(t *testing.T) {
	repo, db := setupReferralRepositoryTest(t)
	affiliate := createTestAffiliate(t, db, "LIST1234")
	other := createTestAffiliate(t, db, "LIST5678")
	now := time.Now().UTC().Truncate(time.Second)

	createPaidReferral(t, db, affiliate.ID, "list-paid-1", "12.00", now)
	signedUp := models.Referral{
		AffiliateID:    affiliate.ID,
		ReferredUserID: "list-pending-1",
		Status:         constants.ReferralStatusSignedUp,
		SignedUpAt:     now,
	}
	if err := db.Create(&signedUp).Error; err != nil {
		t.Fatalf("create signed_up referral failed: %v", err)
	}
	createPaidReferral(t, db, other.ID, "list-paid-2", "20.00", now)

	rows, total, err := repo.List(ReferralListFilter{
		Page:        1,
		PageSize:    20,
		AffiliateID: affiliate.ID,
		Status:      constants.ReferralStatusPaid,
	})
	if err != nil {
		t.Fatalf("list referrals failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("total want 1 got %d", total)
	}
	if len(rows) != 1 || rows[0].ReferredUserID != "list-paid-1" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}
