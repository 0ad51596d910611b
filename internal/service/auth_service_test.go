package service

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/models"
	"github.com/affiliate-next/internal/repository"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupAuthServiceTest(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Admin{}, &models.Affiliate{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{
		JWT:          config.JWTConfig{SecretKey: "auth-service-test-admin-secret-key-0001", ExpireHours: 24},
		AffiliateJWT: config.JWTConfig{SecretKey: "auth-service-test-portal-secret-key-001", ExpireHours: 72},
	}
	return NewAuthService(cfg, repository.NewAdminRepository(db), repository.NewAffiliateRepository(db)), db
}

func createAuthTestAdmin(t *testing.T, db *gorm.DB, email, password string) models.Admin {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	row := models.Admin{
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := db.Create(&row).Error; err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	return row
}

func TestRegisterAffiliate(t *testing.T) {
	svc, db := setupAuthServiceTest(t)

	affiliate, err := svc.RegisterAffiliate("New Promoter", "  Promoter@Example.com ", "secret-password")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if affiliate.Email != "promoter@example.com" {
		t.Fatalf("email not normalized: %s", affiliate.Email)
	}
	if affiliate.Status != constants.AffiliateStatusPending {
		t.Fatalf("status want pending got %s", affiliate.Status)
	}
	if len(affiliate.ReferralCode) != constants.ReferralCodeLength {
		t.Fatalf("code length want %d got %d", constants.ReferralCodeLength, len(affiliate.ReferralCode))
	}
	for _, ch := range affiliate.ReferralCode {
		if !strings.ContainsRune(referralCodeCharset, ch) {
			t.Fatalf("code contains char outside charset: %s", affiliate.ReferralCode)
		}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(affiliate.PasswordHash), []byte("secret-password")); err != nil {
		t.Fatalf("password hash not verifiable: %v", err)
	}

	var count int64
	if err := db.Model(&models.Affiliate{}).Count(&count).Error; err != nil {
		t.Fatalf("count affiliates failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("affiliate rows want 1 got %d", count)
	}

	if _, err := svc.RegisterAffiliate("Dup", "promoter@example.com", "secret-password"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("duplicate email want ErrEmailTaken got %v", err)
	}
}

func TestAffiliateLoginGating(t *testing.T) {
	svc, db := setupAuthServiceTest(t)

	affiliate, err := svc.RegisterAffiliate("Gated", "gated@example.com", "secret-password")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// 待审核账号不签发会话
	if _, _, _, err := svc.AffiliateLogin("gated@example.com", "secret-password"); !errors.Is(err, ErrAffiliateNotApproved) {
		t.Fatalf("pending login want ErrAffiliateNotApproved got %v", err)
	}

	if err := db.Model(&models.Affiliate{}).Where("id = ?", affiliate.ID).
		Update("status", constants.AffiliateStatusApproved).Error; err != nil {
		t.Fatalf("approve affiliate failed: %v", err)
	}
	logged, token, expiresAt, err := svc.AffiliateLogin("gated@example.com", "secret-password")
	if err != nil {
		t.Fatalf("approved login failed: %v", err)
	}
	if logged.LastLoginAt == nil {
		t.Fatalf("last_login_at not set")
	}
	if !expiresAt.After(time.Now().Add(71 * time.Hour)) {
		t.Fatalf("expires_at too early: %v", expiresAt)
	}
	claims, err := svc.ParseAffiliateJWT(token)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if claims.AffiliateID != affiliate.ID || claims.ReferralCode != affiliate.ReferralCode {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	if err := db.Model(&models.Affiliate{}).Where("id = ?", affiliate.ID).
		Update("status", constants.AffiliateStatusSuspended).Error; err != nil {
		t.Fatalf("suspend affiliate failed: %v", err)
	}
	if _, _, _, err := svc.AffiliateLogin("gated@example.com", "secret-password"); !errors.Is(err, ErrAffiliateSuspended) {
		t.Fatalf("suspended login want ErrAffiliateSuspended got %v", err)
	}

	if _, _, _, err := svc.AffiliateLogin("gated@example.com", "wrong-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials got %v", err)
	}
	if _, _, _, err := svc.AffiliateLogin("nobody@example.com", "secret-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown email want ErrInvalidCredentials got %v", err)
	}
}

func TestAdminLogin(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	admin := createAuthTestAdmin(t, db, "admin@example.com", "admin-password")

	logged, token, _, err := svc.AdminLogin("admin@example.com", "admin-password")
	if err != nil {
		t.Fatalf("admin login failed: %v", err)
	}
	if logged.ID != admin.ID {
		t.Fatalf("admin id want %d got %d", admin.ID, logged.ID)
	}
	claims, err := svc.ParseAdminJWT(token)
	if err != nil {
		t.Fatalf("parse admin token failed: %v", err)
	}
	if claims.AdminID != admin.ID || claims.Email != admin.Email {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	// 管理员与推广用户的密钥互不通用
	if _, err := svc.ParseAffiliateJWT(token); err == nil {
		t.Fatalf("admin token accepted by affiliate parser")
	}

	if _, _, _, err := svc.AdminLogin("admin@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials got %v", err)
	}
}

func TestAdminChangePassword(t *testing.T) {
	svc, db := setupAuthServiceTest(t)
	admin := createAuthTestAdmin(t, db, "change@example.com", "old-password")

	if err := svc.AdminChangePassword(admin.ID, "wrong-password", "new-password"); !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("wrong old password want ErrInvalidPassword got %v", err)
	}
	if err := svc.AdminChangePassword(99999, "old-password", "new-password"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing admin want ErrNotFound got %v", err)
	}

	if err := svc.AdminChangePassword(admin.ID, "old-password", "new-password"); err != nil {
		t.Fatalf("change password failed: %v", err)
	}
	if _, _, _, err := svc.AdminLogin("change@example.com", "new-password"); err != nil {
		t.Fatalf("login with new password failed: %v", err)
	}
	if _, _, _, err := svc.AdminLogin("change@example.com", "old-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
}
