package service

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/affiliate-next/internal/config"
	"github.com/affiliate-next/internal/constants"
	"github.com/affiliate-next/internal/models"
	"github.com/affiliate-next/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const referralCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const referralCodeMaxAttempts = 5

// AuthService 认证服务，管理员与推广用户使用独立密钥签发会话。
type AuthService struct {
	cfg           *config.Config
	adminRepo     repository.AdminRepository
	affiliateRepo repository.AffiliateRepository
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, adminRepo repository.AdminRepository, affiliateRepo repository.AffiliateRepository) *AuthService {
	return &AuthService{
		cfg:           cfg,
		adminRepo:     adminRepo,
		affiliateRepo: affiliateRepo,
	}
}

// HashPassword 使用 bcrypt 加密密码
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword 验证密码
func (s *AuthService) VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

// AdminClaims 管理员会话声明
type AdminClaims struct {
	AdminID uint   `json:"admin_id"`
	Email   string `json:"email"`
	jwt.RegisteredClaims
}

// AffiliateClaims 推广用户会话声明
type AffiliateClaims struct {
	AffiliateID  uint   `json:"affiliate_id"`
	Email        string `json:"email"`
	ReferralCode string `json:"referral_code"`
	jwt.RegisteredClaims
}

// GenerateAdminJWT 签发管理员 Token
func (s *AuthService) GenerateAdminJWT(admin *models.Admin) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(s.cfg.JWT.ExpireHours) * time.Hour)

	claims := AdminClaims{
		AdminID: admin.ID,
		Email:   admin.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.JWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseAdminJWT 解析管理员 Token
func (s *AuthService) ParseAdminJWT(tokenString string) (*AdminClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &AdminClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.JWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*AdminClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("无效的 token")
}

// GenerateAffiliateJWT 签发推广用户 Token
func (s *AuthService) GenerateAffiliateJWT(affiliate *models.Affiliate) (string, time.Time, error) {
	expiresAt := time.Now().Add(time.Duration(s.cfg.AffiliateJWT.ExpireHours) * time.Hour)

	claims := AffiliateClaims{
		AffiliateID:  affiliate.ID,
		Email:        affiliate.Email,
		ReferralCode: affiliate.ReferralCode,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(s.cfg.AffiliateJWT.SecretKey))
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseAffiliateJWT 解析推广用户 Token
func (s *AuthService) ParseAffiliateJWT(tokenString string) (*AffiliateClaims, error) {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	token, err := parser.ParseWithClaims(tokenString, &AffiliateClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.cfg.AffiliateJWT.SecretKey), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(*AffiliateClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("无效的 token")
}

// AdminLogin 管理员登录
func (s *AuthService) AdminLogin(email, password string) (*models.Admin, string, time.Time, error) {
	admin, err := s.adminRepo.GetByEmail(email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if admin == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	if err := s.VerifyPassword(admin.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := s.GenerateAdminJWT(admin)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	if err := s.adminRepo.UpdateLastLogin(admin.ID, now); err != nil {
		return nil, "", time.Time{}, err
	}
	admin.LastLoginAt = &now

	return admin, token, expiresAt, nil
}

// AffiliateLogin 推广用户登录，未审核通过的账号不签发会话
func (s *AuthService) AffiliateLogin(email, password string) (*models.Affiliate, string, time.Time, error) {
	affiliate, err := s.affiliateRepo.GetByEmail(email)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if affiliate == nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	if err := s.VerifyPassword(affiliate.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	switch affiliate.Status {
	case constants.AffiliateStatusApproved:
	case constants.AffiliateStatusSuspended:
		return nil, "", time.Time{}, ErrAffiliateSuspended
	default:
		return nil, "", time.Time{}, ErrAffiliateNotApproved
	}

	token, expiresAt, err := s.GenerateAffiliateJWT(affiliate)
	if err != nil {
		return nil, "", time.Time{}, err
	}

	now := time.Now()
	if err := s.affiliateRepo.UpdateLastLogin(affiliate.ID, now); err != nil {
		return nil, "", time.Time{}, err
	}
	affiliate.LastLoginAt = &now

	return affiliate, token, expiresAt, nil
}

// RegisterAffiliate 注册推广用户，初始状态为待审核
func (s *AuthService) RegisterAffiliate(name, email, password string) (*models.Affiliate, error) {
	normalizedEmail := strings.ToLower(strings.TrimSpace(email))

	existing, err := s.affiliateRepo.GetByEmail(normalizedEmail)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	// 推广码冲突时换码重试
	var affiliate *models.Affiliate
	for attempt := 0; attempt < referralCodeMaxAttempts; attempt++ {
		code, err := generateReferralCode()
		if err != nil {
			return nil, err
		}
		candidate := &models.Affiliate{
			Name:         strings.TrimSpace(name),
			Email:        normalizedEmail,
			PasswordHash: hash,
			ReferralCode: code,
			Status:       constants.AffiliateStatusPending,
		}
		if err := s.affiliateRepo.Create(candidate); err != nil {
			if isUniqueViolation(err) {
				conflict, lookupErr := s.affiliateRepo.GetByEmail(normalizedEmail)
				if lookupErr == nil && conflict != nil {
					return nil, ErrEmailTaken
				}
				continue
			}
			return nil, err
		}
		affiliate = candidate
		break
	}
	if affiliate == nil {
		return nil, errors.New("推广码生成失败")
	}
	return affiliate, nil
}

// AdminChangePassword 修改管理员密码
func (s *AuthService) AdminChangePassword(adminID uint, oldPassword, newPassword string) error {
	admin, err := s.adminRepo.GetByID(adminID)
	if err != nil {
		return err
	}
	if admin == nil {
		return ErrNotFound
	}

	if err := s.VerifyPassword(admin.PasswordHash, oldPassword); err != nil {
		return ErrInvalidPassword
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.adminRepo.UpdatePassword(adminID, hash, time.Now())
}

// generateReferralCode 生成推广码，剔除易混淆字符
func generateReferralCode() (string, error) {
	buf := make([]byte, constants.ReferralCodeLength)
	max := big.NewInt(int64(len(referralCodeCharset)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = referralCodeCharset[n.Int64()]
	}
	return string(buf), nil
}
