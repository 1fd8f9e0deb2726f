package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/tkob-team/TKOB-QROrderSystem-sub008/entity"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/pkg/apperr"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/repository"
	"github.com/tkob-team/TKOB-QROrderSystem-sub008/utils"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService จัดการ login ของพนักงานร้าน
type AuthService struct {
	staffRepo *repository.StaffRepository
	jwtSecret string
	jwtTTL    time.Duration
}

func NewAuthService(repo *repository.StaffRepository, secret string, ttl time.Duration) *AuthService {
	return &AuthService{staffRepo: repo, jwtSecret: secret, jwtTTL: ttl}
}

// Register สร้างพนักงานใหม่ (ใช้ตอน seed) ถ้า email ซ้ำจะ error
func (s *AuthService) Register(tenantID uint, email, password, name, role string) (*entity.StaffUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	switch role {
	case entity.RoleOwner, entity.RoleStaff, entity.RoleKitchen:
	default:
		return nil, apperr.Validation("unknown role %q", role)
	}

	count, err := s.staffRepo.CountByEmail(email)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("%w: email already registered", apperr.ErrConflict)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("hash password failed")
	}
	u := &entity.StaffUser{
		Email:    email,
		Password: string(hashed),
		Name:     strings.TrimSpace(name),
		Role:     role,
		TenantID: tenantID,
	}
	if err := s.staffRepo.Create(u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login ตรวจรหัสผ่าน + ออก JWT
func (s *AuthService) Login(email, password string) (string, *entity.StaffUser, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, err := s.staffRepo.FindByEmail(email)
	if err != nil {
		return "", nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}
	token, err := utils.GenerateStaffToken(u.ID, u.TenantID, u.Role, s.jwtSecret, s.jwtTTL)
	if err != nil {
		return "", nil, errors.New("cannot generate token")
	}
	return token, u, nil
}

func (s *AuthService) Me(userID uint) (*entity.StaffUser, error) {
	return s.staffRepo.FindByID(userID)
}
