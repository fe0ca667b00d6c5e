package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hotel-booking/auth"
	"hotel-booking/models"
)

const minPasswordLength = 6

var phonePattern = regexp.MustCompile(`^1[3-9]\d{9}$`)

type AuthService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewAuthService(db *gorm.DB, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{DB: db, Log: log}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// checkPassword verifies password against stored. Imported rows may still
// carry a plaintext password; those are upgraded to bcrypt on first login.
func (s *AuthService) checkPassword(db *gorm.DB, model interface{}, id uint, stored, password string) bool {
	if stored == "" {
		return false
	}
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	if stored != password {
		return false
	}
	if hash, err := hashPassword(password); err == nil {
		if err := db.Model(model).Where("id = ?", id).Update("password_hash", hash).Error; err != nil {
			s.Log.Warn("password rehash failed", zap.Uint("id", id), zap.Error(err))
		}
	}
	return true
}

func adminPrincipal(a models.Admin) *auth.Principal {
	return &auth.Principal{ID: a.ID, Role: models.RoleAdmin, Email: a.Email, Name: a.Name}
}

func staffPrincipal(st models.Staff) *auth.Principal {
	return &auth.Principal{ID: st.ID, Role: models.RoleStaff, Email: st.Email, Name: st.Name, StoreID: st.AssignedStoreID}
}

func customerPrincipal(c models.Customer) *auth.Principal {
	return &auth.Principal{ID: c.ID, Role: models.RoleCustomer, Email: c.Email, Name: c.Name, Phone: c.Phone}
}

// Login probes the admin, staff and customer tables in that order. Only
// active rows can authenticate.
func (s *AuthService) Login(ctx context.Context, email, password string) (*auth.Principal, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, Validation("请输入邮箱和密码")
	}
	db := s.DB.WithContext(ctx)

	var admin models.Admin
	err := db.Where("LOWER(email) = ? AND is_active = ?", email, true).First(&admin).Error
	if err == nil {
		if s.checkPassword(db, &models.Admin{}, admin.ID, admin.PasswordHash, password) {
			return adminPrincipal(admin), nil
		}
		return nil, ErrInvalidCredentials
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var staff models.Staff
	err = db.Where("LOWER(email) = ? AND is_active = ?", email, true).First(&staff).Error
	if err == nil {
		if s.checkPassword(db, &models.Staff{}, staff.ID, staff.PasswordHash, password) {
			return staffPrincipal(staff), nil
		}
		return nil, ErrInvalidCredentials
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return s.LoginCustomer(ctx, email, password)
}

// LoginCustomer authenticates against the customer table only.
func (s *AuthService) LoginCustomer(ctx context.Context, email, password string) (*auth.Principal, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, Validation("请输入邮箱和密码")
	}
	db := s.DB.WithContext(ctx)
	var c models.Customer
	if err := db.Where("LOWER(email) = ? AND is_active = ?", email, true).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.checkPassword(db, &models.Customer{}, c.ID, c.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return customerPrincipal(c), nil
}

type RegisterInput struct {
	Email    string
	Password string
	Name     *string
	Phone    *string
}

func validatePhone(phone *string) (*string, error) {
	p := trimmedOrNil(phone)
	if p != nil && !phonePattern.MatchString(*p) {
		return nil, ErrInvalidPhone
	}
	return p, nil
}

// Register creates a customer account.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*auth.Principal, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, Validation("邮箱格式不正确")
	}
	if len(in.Password) < minPasswordLength {
		return nil, Validation("密码至少6位")
	}
	phone, err := validatePhone(in.Phone)
	if err != nil {
		return nil, err
	}

	db := s.DB.WithContext(ctx)
	var n int64
	if err := db.Model(&models.Customer{}).Where("LOWER(email) = ?", email).Count(&n).Error; err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, ErrDuplicateEmail.WithMessage("该邮箱已注册")
	}

	hash, err := hashPassword(in.Password)
	if err != nil {
		return nil, err
	}
	c := models.Customer{
		Email:        email,
		PasswordHash: hash,
		Name:         trimmedOrNil(in.Name),
		Phone:        phone,
	}
	if err := db.Create(&c).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEmail.WithMessage("该邮箱已注册")
		}
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}
	return customerPrincipal(c), nil
}

// ResolvePrincipal loads the active user a session token points at.
func (s *AuthService) ResolvePrincipal(ctx context.Context, userID uint, role models.Role) (*auth.Principal, error) {
	db := s.DB.WithContext(ctx)
	switch role {
	case models.RoleAdmin:
		var a models.Admin
		if err := db.Where("id = ? AND is_active = ?", userID, true).First(&a).Error; err != nil {
			return nil, notFound(err, ErrUnauthorized)
		}
		return adminPrincipal(a), nil
	case models.RoleStaff:
		var st models.Staff
		if err := db.Where("id = ? AND is_active = ?", userID, true).First(&st).Error; err != nil {
			return nil, notFound(err, ErrUnauthorized)
		}
		return staffPrincipal(st), nil
	case models.RoleCustomer:
		var c models.Customer
		if err := db.Where("id = ? AND is_active = ?", userID, true).First(&c).Error; err != nil {
			return nil, notFound(err, ErrUnauthorized)
		}
		return customerPrincipal(c), nil
	}
	return nil, ErrUnauthorized
}

func (s *AuthService) GetProfile(ctx context.Context, customerID uint) (*models.Customer, error) {
	var c models.Customer
	if err := s.DB.WithContext(ctx).Where("id = ? AND is_active = ?", customerID, true).First(&c).Error; err != nil {
		return nil, notFound(err, ErrCustomerNotFound)
	}
	return &c, nil
}

type ProfileInput struct {
	Name  *string
	Phone *string
}

func (s *AuthService) UpdateProfile(ctx context.Context, customerID uint, in ProfileInput) (*models.Customer, error) {
	c, err := s.GetProfile(ctx, customerID)
	if err != nil {
		return nil, err
	}
	updates := map[string]interface{}{}
	if in.Name != nil {
		updates["name"] = trimmedOrNil(in.Name)
	}
	if in.Phone != nil {
		phone, err := validatePhone(in.Phone)
		if err != nil {
			return nil, err
		}
		updates["phone"] = phone
	}
	if len(updates) > 0 {
		if err := s.DB.WithContext(ctx).Model(&models.Customer{}).Where("id = ?", c.ID).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}
	return s.GetProfile(ctx, customerID)
}
