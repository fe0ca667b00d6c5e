package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	"hotel-booking/auth"
	"hotel-booking/models"
)

// UserService manages admin and staff accounts. Users are addressed by
// (role, id) since each role lives in its own table.
type UserService struct {
	DB *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{DB: db}
}

type UserView struct {
	ID        uint          `json:"id"`
	Role      models.Role   `json:"role"`
	Email     string        `json:"email"`
	Name      *string       `json:"name"`
	IsActive  bool          `json:"isActive"`
	StoreID   *uint         `json:"storeId"`
	Store     *models.Store `json:"store,omitempty"`
	CreatedAt time.Time     `json:"createdAt"`
}

func adminView(a models.Admin) UserView {
	return UserView{ID: a.ID, Role: models.RoleAdmin, Email: a.Email, Name: a.Name, IsActive: a.IsActive, CreatedAt: a.CreatedAt}
}

func staffView(st models.Staff) UserView {
	return UserView{
		ID:        st.ID,
		Role:      models.RoleStaff,
		Email:     st.Email,
		Name:      st.Name,
		IsActive:  st.IsActive,
		StoreID:   st.AssignedStoreID,
		Store:     st.AssignedStore,
		CreatedAt: st.CreatedAt,
	}
}

// List returns admins and staff, newest first.
func (s *UserService) List(ctx context.Context) ([]UserView, error) {
	db := s.DB.WithContext(ctx)
	var admins []models.Admin
	if err := db.Find(&admins).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve admins: %w", err)
	}
	var staff []models.Staff
	if err := db.Preload("AssignedStore").Find(&staff).Error; err != nil {
		return nil, fmt.Errorf("failed to retrieve staff: %w", err)
	}
	out := make([]UserView, 0, len(admins)+len(staff))
	for _, a := range admins {
		out = append(out, adminView(a))
	}
	for _, st := range staff {
		out = append(out, staffView(st))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *UserService) Get(ctx context.Context, role models.Role, id uint) (*UserView, error) {
	db := s.DB.WithContext(ctx)
	switch role {
	case models.RoleAdmin:
		var a models.Admin
		if err := db.First(&a, id).Error; err != nil {
			return nil, notFound(err, ErrUserNotFound)
		}
		v := adminView(a)
		return &v, nil
	case models.RoleStaff:
		var st models.Staff
		if err := db.Preload("AssignedStore").First(&st, id).Error; err != nil {
			return nil, notFound(err, ErrUserNotFound)
		}
		v := staffView(st)
		return &v, nil
	}
	return nil, Validation("无效的用户角色")
}

// backOfficeEmailTaken checks the admin and staff tables together.
func backOfficeEmailTaken(db *gorm.DB, email string, exceptRole models.Role, exceptID uint) (bool, error) {
	var n int64
	q := db.Model(&models.Admin{}).Where("LOWER(email) = ?", email)
	if exceptRole == models.RoleAdmin {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	if n > 0 {
		return true, nil
	}
	q = db.Model(&models.Staff{}).Where("LOWER(email) = ?", email)
	if exceptRole == models.RoleStaff {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

func requireStore(db *gorm.DB, storeID *uint) error {
	if storeID == nil {
		return nil
	}
	var st models.Store
	if err := db.First(&st, *storeID).Error; err != nil {
		return notFound(err, ErrStoreNotFound)
	}
	return nil
}

type CreateUserInput struct {
	Email    string
	Password string
	Name     *string
	Role     models.Role
	StoreID  *uint
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*UserView, error) {
	email := normalizeEmail(in.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, Validation("邮箱格式不正确")
	}
	if len(in.Password) < minPasswordLength {
		return nil, Validation("密码至少6位")
	}
	if in.Role != models.RoleAdmin && in.Role != models.RoleStaff {
		return nil, Validation("角色必须为 ADMIN 或 STAFF")
	}
	if in.Role == models.RoleStaff && in.StoreID == nil {
		return nil, Validation("员工必须分配门店")
	}

	var id uint
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taken, err := backOfficeEmailTaken(tx, email, "", 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrDuplicateEmail
		}
		hash, err := hashPassword(in.Password)
		if err != nil {
			return err
		}
		name := trimmedOrNil(in.Name)

		if in.Role == models.RoleAdmin {
			a := models.Admin{Email: email, PasswordHash: hash, Name: name}
			if err := tx.Create(&a).Error; err != nil {
				return err
			}
			id = a.ID
			return nil
		}
		if err := requireStore(tx, in.StoreID); err != nil {
			return err
		}
		st := models.Staff{Email: email, PasswordHash: hash, Name: name, AssignedStoreID: in.StoreID}
		if err := tx.Create(&st).Error; err != nil {
			return err
		}
		id = st.ID
		return nil
	})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return s.Get(ctx, in.Role, id)
}

type UpdateUserInput struct {
	Email    *string
	Password *string
	Name     *string
	IsActive *bool
	StoreID  *uint
	// ClearStore unassigns a staff member.
	ClearStore bool
}

func (s *UserService) Update(ctx context.Context, actor *auth.Principal, role models.Role, id uint, in UpdateUserInput) (*UserView, error) {
	if role != models.RoleAdmin && role != models.RoleStaff {
		return nil, Validation("无效的用户角色")
	}
	if in.IsActive != nil && !*in.IsActive && role == actor.Role && id == actor.ID {
		return nil, ErrCannotDeleteSelf.WithMessage("不能停用自己")
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model interface{} = &models.Admin{}
		if role == models.RoleStaff {
			model = &models.Staff{}
		}
		if err := tx.First(model, id).Error; err != nil {
			return notFound(err, ErrUserNotFound)
		}

		updates := map[string]interface{}{}
		if in.Email != nil {
			email := normalizeEmail(*in.Email)
			if email == "" || !strings.Contains(email, "@") {
				return Validation("邮箱格式不正确")
			}
			taken, err := backOfficeEmailTaken(tx, email, role, id)
			if err != nil {
				return err
			}
			if taken {
				return ErrDuplicateEmail
			}
			updates["email"] = email
		}
		if in.Password != nil && *in.Password != "" {
			if len(*in.Password) < minPasswordLength {
				return Validation("密码至少6位")
			}
			hash, err := hashPassword(*in.Password)
			if err != nil {
				return err
			}
			updates["password_hash"] = hash
		}
		if in.Name != nil {
			updates["name"] = trimmedOrNil(in.Name)
		}
		if in.IsActive != nil {
			updates["is_active"] = *in.IsActive
		}
		if role == models.RoleStaff {
			switch {
			case in.ClearStore:
				updates["assigned_store_id"] = nil
			case in.StoreID != nil:
				if err := requireStore(tx, in.StoreID); err != nil {
					return err
				}
				updates["assigned_store_id"] = *in.StoreID
			}
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(model).Where("id = ?", id).Updates(updates).Error
	})
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}
	return s.Get(ctx, role, id)
}

// Deactivate soft-deletes a user. Users can never deactivate themselves.
func (s *UserService) Deactivate(ctx context.Context, actor *auth.Principal, role models.Role, id uint) error {
	if role == actor.Role && id == actor.ID {
		return ErrCannotDeleteSelf
	}
	var model interface{}
	switch role {
	case models.RoleAdmin:
		model = &models.Admin{}
	case models.RoleStaff:
		model = &models.Staff{}
	default:
		return Validation("无效的用户角色")
	}
	db := s.DB.WithContext(ctx)
	if err := db.First(model, id).Error; err != nil {
		return notFound(err, ErrUserNotFound)
	}
	return db.Model(model).Where("id = ?", id).Update("is_active", false).Error
}
