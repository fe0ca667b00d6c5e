package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hotel-booking/models"
)

func TestAuthService_RegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, nil)
	ctx := context.Background()

	p, err := svc.Register(ctx, RegisterInput{Email: " New@Example.com ", Password: "secret1", Phone: strPtr("13800138000")})
	require.NoError(t, err)
	assert.Equal(t, models.RoleCustomer, p.Role)
	assert.Equal(t, "new@example.com", p.Email)

	_, err = svc.Register(ctx, RegisterInput{Email: "new@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	_, err = svc.Register(ctx, RegisterInput{Email: "x@example.com", Password: "12345"})
	assert.Error(t, err)

	_, err = svc.Register(ctx, RegisterInput{Email: "y@example.com", Password: "secret1", Phone: strPtr("12345")})
	assert.ErrorIs(t, err, ErrInvalidPhone)

	got, err := svc.Login(ctx, "NEW@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = svc.Login(ctx, "new@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "nobody@example.com", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_LoginProbesAdminThenStaff(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, nil)
	ctx := context.Background()
	st := seedStore(t, db, "南山店")
	seedStaff(t, db, "desk@hotel.local", &st.ID)

	hash, err := hashPassword("admin123")
	require.NoError(t, err)
	require.NoError(t, db.Create(&models.Admin{Email: "admin@hotel.local", PasswordHash: hash}).Error)

	p, err := svc.Login(ctx, "admin@hotel.local", "admin123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, p.Role)

	p, err = svc.Login(ctx, "desk@hotel.local", "secret1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, p.Role)
	require.NotNil(t, p.StoreID)
	assert.Equal(t, st.ID, *p.StoreID)

	// customer-only login never sees staff rows
	_, err = svc.LoginCustomer(ctx, "desk@hotel.local", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, db.Model(&models.Staff{}).Where("email = ?", "desk@hotel.local").Update("is_active", false).Error)
	_, err = svc.Login(ctx, "desk@hotel.local", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_LegacyPlaintextIsUpgraded(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, nil)
	require.NoError(t, db.Create(&models.Customer{Email: "old@example.com", PasswordHash: "plain-pass"}).Error)

	_, err := svc.LoginCustomer(context.Background(), "old@example.com", "plain-pass")
	require.NoError(t, err)

	var c models.Customer
	require.NoError(t, db.Where("email = ?", "old@example.com").First(&c).Error)
	assert.True(t, isBcryptHash(c.PasswordHash))
}

func TestAuthService_ResolvePrincipal(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, nil)
	ctx := context.Background()
	c := seedCustomer(t, db, "guest@example.com")

	p, err := svc.ResolvePrincipal(ctx, c.ID, models.RoleCustomer)
	require.NoError(t, err)
	assert.Equal(t, c.Email, p.Email)

	_, err = svc.ResolvePrincipal(ctx, c.ID, models.RoleAdmin)
	assert.ErrorIs(t, err, ErrUnauthorized)

	require.NoError(t, db.Model(&c).Update("is_active", false).Error)
	_, err = svc.ResolvePrincipal(ctx, c.ID, models.RoleCustomer)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthService_Profile(t *testing.T) {
	db := newTestDB(t)
	svc := NewAuthService(db, nil)
	ctx := context.Background()
	c := seedCustomer(t, db, "guest@example.com")

	got, err := svc.UpdateProfile(ctx, c.ID, ProfileInput{Name: strPtr(" 小李 "), Phone: strPtr("13912345678")})
	require.NoError(t, err)
	assert.Equal(t, "小李", *got.Name)
	assert.Equal(t, "13912345678", *got.Phone)

	_, err = svc.UpdateProfile(ctx, c.ID, ProfileInput{Phone: strPtr("10012345678")})
	assert.ErrorIs(t, err, ErrInvalidPhone)

	got, err = svc.UpdateProfile(ctx, c.ID, ProfileInput{Phone: strPtr("")})
	require.NoError(t, err)
	assert.Nil(t, got.Phone)
}

func TestUserService_Lifecycle(t *testing.T) {
	db := newTestDB(t)
	svc := NewUserService(db)
	ctx := context.Background()
	st := seedStore(t, db, "南山店")
	me := testAdmin()

	_, err := svc.Create(ctx, CreateUserInput{Email: "desk@hotel.local", Password: "secret1", Role: models.RoleStaff})
	assert.Error(t, err, "staff without a store")

	staff, err := svc.Create(ctx, CreateUserInput{Email: "desk@hotel.local", Password: "secret1", Role: models.RoleStaff, StoreID: &st.ID})
	require.NoError(t, err)
	assert.Equal(t, models.RoleStaff, staff.Role)
	require.NotNil(t, staff.Store)
	assert.Equal(t, "南山店", staff.Store.Name)

	// email is unique across admin and staff
	_, err = svc.Create(ctx, CreateUserInput{Email: "DESK@hotel.local", Password: "secret1", Role: models.RoleAdmin})
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	missing := uint(999)
	_, err = svc.Update(ctx, me, models.RoleStaff, staff.ID, UpdateUserInput{StoreID: &missing})
	assert.ErrorIs(t, err, ErrStoreNotFound)

	updated, err := svc.Update(ctx, me, models.RoleStaff, staff.ID, UpdateUserInput{Name: strPtr("前台小张"), ClearStore: true})
	require.NoError(t, err)
	assert.Equal(t, "前台小张", *updated.Name)
	assert.Nil(t, updated.StoreID)

	require.NoError(t, svc.Deactivate(ctx, me, models.RoleStaff, staff.ID))
	got, err := svc.Get(ctx, models.RoleStaff, staff.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, svc.Deactivate(ctx, me, models.RoleAdmin, me.ID), ErrCannotDeleteSelf)
	assert.ErrorIs(t, svc.Deactivate(ctx, me, models.RoleAdmin, 4242), ErrUserNotFound)

	list, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
