package auth

import "hotel-booking/models"

// Principal is the authenticated user behind a session, resolved once per
// request from the table that matches its role.
type Principal struct {
	ID      uint        `json:"id"`
	Role    models.Role `json:"role"`
	Email   string      `json:"email"`
	Name    *string     `json:"name"`
	Phone   *string     `json:"phone,omitempty"`
	StoreID *uint       `json:"storeId,omitempty"`
}

func (p *Principal) IsAdmin() bool    { return p != nil && p.Role == models.RoleAdmin }
func (p *Principal) IsStaff() bool    { return p != nil && p.Role == models.RoleStaff }
func (p *Principal) IsCustomer() bool { return p != nil && p.Role == models.RoleCustomer }

// CanAccessStore: admins reach every store, staff only their assigned one.
func (p *Principal) CanAccessStore(storeID uint) bool {
	if p == nil {
		return false
	}
	switch p.Role {
	case models.RoleAdmin:
		return true
	case models.RoleStaff:
		return p.StoreID != nil && *p.StoreID == storeID
	}
	return false
}

// AccessibleStoreIDs returns nil when every store is accessible.
func (p *Principal) AccessibleStoreIDs() []uint {
	if p.IsAdmin() {
		return nil
	}
	if p.IsStaff() && p.StoreID != nil {
		return []uint{*p.StoreID}
	}
	return []uint{}
}
