package gormdb

import (
	"time"

	"github.com/stockroom/inventory-system/internal/core/domain"
)

// Optional unique columns are pointers so that absent values are stored as
// NULL and never collide with each other.
type userModel struct {
	ID             uint    `gorm:"primaryKey"`
	Username       string  `gorm:"size:64;not null;uniqueIndex"`
	Email          *string `gorm:"size:255;uniqueIndex"`
	PasswordHash   string  `gorm:"size:255"`
	ExternalID     *string `gorm:"size:255;uniqueIndex"`
	FirstName      string  `gorm:"size:100"`
	LastName       string  `gorm:"size:100"`
	ProfilePicture string  `gorm:"size:512"`
	AuthProvider   string  `gorm:"size:16;not null;default:local"`
	Role           string  `gorm:"size:16;not null;default:user;index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (userModel) TableName() string { return "users" }

func toUserModel(u *domain.User) userModel {
	return userModel{
		ID:             u.ID,
		Username:       u.Username,
		Email:          nullable(u.Email),
		PasswordHash:   u.PasswordHash,
		ExternalID:     nullable(u.ExternalID),
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		ProfilePicture: u.ProfilePicture,
		AuthProvider:   string(u.AuthProvider),
		Role:           string(u.Role),
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

func (m userModel) toDomain() *domain.User {
	return &domain.User{
		ID:             m.ID,
		Username:       m.Username,
		Email:          deref(m.Email),
		PasswordHash:   m.PasswordHash,
		ExternalID:     deref(m.ExternalID),
		FirstName:      m.FirstName,
		LastName:       m.LastName,
		ProfilePicture: m.ProfilePicture,
		AuthProvider:   domain.AuthProvider(m.AuthProvider),
		Role:           domain.Role(m.Role),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

type productModel struct {
	ID          uint    `gorm:"primaryKey"`
	Name        string  `gorm:"size:200;not null;index"`
	Type        string  `gorm:"size:100;index"`
	SKU         string  `gorm:"column:sku;size:64;not null;uniqueIndex"`
	ImageURL    string  `gorm:"size:512"`
	Description string  `gorm:"type:text"`
	Quantity    int     `gorm:"not null;default:0"`
	Price       float64 `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (productModel) TableName() string { return "products" }

func toProductModel(p *domain.Product) productModel {
	return productModel{
		ID:          p.ID,
		Name:        p.Name,
		Type:        p.Type,
		SKU:         p.SKU,
		ImageURL:    p.ImageURL,
		Description: p.Description,
		Quantity:    p.Quantity,
		Price:       p.Price,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (m productModel) toDomain() *domain.Product {
	return &domain.Product{
		ID:          m.ID,
		Name:        m.Name,
		Type:        m.Type,
		SKU:         m.SKU,
		ImageURL:    m.ImageURL,
		Description: m.Description,
		Quantity:    m.Quantity,
		Price:       m.Price,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

type auditModel struct {
	ID      string    `gorm:"primaryKey;size:36"`
	Action  string    `gorm:"size:64;not null;index"`
	Actor   string    `gorm:"size:64;index"`
	Target  string    `gorm:"size:255"`
	Outcome string    `gorm:"size:16;not null"`
	Detail  string    `gorm:"type:text"`
	At      time.Time `gorm:"not null;index"`
}

func (auditModel) TableName() string { return "audit_events" }
