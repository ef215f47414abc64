package handler

import (
	"github.com/stockroom/inventory-system/internal/core/domain"
	"github.com/stockroom/inventory-system/pkg/pagination"
)

// errorResponse documents the error envelope for swagger.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Auth ---

type registerRequest struct {
	Username  string `json:"username"   validate:"required,min=3,max=50"`
	Password  string `json:"password"   validate:"required,max=72"`
	Email     string `json:"email"      validate:"omitempty,email,max=255"`
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name"  validate:"max=100"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type googleLoginRequest struct {
	Kind  string `json:"kind"  validate:"required,oneof=id_token code"`
	Token string `json:"token" validate:"required"`
}

type tokenResponse struct {
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
	User      *domain.User `json:"user"`
}

type googleURLResponse struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state"`
}

// --- Users ---

type changeRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=admin manager user"`
}

type userListResponse struct {
	Data       []domain.User   `json:"data"`
	Pagination pagination.Meta `json:"pagination"`
}

// --- Products ---

type createProductRequest struct {
	Name        string  `json:"name"        validate:"required,max=200"`
	Type        string  `json:"type"        validate:"max=100"`
	SKU         string  `json:"sku"         validate:"required,max=100"`
	ImageURL    string  `json:"image_url"   validate:"omitempty,url"`
	Description string  `json:"description" validate:"max=2000"`
	Quantity    *int    `json:"quantity"    validate:"required,gte=0"`
	Price       float64 `json:"price"       validate:"required,gt=0"`
}

type createProductResponse struct {
	ProductID uint   `json:"product_id"`
	Message   string `json:"message"`
}

type updateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0"`
}

type productListResponse struct {
	Data       []domain.Product `json:"data"`
	Pagination pagination.Meta  `json:"pagination"`
}
