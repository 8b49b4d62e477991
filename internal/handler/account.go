package handler

import (
	"github.com/deppfellow/account-gateway/internal/model"
	"github.com/deppfellow/account-gateway/internal/server"
	"github.com/deppfellow/account-gateway/internal/service"
	"github.com/deppfellow/account-gateway/internal/validation"
	"github.com/labstack/echo/v4"
)

type CreateAccountRequest struct {
	Number  string  `json:"number" validate:"required,max=34"`
	Name    string  `json:"name" validate:"required,max=255"`
	Balance float64 `json:"balance"`
}

func (r *CreateAccountRequest) Validate() error {
	return validation.Struct(r)
}

// UpdateAccountRequest takes the number from the path only; a number in
// the body is ignored.
type UpdateAccountRequest struct {
	Number  string   `param:"number" json:"-" validate:"required,max=34"`
	Name    string   `json:"name" validate:"required,max=255"`
	Balance *float64 `json:"balance" validate:"required"`
}

func (r *UpdateAccountRequest) Validate() error {
	return validation.Struct(r)
}

type AccountNumberRequest struct {
	Number string `param:"number" validate:"required,max=34"`
}

func (r *AccountNumberRequest) Validate() error {
	return validation.Struct(r)
}

type ListAccountsRequest struct {
	Name string `query:"name" validate:"max=255"`
}

func (r *ListAccountsRequest) Validate() error {
	return validation.Struct(r)
}

type CountAccountsRequest struct{}

func (r *CountAccountsRequest) Validate() error {
	return nil
}

type CountAccountsResponse struct {
	Count int `json:"count"`
}

type AccountHandler struct {
	Handler
	accounts *service.AccountService
}

func NewAccountHandler(s *server.Server, accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{
		Handler:  NewHandler(s),
		accounts: accounts,
	}
}

func (h *AccountHandler) CreateAccount(c echo.Context, req *CreateAccountRequest) (*model.Account, error) {
	return h.accounts.Create(c.Request().Context(), model.NewAccount(req.Number, req.Name, req.Balance))
}

func (h *AccountHandler) GetAccount(c echo.Context, req *AccountNumberRequest) (*model.Account, error) {
	return h.accounts.Get(c.Request().Context(), req.Number)
}

func (h *AccountHandler) UpdateAccount(c echo.Context, req *UpdateAccountRequest) (*model.Account, error) {
	return h.accounts.Update(c.Request().Context(), model.NewAccount(req.Number, req.Name, *req.Balance))
}

func (h *AccountHandler) DeleteAccount(c echo.Context, req *AccountNumberRequest) error {
	return h.accounts.Delete(c.Request().Context(), req.Number)
}

// ListAccounts lists every account, or those owned by ?name= (exact,
// case-sensitive match).
func (h *AccountHandler) ListAccounts(c echo.Context, req *ListAccountsRequest) ([]model.Account, error) {
	return h.accounts.List(c.Request().Context(), req.Name)
}

func (h *AccountHandler) CountAccounts(c echo.Context, req *CountAccountsRequest) (*CountAccountsResponse, error) {
	n, err := h.accounts.Count(c.Request().Context())
	if err != nil {
		return nil, err
	}
	return &CountAccountsResponse{Count: n}, nil
}
