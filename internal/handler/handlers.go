package handler

import (
	"github.com/deppfellow/account-gateway/internal/server"
	"github.com/deppfellow/account-gateway/internal/service"
)

// Handlers groups every HTTP handler for the router.
type Handlers struct {
	Health   *HealthHandler
	Accounts *AccountHandler
}

func NewHandlers(s *server.Server, services *service.Services) *Handlers {
	return &Handlers{
		Health:   NewHealthHandler(s),
		Accounts: NewAccountHandler(s, services.Accounts),
	}
}
