package service

import (
	"github.com/deppfellow/account-gateway/internal/repository"
	"github.com/deppfellow/account-gateway/internal/server"
)

type Services struct {
	Accounts *AccountService
}

func NewService(s *server.Server, repos *repository.Repositories) (*Services, error) {
	return &Services{
		Accounts: NewAccountService(s, repos.Accounts),
	}, nil
}
