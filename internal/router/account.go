package router

import (
	"net/http"

	"github.com/deppfellow/account-gateway/internal/handler"
	"github.com/labstack/echo/v4"
)

func registerAccountRoutes(g *echo.Group, h *handler.Handlers) {
	accounts := g.Group("/accounts")

	accounts.POST("", handler.Handle(h.Accounts.CreateAccount, http.StatusCreated))
	accounts.GET("", handler.Handle(h.Accounts.ListAccounts, http.StatusOK))
	// Static segment, matched ahead of /:number.
	accounts.GET("/count", handler.Handle(h.Accounts.CountAccounts, http.StatusOK))
	accounts.GET("/:number", handler.Handle(h.Accounts.GetAccount, http.StatusOK))
	accounts.PUT("/:number", handler.Handle(h.Accounts.UpdateAccount, http.StatusOK))
	accounts.DELETE("/:number", handler.HandleNoContent(h.Accounts.DeleteAccount, http.StatusNoContent))
}
