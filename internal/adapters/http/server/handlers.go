package server

import (
	"math/big"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"walletsync/internal/adapters/logger"
	httpports "walletsync/internal/ports/http"
)

// HandlerAdapter adapts the synchronization engine to HTTP handlers.
type HandlerAdapter struct {
	sync   httpports.SyncService
	state  httpports.StateReader
	logger *logger.Logger
}

func NewHandlerAdapter(sync httpports.SyncService, state httpports.StateReader, logger *logger.Logger) *HandlerAdapter {
	return &HandlerAdapter{
		sync:   sync,
		state:  state,
		logger: logger,
	}
}

func (h *HandlerAdapter) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// GetAssets triggers an asset synchronization (forced with ?force=true) and
// returns the published asset list.
func (h *HandlerAdapter) GetAssets(c echo.Context) error {
	force := c.QueryParam("force") == "true"

	if err := h.sync.LoadAssets(c.Request().Context(), force); err != nil {
		h.logger.Error("asset sync failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, httpports.ErrorResponse{
			Error:   "Bad Gateway",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, httpports.ToHTTPAssets(h.state.Assets()))
}

// GetTransactions triggers a history synchronization and returns the
// published transaction records.
func (h *HandlerAdapter) GetTransactions(c echo.Context) error {
	force := c.QueryParam("force") == "true"

	if err := h.sync.LoadTransactions(c.Request().Context(), force); err != nil {
		h.logger.Error("history sync failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, httpports.ErrorResponse{
			Error:   "Bad Gateway",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, h.state.Transactions())
}

// GetActiveTransactions loads the active-transaction mirror and returns the
// current in-flight set.
func (h *HandlerAdapter) GetActiveTransactions(c echo.Context) error {
	if err := h.sync.LoadActiveTransactions(c.Request().Context()); err != nil {
		h.logger.Error("active transaction load failed", zap.Error(err))
		return c.JSON(http.StatusBadGateway, httpports.ErrorResponse{
			Error:   "Bad Gateway",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusOK, httpports.ToHTTPActiveTransactions(h.state.ActiveTransactions()))
}

// CreateTransfer broadcasts an ether transfer, or a token transfer when the
// request names a token contract.
func (h *HandlerAdapter) CreateTransfer(c echo.Context) error {
	var req httpports.TransferRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, httpports.ErrorResponse{
			Error:   "Bad Request",
			Message: "invalid request body",
		})
	}

	if req.To == "" {
		return c.JSON(http.StatusBadRequest, httpports.ErrorResponse{
			Error:   "Bad Request",
			Message: "to is required",
		})
	}

	amount, ok := new(big.Int).SetString(req.Amount, 10)
	if !ok || amount.Sign() < 0 {
		return c.JSON(http.StatusBadRequest, httpports.ErrorResponse{
			Error:   "Bad Request",
			Message: "amount must be a non-negative base-10 integer",
		})
	}

	var err error
	if req.Token == "" {
		err = h.sync.SendEther(c.Request().Context(), req.To, amount)
	} else {
		err = h.sync.SendTokens(c.Request().Context(), req.Token, req.To, amount)
	}
	if err != nil {
		h.logger.Error("transfer failed", zap.String("to", req.To), zap.Error(err))
		return c.JSON(http.StatusBadGateway, httpports.ErrorResponse{
			Error:   "Bad Gateway",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusAccepted, httpports.ToHTTPActiveTransactions(h.state.ActiveTransactions()))
}

// CreateAllowance grants the exchange proxy an unlimited allowance on a
// token.
func (h *HandlerAdapter) CreateAllowance(c echo.Context) error {
	var req httpports.AllowanceRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, httpports.ErrorResponse{
			Error:   "Bad Request",
			Message: "invalid request body",
		})
	}

	if req.Token == "" {
		return c.JSON(http.StatusBadRequest, httpports.ErrorResponse{
			Error:   "Bad Request",
			Message: "token is required",
		})
	}

	if err := h.sync.SetTokenAllowance(c.Request().Context(), req.Token); err != nil {
		h.logger.Error("allowance failed", zap.String("token", req.Token), zap.Error(err))
		return c.JSON(http.StatusBadGateway, httpports.ErrorResponse{
			Error:   "Bad Gateway",
			Message: err.Error(),
		})
	}

	return c.JSON(http.StatusAccepted, httpports.ToHTTPActiveTransactions(h.state.ActiveTransactions()))
}
