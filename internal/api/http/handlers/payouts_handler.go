package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// PayoutsHandler serves monthly payout reporting.
type PayoutsHandler struct {
	payouts *service.PayoutService
	tickets *service.TicketService
}

// NewPayoutsHandler constructs handler.
func NewPayoutsHandler(payouts *service.PayoutService, tickets *service.TicketService) *PayoutsHandler {
	return &PayoutsHandler{payouts: payouts, tickets: tickets}
}

// Me GET /payouts/me?month=YYYY-MM (worker). Defaults to the current month.
func (h *PayoutsHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Worker == nil {
		return apperrors.NewUnauthorized("worker required")
	}
	month := monthOrNow(c.Query("month"))

	total, err := h.payouts.MonthlyTotal(c.Context(), principal.Worker.Name, month)
	if err != nil {
		return err
	}
	busy, err := h.tickets.IsBusy(c.Context(), principal.Worker.Name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.PayoutResponse{
		Worker: principal.Worker.Name,
		Month:  month,
		Total:  total,
		Busy:   busy,
	}})
}

// Summary GET /payouts/summary?month=YYYY-MM. Anonymous distribution of
// worker progress against the monthly target.
func (h *PayoutsHandler) Summary(c *fiber.Ctx) error {
	month := monthOrNow(c.Query("month"))
	summary, err := h.payouts.MonthlySummary(c.Context(), month)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

func monthOrNow(month string) string {
	if month != "" {
		return month
	}
	return time.Now().Format(domain.MonthLayout)
}
