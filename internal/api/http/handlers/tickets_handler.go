package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/dispatch-service/internal/api/dto"
	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/classifier"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/service"
	apperrors "github.com/spec-kit/dispatch-service/pkg/util/errorutil"
)

// TicketsHandler manages ticket lifecycle endpoints.
type TicketsHandler struct {
	tickets    *service.TicketService
	refresh    *service.RefreshService
	classifier *classifier.Client
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, refresh *service.RefreshService, classifierClient *classifier.Client) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, refresh: refresh, classifier: classifierClient}
}

// Create POST /tickets (admin).
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.Create(c.Context(), service.TicketCreateInput{
		Title:       req.Title,
		QuoteNo:     req.QuoteNo,
		Description: req.Description,
		Category:    req.Category,
		Value:       req.Value,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Analyze POST /tickets/analyze (admin). The image body is forwarded to the
// external classifier; the returned draft is advisory and passes through
// category normalization before the admin ever sees it.
func (h *TicketsHandler) Analyze(c *fiber.Ctx) error {
	image := c.Body()
	mime := c.Get(fiber.HeaderContentType)
	suggestion, err := h.classifier.AnalyzeQuoteImage(c.UserContext(), image, mime)
	if err != nil {
		if apperrors.IsCode(err, "CLASSIFIER_ERROR") {
			// degraded mode: no suggestion, admin fills the form by hand
			return c.JSON(fiber.Map{"data": nil})
		}
		return err
	}
	return c.JSON(fiber.Map{"data": dto.SuggestionResponse{
		QuoteNo:     suggestion.QuoteNo,
		Community:   suggestion.Community,
		Project:     suggestion.Project,
		Description: suggestion.Description,
		Value:       suggestion.Value,
		Category:    suggestion.Category,
		IsUrgent:    suggestion.IsUrgent,
		Title:       suggestion.Title,
	}})
}

// List GET /tickets?status= (admin).
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	var status *domain.TicketStatus
	if raw := c.Query("status"); raw != "" {
		s := domain.TicketStatus(raw)
		status = &s
	}
	tickets, err := h.tickets.List(c.Context(), status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summaries(tickets)})
}

// ListOpen GET /tickets/open?group=project|maintenance (worker).
func (h *TicketsHandler) ListOpen(c *fiber.Ctx) error {
	tickets, err := h.tickets.ListOpenByGroup(c.Context(), c.Query("group"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summaries(tickets)})
}

// ListMine GET /tickets/mine (worker).
func (h *TicketsHandler) ListMine(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Worker == nil {
		return apperrors.NewUnauthorized("worker required")
	}
	tickets, err := h.tickets.ListMine(c.Context(), principal.Worker.Name)
	if err != nil {
		return err
	}
	busy, err := h.tickets.IsBusy(c.Context(), principal.Worker.Name)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summaries(tickets), "busy": busy})
}

// Claim POST /tickets/:id/claim (worker).
func (h *TicketsHandler) Claim(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Worker == nil {
		return apperrors.NewUnauthorized("worker required")
	}
	var req dto.ClaimTicketRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}
	ticket, err := h.tickets.Claim(c.Context(), principal.Worker.Name, c.Params("id"), req.Partners)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Report POST /tickets/:id/report (worker).
func (h *TicketsHandler) Report(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Worker == nil {
		return apperrors.NewUnauthorized("worker required")
	}
	ticket, err := h.tickets.Report(c.Context(), principal.Worker.Name, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Approve POST /tickets/:id/approve (admin).
func (h *TicketsHandler) Approve(c *fiber.Ctx) error {
	ticket, err := h.tickets.Approve(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Reject POST /tickets/:id/reject (admin).
func (h *TicketsHandler) Reject(c *fiber.Ctx) error {
	ticket, err := h.tickets.Reject(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Reopen POST /tickets/:id/reopen (admin).
func (h *TicketsHandler) Reopen(c *fiber.Ctx) error {
	ticket, err := h.tickets.Reopen(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketSummary(ticket)})
}

// Refresh GET /tickets/refresh. Reports whether the collection changed since
// this client's last-seen signature; marking seen adopts the new baseline.
func (h *TicketsHandler) Refresh(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	changed, sig, err := h.refresh.HasNewTickets(c.Context(), principal.ClientKey())
	if err != nil {
		return err
	}
	if changed && c.QueryBool("mark_seen", false) {
		if err := h.refresh.MarkSeen(c.Context(), principal.ClientKey()); err != nil {
			return err
		}
	}
	return c.JSON(fiber.Map{"data": dto.RefreshResponse{Changed: changed, Signature: sig}})
}

func summaries(tickets []domain.Ticket) []dto.TicketSummary {
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketSummary(&tickets[i]))
	}
	return items
}
