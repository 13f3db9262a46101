package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-service/internal/api/dto"
	"github.com/spec-kit/case-service/internal/service"
)

// StatsHandler reports department-wide statistics.
type StatsHandler struct {
	cases    *service.CaseService
	accounts *service.AccountService
}

// NewStatsHandler constructs handler.
func NewStatsHandler(caseService *service.CaseService, accountService *service.AccountService) *StatsHandler {
	return &StatsHandler{cases: caseService, accounts: accountService}
}

// Stats GET /stats. Public dashboard numbers.
func (h *StatsHandler) Stats(c *fiber.Ctx) error {
	solved, err := h.cases.CountSolved(c.Context())
	if err != nil {
		return err
	}
	active, err := h.cases.CountActive(c.Context())
	if err != nil {
		return err
	}
	employees, err := h.accounts.CountEmployees(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.StatsResponse{
		SolvedCases:   solved,
		ActiveCases:   active,
		EmployeeCount: employees,
	}})
}
