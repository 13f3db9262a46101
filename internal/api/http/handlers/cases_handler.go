package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-service/internal/api/dto"
	"github.com/spec-kit/case-service/internal/auth"
	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/service"
	"github.com/spec-kit/case-service/internal/workflow"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// CasesHandler manages case endpoints.
type CasesHandler struct {
	service *service.CaseService
}

// NewCasesHandler constructs handler.
func NewCasesHandler(caseService *service.CaseService) *CasesHandler {
	return &CasesHandler{service: caseService}
}

// CreateCase POST /cases.
func (h *CasesHandler) CreateCase(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.CaseCreateInput{
		Title:          req.Title,
		Description:    req.Description,
		Level:          req.Level,
		ComplainantIDs: req.ComplainantIDs,
	}
	created, err := h.service.CreateCase(c.Context(), principal.User.ID, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": caseSummary(created)})
}

// ListCases GET /cases.
func (h *CasesHandler) ListCases(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	filter := parseCaseQuery(c)
	cases, err := h.service.ListVisible(c.Context(), principal.User.ID, filter)
	if err != nil {
		return err
	}
	items := make([]dto.CaseSummary, 0, len(cases))
	for i := range cases {
		items = append(items, caseSummary(&cases[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetCase GET /cases/:id.
func (h *CasesHandler) GetCase(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	found, complainants, err := h.service.GetCase(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseDetail(found, complainants)})
}

// UpdateCase PATCH /cases/:id.
func (h *CasesHandler) UpdateCase(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.UpdateCaseRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	updated, err := h.service.UpdateCase(c.Context(), principal.User.ID, c.Params("id"), service.CaseUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Level:       req.Level,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseSummary(updated)})
}

// DeleteCase DELETE /cases/:id.
func (h *CasesHandler) DeleteCase(c *fiber.Ctx) error {
	if err := h.service.DeleteCase(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Advance POST /cases/:id/workflow. Moves the case one step through review.
func (h *CasesHandler) Advance(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.WorkflowActionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return apperrors.NewValidationError("invalid payload", nil)
		}
	}

	var verdict *workflow.Verdict
	if req.Verdict != nil {
		v := workflow.Verdict(strings.ToLower(strings.TrimSpace(*req.Verdict)))
		verdict = &v
	}

	result, err := h.service.Advance(c.Context(), c.Params("id"), principal.User.ID, verdict, req.Message)
	if err != nil {
		return err
	}

	if result.Outcome == workflow.OutcomeCancelled {
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "CASE_CANCELLED",
				"message": "rejected 3 times, cancelled",
			},
			"data": workflowResult(result),
		})
	}
	return c.JSON(fiber.Map{"data": workflowResult(result)})
}

// ListHistory GET /cases/:id/history.
func (h *CasesHandler) ListHistory(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	entries, err := h.service.ListHistory(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.WorkflowHistoryResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.WorkflowHistoryResponse{
			ID:          entry.ID,
			RecipientID: entry.RecipientID,
			Message:     entry.Message,
			CreatedAt:   entry.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// CloseCase POST /cases/:id/close.
func (h *CasesHandler) CloseCase(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	closed, err := h.service.CloseCase(c.Context(), principal.User.ID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": caseSummary(closed)})
}

func parseCaseQuery(c *fiber.Ctx) service.CaseListFilter {
	filter := service.CaseListFilter{}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			filter.Statuses = append(filter.Statuses, domain.CaseStatus(strings.TrimSpace(part)))
		}
	}
	if levelStr := c.Query("level"); levelStr != "" {
		for _, part := range strings.Split(levelStr, ",") {
			if lvl, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
				filter.Levels = append(filter.Levels, domain.CrimeLevel(lvl))
			}
		}
	}
	if search := strings.TrimSpace(c.Query("search")); search != "" {
		filter.SearchTerm = &search
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func caseSummary(c *domain.Case) dto.CaseSummary {
	return dto.CaseSummary{
		ID:        c.ID,
		Title:     c.Title,
		Level:     c.Level,
		Status:    c.Status,
		CreatedBy: c.CreatedBy,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func caseDetail(c *domain.Case, complainants []domain.Complainant) dto.CaseDetailResponse {
	items := make([]dto.ComplainantResponse, 0, len(complainants))
	for _, comp := range complainants {
		items = append(items, dto.ComplainantResponse{UserID: comp.UserID, Verified: comp.Verified})
	}
	return dto.CaseDetailResponse{
		ID:           c.ID,
		Title:        c.Title,
		Description:  c.Description,
		Level:        c.Level,
		Status:       c.Status,
		CreatedBy:    c.CreatedBy,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		ClosedAt:     c.ClosedAt,
		Complainants: items,
	}
}

func workflowResult(result *workflow.Result) dto.WorkflowResultResponse {
	return dto.WorkflowResultResponse{
		Outcome: string(result.Outcome),
		Case:    caseSummary(result.Case),
	}
}
