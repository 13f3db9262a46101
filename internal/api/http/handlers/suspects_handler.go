package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/case-service/internal/api/dto"
	"github.com/spec-kit/case-service/internal/auth"
	"github.com/spec-kit/case-service/internal/domain"
	"github.com/spec-kit/case-service/internal/service"
	apperrors "github.com/spec-kit/case-service/pkg/util"
)

// SuspectsHandler manages suspect and investigation endpoints.
type SuspectsHandler struct {
	service *service.SuspectService
}

// NewSuspectsHandler constructs handler.
func NewSuspectsHandler(suspectService *service.SuspectService) *SuspectsHandler {
	return &SuspectsHandler{service: suspectService}
}

// Register POST /cases/:id/suspects.
func (h *SuspectsHandler) Register(c *fiber.Ctx) error {
	var req dto.CreateSuspectRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	suspect, err := h.service.Register(c.Context(), c.Params("id"), service.SuspectInput{
		NationalID: req.NationalID,
		FullName:   req.FullName,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": suspectResponse(suspect)})
}

// ListByCase GET /cases/:id/suspects.
func (h *SuspectsHandler) ListByCase(c *fiber.Ctx) error {
	suspects, err := h.service.ListByCase(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.SuspectResponse, 0, len(suspects))
	for i := range suspects {
		items = append(items, suspectResponse(&suspects[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /suspects/:id.
func (h *SuspectsHandler) Get(c *fiber.Ctx) error {
	suspect, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": suspectResponse(suspect)})
}

// SubmitInvestigation POST /suspects/:id/investigations.
func (h *SuspectsHandler) SubmitInvestigation(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.SubmitInvestigationRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	inv, err := h.service.SubmitInvestigation(c.Context(), principal.User.ID, c.Params("id"), req.Score)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": investigationResponse(inv)})
}

// ListInvestigations GET /suspects/:id/investigations.
func (h *SuspectsHandler) ListInvestigations(c *fiber.Ctx) error {
	invs, err := h.service.ListInvestigations(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.InvestigationResponse, 0, len(invs))
	for i := range invs {
		items = append(items, investigationResponse(&invs[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// SetVerdict POST /suspects/:id/verdict.
func (h *SuspectsHandler) SetVerdict(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.SuspectVerdictRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	suspect, err := h.service.SetVerdict(c.Context(), principal.User.ID, c.Params("id"), req.Guilty)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": suspectResponse(suspect)})
}

// MostWanted GET /suspects/most-wanted. Public board.
func (h *SuspectsHandler) MostWanted(c *fiber.Ctx) error {
	entries, err := h.service.MostWanted(c.Context())
	if err != nil {
		return err
	}
	items := make([]dto.MostWantedResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.MostWantedResponse{
			Suspect:     suspectResponse(&entry.Suspect),
			DaysAtLarge: entry.DaysAtLarge,
			RewardPrice: entry.RewardPrice,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func suspectResponse(suspect *domain.Suspect) dto.SuspectResponse {
	return dto.SuspectResponse{
		ID:          suspect.ID,
		CaseID:      suspect.CaseID,
		NationalID:  suspect.NationalID,
		FullName:    suspect.FullName,
		Status:      suspect.Status,
		WantedLevel: suspect.WantedLevel,
	}
}

func investigationResponse(inv *domain.Investigation) dto.InvestigationResponse {
	return dto.InvestigationResponse{
		ID:             inv.ID,
		SuspectID:      inv.SuspectID,
		InvestigatorID: inv.InvestigatorID,
		Score:          inv.Score,
		CreatedAt:      inv.CreatedAt,
	}
}
