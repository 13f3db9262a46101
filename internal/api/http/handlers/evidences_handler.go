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

// EvidencesHandler manages evidence endpoints.
type EvidencesHandler struct {
	service *service.EvidenceService
}

// NewEvidencesHandler constructs handler.
func NewEvidencesHandler(evidenceService *service.EvidenceService) *EvidencesHandler {
	return &EvidencesHandler{service: evidenceService}
}

// Record POST /cases/:id/evidences.
func (h *EvidencesHandler) Record(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateEvidenceRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	evidence, err := h.service.Record(c.Context(), principal.User.ID, c.Params("id"), service.EvidenceInput{
		Type:        req.Type,
		Title:       req.Title,
		Description: req.Description,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": evidenceResponse(evidence)})
}

// ListByCase GET /cases/:id/evidences.
func (h *EvidencesHandler) ListByCase(c *fiber.Ctx) error {
	evidences, err := h.service.ListByCase(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.EvidenceResponse, 0, len(evidences))
	for i := range evidences {
		items = append(items, evidenceResponse(&evidences[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /evidences/:id.
func (h *EvidencesHandler) Get(c *fiber.Ctx) error {
	evidence, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": evidenceResponse(evidence)})
}

func evidenceResponse(evidence *domain.Evidence) dto.EvidenceResponse {
	return dto.EvidenceResponse{
		ID:          evidence.ID,
		CaseID:      evidence.CaseID,
		Type:        evidence.Type,
		Title:       evidence.Title,
		Description: evidence.Description,
		Metadata:    evidence.Metadata,
		RecordedBy:  evidence.RecordedBy,
		RecordedAt:  evidence.RecordedAt,
	}
}
