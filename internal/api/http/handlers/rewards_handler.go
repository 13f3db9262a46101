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

// RewardsHandler manages tip reward endpoints.
type RewardsHandler struct {
	service *service.RewardService
}

// NewRewardsHandler constructs handler.
func NewRewardsHandler(rewardService *service.RewardService) *RewardsHandler {
	return &RewardsHandler{service: rewardService}
}

// Issue POST /rewards.
func (h *RewardsHandler) Issue(c *fiber.Ctx) error {
	var req dto.IssueRewardRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	reward, err := h.service.Issue(c.Context(), req.Amount)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": rewardResponse(reward, true)})
}

// Claim POST /rewards/claim.
func (h *RewardsHandler) Claim(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ClaimRewardRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	reward, err := h.service.Claim(c.Context(), principal.User.ID, req.Code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": rewardResponse(reward, false)})
}

// History GET /rewards/history.
func (h *RewardsHandler) History(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	rewards, err := h.service.History(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	items := make([]dto.RewardResponse, 0, len(rewards))
	for i := range rewards {
		items = append(items, rewardResponse(&rewards[i], false))
	}
	return c.JSON(fiber.Map{"data": items})
}

func rewardResponse(reward *domain.Reward, includeCode bool) dto.RewardResponse {
	resp := dto.RewardResponse{
		ID:        reward.ID,
		Amount:    reward.Amount,
		Claimed:   reward.Claimed,
		CreatedAt: reward.CreatedAt,
	}
	if includeCode {
		resp.UniqueCode = reward.UniqueCode
	}
	return resp
}
