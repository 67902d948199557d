package server

import (
	"grapes/internal/models"
	"grapes/internal/validation"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type createBattleRequest struct {
	OpponentNickname string          `json:"opponentNickname"`
	ExternalName     string          `json:"externalName"`
	Amount           decimal.Decimal `json:"amount" swaggertype:"string" example:"12.50"`
	IAmCreditor      *bool           `json:"iAmCreditor"`
	Category         string          `json:"category"`
	Description      string          `json:"description"`
}

func (r createBattleRequest) input() validation.BattleInput {
	return validation.BattleInput{
		OpponentNickname: r.OpponentNickname,
		ExternalName:     r.ExternalName,
		Amount:           r.Amount,
		IAmCreditor:      r.IAmCreditor,
		Category:         r.Category,
		Description:      r.Description,
	}
}

// GetBattles handles GET /api/battles
// @Summary List battles
// @Description Battles the caller created or is the opponent in, newest first
// @Tags battles
// @Produce json
// @Security BearerAuth
// @Param category query string false "Only battles in this category"
// @Success 200 {array} models.BattleView
// @Router /battles [get]
func (s *Server) GetBattles(c *fiber.Ctx) error {
	playerID := currentPlayerID(c)

	battles, err := s.battleService.ListForPlayer(c.UserContext(), playerID, c.Query("category"))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(models.ViewsFor(battles, playerID))
}

// GetPendingBattles handles GET /api/battles/pending
// @Summary List pending battles
// @Tags battles
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.BattleView
// @Router /battles/pending [get]
func (s *Server) GetPendingBattles(c *fiber.Ctx) error {
	playerID := currentPlayerID(c)

	battles, err := s.battleService.ListPendingForPlayer(c.UserContext(), playerID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(models.ViewsFor(battles, playerID))
}

// GetBattleSummary handles GET /api/battles/summary
// @Summary Pending totals
// @Description Count of pending battles and the amounts owed each way
// @Tags battles
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.BattleSummary
// @Router /battles/summary [get]
func (s *Server) GetBattleSummary(c *fiber.Ctx) error {
	summary, err := s.battleService.Summary(c.UserContext(), currentPlayerID(c))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(summary)
}

// CreateBattle handles POST /api/battles
// @Summary Create battle
// @Description Record a debt with a registered player (opponentNickname) or an external party (externalName)
// @Tags battles
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createBattleRequest true "Battle"
// @Success 201 {object} models.BattleView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /battles [post]
func (s *Server) CreateBattle(c *fiber.Ctx) error {
	var req createBattleRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	playerID := currentPlayerID(c)
	battle, err := s.battleService.Create(c.UserContext(), playerID, req.input())
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(battle.ViewFor(playerID))
}

// PayBattle handles POST /api/battles/:id/pay
// @Summary Settle battle
// @Description Mark a pending battle as paid. Either party may settle.
// @Tags battles
// @Produce json
// @Security BearerAuth
// @Param id path string true "Battle ID"
// @Success 200 {object} models.BattleView
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /battles/{id}/pay [post]
func (s *Server) PayBattle(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	playerID := currentPlayerID(c)
	battle, err := s.battleService.MarkAsPaid(c.UserContext(), id, playerID)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(battle.ViewFor(playerID))
}

// DeleteBattle handles DELETE /api/battles/:id
// @Summary Delete battle
// @Tags battles
// @Security BearerAuth
// @Param id path string true "Battle ID"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /battles/{id} [delete]
func (s *Server) DeleteBattle(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.battleService.Delete(c.UserContext(), id, currentPlayerID(c)); err != nil {
		return respondAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
