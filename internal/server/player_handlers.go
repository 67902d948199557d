package server

import (
	"fmt"

	"grapes/internal/models"

	"github.com/gofiber/fiber/v2"
)

type experienceRequest struct {
	Amount int `json:"amount"`
}

type createPlayerRequest struct {
	Nickname string `json:"nickname"`
}

// GetMyPlayer handles GET /api/players/me
// @Summary Current player
// @Description Get the authenticated player's private profile
// @Tags players
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.PlayerPrivate
// @Failure 401 {object} models.ErrorResponse
// @Router /players/me [get]
func (s *Server) GetMyPlayer(c *fiber.Ctx) error {
	identity := currentIdentity(c)

	player, err := s.playerService.GetByID(c.UserContext(), identity.PlayerID)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(player.ToPrivate(identity.Email))
}

// GetPlayer handles GET /api/players/:id
// @Summary Get player
// @Tags players
// @Produce json
// @Security BearerAuth
// @Param id path string true "Player ID"
// @Success 200 {object} models.PlayerPublic
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /players/{id} [get]
func (s *Server) GetPlayer(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	player, err := s.playerService.GetByID(c.UserContext(), id)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(player.ToPublic())
}

// GetPlayerByNickname handles GET /api/players/by-nickname/:nickname
// @Summary Get player by nickname
// @Tags players
// @Produce json
// @Security BearerAuth
// @Param nickname path string true "Nickname"
// @Success 200 {object} models.PlayerPublic
// @Failure 404 {object} models.ErrorResponse
// @Router /players/by-nickname/{nickname} [get]
func (s *Server) GetPlayerByNickname(c *fiber.Ctx) error {
	player, err := s.playerService.GetByNickname(c.UserContext(), c.Params("nickname"))
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(player.ToPublic())
}

// AddExperience handles POST /api/players/:id/xp
// @Summary Grant experience
// @Description Grant experience to the authenticated player, levelling up as often as it pays for
// @Tags players
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Player ID"
// @Param request body experienceRequest true "Experience"
// @Success 200 {object} models.PlayerPrivate
// @Failure 400 {object} models.ErrorResponse
// @Router /players/{id}/xp [post]
func (s *Server) AddExperience(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	identity := currentIdentity(c)
	if id != identity.PlayerID {
		return respondAppError(c, models.NewValidationError("experience can only be granted to yourself"))
	}

	var req experienceRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Amount < 1 {
		return respondAppError(c, models.NewValidationError("amount must be at least 1"))
	}
	if req.Amount > models.MaxExperienceGrant {
		return respondAppError(c, models.NewValidationError(fmt.Sprintf("amount must not exceed %d", models.MaxExperienceGrant)))
	}

	player, err := s.playerService.AddExperience(c.UserContext(), id, req.Amount)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.JSON(player.ToPrivate(identity.Email))
}

// CreatePlayer handles POST /api/players
// @Summary Create a bare player
// @Description Create a player with no login attached
// @Tags players
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createPlayerRequest true "Player"
// @Success 201 {object} models.PlayerPrivate
// @Failure 400 {object} models.ErrorResponse
// @Router /players [post]
func (s *Server) CreatePlayer(c *fiber.Ctx) error {
	var req createPlayerRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	player, err := s.playerService.CreatePlayer(c.UserContext(), req.Nickname)
	if err != nil {
		return respondAppError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(player.ToPrivate(""))
}
