package server

import (
	"grapes/internal/models"

	"github.com/gofiber/fiber/v2"
)

func friendshipResponses(friendships []models.Friendship) []models.FriendshipResponse {
	out := make([]models.FriendshipResponse, 0, len(friendships))
	for i := range friendships {
		out = append(out, friendships[i].ToResponse())
	}
	return out
}

// GetFriends handles GET /api/friends
// @Summary List friends
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Friend
// @Router /friends [get]
func (s *Server) GetFriends(c *fiber.Ctx) error {
	players, err := s.friendService.GetFriends(c.UserContext(), currentPlayerID(c))
	if err != nil {
		return respondAppError(c, err)
	}

	friends := make([]models.Friend, 0, len(players))
	for i := range players {
		friends = append(friends, players[i].ToFriend())
	}
	return c.JSON(friends)
}

// GetPendingRequests handles GET /api/friends/requests
// @Summary Received friend requests
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.FriendshipResponse
// @Router /friends/requests [get]
func (s *Server) GetPendingRequests(c *fiber.Ctx) error {
	requests, err := s.friendService.GetPendingRequests(c.UserContext(), currentPlayerID(c))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(friendshipResponses(requests))
}

// GetSentRequests handles GET /api/friends/sent
// @Summary Sent friend requests
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.FriendshipResponse
// @Router /friends/sent [get]
func (s *Server) GetSentRequests(c *fiber.Ctx) error {
	requests, err := s.friendService.GetSentRequests(c.UserContext(), currentPlayerID(c))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(friendshipResponses(requests))
}

// GetFriendshipStatus handles GET /api/friends/status/:nickname
// @Summary Friendship status
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param nickname path string true "Nickname"
// @Success 200 {object} object{areFriends=bool}
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/status/{nickname} [get]
func (s *Server) GetFriendshipStatus(c *fiber.Ctx) error {
	areFriends, err := s.friendService.AreFriendsByNickname(c.UserContext(), currentPlayerID(c), c.Params("nickname"))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(fiber.Map{"areFriends": areFriends})
}

// SendFriendRequest handles POST /api/friends/request/:nickname
// @Summary Send friend request
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param nickname path string true "Addressee nickname"
// @Success 201 {object} models.FriendshipResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/request/{nickname} [post]
func (s *Server) SendFriendRequest(c *fiber.Ctx) error {
	friendship, err := s.friendService.SendRequest(c.UserContext(), currentPlayerID(c), c.Params("nickname"))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(friendship.ToResponse())
}

// AcceptFriendRequest handles POST /api/friends/:id/accept
// @Summary Accept friend request
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path string true "Friendship ID"
// @Success 200 {object} models.FriendshipResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/{id}/accept [post]
func (s *Server) AcceptFriendRequest(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	friendship, err := s.friendService.AcceptRequest(c.UserContext(), id, currentPlayerID(c))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(friendship.ToResponse())
}

// RejectFriendRequest handles POST /api/friends/:id/reject
// @Summary Reject friend request
// @Tags friends
// @Produce json
// @Security BearerAuth
// @Param id path string true "Friendship ID"
// @Success 200 {object} models.FriendshipResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/{id}/reject [post]
func (s *Server) RejectFriendRequest(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	friendship, err := s.friendService.RejectRequest(c.UserContext(), id, currentPlayerID(c))
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(friendship.ToResponse())
}

// RemoveFriend handles DELETE /api/friends/:id
// @Summary Remove friendship
// @Description Delete a friendship or request the caller is party to
// @Tags friends
// @Security BearerAuth
// @Param id path string true "Friendship ID"
// @Success 204
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /friends/{id} [delete]
func (s *Server) RemoveFriend(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.friendService.RemoveFriendship(c.UserContext(), id, currentPlayerID(c)); err != nil {
		return respondAppError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
