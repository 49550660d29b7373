package worker

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// handleHealth reports liveness and load.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	running := 0
	for _, j := range s.Jobs() {
		if j.State == JobRunning {
			running++
		}
	}
	status := "ok"
	if s.isClosing() {
		status = "draining"
	}
	return c.JSON(fiber.Map{
		"status":      status,
		"running":     running,
		"subscribers": s.events.ClientCount(),
	})
}

// handleTools returns the declared tool schemas.
func (s *Server) handleTools(c *fiber.Ctx) error {
	if s.config.Tools == nil {
		return c.JSON([]any{})
	}
	return c.JSON(s.config.Tools.Schemas())
}

// handleDispatch starts a job for the requested room.
func (s *Server) handleDispatch(c *fiber.Ctx) error {
	var req DispatchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	info, err := s.Dispatch(c.UserContext(), req)
	switch {
	case err == nil:
		return c.Status(fiber.StatusAccepted).JSON(info)
	case errors.Is(err, ErrNoRoom), errors.Is(err, ErrNoRoomURL):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, ErrShuttingDown):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error()})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": err.Error()})
	}
}

// handleListJobs returns every job.
func (s *Server) handleListJobs(c *fiber.Ctx) error {
	return c.JSON(s.Jobs())
}

// handleGetJob returns one job.
func (s *Server) handleGetJob(c *fiber.Ctx) error {
	info, ok := s.Job(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": ErrJobNotFound.Error()})
	}
	return c.JSON(info)
}

// handleCancelJob cancels a running job.
func (s *Server) handleCancelJob(c *fiber.Ctx) error {
	info, err := s.Cancel(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusAccepted).JSON(info)
}
