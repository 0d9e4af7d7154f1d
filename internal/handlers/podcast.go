package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/raglandconnor/podcite/internal/podcast"
)

// PodcastHandler serves episode acquisition: RSS parse + audio download.
type PodcastHandler struct {
	service *podcast.Service
}

// NewPodcastHandler creates a PodcastHandler.
func NewPodcastHandler(service *podcast.Service) *PodcastHandler {
	return &PodcastHandler{service: service}
}

// Handle responds to GET /parse-rss?url=...&episode_index=N.
func (h *PodcastHandler) Handle(c *fiber.Ctx) error {
	url := c.Query("url")
	if url == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing required query parameter: url",
		})
	}

	episodeIndex := c.QueryInt("episode_index", 0)
	if episodeIndex < 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "episode_index must be >= 0",
		})
	}

	resp, err := h.service.FetchEpisode(c.Context(), url, episodeIndex)
	if err != nil {
		switch {
		case podcast.IsNotFound(err):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		case errors.Is(err, podcast.ErrFeedParse):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
		}
	}

	return c.JSON(resp)
}
