package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/raglandconnor/podcite/internal/storage"
	"github.com/raglandconnor/podcite/internal/transcription"
)

// InfoHandler serves segmentation metadata for an asset.
type InfoHandler struct {
	orchestrator *transcription.Orchestrator
}

// NewInfoHandler creates an InfoHandler.
func NewInfoHandler(orchestrator *transcription.Orchestrator) *InfoHandler {
	return &InfoHandler{orchestrator: orchestrator}
}

// Handle responds to GET /info/:filename.
func (h *InfoHandler) Handle(c *fiber.Ctx) error {
	filename := c.Params("filename")

	info, err := h.orchestrator.Info(c.Context(), filename)
	if err != nil {
		if errors.Is(err, storage.ErrAssetNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "audio file not found: " + filename,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	return c.JSON(info)
}
