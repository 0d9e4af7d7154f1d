package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/raglandconnor/podcite/internal/queue"
	"github.com/raglandconnor/podcite/internal/storage"
)

// UploadHandler ingests audio files pushed directly by a client, as an
// alternative to RSS acquisition.
type UploadHandler struct {
	store *storage.MediaStore
	pool  *queue.WorkerPool
	log   zerolog.Logger
}

// NewUploadHandler creates an UploadHandler.
func NewUploadHandler(store *storage.MediaStore, pool *queue.WorkerPool, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{store: store, pool: pool, log: log}
}

// Handle responds to POST /upload (multipart field "file"). The file lands
// in the media store and chunk preparation runs in the background; the
// response returns immediately with the stored filename.
func (h *UploadHandler) Handle(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "no file uploaded",
		})
	}

	if !storage.IsSupportedUpload(file.Filename) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "unsupported audio format",
		})
	}

	path, filename := h.store.ReservePath(storage.SanitizeBaseName(file.Filename))
	if err := c.SaveFile(file, path); err != nil {
		h.log.Error().Err(err).Str("filename", filename).Msg("failed to save upload")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to save file",
		})
	}

	job := h.pool.Enqueue(filename)

	return c.JSON(fiber.Map{
		"job_id":   job.ID,
		"filename": filename,
		"status":   "preparing",
	})
}
