package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/raglandconnor/podcite/internal/transcription"
	"github.com/raglandconnor/podcite/internal/types"
)

// StreamHandler serves transcription results as Server-Sent Events, one
// JSON event per chunk as it completes.
type StreamHandler struct {
	orchestrator *transcription.Orchestrator
}

// NewStreamHandler creates a StreamHandler.
func NewStreamHandler(orchestrator *transcription.Orchestrator) *StreamHandler {
	return &StreamHandler{orchestrator: orchestrator}
}

// HandleChunks responds to GET /chunks/:filename?start_chunk=N&end_chunk=M.
// Range errors surface as a terminal event inside the stream; missing or
// malformed query parameters are rejected before streaming starts.
func (h *StreamHandler) HandleChunks(c *fiber.Ctx) error {
	filename := c.Params("filename")

	startChunk, err := requiredIntQuery(c, "start_chunk")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	endChunk, err := requiredIntQuery(c, "end_chunk")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithCancel(context.Background())
	events := h.orchestrator.TranscribeRange(ctx, filename, startChunk, endChunk)
	streamEvents(c, cancel, events)
	return nil
}

// HandleTranscribe responds to GET /transcribe/:filename, the whole-file
// variant: every chunk of the asset, split fresh on each call.
func (h *StreamHandler) HandleTranscribe(c *fiber.Ctx) error {
	filename := c.Params("filename")

	ctx, cancel := context.WithCancel(context.Background())
	events := h.orchestrator.TranscribeAll(ctx, filename)
	streamEvents(c, cancel, events)
	return nil
}

// streamEvents forwards orchestrator events to the client as SSE frames.
// A failed flush means the client disconnected; the producer context is
// cancelled and no further event is written.
func streamEvents(c *fiber.Ctx, cancel context.CancelFunc, events <-chan types.Event) {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()

		for ev := range events {
			payload, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				return
			}
		}
	}))
}

func requiredIntQuery(c *fiber.Ctx, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, fmt.Errorf("missing required query parameter: %s", name)
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %q", name, raw)
	}
	return v, nil
}
