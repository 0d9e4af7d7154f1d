package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/raglandconnor/podcite/internal/transcription"
)

// WSHandler streams chunk-range transcription events over a WebSocket,
// mirroring the SSE endpoint for clients that prefer a socket.
type WSHandler struct {
	orchestrator *transcription.Orchestrator
	log          zerolog.Logger
}

// NewWSHandler creates a WSHandler.
func NewWSHandler(orchestrator *transcription.Orchestrator, log zerolog.Logger) *WSHandler {
	return &WSHandler{orchestrator: orchestrator, log: log}
}

// HandleChunks processes GET /ws/chunks/:filename?start_chunk=N&end_chunk=M.
// Each event is sent as one JSON message; the peer closing the socket
// cancels the producer.
func (h *WSHandler) HandleChunks(c *websocket.Conn) {
	defer c.Close()

	filename := c.Params("filename")
	startChunk, err1 := strconv.Atoi(c.Query("start_chunk"))
	endChunk, err2 := strconv.Atoi(c.Query("end_chunk"))
	if err1 != nil || err2 != nil {
		_ = c.WriteJSON(map[string]string{"error": "start_chunk and end_chunk must be integers"})
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Reads only serve close detection; clients send nothing meaningful.
	go func() {
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	events := h.orchestrator.TranscribeRange(ctx, filename, startChunk, endChunk)
	for ev := range events {
		if err := c.WriteJSON(ev); err != nil {
			h.log.Debug().Err(err).Str("filename", filename).Msg("websocket consumer gone")
			cancel()
			for range events {
				// Drain so the producer observes cancellation and exits.
			}
			return
		}
	}
}
