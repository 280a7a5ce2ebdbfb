package handler

import (
	"bufio"
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"doclib/internal/chat"
	"doclib/internal/logging"
)

// Chat proxies a conversation to the completion upstream and streams the
// reply back as plain text. A nil streamer answers 503.
//
// @Summary  Chat completion stream
// @Tags     chat
// @Accept   json
// @Produce  plain
// @Param    body body     chat.Request true "conversation"
// @Success  200  {string} string
// @Failure  400  {object} errorPayload
// @Failure  503  {object} errorPayload
// @Router   /api/chat [post]
func Chat(streamer chat.Streamer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if streamer == nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "chat is not configured")
		}

		var req chat.Request
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "invalid request body")
		}
		if len(req.Messages) == 0 {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "messages are required")
		}
		for _, m := range req.Messages {
			if strings.TrimSpace(m.Role) == "" {
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "message role is required")
			}
		}

		// The fiber.Ctx is recycled once the handler returns, so everything
		// the stream writer needs is captured here.
		ctx, cancel := context.WithCancel(c.UserContext())
		requestID := requestIDFromCtx(c)

		c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set("X-Accel-Buffering", "no")

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer cancel()
			err := streamer.Stream(ctx, req, func(tok string) error {
				if _, err := w.WriteString(tok); err != nil {
					return err
				}
				return w.Flush()
			})
			if err != nil {
				l := logging.L()
				l.Error().
					Str("event", "chat_stream_failed").
					Str("request_id", requestID).
					Str("conversation_id", req.ID).
					Err(err).
					Msg("")
			}
		}))
		return nil
	}
}
