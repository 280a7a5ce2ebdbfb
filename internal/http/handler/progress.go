package handler

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"doclib/internal/progress"
)

// ProgressConfig bounds how long a progress stream stays open.
type ProgressConfig struct {
	// Heartbeat is the interval of comment lines sent to detect gone clients.
	Heartbeat time.Duration
	// IdleTimeout ends a stream that has received no event for this long,
	// such as one subscribed to an upload that never starts.
	IdleTimeout time.Duration
}

// ProgressConfigDefault is used for zero fields of a ProgressConfig.
var ProgressConfigDefault = ProgressConfig{
	Heartbeat:   15 * time.Second,
	IdleTimeout: 2 * time.Minute,
}

func progressConfigDefault(config ...ProgressConfig) ProgressConfig {
	if len(config) < 1 {
		return ProgressConfigDefault
	}
	cfg := config[0]
	if cfg.Heartbeat <= 0 {
		cfg.Heartbeat = ProgressConfigDefault.Heartbeat
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = ProgressConfigDefault.IdleTimeout
	}
	return cfg
}

// UploadProgress streams progress events of one upload as Server-Sent Events.
// The stream ends after the final event, when the client goes away, or after
// IdleTimeout without events.
//
// @Summary  Upload progress
// @Tags     documents
// @Produce  text/event-stream
// @Param    uploadId path string true "upload id sent as X-Upload-ID"
// @Success  200 {object} progress.Event
// @Router   /api/uploads/{uploadId}/progress [get]
func UploadProgress(hub *progress.Hub, config ...ProgressConfig) fiber.Handler {
	cfg := progressConfigDefault(config...)

	return func(c *fiber.Ctx) error {
		uploadID := c.Params("uploadId")
		events, cancel := hub.Subscribe(uploadID)

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
			defer cancel()

			ping := time.NewTicker(cfg.Heartbeat)
			defer ping.Stop()
			idle := time.NewTimer(cfg.IdleTimeout)
			defer idle.Stop()

			for {
				select {
				case ev, ok := <-events:
					if !ok {
						return
					}
					if err := writeSSE(w, "progress", ev); err != nil {
						return
					}
					idle.Reset(cfg.IdleTimeout)
				case <-ping.C:
					if _, err := w.WriteString(": ping\n\n"); err != nil {
						return
					}
					if err := w.Flush(); err != nil {
						return
					}
				case <-idle.C:
					return
				}
			}
		}))
		return nil
	}
}

func writeSSE(w *bufio.Writer, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	return w.Flush()
}
