package handler

import (
	"github.com/gofiber/fiber/v2"

	"doclib/internal/chat"
	"doclib/internal/progress"
	"doclib/internal/service"
)

// Deps are the collaborators the HTTP routes are built from.
type Deps struct {
	Health   Pinger
	Docs     service.DocumentService
	Progress *progress.Hub
	// Chat may be nil when no upstream is configured.
	Chat chat.Streamer
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.Health))
	app.Get("/healthz", LivenessProbe())

	api := app.Group("/api")

	docs := api.Group("/documents")
	docs.Get("/", ListDocuments(d.Docs))
	docs.Post("/upload", UploadDocument(d.Docs))
	docs.Get("/:id", GetDocument(d.Docs))
	docs.Get("/:id/content", DocumentContent(d.Docs))
	docs.Delete("/:id", DeleteDocument(d.Docs))

	if d.Progress != nil {
		api.Get("/uploads/:uploadId/progress", UploadProgress(d.Progress))
	}

	api.Post("/chat", Chat(d.Chat))
}
