package handler

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"doclib/internal/model"
	"doclib/internal/service"
)

// UploadIDHeader lets the client pick the progress channel of an upload.
const UploadIDHeader = "X-Upload-ID"

// documentView is the public shape of a document record.
type documentView struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Size       string `json:"size"`
	UploadedAt string `json:"uploadedAt"`
}

func toView(d model.Document) documentView {
	return documentView{ID: d.ID, Name: d.Name, Size: d.Size, UploadedAt: d.UploadedAt}
}

type uploadResponse struct {
	Message  string       `json:"message"`
	Document documentView `json:"document"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ListDocuments returns every document in upload order.
//
// @Summary  List documents
// @Tags     documents
// @Produce  json
// @Success  200 {array}  documentView
// @Failure  500 {object} errorPayload
// @Router   /api/documents [get]
func ListDocuments(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		docs, err := svc.List(c.UserContext())
		if err != nil {
			return writeServiceError(c, err, "Failed to fetch documents")
		}
		views := make([]documentView, 0, len(docs))
		for _, d := range docs {
			views = append(views, toView(d))
		}
		return c.JSON(views)
	}
}

// UploadDocument accepts a PDF in the multipart field "file".
//
// @Summary  Upload a PDF
// @Tags     documents
// @Accept   mpfd
// @Produce  json
// @Param    file        formData file   true  "PDF document"
// @Param    X-Upload-ID header   string false "progress channel id"
// @Success  200 {object} uploadResponse
// @Failure  400 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /api/documents/upload [post]
func UploadDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", service.MsgNoFile)
		}

		f, err := fh.Open()
		if err != nil {
			return writeServiceError(c, err, "Failed to upload file")
		}
		defer f.Close()

		doc, err := svc.Upload(c.UserContext(), f, fh.Filename, fh.Header.Get("Content-Type"), fh.Size, c.Get(UploadIDHeader))
		if err != nil {
			return writeServiceError(c, err, "Failed to upload file")
		}
		return c.Status(fiber.StatusOK).JSON(uploadResponse{
			Message:  "File uploaded successfully",
			Document: toView(*doc),
		})
	}
}

// GetDocument returns a single document.
//
// @Summary  Get a document
// @Tags     documents
// @Produce  json
// @Param    id  path     string true "document id"
// @Success  200 {object} documentView
// @Failure  404 {object} errorPayload
// @Router   /api/documents/{id} [get]
func GetDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := svc.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err, "Failed to fetch document")
		}
		return c.JSON(toView(*doc))
	}
}

// DocumentContent streams the stored PDF.
//
// @Summary  Download a document
// @Tags     documents
// @Produce  application/pdf
// @Param    id  path     string true "document id"
// @Success  200 {file}   binary
// @Failure  404 {object} errorPayload
// @Router   /api/documents/{id}/content [get]
func DocumentContent(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		rc, doc, err := svc.Open(c.UserContext(), c.Params("id"))
		if err != nil {
			return writeServiceError(c, err, "Failed to read document")
		}
		c.Set(fiber.HeaderContentType, service.PDFContentType)
		c.Set(fiber.HeaderContentDisposition, "inline; filename="+strconv.Quote(doc.Name))
		// fasthttp closes rc once the body has been sent.
		return c.SendStream(rc)
	}
}

// DeleteDocument removes a document and its stored file.
//
// @Summary  Delete a document
// @Tags     documents
// @Produce  json
// @Param    id  path     string true "document id"
// @Success  200 {object} deleteResponse
// @Failure  404 {object} errorPayload
// @Failure  500 {object} errorPayload
// @Router   /api/documents/{id} [delete]
func DeleteDocument(svc service.DocumentService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Delete(c.UserContext(), c.Params("id")); err != nil {
			return writeServiceError(c, err, "Failed to delete document")
		}
		return c.JSON(deleteResponse{Success: true, Message: "Document deleted successfully"})
	}
}
