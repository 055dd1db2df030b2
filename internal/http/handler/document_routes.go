package handler

import (
	"errors"
	"path"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docforge/internal/model"
	"docforge/internal/repository"
	"docforge/internal/service"
)

// generateRequest is the JSON body for document generation.
type generateRequest struct {
	TemplateID    string         `json:"template_id"`
	Data          map[string]any `json:"data"`
	DocType       string         `json:"doc_type"`
	Title         string         `json:"title"`
	AccessLevel   string         `json:"access_level"`
	Encrypt       bool           `json:"encrypt"`
	Watermark     string         `json:"watermark"`
	Tags          []string       `json:"tags"`
	RetentionDays *int           `json:"retention_days"`
}

func registerDocumentRoutes(app *fiber.App, docSvc service.DocumentService) {
	// Generate a document from a template
	app.Post("/documents/generate", func(c *fiber.Ctx) error {
		var req generateRequest
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		userID, _ := identity(c)

		doc, err := docSvc.Generate(c.UserContext(), service.GenerateInput{
			TemplateID:    req.TemplateID,
			Data:          req.Data,
			CreatedBy:     userID,
			DocType:       req.DocType,
			Title:         req.Title,
			AccessLevel:   model.AccessLevel(req.AccessLevel),
			Encrypt:       req.Encrypt,
			Watermark:     req.Watermark,
			Tags:          req.Tags,
			RetentionDays: req.RetentionDays,
		})
		if err != nil {
			switch {
			case errors.Is(err, service.ErrTemplateNotFound):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "template not found")
			case errors.Is(err, service.ErrIDRequired),
				errors.Is(err, service.ErrInvalidAccessLevel),
				errors.Is(err, service.ErrMissingPlaceholder):
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			default:
				return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
			}
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	})

	// Regenerate an existing document with fresh data
	app.Post("/documents/:id/regenerate", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req struct {
			Data map[string]any `json:"data"`
		}
		if err := c.BodyParser(&req); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
		}
		userID, _ := identity(c)

		doc, err := docSvc.Regenerate(c.UserContext(), id, req.Data, userID)
		if err != nil {
			if errors.Is(err, service.ErrDocumentNotFound) || errors.Is(err, service.ErrTemplateNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	})

	// List documents with filters
	app.Get("/documents", func(c *fiber.Ctx) error {
		dateFrom, ok := queryDate(c, "date_from")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "date_from must be YYYY-MM-DD")
		}
		dateTo, ok := queryDate(c, "date_to")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "date_to must be YYYY-MM-DD")
		}

		res, err := docSvc.List(c.UserContext(), repository.DocumentFilter{
			DocType:   c.Query("doc_type"),
			Status:    model.DocumentStatus(c.Query("status")),
			CreatedBy: c.Query("created_by"),
			DateFrom:  dateFrom,
			DateTo:    dateTo,
		}, queryInt(c, "limit", 10), queryInt(c, "offset", 0))
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	})

	// Metadata search
	app.Get("/documents/search", func(c *fiber.Ctx) error {
		dateFrom, ok := queryDate(c, "date_from")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "date_from must be YYYY-MM-DD")
		}
		dateTo, ok := queryDate(c, "date_to")
		if !ok {
			return writeError(c, fiber.StatusBadRequest, "INVALID_DATE", "date_to must be YYYY-MM-DD")
		}

		docs, err := docSvc.Search(c.UserContext(), service.SearchInput{
			Query:    c.Query("q"),
			DocType:  c.Query("doc_type"),
			DateFrom: dateFrom,
			DateTo:   dateTo,
			Limit:    queryInt(c, "limit", 20),
		})
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(fiber.Map{"data": docs, "total": len(docs)})
	})

	// Get document metadata. Denied and absent are both 404.
	app.Get("/documents/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		userID, role := identity(c)

		doc, err := docSvc.Get(c.UserContext(), id, userID, role)
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		if doc == nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
		}
		return c.JSON(doc)
	})

	// Download document content. Denied and absent are both 404.
	app.Get("/documents/:id/content", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		userID, role := identity(c)

		content, doc, err := docSvc.Download(c.UserContext(), id, userID, role, service.RequestMeta{
			IP:        c.IP(),
			UserAgent: c.Get(fiber.HeaderUserAgent),
		})
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		if content == nil {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
		}
		c.Set(fiber.HeaderContentType, doc.MimeType)
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+path.Base(doc.FilePath)+`"`)
		return c.Send(content)
	})

	// Archive document
	app.Post("/documents/:id/archive", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		var req struct {
			Readonly bool `json:"readonly"`
		}
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_BODY", "invalid request body")
			}
		}
		if err := docSvc.Archive(c.UserContext(), id, req.Readonly); err != nil {
			if errors.Is(err, service.ErrDocumentNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Delete document
	app.Delete("/documents/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := docSvc.Delete(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrDocumentNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Audit trail for a document
	app.Get("/documents/:id/access-logs", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		res, err := docSvc.AccessHistory(c.UserContext(), id, queryInt(c, "limit", 50), queryInt(c, "offset", 0))
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	})
}
