package handler

import (
	"encoding/json"
	"errors"
	"io"
	"path"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"docforge/internal/model"
	"docforge/internal/service"
)

func registerTemplateRoutes(app *fiber.App, tmplSvc service.TemplateService) {
	// Create template (multipart/form-data, field name: file)
	app.Post("/templates", func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
		}

		var placeholders []model.Placeholder
		if raw := c.FormValue("placeholders"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &placeholders); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_PLACEHOLDERS", "placeholders must be a JSON array")
			}
		}
		var metadata map[string]any
		if raw := c.FormValue("metadata"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &metadata); err != nil {
				return writeError(c, fiber.StatusBadRequest, "INVALID_METADATA", "metadata must be a JSON object")
			}
		}

		userID, _ := identity(c)
		tmpl, err := tmplSvc.Create(c.UserContext(), service.CreateTemplateInput{
			Name:         c.FormValue("name"),
			Category:     c.FormValue("category"),
			Description:  c.FormValue("description"),
			FileType:     model.FileType(c.FormValue("file_type")),
			Content:      content,
			Placeholders: placeholders,
			Metadata:     metadata,
			CreatedBy:    userID,
		})
		if err != nil {
			if errors.Is(err, service.ErrNameRequired) || errors.Is(err, service.ErrContentRequired) {
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(tmpl)
	})

	// List templates
	app.Get("/templates", func(c *fiber.Ctx) error {
		res, err := tmplSvc.List(c.UserContext(),
			c.Query("category"),
			c.QueryBool("active", false),
			queryInt(c, "limit", 10),
			queryInt(c, "offset", 0))
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(res)
	})

	// Get template by ID
	app.Get("/templates/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		tmpl, err := tmplSvc.Get(c.UserContext(), id)
		if err != nil {
			if errors.Is(err, service.ErrTemplateNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "template not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(tmpl)
	})

	// Upload a new content revision
	app.Put("/templates/:id/content", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}
		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()
		content, err := io.ReadAll(f)
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_READ_ERROR", "cannot read uploaded file")
		}

		userID, _ := identity(c)
		tmpl, err := tmplSvc.UpdateContent(c.UserContext(), service.UpdateTemplateInput{
			TemplateID:    id,
			Content:       content,
			ChangeSummary: c.FormValue("change_summary"),
			UpdatedBy:     userID,
		})
		if err != nil {
			if errors.Is(err, service.ErrTemplateNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "template not found")
			}
			if errors.Is(err, service.ErrContentRequired) {
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err.Error())
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(tmpl)
	})

	// Download an archived version's content
	app.Get("/templates/:id/versions/:version", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		version, err := c.ParamsInt("version")
		if err != nil || version < 1 {
			return writeError(c, fiber.StatusBadRequest, "INVALID_VERSION", "invalid version number")
		}
		content, v, err := tmplSvc.VersionContent(c.UserContext(), id, version)
		if err != nil {
			if errors.Is(err, service.ErrTemplateNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "template version not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+path.Base(v.FilePath)+`"`)
		return c.Send(content)
	})

	// Deactivate template
	app.Delete("/templates/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "invalid id format")
		}
		if err := tmplSvc.Deactivate(c.UserContext(), id); err != nil {
			if errors.Is(err, service.ErrTemplateNotFound) {
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "template not found")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})
}
