// Package api exposes the parsing engine as a single-shot HTTP service.
// It is stateless by design: one upload in, one statement out, nothing
// persisted. Multi-user concerns (auth, storage) live in an outer
// application, not here.
package api

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fundlens/cas-parser/internal/extractor"
	"github.com/fundlens/cas-parser/internal/models"
	"github.com/fundlens/cas-parser/internal/parser"
)

// ParseResponse is the JSON envelope for /api/parse.
type ParseResponse struct {
	Success    bool                     `json:"success"`
	Error      string                   `json:"error,omitempty"`
	Statement  *models.CASStatement     `json:"statement,omitempty"`
	Validation *models.ValidationReport `json:"validation,omitempty"`
}

// NewApp builds the fiber application with all routes registered.
func NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit: 32 << 20,
		AppName:   "cas-parser",
	})
	app.Get("/api/health", HandleHealth)
	app.Post("/api/parse", HandleParse)
	return app
}

// HandleHealth reports service liveness.
func HandleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"engine": "fiber",
	})
}

// HandleParse accepts a multipart CAS PDF upload (form field "file",
// optional "password" and "validate_only") and returns the parsed
// statement. Structural failures return 422; validation findings are
// data inside a 200 response.
func HandleParse(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return writeError(c, fiber.StatusBadRequest, "no file uploaded; use form field 'file'")
	}
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".pdf") {
		return writeError(c, fiber.StatusBadRequest, "only PDF files are supported")
	}

	password := c.FormValue("password")
	validateOnly := c.FormValue("validate_only") == "true"

	src, err := fileHeader.Open()
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, "failed to read upload")
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "cas-*.pdf")
	if err != nil {
		return writeError(c, fiber.StatusInternalServerError, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, src); err != nil {
		tmp.Close()
		return writeError(c, fiber.StatusInternalServerError, "failed to save upload")
	}
	tmp.Close()

	pages, err := extractor.ExtractText(tmp.Name(), password)
	if err != nil {
		return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("PDF extraction failed: %v", err))
	}

	statement, err := parser.Parse(pages)
	if err != nil {
		return writeError(c, fiber.StatusUnprocessableEntity, fmt.Sprintf("parsing failed: %v", err))
	}

	resp := ParseResponse{Success: true}
	if validateOnly {
		resp.Validation = &statement.Validation
	} else {
		resp.Statement = statement
	}
	return c.JSON(resp)
}

func writeError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(ParseResponse{Success: false, Error: msg})
}
