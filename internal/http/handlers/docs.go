package handlers

import (
	_ "embed"

	"github.com/gofiber/fiber/v2"
)

var (
	//go:embed static/index.html
	indexHTML []byte
	//go:embed static/openapi.json
	openAPIJSON []byte
)

// HandleDocs serves the interactive API explorer.
func HandleDocs(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(indexHTML)
}

// HandleOpenAPI serves the OpenAPI document of /render.
func HandleOpenAPI(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(openAPIJSON)
}
