package http

import (
	"fmt"
	"os"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
)

// MountDocs sirve Swagger UI en /docs a partir de la especificación en file.
// swagger.New entra en pánico si el archivo falta, por eso se verifica antes.
func MountDocs(app *fiber.App, file, title string) error {
	if _, err := os.Stat(file); err != nil {
		return fmt.Errorf("swagger: %w", err)
	}
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: file,
		Path:     "docs",
		Title:    title,
	}))
	return nil
}
