// Package server exposes the pipeline over HTTP.
package server

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"

	"github.com/esp-voice-lab/internal/backend"
	"github.com/esp-voice-lab/internal/config"
	"github.com/esp-voice-lab/internal/logging"
	"github.com/esp-voice-lab/internal/pipeline"
)

// Version is reported by the banner endpoint.
const Version = "2.0"

// New builds the Fiber app with all routes wired to the pipeline.
func New(p *pipeline.Pipeline, cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		BodyLimit:             cfg.BodyLimit,
		DisableStartupMessage: true,
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "voice proxy running",
			"version": Version,
		})
	})

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":    "healthy",
			"stt_ready": p.Ready(),
		})
	})

	app.Post("/process_audio", handleProcessAudio(p))
	app.Post("/process_audio/", handleProcessAudio(p))

	return app
}

func handleProcessAudio(p *pipeline.Pipeline) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Token shape is checked before the file part is touched; no
		// upload bytes are read for unauthorized callers.
		auth := c.Get(fiber.HeaderAuthorization)
		if !pipeline.ValidToken(auth) {
			return errorJSON(c, pipeline.ErrUnauthorized)
		}

		fh, err := c.FormFile("file")
		if err != nil || fh == nil || fh.Filename == "" {
			return errorJSON(c, pipeline.ErrEmptyUpload)
		}
		f, err := fh.Open()
		if err != nil {
			return errorJSON(c, pipeline.ErrEmptyUpload)
		}
		data, rerr := io.ReadAll(f)
		_ = f.Close()
		if rerr != nil || len(data) == 0 {
			return errorJSON(c, pipeline.ErrEmptyUpload)
		}

		res, err := p.Handle(c.UserContext(), auth, pipeline.Upload{
			Filename: fh.Filename,
			Data:     data,
		})
		if err != nil {
			return errorJSON(c, err)
		}

		c.Set(fiber.HeaderContentType, "audio/wav")
		c.Set(fiber.HeaderContentDisposition, `attachment; filename="response.wav"`)
		return c.Send(res.Audio)
	}
}

// errorJSON maps pipeline errors to the wire status codes and a structured
// error payload.
func errorJSON(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	switch {
	case errors.Is(err, pipeline.ErrUnauthorized):
		status = fiber.StatusUnauthorized
	case errors.Is(err, pipeline.ErrEmptyUpload), errors.Is(err, pipeline.ErrNoSpeech):
		status = fiber.StatusBadRequest
	case errors.Is(err, backend.ErrUnavailable):
		status = fiber.StatusServiceUnavailable
	}
	if status == fiber.StatusInternalServerError {
		logging.Errorw("request failed", "err", err)
		return c.Status(status).JSON(fiber.Map{"error": "error processing audio"})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}
