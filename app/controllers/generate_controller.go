package controllers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/valyala/fasthttp"

	"github.com/ReviewDeckHQ/ReviewDeck/internal/pkg/airesponder"
)

// GenerateController drafts AI reply suggestions for reviews.
type GenerateController struct {
	generator *airesponder.Generator
}

var generateController *GenerateController

// InitializeGenerateController wires the controller. generator may be nil
// when no API key is configured; the endpoint then reports 503.
func InitializeGenerateController(generator *airesponder.Generator) {
	generateController = &GenerateController{generator: generator}
}

type generateRequest struct {
	airesponder.ReviewInput
	Stream bool `json:"stream"`
}

// HandleGenerateReply produces a reply draft, either as one JSON response or
// as a server-sent event stream of text deltas.
func HandleGenerateReply(c *fiber.Ctx) error {
	if generateController.generator == nil {
		return jsonError(c, fiber.StatusServiceUnavailable, "not_configured", "AI reply generation is not configured")
	}

	var req generateRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "could not parse request body")
	}
	if req.Rating < 1 || req.Rating > 5 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_body", "rating must be between 1 and 5")
	}

	if req.Stream {
		return streamGeneratedReply(c, req.ReviewInput)
	}

	reply, err := generateController.generator.Generate(c.Context(), req.ReviewInput)
	if err != nil {
		log.Errorf("[Generate] Reply generation failed: %v", err)
		return jsonError(c, fiber.StatusBadGateway, "generation_failed", "could not generate reply")
	}
	return c.JSON(fiber.Map{"reply": reply})
}

func streamGeneratedReply(c *fiber.Ctx, input airesponder.ReviewInput) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// The fiber request context is gone once this writer runs.
		err := generateController.generator.GenerateStream(context.Background(), input, func(delta string) error {
			payload, merr := json.Marshal(fiber.Map{"delta": delta})
			if merr != nil {
				return merr
			}
			if _, werr := fmt.Fprintf(w, "data: %s\n\n", payload); werr != nil {
				return werr
			}
			return w.Flush()
		})
		if err != nil {
			log.Errorf("[Generate] Streaming generation aborted: %v", err)
			fmt.Fprintf(w, "event: error\ndata: {\"error\":\"generation_failed\"}\n\n")
			w.Flush()
			return
		}
		fmt.Fprint(w, "event: done\ndata: {}\n\n")
		w.Flush()
	}))

	return nil
}
