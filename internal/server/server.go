// Package server exposes the sessions root over HTTP: a file index, raw
// file access, batch delete, workdir relocation and summarized sessions.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"os"
	"time"

	"github.com/Zuo-Peng/ai-session-stats/internal/config"
	"github.com/Zuo-Peng/ai-session-stats/internal/logger"
	"github.com/Zuo-Peng/ai-session-stats/internal/manage"
	"github.com/Zuo-Peng/ai-session-stats/internal/scan"
	"github.com/Zuo-Peng/ai-session-stats/internal/session"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"
)

type handler struct {
	root    string
	workers int
	log     zerolog.Logger
}

// IndexEntry is one session file as listed by /__sessions_index.
type IndexEntry struct {
	Rel string `json:"rel"`
	URL string `json:"url"`
}

// New builds the HTTP app serving cfg.SessionsRoot.
func New(cfg *config.Config) *fiber.App {
	h := &handler{
		root:    cfg.SessionsRoot,
		workers: cfg.Workers,
		log:     logger.With("server"),
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ReadTimeout:           30 * time.Second,
	})
	app.Use(recover.New())
	app.Use(h.requestLogger)

	app.Get("/__sessions_index", h.index)
	app.Get("/sessions/*", h.raw)

	app.Post("/__sessions_delete", h.delete)
	app.All("/__sessions_delete", methodNotAllowed)

	app.Post("/__sessions_relocate", h.relocate)
	app.All("/__sessions_relocate", methodNotAllowed)

	app.Get("/api/sessions", h.sessions)

	return app
}

// Serve runs app on addr until ctx is done, then shuts it down.
func Serve(ctx context.Context, app *fiber.App, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return app.ShutdownWithTimeout(5 * time.Second)
	}
}

func (h *handler) requestLogger(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	h.log.Info().
		Str("method", c.Method()).
		Str("path", c.Path()).
		Int("status", c.Response().StatusCode()).
		Dur("latency", time.Since(start)).
		Msg("request")
	return err
}

func methodNotAllowed(c *fiber.Ctx) error {
	return c.Status(fiber.StatusMethodNotAllowed).JSON(fiber.Map{
		"ok":    false,
		"error": "Method not allowed",
	})
}

func (h *handler) index(c *fiber.Ctx) error {
	files, err := scan.ScanRoot(h.root)
	if err != nil {
		h.log.Warn().Err(err).Msg("scan sessions root")
	}

	entries := make([]IndexEntry, 0, len(files))
	for _, f := range files {
		entries = append(entries, IndexEntry{Rel: f.Rel, URL: "/sessions/" + f.Rel})
	}
	return c.JSON(entries)
}

func (h *handler) raw(c *fiber.Ctx) error {
	rel, err := url.PathUnescape(c.Params("*"))
	if err != nil {
		return fiber.ErrBadRequest
	}

	target, err := manage.ResolveSession(h.root, rel)
	if err != nil {
		return fiber.ErrNotFound
	}

	data, err := os.ReadFile(target)
	if err != nil {
		return fiber.ErrNotFound
	}

	c.Set(fiber.HeaderContentType, "application/x-ndjson; charset=utf-8")
	c.Set(fiber.HeaderCacheControl, "no-store")
	return c.Send(data)
}

// decodeBody reads the request body as a JSON object; an empty body is an
// empty object.
func decodeBody(c *fiber.Ctx) (map[string]any, error) {
	body := c.Body()
	if len(body) == 0 {
		return map[string]any{}, nil
	}
	var parsed map[string]any
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"ok":    false,
		"error": "Invalid JSON body",
	})
}

func (h *handler) delete(c *fiber.Ctx) error {
	body, err := decodeBody(c)
	if err != nil {
		return invalidBody(c)
	}

	paths, _ := body["paths"].([]any)
	res := manage.Delete(h.root, paths)
	if len(res.Removed) > 0 || len(res.Failed) > 0 {
		h.log.Info().Strs("removed", res.Removed).Int("failed", len(res.Failed)).Msg("delete sessions")
	}

	return c.JSON(fiber.Map{
		"ok":      true,
		"removed": res.Removed,
		"failed":  res.Failed,
	})
}

func (h *handler) relocate(c *fiber.Ctx) error {
	body, err := decodeBody(c)
	if err != nil {
		return invalidBody(c)
	}

	rel, _ := body["path"].(string)
	newWorkdir, _ := body["newWorkdir"].(string)

	updated, err := manage.Relocate(h.root, rel, newWorkdir)
	switch {
	case err == nil:
	case errors.Is(err, manage.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "Invalid input"})
	case errors.Is(err, manage.ErrOutsideRoot):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"ok": false, "error": "Invalid path"})
	case errors.Is(err, manage.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"ok": false, "error": "Session file not found"})
	default:
		h.log.Warn().Err(err).Str("path", rel).Msg("relocate session")
		return invalidBody(c)
	}

	h.log.Info().Str("path", rel).Str("workdir", newWorkdir).Int("updated", updated).Msg("relocate session")
	return c.JSON(fiber.Map{
		"ok":           true,
		"updatedCount": updated,
	})
}

func (h *handler) sessions(c *fiber.Ctx) error {
	transcripts, err := scan.LoadRoot(c.UserContext(), h.root, h.workers)
	if err != nil {
		h.log.Warn().Err(err).Msg("load sessions")
	}
	summaries := session.SummarizeAll(transcripts)
	return c.JSON(summaries)
}
