package server

import (
	"context"
	"errors"
	"time"

	"github.com/documetrics/docudash/core"
	"github.com/documetrics/docudash/core/algo"
	"github.com/documetrics/docudash/core/poller"
	"github.com/documetrics/docudash/internal/contract"
	"github.com/documetrics/docudash/schema"
	"github.com/gofiber/fiber/v2"
)

type handler struct {
	cfg *contract.Config
	app *core.App
}

type rankedFile struct {
	Rank int    `json:"rank"`
	Band string `json:"band"`
	schema.MetricRecord
}

type datasetResponse struct {
	State      schema.AppState       `json:"state"`
	Files      []rankedFile          `json:"files"`
	Project    []schema.MetricRecord `json:"project"`
	TotalFiles int                   `json:"total_files"`
	Truncated  bool                  `json:"truncated"`
	Dropped    int                   `json:"dropped"`
}

type recordDetail struct {
	schema.MetricRecord
	Band  string               `json:"band"`
	Best  schema.MetricExtreme `json:"best_metric"`
	Worst schema.MetricExtreme `json:"worst_metric"`
}

type analyzeRequest struct {
	Path string `json:"path"`
}

type themeRequest struct {
	Theme string `json:"theme"`
}

func detailOf(r schema.MetricRecord) recordDetail {
	best, worst := algo.BestAndWorst(r)
	return recordDetail{
		MetricRecord: r,
		Band:         contract.GetPlainBandOf(r.Metric(schema.OverallScoreKey)),
		Best:         best,
		Worst:        worst,
	}
}

// loaded returns the dataset or a fiber error: 404 without metrics, 502 when the backend failed.
func (h *handler) loaded(c *fiber.Ctx) (*schema.Dataset, error) {
	d, err := h.app.EnsureLoaded(c.UserContext())
	switch {
	case errors.Is(err, core.ErrNoMetrics):
		return nil, fiber.NewError(fiber.StatusNotFound, err.Error())
	case err != nil:
		return nil, fiber.NewError(fiber.StatusBadGateway, poller.UserMessage(err))
	}
	return d, nil
}

func (h *handler) limit(c *fiber.Ctx) int {
	if l := c.QueryInt("limit", -1); l >= 0 {
		return min(l, contract.MaxResultLimit)
	}
	return h.cfg.ResultLimit
}

func (h *handler) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"time":    time.Now(),
		"backend": h.cfg.ServerURL,
	})
}

func (h *handler) dataset(c *fiber.Ctx) error {
	d, err := h.loaded(c)
	if err != nil {
		return err
	}
	ranked, truncated := algo.RankFiles(d.File, h.limit(c))
	files := make([]rankedFile, len(ranked))
	for i, r := range ranked {
		files[i] = rankedFile{
			Rank:         i + 1,
			Band:         contract.GetPlainBandOf(r.Metric(schema.OverallScoreKey)),
			MetricRecord: r,
		}
	}
	return c.JSON(datasetResponse{
		State:      h.app.State(),
		Files:      files,
		Project:    d.Project,
		TotalFiles: len(d.File),
		Truncated:  truncated,
		Dropped:    d.Dropped,
	})
}

// file returns one file record and makes it the current selection.
func (h *handler) file(c *fiber.Ctx) error {
	id := c.Query("id")
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "id is required")
	}
	d, err := h.loaded(c)
	if err != nil {
		return err
	}
	r, ok := d.FileMetrics(id)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "no file metrics for "+id)
	}
	if err := h.app.Select(id); err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return c.JSON(detailOf(r))
}

func (h *handler) project(c *fiber.Ctx) error {
	d, err := h.loaded(c)
	if err != nil {
		return err
	}
	r, ok := d.ProjectMetrics()
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "no project-level metrics")
	}
	return c.JSON(detailOf(r))
}

func (h *handler) summary(c *fiber.Ctx) error {
	if _, err := h.loaded(c); err != nil {
		return err
	}
	return c.JSON(h.app.Summary(h.limit(c)))
}

// analyze starts a run in the background and answers 202 at once.
func (h *handler) analyze(c *fiber.Ctx) error {
	var req analyzeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	if req.Path == "" {
		return fiber.NewError(fiber.StatusBadRequest, "path is required")
	}
	h.app.AnalyzeAsync(context.Background(), req.Path)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "Analysis started",
		"path":    schema.NormalizePath(req.Path),
	})
}

func (h *handler) analysis(c *fiber.Ctx) error {
	return c.JSON(h.app.AnalysisSnapshot())
}

func (h *handler) theme(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"theme": h.app.Themes().Current()})
}

func (h *handler) setTheme(c *fiber.Ctx) error {
	var req themeRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	theme, err := core.ParseTheme(req.Theme)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if err := h.app.Themes().Set(theme); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"theme": h.app.Themes().Current()})
}
