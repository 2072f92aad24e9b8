package api

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jo-hoe/digit-collector/internal/core"
	"github.com/jo-hoe/digit-collector/internal/dataset"
	"github.com/jo-hoe/digit-collector/internal/imaging"
	"github.com/labstack/echo/v4"
)

const (
	mimeZip         = "application/zip"
	mimeOctetStream = "application/octet-stream"

	zipDownloadName   = "digits_dataset.zip"
	numpyDownloadName = "digits_numpy.npz"

	banner = "MNIST Digit Collector Backend"
)

// APIService exposes the digit corpus over HTTP: one upload endpoint and the
// bulk read endpoints the collection tool consumes.
type APIService struct {
	coreService *core.CoreService
}

func NewAPIService(coreService *core.CoreService) *APIService {
	return &APIService{
		coreService: coreService,
	}
}

// saveDigitRequest carries the upload form's label field.
type saveDigitRequest struct {
	Label string `form:"label" validate:"required,oneof=0 1 2 3 4 5 6 7 8 9"`
}

type saveDigitResponse struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename"`
	Label    int    `json:"label"`
}

// errorResponse is the uniform error body: {"error": "<message>"}.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *APIService) SetRoutes(e *echo.Echo) {
	e.POST("/save_digit", s.saveDigitHandler)
	e.GET("/stats", s.statsHandler)
	e.GET("/list_files", s.listFilesHandler)
	e.GET("/download_zip", s.downloadZipHandler)
	e.GET("/download_numpy", s.downloadNumpyHandler)

	// Probe routes
	e.GET("/health", s.healthHandler)
	e.GET("/", s.rootHandler)
}

func (s *APIService) saveDigitHandler(ctx echo.Context) error {
	var req saveDigitRequest
	if err := ctx.Bind(&req); err != nil {
		slog.Warn("saveDigitHandler: malformed upload form",
			"status", http.StatusBadRequest, "error", err)
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "image and label required"})
	}

	file, err := ctx.FormFile("image")
	if err != nil || req.Label == "" {
		slog.Warn("saveDigitHandler: missing image or label",
			"status", http.StatusBadRequest, "error", err)
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: "image and label required"})
	}

	if err := ctx.Validate(&req); err != nil {
		slog.Warn("saveDigitHandler: invalid label",
			"status", http.StatusBadRequest, "label", req.Label, "error", err)
		return ctx.JSON(http.StatusBadRequest, errorResponse{Error: dataset.ErrInvalidLabel.Error()})
	}

	src, err := file.Open()
	if err != nil {
		slog.Error("saveDigitHandler: failed to open uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to open uploaded file"})
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("saveDigitHandler: failed to close uploaded file reader",
				"error", cerr, "filename", file.Filename)
		}
	}()

	imageData, err := io.ReadAll(src)
	if err != nil {
		slog.Error("saveDigitHandler: failed to read uploaded file",
			"status", http.StatusInternalServerError, "error", err, "filename", file.Filename)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{Error: "failed to read uploaded file"})
	}

	sample, err := s.coreService.SaveSample(ctx.Request().Context(), imageData, req.Label)
	if err != nil {
		status := saveErrorStatus(err)
		slog.Error("saveDigitHandler: failed to save sample",
			"status", status, "label", req.Label, "error", err)
		return ctx.JSON(status, errorResponse{Error: err.Error()})
	}

	return ctx.JSON(http.StatusOK, saveDigitResponse{
		Success:  true,
		Filename: sample.Filename,
		Label:    sample.Label,
	})
}

// saveErrorStatus separates caller mistakes from backend failures.
func saveErrorStatus(err error) int {
	if errors.Is(err, dataset.ErrInvalidLabel) || errors.Is(err, imaging.ErrUndecodable) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *APIService) statsHandler(ctx echo.Context) error {
	stats, err := s.coreService.DatasetStats(ctx.Request().Context())
	if err != nil {
		slog.Error("statsHandler: failed to aggregate stats",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return ctx.JSON(http.StatusOK, stats)
}

func (s *APIService) listFilesHandler(ctx echo.Context) error {
	files, err := s.coreService.ListFiles(ctx.Request().Context())
	if err != nil {
		slog.Error("listFilesHandler: failed to list files",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
	return ctx.JSON(http.StatusOK, files)
}

func (s *APIService) downloadZipHandler(ctx echo.Context) error {
	archive, err := s.coreService.ExportZip(ctx.Request().Context())
	if err != nil {
		slog.Error("downloadZipHandler: failed to build archive",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", zipDownloadName))
	return ctx.Blob(http.StatusOK, mimeZip, archive)
}

func (s *APIService) downloadNumpyHandler(ctx echo.Context) error {
	archive, err := s.coreService.ExportNumpy(ctx.Request().Context())
	if errors.Is(err, dataset.ErrEmptyDataset) {
		slog.Warn("downloadNumpyHandler: dataset is empty",
			"status", http.StatusNotFound)
		return ctx.JSON(http.StatusNotFound, errorResponse{Error: err.Error()})
	}
	if err != nil {
		slog.Error("downloadNumpyHandler: failed to build arrays",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", numpyDownloadName))
	return ctx.Blob(http.StatusOK, mimeOctetStream, archive)
}

func (s *APIService) healthHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, map[string]string{"status": "running"})
}

func (s *APIService) rootHandler(ctx echo.Context) error {
	return ctx.String(http.StatusOK, banner)
}
