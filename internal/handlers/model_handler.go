package handlers

import (
	"encoding/hex"
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"takeoff-service/internal/logger"
	"takeoff-service/internal/pipeline"
	"takeoff-service/internal/services"
)

const InvalidHashError = "invalid model hash"
const ModelNotFoundError = "model not found"

// ModelHandler defines handlers for processing and retrieving models.
type ModelHandler struct {
	Service *services.ModelService
	log     *logger.Logger
}

// NewModelHandler creates a new ModelHandler with the given ModelService.
func NewModelHandler(service *services.ModelService, log *logger.Logger) *ModelHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &ModelHandler{Service: service, log: log}
}

func validHash(hash string) bool {
	if len(hash) != 64 {
		return false
	}
	_, err := hex.DecodeString(hash)
	return err == nil
}

// ProcessModel handles POST /models/process to run the ingestion pipeline on an upload.
// @Summary Process a model file
// @Description Parses a model upload and returns its quantity takeoff bundle. Identical uploads are served from the bundle cache.
// @Tags models
// @Accept multipart/form-data
// @Accept application/octet-stream
// @Produce json
// @Param file formData file false "Model file (.json, .zip, .ifczip)"
// @Param X-File-Name header string false "File name when the body is sent raw"
// @Success 200 {object} models.Bundle "Processed bundle"
// @Failure 400 {object} map[string]interface{} "Unsupported input"
// @Failure 413 {object} map[string]interface{} "File exceeds the size limit"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /models/process [post]
func (h *ModelHandler) ProcessModel(c *fiber.Ctx) error {
	file, err := h.readUpload(c)
	if err != nil {
		h.log.Warn("failed to read upload", "path", c.Path(), "ip", c.IP(), "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": "failed to read file: " + err.Error(),
		})
	}
	h.log.Info("processing model", "file", file.Name, "bytes", len(file.Data), "ip", c.IP())

	bundle, timings, err := h.Service.Process(c.UserContext(), file)
	if timings != nil {
		for k, v := range timings.GetHeaders() {
			c.Set(k, v)
		}
	}
	if err != nil {
		return h.loadError(c, err)
	}
	return c.JSON(bundle)
}

func (h *ModelHandler) readUpload(c *fiber.Ctx) (pipeline.File, error) {
	if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		fileHeader, err := c.FormFile("file")
		if err != nil {
			return pipeline.File{}, err
		}
		f, err := fileHeader.Open()
		if err != nil {
			return pipeline.File{}, err
		}
		defer f.Close()
		data, err := io.ReadAll(f)
		if err != nil {
			return pipeline.File{}, err
		}
		return pipeline.File{Name: fileHeader.Filename, Data: data}, nil
	}

	name := c.Get("X-File-Name")
	if name == "" {
		return pipeline.File{}, fiber.NewError(fiber.StatusBadRequest, "missing X-File-Name header")
	}
	// the request body is only valid for the lifetime of the handler
	data := append([]byte(nil), c.Body()...)
	return pipeline.File{Name: name, Data: data}, nil
}

func (h *ModelHandler) loadError(c *fiber.Ctx, err error) error {
	var le *pipeline.LoadError
	if !errors.As(err, &le) {
		h.log.Error("model processing failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	switch le.Kind {
	case pipeline.KindSizeLimit:
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(fiber.Map{
			"error":            true,
			"message":          le.Error(),
			"code":             le.Kind.String(),
			"suggestAlternate": le.Suggest,
		})
	case pipeline.KindUnsupported:
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": le.Error(), "code": le.Kind.String(),
		})
	default:
		h.log.Error("model processing failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": le.Error(), "code": le.Kind.String(),
		})
	}
}

// ListModels handles GET /models to list processed model records.
// @Summary List processed models
// @Description Gets the metadata of every processed model that has not been purged
// @Tags models
// @Produce json
// @Success 200 {array} models.BundleRecord "Processed models"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /models [get]
func (h *ModelHandler) ListModels(c *fiber.Ctx) error {
	records, err := h.Service.List(c.UserContext())
	if err != nil {
		h.log.Error("error listing models", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	return c.JSON(records)
}

// GetModel handles GET /models/:hash to retrieve a processed bundle.
// @Summary Get a processed bundle
// @Description Returns the cached bundle for a content hash
// @Tags models
// @Produce json
// @Param hash path string true "SHA-256 of the uploaded file"
// @Success 200 {object} models.Bundle "Bundle found"
// @Failure 400 {object} map[string]interface{} "Invalid hash"
// @Failure 404 {object} map[string]interface{} "Model not found"
// @Router /models/{hash} [get]
func (h *ModelHandler) GetModel(c *fiber.Ctx) error {
	hash := strings.ToLower(c.Params("hash"))
	if !validHash(hash) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidHashError,
		})
	}
	bundle, ok := h.Service.Get(c.UserContext(), hash)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": true, "message": ModelNotFoundError,
		})
	}
	bundle.CacheHit = true
	return c.JSON(bundle)
}

// DeleteModel handles DELETE /models/:hash to drop a processed model everywhere.
// @Summary Delete a processed model
// @Tags models
// @Param hash path string true "SHA-256 of the uploaded file"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]interface{} "Invalid hash"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /models/{hash} [delete]
func (h *ModelHandler) DeleteModel(c *fiber.Ctx) error {
	hash := strings.ToLower(c.Params("hash"))
	if !validHash(hash) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": true, "message": InvalidHashError,
		})
	}
	if err := h.Service.Delete(c.UserContext(), hash); err != nil {
		h.log.Error("error deleting model", "hash", hash, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": true, "message": err.Error(),
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}
