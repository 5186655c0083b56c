package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"takeoff-service/internal/logger"
	"takeoff-service/internal/services"
)

// CacheHandler handles cache-related HTTP endpoints
type CacheHandler struct {
	cacheService *services.CacheService
	log          *logger.Logger
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(cacheService *services.CacheService, log *logger.Logger) *CacheHandler {
	if log == nil {
		log = logger.NewNop()
	}
	return &CacheHandler{
		cacheService: cacheService,
		log:          log,
	}
}

// GetCacheStats handles GET /cache/stats to retrieve cache statistics
// @Summary Get cache statistics
// @Description Get per-layer statistics and hit counts of the bundle cache
// @Tags cache
// @Accept json
// @Produce json
// @Success 200 {object} services.MultiLayerCacheStats "Cache statistics"
// @Router /cache/stats [get]
func (h *CacheHandler) GetCacheStats(c *fiber.Ctx) error {
	return c.JSON(h.cacheService.GetStats())
}

// InvalidateBundle handles DELETE /cache/:hash to remove a bundle from cache
// @Summary Invalidate cached bundle
// @Description Remove a specific bundle from every cache layer
// @Tags cache
// @Accept json
// @Produce json
// @Param hash path string true "SHA-256 of the uploaded file"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]interface{} "Invalid hash"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /cache/{hash} [delete]
func (h *CacheHandler) InvalidateBundle(c *fiber.Ctx) error {
	hash := strings.ToLower(c.Params("hash"))
	if !validHash(hash) {
		h.log.Warn("invalid hash for cache invalidation", "hash", hash)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": InvalidHashError,
		})
	}

	if err := h.cacheService.Delete(c.UserContext(), hash); err != nil {
		h.log.Error("error invalidating cache", "hash", hash, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to invalidate cache",
		})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// ClearCache handles POST /cache/clear to clear all cached bundles
// @Summary Clear entire cache
// @Description Remove all bundles from every cache layer
// @Tags cache
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{} "Cache cleared"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /cache/clear [post]
func (h *CacheHandler) ClearCache(c *fiber.Ctx) error {
	if err := h.cacheService.Clear(c.UserContext()); err != nil {
		h.log.Error("error clearing cache", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to clear cache",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Cache cleared successfully",
	})
}
