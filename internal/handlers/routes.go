package handlers

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the model and cache endpoints on an /api router.
func RegisterRoutes(api fiber.Router, models *ModelHandler, cache *CacheHandler) {
	api.Post("/models/process", models.ProcessModel)
	api.Get("/models", models.ListModels)
	api.Get("/models/:hash", models.GetModel)
	api.Delete("/models/:hash", models.DeleteModel)

	api.Get("/cache/stats", cache.GetCacheStats)
	api.Delete("/cache/:hash", cache.InvalidateBundle)
	api.Post("/cache/clear", cache.ClearCache)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
}
