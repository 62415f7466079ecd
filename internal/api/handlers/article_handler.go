package handlers

import (
	"errors"

	"kinto/internal/dto"
	"kinto/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type ArticleHandler struct {
	articleService *service.ArticleService
	logger         *zap.Logger
}

func NewArticleHandler(articleService *service.ArticleService, logger *zap.Logger) *ArticleHandler {
	return &ArticleHandler{
		articleService: articleService,
		logger:         logger,
	}
}

// Upsert godoc
// @Summary Create or update a knowledge base article
// @Description Publishes a new article or a new version of an existing one and reswaps the retrieval index
// @Tags kb
// @Accept json
// @Produce json
// @Param request body dto.UpsertArticleRequest true "Article"
// @Success 200 {object} dto.ArticleResponse
// @Failure 400 {object} map[string]string
// @Security Bearer
// @Router /api/v1/kb/articles [post]
func (h *ArticleHandler) Upsert(c *fiber.Ctx) error {
	var req dto.UpsertArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	article, err := h.articleService.Upsert(c.Context(), &req)
	if err != nil {
		if errors.Is(err, service.ErrArticleInvalid) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.logger.Error("Article upsert failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Article upsert failed",
		})
	}

	return c.JSON(service.ArticleToResponse(article))
}

// Get godoc
// @Summary Fetch one article
// @Tags kb
// @Produce json
// @Param id path string true "Article id"
// @Success 200 {object} dto.ArticleResponse
// @Failure 404 {object} map[string]string
// @Security Bearer
// @Router /api/v1/kb/articles/{id} [get]
func (h *ArticleHandler) Get(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Malformed article id",
		})
	}

	article, err := h.articleService.Get(c.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Article not found",
			})
		}
		h.logger.Error("Article fetch failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Article fetch failed",
		})
	}

	return c.JSON(service.ArticleToResponse(article))
}

// Reload godoc
// @Summary Rebuild the retrieval index from storage
// @Tags kb
// @Produce json
// @Success 200 {object} map[string]int
// @Security Bearer
// @Router /api/v1/kb/reload [post]
func (h *ArticleHandler) Reload(c *fiber.Ctx) error {
	size, err := h.articleService.ReloadIndex(c.Context())
	if err != nil {
		h.logger.Error("Index reload failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Index reload failed",
		})
	}

	return c.JSON(fiber.Map{"articles": size})
}
