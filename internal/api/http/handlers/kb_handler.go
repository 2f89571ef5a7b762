package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/opsdeck/support-portal/internal/api/dto"
	"github.com/opsdeck/support-portal/internal/domain"
	"github.com/opsdeck/support-portal/internal/repository"
	"github.com/opsdeck/support-portal/internal/service"
	"github.com/opsdeck/support-portal/pkg/util"
)

// KBHandler serves the knowledge base.
type KBHandler struct {
	kb *service.KBService
}

// NewKBHandler constructs handler.
func NewKBHandler(kb *service.KBService) *KBHandler {
	return &KBHandler{kb: kb}
}

// ListCategories GET /kb/categories.
func (h *KBHandler) ListCategories(c *fiber.Ctx) error {
	cats, err := h.kb.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(cats))
	for _, cat := range cats {
		items = append(items, dto.CategoryResponse{ID: cat.ID, Name: cat.Name})
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateCategory POST /kb/categories.
func (h *KBHandler) CreateCategory(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	cat, err := h.kb.CreateCategory(c.UserContext(), req.Name)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.CategoryResponse{ID: cat.ID, Name: cat.Name}})
}

// ListArticles GET /kb/articles.
func (h *KBHandler) ListArticles(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	filter := repository.KBFilter{
		PublishedOnly: c.QueryBool("published_only", false),
		FeaturedOnly:  c.QueryBool("featured_only", false),
		Limit:         c.QueryInt("limit", 25),
		Offset:        c.QueryInt("offset", 0),
	}
	if v := c.Query("category_id"); v != "" {
		filter.CategoryID = &v
	}
	articles, err := h.kb.ListArticles(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	items := make([]dto.ArticleResponse, 0, len(articles))
	for _, a := range articles {
		items = append(items, articleSummary(a))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetArticle GET /kb/articles/:id returns the article with rendered
// sanitized HTML.
func (h *KBHandler) GetArticle(c *fiber.Ctx) error {
	actor, err := actorFrom(c)
	if err != nil {
		return err
	}
	art, err := h.kb.GetArticle(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	html, err := h.kb.RenderHTML(art.Content)
	if err != nil {
		return err
	}
	resp := articleSummary(*art)
	resp.Content = art.Content
	resp.HTML = html
	return c.JSON(fiber.Map{"data": resp})
}

// CreateArticle POST /kb/articles.
func (h *KBHandler) CreateArticle(c *fiber.Ctx) error {
	var req dto.ArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	art, err := h.kb.CreateArticle(c.UserContext(), articleInput(req))
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": articleSummary(*art)})
}

// UpdateArticle PUT /kb/articles/:id.
func (h *KBHandler) UpdateArticle(c *fiber.Ctx) error {
	var req dto.ArticleRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	art, err := h.kb.UpdateArticle(c.UserContext(), c.Params("id"), articleInput(req))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": articleSummary(*art)})
}

// SetPublished POST /kb/articles/:id/publish.
func (h *KBHandler) SetPublished(c *fiber.Ctx) error {
	var req dto.PublishRequest
	if err := c.BodyParser(&req); err != nil {
		return util.NewValidationError("invalid payload", nil)
	}
	if err := h.kb.SetPublished(c.UserContext(), c.Params("id"), req.Published); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"published": req.Published}})
}

// DeleteArticle DELETE /kb/articles/:id.
func (h *KBHandler) DeleteArticle(c *fiber.Ctx) error {
	if err := h.kb.DeleteArticle(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// FindSimilar GET /kb/articles/similar?title=... runs the duplicate
// check before a new article is written.
func (h *KBHandler) FindSimilar(c *fiber.Ctx) error {
	title := c.Query("title")
	if title == "" {
		return util.NewValidationError("title query parameter required", nil)
	}
	articles, err := h.kb.FindSimilar(c.UserContext(), title)
	if err != nil {
		return err
	}
	items := make([]dto.ArticleResponse, 0, len(articles))
	for _, a := range articles {
		items = append(items, articleSummary(a))
	}
	return c.JSON(fiber.Map{"data": items})
}

// DraftFromTicket POST /kb/drafts/from-ticket/:ticketId.
func (h *KBHandler) DraftFromTicket(c *fiber.Ctx) error {
	suggestion, err := h.kb.DraftFromTicket(c.UserContext(), c.Params("ticketId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.DraftResponse{
		Title:   suggestion.Title,
		Excerpt: suggestion.Excerpt,
		Content: suggestion.Content,
	}})
}

func articleInput(req dto.ArticleRequest) service.ArticleInput {
	return service.ArticleInput{
		CategoryID: req.CategoryID,
		Title:      req.Title,
		Excerpt:    req.Excerpt,
		Content:    req.Content,
		IsFeatured: req.IsFeatured,
	}
}

func articleSummary(a domain.KBArticle) dto.ArticleResponse {
	return dto.ArticleResponse{
		ID:          a.ID,
		CategoryID:  a.CategoryID,
		Title:       a.Title,
		Excerpt:     a.Excerpt,
		IsPublished: a.IsPublished,
		IsFeatured:  a.IsFeatured,
		UpdatedAt:   a.UpdatedAt,
	}
}
