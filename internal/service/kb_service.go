package service

import (
	"bytes"
	"context"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/opsdeck/support-portal/internal/domain"
	"github.com/opsdeck/support-portal/internal/drafting"
	"github.com/opsdeck/support-portal/internal/repository"
	"github.com/opsdeck/support-portal/pkg/util"
)

const similarArticleLimit = 5

// KBService manages knowledge-base categories and articles. Article
// content is markdown; HTML rendering happens at read time and is
// sanitized before leaving the service.
type KBService struct {
	kb       repository.KBRepository
	tickets  repository.TicketRepository
	messages repository.TicketMessageRepository
	drafter  drafting.Drafter
	markdown goldmark.Markdown
	policy   *bluemonday.Policy
}

// NewKBService constructs the service. The drafter may be nil when the
// drafting endpoint is not configured.
func NewKBService(kb repository.KBRepository, tickets repository.TicketRepository, messages repository.TicketMessageRepository, drafter drafting.Drafter) *KBService {
	return &KBService{
		kb:       kb,
		tickets:  tickets,
		messages: messages,
		drafter:  drafter,
		markdown: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy:   bluemonday.UGCPolicy(),
	}
}

// ArticleInput describes a create/update payload.
type ArticleInput struct {
	CategoryID *string
	Title      string
	Excerpt    string
	Content    string
	IsFeatured bool
}

// ListCategories returns all categories.
func (s *KBService) ListCategories(ctx context.Context) ([]domain.KBCategory, error) {
	cats, err := s.kb.ListCategories(ctx)
	if err != nil {
		return nil, util.MapError(err)
	}
	return cats, nil
}

// CreateCategory adds a category.
func (s *KBService) CreateCategory(ctx context.Context, name string) (*domain.KBCategory, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, util.NewValidationError("name is required", nil)
	}
	cat := &domain.KBCategory{Name: name}
	if err := s.kb.CreateCategory(ctx, cat); err != nil {
		return nil, util.MapError(err)
	}
	return cat, nil
}

// CreateArticle adds an article in draft state.
func (s *KBService) CreateArticle(ctx context.Context, input ArticleInput) (*domain.KBArticle, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, util.NewValidationError("title is required", nil)
	}
	art := &domain.KBArticle{
		CategoryID: input.CategoryID,
		Title:      title,
		Excerpt:    strings.TrimSpace(input.Excerpt),
		Content:    input.Content,
		IsFeatured: input.IsFeatured,
	}
	if err := s.kb.CreateArticle(ctx, art); err != nil {
		return nil, util.MapError(err)
	}
	return art, nil
}

// UpdateArticle edits article fields. Publish state is changed through
// SetPublished, not here.
func (s *KBService) UpdateArticle(ctx context.Context, articleID string, input ArticleInput) (*domain.KBArticle, error) {
	art, err := s.kb.GetArticle(ctx, articleID)
	if err != nil {
		return nil, util.MapError(err)
	}
	if title := strings.TrimSpace(input.Title); title != "" {
		art.Title = title
	}
	art.CategoryID = input.CategoryID
	art.Excerpt = strings.TrimSpace(input.Excerpt)
	art.Content = input.Content
	art.IsFeatured = input.IsFeatured
	if err := s.kb.UpdateArticle(ctx, art); err != nil {
		return nil, util.MapError(err)
	}
	return art, nil
}

// GetArticle fetches one article. Unpublished articles are hidden from
// non-staff callers.
func (s *KBService) GetArticle(ctx context.Context, actor Actor, articleID string) (*domain.KBArticle, error) {
	art, err := s.kb.GetArticle(ctx, articleID)
	if err != nil {
		return nil, util.MapError(err)
	}
	if !art.IsPublished && !actor.IsStaff() {
		return nil, util.NewNotFound("article", nil)
	}
	return art, nil
}

// ListArticles pages articles. Non-staff callers only see published
// articles no matter what the filter asks for.
func (s *KBService) ListArticles(ctx context.Context, actor Actor, filter repository.KBFilter) ([]domain.KBArticle, error) {
	if !actor.IsStaff() {
		filter.PublishedOnly = true
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 25
	}
	articles, err := s.kb.ListArticles(ctx, filter)
	if err != nil {
		return nil, util.MapError(err)
	}
	return articles, nil
}

// SetPublished flips the publish state.
func (s *KBService) SetPublished(ctx context.Context, articleID string, published bool) error {
	if _, err := s.kb.GetArticle(ctx, articleID); err != nil {
		return util.MapError(err)
	}
	if err := s.kb.SetPublished(ctx, articleID, published); err != nil {
		return util.MapError(err)
	}
	return nil
}

// DeleteArticle removes an article.
func (s *KBService) DeleteArticle(ctx context.Context, articleID string) error {
	if err := s.kb.DeleteArticle(ctx, articleID); err != nil {
		return util.MapError(err)
	}
	return nil
}

// FindSimilar runs the duplicate-detection heuristic: the title is
// tokenized and any published article whose title contains one of the
// tokens counts as a candidate, capped at five. Recall-biased; an empty
// token set short-circuits to no matches.
func (s *KBService) FindSimilar(ctx context.Context, title string) ([]domain.KBArticle, error) {
	tokens := domain.SimilarityTokens(title)
	if len(tokens) == 0 {
		return []domain.KBArticle{}, nil
	}
	articles, err := s.kb.FindByTitleTokens(ctx, tokens, similarArticleLimit)
	if err != nil {
		return nil, util.MapError(err)
	}
	return articles, nil
}

// RenderHTML converts article markdown to sanitized HTML.
func (s *KBService) RenderHTML(content string) (string, error) {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(content), &buf); err != nil {
		return "", util.NewInternalError(err)
	}
	return s.policy.Sanitize(buf.String()), nil
}

// DraftFromTicket proposes an article from a resolved ticket's thread.
func (s *KBService) DraftFromTicket(ctx context.Context, ticketID string) (*drafting.DraftSuggestion, error) {
	if s.drafter == nil {
		return nil, util.NewValidationError("drafting is not configured", nil)
	}

	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return nil, util.MapError(err)
	}
	if !ticket.Status.IsTerminal() {
		return nil, util.NewValidationError("ticket must be resolved before drafting", map[string]any{"status": ticket.Status})
	}

	msgs, err := s.messages.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, util.MapError(err)
	}
	bodies := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m.IsInternal {
			continue
		}
		bodies = append(bodies, m.Body)
	}

	var category *string
	if ticket.Category != "" {
		category = &ticket.Category
	}
	suggestion, err := s.drafter.DraftArticle(ctx, drafting.TicketContext{
		Title:      ticket.Title,
		Category:   category,
		Resolution: ticket.Description,
		Messages:   bodies,
	})
	if err != nil {
		return nil, err
	}
	return suggestion, nil
}
