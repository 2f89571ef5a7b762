package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/opsdeck/support-portal/internal/domain"
	"github.com/opsdeck/support-portal/internal/drafting"
	"github.com/opsdeck/support-portal/internal/repository"
)

type mockKBRepo struct {
	mock.Mock
}

func (m *mockKBRepo) ListCategories(ctx context.Context) ([]domain.KBCategory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.KBCategory), args.Error(1)
}

func (m *mockKBRepo) CreateCategory(ctx context.Context, cat *domain.KBCategory) error {
	args := m.Called(ctx, cat)
	return args.Error(0)
}

func (m *mockKBRepo) CreateArticle(ctx context.Context, art *domain.KBArticle) error {
	args := m.Called(ctx, art)
	return args.Error(0)
}

func (m *mockKBRepo) UpdateArticle(ctx context.Context, art *domain.KBArticle) error {
	args := m.Called(ctx, art)
	return args.Error(0)
}

func (m *mockKBRepo) GetArticle(ctx context.Context, id string) (*domain.KBArticle, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.KBArticle), args.Error(1)
}

func (m *mockKBRepo) ListArticles(ctx context.Context, filter repository.KBFilter) ([]domain.KBArticle, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.KBArticle), args.Error(1)
}

func (m *mockKBRepo) SetPublished(ctx context.Context, id string, published bool) error {
	args := m.Called(ctx, id, published)
	return args.Error(0)
}

func (m *mockKBRepo) DeleteArticle(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockKBRepo) FindByTitleTokens(ctx context.Context, tokens []string, limit int) ([]domain.KBArticle, error) {
	args := m.Called(ctx, tokens, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.KBArticle), args.Error(1)
}

// captureDrafter returns a canned suggestion and records the context it
// was asked to draft from.
type captureDrafter struct {
	got        *drafting.TicketContext
	suggestion *drafting.DraftSuggestion
	err        error
}

func (d *captureDrafter) DraftArticle(_ context.Context, tc drafting.TicketContext) (*drafting.DraftSuggestion, error) {
	d.got = &tc
	return d.suggestion, d.err
}

func newKBFixture(drafter drafting.Drafter) (*KBService, *mockKBRepo, *mockTicketRepo, *mockMessageRepo) {
	kb := new(mockKBRepo)
	tickets := new(mockTicketRepo)
	messages := new(mockMessageRepo)
	return NewKBService(kb, tickets, messages, drafter), kb, tickets, messages
}

func TestFindSimilar(t *testing.T) {
	ctx := context.Background()

	t.Run("tokens drive the substring search", func(t *testing.T) {
		svc, kb, _, _ := newKBFixture(nil)
		kb.On("FindByTitleTokens", ctx, []string{"fixing", "mobile", "display"}, 5).
			Return([]domain.KBArticle{{ID: "a1", Title: "Mobile rendering quirks"}}, nil)

		articles, err := svc.FindSimilar(ctx, "Fixing Mobile Display Issues")
		require.NoError(t, err)
		require.Len(t, articles, 1)
		assert.Equal(t, "a1", articles[0].ID)
	})

	t.Run("an existing article matches its own title", func(t *testing.T) {
		svc, kb, _, _ := newKBFixture(nil)
		existing := domain.KBArticle{ID: "a1", Title: "Resetting your password"}
		kb.On("FindByTitleTokens", ctx, []string{"resetting", "password"}, 5).
			Return([]domain.KBArticle{existing}, nil)

		articles, err := svc.FindSimilar(ctx, "Resetting your password")
		require.NoError(t, err)
		require.Len(t, articles, 1)
		assert.Equal(t, existing.ID, articles[0].ID)
	})

	t.Run("all-stopword title short-circuits", func(t *testing.T) {
		svc, kb, _, _ := newKBFixture(nil)

		articles, err := svc.FindSimilar(ctx, "how can you")
		require.NoError(t, err)
		assert.Empty(t, articles)
		kb.AssertNotCalled(t, "FindByTitleTokens", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGetArticleVisibility(t *testing.T) {
	ctx := context.Background()

	t.Run("unpublished articles are hidden from clients", func(t *testing.T) {
		svc, kb, _, _ := newKBFixture(nil)
		kb.On("GetArticle", ctx, "a1").Return(&domain.KBArticle{ID: "a1", IsPublished: false}, nil)

		_, err := svc.GetArticle(ctx, clientActor("org-a"), "a1")
		assertCode(t, err, "NOT_FOUND")
	})

	t.Run("staff see drafts", func(t *testing.T) {
		svc, kb, _, _ := newKBFixture(nil)
		kb.On("GetArticle", ctx, "a1").Return(&domain.KBArticle{ID: "a1", IsPublished: false}, nil)

		art, err := svc.GetArticle(ctx, supportActor(), "a1")
		require.NoError(t, err)
		assert.Equal(t, "a1", art.ID)
	})
}

func TestListArticlesForcesPublishedForClients(t *testing.T) {
	ctx := context.Background()
	svc, kb, _, _ := newKBFixture(nil)
	kb.On("ListArticles", ctx, mock.MatchedBy(func(f repository.KBFilter) bool {
		return f.PublishedOnly
	})).Return([]domain.KBArticle{}, nil)

	_, err := svc.ListArticles(ctx, clientActor("org-a"), repository.KBFilter{PublishedOnly: false})
	require.NoError(t, err)
	kb.AssertExpectations(t)
}

func TestRenderHTML(t *testing.T) {
	svc, _, _, _ := newKBFixture(nil)

	t.Run("markdown renders", func(t *testing.T) {
		html, err := svc.RenderHTML("# Heading\n\nSome **bold** text.")
		require.NoError(t, err)
		assert.Contains(t, html, "<h1")
		assert.Contains(t, html, "<strong>bold</strong>")
	})

	t.Run("scripts are stripped", func(t *testing.T) {
		html, err := svc.RenderHTML("hello <script>alert(1)</script> world")
		require.NoError(t, err)
		assert.NotContains(t, html, "<script>")
	})
}

func TestDraftFromTicket(t *testing.T) {
	ctx := context.Background()

	t.Run("requires a configured drafter", func(t *testing.T) {
		svc, _, _, _ := newKBFixture(nil)
		_, err := svc.DraftFromTicket(ctx, "t1")
		assertCode(t, err, "VALIDATION_FAILED")
	})

	t.Run("only terminal tickets can be drafted from", func(t *testing.T) {
		drafter := &captureDrafter{}
		svc, _, tickets, _ := newKBFixture(drafter)
		tickets.On("GetByID", ctx, "t1").Return(&domain.Ticket{ID: "t1", Status: domain.TicketStatusOpen}, nil)

		_, err := svc.DraftFromTicket(ctx, "t1")
		assertCode(t, err, "VALIDATION_FAILED")
		assert.Nil(t, drafter.got)
	})

	t.Run("internal notes never reach the drafter", func(t *testing.T) {
		drafter := &captureDrafter{suggestion: &drafting.DraftSuggestion{
			Title: "Importer recovery", Excerpt: "short", Content: "long",
		}}
		svc, _, tickets, messages := newKBFixture(drafter)
		tickets.On("GetByID", ctx, "t1").Return(&domain.Ticket{
			ID: "t1", Title: "Importer down", Status: domain.TicketStatusResolved, Category: "imports",
		}, nil)
		messages.On("ListByTicket", ctx, "t1").Return([]domain.TicketMessage{
			{Body: "public reply"},
			{Body: "internal grumbling", IsInternal: true},
			{Body: "resolution steps"},
		}, nil)

		suggestion, err := svc.DraftFromTicket(ctx, "t1")
		require.NoError(t, err)
		assert.Equal(t, "Importer recovery", suggestion.Title)

		require.NotNil(t, drafter.got)
		assert.Equal(t, []string{"public reply", "resolution steps"}, drafter.got.Messages)
		require.NotNil(t, drafter.got.Category)
		assert.Equal(t, "imports", *drafter.got.Category)
	})
}
