package service

import (
	"context"

	"newsdesk/internal/models"
	"newsdesk/internal/repository"
)

// articleRepoStub is a stub for repository.ArticleRepository.
type articleRepoStub struct {
	createFn  func(context.Context, *models.Article) error
	getByIDFn func(context.Context, uint) (*models.Article, error)
	listFn    func(context.Context, repository.ArticleListFilter) ([]*models.Article, error)
	updateFn  func(context.Context, *models.Article) error
	deleteFn  func(context.Context, uint) error
}

func (s *articleRepoStub) Create(ctx context.Context, a *models.Article) error {
	return s.createFn(ctx, a)
}
func (s *articleRepoStub) GetByID(ctx context.Context, id uint) (*models.Article, error) {
	return s.getByIDFn(ctx, id)
}
func (s *articleRepoStub) List(ctx context.Context, f repository.ArticleListFilter) ([]*models.Article, error) {
	return s.listFn(ctx, f)
}
func (s *articleRepoStub) Update(ctx context.Context, a *models.Article) error {
	return s.updateFn(ctx, a)
}
func (s *articleRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

// publishedArticleRepo serves every id as a published article unless overridden.
func publishedArticleRepo() *articleRepoStub {
	return &articleRepoStub{
		createFn: func(_ context.Context, _ *models.Article) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Article, error) {
			return &models.Article{ID: id, Title: "Published", IsPublished: true}, nil
		},
		listFn:   func(_ context.Context, _ repository.ArticleListFilter) ([]*models.Article, error) { return nil, nil },
		updateFn: func(_ context.Context, _ *models.Article) error { return nil },
		deleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn  func(context.Context, *models.Comment) error
	getByIDFn func(context.Context, uint) (*models.Comment, error)
	listFn    func(context.Context, repository.CommentListFilter) ([]*models.Comment, error)
	updateFn  func(context.Context, *models.Comment) error
	deleteFn  func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByArticle(ctx context.Context, f repository.CommentListFilter) ([]*models.Comment, error) {
	return s.listFn(ctx, f)
}
func (s *commentRepoStub) Update(ctx context.Context, c *models.Comment) error {
	return s.updateFn(ctx, c)
}
func (s *commentRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:  func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Comment, error) { return &models.Comment{ID: id}, nil },
		listFn:    func(_ context.Context, _ repository.CommentListFilter) ([]*models.Comment, error) { return nil, nil },
		updateFn:  func(_ context.Context, _ *models.Comment) error { return nil },
		deleteFn:  func(_ context.Context, _ uint) error { return nil },
	}
}

// blockRepoStub is a stub for repository.BlockRepository.
type blockRepoStub struct {
	listFn       func(context.Context, uint) ([]models.Block, error)
	getByIDFn    func(context.Context, uint) (*models.Block, error)
	createNextFn func(context.Context, *models.Block) error
	updateFn     func(context.Context, *models.Block) error
	deleteFn     func(context.Context, uint) error
}

func (s *blockRepoStub) ListByArticle(ctx context.Context, articleID uint) ([]models.Block, error) {
	return s.listFn(ctx, articleID)
}
func (s *blockRepoStub) GetByID(ctx context.Context, id uint) (*models.Block, error) {
	return s.getByIDFn(ctx, id)
}
func (s *blockRepoStub) CreateNext(ctx context.Context, b *models.Block) error {
	return s.createNextFn(ctx, b)
}
func (s *blockRepoStub) Update(ctx context.Context, b *models.Block) error {
	return s.updateFn(ctx, b)
}
func (s *blockRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopBlockRepo() *blockRepoStub {
	return &blockRepoStub{
		listFn:       func(_ context.Context, _ uint) ([]models.Block, error) { return nil, nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.Block, error) { return &models.Block{ID: id, ArticleID: 1}, nil },
		createNextFn: func(_ context.Context, _ *models.Block) error { return nil },
		updateFn:     func(_ context.Context, _ *models.Block) error { return nil },
		deleteFn:     func(_ context.Context, _ uint) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	users    map[uint]*models.User
	upserts  int
	getErr   error
	setAdmin func(context.Context, uint, bool) error
}

func newUserRepoStub(users ...*models.User) *userRepoStub {
	s := &userRepoStub{users: map[uint]*models.User{}}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *userRepoStub) Upsert(_ context.Context, u *models.User) error {
	s.upserts++
	if existing, ok := s.users[u.ID]; ok {
		existing.Username = u.Username
		return nil
	}
	cp := *u
	s.users[u.ID] = &cp
	return nil
}
func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	u, ok := s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	cp := *u
	return &cp, nil
}
func (s *userRepoStub) SetAdmin(ctx context.Context, id uint, admin bool) error {
	if s.setAdmin != nil {
		return s.setAdmin(ctx, id, admin)
	}
	u, ok := s.users[id]
	if !ok {
		return models.NewNotFoundError("User", id)
	}
	u.IsAdmin = admin
	return nil
}
func (s *userRepoStub) ListAdmins(_ context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range s.users {
		if u.IsAdmin {
			out = append(out, *u)
		}
	}
	return out, nil
}
