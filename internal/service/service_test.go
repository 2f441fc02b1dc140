package service

import (
	"context"
	"sync"
	"testing"

	"go-catalog-api/internal/model"
	"go-catalog-api/internal/repository"
	"go-catalog-api/pkg/config"
	"go-catalog-api/pkg/database/databasetest"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const actor = "tester"

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
}

func (p *recordingPublisher) Publish(e Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

type testEnv struct {
	ctx context.Context
	db  *gorm.DB

	attributeRepo repository.AttributeRepository
	categoryRepo  repository.CategoryRepository
	itemRepo      repository.ItemRepository
	userRepo      repository.UserRepository

	integrity  *IntegrityCoordinator
	resolver   *FilterResolver
	attributes AttributeService
	categories CategoryService
	items      ItemService
	users      UserService
	dashboard  DashboardService
	events     *recordingPublisher
}

func newTestEnv(t *testing.T, orphanPolicy string) *testEnv {
	t.Helper()

	db := databasetest.NewTestDB(t)
	log := zaptest.NewLogger(t)
	events := &recordingPublisher{}

	env := &testEnv{
		ctx:           context.Background(),
		db:            db,
		attributeRepo: repository.NewAttributeRepo(db),
		categoryRepo:  repository.NewCategoryRepo(db),
		itemRepo:      repository.NewItemRepo(db),
		userRepo:      repository.NewUserRepo(db),
		events:        events,
	}
	env.integrity = NewIntegrityCoordinator(db, env.attributeRepo, env.categoryRepo, env.itemRepo, orphanPolicy, log)
	env.resolver = NewFilterResolver(env.categoryRepo, env.attributeRepo, env.itemRepo)
	env.attributes = NewAttributeService(env.attributeRepo, env.categoryRepo, env.integrity, events, log)
	env.categories = NewCategoryService(db, env.categoryRepo, env.attributeRepo, env.itemRepo, env.integrity, events, log)
	env.items = NewItemService(db, env.itemRepo, env.categoryRepo, env.attributeRepo, env.resolver, events, log)
	env.users = NewUserService(env.userRepo, log)
	env.dashboard = NewDashboardService(env.categoryRepo, env.attributeRepo, env.itemRepo)
	return env
}

func newDefaultEnv(t *testing.T) *testEnv {
	return newTestEnv(t, config.OrphanPolicyOther)
}

func strPtr(s string) *string { return &s }

func (e *testEnv) attribute(t *testing.T, name string, options ...string) *model.Attribute {
	t.Helper()
	a, err := e.attributes.Create(e.ctx, &CreateAttributeRequest{Name: name, Options: options}, actor)
	require.NoError(t, err)
	return a
}

func (e *testEnv) category(t *testing.T, name string, parent *model.Category, attributes ...*model.Attribute) *model.Category {
	t.Helper()
	req := &CreateCategoryRequest{Name: name}
	if parent != nil {
		req.Parent = strPtr(parent.ID.String())
	}
	for _, a := range attributes {
		req.Attributes = append(req.Attributes, a.ID.String())
	}
	c, err := e.categories.Create(e.ctx, req, actor)
	require.NoError(t, err)
	return c
}

// value is a helper pair for item fixtures.
type value struct {
	attribute *model.Attribute
	value     string
}

func (e *testEnv) item(t *testing.T, name string, category *model.Category, values ...value) *model.Item {
	t.Helper()
	req := &CreateItemRequest{Name: name, Category: category.ID.String()}
	for _, v := range values {
		req.Attributes = append(req.Attributes, ItemAttributeInput{
			AttributeID: v.attribute.ID.String(),
			Value:       strPtr(v.value),
		})
	}
	item, err := e.items.Create(e.ctx, req, actor)
	require.NoError(t, err)
	return item
}
