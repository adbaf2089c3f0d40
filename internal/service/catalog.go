package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/cursos-bot/internal/model"
)

// DefaultVisitCounter задаёт имя счётчика посещений главной страницы.
const DefaultVisitCounter = "home"

// CatalogRepository описывает хранилище каталога и счётчиков посещений.
type CatalogRepository interface {
	CreateCollection(ctx context.Context, c *model.Collection) error
	ListCollections(ctx context.Context) ([]model.Collection, error)
	AddItem(ctx context.Context, it *model.Item) error
	DeleteItem(ctx context.Context, id string) error
	IncrementVisits(ctx context.Context, name string) (int64, error)
	GetVisits(ctx context.Context, name string) (int64, error)
}

// ItemInput содержит данные нового товара.
type ItemInput struct {
	Name        string
	Description string
	Price       *decimal.Decimal
	Image       string
}

// Catalog управляет коллекциями товаров и счётчиком посещений.
type Catalog struct {
	repo  CatalogRepository
	newID func() string
}

// NewCatalog создаёт сервис каталога.
func NewCatalog(repo CatalogRepository) *Catalog {
	return &Catalog{repo: repo, newID: uuid.NewString}
}

// CreateCollection создаёт пустую коллекцию.
func (s *Catalog) CreateCollection(ctx context.Context, name string) (*model.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, invalid("nombre", "required")
	}

	c := &model.Collection{ID: s.newID(), Name: name, Items: []model.Item{}}
	if err := s.repo.CreateCollection(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Collections возвращает каталог целиком.
func (s *Catalog) Collections(ctx context.Context) ([]model.Collection, error) {
	res, err := s.repo.ListCollections(ctx)
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = []model.Collection{}
	}
	return res, nil
}

// AddItem добавляет товар в коллекцию.
func (s *Catalog) AddItem(ctx context.Context, collectionID string, in ItemInput) (*model.Item, error) {
	it := &model.Item{
		ID:           s.newID(),
		CollectionID: collectionID,
		Name:         strings.TrimSpace(in.Name),
		Description:  strings.TrimSpace(in.Description),
		Image:        strings.TrimSpace(in.Image),
	}

	if it.Name == "" {
		return nil, invalid("nombre", "required")
	}
	if verr := checkPrice(in.Price); verr != nil {
		return nil, verr
	}
	it.Price = *in.Price

	if err := s.repo.AddItem(ctx, it); err != nil {
		return nil, err
	}
	return it, nil
}

// DeleteItem удаляет товар.
func (s *Catalog) DeleteItem(ctx context.Context, id string) error {
	return s.repo.DeleteItem(ctx, id)
}

// RecordVisit увеличивает счётчик посещений.
func (s *Catalog) RecordVisit(ctx context.Context, name string) (int64, error) {
	return s.repo.IncrementVisits(ctx, visitCounter(name))
}

// Visits возвращает значение счётчика посещений.
func (s *Catalog) Visits(ctx context.Context, name string) (int64, error) {
	return s.repo.GetVisits(ctx, visitCounter(name))
}

func visitCounter(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return DefaultVisitCounter
	}
	return name
}
