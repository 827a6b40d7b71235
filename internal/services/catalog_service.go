package services

import (
	"shopkeep/internal/domain"
	"shopkeep/internal/repos"

	"github.com/jmoiron/sqlx"
)

// Page describes one slice of the catalog listing.
type Page struct {
	Number  int
	Size    int
	Total   int
	Pages   int
	Prev    int
	Next    int
	HasPrev bool
	HasNext bool
}

type CatalogService struct {
	DB       *sqlx.DB
	Products *repos.ProductRepo
}

func NewCatalogService(db *sqlx.DB, products *repos.ProductRepo) *CatalogService {
	return &CatalogService{DB: db, Products: products}
}

// List returns newest-first products. perPage is clamped to [1,100] with a
// default of 20; page floors at 1.
func (s *CatalogService) List(page, perPage int) ([]domain.Product, Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}

	total, err := s.Products.Count(s.DB)
	if err != nil {
		return nil, Page{}, err
	}

	offset := (page - 1) * perPage
	items, err := s.Products.ListLatest(s.DB, perPage, offset)
	if err != nil {
		return nil, Page{}, err
	}

	pages := (total + perPage - 1) / perPage
	pg := Page{
		Number:  page,
		Size:    perPage,
		Total:   total,
		Pages:   pages,
		Prev:    page - 1,
		Next:    page + 1,
		HasPrev: page > 1,
		HasNext: page < pages,
	}
	return items, pg, nil
}

// Find resolves a product by slug, falling back to its id.
func (s *CatalogService) Find(key string) (domain.Product, error) {
	return s.Products.GetBySlugOrID(s.DB, key)
}
