package services

import (
	"fmt"
	"mime/multipart"

	"shopkeep/internal/domain"
	"shopkeep/internal/repos"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

// mediaNamespace is the subdirectory product images are stored under.
const mediaNamespace = "products"

// ImageStore is the file side of the write path. The disk implementation
// lives in internal/storage; tests may substitute their own.
type ImageStore interface {
	Store(fh *multipart.FileHeader, namespace string) (string, error)
	Delete(ref string) error
	Exists(ref string) bool
}

// ProductInput carries pre-validated form fields into the write service.
// A nil Description clears the stored one; a nil Image means "no change"
// on update and "no image" on create.
type ProductInput struct {
	Name        string
	Price       decimal.Decimal
	Description *string
	Image       *multipart.FileHeader
}

// ProductService owns the product write path: slug assignment, image
// lifecycle, and atomic persistence.
type ProductService struct {
	DB       *sqlx.DB
	Products *repos.ProductRepo
	Images   ImageStore

	// Suffix overrides the slug collision suffix source; nil uses the
	// time-ordered default.
	Suffix func() string
}

func NewProductService(db *sqlx.DB, products *repos.ProductRepo, images ImageStore) *ProductService {
	return &ProductService{DB: db, Products: products, Images: images}
}

// Create inserts a new product. The slug is derived from the name and
// disambiguated once on collision. If persistence fails after the image
// was stored, the stored file is deleted before the error surfaces; the
// file store and the database share no transaction, so this compensating
// delete is the only cross-system cleanup.
func (s *ProductService) Create(in ProductInput) (domain.Product, error) {
	var created domain.Product
	err := repos.Transact(s.DB, func(tx *sqlx.Tx) error {
		slug, err := s.uniqueSlug(tx, in.Name, "")
		if err != nil {
			return err
		}

		var imagePath *string
		if in.Image != nil {
			ref, err := s.Images.Store(in.Image, mediaNamespace)
			if err != nil {
				return fmt.Errorf("image upload failed: %w", err)
			}
			imagePath = &ref
		}

		p := domain.Product{
			ID:          uuid.NewString(),
			Name:        in.Name,
			Slug:        slug,
			Price:       in.Price.Round(2),
			Description: in.Description,
			ImagePath:   imagePath,
		}
		if err := s.Products.Insert(tx, p); err != nil {
			if imagePath != nil && s.Images.Exists(*imagePath) {
				_ = s.Images.Delete(*imagePath)
			}
			return fmt.Errorf("product creation failed: %w", err)
		}

		created, err = s.Products.Get(tx, p.ID)
		return err
	})
	return created, err
}

// Update applies name/price/description, recomputes the slug only when the
// name changed (the product's own slug never conflicts with itself), and
// swaps the stored image when a new upload is present: new file stored
// first, then the old one deleted.
//
// Unlike Create, a failing save does not remove a just-stored new image;
// that asymmetry is inherited behavior, kept on purpose.
func (s *ProductService) Update(existing domain.Product, in ProductInput) (domain.Product, error) {
	updated := existing
	err := repos.Transact(s.DB, func(tx *sqlx.Tx) error {
		if in.Name != existing.Name {
			slug, err := s.uniqueSlug(tx, in.Name, existing.ID)
			if err != nil {
				return err
			}
			updated.Slug = slug
		}

		if in.Image != nil {
			ref, err := s.Images.Store(in.Image, mediaNamespace)
			if err != nil {
				return fmt.Errorf("image upload failed: %w", err)
			}
			if existing.ImagePath != nil && *existing.ImagePath != "" {
				_ = s.Images.Delete(*existing.ImagePath)
			}
			updated.ImagePath = &ref
		}

		updated.Name = in.Name
		updated.Price = in.Price.Round(2)
		updated.Description = in.Description

		if err := s.Products.Update(tx, updated); err != nil {
			return fmt.Errorf("product update failed: %w", err)
		}

		var err error
		updated, err = s.Products.Get(tx, existing.ID)
		return err
	})
	return updated, err
}

// Delete hard-deletes the row. The stored image file is intentionally left
// behind, matching the rest of the catalog's file lifecycle.
func (s *ProductService) Delete(existing domain.Product) error {
	return repos.Transact(s.DB, func(tx *sqlx.Tx) error {
		return s.Products.Delete(tx, existing.ID)
	})
}

// uniqueSlug derives the slug and resolves at most one collision by
// appending a suffix. Races past the existence check are left to the
// unique index on products(slug).
func (s *ProductService) uniqueSlug(q sqlx.Ext, name, excludeID string) (string, error) {
	slug := Slugify(name)
	taken, err := s.Products.ExistsSlug(q, slug, excludeID)
	if err != nil {
		return "", err
	}
	if taken {
		suffix := s.Suffix
		if suffix == nil {
			suffix = slugSuffix
		}
		slug = slug + "-" + suffix()
	}
	return slug, nil
}
