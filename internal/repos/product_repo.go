package repos

import (
	"shopkeep/internal/domain"

	"github.com/jmoiron/sqlx"
)

// ProductRepo methods accept an sqlx.Ext so callers can run them on the
// bare DB or inside a Transact block.
type ProductRepo struct{}

func NewProductRepo() *ProductRepo { return &ProductRepo{} }

const productCols = `
  id, name, slug, price, description, image_path,
  created_at, COALESCE(updated_at,'') AS updated_at`

// ExistsSlug reports whether a slug is taken by any product other than
// excludeID. Pass "" on creation.
func (r *ProductRepo) ExistsSlug(q sqlx.Ext, slug, excludeID string) (bool, error) {
	var n int
	err := sqlx.Get(q, &n, `SELECT COUNT(*) FROM products WHERE slug = ? AND id != ?`, slug, excludeID)
	return n > 0, err
}

func (r *ProductRepo) Insert(q sqlx.Ext, p domain.Product) error {
	_, err := q.Exec(`
  INSERT INTO products(id, name, slug, price, description, image_path)
  VALUES(?,?,?,?,?,?)
`, p.ID, p.Name, p.Slug, p.Price, p.Description, p.ImagePath)
	return err
}

func (r *ProductRepo) Update(q sqlx.Ext, p domain.Product) error {
	_, err := q.Exec(`
  UPDATE products
  SET name = ?, slug = ?, price = ?, description = ?, image_path = ?,
      updated_at = CURRENT_TIMESTAMP
  WHERE id = ?
`, p.Name, p.Slug, p.Price, p.Description, p.ImagePath, p.ID)
	return err
}

func (r *ProductRepo) Delete(q sqlx.Ext, id string) error {
	_, err := q.Exec(`DELETE FROM products WHERE id = ?`, id)
	return err
}

func (r *ProductRepo) Get(q sqlx.Ext, id string) (domain.Product, error) {
	var p domain.Product
	err := sqlx.Get(q, &p, `SELECT `+productCols+` FROM products WHERE id = ?`, id)
	return p, err
}

// GetBySlugOrID resolves a route key: slug match wins, id is the fallback
// so old links that carried the raw id keep working.
func (r *ProductRepo) GetBySlugOrID(q sqlx.Ext, key string) (domain.Product, error) {
	var p domain.Product
	err := sqlx.Get(q, &p, `
  SELECT `+productCols+`
  FROM products
  WHERE slug = ? OR id = ?
  ORDER BY slug = ? DESC
  LIMIT 1
`, key, key, key)
	return p, err
}

// ListLatest returns newest-first pages. rowid breaks created_at ties
// (CURRENT_TIMESTAMP has second precision).
func (r *ProductRepo) ListLatest(q sqlx.Ext, limit, offset int) ([]domain.Product, error) {
	var out []domain.Product
	err := sqlx.Select(q, &out, `
  SELECT `+productCols+`
  FROM products
  ORDER BY created_at DESC, rowid DESC
  LIMIT ? OFFSET ?
`, limit, offset)
	return out, err
}

func (r *ProductRepo) Count(q sqlx.Ext) (int, error) {
	var n int
	err := sqlx.Get(q, &n, `SELECT COUNT(*) FROM products`)
	return n, err
}
