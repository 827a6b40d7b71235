package handlers

import (
	"shopkeep/internal/domain"
	applog "shopkeep/internal/log"
	"shopkeep/internal/services"
	"shopkeep/internal/validate"

	"github.com/gofiber/fiber/v2"
)

type ProductHandler struct {
	Catalog       *services.CatalogService
	Writer        *services.ProductService
	MaxImageBytes int64
}

// GET /products
func (h *ProductHandler) Index(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	perPage := c.QueryInt("per_page", 20)

	products, pg, err := h.Catalog.List(page, perPage)
	if err != nil {
		applog.Error(c, "products.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load products"})
	}
	return render(c, "products", fiber.Map{"Products": products, "Page": pg})
}

// GET /products/:key
func (h *ProductHandler) Show(c *fiber.Ctx) error {
	p, ok := h.find(c)
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This product is no longer available"})
	}
	return render(c, "product", fiber.Map{"P": p})
}

// GET /products/new
func (h *ProductHandler) NewForm(c *fiber.Ctx) error {
	return render(c, "product_form", fiber.Map{"Errors": map[string]string{}, "Form": fiber.Map{}})
}

// POST /products
func (h *ProductHandler) Create(c *fiber.Ctx) error {
	in, errs := h.parseInput(c)
	if len(errs) > 0 {
		applog.Security(c, "products.create.invalid", map[string]any{"fields": errs})
		return c.Status(400).Render("product_form", formData(c, nil, errs))
	}

	p, err := h.Writer.Create(in)
	if err != nil {
		applog.Error(c, "products.create.fail", err, map[string]any{"name": in.Name})
		errs = map[string]string{"general": "Failed to create product. Please try again."}
		return c.Status(400).Render("product_form", formData(c, nil, errs))
	}

	applog.Audit(c, "products.create", map[string]any{"id": p.ID, "slug": p.Slug})
	return c.Redirect("/products/" + p.Slug)
}

// GET /products/:key/edit
func (h *ProductHandler) EditForm(c *fiber.Ctx) error {
	p, ok := h.find(c)
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This product is no longer available"})
	}
	return render(c, "product_form", fiber.Map{"Errors": map[string]string{}, "Product": p, "Form": fiber.Map{
		"Name":        p.Name,
		"Price":       p.PriceDisplay(),
		"Description": strOrEmpty(p.Description),
	}})
}

// POST /products/:key
func (h *ProductHandler) Update(c *fiber.Ctx) error {
	existing, ok := h.find(c)
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This product is no longer available"})
	}

	in, errs := h.parseInput(c)
	if len(errs) > 0 {
		applog.Security(c, "products.update.invalid", map[string]any{"fields": errs})
		return c.Status(400).Render("product_form", formData(c, &existing, errs))
	}

	p, err := h.Writer.Update(existing, in)
	if err != nil {
		applog.Error(c, "products.update.fail", err, map[string]any{"id": existing.ID})
		errs = map[string]string{"general": "Failed to update product. Please try again."}
		return c.Status(400).Render("product_form", formData(c, &existing, errs))
	}

	applog.Audit(c, "products.update", map[string]any{"id": p.ID, "slug": p.Slug})
	return c.Redirect("/products/" + p.Slug)
}

// POST /products/:key/delete
func (h *ProductHandler) Delete(c *fiber.Ctx) error {
	existing, ok := h.find(c)
	if !ok {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "This product is no longer available"})
	}

	if err := h.Writer.Delete(existing); err != nil {
		applog.Error(c, "products.delete.fail", err, map[string]any{"id": existing.ID})
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not delete product"})
	}

	applog.Audit(c, "products.delete", map[string]any{"id": existing.ID, "slug": existing.Slug})
	return c.Redirect("/products")
}

func (h *ProductHandler) find(c *fiber.Ctx) (domain.Product, bool) {
	key, ok := validate.Key(c.Params("key"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "product"})
		return domain.Product{}, false
	}
	p, err := h.Catalog.Find(key)
	if err != nil || p.ID == "" {
		return domain.Product{}, false
	}
	return p, true
}

// parseInput validates the multipart form into a write-service input.
// A missing image field is simply "no upload".
func (h *ProductHandler) parseInput(c *fiber.Ctx) (services.ProductInput, map[string]string) {
	errs := map[string]string{}
	var in services.ProductInput

	name, ok := validate.ProductName(c.FormValue("name"))
	if !ok {
		errs["name"] = "The product name is required and cannot exceed 255 characters."
	}
	in.Name = name

	price, ok := validate.Price(c.FormValue("price"))
	if !ok {
		errs["price"] = "The price must be a non-negative number with at most 2 decimal places."
	}
	in.Price = price

	in.Description = validate.Description(c.FormValue("description"))

	if fh, err := c.FormFile("image"); err == nil && fh != nil {
		if !validate.ImageUpload(fh, h.MaxImageBytes) {
			errs["image"] = "The image must be a jpg, jpeg, png or webp file within the size limit."
		} else {
			in.Image = fh
		}
	}

	return in, errs
}

// formData re-renders a failed form with the submitted values.
func formData(c *fiber.Ctx, p *domain.Product, errs map[string]string) fiber.Map {
	data := fiber.Map{
		"Errors": errs,
		"Form": fiber.Map{
			"Name":        c.FormValue("name"),
			"Price":       c.FormValue("price"),
			"Description": c.FormValue("description"),
		},
	}
	if p != nil {
		data["Product"] = *p
	}
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	if tok, _ := c.Locals("CSRFToken").(string); tok != "" {
		data["CSRFToken"] = tok
	} else {
		data["CSRFToken"] = c.Cookies("csrf_")
	}
	return data
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
