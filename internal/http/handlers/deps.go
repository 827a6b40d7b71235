package handlers

import (
	"shopkeep/internal/config"
	"shopkeep/internal/repos"
	"shopkeep/internal/services"
	"shopkeep/internal/storage"

	"github.com/jmoiron/sqlx"
)

type Deps struct {
	ProductHandler *ProductHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, media *storage.MediaStore) *Deps {
	prodRepo := repos.NewProductRepo()

	catalogSvc := services.NewCatalogService(db, prodRepo)
	writeSvc := services.NewProductService(db, prodRepo, media)

	return &Deps{
		ProductHandler: &ProductHandler{
			Catalog:       catalogSvc,
			Writer:        writeSvc,
			MaxImageBytes: cfg.MaxImageBytes,
		},
	}
}
