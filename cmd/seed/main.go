// seed crea productos de demostración y registra su stock inicial a través de
// los repositorios reales, para levantar un entorno de desarrollo utilizable.
//
// Uso: go run ./cmd/seed
// Requiere DATABASE_URL o las variables DB_* (ver pkg/config).
package main

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/sportstore-backend/internal/application/dto"
	"github.com/jhoicas/sportstore-backend/internal/application/stock"
	"github.com/jhoicas/sportstore-backend/internal/domain/entity"
	"github.com/jhoicas/sportstore-backend/internal/domain/valueobject"
	"github.com/jhoicas/sportstore-backend/internal/infrastructure/kafka"
	"github.com/jhoicas/sportstore-backend/internal/infrastructure/postgres"
	"github.com/jhoicas/sportstore-backend/pkg/config"
	"github.com/jhoicas/sportstore-backend/pkg/logger"
)

// actor registrado en los movimientos de stock del seed.
const seedUserID = "seed"

type seedProduct struct {
	sku         string
	name        string
	description string
	price       string
	openingQty  int
}

var seedProducts = []seedProduct{
	{"TEN-001", "Tênis de Corrida Veloce", "Tênis leve para corrida de rua", "399.90", 25},
	{"CAM-010", "Camisa Oficial Thunder FC", "Camisa oficial temporada 2026", "249.90", 40},
	{"BOL-003", "Bola de Futebol Pro Match", "Bola tamanho oficial, costura termossoldada", "179.90", 30},
	{"MOC-021", "Mochila Esportiva 30L", "Mochila com compartimento para chuteira", "149.90", 15},
	{"GAR-005", "Garrafa Térmica 1L", "Garrafa inox com isolamento a vácuo", "89.90", 60},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: "info", Service: cfg.App.Name})

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	publisher := kafka.NewPublisher(cfg.Kafka, log)
	defer publisher.Close()

	productRepo := postgres.NewProductRepository(pool)
	movRepo := postgres.NewStockMovementRepository(pool)
	stockUC := stock.NewStockUseCase(productRepo, movRepo, publisher, log)

	now := time.Now().UTC()
	for _, sp := range seedProducts {
		price, err := valueobject.NewMoneyFromString(sp.price)
		if err != nil {
			log.Fatal().Err(err).Str("sku", sp.sku).Msg("precio de seed inválido")
		}
		product := &entity.Product{
			ID:          uuid.New().String(),
			SKU:         sp.sku,
			Name:        sp.name,
			Description: sp.description,
			Price:       price,
			Active:      true,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := productRepo.Create(product); err != nil {
			// SKU duplicado: el seed ya corrió antes, se omite el producto.
			log.Warn().Err(err).Str("sku", sp.sku).Msg("producto omitido")
			continue
		}
		if _, err := stockUC.RegisterEntry(ctx, seedUserID, dto.RegisterEntryInput{
			ProductID: product.ID,
			Quantity:  sp.openingQty,
			Reference: "SEED-" + sp.sku,
			Notes:     "Stock inicial de demostración",
		}); err != nil {
			log.Fatal().Err(err).Str("sku", sp.sku).Msg("registrar stock inicial")
		}
		log.Info().Str("sku", sp.sku).Str("product_id", product.ID).Int("qty", sp.openingQty).Msg("producto creado")
	}

	log.Info().Msg("seed completado")
}
