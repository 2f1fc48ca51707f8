// cmd/importar — carga masiva de un catalogo CSV/XLSX en el almacen
// configurado, con las mismas reglas que POST /v1/productos/importar.
// Uso: go run ./cmd/importar -archivo catalogo.xlsx [-exportar salida.csv]
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/darielruizg/Puntodeventa/internal/config"
	"github.com/darielruizg/Puntodeventa/internal/infra"
	"github.com/darielruizg/Puntodeventa/internal/planilla"
	"github.com/darielruizg/Puntodeventa/internal/repository"
	"github.com/darielruizg/Puntodeventa/internal/service"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	archivo := flag.String("archivo", "", "planilla .csv o .xlsx a importar")
	exportar := flag.String("exportar", "", "escribe el inventario resultante en este archivo (.csv o .xlsx)")
	flag.Parse()
	if *archivo == "" && *exportar == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	dsn := cfg.SQLitePath
	if cfg.StoreDriver == "postgres" {
		dsn = cfg.DatabaseURL
	}
	db, err := infra.NewDatabase(cfg.StoreDriver, dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable: cached lookups will not be invalidated")
		rdb = nil
	}

	svc := service.NewInventarioService(
		repository.NewProductoRepository(db),
		repository.NewMovimientoStockRepository(db),
		rdb, nil, nil, cfg.UmbralReposicion,
	)
	ctx := context.Background()

	if *archivo != "" {
		if err := importar(ctx, svc, *archivo); err != nil {
			log.Fatal().Err(err).Str("archivo", *archivo).Msg("importacion fallida")
		}
	}
	if *exportar != "" {
		if err := exportarA(ctx, svc, *exportar); err != nil {
			log.Fatal().Err(err).Str("archivo", *exportar).Msg("exportacion fallida")
		}
	}
}

func importar(ctx context.Context, svc service.InventarioService, ruta string) error {
	formato, err := planilla.ParseFormato(ruta)
	if err != nil {
		return err
	}
	f, err := os.Open(ruta)
	if err != nil {
		return err
	}
	defer f.Close()

	recs, err := planilla.Leer(f, formato)
	if err != nil {
		return err
	}
	if len(recs) == 0 {
		log.Warn().Msg("no se encontraron filas validas")
		return nil
	}
	res, err := svc.ImportarMasivo(ctx, recs)
	if err != nil {
		return err
	}
	log.Info().Int("creados", res.Creados).Int("actualizados", res.Actualizados).Msg("importacion completa")
	return nil
}

func exportarA(ctx context.Context, svc service.InventarioService, ruta string) error {
	formato, err := planilla.ParseFormato(ruta)
	if err != nil {
		return err
	}
	recs, err := svc.Exportar(ctx)
	if err != nil {
		return err
	}
	f, err := os.Create(ruta)
	if err != nil {
		return err
	}
	if err := planilla.Escribir(f, formato, recs); err != nil {
		f.Close()
		return err
	}
	log.Info().Int("productos", len(recs)).Str("archivo", ruta).Msg("exportacion completa")
	return f.Close()
}
