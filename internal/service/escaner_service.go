package service

import (
	"context"
	"errors"
	"sync"

	"github.com/darielruizg/Puntodeventa/internal/dto"
	"github.com/darielruizg/Puntodeventa/internal/metrics"
	"github.com/darielruizg/Puntodeventa/internal/scanner"
)

// EscanerService feeds terminal key presses to one shared classifier and
// resolves every completed code against the catalog.
type EscanerService interface {
	Procesar(ctx context.Context, eventos []scanner.KeyEvent) (*dto.ProcesarTeclasResponse, error)
}

type escanerService struct {
	mu         sync.Mutex
	clasif     *scanner.Classifier
	inventario InventarioService
	m          *metrics.Metrics
}

func NewEscanerService(cfg scanner.Config, inventario InventarioService, m *metrics.Metrics) EscanerService {
	return &escanerService{
		clasif:     scanner.New(cfg),
		inventario: inventario,
		m:          m,
	}
}

// Procesar keeps classifier state across calls, so a burst split over two
// requests still forms one code. A code with no product is returned with
// Encontrado=false rather than as an error.
func (s *escanerService) Procesar(ctx context.Context, eventos []scanner.KeyEvent) (*dto.ProcesarTeclasResponse, error) {
	type emitido struct {
		codigo string
		idx    int
	}
	var codigos []emitido

	s.mu.Lock()
	for i, ev := range eventos {
		if code, ok := s.clasif.Feed(ev); ok {
			codigos = append(codigos, emitido{codigo: code, idx: i})
		}
	}
	s.mu.Unlock()

	resp := &dto.ProcesarTeclasResponse{
		Escaneos: make([]dto.EscaneoResponse, 0, len(codigos)),
		Suprimir: make([]int, 0, len(codigos)),
	}
	for _, c := range codigos {
		resp.Suprimir = append(resp.Suprimir, c.idx)
		p, err := s.inventario.BuscarPorCodigo(ctx, c.codigo)
		switch {
		case errors.Is(err, ErrNoEncontrado):
			s.m.RecordEscaneo("no_encontrado")
			resp.Escaneos = append(resp.Escaneos, dto.EscaneoResponse{Codigo: c.codigo})
		case err != nil:
			return nil, err
		default:
			s.m.RecordEscaneo("encontrado")
			resp.Escaneos = append(resp.Escaneos, dto.EscaneoResponse{Codigo: c.codigo, Encontrado: true, Producto: p})
		}
	}
	return resp, nil
}
