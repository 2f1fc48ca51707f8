package dto

// EventoTecla is one key press forwarded by the terminal. Tecla follows the
// browser KeyboardEvent.key naming ("A", "7", "Enter", "Shift", ...).
type EventoTecla struct {
	Tecla string `json:"tecla" validate:"required"`
	TsMs  int64  `json:"ts_ms" validate:"min=0"` // epoch milliseconds
}

type ProcesarTeclasRequest struct {
	Eventos []EventoTecla `json:"eventos" validate:"required,min=1,dive"`
}

// EscaneoResponse: Producto is nil when Encontrado is false so the terminal
// can offer a quick-create with Codigo prefilled.
type EscaneoResponse struct {
	Codigo     string            `json:"codigo"`
	Encontrado bool              `json:"encontrado"`
	Producto   *ProductoResponse `json:"producto"`
}

// ProcesarTeclasResponse.Suprimir holds the indexes of events whose default
// action (form submit on Enter) the terminal must cancel.
type ProcesarTeclasResponse struct {
	Escaneos []EscaneoResponse `json:"escaneos"`
	Suprimir []int             `json:"suprimir"`
}
