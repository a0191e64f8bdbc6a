package dto

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// PageRequest paginación de listados (limit/offset en query string).
type PageRequest struct {
	Limit  int `query:"limit"`
	Offset int `query:"offset"`
}

// DefaultPage normaliza la página: limit fuera de (0, 100] pasa a 20, offset negativo a 0.
func (p *PageRequest) DefaultPage() {
	if p.Limit <= 0 || p.Limit > maxPageSize {
		p.Limit = defaultPageSize
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
}

// PageResponse metadatos de la página devuelta.
type PageResponse struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
	// Returned cantidad de elementos en esta página.
	Returned int `json:"returned"`
}

// ErrorResponse cuerpo de error HTTP. Code es estable (NOT_FOUND, OVER_DELIVERY, ...).
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
