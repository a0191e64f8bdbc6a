package repository

import "context"

// TenderCountRow conteo de licitaciones por estado y tipo de adquisición.
type TenderCountRow struct {
	State           string
	AcquisitionType string
	Count           int
}

// TenderAcquisitionRow acumulados de adquisición por licitación.
type TenderAcquisitionRow struct {
	TenderID         string
	AcquisitionType  string
	Items            int
	ConfirmedItems   int
	QuantityReceived int64
}

// StatsRepository consultas read-only para el tablero de conciliación.
type StatsRepository interface {
	TenderCounts(ctx context.Context) ([]TenderCountRow, error)
	AcquisitionTotals(ctx context.Context) ([]TenderAcquisitionRow, error)
}
