package dto

import "github.com/shopspring/decimal"

// AcquisitionSummaryItem registro con su varianza y pendiente.
type AcquisitionSummaryItem struct {
	AcquisitionRecordResponse
	OutstandingQuantity int64 `json:"outstanding_quantity"`
}

// TenderAcquisitionSummary respuesta de GET /api/tenders/:id/acquisition-summary.
type TenderAcquisitionSummary struct {
	TenderID              string                   `json:"tender_id"`
	ReferenceNumber       string                   `json:"reference_number"`
	State                 string                   `json:"lifecycle_state"`
	Items                 []AcquisitionSummaryItem `json:"items"`
	TotalItems            int                      `json:"total_items"`
	ConfirmedItems        int                      `json:"confirmed_items"`
	PricingCompletionRate decimal.Decimal          `json:"pricing_completion_rate"`
	EstimatedValue        decimal.Decimal          `json:"estimated_value"`
	ActualValue           decimal.Decimal          `json:"actual_value"`
	AveragePriceVariance  *decimal.Decimal         `json:"average_price_variance"`
	TotalOrdered          int64                    `json:"total_ordered"`
	TotalReceived         int64                    `json:"total_received"`
}

// AcquisitionTypeBreakdown licitaciones por tipo de adquisición.
type AcquisitionTypeBreakdown struct {
	AcquisitionType  string `json:"acquisition_type"`
	Tenders          int    `json:"tenders"`
	TotalItems       int    `json:"total_items"`
	QuantityReceived int64  `json:"quantity_received"`
}

// DashboardSummaryDTO respuesta de GET /api/dashboard/summary.
type DashboardSummaryDTO struct {
	TotalTenders          int                        `json:"total_tenders"`
	TendersByState        map[string]int             `json:"tenders_by_state"`
	TendersWithRecords    int                        `json:"tenders_with_acquisition_records"`
	TendersWithoutRecords int                        `json:"tenders_without_acquisition_records"`
	FullyPricedTenders    int                        `json:"fully_priced_tenders"`
	TotalItems            int                        `json:"total_items"`
	ConfirmedItems        int                        `json:"confirmed_items"`
	TotalQuantityReceived int64                      `json:"total_quantity_received"`
	OverallCompletionRate decimal.Decimal            `json:"overall_completion_rate"`
	ByAcquisitionType     []AcquisitionTypeBreakdown `json:"by_acquisition_type"`
	StockStatusCounts     map[string]int             `json:"stock_status_counts"`
	OverReservedItems     int                        `json:"over_reserved_items"`
}
