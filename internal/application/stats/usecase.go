// Package stats calcula los indicadores de conciliación a partir de las proyecciones.
// Es de solo lectura.
package stats

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/procurement-api/internal/application/acquisition"
	"github.com/jhoicas/procurement-api/internal/application/dto"
	"github.com/jhoicas/procurement-api/internal/application/ports"
	"github.com/jhoicas/procurement-api/internal/domain"
	pricing "github.com/jhoicas/procurement-api/internal/domain/acquisition"
	"github.com/jhoicas/procurement-api/internal/domain/entity"
	"github.com/jhoicas/procurement-api/internal/domain/inventory"
	"github.com/jhoicas/procurement-api/internal/domain/repository"
	"github.com/jhoicas/procurement-api/internal/observability/metrics"
)

// ReconciliationUseCase resumen por licitación y tablero general.
type ReconciliationUseCase struct {
	tenders repository.TenderRepository
	records repository.AcquisitionRepository
	stock   repository.StockRepository
	stats   repository.StatsRepository
}

// NewReconciliationUseCase construye el caso de uso con repositorios del pool.
func NewReconciliationUseCase(repos ports.Repositories) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		tenders: repos.Tenders,
		records: repos.Acquisitions,
		stock:   repos.Stock,
		stats:   repos.Stats,
	}
}

// GetTenderAcquisitionSummary ítems con varianza y pendiente, tasa de confirmación y valores.
func (uc *ReconciliationUseCase) GetTenderAcquisitionSummary(ctx context.Context, tenderID string) (*dto.TenderAcquisitionSummary, error) {
	t, err := uc.tenders.GetByID(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, domain.NotFound("tender", tenderID)
	}
	records, err := uc.records.ListByTender(ctx, tenderID)
	if err != nil {
		return nil, fmt.Errorf("summary: registros: %w", err)
	}

	out := &dto.TenderAcquisitionSummary{
		TenderID:        t.ID,
		ReferenceNumber: t.ReferenceNumber,
		State:           t.State,
		Items:           make([]dto.AcquisitionSummaryItem, 0, len(records)),
		TotalItems:      len(records),
	}
	for _, rec := range records {
		if rec.PricingConfirmed {
			out.ConfirmedItems++
		}
		out.TotalOrdered += rec.OrderedQuantity
		out.TotalReceived += rec.TotalQuantityReceived
		out.Items = append(out.Items, dto.AcquisitionSummaryItem{
			AcquisitionRecordResponse: *acquisition.ToRecordResponse(rec),
			OutstandingQuantity:       rec.Outstanding(),
		})
	}
	out.PricingCompletionRate = pricing.CompletionRate(out.ConfirmedItems, out.TotalItems)
	out.EstimatedValue, out.ActualValue = pricing.Values(records)
	out.AveragePriceVariance = pricing.AverageVariance(records)
	return out, nil
}

// GetDashboard agrega conteos de licitaciones, acumulados de adquisición y estado del stock.
//
// Tres lecturas en paralelo:
//  1. TenderCounts       → por estado y tipo
//  2. AcquisitionTotals  → ítems, confirmados y recibido por licitación
//  3. Stock.List         → conteo por StockStatus
func (uc *ReconciliationUseCase) GetDashboard(ctx context.Context) (*dto.DashboardSummaryDTO, error) {
	start := time.Now()
	defer func() { metrics.ObserveDashboard(time.Since(start)) }()

	// ── Goroutines para paralelizar las consultas ─────────────────────────────
	type countsResult struct {
		rows []repository.TenderCountRow
		err  error
	}
	type totalsResult struct {
		rows []repository.TenderAcquisitionRow
		err  error
	}
	type stockResult struct {
		list []*entity.CurrentStock
		err  error
	}

	countsCh := make(chan countsResult, 1)
	totalsCh := make(chan totalsResult, 1)
	stockCh := make(chan stockResult, 1)

	go func() {
		rows, err := uc.stats.TenderCounts(ctx)
		countsCh <- countsResult{rows, err}
	}()
	go func() {
		rows, err := uc.stats.AcquisitionTotals(ctx)
		totalsCh <- totalsResult{rows, err}
	}()
	go func() {
		list, err := uc.stock.List(ctx)
		stockCh <- stockResult{list, err}
	}()

	counts := <-countsCh
	totals := <-totalsCh
	stock := <-stockCh

	if counts.err != nil {
		return nil, fmt.Errorf("dashboard: conteo de licitaciones: %w", counts.err)
	}
	if totals.err != nil {
		return nil, fmt.Errorf("dashboard: acumulados de adquisición: %w", totals.err)
	}
	if stock.err != nil {
		return nil, fmt.Errorf("dashboard: stock: %w", stock.err)
	}

	// ── Licitaciones ──────────────────────────────────────────────────────────
	out := &dto.DashboardSummaryDTO{
		TendersByState: map[string]int{
			entity.TenderStateDraft:     0,
			entity.TenderStatePublished: 0,
			entity.TenderStateFinalized: 0,
		},
		StockStatusCounts: map[string]int{
			entity.StockStatusOutOfStock:   0,
			entity.StockStatusReorderNow:   0,
			entity.StockStatusBelowMinimum: 0,
			entity.StockStatusAboveMaximum: 0,
			entity.StockStatusNormal:       0,
		},
	}
	byType := make(map[string]*dto.AcquisitionTypeBreakdown)
	breakdown := func(kind string) *dto.AcquisitionTypeBreakdown {
		if kind == "" {
			kind = entity.AcquisitionTypeContract
		}
		b, ok := byType[kind]
		if !ok {
			b = &dto.AcquisitionTypeBreakdown{AcquisitionType: kind}
			byType[kind] = b
		}
		return b
	}
	for _, row := range counts.rows {
		out.TotalTenders += row.Count
		out.TendersByState[row.State] += row.Count
		breakdown(row.AcquisitionType).Tenders += row.Count
	}

	// ── Adquisición ───────────────────────────────────────────────────────────
	for _, row := range totals.rows {
		out.TendersWithRecords++
		if row.Items > 0 && row.ConfirmedItems == row.Items {
			out.FullyPricedTenders++
		}
		out.TotalItems += row.Items
		out.ConfirmedItems += row.ConfirmedItems
		out.TotalQuantityReceived += row.QuantityReceived
		b := breakdown(row.AcquisitionType)
		b.TotalItems += row.Items
		b.QuantityReceived += row.QuantityReceived
	}
	out.TendersWithoutRecords = out.TotalTenders - out.TendersWithRecords
	if out.TendersWithoutRecords < 0 {
		out.TendersWithoutRecords = 0
	}
	out.OverallCompletionRate = pricing.CompletionRate(out.ConfirmedItems, out.TotalItems)

	out.ByAcquisitionType = make([]dto.AcquisitionTypeBreakdown, 0, len(byType))
	for _, b := range byType {
		out.ByAcquisitionType = append(out.ByAcquisitionType, *b)
	}
	sort.Slice(out.ByAcquisitionType, func(i, j int) bool {
		return out.ByAcquisitionType[i].AcquisitionType < out.ByAcquisitionType[j].AcquisitionType
	})

	// ── Stock ─────────────────────────────────────────────────────────────────
	for _, s := range stock.list {
		out.StockStatusCounts[inventory.StatusOf(s)]++
		if s.OverReserved() {
			out.OverReservedItems++
		}
	}
	return out, nil
}
