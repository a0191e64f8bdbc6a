package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/procurement-api/internal/application/dto"
	"github.com/jhoicas/procurement-api/internal/application/engine/enginetest"
	apphttp "github.com/jhoicas/procurement-api/internal/interfaces/http"
	"github.com/jhoicas/procurement-api/internal/observability/metrics"
	pkgjwt "github.com/jhoicas/procurement-api/pkg/jwt"
)

type apiClient struct {
	t   *testing.T
	app *fiber.App
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	metrics.Init()
	env := enginetest.New(t)
	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{Engine: env.Engine, JWTSecret: testJWTSecret})
	return &apiClient{t: t, app: app}
}

// do envía la petición con el rol indicado ("" = sin token) y decodifica la respuesta en out si no es nil.
func (a *apiClient) do(method, path, role string, body any, out any) int {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		req.Header.Set("Authorization", tokenForRole(a.t, role))
	}
	resp, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(a.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (a *apiClient) finalizedTender(items ...map[string]any) string {
	a.t.Helper()
	var created dto.TenderResponse
	status := a.do(http.MethodPost, "/api/tenders", pkgjwt.RoleCompras, map[string]any{
		"title":            "Insumos hospitalarios",
		"reference_number": "LIC-2024-001",
		"items":            items,
	}, &created)
	require.Equal(a.t, http.StatusCreated, status)
	assert.Equal(a.t, "Draft", created.State)

	var finalized dto.TenderResponse
	status = a.do(http.MethodPut, "/api/tenders/"+created.ID+"/finalize", pkgjwt.RoleCompras, nil, &finalized)
	require.Equal(a.t, http.StatusOK, status)
	assert.Equal(a.t, "Finalized", finalized.State)
	return created.ID
}

func item(id string, qty int64, price string) map[string]any {
	return map[string]any{"item_id": id, "quantity": qty, "estimated_unit_price": price}
}

func received(id string, good, damaged, rejected int64) map[string]any {
	return map[string]any{
		"items": []map[string]any{{
			"item_id":            id,
			"quantity_delivered": good + damaged + rejected,
			"quantity_good":      good,
			"quantity_damaged":   damaged,
			"quantity_rejected":  rejected,
		}},
	}
}

func TestAPI_FlujoCompleto(t *testing.T) {
	api := newAPI(t)
	tenderID := api.finalizedTender(item("A", 100, "10"))

	// Registros creados por la finalización
	var records []dto.AcquisitionRecordResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/tenders/"+tenderID+"/acquisitions", pkgjwt.RoleAuditor, nil, &records))
	require.Len(t, records, 1)

	var priced dto.AcquisitionRecordResponse
	status := api.do(http.MethodPut, "/api/acquisitions/"+records[0].ID+"/pricing", pkgjwt.RoleCompras,
		map[string]any{"actual_unit_price": "12", "remarks": "precio adjudicado"}, &priced)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, priced.PriceVariancePercent)
	assert.Equal(t, "20", priced.PriceVariancePercent.String())

	var d1 dto.DeliveryResponse
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/tenders/"+tenderID+"/deliveries", pkgjwt.RoleBodeguero, received("A", 60, 0, 0), &d1))
	assert.Equal(t, "Partial", d1.Status)
	assert.Equal(t, "DLV-0001", d1.DeliveryNumber)
	assert.Equal(t, testUserID, d1.ReceivedBy, "received_by por defecto es el usuario del token")

	var d2 dto.DeliveryResponse
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/tenders/"+tenderID+"/deliveries", pkgjwt.RoleBodeguero, received("A", 30, 0, 10), &d2))

	var stock dto.CurrentStockResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/stock/A", pkgjwt.RoleAuditor, nil, &stock))
	assert.Equal(t, int64(90), stock.CurrentQuantity)

	var summary dto.TenderAcquisitionSummary
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/tenders/"+tenderID+"/acquisition-summary", pkgjwt.RoleAuditor, nil, &summary))
	assert.Equal(t, int64(100), summary.TotalReceived)

	var dash dto.DashboardSummaryDTO
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/dashboard/summary", pkgjwt.RoleAuditor, nil, &dash))
	assert.Equal(t, 1, dash.TotalTenders)

	var got dto.DeliveryResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/deliveries/"+d1.ID, pkgjwt.RoleAuditor, nil, &got))
	assert.Equal(t, d1.ID, got.ID)

	var list []dto.DeliveryResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/tenders/"+tenderID+"/deliveries", pkgjwt.RoleAuditor, nil, &list))
	assert.Len(t, list, 2)
}

func TestAPI_MapeoDeErrores(t *testing.T) {
	api := newAPI(t)
	tenderID := api.finalizedTender(item("A", 10, "5"))

	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/tenders/"+tenderID+"/deliveries", pkgjwt.RoleBodeguero, received("A", 6, 0, 0), nil))

	cases := []struct {
		name   string
		method string
		path   string
		role   string
		body   any
		status int
		code   string
	}{
		{"sobre-entrega", http.MethodPost, "/api/tenders/" + tenderID + "/deliveries", pkgjwt.RoleBodeguero, received("A", 6, 0, 0), http.StatusUnprocessableEntity, "OVER_DELIVERY"},
		{"ítem desconocido", http.MethodPost, "/api/tenders/" + tenderID + "/deliveries", pkgjwt.RoleBodeguero, received("Z", 1, 0, 0), http.StatusUnprocessableEntity, "UNKNOWN_ACQUISITION_ITEM"},
		{"cantidades no cuadran", http.MethodPost, "/api/tenders/" + tenderID + "/deliveries", pkgjwt.RoleBodeguero,
			map[string]any{"items": []map[string]any{{"item_id": "A", "quantity_delivered": 3, "quantity_good": 1}}},
			http.StatusUnprocessableEntity, "QUANTITY_MISMATCH"},
		{"borrar finalizada", http.MethodDelete, "/api/tenders/" + tenderID, pkgjwt.RoleCompras, nil, http.StatusConflict, "IMMUTABLE"},
		{"publicar finalizada", http.MethodPut, "/api/tenders/" + tenderID + "/publish", pkgjwt.RoleCompras, nil, http.StatusConflict, "INVALID_STATE_TRANSITION"},
		{"licitación inexistente", http.MethodGet, "/api/tenders/no-existe", pkgjwt.RoleAuditor, nil, http.StatusNotFound, "NOT_FOUND"},
		{"registro inexistente", http.MethodPut, "/api/acquisitions/no-existe/pricing", pkgjwt.RoleCompras, map[string]any{"actual_unit_price": "1"}, http.StatusNotFound, "NOT_FOUND"},
		{"stock negativo", http.MethodPost, "/api/stock/A/adjustments", pkgjwt.RoleBodeguero, map[string]any{"delta": -100, "kind": "Issue"}, http.StatusUnprocessableEntity, "INSUFFICIENT_STOCK"},
		{"rol sin permiso", http.MethodPost, "/api/tenders/" + tenderID + "/deliveries", pkgjwt.RoleCompras, received("A", 1, 0, 0), http.StatusForbidden, "FORBIDDEN"},
		{"sin token", http.MethodGet, "/api/dashboard/summary", "", nil, http.StatusUnauthorized, "MISSING_TOKEN"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var e dto.ErrorResponse
			status := api.do(tc.method, tc.path, tc.role, tc.body, &e)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.code, e.Code)
		})
	}
}

func TestAPI_StockEscrituras(t *testing.T) {
	api := newAPI(t)

	var s dto.CurrentStockResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/api/stock/X/levels", pkgjwt.RoleBodeguero,
		map[string]any{"minimum_stock_level": 10, "maximum_stock_level": 100, "reorder_point": 20}, &s))
	assert.Equal(t, "OutOfStock", s.Status)

	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/stock/X/adjustments", pkgjwt.RoleBodeguero,
		map[string]any{"delta": 15, "kind": "Baseline", "idempotency_key": "carga-X"}, &s))
	assert.Equal(t, int64(15), s.CurrentQuantity)
	assert.Equal(t, "ReorderNow", s.Status)

	// Misma clave: no se vuelve a aplicar
	require.Equal(t, http.StatusCreated, api.do(http.MethodPost, "/api/stock/X/adjustments", pkgjwt.RoleBodeguero,
		map[string]any{"delta": 15, "kind": "Baseline", "idempotency_key": "carga-X"}, &s))
	assert.Equal(t, int64(15), s.CurrentQuantity)

	require.Equal(t, http.StatusOK, api.do(http.MethodPut, "/api/stock/X/reservation", pkgjwt.RoleBodeguero,
		map[string]any{"reserved_quantity": 20}, &s))
	assert.True(t, s.OverReserved)
	assert.Equal(t, int64(-5), s.AvailableQuantity)

	var alerts []dto.CurrentStockResponse
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/api/stock/alerts?status=ReorderNow", pkgjwt.RoleAuditor, nil, &alerts))
	require.Len(t, alerts, 1)
	assert.Equal(t, "X", alerts[0].ItemID)
}

func TestAPI_HealthYMetricas(t *testing.T) {
	api := newAPI(t)

	var health map[string]string
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/health", "", nil, &health))
	assert.Equal(t, "ok", health["status"])

	api.finalizedTender(item("A", 1, "1"))

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := api.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "procurement_tender_transitions_total")
}
