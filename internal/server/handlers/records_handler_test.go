package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/piggerypro/piggery/internal/domain/models"
	"github.com/piggerypro/piggery/internal/server/handlers"
	"github.com/piggerypro/piggery/internal/server/router"
	"github.com/piggerypro/piggery/internal/service/ledger"
	syncsvc "github.com/piggerypro/piggery/internal/service/sync"
	"github.com/piggerypro/piggery/pkg/clients/googledrive"
	"github.com/piggerypro/piggery/pkg/clients/identity"
)

type memCreds struct {
	clientID string
}

func (m *memCreds) SaveCredential(_ context.Context, clientID string) error {
	m.clientID = clientID
	return nil
}

func (m *memCreds) LoadCredential(_ context.Context) (string, error) {
	return m.clientID, nil
}

func newTestServer(initial models.Snapshot) (*gin.Engine, *ledger.Service) {
	led := ledger.NewService(initial, nil, nil)
	sync := syncsvc.NewService(&memCreds{},
		func(string) identity.Client { return nil },
		func(context.Context, string) (googledrive.Client, error) { return nil, nil },
		nil)
	r := router.New(handlers.NewRecordsHandler(led, nil), handlers.NewSyncHandler(sync, led, nil), nil)
	return r, led
}

func do(t *testing.T, r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body == "" {
		reader = bytes.NewReader(nil)
	} else {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreatePigs_BatchSuffixesTags(t *testing.T) {
	r, _ := newTestServer(models.EmptySnapshot())

	w := do(t, r, http.MethodPost, "/api/pigs",
		`{"tagId":"P-100","dateOfBirth":"2026-01-15","initialWeight":6.5,"quantity":3}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Pigs []models.Pig `json:"pigs"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Pigs) != 3 {
		t.Fatalf("created %d pigs, want 3", len(resp.Pigs))
	}
	if resp.Pigs[0].TagID != "P-100-1" || resp.Pigs[2].TagID != "P-100-3" {
		t.Fatalf("unexpected tags: %q, %q", resp.Pigs[0].TagID, resp.Pigs[2].TagID)
	}
	if resp.Pigs[0].Status != models.StatusRaising {
		t.Fatalf("status = %q, want RAISING", resp.Pigs[0].Status)
	}
}

func TestCreateSale_UnknownPigIs404(t *testing.T) {
	r, _ := newTestServer(models.EmptySnapshot())

	w := do(t, r, http.MethodPost, "/api/sales",
		`{"pigId":"nope","saleDate":"2026-08-01","saleWeight":90,"salePricePerKg":180}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404; body = %s", w.Code, w.Body.String())
	}
}

func TestCreateSale_SecondSaleIs409(t *testing.T) {
	snapshot := models.EmptySnapshot()
	snapshot.Pigs = []models.Pig{{ID: "p1", TagID: "P-1", Status: models.StatusRaising}}
	r, _ := newTestServer(snapshot)

	first := do(t, r, http.MethodPost, "/api/sales",
		`{"pigId":"p1","saleDate":"2026-08-01","saleWeight":90,"salePricePerKg":180}`)
	if first.Code != http.StatusCreated {
		t.Fatalf("first sale status = %d, body = %s", first.Code, first.Body.String())
	}

	second := do(t, r, http.MethodPost, "/api/sales",
		`{"pigId":"p1","saleDate":"2026-08-02","saleWeight":91,"salePricePerKg":180}`)
	if second.Code != http.StatusConflict {
		t.Fatalf("second sale status = %d, want 409; body = %s", second.Code, second.Body.String())
	}
}

func TestCreateBulkSale_DistributesShares(t *testing.T) {
	snapshot := models.EmptySnapshot()
	snapshot.Pigs = []models.Pig{
		{ID: "p1", TagID: "P-1", Status: models.StatusRaising},
		{ID: "p2", TagID: "P-2", Status: models.StatusRaising},
	}
	r, led := newTestServer(snapshot)

	w := do(t, r, http.MethodPost, "/api/sales/bulk",
		`{"pigIds":["p1","p2"],"totalRevenue":3000,"totalWeight":150,"saleDate":"2026-08-10"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Sales []models.SaleRecord `json:"sales"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Sales) != 2 {
		t.Fatalf("created %d sales, want 2", len(resp.Sales))
	}
	for _, sale := range resp.Sales {
		if sale.TotalRevenue != 1500 || sale.SaleWeightKg != 75 || sale.SalePricePerKg != 20 {
			t.Fatalf("unexpected share: %+v", sale)
		}
	}
	for _, pig := range led.Current().Pigs {
		if pig.Status != models.StatusSold {
			t.Fatalf("pig %s status = %q, want SOLD", pig.ID, pig.Status)
		}
	}
}

func TestDeleteSale_MissingPigIDIs400(t *testing.T) {
	r, _ := newTestServer(models.EmptySnapshot())

	w := do(t, r, http.MethodDelete, "/api/sales/s1", "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestDashboard_ReportsDerivedTotals(t *testing.T) {
	snapshot := models.EmptySnapshot()
	snapshot.Pigs = []models.Pig{
		{ID: "p1", TagID: "P-1", Status: models.StatusSold, PurchaseCost: 1000},
		{ID: "p2", TagID: "P-2", Status: models.StatusRaising, PurchaseCost: 1000},
	}
	snapshot.SaleRecords = []models.SaleRecord{
		{ID: "s1", PigID: "p1", SaleDate: "2026-08-01", TotalRevenue: 5000},
	}
	r, _ := newTestServer(snapshot)

	w := do(t, r, http.MethodGet, "/api/dashboard", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var stats models.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &stats); err != nil {
		t.Fatalf("decode stats: %v", err)
	}
	if stats.TotalPigs != 2 || stats.ActivePigs != 1 || stats.SoldPigs != 1 {
		t.Fatalf("herd counts wrong: %+v", stats)
	}
	if stats.TotalRevenue != 5000 || stats.NetProfit != 3000 {
		t.Fatalf("financials wrong: %+v", stats)
	}
}

func TestImport_MalformedPayloadIs400(t *testing.T) {
	snapshot := models.EmptySnapshot()
	snapshot.Pigs = []models.Pig{{ID: "p1", TagID: "P-1", Status: models.StatusRaising}}
	r, led := newTestServer(snapshot)

	w := do(t, r, http.MethodPost, "/api/import", `[1,2,3]`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", w.Code, w.Body.String())
	}
	if len(led.Current().Pigs) != 1 {
		t.Fatal("malformed import must leave data untouched")
	}
}

func TestImport_NullPayloadIs400(t *testing.T) {
	snapshot := models.EmptySnapshot()
	snapshot.Pigs = []models.Pig{{ID: "p1", TagID: "P-1", Status: models.StatusRaising}}
	r, led := newTestServer(snapshot)

	w := do(t, r, http.MethodPost, "/api/import", `null`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400; body = %s", w.Code, w.Body.String())
	}
	if len(led.Current().Pigs) != 1 {
		t.Fatal("null import must leave data untouched")
	}
}

func TestImport_OversizePayloadIs413(t *testing.T) {
	snapshot := models.EmptySnapshot()
	snapshot.Pigs = []models.Pig{{ID: "p1", TagID: "P-1", Status: models.StatusRaising}}
	r, led := newTestServer(snapshot)

	oversize := `{"pigs":[],"notes":"` + strings.Repeat("x", 8<<20) + `"}`
	w := do(t, r, http.MethodPost, "/api/import", oversize)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413", w.Code)
	}
	if len(led.Current().Pigs) != 1 {
		t.Fatal("oversize import must leave data untouched")
	}
}

func TestExport_ServesAttachment(t *testing.T) {
	r, _ := newTestServer(models.EmptySnapshot())

	w := do(t, r, http.MethodGet, "/api/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	disposition := w.Header().Get("Content-Disposition")
	if !strings.HasPrefix(disposition, "attachment;") || !strings.Contains(disposition, "piggery-data-") {
		t.Fatalf("Content-Disposition = %q", disposition)
	}
}

func TestSyncStatus_UnconfiguredCredential(t *testing.T) {
	r, _ := newTestServer(models.EmptySnapshot())

	w := do(t, r, http.MethodGet, "/api/sync/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var status syncsvc.Status
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.State != syncsvc.StateUnauthenticated || status.CredentialConfigured {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestSyncSave_UnauthenticatedIs401(t *testing.T) {
	r, _ := newTestServer(models.EmptySnapshot())

	w := do(t, r, http.MethodPost, "/api/sync/save", "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401; body = %s", w.Code, w.Body.String())
	}
}

func TestPutCredential_ReflectsInStatus(t *testing.T) {
	r, _ := newTestServer(models.EmptySnapshot())

	w := do(t, r, http.MethodPut, "/api/sync/credential",
		`{"clientId":"1234567890-abc.apps.googleusercontent.com"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	status := do(t, r, http.MethodGet, "/api/sync/status", "")
	var got syncsvc.Status
	if err := json.Unmarshal(status.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !got.CredentialConfigured {
		t.Fatal("credential should be reported configured after PUT")
	}
}
