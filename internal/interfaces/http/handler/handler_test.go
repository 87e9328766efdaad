package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	financeapp "github.com/erp/ledger/internal/application/finance"
	"github.com/erp/ledger/internal/domain/finance"
	csvimport "github.com/erp/ledger/internal/infrastructure/import"
	"github.com/erp/ledger/internal/infrastructure/persistence"
	"github.com/erp/ledger/internal/infrastructure/persistence/models"
	"github.com/erp/ledger/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

type apiError struct {
	Code      string          `json:"code"`
	Message   string          `json:"message"`
	RequestID string          `json:"request_id"`
	Details   json.RawMessage `json:"details"`
}

type apiMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalPages int   `json:"total_pages"`
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *apiError       `json:"error"`
	Meta    *apiMeta        `json:"meta"`
}

type testServer struct {
	engine  *gin.Engine
	records *persistence.GormLedgerRecordRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	records := persistence.NewGormLedgerRecordRepository(db)
	mappings := persistence.NewGormCategoryMappingRepository(db)
	settlements := persistence.NewGormSettlementRepository(db)
	audit := persistence.NewGormAuditLogRepository(db)

	clock := func() time.Time { return time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC) }
	opts := []financeapp.Option{financeapp.WithClock(clock), financeapp.WithAuditLog(audit)}

	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Actor())
	api := engine.Group("/api/v1")
	NewLedgerHandler(csvimport.NewImporter(),
		financeapp.NewStagingService(records),
		financeapp.NewCommitService(records, 2, 1, opts...)).RegisterRoutes(api)
	NewCategoryHandler(financeapp.NewCategoryService(mappings, records, opts...)).RegisterRoutes(api)
	NewReportHandler(financeapp.NewReportService(records, mappings, opts...),
		financeapp.NewDebtorService(records, opts...)).RegisterRoutes(api)
	NewSettlementHandler(financeapp.NewSettlementService(settlements, records, opts...)).RegisterRoutes(api)
	NewAuditHandler(financeapp.NewAuditService(audit)).RegisterRoutes(api)

	return &testServer{engine: engine, records: records}
}

func (s *testServer) do(t *testing.T, method, path, contentType string, body io.Reader) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set(middleware.ActorNameHeader, "ana")
	req.Header.Set(middleware.ActorRoleHeader, "finance")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func (s *testServer) doJSON(t *testing.T, method, path string, payload any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	return s.do(t, method, path, "application/json", body)
}

func decodeData[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func seedReceivables(t *testing.T, s *testServer, recs ...finance.LedgerRecord) {
	t.Helper()
	for i := range recs {
		require.NoError(t, recs[i].Normalize())
	}
	require.NoError(t, s.records.UpsertBatch(context.Background(), finance.VariantReceivable, recs))
}

func receivable(id, client, due, balance string) finance.LedgerRecord {
	d, err := time.Parse(time.DateOnly, due)
	if err != nil {
		panic(err)
	}
	return finance.LedgerRecord{
		ID:                 id,
		Variant:            finance.VariantReceivable,
		CounterpartyName:   client,
		DueDate:            d,
		FaceAmount:         decimal.RequireFromString(balance),
		OutstandingBalance: decimal.RequireFromString(balance),
		Status:             string(finance.StatusOpen),
		Category:           "Vendas",
		PaymentMethod:      finance.PaymentMethodBoleto,
	}
}

func stagedItems(t *testing.T, env envelope) []finance.StagedItem {
	t.Helper()
	var staged struct {
		Items []finance.StagedItem `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &staged))
	return staged.Items
}
