package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestRequestID(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID())
	engine.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetRequestID(c)) })

	t.Run("generates an id", func(t *testing.T) {
		w := serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
		id := w.Header().Get(RequestIDHeader)
		assert.Len(t, id, 36)
		assert.Equal(t, id, w.Body.String())
	})

	t.Run("keeps the client id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "batch-42")
		w := serve(engine, req)
		assert.Equal(t, "batch-42", w.Body.String())
	})

	t.Run("replaces an oversized id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, strings.Repeat("x", MaxRequestIDLength+1))
		w := serve(engine, req)
		assert.Len(t, w.Body.String(), 36)
	})
}

func TestActor(t *testing.T) {
	engine := gin.New()
	engine.Use(Actor())
	var got shared.Actor
	engine.GET("/", func(c *gin.Context) {
		got = GetActor(c)
		c.Status(http.StatusNoContent)
	})

	t.Run("reads the headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(ActorNameHeader, "  Ana Souza ")
		req.Header.Set(ActorEmailHeader, "ana@example.com")
		req.Header.Set(ActorRoleHeader, "finance")
		serve(engine, req)
		assert.Equal(t, shared.Actor{Name: "Ana Souza", Email: "ana@example.com", Role: "finance"}, got)
	})

	t.Run("falls back to the system actor", func(t *testing.T) {
		serve(engine, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, shared.SystemActor.Name, got.Name)
	})

	t.Run("truncates long names by rune", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(ActorNameHeader, strings.Repeat("é", 250))
		serve(engine, req)
		assert.Equal(t, 200, len([]rune(got.Name)))
	})
}

func TestGetActor_WithoutMiddleware(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, shared.SystemActor, GetActor(c))
}

func TestCORSWithConfig(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowOrigins = []string{"https://ledger.example.com"}
	engine := gin.New()
	engine.Use(CORSWithConfig(cfg))
	engine.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://ledger.example.com")
		w := serve(engine, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://ledger.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
		assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), ActorNameHeader)
	})

	t.Run("foreign origin gets no headers", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		w := serve(engine, req)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("preflight", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/", nil)
		req.Header.Set("Origin", "https://ledger.example.com")
		w := serve(engine, req)
		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Equal(t, "43200", w.Header().Get("Access-Control-Max-Age"))
	})
}

func TestBodyLimit(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID(), BodyLimit(16))
	engine.POST("/", func(c *gin.Context) {
		var body map[string]any
		if err := c.ShouldBindJSON(&body); err != nil {
			c.Status(http.StatusBadRequest)
			return
		}
		c.Status(http.StatusOK)
	})

	t.Run("within limit", func(t *testing.T) {
		w := serve(engine, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":1}`)))
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("declared length over limit", func(t *testing.T) {
		w := serve(engine, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"0123456789abcdef"}`)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, w.Body.String(), "ERR_REQUEST_TOO_LARGE")
	})

	t.Run("streamed body is cut", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"a":"0123456789abcdef"}`))
		req.ContentLength = -1
		w := serve(engine, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestTimeout(t *testing.T) {
	engine := gin.New()
	engine.Use(Timeout(10 * time.Millisecond))
	engine.GET("/slow", func(c *gin.Context) {
		<-c.Request.Context().Done()
	})
	engine.GET("/fast", func(c *gin.Context) {
		_, ok := c.Request.Context().Deadline()
		assert.True(t, ok)
		c.Status(http.StatusOK)
	})

	w := serve(engine, httptest.NewRequest(http.MethodGet, "/slow", nil))
	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "ERR_TIMEOUT")

	w = serve(engine, httptest.NewRequest(http.MethodGet, "/fast", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

type settleRequest struct {
	Counterparty string   `json:"counterparty" binding:"required"`
	RecordIDs    []string `json:"record_ids" binding:"required,min=1"`
	Frequency    string   `json:"frequency" binding:"oneof=WEEKLY MONTHLY"`
}

func TestValidationDetails(t *testing.T) {
	SetupValidator()
	engine := gin.New()
	var details []string
	engine.POST("/", func(c *gin.Context) {
		var req settleRequest
		err := c.ShouldBindJSON(&req)
		require.Error(t, err)
		for _, d := range ValidationDetails(err) {
			details = append(details, d.Field+": "+d.Message)
		}
		c.Status(http.StatusBadRequest)
	})

	serve(engine, httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"record_ids":[],"frequency":"DAILY"}`)))

	assert.Equal(t, []string{
		"counterparty: This field is required",
		"record_ids: Must contain at least 1 items",
		"frequency: Must be one of: WEEKLY MONTHLY",
	}, details)
	assert.Nil(t, ValidationDetails(assert.AnError))
}
