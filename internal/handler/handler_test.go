package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/xxxsen/common/webapi"

	"github.com/xxxsen/eventkb/internal/chunker"
	"github.com/xxxsen/eventkb/internal/handler"
	"github.com/xxxsen/eventkb/internal/middleware"
	"github.com/xxxsen/eventkb/internal/model"
	"github.com/xxxsen/eventkb/internal/pkg/errcode"
	"github.com/xxxsen/eventkb/internal/repo"
	"github.com/xxxsen/eventkb/internal/service"
	"github.com/xxxsen/eventkb/internal/vectorindex"
)

type textAcquirer struct{}

func (textAcquirer) Acquire(ctx context.Context, typ model.SourceType, content string) (string, error) {
	return content, nil
}

type unitEmbedder struct{}

func (unitEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return []float32{1, 0}, nil
}

func (unitEmbedder) ModelName() string {
	return "unit"
}

type echoGenerator struct{}

func (echoGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return "generated answer", nil
}

type envelope struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type testServer struct {
	router http.Handler
	ingest *service.IngestService
}

func setupServer(t *testing.T, rateLimit time.Duration) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sources := repo.NewMemorySourceRepo()
	index := vectorindex.NewMemoryIndex()
	sourceService := service.NewSourceService(sources)
	ingestService := service.NewIngestService(sources, textAcquirer{}, chunker.New(5, 20, nil), unitEmbedder{}, index, nil, 10)
	queryService := service.NewQueryService(
		service.NewRetriever(unitEmbedder{}, index),
		service.KeywordClassifier{},
		service.NewLLMCaller(echoGenerator{}, time.Second),
		3, 10,
	)
	deps := handler.RouterDeps{
		Sources:        handler.NewSourceHandler(sourceService),
		Query:          handler.NewQueryHandler(queryService),
		Health:         handler.NewHealthHandler(),
		QueryRateLimit: rateLimit,
	}
	engine, err := webapi.NewEngine(
		"/api/v1",
		"",
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.RequestID(),
			middleware.CORS(nil),
		),
	)
	require.NoError(t, err)
	return &testServer{router: engine, ingest: ingestService}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) envelope {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	s.router.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &env))
	return env
}

func TestHealth(t *testing.T) {
	s := setupServer(t, 0)
	env := s.do(t, http.MethodGet, "/api/v1/healthz", nil)
	var data map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, "ok", data["status"])
}

func TestSourceEndpoints(t *testing.T) {
	s := setupServer(t, 0)

	env := s.do(t, http.MethodPost, "/api/v1/events/ev1/sources", map[string]string{
		"title":   "Briefing",
		"content": "Water rights are contested.",
	})
	var created model.Source
	require.NoError(t, json.Unmarshal(env.Data, &created))
	require.Equal(t, "ev1", created.EventID)
	require.Equal(t, model.SourceStatusPending, created.Status)
	require.Equal(t, model.SourceTypeText, created.Type)

	env = s.do(t, http.MethodGet, "/api/v1/events/ev1/sources", nil)
	var list []model.Source
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)

	env = s.do(t, http.MethodGet, "/api/v1/sources/"+created.ID, nil)
	var got model.Source
	require.NoError(t, json.Unmarshal(env.Data, &got))
	require.Equal(t, created.ID, got.ID)

	env = s.do(t, http.MethodGet, "/api/v1/sources/missing", nil)
	require.Equal(t, errcode.ErrNotFound, env.Code)

	env = s.do(t, http.MethodPost, "/api/v1/events/ev1/sources", map[string]string{"title": "no content"})
	require.Equal(t, errcode.ErrInvalid, env.Code)
}

func TestQueryEndpoint(t *testing.T) {
	s := setupServer(t, 0)

	env := s.do(t, http.MethodPost, "/api/v1/query", map[string]interface{}{
		"event_id":   "ev1",
		"query_text": "What about water?",
	})
	require.Equal(t, errcode.ErrKnowledgeBaseNotFound, env.Code)
	require.Equal(t, "knowledge base for event 'ev1' not found", env.Msg)

	s.do(t, http.MethodPost, "/api/v1/events/ev1/sources", map[string]string{
		"title":   "Briefing",
		"content": "Water rights are contested.",
	})
	report, err := s.ingest.ProcessPending(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Completed)

	env = s.do(t, http.MethodPost, "/api/v1/query", map[string]interface{}{
		"event_id":         "ev1",
		"query_text":       "What about water?",
		"selected_sources": []string{},
	})
	var resp model.QueryResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.True(t, resp.Success)
	require.Equal(t, "generated answer", resp.FinalAnswer)
	require.Len(t, resp.RetrievedContext, 1)
	require.Equal(t, "Water rights are contested.", resp.RetrievedContext[0].Text)

	env = s.do(t, http.MethodPost, "/api/v1/query", map[string]interface{}{
		"event_id":   "unknown",
		"query_text": "Explain",
		"use_rag":    false,
	})
	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &raw))
	require.Equal(t, []interface{}{}, raw["retrieved_context"])

	env = s.do(t, http.MethodPost, "/api/v1/query", map[string]interface{}{"event_id": "ev1"})
	require.Equal(t, errcode.ErrInvalid, env.Code)
}

func TestQueryRateLimit(t *testing.T) {
	s := setupServer(t, time.Minute)
	body := map[string]interface{}{"event_id": "ev1", "query_text": "hi", "use_rag": false}
	env := s.do(t, http.MethodPost, "/api/v1/query", body)
	require.NotEqual(t, errcode.ErrTooMany, env.Code)
	env = s.do(t, http.MethodPost, "/api/v1/query", body)
	require.Equal(t, errcode.ErrTooMany, env.Code)
}
