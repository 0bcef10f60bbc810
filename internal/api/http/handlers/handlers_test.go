package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/dispatch-service/internal/api/http"
	"github.com/spec-kit/dispatch-service/internal/api/http/handlers"
	"github.com/spec-kit/dispatch-service/internal/auth"
	"github.com/spec-kit/dispatch-service/internal/classifier"
	"github.com/spec-kit/dispatch-service/internal/config"
	"github.com/spec-kit/dispatch-service/internal/domain"
	"github.com/spec-kit/dispatch-service/internal/observability"
	"github.com/spec-kit/dispatch-service/internal/repository"
	"github.com/spec-kit/dispatch-service/internal/service"
	"github.com/spec-kit/dispatch-service/internal/sheets"
)

type memSignatureStore struct {
	values map[string]string
}

func (s *memSignatureStore) Get(_ context.Context, clientKey string) (string, error) {
	return s.values[clientKey], nil
}

func (s *memSignatureStore) Set(_ context.Context, clientKey, signature string) error {
	s.values[clientKey] = signature
	return nil
}

var ticketHeader = []string{
	repository.HeaderID, repository.HeaderTitle, repository.HeaderQuoteNo,
	repository.HeaderDescription, repository.HeaderCategory, repository.HeaderValue,
	repository.HeaderStatus, repository.HeaderWorkerID, repository.HeaderCreatedAt,
	repository.HeaderPartnerIDs,
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	ticketWS := sheets.NewMemWorksheet([][]string{ticketHeader})
	workerWS := sheets.NewMemWorksheet([][]string{
		{repository.WorkerHeaderName, repository.WorkerHeaderPassword, repository.WorkerHeaderTeam},
		{"amy", "pw-amy", "north"},
		{"ben", "pw-ben", "south"},
	})
	ticketStore := repository.NewTicketStore(ticketWS, 0)
	workerStore := repository.NewWorkerStore(workerWS, 0)
	taxonomy := domain.DefaultTaxonomy()

	cfg := config.Config{Auth: config.AuthConfig{
		JWTSecret:             "test-secret",
		AccessTokenTTLMinutes: 60,
		AdminAccessKey:        "master-key",
	}}
	authService := service.NewAuthService(cfg, workerStore)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketStore: ticketStore,
		WorkerStore: workerStore,
		Taxonomy:    taxonomy,
	})
	payoutService := service.NewPayoutService(ticketStore, workerStore, 250000)
	refreshService := service.NewRefreshService(ticketStore, &memSignatureStore{values: map[string]string{}})

	// no API key configured: analyze degrades to an empty suggestion
	classifierClient := classifier.NewClient(config.ClassifierConfig{}, taxonomy, zap.NewNop())

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, zap.NewNop(), observability.NewMetrics(), 5*time.Second)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler("dispatch-service", "test", nil, ticketStore),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, refreshService, classifierClient),
		Payouts:        handlers.NewPayoutsHandler(payoutService, ticketService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), workerStore),
	})
	return app
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var decoded map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp.StatusCode, decoded
}

func login(t *testing.T, app *fiber.App, path string, body any) string {
	t.Helper()
	status, resp := doJSON(t, app, http.MethodPost, path, "", body)
	require.Equal(t, http.StatusOK, status)
	data := resp["data"].(map[string]any)
	return data["token"].(string)
}

func TestDispatchFlow(t *testing.T) {
	app := newTestApp(t)

	status, _ := doJSON(t, app, http.MethodPost, "/auth/admin/login", "", fiber.Map{"access_key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, status)

	adminToken := login(t, app, "/auth/admin/login", fiber.Map{"access_key": "master-key"})
	amyToken := login(t, app, "/auth/workers/login", fiber.Map{"name": "amy", "password": "pw-amy"})
	benToken := login(t, app, "/auth/workers/login", fiber.Map{"name": "ben", "password": "pw-ben"})

	// ben observes the empty collection; his baseline is set silently
	status, resp := doJSON(t, app, http.MethodGet, "/tickets/refresh", benToken, nil)
	require.Equal(t, http.StatusOK, status)
	refresh := resp["data"].(map[string]any)
	assert.False(t, refresh["changed"].(bool))
	assert.Equal(t, "EMPTY", refresh["signature"])

	// workers cannot create tickets
	createBody := fiber.Map{"title": "Pump room overhaul", "category": "Fire Protection", "value": 90}
	status, _ = doJSON(t, app, http.MethodPost, "/tickets/", amyToken, createBody)
	assert.Equal(t, http.StatusForbidden, status)

	status, resp = doJSON(t, app, http.MethodPost, "/tickets/", adminToken, createBody)
	require.Equal(t, http.StatusCreated, status)
	ticketID := resp["data"].(map[string]any)["id"].(string)
	require.NotEmpty(t, ticketID)

	// the new ticket moves ben's signature
	status, resp = doJSON(t, app, http.MethodGet, "/tickets/refresh?mark_seen=true", benToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, resp["data"].(map[string]any)["changed"].(bool))

	status, resp = doJSON(t, app, http.MethodGet, "/tickets/refresh", benToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.False(t, resp["data"].(map[string]any)["changed"].(bool))

	// amy browses and claims the open project ticket
	status, resp = doJSON(t, app, http.MethodGet, "/tickets/open?group=project", amyToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, resp["data"].([]any), 1)

	status, resp = doJSON(t, app, http.MethodPost, "/tickets/"+ticketID+"/claim", amyToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Active", resp["data"].(map[string]any)["status"])

	// a second open ticket is blocked by the busy lock
	status, resp = doJSON(t, app, http.MethodPost, "/tickets/", adminToken,
		fiber.Map{"title": "Lobby lighting", "category": "Resident Repair", "value": 40})
	require.Equal(t, http.StatusCreated, status)
	secondID := resp["data"].(map[string]any)["id"].(string)

	status, _ = doJSON(t, app, http.MethodPost, "/tickets/"+secondID+"/claim", amyToken, nil)
	assert.Equal(t, http.StatusConflict, status)

	// ben cannot report amy's ticket
	status, _ = doJSON(t, app, http.MethodPost, "/tickets/"+ticketID+"/report", benToken, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status, resp = doJSON(t, app, http.MethodPost, "/tickets/"+ticketID+"/report", amyToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Pending", resp["data"].(map[string]any)["status"])

	status, resp = doJSON(t, app, http.MethodPost, "/tickets/"+ticketID+"/approve", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Done", resp["data"].(map[string]any)["status"])

	// the approved value lands in amy's current month
	status, resp = doJSON(t, app, http.MethodGet, "/payouts/me", amyToken, nil)
	require.Equal(t, http.StatusOK, status)
	payout := resp["data"].(map[string]any)
	assert.Equal(t, float64(90), payout["total"])
	assert.Equal(t, false, payout["busy"])

	status, resp = doJSON(t, app, http.MethodGet, "/payouts/summary", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	summary := resp["data"].(map[string]any)
	earning := summary["steady"].(float64) + summary["rushing"].(float64) + summary["hit"].(float64)
	assert.Equal(t, float64(1), earning)
	assert.Equal(t, float64(1), summary["starting"].(float64))

	status, resp = doJSON(t, app, http.MethodGet, "/tickets/?status=Done", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, resp["data"].([]any), 1)
}

func TestRejectAndReopenFlow(t *testing.T) {
	app := newTestApp(t)
	adminToken := login(t, app, "/auth/admin/login", fiber.Map{"access_key": "master-key"})
	amyToken := login(t, app, "/auth/workers/login", fiber.Map{"name": "amy", "password": "pw-amy"})

	status, resp := doJSON(t, app, http.MethodPost, "/tickets/", adminToken,
		fiber.Map{"title": "Roof inspection", "category": "Site Survey & Quote", "value": 0})
	require.Equal(t, http.StatusCreated, status)
	ticketID := resp["data"].(map[string]any)["id"].(string)

	status, _ = doJSON(t, app, http.MethodPost, "/tickets/"+ticketID+"/claim", amyToken, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = doJSON(t, app, http.MethodPost, "/tickets/"+ticketID+"/report", amyToken, nil)
	require.Equal(t, http.StatusOK, status)

	// rejection sends the ticket back to amy
	status, resp = doJSON(t, app, http.MethodPost, "/tickets/"+ticketID+"/reject", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	data := resp["data"].(map[string]any)
	assert.Equal(t, "Active", data["status"])
	assert.Equal(t, "amy", data["worker_id"])

	// reopening clears the assignment entirely
	status, resp = doJSON(t, app, http.MethodPost, "/tickets/"+ticketID+"/reopen", adminToken, nil)
	require.Equal(t, http.StatusOK, status)
	data = resp["data"].(map[string]any)
	assert.Equal(t, "Open", data["status"])
	assert.Nil(t, data["worker_id"])

	status, resp = doJSON(t, app, http.MethodGet, "/tickets/mine", amyToken, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, resp["data"].([]any))
	assert.Equal(t, false, resp["busy"])
}

func TestAnalyzeDegradesWithoutClassifier(t *testing.T) {
	app := newTestApp(t)
	adminToken := login(t, app, "/auth/admin/login", fiber.Map{"access_key": "master-key"})

	req := httptest.NewRequest(http.MethodPost, "/tickets/analyze", bytes.NewReader([]byte("fake-image")))
	req.Header.Set(fiber.HeaderContentType, "image/png")
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+adminToken)

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	assert.Nil(t, decoded["data"])
}

func TestHealthLive(t *testing.T) {
	app := newTestApp(t)
	status, resp := doJSON(t, app, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "alive", resp["status"])
}
