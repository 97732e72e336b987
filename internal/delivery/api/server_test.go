package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"healthtrack/config"
	apimiddleware "healthtrack/internal/delivery/api/middleware"
	"healthtrack/internal/delivery/api/router"
	"healthtrack/internal/delivery/api/router/handler"
	"healthtrack/internal/domain/entity"
	"healthtrack/internal/infra/auth"
	"healthtrack/internal/infra/persistence/postgres"
	"healthtrack/internal/infra/persistence/sqlitetest"
	"healthtrack/internal/usecase"
	"healthtrack/internal/usecase/impl"
	"healthtrack/internal/validation"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details any    `json:"details"`
	} `json:"error"`
	Meta struct {
		RequestID string `json:"request_id"`
	} `json:"meta"`
}

type testServer struct {
	t     *testing.T
	e     *echo.Echo
	users usecase.UserUsecase
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		Storage: &config.StorageConfig{Timeout: 2 * time.Second},
		Auth: &config.AuthConfig{
			BcryptCost:     bcrypt.MinCost,
			HashTimeout:    2 * time.Second,
			AccessTokenTTL: time.Hour,
		},
		Food: &config.FoodConfig{DefaultPageSize: 20, MaxPageSize: 100},
	}
	cfg.HTTP.MaxRequestBodySize = "100KB"
	cfg.SecretKey.Access = "test_access_secret_key_very_long_for_testing"

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db := sqlitetest.Open(t)
	hasher, err := auth.NewBcryptHasher(cfg)
	require.NoError(t, err)
	tokens, err := auth.NewJWTService(cfg)
	require.NoError(t, err)

	validate := validation.New()
	txManager := postgres.NewTransactionManager(db, cfg)
	userRepo := postgres.NewUserRepository(db, cfg.Storage.Timeout)
	foodRepo := postgres.NewFoodRepository(db, cfg.Storage.Timeout)

	users := impl.NewUserService(impl.UserServiceParams{
		TxManager:    txManager,
		UserRepo:     userRepo,
		Hasher:       hasher,
		TokenService: tokens,
		Validate:     validate,
		Logger:       logger,
	})
	foods := impl.NewFoodService(impl.FoodServiceParams{
		TxManager: txManager,
		FoodRepo:  foodRepo,
		Validate:  validate,
		Config:    cfg,
		Logger:    logger,
	})
	nutrition := impl.NewNutritionService(impl.NutritionServiceParams{
		FoodRepo: foodRepo,
		UserRepo: userRepo,
		Validate: validate,
		Logger:   logger,
	})

	e := NewEcho(cfg, logger, router.RouterParams{
		UserHandler:      handler.NewUserHandler(handler.UserHandlerParams{UserUC: users, Logger: logger}),
		FoodHandler:      handler.NewFoodHandler(handler.FoodHandlerParams{FoodUC: foods, Logger: logger}),
		NutritionHandler: handler.NewNutritionHandler(handler.NutritionHandlerParams{NutritionUC: nutrition}),
		AuthMiddleware:   apimiddleware.NewAuthMiddleware(apimiddleware.AuthMiddlewareParams{TokenService: tokens, UserUC: users}),
	})

	return &testServer{t: t, e: e, users: users}
}

// login registers an account with the given extra profile JSON, grants role
// and returns a fresh access token.
func (s *testServer) login(email string, role entity.Role, profile string) string {
	s.t.Helper()

	body := fmt.Sprintf(`{"email":%q,"password":"secret1","fullName":"Test User"%s}`, email, profile)
	rec, _ := s.do(http.MethodPost, "/auth/register", "", body)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	if role != entity.RoleUser {
		_, err := s.users.AssignRole(context.Background(), email, role)
		require.NoError(s.t, err)
	}

	rec, env := s.do(http.MethodPost, "/auth/login", "", fmt.Sprintf(`{"email":%q,"password":"secret1"}`, email))
	require.Equal(s.t, http.StatusOK, rec.Code, rec.Body.String())
	token, _ := decodeData(s.t, env)["accessToken"].(string)
	require.NotEmpty(s.t, token)

	return token
}

func (s *testServer) do(method, target, token, body string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}

	return rec, env
}

func decodeData(t *testing.T, env envelope) map[string]any {
	t.Helper()

	var data map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &data))

	return data
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	rec, env := srv.do(http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeData(t, env)["status"])
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	assert.Equal(t, rec.Header().Get(echo.HeaderXRequestID), env.Meta.RequestID)
}

func TestRequestIDPropagation(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(echo.HeaderXRequestID, "client-supplied-42")
	rec := httptest.NewRecorder()
	srv.e.ServeHTTP(rec, req)
	assert.Equal(t, "client-supplied-42", rec.Header().Get(echo.HeaderXRequestID))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(echo.HeaderXRequestID, "bad id\twith control")
	rec = httptest.NewRecorder()
	srv.e.ServeHTTP(rec, req)
	assert.NotEqual(t, "bad id\twith control", rec.Header().Get(echo.HeaderXRequestID))
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
}

func TestAccountLifecycle(t *testing.T) {
	srv := newTestServer(t)

	rec, env := srv.do(http.MethodPost, "/auth/register", "",
		`{"email":" Lan@Example.com ","password":"secret1","fullName":"Nguyen Lan","dateOfBirth":"1990-05-01","gender":"female"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	user := decodeData(t, env)
	assert.Equal(t, "lan@example.com", user["email"])
	assert.Equal(t, "1990-05-01", user["dateOfBirth"])
	assert.Equal(t, "moderately_active", user["activityLevel"])
	assert.NotContains(t, user, "password")
	assert.NotContains(t, user, "passwordHash")
	assert.NotContains(t, rec.Body.String(), "secret1")

	rec, env = srv.do(http.MethodPost, "/auth/register", "",
		`{"email":"LAN@example.com","password":"another1","fullName":"Someone Else"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "USER_ALREADY_EXISTS", env.Error.Code)

	rec, env = srv.do(http.MethodPost, "/auth/login", "", `{"email":"lan@example.com","password":"wrong-password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_CREDENTIALS", env.Error.Code)
	assert.Nil(t, env.Error.Details)

	rec, env = srv.do(http.MethodPost, "/auth/login", "", `{"email":"LAN@example.com","password":"secret1"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	login := decodeData(t, env)
	token, _ := login["accessToken"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, "Bearer", login["tokenType"])

	rec, env = srv.do(http.MethodGet, "/users/me", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	me := decodeData(t, env)
	assert.Equal(t, "Nguyen Lan", me["fullName"])
	assert.NotEmpty(t, me["lastLogin"])

	rec, env = srv.do(http.MethodPatch, "/users/me", token, `{"fullName":"Tran Lan","dateOfBirth":null,"height":162.5}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	me = decodeData(t, env)
	assert.Equal(t, "Tran Lan", me["fullName"])
	assert.NotContains(t, me, "dateOfBirth")
	assert.InDelta(t, 162.5, me["height"], 1e-9)
	assert.Equal(t, "user", me["role"])

	rec, _ = srv.do(http.MethodDelete, "/users/me", token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// The token outlives the account; it must not read or change it.
	for _, method := range []string{http.MethodGet, http.MethodPatch, http.MethodDelete} {
		rec, env = srv.do(method, "/users/me", token, `{"fullName":"Ghost"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code, method)
		require.NotNil(t, env.Error, method)
		assert.Equal(t, "USER_INACTIVE", env.Error.Code, method)
	}

	rec, env = srv.do(http.MethodPost, "/auth/login", "", `{"email":"lan@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "USER_INACTIVE", env.Error.Code)
}

func TestRegisterValidation(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantCode    string
		wantDetails string
	}{
		{
			name:        "short password",
			body:        `{"email":"a@example.com","password":"12345","fullName":"A"}`,
			wantStatus:  http.StatusBadRequest,
			wantCode:    "VALIDATION_FAILED",
			wantDetails: "password",
		},
		{
			name:        "malformed email",
			body:        `{"email":"not-an-email","password":"secret1","fullName":"A"}`,
			wantStatus:  http.StatusBadRequest,
			wantCode:    "VALIDATION_FAILED",
			wantDetails: "email",
		},
		{
			name:        "bad date of birth",
			body:        `{"email":"a@example.com","password":"secret1","fullName":"A","dateOfBirth":"01/05/1990"}`,
			wantStatus:  http.StatusBadRequest,
			wantCode:    "VALIDATION_FAILED",
			wantDetails: "dateOfBirth",
		},
		{
			name:       "unknown enum value",
			body:       `{"email":"a@example.com","password":"secret1","fullName":"A","goal":"bulk"}`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
		{
			name:       "malformed json",
			body:       `{"email":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   "INVALID_INPUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t)

			rec, env := srv.do(http.MethodPost, "/auth/register", "", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.wantCode, env.Error.Code)
			if tt.wantDetails != "" {
				assert.Contains(t, fmt.Sprint(env.Error.Details), tt.wantDetails)
			}
		})
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	rec, env := srv.do(http.MethodGet, "/users/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "MISSING_TOKEN", env.Error.Code)

	rec, env = srv.do(http.MethodGet, "/users/me", "not-a-jwt", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "TOKEN_INVALID", env.Error.Code)
}

func TestFoodWritesRequireAdmin(t *testing.T) {
	srv := newTestServer(t)
	userToken := srv.login("eater@example.com", entity.RoleUser, "")
	adminToken := srv.login("curator@example.com", entity.RoleAdmin, "")

	body := `{"name":"Bánh mì","calories":265}`
	rec, env := srv.do(http.MethodPost, "/foods", "", body)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "MISSING_TOKEN", env.Error.Code)

	rec, env = srv.do(http.MethodPost, "/foods", userToken, body)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	rec, env = srv.do(http.MethodPost, "/foods", adminToken, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := uint64(decodeData(t, env)["id"].(float64))
	target := fmt.Sprintf("/foods/%d", id)

	rec, _ = srv.do(http.MethodPatch, target, "", `{"calories":1}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, env = srv.do(http.MethodPatch, target, userToken, `{"calories":1}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	rec, env = srv.do(http.MethodGet, target, "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 265, decodeData(t, env)["calories"], 1e-9)

	// A demoted admin keeps a token claiming the role; the stored role wins.
	_, err := srv.users.AssignRole(context.Background(), "curator@example.com", entity.RoleUser)
	require.NoError(t, err)
	rec, env = srv.do(http.MethodPatch, target, adminToken, `{"calories":1}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)
}

func TestFoodEndpoints(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.login("admin@example.com", entity.RoleAdmin, "")

	rec, env := srv.do(http.MethodPost, "/foods", admin, `{"name":"Phở","calories":350,"protein":12,"sodium":null}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	pho := decodeData(t, env)
	assert.InDelta(t, 100, pho["servingSize"], 1e-9)
	assert.Equal(t, "g", pho["servingUnit"])
	assert.Equal(t, true, pho["isVietnamese"])
	assert.Equal(t, false, pho["isVerified"])
	assert.InDelta(t, 0, pho["fiber"], 1e-9)
	assert.Nil(t, pho["sodium"])
	id := uint64(pho["id"].(float64))

	rec, env = srv.do(http.MethodPost, "/foods", admin, `{"name":"Water"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
	assert.Contains(t, fmt.Sprint(env.Error.Details), "calories")

	rec, _ = srv.do(http.MethodPost, "/foods", admin, `{"name":"Water","calories":0}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec, env = srv.do(http.MethodPatch, fmt.Sprintf("/foods/%d", id), admin, `{"sodium":880,"category":"Soup"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeData(t, env)
	assert.InDelta(t, 880, updated["sodium"], 1e-9)
	assert.InDelta(t, 350, updated["calories"], 1e-9)
	assert.Equal(t, "Soup", updated["category"])

	rec, env = srv.do(http.MethodGet, fmt.Sprintf("/foods/%d", id), "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Phở", decodeData(t, env)["name"])

	rec, env = srv.do(http.MethodGet, "/foods/9999", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FOOD_NOT_FOUND", env.Error.Code)

	rec, env = srv.do(http.MethodGet, "/foods/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_ID", env.Error.Code)

	rec, env = srv.do(http.MethodGet, "/foods/lookup?name=ph%E1%BB%9F", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var matches []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &matches))
	require.Len(t, matches, 1)
	assert.InDelta(t, float64(id), matches[0]["id"], 1e-9)

	rec, _ = srv.do(http.MethodGet, "/foods/lookup", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = srv.do(http.MethodGet, "/foods?category=soup&limit=1", "", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	page := decodeData(t, env)
	assert.InDelta(t, 1, page["total"], 1e-9)
	assert.InDelta(t, 1, page["limit"], 1e-9)

	rec, env = srv.do(http.MethodGet, "/foods?vietnamese=maybe", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Contains(t, fmt.Sprint(env.Error.Details), "vietnamese")

	rec, env = srv.do(http.MethodGet, "/foods?offset=-1", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)
}

func TestNutritionAnalyze(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.login("admin@example.com", entity.RoleAdmin, "")

	rec, env := srv.do(http.MethodPost, "/foods", admin, `{"name":"Cơm trắng","calories":130,"protein":2.7,"carbs":28,"fat":0.3}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rice := decodeData(t, env)

	rec, env = srv.do(http.MethodPost, "/nutrition/analyze", "",
		fmt.Sprintf(`{"items":[{"foodId":%d,"grams":200}]}`, uint64(rice["id"].(float64))))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	analysis := decodeData(t, env)
	totals := analysis["totals"].(map[string]any)
	assert.InDelta(t, 260, totals["calories"], 1e-9)
	assert.NotEmpty(t, analysis["recommendations"])

	rec, env = srv.do(http.MethodPost, "/nutrition/analyze", "", `{"items":[]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_FAILED", env.Error.Code)

	rec, env = srv.do(http.MethodPost, "/nutrition/analyze", "", `{"items":[{"foodId":4242,"grams":100}]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "FOOD_NOT_FOUND", env.Error.Code)
}

func TestRecommendations(t *testing.T) {
	srv := newTestServer(t)
	admin := srv.login("admin@example.com", entity.RoleAdmin, "")
	for _, body := range []string{
		`{"name":"Gỏi cuốn","calories":95}`,
		`{"name":"Cơm tấm","calories":180}`,
		`{"name":"Bún bò Huế","calories":230,"servingSize":400}`,
	} {
		rec, _ := srv.do(http.MethodPost, "/foods", admin, body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	tests := []struct {
		goal          string
		wantMeals     []string
		wantExercises int
	}{
		{goal: "lose_weight", wantMeals: []string{"Gỏi cuốn"}, wantExercises: 2},
		{goal: "maintain_weight", wantMeals: []string{"Cơm tấm", "Bún bò Huế"}, wantExercises: 2},
		{goal: "gain_weight", wantMeals: []string{"Bún bò Huế"}, wantExercises: 3},
	}

	for _, tt := range tests {
		token := srv.login(tt.goal+"@example.com", entity.RoleUser, fmt.Sprintf(`,"goal":%q`, tt.goal))

		rec, env := srv.do(http.MethodGet, "/users/me/recommendations", token, "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var plan usecase.RecommendationPlan
		require.NoError(t, json.Unmarshal(env.Data, &plan))
		assert.Equal(t, entity.Goal(tt.goal), plan.Goal)
		names := make([]string, 0, len(plan.Meals))
		for _, meal := range plan.Meals {
			names = append(names, meal.Name)
		}
		assert.Equal(t, tt.wantMeals, names, tt.goal)
		assert.Len(t, plan.Exercises, tt.wantExercises, tt.goal)
		assert.NotEmpty(t, plan.HealthTips, tt.goal)
		assert.Nil(t, plan.DailyCalories, tt.goal)
	}

	rec, env := srv.do(http.MethodGet, "/users/me/recommendations", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "MISSING_TOKEN", env.Error.Code)
}

func TestUnknownRoute(t *testing.T) {
	srv := newTestServer(t)

	rec, env := srv.do(http.MethodGet, "/nowhere", "", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}
