package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/sma-report-cards/internal/models"
	"github.com/noah-isme/sma-report-cards/internal/service"
	appErrors "github.com/noah-isme/sma-report-cards/pkg/errors"
	"github.com/noah-isme/sma-report-cards/pkg/logger"
)

type tokenStub struct {
	claims *models.JWTClaims
	err    error
	seen   string
}

func (s *tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	s.seen = token
	return s.claims, s.err
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", append(handlers, func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(logger.ContextCallerKey))
	})...)
	return r
}

func perform(r http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRequiresBearerToken(t *testing.T) {
	tokens := &tokenStub{claims: &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}}
	r := newRouter(JWT(tokens))

	assert.Equal(t, http.StatusUnauthorized, perform(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, perform(r, "Bearer ").Code)

	w := perform(r, "Bearer good-token")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "good-token", tokens.seen)
	assert.Equal(t, "admin-1", w.Body.String())
}

func TestJWTPropagatesValidationError(t *testing.T) {
	tokens := &tokenStub{err: appErrors.Clone(appErrors.ErrUnauthorized, "token expired")}
	w := perform(newRouter(JWT(tokens)), "Bearer stale")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "token expired")
}

func TestRequireRoles(t *testing.T) {
	cases := []struct {
		role   models.UserRole
		status int
	}{
		{models.RoleAdmin, http.StatusOK},
		{models.RoleSuperAdmin, http.StatusOK},
		{models.RoleTeacher, http.StatusForbidden},
		{models.RoleStudent, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(string(tc.role), func(t *testing.T) {
			tokens := &tokenStub{claims: &models.JWTClaims{UserID: "u", Role: tc.role}}
			w := perform(newRouter(JWT(tokens), RequireRoles(models.RoleAdmin)), "Bearer t")
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	w := perform(newRouter(RequireRoles(models.RoleAdmin)), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMetricsLabelsUnmatchedRoutes(t *testing.T) {
	metrics := service.NewMetricsService()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/report-cards/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/report-cards/r1", "/report-cards/r2", "/wp-admin"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	paths := map[string]bool{}
	for _, family := range families {
		if family.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "path" {
					paths[label.GetValue()] = true
				}
			}
		}
	}
	assert.Equal(t, map[string]bool{"/report-cards/:id": true, unmatchedRoute: true}, paths)
}

func TestAuditLogsSuccessfulMutationsOnly(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	tokens := &tokenStub{claims: &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}}
	r.POST("/report-cards/:id/publish", JWT(tokens), Audit(zap.New(core), "publish"), func(c *gin.Context) {
		if c.Param("id") == "missing" {
			c.Status(http.StatusNotFound)
			return
		}
		c.Status(http.StatusOK)
	})

	for _, id := range []string{"r1", "missing"} {
		req := httptest.NewRequest(http.MethodPost, "/report-cards/"+id+"/publish", nil)
		req.Header.Set("Authorization", "Bearer t")
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	entries := logs.FilterMessage("audit").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "publish", fields["action"])
	assert.Equal(t, "r1", fields["report_id"])
	assert.Equal(t, "admin-1", fields["caller_id"])
}
