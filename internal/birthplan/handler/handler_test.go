package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/birthplan"
	"github.com/humanizapp/humanizapp/backend/go-services/internal/birthplan/service"
	"github.com/stretchr/testify/require"
)

func do(g *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	g.ServeHTTP(w, req)
	return w
}

func TestBirthPlanHandler_CRUD(t *testing.T) {
	gin.SetMode(gin.TestMode)
	g := gin.New()
	RegisterBirthPlanRoutes(g, service.NewMemoryService())

	// nothing yet
	w := do(g, http.MethodGet, "/birth-plans/user/u1", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	// create
	w = do(g, http.MethodPost, "/birth-plans", `{"userId":"u1","companionName":"João","companionRelationship":"Esposo","painReliefMethods":["Massagem","Bola suíça"],"birthPosition":"Livre (escolhida na hora)"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created birthplan.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	require.Equal(t, "u1", created.OwnerID)
	require.Equal(t, birthplan.PainReliefSet{birthplan.PainReliefMassage, birthplan.PainReliefSwissBall}, created.PainReliefMethods)

	// second create for same owner conflicts
	w = do(g, http.MethodPost, "/birth-plans", `{"userId":"u1"}`)
	require.Equal(t, http.StatusConflict, w.Code)

	// get by owner and by id
	w = do(g, http.MethodGet, "/birth-plans/user/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	w = do(g, http.MethodGet, "/birth-plans/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)

	// full replace
	w = do(g, http.MethodPut, "/birth-plans/"+created.ID, `{"cordClamping":"Imediatamente"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated birthplan.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	require.Empty(t, updated.CompanionName)
	require.Empty(t, updated.PainReliefMethods)
	require.Equal(t, birthplan.CordClampingImmediate, updated.CordClamping)

	// delete
	w = do(g, http.MethodDelete, "/birth-plans/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, w.Code)
	w = do(g, http.MethodGet, "/birth-plans/"+created.ID, "")
	require.Equal(t, http.StatusNotFound, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body["error"])
}

func TestBirthPlanHandler_RejectsInvalid(t *testing.T) {
	g := gin.New()
	RegisterBirthPlanRoutes(g, service.NewMemoryService())

	w := do(g, http.MethodPost, "/birth-plans", `{"userId":"u1","birthPosition":"De ponta-cabeça"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(g, http.MethodPost, "/birth-plans", `{"userId":"u1","companionRelationship":"Mãe"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "companionName")

	w = do(g, http.MethodPost, "/birth-plans", `{"companionName":"Ana"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(g, http.MethodPut, "/birth-plans/missing", `{}`)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestBirthPlanHandler_OwnerCheck(t *testing.T) {
	g := gin.New()
	g.Use(func(c *gin.Context) {
		c.Set("claims", map[string]interface{}{"sub": c.GetHeader("X-Test-Sub")})
		c.Next()
	})
	RegisterBirthPlanRoutes(g, service.NewMemoryService())

	req := httptest.NewRequest(http.MethodPost, "/birth-plans", strings.NewReader(`{"userId":"u1"}`))
	req.Header.Set("X-Test-Sub", "u1")
	w := httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)
	var created birthplan.Document
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	req = httptest.NewRequest(http.MethodDelete, "/birth-plans/"+created.ID, nil)
	req.Header.Set("X-Test-Sub", "u2")
	w = httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/birth-plans/user/u1", nil)
	req.Header.Set("X-Test-Sub", "u2")
	w = httptest.NewRecorder()
	g.ServeHTTP(w, req)
	require.Equal(t, http.StatusForbidden, w.Code)
}
