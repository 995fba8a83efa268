package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"gin-user-service/internal/domain"
	"gin-user-service/internal/feature/user"
	"gin-user-service/internal/repo"
	"gin-user-service/internal/service"
	"gin-user-service/internal/transport/http/handler"
	"gin-user-service/internal/transport/http/router"
	"gin-user-service/pkg/utils"
)

const (
	shortID   = "60c9b892ceec351"
	missingID = "60c9b892ceec351fb41b84e0"
)

func init() { gin.SetMode(gin.TestMode) }

// brokenRepo 所有调用都失败，用来验证兜底 500
type brokenRepo struct{ *repo.MemoryUserRepo }

func (brokenRepo) FindAll(context.Context) ([]domain.User, error) {
	return nil, errors.New("connection reset by peer")
}

func newEngine(t *testing.T, r domain.UserRepository, maxBody int64) *gin.Engine {
	t.Helper()
	svc := service.NewUserService(r, utils.NewPasswordHasher(bcrypt.MinCost))
	h := handler.NewUserHandler(svc, user.NewValidator())

	reg := &router.Registry{}
	reg.Register("/user", h)
	pr := prometheus.NewRegistry()
	return router.NewAPIEngine(zap.NewNop(), r, reg, router.Options{
		MaxBodyBytes: maxBody,
		Registerer:   pr,
		Gatherer:     pr,
	})
}

func do(e *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.ServeHTTP(w, req)
	return w
}

func decodeUser(t *testing.T, w *httptest.ResponseRecorder) domain.User {
	t.Helper()
	var u domain.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &u))
	return u
}

const validBody = `{"email":"east2@naver.com","password":"asdok123asdc","name":{"firstName":"Kim","lastName":"East"}}`

func TestCreate_RejectsIncorrectForms(t *testing.T) {
	e := newEngine(t, repo.NewMemoryUserRepo(), 1<<20)

	bodies := map[string]string{
		"missing email":       `{"password":"p","name":{"firstName":"a","lastName":"b"}}`,
		"malformed email":     `{"email":"not-an-email","password":"p","name":{"firstName":"a","lastName":"b"}}`,
		"missing password":    `{"email":"a@b.c","name":{"firstName":"a","lastName":"b"}}`,
		"missing firstName":   `{"email":"a@b.c","password":"p","name":{"lastName":"b"}}`,
		"missing lastName":    `{"email":"a@b.c","password":"p","name":{"firstName":"a"}}`,
		"missing name":        `{"email":"a@b.c","password":"p"}`,
		"name not object":     `{"email":"a@b.c","password":"p","name":"ab"}`,
		"password not string": `{"email":"a@b.c","password":123,"name":{"firstName":"a","lastName":"b"}}`,
		"empty object":        `{}`,
		"array":               `[]`,
		"malformed json":      `{"email":`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			w := do(e, http.MethodPost, "/user", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.JSONEq(t, `{"message":"incorrect form"}`, w.Body.String())
		})
	}

	w := do(e, http.MethodPost, "/user", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	list := do(e, http.MethodGet, "/user", "")
	assert.JSONEq(t, `[]`, list.Body.String())
}

func TestCreate_ThenGet(t *testing.T) {
	e := newEngine(t, repo.NewMemoryUserRepo(), 1<<20)

	w := do(e, http.MethodPost, "/user", validBody)
	require.Equal(t, http.StatusCreated, w.Code)
	created := decodeUser(t, w)
	assert.Equal(t, "east2@naver.com", created.Email)
	assert.Equal(t, domain.Name{FirstName: "Kim", LastName: "East"}, created.Name)
	assert.NotEqual(t, "asdok123asdc", created.Password)
	assert.True(t, utils.CheckPassword("asdok123asdc", created.Password))
	assert.Contains(t, w.Body.String(), `"_id":"`+created.ID+`"`)

	w = do(e, http.MethodGet, "/user/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decodeUser(t, w)
	assert.Equal(t, created.Email, got.Email)
	assert.Equal(t, created.Name, got.Name)
}

func TestCreate_DuplicateEmail(t *testing.T) {
	e := newEngine(t, repo.NewMemoryUserRepo(), 1<<20)

	require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/user", validBody).Code)
	w := do(e, http.MethodPost, "/user", validBody)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"message":"email already exists"}`, w.Body.String())
}

func TestCreate_LongPassword(t *testing.T) {
	e := newEngine(t, repo.NewMemoryUserRepo(), 1<<20)

	pw := strings.Repeat("x", 80)
	body := `{"email":"a@b.c","password":"` + pw + `","name":{"firstName":"a","lastName":"b"}}`
	w := do(e, http.MethodPost, "/user", body)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, utils.CheckPassword(pw, decodeUser(t, w).Password))

	var users []domain.User
	require.NoError(t, json.Unmarshal(do(e, http.MethodGet, "/user", "").Body.Bytes(), &users))
	assert.Len(t, users, 1)
}

func TestCreate_BodyTooLarge(t *testing.T) {
	e := newEngine(t, repo.NewMemoryUserRepo(), 32)

	w := do(e, http.MethodPost, "/user", validBody)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestList(t *testing.T) {
	e := newEngine(t, repo.NewMemoryUserRepo(), 1<<20)

	for _, email := range []string{"a@b.c", "d@e.f", "g@h.i"} {
		body := `{"email":"` + email + `","password":"p","name":{"firstName":"a","lastName":"b"}}`
		require.Equal(t, http.StatusCreated, do(e, http.MethodPost, "/user", body).Code)
	}

	w := do(e, http.MethodGet, "/user", "")
	require.Equal(t, http.StatusOK, w.Code)
	var users []domain.User
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	assert.Len(t, users, 3)
}

func TestList_StoreFailure(t *testing.T) {
	e := newEngine(t, brokenRepo{repo.NewMemoryUserRepo()}, 1<<20)

	w := do(e, http.MethodGet, "/user", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"internal server error"}`, w.Body.String())
}

func TestInvalidAndMissingIDs(t *testing.T) {
	e := newEngine(t, repo.NewMemoryUserRepo(), 1<<20)

	for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
		body := ""
		if method == http.MethodPut {
			body = `{"email":"x@y.z"}`
		}

		w := do(e, method, "/user/"+shortID, body)
		assert.Equal(t, http.StatusInternalServerError, w.Code, method)
		assert.JSONEq(t, `{"message":"invalid user id"}`, w.Body.String(), method)

		w = do(e, method, "/user/"+missingID, body)
		assert.Equal(t, http.StatusNotFound, w.Code, method)
		assert.JSONEq(t, `{"message":"no user found"}`, w.Body.String(), method)
	}
}

func TestUpdate(t *testing.T) {
	e := newEngine(t, repo.NewMemoryUserRepo(), 1<<20)
	created := decodeUser(t, do(e, http.MethodPost, "/user", validBody))

	w := do(e, http.MethodPut, "/user/"+created.ID, `{"name":{"firstName":"Lee","lastName":"West"},"email":42}`)
	require.Equal(t, http.StatusOK, w.Code)
	u := decodeUser(t, w)
	assert.Equal(t, domain.Name{FirstName: "Lee", LastName: "West"}, u.Name)
	assert.Equal(t, created.Email, u.Email, "wrong-typed fields are ignored")
	assert.Equal(t, created.Password, u.Password)

	// 更新不哈希 password
	w = do(e, http.MethodPut, "/user/"+created.ID, `{"password":"plain"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "plain", decodeUser(t, w).Password)

	w = do(e, http.MethodPut, "/user/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created.ID, decodeUser(t, w).ID)

	w = do(e, http.MethodPut, "/user/"+created.ID, `{"email":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdate_NonObjectBody(t *testing.T) {
	e := newEngine(t, repo.NewMemoryUserRepo(), 1<<20)
	created := decodeUser(t, do(e, http.MethodPost, "/user", validBody))

	w := do(e, http.MethodPut, "/user/"+shortID, `[]`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"invalid user id"}`, w.Body.String())

	w = do(e, http.MethodPut, "/user/"+missingID, `"text"`)
	assert.Equal(t, http.StatusNotFound, w.Code)

	for _, body := range []string{`[]`, `42`, `null`} {
		w = do(e, http.MethodPut, "/user/"+created.ID, body)
		require.Equal(t, http.StatusOK, w.Code, body)
		u := decodeUser(t, w)
		assert.Equal(t, created.Email, u.Email, body)
		assert.Equal(t, created.Name, u.Name, body)
	}
}

func TestDelete_Twice(t *testing.T) {
	e := newEngine(t, repo.NewMemoryUserRepo(), 1<<20)
	created := decodeUser(t, do(e, http.MethodPost, "/user", validBody))

	w := do(e, http.MethodDelete, "/user/"+created.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, created, decodeUser(t, w))

	w = do(e, http.MethodDelete, "/user/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"message":"no user found"}`, w.Body.String())
}

func TestHealthAndMetrics(t *testing.T) {
	e := newEngine(t, repo.NewMemoryUserRepo(), 1<<20)

	w := do(e, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)

	do(e, http.MethodGet, "/user", "")
	w = do(e, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte(`http_requests_total{method="GET",path="/user",status="200"}`)))
}
