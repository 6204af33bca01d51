package httptransport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"circles/internal/identity/service"
	"circles/internal/transport/http/mocks"
	dErrors "circles/pkg/domain-errors"
)

//go:generate mockgen -source=handlers_auth.go -destination=mocks/auth-mocks.go -package=mocks IdentityService
type AuthHandlerSuite struct {
	suite.Suite
}

func TestAuthHandlerSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerSuite))
}

func (s *AuthHandlerSuite) newHandler(t *testing.T) (*mocks.MockIdentityService, chi.Router) {
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockIdentityService(ctrl)
	router := chi.NewRouter()
	NewAuthHandler(mockService).RegisterPublic(router)
	return mockService, router
}

func (s *AuthHandlerSuite) doRequest(router chi.Router, path, body string) (int, map[string]any) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &decoded)
	return rec.Code, decoded
}

func (s *AuthHandlerSuite) TestHandler_Register() {
	s.T().Run("creates account - 201", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().
			Register(gomock.Any(), "alice", "s3cret", "alice@example.com", true).
			Return(service.Credentials{Token: "tok", UserID: 1, Username: "alice"}, nil)

		status, body := s.doRequest(router, "/api/auth/register",
			`{"username":"alice","password":"s3cret","email":"alice@example.com","terms_accepted":true}`)

		assert.Equal(t, http.StatusCreated, status)
		assert.Equal(t, "tok", body["token"])
		assert.Equal(t, float64(1), body["user_id"])
		assert.Equal(t, "alice", body["username"])
	})

	s.T().Run("returns 400 when request body is invalid json", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Register(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		status, body := s.doRequest(router, "/api/auth/register", "{bad-json")

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, string(dErrors.CodeBadRequest), body["code"])
	})

	s.T().Run("returns 409 when username is taken", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().
			Register(gomock.Any(), "alice", "s3cret", "", true).
			Return(service.Credentials{}, dErrors.New(dErrors.CodeConflict, "username already taken"))

		status, body := s.doRequest(router, "/api/auth/register",
			`{"username":"alice","password":"s3cret","terms_accepted":true}`)

		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "username already taken", body["error"])
	})
}

func (s *AuthHandlerSuite) TestHandler_Login() {
	s.T().Run("returns credentials - 200", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().
			Login(gomock.Any(), "alice", "s3cret", gomock.Any()).
			Return(service.Credentials{Token: "tok", UserID: 1, Username: "alice"}, nil)

		status, body := s.doRequest(router, "/api/auth/login",
			`{"username":"alice","password":"s3cret"}`)

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "tok", body["token"])
	})

	s.T().Run("returns 401 on bad credentials", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().
			Login(gomock.Any(), "alice", "wrong", gomock.Any()).
			Return(service.Credentials{}, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))

		status, body := s.doRequest(router, "/api/auth/login",
			`{"username":"alice","password":"wrong"}`)

		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, string(dErrors.CodeUnauthorized), body["code"])
	})
}
