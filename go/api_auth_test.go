package marketserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	listingmapper "github.com/Apurer/go-gin-marketplace/internal/domains/listings/adapters/http/mapper"
	listingmemory "github.com/Apurer/go-gin-marketplace/internal/domains/listings/adapters/memory"
	listingapp "github.com/Apurer/go-gin-marketplace/internal/domains/listings/application"
	usermapper "github.com/Apurer/go-gin-marketplace/internal/domains/users/adapters/http/mapper"
	usermemory "github.com/Apurer/go-gin-marketplace/internal/domains/users/adapters/memory"
	usertokens "github.com/Apurer/go-gin-marketplace/internal/domains/users/adapters/tokens"
	userapp "github.com/Apurer/go-gin-marketplace/internal/domains/users/application"
	"github.com/Apurer/go-gin-marketplace/internal/platform/auth"
	apierrors "github.com/Apurer/go-gin-marketplace/internal/shared/errors"
)

func newAccountsRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	manager, err := auth.NewManager("test-secret")
	require.NoError(t, err)
	users := userapp.NewService(usermemory.NewRepository(), usermemory.NewSessionStore(), usertokens.NewJWT(manager))
	listings := listingapp.NewService(listingmemory.NewRepository())
	handlers := ApiHandleFunctions{
		AuthAPI:    NewAuthAPI(users, false),
		UserAPI:    NewUserAPI(users),
		ListingAPI: NewListingAPI(listings),
	}
	return NewRouterWithGinEngine(gin.New(), handlers, WithAuthenticator(users))
}

func call(t *testing.T, router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var raw []byte
	if body != nil {
		var err error
		raw, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, router *gin.Engine, username string, seller bool) usermapper.Session {
	t.Helper()
	rec := call(t, router, http.MethodPost, "/api/auth/register", "", usermapper.RegisterUser{
		Username: username, Email: username + "@example.com", Password: "s3cret!", Country: "PL", IsSeller: seller,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "password")

	rec = call(t, router, http.MethodPost, "/api/auth/login", "", usermapper.Credentials{Username: username, Password: "s3cret!"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("Set-Cookie"), AccessTokenCookie+"=")
	var session usermapper.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.NotEmpty(t, session.Token)
	return session
}

func TestAuthFlow_RegisterLoginLogout(t *testing.T) {
	router := newAccountsRouter(t)
	session := registerAndLogin(t, router, "alice", false)

	rec := call(t, router, http.MethodGet, "/api/users/"+session.User.ID, session.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice@example.com")

	assert.Equal(t, http.StatusNoContent, call(t, router, http.MethodPost, "/api/auth/logout", session.Token, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, call(t, router, http.MethodGet, "/api/users/"+session.User.ID, session.Token, nil).Code)
}

func TestAuthFlow_DuplicateAndBadCredentials(t *testing.T) {
	router := newAccountsRouter(t)
	registerAndLogin(t, router, "bob", false)

	rec := call(t, router, http.MethodPost, "/api/auth/register", "", usermapper.RegisterUser{
		Username: "bob", Email: "other@example.com", Password: "s3cret!", Country: "PL",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, router, http.MethodPost, "/api/auth/login", "", usermapper.Credentials{Username: "bob", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, router, http.MethodPost, "/api/auth/register", "", map[string]string{"username": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var problem apierrors.ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeValidation, problem.Type)
}

func TestUserProfile_HidesContactDetailsFromOthers(t *testing.T) {
	router := newAccountsRouter(t)
	alice := registerAndLogin(t, router, "alice", false)
	bob := registerAndLogin(t, router, "bob", true)

	rec := call(t, router, http.MethodGet, "/api/users/"+alice.User.ID, bob.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "alice@example.com")

	assert.Equal(t, http.StatusForbidden, call(t, router, http.MethodDelete, "/api/users/"+alice.User.ID, bob.Token, nil).Code)
	assert.Equal(t, http.StatusNoContent, call(t, router, http.MethodDelete, "/api/users/"+alice.User.ID, alice.Token, nil).Code)
}

func TestListings_SellersPublishOwnersDelete(t *testing.T) {
	router := newAccountsRouter(t)
	buyer := registerAndLogin(t, router, "buyer", false)
	seller := registerAndLogin(t, router, "seller", true)
	payload := map[string]any{"title": "Logo design", "desc": "Vector logo", "cat": "Design", "price": "49.90", "deliveryTime": 3}

	assert.Equal(t, http.StatusForbidden, call(t, router, http.MethodPost, "/api/listings", buyer.Token, payload).Code)

	rec := call(t, router, http.MethodPost, "/api/listings", seller.Token, payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created listingmapper.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "design", created.Category)
	assert.Equal(t, seller.User.ID, created.SellerID)

	rec = call(t, router, http.MethodGet, "/api/listings?cat=design", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []listingmapper.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	assert.Len(t, listed, 1)

	assert.Equal(t, http.StatusForbidden, call(t, router, http.MethodDelete, "/api/listings/"+created.ID, buyer.Token, nil).Code)
	assert.Equal(t, http.StatusNoContent, call(t, router, http.MethodDelete, "/api/listings/"+created.ID, seller.Token, nil).Code)
	assert.Equal(t, http.StatusNotFound, call(t, router, http.MethodGet, "/api/listings/"+created.ID, "", nil).Code)
}
