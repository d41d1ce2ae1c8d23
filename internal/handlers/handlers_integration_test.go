package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"recipebox/internal/app"
	"recipebox/internal/database"
	"recipebox/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPassword = "password123"

// TestMain silences logrus for cleaner output.
func TestMain(m *testing.M) {
	logrus.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type testEnv struct {
	t    *testing.T
	app  *fiber.App
	auth *services.AuthService
	db   *gorm.DB
}

// setupApp builds the full application on a private in-memory SQLite database.
func setupApp(t *testing.T) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	fiberApp, authService, err := app.NewApp(app.Options{
		DB:        db,
		JWTSecret: "test_jwt_secret",
		TokenTTL:  time.Hour,
	})
	require.NoError(t, err)
	return &testEnv{t: t, app: fiberApp, auth: authService, db: db}
}

// do sends a JSON request and decodes a JSON response body when there is one.
func (e *testEnv) do(method, path, token string, body interface{}) (int, map[string]interface{}) {
	e.t.Helper()
	status, raw := e.doRaw(method, path, token, body)
	var decoded map[string]interface{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(e.t, json.Unmarshal(raw, &decoded))
	}
	return status, decoded
}

// doList is do for endpoints answering with a JSON array.
func (e *testEnv) doList(path, token string) (int, []map[string]interface{}) {
	e.t.Helper()
	status, raw := e.doRaw(http.MethodGet, path, token, nil)
	var decoded []map[string]interface{}
	if status == http.StatusOK {
		require.NoError(e.t, json.Unmarshal(raw, &decoded))
	}
	return status, decoded
}

func (e *testEnv) doRaw(method, path, token string, body interface{}) (int, []byte) {
	e.t.Helper()
	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(e.t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1) // -1 for no timeout
	require.NoError(e.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp.StatusCode, raw
}

// signup creates a user through the API and returns a token for it.
func (e *testEnv) signup(email string) string {
	e.t.Helper()
	status, _ := e.do(http.MethodPost, "/accounts/create/", "", map[string]string{
		"email": email, "password": testPassword, "name": "Test name",
	})
	require.Equal(e.t, http.StatusCreated, status)
	return e.token(email, testPassword)
}

func (e *testEnv) token(email, password string) string {
	e.t.Helper()
	status, body := e.do(http.MethodPost, "/accounts/token/", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(e.t, http.StatusOK, status)
	return body["token"].(string)
}

func (e *testEnv) superuserToken(email string) string {
	e.t.Helper()
	_, err := e.auth.CreateSuperuser(context.Background(), email, testPassword, "")
	require.NoError(e.t, err)
	return e.token(email, testPassword)
}

func (e *testEnv) createTag(token, name string) string {
	e.t.Helper()
	status, body := e.do(http.MethodPost, "/recipe/tags/", token, map[string]string{"name": name})
	require.Equal(e.t, http.StatusCreated, status)
	return body["id"].(string)
}

func (e *testEnv) createIngredient(token, name string) string {
	e.t.Helper()
	status, body := e.do(http.MethodPost, "/recipe/ingredients/", token, map[string]string{"name": name})
	require.Equal(e.t, http.StatusCreated, status)
	return body["id"].(string)
}

func (e *testEnv) createRecipe(token string, extra map[string]interface{}) map[string]interface{} {
	e.t.Helper()
	payload := map[string]interface{}{
		"title":        "Sample recipe",
		"time_minutes": 10,
		"price":        "5.00",
	}
	for k, v := range extra {
		payload[k] = v
	}
	status, body := e.do(http.MethodPost, "/recipe/recipes/", token, payload)
	require.Equal(e.t, http.StatusCreated, status, "body: %v", body)
	return body
}

func TestHealth(t *testing.T) {
	env := setupApp(t)

	status, body := env.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "up", body["database"])
	assert.Equal(t, "disabled", body["cache"])
	assert.Equal(t, "disabled", body["broker"])
}

func TestCreateUser(t *testing.T) {
	env := setupApp(t)

	t.Run("valid payload", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/accounts/create/", "", map[string]string{
			"email":    "example@email.com",
			"password": testPassword,
			"name":     "Test name",
		})
		assert.Equal(t, http.StatusCreated, status)
		assert.Equal(t, "example@email.com", body["email"])
		assert.Equal(t, "Test name", body["name"])
		assert.NotContains(t, body, "password")
	})

	t.Run("email is normalized", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/accounts/create/", "", map[string]string{
			"email": "Mixed@EXAMPLE.com", "password": testPassword,
		})
		assert.Equal(t, http.StatusCreated, status)
		assert.Equal(t, "mixed@example.com", body["email"])
	})

	t.Run("duplicate email", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/accounts/create/", "", map[string]string{
			"email": "EXAMPLE@email.com", "password": testPassword,
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["errors"], "email")
	})

	t.Run("password too short", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/accounts/create/", "", map[string]string{
			"email": "short@email.com", "password": "pw",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["errors"], "password")

		status, body = env.do(http.MethodPost, "/accounts/token/", "", map[string]string{
			"email": "short@email.com", "password": "pw",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.NotContains(t, body, "token")
	})

	t.Run("password too long", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/accounts/create/", "", map[string]string{
			"email": "long@email.com", "password": strings.Repeat("a", 80),
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["errors"], "password")
	})

	t.Run("multibyte password over the byte limit", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/accounts/create/", "", map[string]string{
			"email": "multibyte@email.com", "password": strings.Repeat("é", 40),
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["errors"], "password")
	})

	t.Run("invalid email", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/accounts/create/", "", map[string]string{
			"email": "not-an-email", "password": testPassword,
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["errors"], "email")
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/accounts/create/", strings.NewReader("{"))
		req.Header.Set("Content-Type", "application/json")
		resp, err := env.app.Test(req, -1)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestCreateToken(t *testing.T) {
	env := setupApp(t)
	env.signup("example@email.com")

	t.Run("valid credentials", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/accounts/token/", "", map[string]string{
			"email": "example@email.com", "password": testPassword,
		})
		assert.Equal(t, http.StatusOK, status)
		assert.NotEmpty(t, body["token"])
	})

	t.Run("wrong password", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/accounts/token/", "", map[string]string{
			"email": "example@email.com", "password": "wrongpass",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.NotContains(t, body, "token")
		assert.Contains(t, body["errors"], "non_field_errors")
	})

	t.Run("unknown user", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/accounts/token/", "", map[string]string{
			"email": "nobody@email.com", "password": testPassword,
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.NotContains(t, body, "token")
	})

	t.Run("missing password", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/accounts/token/", "", map[string]string{
			"email": "example@email.com", "password": "",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.NotContains(t, body, "token")
	})
}

func TestManageProfile(t *testing.T) {
	env := setupApp(t)

	t.Run("requires authentication", func(t *testing.T) {
		status, _ := env.do(http.MethodGet, "/accounts/me/", "", nil)
		assert.Equal(t, http.StatusUnauthorized, status)

		status, _ = env.do(http.MethodGet, "/accounts/me/", "garbage", nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	token := env.signup("example@email.com")

	t.Run("retrieve profile", func(t *testing.T) {
		status, body := env.do(http.MethodGet, "/accounts/me/", token, nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, map[string]interface{}{"email": "example@email.com", "name": "Test name"}, body)
	})

	t.Run("post not allowed", func(t *testing.T) {
		status, _ := env.do(http.MethodPost, "/accounts/me/", token, map[string]string{})
		assert.Equal(t, http.StatusMethodNotAllowed, status)
	})

	t.Run("patch name and password", func(t *testing.T) {
		status, body := env.do(http.MethodPatch, "/accounts/me/", token, map[string]string{
			"name": "New name", "password": "newpassword123",
		})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "New name", body["name"])

		assert.NotEmpty(t, env.token("example@email.com", "newpassword123"))
		status, _ = env.do(http.MethodPost, "/accounts/token/", "", map[string]string{
			"email": "example@email.com", "password": testPassword,
		})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("patch with short password", func(t *testing.T) {
		status, body := env.do(http.MethodPatch, "/accounts/me/", token, map[string]string{"password": "pw"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["errors"], "password")
	})

	t.Run("patch with long password", func(t *testing.T) {
		status, body := env.do(http.MethodPatch, "/accounts/me/", token, map[string]string{"password": strings.Repeat("a", 80)})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["errors"], "password")
	})

	t.Run("put requires password", func(t *testing.T) {
		status, body := env.do(http.MethodPut, "/accounts/me/", token, map[string]string{
			"email": "example@email.com", "name": "Put name",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["errors"], "password")
	})
}

func TestTagsAndIngredients(t *testing.T) {
	env := setupApp(t)

	for _, path := range []string{"/recipe/tags/", "/recipe/ingredients/"} {
		status, _ := env.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, status, path)
	}

	token := env.signup("user@email.com")
	otherToken := env.signup("other@email.com")

	env.createTag(token, "Vegan")
	env.createTag(token, "Dessert")
	env.createTag(otherToken, "Fruity")
	env.createIngredient(token, "Kale")
	env.createIngredient(otherToken, "Salt")

	t.Run("tags limited to user and ordered by name", func(t *testing.T) {
		status, tags := env.doList("/recipe/tags/", token)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, tags, 2)
		assert.Equal(t, "Vegan", tags[0]["name"])
		assert.Equal(t, "Dessert", tags[1]["name"])
	})

	t.Run("ingredients limited to user", func(t *testing.T) {
		status, ingredients := env.doList("/recipe/ingredients/", token)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, ingredients, 1)
		assert.Equal(t, "Kale", ingredients[0]["name"])
	})

	t.Run("blank name rejected", func(t *testing.T) {
		for _, name := range []string{"", "   "} {
			status, body := env.do(http.MethodPost, "/recipe/tags/", token, map[string]string{"name": name})
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Contains(t, body["errors"], "name")

			status, _ = env.do(http.MethodPost, "/recipe/ingredients/", token, map[string]string{"name": name})
			assert.Equal(t, http.StatusBadRequest, status)
		}
	})

	t.Run("name too long", func(t *testing.T) {
		status, _ := env.do(http.MethodPost, "/recipe/tags/", token, map[string]string{"name": strings.Repeat("a", 51)})
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestRecipes(t *testing.T) {
	env := setupApp(t)

	status, _ := env.do(http.MethodGet, "/recipe/recipes/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	token := env.signup("user@email.com")
	otherToken := env.signup("other@email.com")

	vegan := env.createTag(token, "Vegan")
	dessert := env.createTag(token, "Dessert")
	prawns := env.createIngredient(token, "Prawns")
	ginger := env.createIngredient(token, "Ginger")
	foreignTag := env.createTag(otherToken, "Foreign")

	env.createRecipe(otherToken, nil)

	t.Run("create with tags and ingredients", func(t *testing.T) {
		body := env.createRecipe(token, map[string]interface{}{
			"title":       "Thai prawn red curry",
			"tags":        []string{vegan, dessert},
			"ingredients": []string{prawns, ginger},
			"link":        "https://example.com/curry",
		})
		assert.Equal(t, "Thai prawn red curry", body["title"])
		assert.Equal(t, "5.00", body["price"])
		assert.ElementsMatch(t, []interface{}{vegan, dessert}, body["tags"])
		assert.ElementsMatch(t, []interface{}{prawns, ginger}, body["ingredients"])
	})

	t.Run("list limited to user", func(t *testing.T) {
		status, recipes := env.doList("/recipe/recipes/", token)
		require.Equal(t, http.StatusOK, status)
		require.Len(t, recipes, 1)
		assert.Len(t, recipes[0]["tags"], 2)
	})

	t.Run("detail nests tags and ingredients", func(t *testing.T) {
		recipe := env.createRecipe(token, map[string]interface{}{"tags": []string{vegan}})
		status, body := env.do(http.MethodGet, "/recipe/recipes/"+recipe["id"].(string)+"/", token, nil)
		require.Equal(t, http.StatusOK, status)
		tags := body["tags"].([]interface{})
		require.Len(t, tags, 1)
		assert.Equal(t, map[string]interface{}{"id": vegan, "name": "Vegan"}, tags[0])
		assert.Equal(t, []interface{}{}, body["ingredients"])
	})

	t.Run("foreign tag rejected", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/recipe/recipes/", token, map[string]interface{}{
			"title": "Sneaky", "time_minutes": 5, "price": "1.00", "tags": []string{foreignTag},
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["errors"], "tags")
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		status, body := env.do(http.MethodPost, "/recipe/recipes/", token, map[string]interface{}{"title": "No price"})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["errors"], "time_minutes")
	})

	t.Run("blank title rejected", func(t *testing.T) {
		for _, title := range []string{"", "   "} {
			status, body := env.do(http.MethodPost, "/recipe/recipes/", token, map[string]interface{}{
				"title": title, "time_minutes": 5, "price": "5.00",
			})
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Contains(t, body["errors"], "title")
		}

		recipe := env.createRecipe(token, nil)
		path := "/recipe/recipes/" + recipe["id"].(string) + "/"
		status, body := env.do(http.MethodPatch, path, token, map[string]interface{}{"title": ""})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Contains(t, body["errors"], "title")

		status, body = env.do(http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Sample recipe", body["title"])
	})

	t.Run("price precision enforced", func(t *testing.T) {
		for _, price := range []interface{}{"5.123", "10000.00", 12345.5} {
			status, body := env.do(http.MethodPost, "/recipe/recipes/", token, map[string]interface{}{
				"title": "Pricey", "time_minutes": 5, "price": price,
			})
			assert.Equal(t, http.StatusBadRequest, status, "price %v", price)
			assert.Contains(t, body["errors"], "price")
		}
	})

	t.Run("partial update keeps tags", func(t *testing.T) {
		recipe := env.createRecipe(token, map[string]interface{}{"tags": []string{vegan}})
		path := "/recipe/recipes/" + recipe["id"].(string) + "/"

		status, body := env.do(http.MethodPatch, path, token, map[string]interface{}{
			"title": "Chicken tikka", "tags": []string{dessert},
		})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Chicken tikka", body["title"])
		assert.Equal(t, []interface{}{dessert}, body["tags"])

		status, body = env.do(http.MethodPatch, path, token, map[string]interface{}{"time_minutes": 25})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, []interface{}{dessert}, body["tags"])
		assert.Equal(t, "Chicken tikka", body["title"])
	})

	t.Run("full update clears tags", func(t *testing.T) {
		recipe := env.createRecipe(token, map[string]interface{}{
			"tags": []string{vegan}, "link": "https://example.com/x",
		})
		path := "/recipe/recipes/" + recipe["id"].(string) + "/"

		status, _ := env.do(http.MethodPut, path, token, map[string]interface{}{
			"title": "Spaghetti carbonara", "time_minutes": 25, "price": "5.00",
		})
		require.Equal(t, http.StatusOK, status)

		status, body := env.do(http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Spaghetti carbonara", body["title"])
		assert.Equal(t, float64(25), body["time_minutes"])
		assert.Equal(t, []interface{}{}, body["tags"])
		assert.Equal(t, "", body["link"])
	})

	t.Run("other user's recipe is not found", func(t *testing.T) {
		recipe := env.createRecipe(token, nil)
		path := "/recipe/recipes/" + recipe["id"].(string) + "/"

		status, _ := env.do(http.MethodGet, path, otherToken, nil)
		assert.Equal(t, http.StatusNotFound, status)
		status, _ = env.do(http.MethodPatch, path, otherToken, map[string]interface{}{"title": "Mine"})
		assert.Equal(t, http.StatusNotFound, status)
		status, _ = env.do(http.MethodDelete, path, otherToken, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("delete", func(t *testing.T) {
		recipe := env.createRecipe(token, map[string]interface{}{"tags": []string{vegan}})
		path := "/recipe/recipes/" + recipe["id"].(string) + "/"

		status, _ := env.do(http.MethodDelete, path, token, nil)
		assert.Equal(t, http.StatusNoContent, status)
		status, _ = env.do(http.MethodGet, path, token, nil)
		assert.Equal(t, http.StatusNotFound, status)

		// The tag outlives the recipe.
		_, tags := env.doList("/recipe/tags/", token)
		assert.Len(t, tags, 2)
	})
}

func TestAdminUsers(t *testing.T) {
	env := setupApp(t)
	userToken := env.signup("user@email.com")
	env.createRecipe(userToken, nil)

	t.Run("regular user forbidden", func(t *testing.T) {
		status, _ := env.do(http.MethodGet, "/admin/users/", userToken, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})

	rootToken := env.superuserToken("admin@email.com")

	t.Run("superuser lists users", func(t *testing.T) {
		status, body := env.do(http.MethodGet, "/admin/users/?page=1&page_size=1", rootToken, nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(2), body["total"])
		assert.Equal(t, float64(2), body["total_pages"])
		users := body["users"].([]interface{})
		require.Len(t, users, 1)
		first := users[0].(map[string]interface{})
		assert.Equal(t, "admin@email.com", first["email"])
		assert.Equal(t, true, first["is_superuser"])
		assert.NotContains(t, first, "password")
	})

	t.Run("regular user cannot delete", func(t *testing.T) {
		status, _ := env.do(http.MethodDelete, "/admin/users/whatever/", userToken, nil)
		assert.Equal(t, http.StatusForbidden, status)
	})

	t.Run("delete unknown user", func(t *testing.T) {
		status, _ := env.do(http.MethodDelete, "/admin/users/missing/", rootToken, nil)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("delete cascades and revokes tokens", func(t *testing.T) {
		status, body := env.do(http.MethodGet, "/admin/users/?page_size=10", rootToken, nil)
		require.Equal(t, http.StatusOK, status)
		var userID string
		for _, u := range body["users"].([]interface{}) {
			if m := u.(map[string]interface{}); m["email"] == "user@email.com" {
				userID = m["id"].(string)
			}
		}
		require.NotEmpty(t, userID)

		status, _ = env.do(http.MethodDelete, "/admin/users/"+userID+"/", rootToken, nil)
		assert.Equal(t, http.StatusNoContent, status)

		status, _ = env.do(http.MethodGet, "/recipe/recipes/", userToken, nil)
		assert.Equal(t, http.StatusUnauthorized, status)

		var count int64
		require.NoError(t, env.db.Table("recipes").Where("user_id = ?", userID).Count(&count).Error)
		assert.Zero(t, count)
	})
}
