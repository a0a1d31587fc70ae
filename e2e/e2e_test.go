package e2e_test

import (
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type descriptor struct {
	PublicID  string `json:"public_id"`
	URL       string `json:"url"`
	Storage   string `json:"storage"`
	LocalPath string `json:"local_path"`
}

type adminBody struct {
	ID       string     `json:"id"`
	Email    string     `json:"email"`
	Role     string     `json:"role"`
	IsActive bool       `json:"isActive"`
	Picture  descriptor `json:"picture"`
}

type authBody struct {
	Token       string      `json:"token"`
	Admin       adminBody   `json:"admin"`
	PictureInfo *descriptor `json:"pictureInfo"`
}

type productBody struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Price            float64      `json:"price"`
	Category         string       `json:"category"`
	Sizes            []string     `json:"sizes"`
	Stock            int          `json:"stock"`
	Status           string       `json:"status"`
	MainImage        descriptor   `json:"mainImage"`
	AdditionalImages []descriptor `json:"additionalImages"`
}

type pageBody struct {
	Items []productBody `json:"items"`
	Total int           `json:"total"`
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func TestE2E_SQLite(t *testing.T) {
	dir := t.TempDir()
	cfg := ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "sqlite",
		DBDSN:       filepath.Join(dir, "storefront.db"),
		StoragePath: filepath.Join(dir, "uploads"),
	}
	runStorefrontSuite(t, cfg)
}

func TestE2E_Postgres(t *testing.T) {
	cfg := ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "postgres",
		DBDSN:       getSharedPostgresDatabase(t),
		StoragePath: filepath.Join(t.TempDir(), "uploads"),
	}
	runStorefrontSuite(t, cfg)
}

// runStorefrontSuite drives the public API of a running server with remote
// storage disabled, so every image lands in the local directory.
func runStorefrontSuite(t *testing.T, cfg ServerConfig) {
	t.Helper()

	configPath, cleanup := startServer(t, cfg)
	defer cleanup()

	base := cfg.baseURL()
	picture := []byte("\x89PNG\r\n\x1a\nfake-picture")

	var registered authBody
	t.Run("register with picture", func(t *testing.T) {
		body, ct := multipartBody(t,
			map[string]string{"name": "Ada Lovelace", "email": "Ada@Example.com", "password": "correct-horse"},
			filePart{"picture", "ada.png", "image/png", picture},
		)
		status := doRequest(t, http.MethodPost, base+"/admin/register", "", ct, body, &registered)
		require.Equal(t, http.StatusCreated, status)

		assert.NotEmpty(t, registered.Token)
		assert.Equal(t, "ada@example.com", registered.Admin.Email)
		assert.Equal(t, "admin", registered.Admin.Role)
		require.NotNil(t, registered.PictureInfo)
		assert.Equal(t, "local", registered.PictureInfo.Storage)
		assert.True(t, strings.HasPrefix(registered.PictureInfo.URL, base+"/uploads/"))
	})

	t.Run("picture is served from uploads", func(t *testing.T) {
		require.NotNil(t, registered.PictureInfo)

		resp, err := http.Get(registered.PictureInfo.URL)
		require.NoError(t, err)
		defer func() { _ = resp.Body.Close() }()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, picture, data)
	})

	t.Run("duplicate register conflicts", func(t *testing.T) {
		body, ct := multipartBody(t,
			map[string]string{"name": "Ada Again", "email": "ada@example.com", "password": "correct-horse"},
		)
		var errResp errorBody
		status := doRequest(t, http.MethodPost, base+"/admin/register", "", ct, body, &errResp)
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "conflict", errResp.Error)
	})

	var token string
	t.Run("login", func(t *testing.T) {
		var result authBody
		status := doRequest(t, http.MethodPost, base+"/admin/login", "", "application/json",
			strings.NewReader(`{"email":"ADA@example.com","password":"correct-horse"}`), &result)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, registered.Admin.ID, result.Admin.ID)
		token = result.Token
	})

	t.Run("login with wrong password", func(t *testing.T) {
		var errResp errorBody
		status := doRequest(t, http.MethodPost, base+"/admin/login", "", "application/json",
			strings.NewReader(`{"email":"ada@example.com","password":"wrong-password"}`), &errResp)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "unauthorized", errResp.Error)
	})

	t.Run("profile", func(t *testing.T) {
		var profile adminBody
		status := doRequest(t, http.MethodGet, base+"/admin/profile", token, "", nil, &profile)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, registered.Admin.ID, profile.ID)

		status = doRequest(t, http.MethodGet, base+"/admin/profile", "", "", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	var product productBody
	t.Run("create product with images", func(t *testing.T) {
		body, ct := multipartBody(t,
			map[string]string{
				"name":     "Linen Shirt",
				"price":    "49.5",
				"category": "Shirts",
				"sizes":    `["S","M","L"]`,
				"stock":    "12",
				"status":   "active",
			},
			filePart{"mainImage", "front.jpg", "image/jpeg", []byte("front")},
			filePart{"additionalImages", "back.jpg", "image/jpeg", []byte("back")},
			filePart{"additionalImages", "side.jpg", "image/jpeg", []byte("side")},
		)
		status := doRequest(t, http.MethodPost, base+"/products/", token, ct, body, &product)
		require.Equal(t, http.StatusCreated, status)

		assert.Equal(t, "Linen Shirt", product.Name)
		assert.Equal(t, []string{"S", "M", "L"}, product.Sizes)
		assert.Equal(t, "local", product.MainImage.Storage)
		require.Len(t, product.AdditionalImages, 2)
		for _, img := range product.AdditionalImages {
			assert.Equal(t, "local", img.Storage)
		}
	})

	t.Run("create product requires token", func(t *testing.T) {
		body, ct := multipartBody(t, map[string]string{"name": "Nope", "price": "1", "category": "Shirts"})
		status := doRequest(t, http.MethodPost, base+"/products/", "", ct, body, nil)
		assert.Equal(t, http.StatusUnauthorized, status)
	})

	t.Run("list and get products", func(t *testing.T) {
		var page pageBody
		status := doRequest(t, http.MethodGet, base+"/products/?category=shirts", "", "", nil, &page)
		require.Equal(t, http.StatusOK, status)
		require.Equal(t, 1, page.Total)
		assert.Equal(t, product.ID, page.Items[0].ID)

		var got productBody
		status = doRequest(t, http.MethodGet, base+"/products/"+product.ID, "", "", nil, &got)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, product.MainImage, got.MainImage)
	})

	t.Run("update stock and status", func(t *testing.T) {
		var got productBody
		status := doRequest(t, http.MethodPatch, base+"/products/"+product.ID+"/stock", token, "application/json",
			strings.NewReader(`{"stock":3}`), &got)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, 3, got.Stock)

		status = doRequest(t, http.MethodPatch, base+"/products/"+product.ID+"/status", token, "application/json",
			strings.NewReader(`{"status":"inactive"}`), &got)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "inactive", got.Status)
	})

	t.Run("prune dry run keeps referenced files", func(t *testing.T) {
		out := runCommand(t, configPath, "", "prune", "--dry-run", "--min-age", "0s")
		assert.NotContains(t, out, "would remove")
	})

	t.Run("delete product removes local files", func(t *testing.T) {
		status := doRequest(t, http.MethodDelete, base+"/products/"+product.ID, token, "", nil, nil)
		require.Equal(t, http.StatusOK, status)

		status = doRequest(t, http.MethodGet, base+"/products/"+product.ID, "", "", nil, nil)
		assert.Equal(t, http.StatusNotFound, status)

		resp, err := http.Get(product.MainImage.URL)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	t.Run("deactivated admin cannot log in", func(t *testing.T) {
		out := runCommand(t, configPath, "", "admin", "deactivate", "ada@example.com")
		assert.Contains(t, out, "ada@example.com is deactivated")

		var errResp errorBody
		status := doRequest(t, http.MethodPost, base+"/admin/login", "", "application/json",
			strings.NewReader(`{"email":"ada@example.com","password":"correct-horse"}`), &errResp)
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "account_inactive", errResp.Error)
	})

	t.Run("admin list shows account", func(t *testing.T) {
		out := runCommand(t, configPath, "", "admin", "list")
		assert.Contains(t, out, "ada@example.com")
		assert.Contains(t, out, "false")
	})
}

func TestE2E_ConfigCommand(t *testing.T) {
	dir := t.TempDir()
	cfg := ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "sqlite",
		DBDSN:       filepath.Join(dir, "storefront.db"),
		StoragePath: filepath.Join(dir, "uploads"),
	}
	configPath := createConfigFile(t, cfg)

	out := runCommand(t, configPath, "", "config")

	assert.Contains(t, out, fmt.Sprintf("port: %d", cfg.Port))
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "e2e-secret")
}

func TestE2E_MigrateIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	cfg := ServerConfig{
		Port:        getOpenPort(t),
		DBType:      "sqlite",
		DBDSN:       filepath.Join(dir, "storefront.db"),
		StoragePath: filepath.Join(dir, "uploads"),
	}
	configPath := createConfigFile(t, cfg)

	runCommand(t, configPath, "", "migrate")
	runCommand(t, configPath, "", "migrate")
}
