package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/markethub/backend/internal/models"
)

type productListResponse struct {
	Data []models.Product `json:"data"`
	Meta struct {
		Page       int   `json:"page"`
		Size       int   `json:"size"`
		Total      int64 `json:"total"`
		TotalPages int64 `json:"total_pages"`
		HasPrev    bool  `json:"has_prev"`
		HasNext    bool  `json:"has_next"`
	} `json:"meta"`
}

func (env *testEnv) listProducts(t *testing.T, path string) productListResponse {
	t.Helper()
	rec, c := env.doJSONRequest(http.MethodGet, path, nil)
	require.NoError(t, env.P.GetProducts(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp productListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestGetProductsQueryFilter(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct("Gaming Laptop", "16GB RAM", "electronics", "999.99")
	env.seedProduct("Desk Lamp", "a warm LAPTOP-sized glow", "home", "19.90")
	env.seedProduct("Coffee Mug", "ceramic", "kitchen", "7.50")

	// substring match is case-insensitive and spans title or description
	resp := env.listProducts(t, "/api/products?q=laptop")
	require.Len(t, resp.Data, 2)
	require.EqualValues(t, 2, resp.Meta.Total)

	resp = env.listProducts(t, "/api/products?q=CERAMIC")
	require.Len(t, resp.Data, 1)
	require.Equal(t, "Coffee Mug", resp.Data[0].Title)

	resp = env.listProducts(t, "/api/products?q=nothing-here")
	require.Len(t, resp.Data, 0)
}

func TestGetProductsCategoryFilter(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct("Gaming Laptop", "16GB RAM", "Electronics", "999.99")
	env.seedProduct("Mouse", "wireless", "electronics", "25.00")
	env.seedProduct("Desk Lamp", "LED", "home", "19.90")

	// exact match, case-insensitive: no substring behavior
	resp := env.listProducts(t, "/api/products?category=ELECTRONICS")
	require.Len(t, resp.Data, 2)

	resp = env.listProducts(t, "/api/products?category=electro")
	require.Len(t, resp.Data, 0)
}

func TestGetProductsPagination(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 15; i++ {
		env.seedProduct("Widget", "generic", "misc", "1.00")
	}

	resp := env.listProducts(t, "/api/products?page=1&size=10")
	require.Len(t, resp.Data, 10)
	require.EqualValues(t, 15, resp.Meta.Total)
	require.EqualValues(t, 2, resp.Meta.TotalPages)
	require.True(t, resp.Meta.HasNext)
	require.False(t, resp.Meta.HasPrev)

	resp = env.listProducts(t, "/api/products?page=2&size=10")
	require.Len(t, resp.Data, 5)
	require.False(t, resp.Meta.HasNext)
	require.True(t, resp.Meta.HasPrev)
}

func TestGetProduct(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct("Gaming Laptop", "16GB RAM", "electronics", "999.99")

	rec, c := env.doJSONRequest(http.MethodGet, "/api/products/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.P.GetProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, p.ID, got.ID)
	require.Equal(t, "999.99", got.Price.String())

	_, c2 := env.doJSONRequest(http.MethodGet, "/api/products/42", nil)
	c2.SetParamNames("id")
	c2.SetParamValues("42")
	requireHTTPError(t, env.P.GetProduct(c2), http.StatusNotFound)
}

func TestCreateProduct(t *testing.T) {
	env := newTestEnv(t)

	payload := map[string]any{
		"title":       "Gaming Laptop",
		"description": "16GB RAM",
		"category":    "electronics",
		"price":       "999.99",
		"inventory":   5,
	}
	rec, c := env.doJSONRequest(http.MethodPost, "/api/products", payload)
	require.NoError(t, env.P.CreateProduct(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var got models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotZero(t, got.ID)
	require.True(t, got.IsActive)

	// negative price rejected
	payload["price"] = "-1"
	_, c2 := env.doJSONRequest(http.MethodPost, "/api/products", payload)
	requireHTTPError(t, env.P.CreateProduct(c2), http.StatusBadRequest)

	// title required
	_, c3 := env.doJSONRequest(http.MethodPost, "/api/products", map[string]any{"price": "1.00"})
	requireHTTPError(t, env.P.CreateProduct(c3), http.StatusBadRequest)
}

func TestPatchProduct(t *testing.T) {
	env := newTestEnv(t)
	env.seedProduct("Gaming Laptop", "16GB RAM", "electronics", "999.99")

	rec, c := env.doJSONRequest(http.MethodPatch, "/api/products/1", map[string]any{"price": "899.00"})
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.P.PatchProduct(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Product
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Equal(t, "899", got.Price.String())
	require.Equal(t, "Gaming Laptop", got.Title)
	require.Equal(t, "16GB RAM", got.Description)
}

func TestSoftDeleteProduct(t *testing.T) {
	env := newTestEnv(t)
	p := env.seedProduct("Gaming Laptop", "16GB RAM", "electronics", "999.99")

	rec, c := env.doJSONRequest(http.MethodDelete, "/api/products/1", nil)
	c.SetParamNames("id")
	c.SetParamValues("1")
	require.NoError(t, env.P.DeleteProduct(c))
	require.Equal(t, http.StatusNoContent, rec.Code)

	// the row survives with is_active=false
	var stored models.Product
	require.NoError(t, env.DB.First(&stored, p.ID).Error)
	require.False(t, stored.IsActive)

	// and is gone from listings and lookups
	resp := env.listProducts(t, "/api/products")
	require.Len(t, resp.Data, 0)

	_, c2 := env.doJSONRequest(http.MethodGet, "/api/products/1", nil)
	c2.SetParamNames("id")
	c2.SetParamValues("1")
	requireHTTPError(t, env.P.GetProduct(c2), http.StatusNotFound)

	// deleting again is a 404, not a second flip
	_, c3 := env.doJSONRequest(http.MethodDelete, "/api/products/1", nil)
	c3.SetParamNames("id")
	c3.SetParamValues("1")
	requireHTTPError(t, env.P.DeleteProduct(c3), http.StatusNotFound)
}
