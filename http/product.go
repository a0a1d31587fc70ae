package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sagarc03/storefront"
)

type statusRequest struct {
	Status string `json:"status"`
}

type stockRequest struct {
	Stock *int `json:"stock"`
}

func productID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid product id", storefront.ErrInvalidInput)
	}
	return id, nil
}

// productQuery reads list filters from the query string. Both sort/order and
// sortBy/sortOrder are accepted.
func productQuery(values url.Values) (storefront.ProductQuery, error) {
	q := storefront.ProductQuery{
		Category:  strings.TrimSpace(values.Get("category")),
		Status:    storefront.ProductStatus(strings.TrimSpace(values.Get("status"))),
		Search:    strings.TrimSpace(values.Get("search")),
		SortBy:    firstNonEmpty(values.Get("sort"), values.Get("sortBy")),
		SortOrder: firstNonEmpty(values.Get("order"), values.Get("sortOrder")),
	}

	if raw := values.Get("featured"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return q, fmt.Errorf("%w: featured must be true or false", storefront.ErrInvalidInput)
		}
		q.Featured = &v
	}

	for key, dst := range map[string]**float64{"minPrice": &q.MinPrice, "maxPrice": &q.MaxPrice} {
		raw := values.Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return q, fmt.Errorf("%w: %s must be a number", storefront.ErrInvalidInput, key)
		}
		*dst = &v
	}

	for key, dst := range map[string]*int{"page": &q.Page, "limit": &q.Limit} {
		raw := values.Get(key)
		if raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return q, fmt.Errorf("%w: %s must be an integer", storefront.ErrInvalidInput, key)
		}
		*dst = v
	}

	return q, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	q, err := productQuery(r.URL.Query())
	if err != nil {
		HandleError(w, err)
		return
	}

	page, err := h.products.List(r.Context(), q)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, page)
}

func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	p, err := h.products.Get(r.Context(), id)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleCreateProduct(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentAdmin(w, r)
	if !ok {
		return
	}

	if err := parseMultipart(w, r, h.config.MaxUploadSize); err != nil {
		HandleError(w, err)
		return
	}
	defer cleanupMultipart(r)

	in, err := productInput(r.MultipartForm.Value)
	if err != nil {
		HandleError(w, err)
		return
	}

	p, err := h.products.Create(r.Context(), admin.ID, in, uploadFiles(r.MultipartForm))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) handleUpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	if err := parseMultipart(w, r, h.config.MaxUploadSize); err != nil {
		HandleError(w, err)
		return
	}
	defer cleanupMultipart(r)

	patch, err := productPatch(r.MultipartForm.Value)
	if err != nil {
		HandleError(w, err)
		return
	}

	p, err := h.products.Update(r.Context(), id, patch, uploadFiles(r.MultipartForm))
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	if err := h.products.Delete(r.Context(), id); err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, MessageResponse{Message: "product deleted"})
}

func (h *Handler) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	var req statusRequest
	if err := decodeJSON(w, r, maxJSONBodySize, &req); err != nil {
		HandleError(w, err)
		return
	}

	status, err := storefront.ParseProductStatus(req.Status)
	if err != nil {
		HandleError(w, err)
		return
	}

	p, err := h.products.UpdateStatus(r.Context(), id, status)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdateStock(w http.ResponseWriter, r *http.Request) {
	id, err := productID(r)
	if err != nil {
		HandleError(w, err)
		return
	}

	var req stockRequest
	if err := decodeJSON(w, r, maxJSONBodySize, &req); err != nil {
		HandleError(w, err)
		return
	}
	if req.Stock == nil {
		HandleError(w, fmt.Errorf("%w: stock is required", storefront.ErrInvalidInput))
		return
	}

	p, err := h.products.UpdateStock(r.Context(), id, *req.Stock)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, p)
}
