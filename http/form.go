package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/sagarc03/storefront"
)

// multipartMemory is how much of a multipart body is held in memory before
// parts spill to temporary files.
const multipartMemory = 32 << 20

func isMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// parseMultipart parses a multipart body of at most maxBytes. Callers must
// defer cleanupMultipart.
func parseMultipart(w http.ResponseWriter, r *http.Request, maxBytes int64) error {
	if !isMultipart(r) {
		return fmt.Errorf("%w: expected multipart/form-data body", storefront.ErrInvalidInput)
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("%w: request body exceeds %d bytes", storefront.ErrInvalidInput, maxErr.Limit)
		}
		return fmt.Errorf("%w: malformed multipart body: %v", storefront.ErrInvalidInput, err)
	}
	return nil
}

func cleanupMultipart(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}

// uploadFiles converts every file part of the form, in field order, so the
// pipeline can reject fields it does not expect.
func uploadFiles(form *multipart.Form) []storefront.UploadFile {
	if form == nil {
		return nil
	}

	fields := make([]string, 0, len(form.File))
	for field := range form.File {
		fields = append(fields, field)
	}
	slices.Sort(fields)

	var files []storefront.UploadFile
	for _, field := range fields {
		for _, fh := range form.File[field] {
			files = append(files, storefront.UploadFile{
				Field:       field,
				Filename:    fh.Filename,
				ContentType: fh.Header.Get("Content-Type"),
				Size:        fh.Size,
				Open: func() (io.ReadCloser, error) {
					return fh.Open()
				},
			})
		}
	}
	return files
}

// formValues is a read-only view of the non-file multipart fields.
type formValues map[string][]string

func (f formValues) has(key string) bool {
	_, ok := f[key]
	return ok
}

func (f formValues) get(key string) string {
	if v := f[key]; len(v) > 0 {
		return strings.TrimSpace(v[0])
	}
	return ""
}

func (f formValues) float(key string) (float64, error) {
	raw := f.get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be a number", storefront.ErrInvalidInput, key)
	}
	return v, nil
}

func (f formValues) int(key string) (int, error) {
	raw := f.get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", storefront.ErrInvalidInput, key)
	}
	return v, nil
}

func (f formValues) bool(key string) (bool, error) {
	raw := f.get(key)
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%w: %s must be true or false", storefront.ErrInvalidInput, key)
	}
	return v, nil
}

// list accepts a JSON array string, a comma separated list, or the field
// repeated once per value.
func (f formValues) list(key string) ([]string, error) {
	values := f[key]
	if len(values) == 1 && strings.HasPrefix(strings.TrimSpace(values[0]), "[") {
		var items []string
		if err := json.Unmarshal([]byte(values[0]), &items); err != nil {
			return nil, fmt.Errorf("%w: %s must be a JSON array of strings", storefront.ErrInvalidInput, key)
		}
		return trimAll(items), nil
	}

	var items []string
	for _, v := range values {
		items = append(items, strings.Split(v, ",")...)
	}
	return trimAll(items), nil
}

func trimAll(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func productInput(f formValues) (storefront.ProductInput, error) {
	var (
		in  storefront.ProductInput
		err error
	)

	in.Name = f.get("name")
	in.Description = f.get("description")
	in.Category = f.get("category")
	in.Brand = f.get("brand")
	in.Status = storefront.ProductStatus(f.get("status"))

	if in.Price, err = f.float("price"); err != nil {
		return in, err
	}
	if in.Stock, err = f.int("stock"); err != nil {
		return in, err
	}
	if in.Featured, err = f.bool("featured"); err != nil {
		return in, err
	}
	if in.Sizes, err = f.list("sizes"); err != nil {
		return in, err
	}
	if in.Colors, err = f.list("colors"); err != nil {
		return in, err
	}
	return in, nil
}

// productPatch sets only the fields present in the form.
func productPatch(f formValues) (storefront.ProductPatch, error) {
	var patch storefront.ProductPatch

	for key, dst := range map[string]**string{
		"name":        &patch.Name,
		"description": &patch.Description,
		"category":    &patch.Category,
		"brand":       &patch.Brand,
	} {
		if f.has(key) {
			v := f.get(key)
			*dst = &v
		}
	}

	if f.has("price") {
		v, err := f.float("price")
		if err != nil {
			return patch, err
		}
		patch.Price = &v
	}
	if f.has("stock") {
		v, err := f.int("stock")
		if err != nil {
			return patch, err
		}
		patch.Stock = &v
	}
	if f.has("featured") {
		v, err := f.bool("featured")
		if err != nil {
			return patch, err
		}
		patch.Featured = &v
	}
	if f.has("status") {
		status, err := storefront.ParseProductStatus(f.get("status"))
		if err != nil {
			return patch, err
		}
		patch.Status = &status
	}
	if f.has("sizes") {
		v, err := f.list("sizes")
		if err != nil {
			return patch, err
		}
		patch.Sizes = v
	}
	if f.has("colors") {
		v, err := f.list("colors")
		if err != nil {
			return patch, err
		}
		patch.Colors = v
	}
	return patch, nil
}
