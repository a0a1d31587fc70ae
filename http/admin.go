package http

import (
	"net/http"

	"github.com/sagarc03/storefront"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// handleRegister accepts multipart (with an optional picture) or a plain
// JSON body.
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var (
		in    storefront.RegisterInput
		files []storefront.UploadFile
	)

	if isMultipart(r) {
		if err := parseMultipart(w, r, h.config.MaxUploadSize); err != nil {
			HandleError(w, err)
			return
		}
		defer cleanupMultipart(r)

		form := formValues(r.MultipartForm.Value)
		in = storefront.RegisterInput{
			Name:     form.get("name"),
			Email:    form.get("email"),
			Password: form.get("password"),
		}
		files = uploadFiles(r.MultipartForm)
	} else if err := decodeJSON(w, r, maxJSONBodySize, &in); err != nil {
		HandleError(w, err)
		return
	}

	result, err := h.admins.Register(r.Context(), in, files)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, maxJSONBodySize, &req); err != nil {
		HandleError(w, err)
		return
	}

	result, err := h.admins.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentAdmin(w, r)
	if !ok {
		return
	}

	profile, err := h.admins.Profile(r.Context(), admin.ID)
	if err != nil {
		HandleError(w, err)
		return
	}

	_ = WriteJSON(w, http.StatusOK, profile)
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentAdmin(w, r)
	if !ok {
		return
	}

	var in storefront.ProfileInput
	if err := decodeJSON(w, r, maxJSONBodySize, &in); err != nil {
		HandleError(w, err)
		return
	}

	updated, err := h.admins.UpdateProfile(r.Context(), admin.ID, in)
	if err != nil {
		HandleError(w, err)
		return
	}
	h.auth.Forget(admin.ID)

	_ = WriteJSON(w, http.StatusOK, updated)
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentAdmin(w, r)
	if !ok {
		return
	}

	var in storefront.PasswordChange
	if err := decodeJSON(w, r, maxJSONBodySize, &in); err != nil {
		HandleError(w, err)
		return
	}

	if err := h.admins.ChangePassword(r.Context(), admin.ID, in); err != nil {
		HandleError(w, err)
		return
	}
	h.auth.Forget(admin.ID)

	_ = WriteJSON(w, http.StatusOK, MessageResponse{Message: "password updated"})
}

func (h *Handler) handleUploadPicture(w http.ResponseWriter, r *http.Request) {
	admin, ok := currentAdmin(w, r)
	if !ok {
		return
	}

	if err := parseMultipart(w, r, h.config.MaxUploadSize); err != nil {
		HandleError(w, err)
		return
	}
	defer cleanupMultipart(r)

	result, err := h.admins.UploadPicture(r.Context(), admin.ID, uploadFiles(r.MultipartForm))
	if err != nil {
		HandleError(w, err)
		return
	}
	h.auth.Forget(admin.ID)

	_ = WriteJSON(w, http.StatusOK, result)
}
