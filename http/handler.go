package http

import (
	"context"
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sagarc03/storefront"
)

// AdminService is the account surface the admin routes call.
type AdminService interface {
	Register(ctx context.Context, in storefront.RegisterInput, files []storefront.UploadFile) (storefront.AuthResult, error)
	Login(ctx context.Context, email, password string) (storefront.AuthResult, error)
	Profile(ctx context.Context, id uuid.UUID) (storefront.Admin, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, in storefront.ProfileInput) (storefront.Admin, error)
	ChangePassword(ctx context.Context, id uuid.UUID, in storefront.PasswordChange) error
	UploadPicture(ctx context.Context, id uuid.UUID, files []storefront.UploadFile) (storefront.PictureResult, error)
}

// ProductService is the catalog surface the product routes call.
type ProductService interface {
	Create(ctx context.Context, createdBy uuid.UUID, in storefront.ProductInput, files []storefront.UploadFile) (storefront.Product, error)
	Get(ctx context.Context, id uuid.UUID) (storefront.Product, error)
	List(ctx context.Context, q storefront.ProductQuery) (storefront.Page[storefront.Product], error)
	Update(ctx context.Context, id uuid.UUID, patch storefront.ProductPatch, files []storefront.UploadFile) (storefront.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status storefront.ProductStatus) (storefront.Product, error)
	UpdateStock(ctx context.Context, id uuid.UUID, stock int) (storefront.Product, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled" yaml:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods" yaml:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers" yaml:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers" yaml:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials" yaml:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age" yaml:"max_age"`
}

const (
	// DefaultMaxUploadSize fits one main image and eight additional images
	// at the product size limit, plus form overhead.
	DefaultMaxUploadSize = 9*storefront.ProductMaxFileSize + 1<<20

	maxJSONBodySize = 1 << 20
)

type HandlerConfig struct {
	CORS CORSConfig
	// MaxUploadSize bounds a whole multipart request body.
	MaxUploadSize int64
	// Uploads is served under /uploads/ when set.
	Uploads fs.FS
	Logger  *slog.Logger
}

// Handler provides HTTP handlers for the admin and product APIs.
type Handler struct {
	config   HandlerConfig
	admins   AdminService
	products ProductService
	auth     Authenticator
}

// NewHandler creates a new Handler with the given configuration and services.
func NewHandler(config *HandlerConfig, admins AdminService, products ProductService, auth Authenticator) *Handler {
	cfg := *config
	if cfg.MaxUploadSize <= 0 {
		cfg.MaxUploadSize = DefaultMaxUploadSize
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Handler{
		config:   cfg,
		admins:   admins,
		products: products,
		auth:     auth,
	}
}

// Router returns an http.Handler with every route mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(RequestLogger(h.config.Logger))
	r.Use(MetricsMiddleware)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(notFound)
	r.MethodNotAllowed(methodNotAllowed)

	r.Get("/health", h.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	if h.config.Uploads != nil {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.FS(h.config.Uploads))))
	}

	r.Route("/admin", func(r chi.Router) {
		r.Post("/register", h.handleRegister)
		r.Post("/login", h.handleLogin)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.auth))
			r.Get("/profile", h.handleGetProfile)
			r.Put("/profile", h.handleUpdateProfile)
			r.Put("/change-password", h.handleChangePassword)
			r.Put("/upload-picture", h.handleUploadPicture)
		})
	})

	r.Route("/products", func(r chi.Router) {
		r.Get("/", h.handleListProducts)
		r.Get("/{id}", h.handleGetProduct)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.auth))
			r.Post("/", h.handleCreateProduct)
			r.Put("/{id}", h.handleUpdateProduct)
			r.Delete("/{id}", h.handleDeleteProduct)
			r.Patch("/{id}/status", h.handleUpdateStatus)
			r.Patch("/{id}/stock", h.handleUpdateStock)
		})
	})

	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	_ = WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// currentAdmin returns the admin AuthMiddleware stored on the request.
func currentAdmin(w http.ResponseWriter, r *http.Request) (storefront.Admin, bool) {
	admin, ok := AdminFromContext(r.Context())
	if !ok {
		HandleError(w, storefront.ErrUnauthorized)
	}
	return admin, ok
}
