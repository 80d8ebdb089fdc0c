package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sleepoutside/backend/internal/middleware"
)

// Routes groups every handler the API serves.
type Routes struct {
	Catalog   *CatalogHandler
	Cart      *CartHandler
	Checkout  *CheckoutHandler
	Inventory *InventoryHandler
	Auth      *AuthHandler
	Images    *ImageHandler
	Events    *EventsHandler

	// Admin guards inventory writes and uploads.
	Admin func(http.Handler) http.Handler

	AllowedOrigins []string
	UploadDir      string
}

func NewRouter(rt Routes) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	origins := rt.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	admin := rt.Admin
	if admin == nil {
		admin = middleware.AdminAuth()
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/products/{category}", func(r chi.Router) {
			r.Get("/", rt.Catalog.ListProducts)
			r.Get("/suggestions", rt.Catalog.Suggestions)
			r.Get("/price-range", rt.Catalog.PriceRange)
			r.Get("/{productId}", rt.Catalog.GetProduct)
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", rt.Cart.GetCart)
			r.Delete("/", rt.Cart.ClearCart)
			r.Post("/items", rt.Cart.AddItem)
			r.Put("/items/{itemId}", rt.Cart.SetQuantity)
			r.Delete("/items/{itemId}", rt.Cart.RemoveItem)
		})

		r.Post("/checkout/validate-field", rt.Checkout.ValidateField)
		r.Post("/checkout", rt.Checkout.Submit)

		r.Post("/auth/login", rt.Auth.Login)

		r.Route("/inventory", func(r chi.Router) {
			r.Get("/", rt.Inventory.ListRecords)
			r.Post("/validate-field", rt.Inventory.ValidateField)
			r.Get("/{category}/{recordId}", rt.Inventory.GetRecord)

			// Protected routes
			r.Group(func(r chi.Router) {
				r.Use(admin)
				r.Post("/", rt.Inventory.CreateRecord)
				r.Get("/{category}/export", rt.Inventory.Export)
				r.Post("/{category}/import", rt.Inventory.Import)
				r.Put("/{category}/{recordId}", rt.Inventory.UpdateRecord)
				r.Delete("/{category}/{recordId}", rt.Inventory.DeleteRecord)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(admin)
			r.Post("/upload", rt.Images.Upload)
			r.Delete("/upload/{imageId}", rt.Images.Delete)
		})

		r.Get("/events", rt.Events.Stream)
	})

	if rt.UploadDir != "" {
		r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(rt.UploadDir))))
	}

	return r
}
