// Package storefront собирает HTTP-приложение витрины: хранилище, кэш,
// брокер уведомлений, сервисы и маршруты.
package storefront

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/storefront/internal/http/handlers/admin/addproduct"
	"github.com/magabrotheeeer/storefront/internal/http/handlers/admin/dashboard"
	"github.com/magabrotheeeer/storefront/internal/http/handlers/admin/orders"
	"github.com/magabrotheeeer/storefront/internal/http/handlers/admin/servicerequests"
	"github.com/magabrotheeeer/storefront/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/storefront/internal/http/handlers/auth/logout"
	"github.com/magabrotheeeer/storefront/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/storefront/internal/http/handlers/cart/add"
	"github.com/magabrotheeeer/storefront/internal/http/handlers/cart/view"
	"github.com/magabrotheeeer/storefront/internal/http/handlers/catalog/list"
	"github.com/magabrotheeeer/storefront/internal/http/handlers/checkout"
	"github.com/magabrotheeeer/storefront/internal/http/handlers/servicerequest/create"
	"github.com/magabrotheeeer/storefront/internal/http/middlewarectx"
	authservices "github.com/magabrotheeeer/storefront/internal/services/auth"
	cartservices "github.com/magabrotheeeer/storefront/internal/services/cart"
	catalogservices "github.com/magabrotheeeer/storefront/internal/services/catalog"
	checkoutservices "github.com/magabrotheeeer/storefront/internal/services/checkout"
	requestservices "github.com/magabrotheeeer/storefront/internal/services/servicerequest"
)

// Лимит попыток входа с одного экземпляра сервера.
const (
	loginRPS   = rate.Limit(1)
	loginBurst = 3
)

// Services набор сервисов, которые обслуживают маршруты.
type Services struct {
	Auth           *authservices.AuthService
	Catalog        *catalogservices.CatalogService
	Cart           *cartservices.CartService
	Checkout       *checkoutservices.CheckoutService
	ServiceRequest *requestservices.ServiceRequestService
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, svc Services) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, svc.Auth).ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.RateLimitMiddleware(logger, loginRPS, loginBurst))
			r.Post("/login", login.New(logger, svc.Auth).ServeHTTP)
			r.Post("/admin/login", login.NewAdmin(logger, svc.Auth).ServeHTTP)
		})

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(svc.Auth, logger))
			r.Post("/logout", logout.New(logger, svc.Auth).ServeHTTP)
			r.Get("/products", list.New(logger, svc.Catalog).ServeHTTP)
			r.Post("/cart/items/{id}", add.New(logger, svc.Cart).ServeHTTP)
			r.Get("/cart", view.New(logger, svc.Cart).ServeHTTP)
			r.Post("/checkout", checkout.New(logger, svc.Checkout).ServeHTTP)
			r.Post("/service-requests", create.New(logger, svc.ServiceRequest).ServeHTTP)

			// Админка
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminMiddleware(logger))
				r.Get("/admin/dashboard", dashboard.New(logger, svc.Catalog).ServeHTTP)
				r.Post("/admin/products", addproduct.New(logger, svc.Catalog).ServeHTTP)
				r.Get("/admin/stock", list.NewStock(logger, svc.Catalog).ServeHTTP)
				r.Get("/admin/orders", orders.New(logger, svc.Catalog).ServeHTTP)
				r.Get("/admin/service-requests", servicerequests.New(logger, svc.Catalog).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
