package api

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/hugh/hostel-hunter/internal/accounts"
	"github.com/hugh/hostel-hunter/internal/api/handlers"
	"github.com/hugh/hostel-hunter/internal/api/middleware"
	"github.com/hugh/hostel-hunter/internal/auth"
	"github.com/hugh/hostel-hunter/internal/catalog"
	"github.com/hugh/hostel-hunter/internal/intake"
	"github.com/hugh/hostel-hunter/internal/profiles"
	"github.com/hugh/hostel-hunter/internal/tokens"
	"github.com/hugh/hostel-hunter/internal/web"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Router struct {
	chi.Router
}

type RouterConfig struct {
	DB     *gorm.DB
	Redis  *redis.Client // optional; enables shared rate limits and CSRF tokens
	Logger *slog.Logger

	JWTService   *auth.JWTService
	AuthService  *auth.Service
	Accounts     *accounts.Service
	Catalog      *catalog.Service
	Profiles     *profiles.Service
	Intake       *intake.Service
	Invitations  *tokens.Invitations
	EmailChanges *tokens.EmailChanges
	Google       handlers.ClaimVerifier // optional
	OAuth        *auth.OAuthFlow        // optional
	Pages        *web.Pages

	AllowedOrigins []string
	RateLimitReqs  int
	RateLimitSecs  int
	SecureCookies  bool
	MaxAvatarBytes int64
}

func NewRouter(cfg RouterConfig) *Router {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.Logging(cfg.Logger))

	if cfg.RateLimitReqs > 0 {
		var limiter middleware.Limiter
		if cfg.Redis != nil {
			limiter = middleware.NewRedisLimiter(cfg.Redis, cfg.RateLimitReqs, cfg.RateLimitSecs)
		} else {
			limiter = middleware.NewMemoryLimiter(cfg.RateLimitReqs, cfg.RateLimitSecs)
		}
		r.Use(middleware.RateLimit(limiter, cfg.Logger))
	}

	allowedOrigins := cfg.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:3000", "http://localhost:8080"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var csrfStore middleware.CSRFStore
	if cfg.Redis != nil {
		csrfStore = middleware.NewRedisCSRFStore(cfg.Redis)
	} else {
		csrfStore = middleware.NewMemoryCSRFStore()
	}

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Redis)
	authHandler := handlers.NewAuthHandler(handlers.AuthHandlerConfig{
		Auth:          cfg.AuthService,
		Accounts:      cfg.Accounts,
		Google:        cfg.Google,
		OAuth:         cfg.OAuth,
		SessionExpiry: sessionExpiry(cfg.JWTService),
		SecureCookies: cfg.SecureCookies,
		Logger:        cfg.Logger,
	})
	hostelHandler := handlers.NewHostelHandler(cfg.Catalog, cfg.Intake, cfg.Logger)
	intakeHandler := handlers.NewIntakeHandler(cfg.Intake, cfg.Logger)
	meHandler := handlers.NewMeHandler(cfg.Profiles, cfg.Accounts, cfg.Catalog, cfg.MaxAvatarBytes, cfg.Logger)
	adminHandler := handlers.NewAdminHandler(cfg.Catalog, cfg.Invitations, cfg.Intake, cfg.Logger)

	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	r.Get("/auth/google/start", authHandler.GoogleStart)
	r.Get("/auth/google/callback", authHandler.GoogleCallback)

	if cfg.Pages != nil {
		pageHandler := handlers.NewPageHandler(cfg.Pages, cfg.Invitations, cfg.EmailChanges, cfg.Logger)
		r.Get("/reviews/{token}", pageHandler.ReviewForm)
		r.Post("/reviews/{token}", pageHandler.SubmitReview)
		r.Get("/account/email/verify/{token}", pageHandler.VerifyEmail)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Post("/auth/logout", authHandler.Logout)
		r.Post("/auth/google", authHandler.Google)

		r.Route("/hostels", func(r chi.Router) {
			r.Get("/", hostelHandler.Search)
			r.Get("/compare", hostelHandler.Compare)
			r.Get("/{slug}", hostelHandler.Get)
			r.Post("/{slug}/inquiries", hostelHandler.Inquire)
		})

		r.Post("/contact", intakeHandler.Contact)
		r.With(middleware.OptionalAuth(cfg.JWTService)).Post("/property-listings", intakeHandler.PropertyListing)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWTService))
			r.Use(middleware.CSRF(csrfStore, cfg.Logger))

			r.Route("/me", func(r chi.Router) {
				r.Get("/", meHandler.Get)
				r.Put("/", meHandler.Update)
				r.Delete("/", meHandler.Delete)
				r.Post("/deactivate", meHandler.Deactivate)
				r.Put("/username", meHandler.ChangeUsername)
				r.Put("/email", meHandler.ChangeEmail)
				r.Post("/avatar", meHandler.UploadAvatar)
				r.Get("/roommate", meHandler.GetRoommate)
				r.Put("/roommate", meHandler.SaveRoommate)
				r.Get("/favorites", meHandler.Favorites)
				r.Post("/favorites/{slug}", meHandler.ToggleFavorite)
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireStaff)

				r.Post("/hostels", adminHandler.CreateHostel)
				r.Put("/hostels/{slug}", adminHandler.UpdateHostel)
				r.Delete("/hostels/{slug}", adminHandler.DeleteHostel)

				r.Get("/invitations", adminHandler.ListInvitations)
				r.Post("/invitations", adminHandler.CreateInvitation)

				r.Get("/inquiries/contact", adminHandler.ListContacts)
				r.Delete("/inquiries/contact/{id}", adminHandler.DeleteContact)
				r.Get("/inquiries/hostel", adminHandler.ListHostelInquiries)
				r.Delete("/inquiries/hostel/{id}", adminHandler.DeleteHostelInquiry)

				r.Get("/property-listings", adminHandler.ListPropertyListings)
				r.Put("/property-listings/{id}/reply", adminHandler.ReplyToPropertyListing)
				r.Delete("/property-listings/{id}", adminHandler.DeletePropertyListing)
			})
		})
	})

	return &Router{r}
}

func sessionExpiry(j *auth.JWTService) time.Duration {
	if j == nil {
		return 24 * time.Hour
	}
	return j.Expiry()
}
