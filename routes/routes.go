package routes

import (
	"net/http"

	_ "github.com/Dosada05/tournament-ladder/docs" // регистрирует swagger-спецификацию
	"github.com/Dosada05/tournament-ladder/handlers"
	"github.com/Dosada05/tournament-ladder/middleware"
	"github.com/Dosada05/tournament-ladder/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Handlers struct {
	Auth       *handlers.AuthHandler
	Tournament *handlers.TournamentHandler
	Match      *handlers.MatchHandler
	Player     *handlers.PlayerHandler
	WebSocket  *handlers.WebSocketHandler
}

type Options struct {
	JWTSecret      string
	AllowedOrigins []string
}

func SetupRoutes(h Handlers, opts Options) http.Handler {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(opts.JWTSecret)
	adminOnly := middleware.Authorize(models.RoleAdmin)

	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	router.Get("/ws/tournaments/{name}", h.WebSocket.ServeWs)

	router.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.Auth.Register)
			r.Post("/login", h.Auth.Login)
			r.Post("/otp/request", h.Auth.RequestCode)
			r.Post("/otp/verify", h.Auth.VerifyCode)
		})

		r.Route("/tournaments", func(r chi.Router) {
			r.Get("/{name}", h.Tournament.GetHandler)

			r.Group(func(r chi.Router) {
				r.Use(authenticate)
				r.Post("/", h.Tournament.CreateHandler)
				r.Post("/{name}/players", h.Tournament.RegisterPlayerHandler)

				r.With(adminOnly).Post("/{name}/rounds", h.Tournament.GenerateRoundHandler)
			})
		})

		r.Route("/players/{name}", func(r chi.Router) {
			r.Get("/", h.Player.GetProfile)
			r.With(authenticate).Patch("/", h.Player.UpdateProfile)
		})

		r.Route("/matches/{matchID}", func(r chi.Router) {
			r.Get("/", h.Match.GetHandler)

			r.Group(func(r chi.Router) {
				r.Use(authenticate, adminOnly)
				r.Patch("/", h.Match.ApplyResultHandler)
				r.Post("/ratings", h.Match.UpdateRatingsHandler)
			})
		})
	})

	return router
}
