package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/GeoAtlas/Region-Backend/internal/auth"
	"github.com/GeoAtlas/Region-Backend/internal/config"
	"github.com/GeoAtlas/Region-Backend/internal/db"
	"github.com/GeoAtlas/Region-Backend/internal/geocoding"
	"github.com/GeoAtlas/Region-Backend/internal/middleware"
	"github.com/GeoAtlas/Region-Backend/internal/regions"
	"github.com/GeoAtlas/Region-Backend/internal/users"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}

	db.Connect()

	users.Init()
	auth.Init()
	regions.Init()

	geocoder := buildGeocoder(cfg)

	userSvc := users.NewService(db.DB, geocoder)
	regionSvc := regions.NewService(db.DB)

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))
	if cfg.RateLimit.Enabled {
		r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}
	r.Get("/", RootHandler)

	r.Mount("/auth", auth.SetupRoutes(userSvc))

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(auth.TokenInfo{}))
		r.Mount("/users", users.SetupRoutes(userSvc))
		r.Mount("/regions", regions.SetupRoutes(regionSvc))
	})

	log.Printf("Server listening on port :%s...", cfg.Server.Port)

	if err := http.ListenAndServe("0.0.0.0:"+cfg.Server.Port, r); err != nil {
		log.Fatal("Server failed: ", err)
	}
}

// buildGeocoder wires the Google client, wrapping it in the Redis cache when a
// Redis URL is configured. Returns nil when no API key is set; user writes
// that need geocoding fail with a client error in that case.
func buildGeocoder(cfg *config.Config) geocoding.Resolver {
	client, err := geocoding.NewClient(time.Duration(cfg.Geocoding.TimeoutSeconds) * time.Second)
	if err != nil {
		log.Fatal("Failed to create geocoding client: ", err)
	}
	if client == nil {
		log.Println("[geocoding] GOOGLE_MAPS_API_KEY not set, geocoding disabled")
		return nil
	}

	if cfg.Redis.URL == "" {
		return client
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		log.Fatal("Failed to parse REDIS_URL: ", err)
	}
	rc := redis.NewClient(opts)
	log.Println("[geocoding] Redis cache enabled")
	return geocoding.NewCached(client, rc, time.Duration(cfg.Redis.TTLSeconds)*time.Second)
}
