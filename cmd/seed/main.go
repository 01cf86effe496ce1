package main

import (
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// Seeds a demo user and one region around Avenida Paulista so the point and
// proximity endpoints have something to hit on a fresh database. Run the
// server once first so the schema exists.
func main() {
	_ = godotenv.Load(".env.local")

	email := flag.String("email", "demo@region-backend.local", "demo user email")
	password := flag.String("password", "demo-pass", "demo user password")
	flag.Parse()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL is empty")
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatal("Failed to open database: ", err)
	}
	defer db.Close()

	userID, err := seedUser(db, *email, *password)
	if err != nil {
		log.Fatal("Failed to seed user: ", err)
	}
	fmt.Println("demo user:", userID)

	regionID, err := seedRegion(db, userID)
	if err != nil {
		log.Fatal("Failed to seed region: ", err)
	}
	fmt.Println("demo region:", regionID)
}

func seedUser(db *sql.DB, email, password string) (string, error) {
	var id string
	err := db.QueryRow(`SELECT id FROM app_auth.users WHERE email = $1`, email).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	id = uuid.NewString()
	_, err = db.Exec(`
		INSERT INTO app_auth.users (id, name, email, hashed_password, lng, lat, created_at, updated_at)
		VALUES ($1, 'Demo User', $2, $3, -46.633308, -23.55052, now(), now())`,
		id, email, string(hashed))
	return id, err
}

func seedRegion(db *sql.DB, userID string) (string, error) {
	var id string
	err := db.QueryRow(`SELECT id FROM geo.regions WHERE name = 'Paulista Demo'`).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", err
	}

	polygon := map[string]any{
		"type": "Polygon",
		"coordinates": [][][2]float64{{
			{-46.633308, -23.55052},
			{-46.633308, -23.54052},
			{-46.623308, -23.54052},
			{-46.623308, -23.55052},
			{-46.633308, -23.55052},
		}},
	}
	geo, err := json.Marshal(polygon)
	if err != nil {
		return "", err
	}

	id = uuid.NewString()
	_, err = db.Exec(`
		INSERT INTO geo.regions (id, name, geometry, user_id, created_at, updated_at)
		VALUES ($1, 'Paulista Demo', ST_SetSRID(ST_GeomFromGeoJSON($2), 4326), $3, now(), now())`,
		id, string(geo), userID)
	return id, err
}
