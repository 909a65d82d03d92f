package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/mind-engage/mindengage-qti/internal/qti"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	BlobBasePath string

	AuthHMACSecret string
	AdminUser      string
	AdminPassHash  string // bcrypt
	// Offline installs run the editor API without login unless forced.
	RequireAuth bool

	CORSOrigins []string

	// Used for blank templates and projects created without content.
	DefaultQTIVersion qti.Version

	MaxUploadBytes int64
}

// Load reads an optional .env file, then the environment.
func Load(envFiles ...string) Config {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		log.Printf("config: %v; using process environment", err)
	}
	return FromEnv()
}

func FromEnv() Config {
	mode := Mode(envOr("MODE", string(ModeOffline)))
	v, err := qti.ParseVersion(envOr("DEFAULT_QTI_VERSION", string(qti.V21)))
	if err != nil {
		log.Printf("config: %v; using %s", err, qti.V21)
		v = qti.V21
	}
	origins := "http://localhost:3000,http://localhost:5173"
	if mode == ModeOnline {
		origins = "https://qti.mindengage.ai"
	}
	return Config{
		Mode:              mode,
		HTTPAddr:          envOr("HTTP_ADDR", ":8080"),
		DBDriver:          envOr("DB_DRIVER", "sqlite"),
		DBDSN:             envOr("DB_DSN", ""),
		BlobBasePath:      envOr("BLOB_BASE_PATH", "./data"),
		AuthHMACSecret:    envOr("AUTH_HMAC_SECRET", "dev-secret-change-me"),
		AdminUser:         envOr("ADMIN_USER", "admin"),
		AdminPassHash:     envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),
		RequireAuth:       envBool("REQUIRE_AUTH", mode == ModeOnline),
		CORSOrigins:       csvOr("CORS_ORIGINS", origins),
		DefaultQTIVersion: v,
		MaxUploadBytes:    int64(envInt("MAX_UPLOAD_MB", 20)) << 20,
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch strings.ToLower(os.Getenv(k)) {
	case "1", "true", "yes":
		return true
	case "0", "false", "no":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	n, err := strconv.Atoi(os.Getenv(k))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	parts := strings.Split(envOr(k, def), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
