package config

import (
	"log"
	"os"
	"strconv"
)

// App holds the runtime configuration loaded from environment variables.
type App struct {
	Env         string
	Port        string
	MongoURI    string
	MongoDB     string
	EmailDomain string
	UploadDir   string

	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string
}

// Load returns application config populated from environment variables with
// sensible defaults.
func Load() App {
	return App{
		Env:         getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "3000"),
		MongoURI:    getEnv("MONGODB_URI", "mongodb://localhost:27017"),
		MongoDB:     getEnv("MONGODB_NAME", "gucollab"),
		EmailDomain: getEnv("EMAIL_DOMAIN", "geetauniversity.edu.in"),
		UploadDir:   getEnv("UPLOAD_DIR", "uploads"),
		SMTPHost:    getEnv("EMAIL_HOST", "smtp.gmail.com"),
		SMTPPort:    intEnv("EMAIL_PORT", 587),
		SMTPUser:    os.Getenv("EMAIL_USER"),
		SMTPPass:    os.Getenv("EMAIL_PASS"),
		MailFrom:    getEnv("EMAIL_FROM", os.Getenv("EMAIL_USER")),
	}
}

// Development reports whether the app runs with development affordances
// (OTP echoed in responses, verbose error detail).
func (a App) Development() bool {
	return a.Env == "development" || a.Env == "dev"
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func intEnv(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			log.Printf("invalid int for %s: %v, using fallback %d", key, err, fallback)
			return fallback
		}
		return parsed
	}
	return fallback
}
