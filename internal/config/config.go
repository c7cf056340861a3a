package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port      string
	DBDSN     string
	JWTSecret string
	LogFile   string

	// SMTP settings for the verification mailer. Empty host means
	// notifications go to the log instead.
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string
}

func Load() Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "shopbill.db" // sqlite file in project root
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "dev-only-insecure-secret"
		log.Printf("[config] JWT_SECRET not set, using insecure dev default")
	}
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./shopbill.log"
	}
	smtpPort := 587
	if v := os.Getenv("SMTP_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			smtpPort = n
		}
	}

	cfg := Config{
		Port:      port,
		DBDSN:     dsn,
		JWTSecret: secret,
		LogFile:   logFile,
		SMTPHost:  os.Getenv("SMTP_HOST"),
		SMTPPort:  smtpPort,
		SMTPUser:  os.Getenv("SMTP_USER"),
		SMTPPass:  os.Getenv("SMTP_PASS"),
		MailFrom:  os.Getenv("MAIL_FROM"),
	}
	log.Printf("[config] PORT=%s DB_DSN=%s LOG_FILE=%s SMTP_HOST=%s", cfg.Port, cfg.DBDSN, cfg.LogFile, cfg.SMTPHost)
	return cfg
}
