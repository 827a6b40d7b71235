package config

import (
	"log"
	"os"
	"strconv"
)

type Config struct {
	Port          string
	DBDSN         string
	MediaDir      string
	LogFile       string
	MaxImageBytes int64
}

func Load() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		dsn = "shopkeep.db"
	} // sqlite file in project root
	media := os.Getenv("MEDIA_DIR")
	if media == "" {
		media = "./web/media"
	}
	logFile := os.Getenv("LOG_FILE")
	if logFile == "" {
		logFile = "./shopkeep.log"
	}
	maxImage := int64(2 << 20) // matches the form rule: images up to 2 MiB
	if v := os.Getenv("MAX_IMAGE_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			maxImage = n
		}
	}

	cfg := Config{Port: port, DBDSN: dsn, MediaDir: media, LogFile: logFile, MaxImageBytes: maxImage}
	log.Printf("[config] PORT=%s DB_DSN=%s MEDIA_DIR=%s LOG_FILE=%s MAX_IMAGE_BYTES=%d",
		cfg.Port, cfg.DBDSN, cfg.MediaDir, cfg.LogFile, cfg.MaxImageBytes)
	return cfg
}
