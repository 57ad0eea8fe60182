package config

import "os"

type Config struct {
	Addr        string
	DataDir     string
	APIBase     string
	JWTSecret   string
	AdminSecret string
	LogLevel    string
}

func Load() Config {
	return Config{
		Addr:        getenv("STOREFRONT_ADDR", ":8080"),
		DataDir:     getenv("STOREFRONT_DATA_DIR", "./data"),
		APIBase:     getenv("MOOL_API_BASE", "https://moon-granth-backend.vercel.app/api"),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		AdminSecret: getenv("ADMIN_SECRET", "admin123"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
