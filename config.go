package main

import "os"

type Config struct {
	Addr       string
	DataDir    string
	JWTKeyPath string
	LedgerURL  string // empty disables score posting
	LogLevel   string
}

func GetConfig() Config {
	return Config{
		Addr:       getEnv("PONG_ADDR", ":8080"),
		DataDir:    getEnv("PONG_DATA_DIR", "data"),
		JWTKeyPath: getEnv("PONG_JWT_KEY", "data/jwt.key"),
		LedgerURL:  getEnv("PONG_LEDGER_URL", ""),
		LogLevel:   getEnv("PONG_LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
