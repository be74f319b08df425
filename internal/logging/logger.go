package logging

import (
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// LoadDotEnv loads .env outside release mode. In production, environment variables are set directly.
func LoadDotEnv() error {
	if os.Getenv("GIN_MODE") == "release" {
		return nil
	}
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		return nil
	}
	return godotenv.Load()
}

// New returns the production JSON logger in release mode and the development logger otherwise.
func New(release bool) (*zap.Logger, error) {
	if release {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
