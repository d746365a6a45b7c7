package config

import (
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config armazena a configuração da aplicação
type Config struct {
	ServerPort     int           `envconfig:"SERVER_PORT" default:"8080"`
	DatabaseURL    string        `envconfig:"DATABASE_URL" required:"true"`
	SessionSecret  string        `envconfig:"SESSION_SECRET" required:"true"`
	UploadDir      string        `envconfig:"UPLOAD_DIR" default:"uploads"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	FrontendOrigin string        `envconfig:"FRONTEND_ORIGIN" default:"http://localhost:3000"`
}

// Load carrega a configuração das variáveis de ambiente
func Load(cfg *Config) error {
	return envconfig.Process("", cfg)
}
