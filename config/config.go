package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

// devJWTSecret is only accepted when APP_ENV=dev.
const devJWTSecret = "insecure-dev-secret"

type Config struct {
	Port     string `env:"PORT,default=8080"`
	Env      string `env:"APP_ENV,default=prod"`
	LogLevel string `env:"LOG_LEVEL,default=info"`

	MongoURI      string `env:"MONGODB_URI"`
	MongoDatabase string `env:"MONGODB_DATABASE,default=aiinspire"`

	JWTSecret string        `env:"JWT_SECRET"`
	JWTTTL    time.Duration `env:"JWT_TTL,default=168h"`

	CORSOrigins []string `env:"CORS_ORIGINS,default=http://localhost:3000"`

	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS,default=10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST,default=30"`

	UploadDir     string `env:"UPLOAD_DIR,default=./uploads"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`

	VAPIDPublicKey  string `env:"VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"VAPID_PRIVATE_KEY"`
	VAPIDSubject    string `env:"VAPID_SUBJECT,default=mailto:admin@example.com"`

	CloudinaryURL string `env:"CLOUDINARY_URL"`

	MembershipSweepSpec string `env:"MEMBERSHIP_SWEEP_SPEC,default=@every 1h"`
}

// Load reads an optional .env file and decodes the environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			if err := godotenv.Load(f); err != nil {
				return nil, err
			}
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, err
	}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) finish() error {
	c.Env = strings.ToLower(c.Env)
	if c.MongoURI == "" {
		if !c.IsDev() {
			return errors.New("MONGODB_URI must be set")
		}
		c.MongoURI = "mongodb://127.0.0.1:27017"
	}
	if c.JWTSecret == "" {
		if !c.IsDev() {
			return errors.New("JWT_SECRET must be set")
		}
		c.JWTSecret = devJWTSecret
	}
	for i, o := range c.CORSOrigins {
		c.CORSOrigins[i] = strings.TrimSpace(o)
	}
	return nil
}

func (c *Config) IsDev() bool {
	return c.Env == EnvDev
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
