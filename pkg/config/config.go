package config

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	OpenAI   OpenAIConfig
	Engine   EngineConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

type OpenAIConfig struct {
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float32
	MaxTokens   int
}

// ConfidenceWeights blends the five confidence factors. The five weights must
// sum to 1.0; anything else is a fatal configuration error.
type ConfidenceWeights struct {
	Retrieval      float64
	Coverage       float64
	ModelCertainty float64
	Recency        float64
	SourceTrust    float64
}

type EngineConfig struct {
	TopK               int
	MinRelevance       float64
	LexicalWeight      float64
	SemanticWeight     float64
	SecondSourceMargin float64
	RecencyHalfLife    time.Duration
	Weights            ConfidenceWeights
	HighThreshold      float64
	MidThreshold       float64
	ArticleLinkBase    string
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables win in Docker/K8s.
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))
	genTimeout, _ := strconv.Atoi(getEnv("OPENAI_TIMEOUT_SECONDS", "10"))
	maxTokens, _ := strconv.Atoi(getEnv("OPENAI_MAX_TOKENS", "500"))
	topK, _ := strconv.Atoi(getEnv("RETRIEVAL_TOP_K", "5"))
	halfLifeDays, _ := strconv.Atoi(getEnv("RECENCY_HALF_LIFE_DAYS", "180"))

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "kinto"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "change-me-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		OpenAI: OpenAIConfig{
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Timeout:     time.Duration(genTimeout) * time.Second,
			Temperature: float32(getEnvFloat("OPENAI_TEMPERATURE", 0.3)),
			MaxTokens:   maxTokens,
		},
		Engine: EngineConfig{
			TopK:               topK,
			MinRelevance:       getEnvFloat("RETRIEVAL_MIN_RELEVANCE", 0.25),
			LexicalWeight:      getEnvFloat("RETRIEVAL_LEXICAL_WEIGHT", 0.55),
			SemanticWeight:     getEnvFloat("RETRIEVAL_SEMANTIC_WEIGHT", 0.45),
			SecondSourceMargin: getEnvFloat("SECOND_SOURCE_MARGIN", 0.1),
			RecencyHalfLife:    time.Duration(halfLifeDays) * 24 * time.Hour,
			Weights: ConfidenceWeights{
				Retrieval:      getEnvFloat("CONFIDENCE_WEIGHT_RETRIEVAL", 0.2),
				Coverage:       getEnvFloat("CONFIDENCE_WEIGHT_COVERAGE", 0.2),
				ModelCertainty: getEnvFloat("CONFIDENCE_WEIGHT_CERTAINTY", 0.2),
				Recency:        getEnvFloat("CONFIDENCE_WEIGHT_RECENCY", 0.2),
				SourceTrust:    getEnvFloat("CONFIDENCE_WEIGHT_TRUST", 0.2),
			},
			HighThreshold:   getEnvFloat("CONFIDENCE_HIGH_THRESHOLD", 0.8),
			MidThreshold:    getEnvFloat("CONFIDENCE_MID_THRESHOLD", 0.5),
			ArticleLinkBase: getEnv("ARTICLE_LINK_BASE", "/help/articles/"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects malformed tuning at startup so a bad weight set can never
// become a per-request error.
func (c *Config) Validate() error {
	w := c.Engine.Weights
	sum := w.Retrieval + w.Coverage + w.ModelCertainty + w.Recency + w.SourceTrust
	if math.Abs(sum-1.0) > 1e-9 {
		return fmt.Errorf("confidence weights must sum to 1.0, got %.6f", sum)
	}
	for name, v := range map[string]float64{
		"retrieval": w.Retrieval,
		"coverage":  w.Coverage,
		"certainty": w.ModelCertainty,
		"recency":   w.Recency,
		"trust":     w.SourceTrust,
	} {
		if v < 0 {
			return fmt.Errorf("confidence weight %s must be non-negative, got %f", name, v)
		}
	}

	if c.Engine.HighThreshold <= c.Engine.MidThreshold {
		return fmt.Errorf("high threshold (%.2f) must exceed mid threshold (%.2f)",
			c.Engine.HighThreshold, c.Engine.MidThreshold)
	}
	if c.Engine.HighThreshold > 1 || c.Engine.MidThreshold < 0 {
		return fmt.Errorf("confidence thresholds must lie in [0,1]")
	}

	blend := c.Engine.LexicalWeight + c.Engine.SemanticWeight
	if math.Abs(blend-1.0) > 1e-9 {
		return fmt.Errorf("retrieval blend weights must sum to 1.0, got %.6f", blend)
	}
	if c.Engine.MinRelevance < 0 || c.Engine.MinRelevance >= 1 {
		return fmt.Errorf("retrieval relevance floor must lie in [0,1), got %f", c.Engine.MinRelevance)
	}
	if c.Engine.TopK <= 0 {
		return fmt.Errorf("retrieval top-k must be positive, got %d", c.Engine.TopK)
	}
	if c.Engine.SecondSourceMargin < 0 {
		return fmt.Errorf("second source margin must be non-negative, got %f", c.Engine.SecondSourceMargin)
	}
	if c.Engine.RecencyHalfLife <= 0 {
		return fmt.Errorf("recency half-life must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
