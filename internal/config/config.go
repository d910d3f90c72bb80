package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"voice-quiz-service/internal/domain"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"server"`
	Redis struct {
		Addr       string `yaml:"addr"`
		Password   string `yaml:"password"`
		DB         int    `yaml:"db"`
		HistoryTTL string `yaml:"historyTtl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	AMQP struct {
		URL      string `yaml:"url"`
		Exchange string `yaml:"exchange"`
	} `yaml:"amqp"`
	Dataset struct {
		ID   string `yaml:"id"`
		Path string `yaml:"path"`
		TTL  string `yaml:"ttl"`
	} `yaml:"dataset"`
	Session struct {
		TTL string `yaml:"ttl"`
	} `yaml:"session"`
	Quiz Quiz `yaml:"quiz"`
}

// Quiz holds the game settings handed to the quiz engine.
type Quiz struct {
	AllowRetry         bool                  `yaml:"allowRetry"`
	NumToPass          int                   `yaml:"numToPass"`
	WelcomeBackMaxTime string                `yaml:"welcomeBackMaxTime"`
	ImageURL           string                `yaml:"imageURL"`
	AudioURL           string                `yaml:"audioURL"`
	CanvasURL          string                `yaml:"canvasURL"`
	FeedbackThresholds []FeedbackThreshold   `yaml:"feedbackThresholds"`
	Ordering           domain.OrderingConfig `yaml:"ordering"`
}

// FeedbackThreshold maps a maximum score to a feedback phrase key.
type FeedbackThreshold struct {
	Score int    `yaml:"score"`
	Reply string `yaml:"reply"`
}

// Default returns the settings used for any key the YAML file leaves out.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.AMQP.Exchange = "quiz.events"
	cfg.Dataset.ID = "default"
	cfg.Dataset.Path = "data/quiz.json"
	cfg.Dataset.TTL = "10m"
	cfg.Session.TTL = "30m"
	cfg.Quiz = Quiz{
		AllowRetry:         true,
		NumToPass:          7,
		WelcomeBackMaxTime: "168h",
		FeedbackThresholds: []FeedbackThreshold{
			{Score: 3, Reply: "feedback low"},
			{Score: 7, Reply: "feedback mid"},
			{Score: 10, Reply: "feedback high"},
		},
		Ordering: domain.OrderingConfig{
			RandomizeOrder:   true,
			PrioritizeUnseen: true,
			PrioritizeWrong:  true,
			NumQuestions:     10,
		},
	}
	return cfg
}

// Load reads YAML config from path on top of Default.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
