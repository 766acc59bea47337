package config

import "os"

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	StateKey   string
}

type Telegram struct {
	BotToken string
	ChatID   string
}

type Config struct {
	PostgresURI       string
	RedisURI          string
	StateDir          string
	Timezone          string
	GraphAPIBase      string
	FacebookAppID     string
	FacebookAppSecret string
	R2                R2
	Telegram          Telegram
	SecretKey         string
	CookieName        string
	AdminAPIKey       string
	FirstComment      string
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:       getEnv("POSTGRES_URI", ""),
		RedisURI:          getEnv("REDIS_URI", ""),
		StateDir:          getEnv("STATE_DIR", "."),
		Timezone:          getEnv("SCHEDULER_TIMEZONE", "Asia/Kolkata"),
		GraphAPIBase:      getEnv("GRAPH_API_BASE", "https://graph.facebook.com/v19.0"),
		FacebookAppID:     getEnv("FACEBOOK_APP_ID", ""),
		FacebookAppSecret: getEnv("FACEBOOK_APP_SECRET", ""),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			StateKey:   getEnv("R2_STATE_KEY", "rotation_state.json"),
		},
		Telegram: Telegram{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
		},
		SecretKey:    getEnv("SECRET_KEY", ""),
		CookieName:   getEnv("COOKIE_NAME", ""),
		AdminAPIKey:  getEnv("ADMIN_API_KEY", ""),
		FirstComment: getEnv("DEFAULT_FIRST_COMMENT", "Follow for more daily content!"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
