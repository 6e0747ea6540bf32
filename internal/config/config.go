package config

import (
	"errors"
	"os"
	"strconv"
)

type Config struct {
	LogLevel    string
	ServiceName string
	Environment string
	ServerPort  string

	// Ticketing backend (Chatwoot)
	ChatwootBaseURL   string
	ChatwootAccountID string
	ChatwootAPIToken  string
	WebsiteInboxID    int
	InstagramInboxID  int
	WhatsAppInboxID   int

	// Knowledge store (Chroma Cloud)
	ChromaAPIKey     string
	ChromaTenant     string
	ChromaDatabase   string
	ChromaCollection string

	// Language model
	MistralAPIKey string

	// WhatsApp gateway (Meta Graph API)
	MetaPhoneNumberID string
	MetaAccessToken   string
	MetaVerifyToken   string

	// Number Instagram users are redirected to for bookings
	WhatsAppRedirectNumber string

	// Optional YAML file overriding the default bot settings
	BotSettingsFile string
}

func LoadConfig() (*Config, error) {
	chatwootBaseURL := os.Getenv("CHATWOOT_BASE_URL")
	if chatwootBaseURL == "" {
		return nil, errors.New("CHATWOOT_BASE_URL is required")
	}
	chatwootAccountID := os.Getenv("CHATWOOT_ACCOUNT_ID")
	if chatwootAccountID == "" {
		return nil, errors.New("CHATWOOT_ACCOUNT_ID is required")
	}
	chatwootAPIToken := os.Getenv("CHATWOOT_API_TOKEN")
	if chatwootAPIToken == "" {
		return nil, errors.New("CHATWOOT_API_TOKEN is required")
	}

	websiteInboxID, err := inboxID("WEBSITE_INBOX_ID", 4)
	if err != nil {
		return nil, err
	}
	instagramInboxID, err := inboxID("INSTAGRAM_INBOX_ID", 9)
	if err != nil {
		return nil, err
	}
	whatsappInboxID, err := inboxID("WHATSAPP_INBOX_ID", 4)
	if err != nil {
		return nil, err
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	serviceName := os.Getenv("SERVICE_NAME")
	if serviceName == "" {
		serviceName = "raptee-support-bot"
	}

	environment := os.Getenv("ENVIRONMENT")
	if environment == "" {
		environment = "development"
	}

	serverPort := os.Getenv("SERVER_PORT")
	if serverPort == "" {
		serverPort = "8080"
	}

	redirectNumber := os.Getenv("WHATSAPP_REDIRECT_NUMBER")
	if redirectNumber == "" {
		redirectNumber = "919344313804"
	}

	return &Config{
		LogLevel:    logLevel,
		ServiceName: serviceName,
		Environment: environment,
		ServerPort:  serverPort,

		ChatwootBaseURL:   chatwootBaseURL,
		ChatwootAccountID: chatwootAccountID,
		ChatwootAPIToken:  chatwootAPIToken,
		WebsiteInboxID:    websiteInboxID,
		InstagramInboxID:  instagramInboxID,
		WhatsAppInboxID:   whatsappInboxID,

		ChromaAPIKey:     os.Getenv("CHROMA_API_KEY"),
		ChromaTenant:     os.Getenv("CHROMA_TENANT"),
		ChromaDatabase:   os.Getenv("CHROMA_DATABASE"),
		ChromaCollection: os.Getenv("CHROMA_COLLECTION"),

		MistralAPIKey: os.Getenv("MISTRAL_API_KEY"),

		MetaPhoneNumberID: os.Getenv("META_PHONE_NUMBER_ID"),
		MetaAccessToken:   os.Getenv("META_ACCESS_TOKEN"),
		MetaVerifyToken:   os.Getenv("META_VERIFY_TOKEN"),

		WhatsAppRedirectNumber: redirectNumber,
		BotSettingsFile:        os.Getenv("BOT_SETTINGS_FILE"),
	}, nil
}

func inboxID(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return id, nil
}
