package config

import (
	"time"

	"github.com/harborcx/agentdesk-backend/internal/platform/envutil"
)

// Completion holds the settings for the hosted chat-completion backend.
// Resolved once at startup; a partially configured backend is not an error,
// the client simply reports every call as unanswered.
type Completion struct {
	Endpoint   string
	Deployment string
	APIKey     string
	APIVersion string

	Timeout   time.Duration
	MaxTokens int
}

// Several generations of deployments spelled these differently; first
// non-empty alias wins.
func LoadCompletion() Completion {
	return Completion{
		Endpoint:   envutil.FirstOf("AZURE_OPENAI_ENDPOINT", "AOAI_ENDPOINT", "OPENAI_BASE_URL"),
		Deployment: envutil.FirstOf("AZURE_OPENAI_DEPLOYMENT", "AOAI_DEPLOYMENT", "OPENAI_MODEL"),
		APIKey:     envutil.FirstOf("AZURE_OPENAI_API_KEY", "AOAI_API_KEY", "OPENAI_API_KEY"),
		APIVersion: envutil.FirstOf("AZURE_OPENAI_API_VERSION", "OPENAI_API_VERSION"),
		Timeout:    envutil.Seconds("COMPLETION_TIMEOUT_SECONDS", 20*time.Second),
		MaxTokens:  envutil.Int("COMPLETION_MAX_TOKENS", 800),
	}
}

// Configured reports whether every setting required to reach the backend is
// present.
func (c Completion) Configured() bool {
	return c.Endpoint != "" && c.Deployment != "" && c.APIKey != ""
}

// Server holds the HTTP surface settings.
type Server struct {
	Port             string
	DisableAutoReply bool
	ConversationTTL  time.Duration
	RedisAddr        string
}

func LoadServer() Server {
	return Server{
		Port:             envutil.String("PORT", "8080"),
		DisableAutoReply: envutil.Bool("DISABLE_AUTO_REPLY", false),
		ConversationTTL:  envutil.Seconds("CONVERSATION_TTL_SECONDS", 6*time.Hour),
		RedisAddr:        envutil.String("REDIS_ADDR", ""),
	}
}
