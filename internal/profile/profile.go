package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"github.com/atelierhq/atelier/internal/version"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where atelier stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of server
	Version string
	// InstanceURL is the url of your atelier instance
	InstanceURL string

	// AI configuration
	AIEnabled            bool   // ATELIER_AI_ENABLED
	AIEmbeddingProvider  string // ATELIER_AI_EMBEDDING_PROVIDER (default: openai)
	AILLMProvider        string // ATELIER_AI_LLM_PROVIDER (default: deepseek)
	AIOpenAIAPIKey       string // ATELIER_AI_OPENAI_API_KEY
	AIOpenAIBaseURL      string // ATELIER_AI_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	AIDeepSeekAPIKey     string // ATELIER_AI_DEEPSEEK_API_KEY
	AIDeepSeekBaseURL    string // ATELIER_AI_DEEPSEEK_BASE_URL (default: https://api.deepseek.com)
	AISiliconFlowAPIKey  string // ATELIER_AI_SILICONFLOW_API_KEY
	AISiliconFlowBaseURL string // ATELIER_AI_SILICONFLOW_BASE_URL (default: https://api.siliconflow.cn/v1)
	AIOllamaBaseURL      string // ATELIER_AI_OLLAMA_BASE_URL (default: http://localhost:11434)
	AIEmbeddingModel     string // ATELIER_AI_EMBEDDING_MODEL (default: BAAI/bge-m3)
	AIEmbeddingDims      int    // ATELIER_AI_EMBEDDING_DIMS (default: 1024)
	AILLMModel           string // ATELIER_AI_LLM_MODEL (default: deepseek-chat)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if AI is enabled and at least one provider is
// reachable through a key or base URL.
func (p *Profile) IsAIEnabled() bool {
	return p.AIEnabled && (p.AIOpenAIAPIKey != "" || p.AIDeepSeekAPIKey != "" || p.AISiliconFlowAPIKey != "" || p.AIOllamaBaseURL != "")
}

// FromViper builds a profile from a configured viper instance.
// Flags bound by the caller take precedence over ATELIER_* env vars.
func FromViper(v *viper.Viper) *Profile {
	v.SetEnvPrefix("atelier")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", "demo")
	v.SetDefault("addr", "")
	v.SetDefault("port", 8081)
	v.SetDefault("driver", "sqlite")
	v.SetDefault("ai.embedding-provider", "openai")
	v.SetDefault("ai.llm-provider", "deepseek")
	v.SetDefault("ai.openai-base-url", "https://api.openai.com/v1")
	v.SetDefault("ai.deepseek-base-url", "https://api.deepseek.com")
	v.SetDefault("ai.siliconflow-base-url", "https://api.siliconflow.cn/v1")
	v.SetDefault("ai.ollama-base-url", "http://localhost:11434")
	v.SetDefault("ai.embedding-model", "BAAI/bge-m3")
	v.SetDefault("ai.embedding-dims", 1024)
	v.SetDefault("ai.llm-model", "deepseek-chat")

	mode := v.GetString("mode")
	return &Profile{
		Mode:                 mode,
		Version:              version.GetCurrentVersion(mode),
		Addr:                 v.GetString("addr"),
		Port:                 v.GetInt("port"),
		Data:                 v.GetString("data"),
		DSN:                  v.GetString("dsn"),
		Driver:               v.GetString("driver"),
		InstanceURL:          v.GetString("instance-url"),
		AIEnabled:            v.GetBool("ai.enabled"),
		AIEmbeddingProvider:  v.GetString("ai.embedding-provider"),
		AILLMProvider:        v.GetString("ai.llm-provider"),
		AIOpenAIAPIKey:       v.GetString("ai.openai-api-key"),
		AIOpenAIBaseURL:      v.GetString("ai.openai-base-url"),
		AIDeepSeekAPIKey:     v.GetString("ai.deepseek-api-key"),
		AIDeepSeekBaseURL:    v.GetString("ai.deepseek-base-url"),
		AISiliconFlowAPIKey:  v.GetString("ai.siliconflow-api-key"),
		AISiliconFlowBaseURL: v.GetString("ai.siliconflow-base-url"),
		AIOllamaBaseURL:      v.GetString("ai.ollama-base-url"),
		AIEmbeddingModel:     v.GetString("ai.embedding-model"),
		AIEmbeddingDims:      v.GetInt("ai.embedding-dims"),
		AILLMModel:           v.GetString("ai.llm-model"),
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Data == "" {
		p.Data = "."
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", p.Data), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("atelier_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for the postgres driver")
	}

	return nil
}
