package daemon

import (
	"github.com/Rrens/clipboard-ai/internal/config"
	"github.com/Rrens/clipboard-ai/internal/llm"
	"github.com/Rrens/clipboard-ai/internal/llm/gemini"
	"github.com/Rrens/clipboard-ai/internal/llm/ollama"
	"github.com/Rrens/clipboard-ai/internal/llm/openai"
	"github.com/Rrens/clipboard-ai/internal/llm/vertex"
	"github.com/rs/zerolog/log"
)

// NewRouter registers every provider; cfg.LLM.Provider is the selected one
func NewRouter(cfg *config.Config) *llm.Router {
	router := llm.NewRouter(cfg.LLM.Provider,
		gemini.NewProvider(cfg.APIKey, cfg.DefaultModel).WithBaseURL(cfg.LLM.Gemini.BaseURL),
		vertex.NewProvider(cfg.LLM.Vertex.Project, cfg.LLM.Vertex.Location, cfg.DefaultModel),
		openai.NewProvider(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.BaseURL, ""),
		ollama.NewProvider(cfg.LLM.Ollama.Host, ""),
	)

	log.Debug().
		Str("selected", cfg.LLM.Provider).
		Strs("configured", router.Configured()).
		Msg("LLM providers registered")
	return router
}
