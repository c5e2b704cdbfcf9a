package factory

import (
	"fmt"

	"glowgirl-be/internal/constant"
	"glowgirl-be/pkg/llm"
	"glowgirl-be/pkg/llm/huggingface"
	"glowgirl-be/pkg/llm/ollama"
)

func NewLLMProvider(providerType, modelName, baseURL, apiKey string) (llm.LLMProvider, error) {
	switch providerType {
	case "ollama":
		if baseURL == "" {
			baseURL = constant.OllamaDefaultBaseURL
		}
		if modelName == "" {
			modelName = constant.OllamaDefaultModel
		}
		return ollama.NewOllamaProvider(baseURL, modelName), nil
	case "huggingface":
		if apiKey == "" {
			return nil, fmt.Errorf("huggingface provider requires an API key")
		}
		return huggingface.NewHuggingFaceProvider(apiKey, "", modelName), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", providerType)
	}
}
