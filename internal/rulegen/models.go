package rulegen

// Model describes a chat model the generator can be pointed at.
type Model struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Provider  string `json:"provider"`
	BaseURL   string `json:"api_base"`
	MaxTokens int    `json:"max_tokens"`
}

var knownModels = []Model{
	{ID: "deepseek-chat", Name: "DeepSeek Chat", Provider: "deepseek", BaseURL: "https://api.deepseek.com/v1", MaxTokens: 4000},
	{ID: "deepseek-coder", Name: "DeepSeek Coder", Provider: "deepseek", BaseURL: "https://api.deepseek.com/v1", MaxTokens: 4000},
	{ID: "gpt-4", Name: "GPT-4", Provider: "openai", BaseURL: "https://api.openai.com/v1", MaxTokens: 4000},
	{ID: "gpt-3.5-turbo", Name: "GPT-3.5 Turbo", Provider: "openai", BaseURL: "https://api.openai.com/v1", MaxTokens: 4000},
}

// Models returns the OpenAI-compatible models known to work with the generator.
func Models() []Model {
	out := make([]Model, len(knownModels))
	copy(out, knownModels)
	return out
}

// LookupModel returns the known model with the given ID.
func LookupModel(id string) (Model, bool) {
	for _, m := range knownModels {
		if m.ID == id {
			return m, true
		}
	}
	return Model{}, false
}
