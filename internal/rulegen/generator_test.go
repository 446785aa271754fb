package rulegen

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/hyperjump/planreview/internal/config"
	"github.com/hyperjump/planreview/internal/models"
)

const sampleAnswer = "以下是规则：\n```json\n[{\"rule_name\":\"危险源辨识检查\",\"rule_type\":\"内容检查\",\"required_content\":[\"危险源\"],\"severity\":\"严重\",\"rule_pattern\":\"危险源\"},{\"rule_type\":\"章节检查\"}]\n```"

type fakeClient struct {
	calls   int
	errs    []error
	answer  string
	request openai.ChatCompletionRequest
}

func (f *fakeClient) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.calls++
	f.request = req
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return openai.ChatCompletionResponse{}, err
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.answer}}},
	}, nil
}

func testConfig() config.LLMConfig {
	return config.LLMConfig{Model: "deepseek-chat", APIKey: "key", MaxTokens: 2000, Temperature: 0.3, TimeoutSeconds: 5, MaxRetries: 3}
}

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    int
		wantErr bool
	}{
		{"fenced", sampleAnswer, 2, false},
		{"bare array", `[{"rule_name":"a"}]`, 1, false},
		{"embedded", `好的 [{"rule_name":"a"},{"rule_name":"b"}] 完毕`, 2, false},
		{"empty array", `[]`, 0, false},
		{"no array", `无法生成`, 0, true},
		{"invalid json", `[{"rule_name":]`, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResponse(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(got) != tt.want {
				t.Errorf("got %d rules, want %d", len(got), tt.want)
			}
		})
	}

	if _, err := ParseResponse("nothing"); !errors.Is(err, ErrNoJSONArray) {
		t.Errorf("expected ErrNoJSONArray, got %v", err)
	}
}

func TestParseResponse_Normalizes(t *testing.T) {
	got, err := ParseResponse(sampleAnswer)
	if err != nil {
		t.Fatal(err)
	}
	first := got[0].Rule()
	if first.Name != "危险源辨识检查" || first.Kind != models.RuleKindContent || first.Severity != models.SeveritySevere {
		t.Errorf("first rule = %+v", first)
	}
	second := got[1]
	if second.RuleName != "未命名规则" || second.RuleType != string(models.RuleKindChapter) || second.Severity != string(models.SeverityGeneral) {
		t.Errorf("defaults not applied: %+v", second)
	}
}

func TestFromTemplates(t *testing.T) {
	got := FromTemplates("施工安全与进度要求", "综合")
	if len(got) != 2 {
		t.Fatalf("expected 2 rules, got %d", len(got))
	}
	if got[0].RuleName != "安全措施检查" || got[1].RuleName != "进度计划检查" {
		t.Errorf("unexpected rules: %s, %s", got[0].RuleName, got[1].RuleName)
	}
	if got[0].Severity != string(models.SeveritySevere) || got[1].Severity != string(models.SeverityGeneral) {
		t.Errorf("severities = %s, %s", got[0].Severity, got[1].Severity)
	}

	generic := FromTemplates("环境保护要求", "环保")
	if len(generic) != 1 || generic[0].RuleName != "环保规范检查" {
		t.Fatalf("generic = %+v", generic)
	}
	if len(generic[0].RequiredContent) != 1 || generic[0].RequiredContent[0] != "环保" {
		t.Errorf("required content = %v", generic[0].RequiredContent)
	}

	// Templates are copied, not shared.
	got[0].RequiredContent[0] = "changed"
	if again := FromTemplates("安全", ""); again[0].RequiredContent[0] != "安全措施" {
		t.Error("template mutated through returned payload")
	}
}

func TestGenerate_WithoutKeyUsesTemplates(t *testing.T) {
	g := NewGenerator(config.LLMConfig{Model: "deepseek-chat"})
	res := g.Generate(context.Background(), "质量管理体系", "质量")
	if res.AIGenerated || res.Model != "" {
		t.Errorf("expected template result, got %+v", res)
	}
	if len(res.Rules) != 1 || res.Rules[0].RuleName != "质量保证检查" {
		t.Errorf("rules = %+v", res.Rules)
	}
}

func TestGenerate_AI(t *testing.T) {
	fc := &fakeClient{answer: sampleAnswer}
	g := NewGenerator(testConfig(), WithClient(fc), WithLogger(zap.NewNop()))
	res := g.Generate(context.Background(), "危险源管理", "安全")
	if !res.AIGenerated || res.Model != "deepseek-chat" {
		t.Errorf("expected AI result, got %+v", res)
	}
	if len(res.Rules) != 2 {
		t.Errorf("expected 2 rules, got %d", len(res.Rules))
	}
	if fc.request.Model != "deepseek-chat" || fc.request.MaxTokens != 2000 {
		t.Errorf("request = %+v", fc.request)
	}
	if len(fc.request.Messages) != 2 || !strings.Contains(fc.request.Messages[1].Content, "危险源管理") {
		t.Error("prompt does not carry the standard content")
	}
}

func TestGenerate_RetriesServerErrors(t *testing.T) {
	fc := &fakeClient{
		answer: sampleAnswer,
		errs: []error{
			&openai.APIError{HTTPStatusCode: http.StatusInternalServerError, Message: "boom"},
			&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "slow down"},
		},
	}
	g := NewGenerator(testConfig(), WithClient(fc), WithRetryDelay(time.Millisecond))
	res := g.Generate(context.Background(), "危险源", "安全")
	if fc.calls != 3 {
		t.Errorf("calls = %d, want 3", fc.calls)
	}
	if !res.AIGenerated {
		t.Error("expected AI result after retries")
	}
}

func TestGenerate_ClientErrorFallsBack(t *testing.T) {
	fc := &fakeClient{errs: []error{&openai.APIError{HTTPStatusCode: http.StatusUnauthorized, Message: "bad key"}}}
	g := NewGenerator(testConfig(), WithClient(fc), WithRetryDelay(time.Millisecond))
	res := g.Generate(context.Background(), "安全", "安全")
	if fc.calls != 1 {
		t.Errorf("calls = %d, want 1", fc.calls)
	}
	if res.AIGenerated || len(res.Rules) != 1 || res.Rules[0].RuleName != "安全措施检查" {
		t.Errorf("expected template fallback, got %+v", res)
	}
}

func TestGenerate_UnparseableAnswerFallsBack(t *testing.T) {
	fc := &fakeClient{answer: "抱歉"}
	g := NewGenerator(testConfig(), WithClient(fc))
	res := g.Generate(context.Background(), "进度", "进度")
	if res.AIGenerated || res.Rules[0].RuleName != "进度计划检查" {
		t.Errorf("expected template fallback, got %+v", res)
	}
}

func TestGenerate_OpenAICompatibleServer(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1,
			"model":   "deepseek-chat",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]string{"role": "assistant", "content": `[{"rule_name":"临时用电检查","rule_pattern":"临时用电"}]`},
				"finish_reason": "stop",
			}},
		})
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.BaseURL = srv.URL + "/v1"
	g := NewGenerator(cfg)
	res := g.Generate(context.Background(), "临时用电", "安全")
	if gotAuth != "Bearer key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if !res.AIGenerated || len(res.Rules) != 1 || res.Rules[0].RuleName != "临时用电检查" {
		t.Errorf("result = %+v", res)
	}
}

func TestModels(t *testing.T) {
	list := Models()
	if len(list) != 4 {
		t.Fatalf("expected 4 models, got %d", len(list))
	}
	list[0].ID = "changed"
	if m, ok := LookupModel("deepseek-chat"); !ok || m.Provider != "deepseek" {
		t.Errorf("LookupModel = %+v, %v", m, ok)
	}
	if _, ok := LookupModel("claude-3-opus"); ok {
		t.Error("unexpected model")
	}
}
