package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gauntlet/pkg/generation/llm"
)

var _ = Describe("NewCaller", func() {
	It("returns an ollama caller when no key is available", func() {
		GinkgoT().Setenv("OPENAI_API_KEY", "")
		caller, err := llm.NewCaller(llm.CallerConfig{Provider: "openai"})
		Expect(err).NotTo(HaveOccurred())
		Expect(caller).NotTo(BeNil())
	})

	It("returns an error for unsupported provider", func() {
		_, err := llm.NewCaller(llm.CallerConfig{Provider: "unsupported", APIKey: "key"})
		Expect(err).To(MatchError(ContainSubstring("unsupported provider")))
	})

	Describe("openai", func() {
		It("sends system and user messages and returns the first choice", func() {
			var got map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/v1/chat/completions"))
				Expect(r.Header.Get("Authorization")).To(Equal("Bearer test-key"))
				json.NewDecoder(r.Body).Decode(&got)
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}]}`))
			}))
			defer server.Close()

			caller, err := llm.NewCaller(llm.CallerConfig{Provider: "openai", APIKey: "test-key", BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			reply, err := caller(context.Background(), llm.Call{System: "be brief", Prompt: "hi", Model: "gpt-test", JSON: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(reply).To(Equal("hello"))
			Expect(got["model"]).To(Equal("gpt-test"))
			Expect(got["messages"]).To(HaveLen(2))
			Expect(got["response_format"]).To(HaveKeyWithValue("type", "json_object"))
		})

		It("surfaces API errors", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			}))
			defer server.Close()

			caller, err := llm.NewCaller(llm.CallerConfig{Provider: "openai", APIKey: "k", BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = caller(context.Background(), llm.Call{Prompt: "hi"})
			Expect(err).To(MatchError(ContainSubstring("openai request")))
		})
	})

	Describe("anthropic", func() {
		It("sends the system prompt separately and returns the first text block", func() {
			var got map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/v1/messages"))
				Expect(r.Header.Get("x-api-key")).To(Equal("test-key"))
				json.NewDecoder(r.Body).Decode(&got)
				w.Write([]byte(`{"content":[{"type":"text","text":"{\"prompt\":\"x\"}"}]}`))
			}))
			defer server.Close()

			caller, err := llm.NewCaller(llm.CallerConfig{Provider: "anthropic", APIKey: "test-key", BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			reply, err := caller(context.Background(), llm.Call{System: "persona", Prompt: "hi"})
			Expect(err).NotTo(HaveOccurred())
			Expect(reply).To(Equal(`{"prompt":"x"}`))
			Expect(got["system"]).To(Equal("persona"))
		})

		It("returns an error on non-200 status", func() {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"error":{"message":"bad key"}}`))
			}))
			defer server.Close()

			caller, err := llm.NewCaller(llm.CallerConfig{Provider: "anthropic", APIKey: "k", BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = caller(context.Background(), llm.Call{Prompt: "hi"})
			Expect(err).To(MatchError(ContainSubstring("status 401")))
		})
	})

	Describe("ollama", func() {
		It("asks for JSON format when requested", func() {
			var got map[string]any
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/api/chat"))
				json.NewDecoder(r.Body).Decode(&got)
				w.Write([]byte(`{"message":{"content":"{}"},"done":true}`))
			}))
			defer server.Close()

			caller, err := llm.NewCaller(llm.CallerConfig{Provider: "ollama", BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			reply, err := caller(context.Background(), llm.Call{Prompt: "hi", JSON: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(reply).To(Equal("{}"))
			Expect(got["format"]).To(Equal("json"))
			Expect(got["model"]).To(Equal("llama3.2"))
			Expect(got["stream"]).To(BeFalse())
		})
	})
})
