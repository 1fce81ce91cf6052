package llm_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gauntlet/pkg/generation"
	"github.com/papercomputeco/gauntlet/pkg/generation/llm"
	"github.com/papercomputeco/gauntlet/pkg/operation"
)

type scriptedCaller struct {
	reply string
	err   error
	calls []llm.Call
}

func (s *scriptedCaller) call(_ context.Context, c llm.Call) (string, error) {
	s.calls = append(s.calls, c)
	return s.reply, s.err
}

type stubContext struct {
	prompts []string
	err     error
	queries []string
}

func (s *stubContext) Relevant(_ context.Context, query string, _ int) ([]string, error) {
	s.queries = append(s.queries, query)
	return s.prompts, s.err
}

var _ = Describe("Gateway", func() {
	var (
		ctx        context.Context
		target     *scriptedCaller
		strategist *scriptedCaller
		source     *stubContext
		gateway    *llm.Gateway
	)

	BeforeEach(func() {
		ctx = context.Background()
		target = &scriptedCaller{}
		strategist = &scriptedCaller{}
		source = &stubContext{}

		var err error
		gateway, err = llm.NewGateway(llm.Config{
			Target:     target.call,
			Strategist: strategist.call,
			Context:    source,
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires both callers", func() {
		_, err := llm.NewGateway(llm.Config{Target: target.call})
		Expect(err).To(HaveOccurred())
	})

	Describe("ProbeTarget", func() {
		req := generation.ProbeRequest{
			OperationID: "op", Prompt: "hello", TargetLLM: "target-model", Persona: "a helpful clerk",
		}

		It("uses the persona as system prompt and the target model", func() {
			target.reply = "hi there"
			resp, err := gateway.ProbeTarget(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Status).To(Equal(generation.ProbeSuccess))
			Expect(resp.TargetResponse).To(Equal("hi there"))

			Expect(target.calls).To(HaveLen(1))
			Expect(target.calls[0].System).To(Equal("a helpful clerk"))
			Expect(target.calls[0].Model).To(Equal("target-model"))
			Expect(target.calls[0].JSON).To(BeFalse())
		})

		It("reports an empty reply as an error status", func() {
			target.reply = "  "
			resp, err := gateway.ProbeTarget(ctx, req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Status).To(Equal(generation.ProbeError))
		})

		It("propagates caller failures without retrying", func() {
			target.err = errors.New("connection refused")
			_, err := gateway.ProbeTarget(ctx, req)
			Expect(err).To(MatchError("connection refused"))
			Expect(target.calls).To(HaveLen(1))
		})

		It("validates the request", func() {
			_, err := gateway.ProbeTarget(ctx, generation.ProbeRequest{})
			Expect(err).To(MatchError(operation.ErrInvalidInput))
			Expect(target.calls).To(BeEmpty())
		})
	})

	Describe("SuggestFollowUp", func() {
		It("parses a fenced JSON reply", func() {
			strategist.reply = "```json\n{\"follow_up_prompt\": \"next\", \"reasoning\": \"because\"}\n```"
			resp, err := gateway.SuggestFollowUp(ctx, generation.FollowUpRequest{
				OperationID:   "op",
				MaliciousGoal: "goal",
				ConversationHistory: []generation.HistoryEntry{
					{Role: operation.RoleOperator, Content: "first"},
				},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.FollowUpPrompt).To(Equal("next"))
			Expect(resp.Reasoning).To(Equal("because"))
			Expect(strategist.calls[0].JSON).To(BeTrue())
			Expect(strategist.calls[0].Prompt).To(ContainSubstring("[operator] first"))
		})

		It("fails on unparseable replies", func() {
			strategist.reply = "I cannot help with that."
			_, err := gateway.SuggestFollowUp(ctx, generation.FollowUpRequest{OperationID: "op", MaliciousGoal: "g"})
			Expect(err).To(MatchError(ContainSubstring("unmarshal strategist JSON")))
		})
	})

	Describe("GenerateSeed", func() {
		It("clamps confidence", func() {
			strategist.reply = `{"prompt": "p", "technique": "t", "confidence": 3.5}`
			resp, err := gateway.GenerateSeed(ctx, generation.SeedRequest{Goal: "g"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Confidence).To(Equal(1.0))
			Expect(source.queries).To(BeEmpty())
		})

		It("enriches the prompt with corpus context when asked", func() {
			source.prompts = []string{"earlier winner"}
			strategist.reply = `{"prompt": "p", "technique": "t", "confidence": 0.3}`
			_, err := gateway.GenerateSeed(ctx, generation.SeedRequest{Goal: "g", EnhanceWithRAG: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(source.queries).To(Equal([]string{"g"}))
			Expect(strategist.calls[0].Prompt).To(ContainSubstring("1. earlier winner"))
		})

		It("continues without context when lookup fails", func() {
			source.err = errors.New("index down")
			strategist.reply = `{"prompt": "p", "technique": "t", "confidence": 0.3}`
			resp, err := gateway.GenerateSeed(ctx, generation.SeedRequest{Goal: "g", EnhanceWithRAG: true})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Prompt).To(Equal("p"))
		})
	})

	Describe("GeneratePhaseSeed", func() {
		It("returns the drafted prompt", func() {
			strategist.reply = `{"prompt": "phase prompt"}`
			resp, err := gateway.GeneratePhaseSeed(ctx, generation.PhaseSeedRequest{
				Phase: "rapport", SpecificGoal: "g", Intensity: 3, MathFormalism: "set theory",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Prompt).To(Equal("phase prompt"))
			Expect(strategist.calls[0].Prompt).To(ContainSubstring("Intensity: 3/10"))
			Expect(strategist.calls[0].Prompt).To(ContainSubstring("set theory"))
		})

		It("rejects an empty prompt", func() {
			strategist.reply = `{}`
			_, err := gateway.GeneratePhaseSeed(ctx, generation.PhaseSeedRequest{Phase: "p", SpecificGoal: "g"})
			Expect(err).To(HaveOccurred())
		})
	})
})
