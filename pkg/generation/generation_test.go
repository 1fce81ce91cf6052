package generation_test

import (
	"bytes"
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gauntlet/pkg/generation"
	"github.com/papercomputeco/gauntlet/pkg/generation/fake"
	"github.com/papercomputeco/gauntlet/pkg/logger"
	"github.com/papercomputeco/gauntlet/pkg/operation"
)

var _ = Describe("Validate", func() {
	It("accepts a complete probe request", func() {
		Expect(generation.Validate(generation.ProbeRequest{
			OperationID: "op", Prompt: "hi", TargetLLM: "model",
		})).To(Succeed())
	})

	It("rejects missing required fields", func() {
		err := generation.Validate(generation.ProbeRequest{OperationID: "op"})
		Expect(err).To(MatchError(operation.ErrInvalidInput))
		Expect(err.Error()).To(ContainSubstring("Prompt"))
	})

	It("validates history entries", func() {
		err := generation.Validate(generation.FollowUpRequest{
			OperationID:         "op",
			MaliciousGoal:       "goal",
			ConversationHistory: []generation.HistoryEntry{{Content: "no role"}},
		})
		Expect(err).To(MatchError(operation.ErrInvalidInput))
	})

	DescribeTable("phase intensity bounds",
		func(intensity int, ok bool) {
			err := generation.Validate(generation.PhaseSeedRequest{
				Phase: "rapport", SpecificGoal: "goal", Intensity: intensity,
			})
			if ok {
				Expect(err).NotTo(HaveOccurred())
			} else {
				Expect(err).To(MatchError(operation.ErrInvalidInput))
			}
		},
		Entry("unspecified", 0, true),
		Entry("lowest", 1, true),
		Entry("highest", 10, true),
		Entry("too high", 11, false),
		Entry("negative", -1, false),
	)
})

var _ = Describe("ClampConfidence", func() {
	DescribeTable("limits to [0,1]",
		func(in, want float64) {
			Expect(generation.ClampConfidence(in)).To(Equal(want))
		},
		Entry("inside", 0.4, 0.4),
		Entry("below", -0.2, 0.0),
		Entry("above", 1.7, 1.0),
		Entry("NaN", math.NaN(), 0.0),
	)
})

var _ = Describe("ProbeResponse.Err", func() {
	It("is nil for success", func() {
		Expect((&generation.ProbeResponse{Status: generation.ProbeSuccess}).Err()).To(Succeed())
	})

	It("carries the target error message", func() {
		err := (&generation.ProbeResponse{Status: generation.ProbeError, Error: "rate limited"}).Err()
		Expect(err).To(MatchError("rate limited"))
	})

	It("treats a nil response as an error", func() {
		var resp *generation.ProbeResponse
		Expect(resp.Err()).To(HaveOccurred())
	})
})

var _ = Describe("Failed", func() {
	It("matches ErrGenerationFailed and the cause", func() {
		cause := errors.New("timeout")
		err := generation.Failed(cause)
		Expect(errors.Is(err, operation.ErrGenerationFailed)).To(BeTrue())
		Expect(errors.Is(err, cause)).To(BeTrue())

		var gf *operation.GenerationFailedError
		Expect(errors.As(err, &gf)).To(BeTrue())
		Expect(gf.Cause).To(Equal(cause))
	})
})

var _ = Describe("Instrument", func() {
	It("passes calls through and logs failures", func() {
		var buf bytes.Buffer
		inner := fake.New().FailWith(errors.New("connection reset"))
		g := generation.Instrument(inner, logger.New(logger.WithWriter(&buf)))

		_, err := g.ProbeTarget(context.Background(), generation.ProbeRequest{OperationID: "op", Prompt: "p", TargetLLM: "m"})
		Expect(err).To(MatchError("connection reset"))
		Expect(inner.ProbeCount()).To(Equal(1))
		Expect(buf.String()).To(ContainSubstring("generation call failed"))
		Expect(buf.String()).To(ContainSubstring("kind=probe"))
	})

	It("returns error-status probes unchanged", func() {
		inner := fake.New()
		inner.ProbeFunc = func(context.Context, generation.ProbeRequest) (*generation.ProbeResponse, error) {
			return &generation.ProbeResponse{Status: generation.ProbeError, Error: "blocked"}, nil
		}
		g := generation.Instrument(inner, nil)

		resp, err := g.ProbeTarget(context.Background(), generation.ProbeRequest{})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.Status).To(Equal(generation.ProbeError))
	})

	It("instruments every shape", func() {
		g := generation.Instrument(fake.New(), nil)
		ctx := context.Background()

		_, err := g.SuggestFollowUp(ctx, generation.FollowUpRequest{})
		Expect(err).NotTo(HaveOccurred())
		_, err = g.GenerateSeed(ctx, generation.SeedRequest{Goal: "g"})
		Expect(err).NotTo(HaveOccurred())
		_, err = g.GeneratePhaseSeed(ctx, generation.PhaseSeedRequest{Phase: "p"})
		Expect(err).NotTo(HaveOccurred())
	})
})
