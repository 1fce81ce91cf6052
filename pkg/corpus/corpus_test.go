package corpus_test

import (
	"bytes"
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gauntlet/pkg/corpus"
	"github.com/papercomputeco/gauntlet/pkg/logger"
	"github.com/papercomputeco/gauntlet/pkg/operation"
	"github.com/papercomputeco/gauntlet/pkg/storage"
	"github.com/papercomputeco/gauntlet/pkg/storage/inmemory"
	testutils "github.com/papercomputeco/gauntlet/pkg/utils/test"
	"github.com/papercomputeco/gauntlet/pkg/vector"
)

var _ = Describe("Corpus", func() {
	var (
		ctx    context.Context
		driver *testutils.FailingDriver
	)

	BeforeEach(func() {
		ctx = context.Background()
		driver = testutils.NewFailingDriver(inmemory.NewDriver())
	})

	save := func(c *corpus.Corpus, prompt string) *operation.Payload {
		p, err := c.Save(ctx, corpus.SaveRequest{Prompt: prompt, OperationID: "op-1", AttackVector: "role-play"})
		Expect(err).NotTo(HaveOccurred())
		return p
	}

	Describe("List", func() {
		It("returns stored payloads newest first", func() {
			c := corpus.New(driver)
			save(c, "first")
			save(c, "second")

			payloads, err := c.List(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(payloads).To(HaveLen(2))
			Expect(payloads[0].Prompt).To(Equal("second"))
			Expect(payloads[1].Prompt).To(Equal("first"))
		})

		It("honours the limit", func() {
			c := corpus.New(driver)
			for _, p := range []string{"a", "b", "c"} {
				save(c, p)
			}
			payloads, err := c.List(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(payloads).To(HaveLen(2))
		})

		It("serves the deterministic fallback set when the store is empty", func() {
			c := corpus.New(driver)
			first, err := c.List(ctx, 5)
			Expect(err).NotTo(HaveOccurred())
			second, err := c.List(ctx, 5)
			Expect(err).NotTo(HaveOccurred())

			Expect(first).NotTo(BeEmpty())
			Expect(first).To(HaveLen(5))
			Expect(first).To(Equal(second))
			Expect(first).To(Equal(c.Fallback(5)))
		})

		It("serves the fallback set and logs when the store is unreachable", func() {
			var buf bytes.Buffer
			c := corpus.New(driver, corpus.WithLogger(logger.New(logger.WithWriter(&buf))))
			save(c, "stored")
			driver.Set(func(f *testutils.FailingDriver) { f.FailListPayloads = true })

			payloads, err := c.List(ctx, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(payloads).To(Equal(c.Fallback(3)))
			Expect(buf.String()).To(ContainSubstring("payload corpus read failed"))
		})

		It("propagates read errors when degrading is off", func() {
			c := corpus.New(driver, corpus.WithDegradeOnReadError(false))
			Expect(c.DegradesOnReadError()).To(BeFalse())
			driver.Set(func(f *testutils.FailingDriver) { f.FailListPayloads = true })

			_, err := c.List(ctx, 3)
			Expect(err).To(MatchError(storage.ErrUnavailable))
		})

		It("still serves the fallback for an empty store when degrading is off", func() {
			c := corpus.New(driver, corpus.WithDegradeOnReadError(false))
			payloads, err := c.List(ctx, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(payloads).To(HaveLen(2))
		})

		It("uses the default limit", func() {
			c := corpus.New(driver, corpus.WithDefaultLimit(2))
			for _, p := range []string{"a", "b", "c"} {
				save(c, p)
			}
			payloads, err := c.List(ctx, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(payloads).To(HaveLen(2))
		})

		It("uses a custom fallback set", func() {
			c := corpus.New(driver, corpus.WithFallback("only one"))
			prompts, err := c.PromptsOnly(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(prompts).To(Equal([]string{"only one"}))
		})
	})

	Describe("PromptsOnly", func() {
		It("projects stored payloads to prompt text", func() {
			c := corpus.New(driver)
			save(c, "one")
			save(c, "two")

			prompts, err := c.PromptsOnly(ctx, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(prompts).To(Equal([]string{"two", "one"}))
		})
	})

	Describe("Save", func() {
		It("defaults the success rate to 1.0", func() {
			c := corpus.New(driver)
			p := save(c, "x")
			Expect(p.SuccessRate).To(Equal(1.0))
			Expect(p.ID).NotTo(BeEmpty())
			Expect(p.CreatedAt).NotTo(BeZero())
		})

		It("accepts an explicit success rate", func() {
			c := corpus.New(driver)
			rate := 0.25
			p, err := c.Save(ctx, corpus.SaveRequest{Prompt: "x", OperationID: "op", SuccessRate: &rate})
			Expect(err).NotTo(HaveOccurred())
			Expect(p.SuccessRate).To(Equal(0.25))
		})

		DescribeTable("rejects invalid requests",
			func(req corpus.SaveRequest) {
				_, err := corpus.New(driver).Save(ctx, req)
				Expect(err).To(MatchError(operation.ErrInvalidInput))
			},
			Entry("missing prompt", corpus.SaveRequest{OperationID: "op"}),
			Entry("missing operation", corpus.SaveRequest{Prompt: "x"}),
			Entry("rate above one", corpus.SaveRequest{Prompt: "x", OperationID: "op", SuccessRate: ptr(1.5)}),
			Entry("negative rate", corpus.SaveRequest{Prompt: "x", OperationID: "op", SuccessRate: ptr(-0.1)}),
		)

		It("propagates store write failures", func() {
			c := corpus.New(driver)
			driver.Set(func(f *testutils.FailingDriver) { f.FailCreatePayload = true })

			_, err := c.Save(ctx, corpus.SaveRequest{Prompt: "x", OperationID: "op"})
			Expect(err).To(MatchError(storage.ErrUnavailable))
		})

		It("indexes the prompt embedding", func() {
			vectors := testutils.NewMockVectorDriver()
			c := corpus.New(driver, corpus.WithIndex(testutils.NewMockEmbedder(), vectors))
			p := save(c, "indexed")

			Expect(vectors.Documents).To(HaveLen(1))
			Expect(vectors.Documents[0].ID).To(Equal(p.ID))
			Expect(vectors.Documents[0].OperationID).To(Equal("op-1"))
		})

		It("keeps the payload when indexing fails", func() {
			embedder := testutils.NewMockEmbedder()
			embedder.FailOn = "unindexable"
			c := corpus.New(driver, corpus.WithIndex(embedder, testutils.NewMockVectorDriver()))

			p := save(c, "unindexable")
			stored, err := driver.GetPayload(ctx, p.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(stored.Prompt).To(Equal("unindexable"))
		})
	})

	Describe("Relevant", func() {
		It("falls back to recent prompts without an index", func() {
			c := corpus.New(driver)
			save(c, "recent")

			prompts, err := c.Relevant(ctx, "anything", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(prompts).To(Equal([]string{"recent"}))
		})

		It("resolves vector hits to stored prompts in score order", func() {
			vectors := testutils.NewMockVectorDriver()
			c := corpus.New(driver, corpus.WithIndex(testutils.NewMockEmbedder(), vectors))
			a := save(c, "alpha")
			b := save(c, "beta")
			vectors.Results = []vector.QueryResult{
				{Document: vector.Document{ID: a.ID}, Score: 0.9},
				{Document: vector.Document{ID: "deleted-elsewhere"}, Score: 0.8},
				{Document: vector.Document{ID: b.ID}, Score: 0.5},
			}

			prompts, err := c.Relevant(ctx, "query", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(prompts).To(Equal([]string{"alpha", "beta"}))
		})

		It("degrades to recent prompts when the index fails", func() {
			vectors := testutils.NewMockVectorDriver()
			c := corpus.New(driver, corpus.WithIndex(testutils.NewMockEmbedder(), vectors))
			save(c, "recent")
			vectors.FailQuery = true

			prompts, err := c.Relevant(ctx, "query", 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(prompts).To(Equal([]string{"recent"}))
		})

		It("degrades to the fallback set when everything is empty", func() {
			c := corpus.New(driver, corpus.WithIndex(testutils.NewMockEmbedder(), testutils.NewMockVectorDriver()))
			prompts, err := c.Relevant(ctx, "query", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(prompts).To(HaveLen(2))
		})
	})
})

func ptr(f float64) *float64 {
	return &f
}
