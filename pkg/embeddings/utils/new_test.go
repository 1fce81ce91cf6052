package embeddingutils_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gauntlet/pkg/embeddings/ollama"
	"github.com/papercomputeco/gauntlet/pkg/embeddings/openai"
	embeddingutils "github.com/papercomputeco/gauntlet/pkg/embeddings/utils"
)

var _ = Describe("NewEmbedder", func() {
	It("returns no embedder when disabled", func() {
		for _, p := range []string{"", embeddingutils.ProviderNone} {
			e, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{ProviderType: p})
			Expect(err).NotTo(HaveOccurred())
			Expect(e).To(BeNil())
		}
	})

	It("builds an ollama embedder", func() {
		e, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: embeddingutils.ProviderOllama,
			Model:        "all-minilm",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(BeAssignableToTypeOf(&ollama.Embedder{}))
		Expect(e.(*ollama.Embedder).Model()).To(Equal("all-minilm"))
	})

	It("builds an openai embedder from the resolved key", func() {
		e, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
			ProviderType: embeddingutils.ProviderOpenAI,
			APIKey:       "sk-test",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(e).To(BeAssignableToTypeOf(&openai.Embedder{}))
	})

	It("rejects unknown providers", func() {
		_, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{ProviderType: "word2vec"})
		Expect(err).To(MatchError(ContainSubstring("unsupported embedding provider")))
	})
})
