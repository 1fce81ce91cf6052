package engine

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gauntlet/pkg/credentials"
)

var _ = Describe("storedKey", func() {
	It("reads provider keys from the credentials file in the config dir", func() {
		dir := GinkgoT().TempDir()
		mgr, err := credentials.NewManager(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(mgr.SetKey("anthropic", "sk-stored")).To(Succeed())

		key, err := storedKey(dir, "anthropic")
		Expect(err).NotTo(HaveOccurred())
		Expect(key).To(Equal("sk-stored"))
	})

	It("leaves resolution to the caller without a config dir", func() {
		key, err := storedKey("", "openai")
		Expect(err).NotTo(HaveOccurred())
		Expect(key).To(BeEmpty())
	})
})
