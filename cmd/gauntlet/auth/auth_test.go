package authcmder_test

import (
	"bytes"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/gauntlet/cmd/gauntlet/auth"
	"github.com/papercomputeco/gauntlet/cmd/gauntlet/cmdutil"
	"github.com/papercomputeco/gauntlet/pkg/credentials"
)

var _ = Describe("Auth command", func() {
	var (
		dir string
		out *bytes.Buffer
	)

	run := func(stdin string, args ...string) error {
		root := &cobra.Command{Use: "gauntlet", SilenceUsage: true, SilenceErrors: true}
		root.PersistentFlags().String(cmdutil.FlagConfigDir, "", "")
		root.AddCommand(authcmder.NewAuthCmd())

		out = &bytes.Buffer{}
		root.SetOut(out)
		root.SetErr(out)
		root.SetIn(strings.NewReader(stdin))
		root.SetArgs(append([]string{"--config-dir", dir, "auth"}, args...))
		return root.Execute()
	}

	storedKey := func(provider string) string {
		mgr, err := credentials.NewManager(dir)
		Expect(err).NotTo(HaveOccurred())
		key, err := mgr.GetKey(provider)
		Expect(err).NotTo(HaveOccurred())
		return key
	}

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("stores a piped key", func() {
		Expect(run("  sk-piped  \n", "OpenAI")).To(Succeed())
		Expect(storedKey("openai")).To(Equal("sk-piped"))
		Expect(out.String()).To(ContainSubstring("Stored"))
	})

	It("rejects unsupported providers", func() {
		Expect(run("sk\n", "ollama")).To(MatchError(ContainSubstring("unsupported provider")))
	})

	It("rejects an empty key", func() {
		Expect(run("   \n", "anthropic")).To(MatchError(ContainSubstring("cannot be empty")))
	})

	It("requires a provider without flags", func() {
		Expect(run("")).To(MatchError(ContainSubstring("provider argument required")))
	})

	It("lists and removes stored providers", func() {
		Expect(run("sk-ant\n", "anthropic")).To(Succeed())

		Expect(run("", "--list")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("anthropic"))
		Expect(out.String()).To(ContainSubstring("ANTHROPIC_API_KEY"))

		Expect(run("", "--remove", "anthropic")).To(Succeed())
		Expect(storedKey("anthropic")).To(BeEmpty())

		Expect(run("", "--list")).To(Succeed())
		Expect(out.String()).To(ContainSubstring("No stored credentials"))
	})
})
