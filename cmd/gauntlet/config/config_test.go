package configcmder_test

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/gauntlet/cmd/gauntlet/cmdutil"
	configcmder "github.com/papercomputeco/gauntlet/cmd/gauntlet/config"
	"github.com/papercomputeco/gauntlet/pkg/config"
)

var _ = Describe("NewConfigCmd", func() {
	It("creates a command with the correct use string", func() {
		cmd := configcmder.NewConfigCmd()
		Expect(cmd.Use).To(Equal("config"))
	})

	It("has set, get, and list subcommands", func() {
		cmd := configcmder.NewConfigCmd()
		cmds := cmd.Commands()
		subcommands := make([]string, 0, len(cmds))
		for _, sub := range cmds {
			subcommands = append(subcommands, sub.Name())
		}
		Expect(subcommands).To(ContainElements("set", "get", "list"))
	})
})

var _ = Describe("Config command execution", func() {
	var (
		tmpDir string
		out    *bytes.Buffer
	)

	run := func(args ...string) error {
		root := &cobra.Command{Use: "gauntlet", SilenceUsage: true, SilenceErrors: true}
		root.PersistentFlags().String(cmdutil.FlagConfigDir, "", "")
		root.AddCommand(configcmder.NewConfigCmd())

		out = &bytes.Buffer{}
		root.SetOut(out)
		root.SetErr(out)
		root.SetArgs(append([]string{"--config-dir", tmpDir, "config"}, args...))
		return root.Execute()
	}

	load := func() *config.Config {
		cfger, err := config.NewConfiger(tmpDir)
		Expect(err).NotTo(HaveOccurred())
		cfg, err := cfger.LoadConfig()
		Expect(err).NotTo(HaveOccurred())
		return cfg
	}

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
	})

	Describe("set subcommand", func() {
		It("sets a config value successfully", func() {
			Expect(run("set", "target.provider", "anthropic")).To(Succeed())

			_, err := os.Stat(filepath.Join(tmpDir, "config.toml"))
			Expect(err).NotTo(HaveOccurred())
			Expect(load().Target.Provider).To(Equal("anthropic"))
			Expect(out.String()).To(ContainSubstring("target.provider"))
		})

		It("sets bool and list values", func() {
			Expect(run("set", "lifecycle.strict_transitions", "true")).To(Succeed())
			Expect(run("set", "eventstream.brokers", "kafka-1:9092, kafka-2:9092")).To(Succeed())

			cfg := load()
			Expect(cfg.Lifecycle.StrictTransitions).To(BeTrue())
			Expect(cfg.EventStream.Brokers).To(Equal([]string{"kafka-1:9092", "kafka-2:9092"}))
		})

		It("rejects unknown keys", func() {
			err := run("set", "invalid_key", "value")
			Expect(err).To(MatchError(ContainSubstring("unknown config key")))
		})

		It("requires exactly two arguments", func() {
			Expect(run("set", "target.provider")).NotTo(Succeed())
		})

		It("rejects zero arguments", func() {
			Expect(run("set")).NotTo(Succeed())
		})

		It("rejects invalid uint values", func() {
			Expect(run("set", "embedding.dimensions", "not-a-number")).NotTo(Succeed())
		})

		It("rejects a negative default limit", func() {
			Expect(run("set", "corpus.default_limit", "-1")).NotTo(Succeed())
		})
	})

	Describe("get subcommand", func() {
		It("gets a previously set value", func() {
			Expect(run("set", "target.model", "gpt-4o-mini")).To(Succeed())

			Expect(run("get", "target.model")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("gpt-4o-mini"))
		})

		It("shows defaults when no file exists", func() {
			Expect(run("get", "storage.driver")).To(Succeed())
			Expect(out.String()).To(ContainSubstring("sqlite"))
		})

		It("rejects unknown keys", func() {
			Expect(run("get", "invalid_key")).NotTo(Succeed())
		})

		It("requires exactly one argument", func() {
			Expect(run("get")).NotTo(Succeed())
		})
	})

	Describe("list subcommand", func() {
		It("runs without error when no config exists", func() {
			Expect(run("list")).To(Succeed())
			for _, key := range config.ValidConfigKeys() {
				Expect(out.String()).To(ContainSubstring(key))
			}
		})

		It("shows set values", func() {
			Expect(run("set", "api.listen", ":9999")).To(Succeed())

			Expect(run("list")).To(Succeed())
			Expect(out.String()).To(ContainSubstring(`":9999"`))
		})

		It("rejects any arguments", func() {
			Expect(run("list", "extra")).NotTo(Succeed())
		})
	})
})
