package cmdutil_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/gauntlet/cmd/gauntlet/cmdutil"
	"github.com/papercomputeco/gauntlet/pkg/config"
	"github.com/papercomputeco/gauntlet/pkg/dotdir"
)

var _ = Describe("cmdutil", func() {
	var (
		dir string
		cmd *cobra.Command
		op  string
	)

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
		op = ""
		cmd = &cobra.Command{Use: "test"}
		cmd.Flags().String(cmdutil.FlagConfigDir, "", "")
		cmd.Flags().Bool(cmdutil.FlagDebug, false, "")
		cmdutil.AddOperationFlag(cmd, &op)
		Expect(cmd.Flags().Set(cmdutil.FlagConfigDir, dir)).To(Succeed())
	})

	Describe("ResolveOperation", func() {
		It("prefers an explicit ID", func() {
			Expect(cmd.Flags().Set(cmdutil.FlagOperation, "from-flag")).To(Succeed())
			id, err := cmdutil.ResolveOperation(cmd, "explicit")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal("explicit"))
		})

		It("falls back to the --operation flag", func() {
			Expect(cmd.Flags().Set(cmdutil.FlagOperation, "from-flag")).To(Succeed())
			id, err := cmdutil.ResolveOperation(cmd, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal("from-flag"))
		})

		It("falls back to the focused operation", func() {
			Expect(dotdir.NewManager().SaveFocus(&dotdir.FocusState{OperationID: "focused"}, dir)).To(Succeed())
			id, err := cmdutil.ResolveOperation(cmd, "")
			Expect(err).NotTo(HaveOccurred())
			Expect(id).To(Equal("focused"))
		})

		It("fails when nothing selects an operation", func() {
			_, err := cmdutil.ResolveOperation(cmd, "")
			Expect(err).To(MatchError(cmdutil.ErrNoOperation))
		})
	})

	Describe("LoadConfig", func() {
		It("reads config.toml from the config dir", func() {
			cfg, err := config.PresetConfig("offline")
			Expect(err).NotTo(HaveOccurred())
			cfger, err := config.NewConfiger(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(cfger.SaveConfig(cfg)).To(Succeed())

			loaded, resolved, err := cmdutil.LoadConfig(cmd)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Storage.Driver).To(Equal("inmemory"))
			Expect(loaded.Target.Provider).To(Equal("fake"))

			abs, err := filepath.Abs(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(resolved).To(Equal(abs))
		})

		It("lets a bound flag win over the file", func() {
			var driver string
			config.AddStringFlag(cmd, config.Flags, config.FlagStorageDriver, &driver)
			Expect(cmd.Flags().Set("storage", "inmemory")).To(Succeed())

			loaded, _, err := cmdutil.LoadConfig(cmd, config.FlagStorageDriver)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Storage.Driver).To(Equal("inmemory"))
		})
	})

	It("opens an engine with the offline preset", func() {
		cfg, err := config.PresetConfig("offline")
		Expect(err).NotTo(HaveOccurred())
		cfger, err := config.NewConfiger(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfger.SaveConfig(cfg)).To(Succeed())

		e, err := cmdutil.OpenEngine(cmd, cmdutil.NewLogger(cmd))
		Expect(err).NotTo(HaveOccurred())
		Expect(e.Close()).To(Succeed())

		_, err = os.Stat(filepath.Join(dir, "config.toml"))
		Expect(err).NotTo(HaveOccurred())
	})
})
