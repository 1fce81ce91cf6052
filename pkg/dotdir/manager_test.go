package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gauntlet/pkg/dotdir"
)

var _ = Describe("dotdir", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())

		// Resolve symlinks so paths match filepath.Abs results
		// (e.g. on macOS /var -> /private/var).
		tmpDir, err = filepath.EvalSymlinks(tmpDir)
		Expect(err).NotTo(HaveOccurred())

		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	chdir := func(dir string) {
		origDir, err := os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(dir)).To(Succeed())
		DeferCleanup(func() { os.Chdir(origDir) })
	}

	Describe("Target", func() {
		It("creates the override directory if it doesn't exist", func() {
			dir := filepath.Join(tmpDir, "newdir")
			result, err := m.Target(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(dir))

			info, err := os.Stat(dir)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.IsDir()).To(BeTrue())
		})

		It("returns the override dir even when a local .gauntlet dir exists", func() {
			Expect(os.Mkdir(filepath.Join(tmpDir, ".gauntlet"), 0o755)).To(Succeed())
			chdir(tmpDir)

			overrideDir := filepath.Join(tmpDir, "override")
			result, err := m.Target(overrideDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(overrideDir))
		})

		It("returns the local .gauntlet dir when it exists and no override is provided", func() {
			local := filepath.Join(tmpDir, ".gauntlet")
			Expect(os.Mkdir(local, 0o755)).To(Succeed())
			chdir(tmpDir)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(local))
		})

		It("falls back to a created ~/.gauntlet dir", func() {
			emptyDir := filepath.Join(tmpDir, "empty")
			home := filepath.Join(tmpDir, "home")
			Expect(os.Mkdir(emptyDir, 0o755)).To(Succeed())
			Expect(os.Mkdir(home, 0o755)).To(Succeed())
			chdir(emptyDir)
			GinkgoT().Setenv("HOME", home)

			result, err := m.Target("")
			Expect(err).NotTo(HaveOccurred())
			Expect(result).To(Equal(filepath.Join(home, ".gauntlet")))
			Expect(filepath.Join(home, ".gauntlet")).To(BeADirectory())
		})
	})

	Describe("focus", func() {
		It("returns nil when nothing is focused", func() {
			state, err := m.LoadFocus(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("round-trips the focused operation", func() {
			Expect(m.SaveFocus(&dotdir.FocusState{OperationID: "op-1", Name: "persona drift"}, tmpDir)).To(Succeed())

			state, err := m.LoadFocus(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state.OperationID).To(Equal("op-1"))
			Expect(state.Name).To(Equal("persona drift"))
		})

		It("rejects focus without an operation id", func() {
			Expect(m.SaveFocus(&dotdir.FocusState{}, tmpDir)).To(HaveOccurred())
			Expect(m.SaveFocus(nil, tmpDir)).To(HaveOccurred())
		})

		It("errors on a corrupt focus file", func() {
			Expect(os.WriteFile(filepath.Join(tmpDir, "focus.json"), []byte("{"), 0o600)).To(Succeed())
			_, err := m.LoadFocus(tmpDir)
			Expect(err).To(MatchError(ContainSubstring("parsing focus state")))
		})

		It("clears focus idempotently", func() {
			Expect(m.SaveFocus(&dotdir.FocusState{OperationID: "op-1"}, tmpDir)).To(Succeed())
			Expect(m.ClearFocus(tmpDir)).To(Succeed())
			Expect(m.ClearFocus(tmpDir)).To(Succeed())

			state, err := m.LoadFocus(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})
	})
})
