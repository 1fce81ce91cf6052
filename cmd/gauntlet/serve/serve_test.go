package servecmder

import (
	"bytes"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/gauntlet/cmd/gauntlet/cmdutil"
	"github.com/papercomputeco/gauntlet/pkg/config"
)

var _ = Describe("NewServeCmd", func() {
	It("registers the registry flags and serve-only flags", func() {
		cmd := NewServeCmd()
		for _, key := range serveFlags {
			Expect(cmd.Flags().Lookup(config.Flags[key].Name)).NotTo(BeNil(), key)
		}
		Expect(cmd.Flags().Lookup("no-mcp")).NotTo(BeNil())
		Expect(cmd.Flags().Lookup("log-file")).NotTo(BeNil())
	})
})

var _ = Describe("setupLogger", func() {
	var (
		cmder  *serveCommander
		stderr *bytes.Buffer
	)

	BeforeEach(func() {
		cmder = &serveCommander{flags: config.Flags}
		stderr = &bytes.Buffer{}
	})

	newCmd := func() {
		cmd := NewServeCmd()
		cmd.Flags().Bool(cmdutil.FlagDebug, false, "")
		cmd.SetErr(stderr)
		closeLog, err := cmder.setupLogger(cmd)
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(closeLog)
	}

	It("logs JSON to stderr by default", func() {
		newCmd()
		cmder.logger.Info("listening")
		Expect(stderr.String()).To(ContainSubstring(`"msg":"listening"`))
	})

	It("also appends JSON lines to the log file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "serve.log")
		cmder.logFile = path
		cmder.prettyLogs = true
		newCmd()

		cmder.logger.Info("listening", "addr", ":8088")

		Expect(stderr.String()).To(ContainSubstring("listening"))
		data, err := os.ReadFile(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(string(data)).To(ContainSubstring(`"addr":":8088"`))
	})

	It("fails when the log file cannot be opened", func() {
		cmder.logFile = filepath.Join(GinkgoT().TempDir(), "missing", "serve.log")
		cmd := NewServeCmd()
		cmd.Flags().Bool(cmdutil.FlagDebug, false, "")
		_, err := cmder.setupLogger(cmd)
		Expect(err).To(MatchError(ContainSubstring("opening log file")))
	})
})
