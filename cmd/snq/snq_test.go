package main_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path"
	"path/filepath"
	"sync"
	"time"

	. "github.com/onsi/ginkgo"
	"github.com/onsi/ginkgo/extensions/table"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/gexec"

	"github.com/ink1/sntool"
	"github.com/ink1/sntool/pkg/checksum"
	"github.com/ink1/sntool/pkg/config"
)

const fileData = "hello\n"

// fakeStorNext answers web service calls for the files it knows about.
type fakeStorNext struct {
	sync.Mutex
	locations map[string]string
	calls     []string
	copies    []string
}

func (f *fakeStorNext) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	op := path.Base(r.URL.Path)

	f.Lock()
	f.calls = append(f.calls, op)
	f.copies = append(f.copies, r.PostForm.Get("copies"))
	loc, known := f.locations[r.PostForm.Get("files")]
	f.Unlock()

	var payload string
	switch op {
	case "getFileLocation":
		if known {
			payload = `{"fileInfos": [` + loc + `]}`
		} else {
			payload = `{"fileInfos": []}`
		}
	case "doStore", "doTruncate", "doRetrieve":
		payload = fmt.Sprintf(`{"statuses": [{"commandStatus": "completed", "statusText": "%s done"}]}`, op)
	default:
		http.NotFound(w, r)
		return
	}
	fmt.Fprintf(w, `<ns1:%sResponse xmlns:ns1="http://www.quantum.com/stornext/"><out>%s</out></ns1:%sResponse>`,
		op, payload, op)
}

func (f *fakeStorNext) Calls() []string {
	f.Lock()
	defer f.Unlock()
	return append([]string{}, f.calls...)
}

func fileInfo(name, location string, existing int, sums ...string) string {
	medias := ""
	checksums := ""
	for i, sum := range sums {
		if i > 0 {
			medias += ","
			checksums += ","
		}
		medias += fmt.Sprintf(`{"copy": %d, "mediaId": "M00%d"}`, i+1, i+1)
		checksums += fmt.Sprintf(`{"fileSegment": 1, "copyId": %d, "checksumValue": "%s"}`, i+1, sum)
	}
	return fmt.Sprintf(`{
		"fileName": "%s",
		"storedPathFileName": "/%s",
		"location": "%s",
		"lastModificationDateString": "15-Jul-2014 10:11:12",
		"existingCopies": %d,
		"targetCopies": 2,
		"fileSize": %d,
		"targetStubSize": 0,
		"class": "test_class",
		"medias": [%s],
		"checksums": [%s]
	}`, name, name, location, existing, len(fileData), medias, checksums)
}

// multiSegmentInfo describes a file stored as two segments on two copies.
func multiSegmentInfo(name, location string) string {
	return fmt.Sprintf(`{
		"fileName": "%s",
		"location": "%s",
		"existingCopies": 2,
		"targetCopies": 2,
		"fileSize": %d,
		"medias": [{"copy": 1, "mediaId": "M001"}, {"copy": 2, "mediaId": "M002"}],
		"checksums": [
			{"fileSegment": 1, "copyId": 1, "checksumValue": "abc"},
			{"fileSegment": 1, "copyId": 2, "checksumValue": "abc"},
			{"fileSegment": 2, "copyId": 1, "checksumValue": "def"},
			{"fileSegment": 2, "copyId": 2, "checksumValue": "def"}
		]
	}`, name, location, len(fileData))
}

var _ = Describe("snq", func() {
	var (
		stornext *fakeStorNext
		server   *httptest.Server
		root     string
		cfgPath  string
	)

	mkfile := func(name string) string {
		p := filepath.Join(root, name)
		Ω(os.WriteFile(p, []byte(fileData), 0644)).Should(Succeed())
		return p
	}

	run := func(args ...string) *gexec.Session {
		cmd := exec.Command(snqPath, append([]string{"--config", cfgPath}, args...)...)
		session, err := gexec.Start(cmd, GinkgoWriter, GinkgoWriter)
		Ω(err).ShouldNot(HaveOccurred())
		Eventually(session, 10*time.Second).Should(gexec.Exit())
		return session
	}

	writeConfig := func(tool string) {
		cfg := fmt.Sprintf(`password = "whatever"
strip_prefix = "%s"
checksum_tool = "%s"

endpoint "test" {
  prefix = "/"
  url = "%s/axis2/services/stornext/"
}
`, root, tool, server.URL)
		Ω(os.WriteFile(cfgPath, []byte(cfg), 0600)).Should(Succeed())
	}

	line := func(label, value string) string {
		return fmt.Sprintf("%-30s %s\n", label, value)
	}

	BeforeEach(func() {
		stornext = &fakeStorNext{
			locations: map[string]string{
				"/safe.dat":      fileInfo("safe.dat", "DISK AND TAPE", 2, "abc", "abc"),
				"/tape.dat":      fileInfo("tape.dat", "TAPE", 2, "abc", "abc"),
				"/bad.dat":       fileInfo("bad.dat", "DISK AND TAPE", 2, "abc", "abd"),
				"/local.dat":     fileInfo("local.dat", "DISK", 0),
				"/tapelocal.dat": fileInfo("tapelocal.dat", "TAPE", 0),
				"/multi.dat":     multiSegmentInfo("multi.dat", "DISK AND TAPE"),
				"/tapemulti.dat": multiSegmentInfo("tapemulti.dat", "TAPE"),
			},
		}
		server = httptest.NewServer(stornext)

		tdir, err := os.MkdirTemp("", "snq")
		Ω(err).ShouldNot(HaveOccurred())
		root, err = filepath.EvalSymlinks(tdir)
		Ω(err).ShouldNot(HaveOccurred())

		cfgPath = filepath.Join(root, "snq.conf")
		writeConfig(checksum.Builtin)

		for _, name := range []string{"safe.dat", "tape.dat", "bad.dat", "local.dat", "unknown.dat",
			"tapelocal.dat", "multi.dat", "tapemulti.dat"} {
			mkfile(name)
		}
	})

	AfterEach(func() {
		server.Close()
		Ω(os.RemoveAll(root)).Should(Succeed())
	})

	Describe("isondisk", func() {
		It("succeeds silently for files on disk", func() {
			session := run("isondisk", filepath.Join(root, "safe.dat"))
			Ω(session.ExitCode()).Should(Equal(0))
			Ω(session.Out.Contents()).Should(BeEmpty())
		})

		It("reads the configuration named by the environment", func() {
			cmd := exec.Command(snqPath, "isondisk", filepath.Join(root, "safe.dat"))
			cmd.Env = append(os.Environ(), config.ConfigPathEnvVar+"="+cfgPath)
			session, err := gexec.Start(cmd, GinkgoWriter, GinkgoWriter)
			Ω(err).ShouldNot(HaveOccurred())
			Eventually(session, 10*time.Second).Should(gexec.Exit(0))
		})

		It("fails for files on tape", func() {
			session := run("isondisk", filepath.Join(root, "tape.dat"))
			Ω(session.ExitCode()).Should(Equal(sntool.NotOnDisk.ExitStatus()))
			Ω(string(session.Err.Contents())).Should(ContainSubstring("error: file is on Tape"))
		})

		It("resolves symlinks before asking StorNext", func() {
			link := filepath.Join(root, "link.dat")
			Ω(os.Symlink(filepath.Join(root, "safe.dat"), link)).Should(Succeed())

			session := run("isondisk", link)
			Ω(session.ExitCode()).Should(Equal(0))
		})
	})

	Describe("issafe", func() {
		It("succeeds for verified copies", func() {
			session := run("issafe", filepath.Join(root, "safe.dat"))
			Ω(session.ExitCode()).Should(Equal(0))
			Ω(session.Out.Contents()).Should(BeEmpty())
		})

		It("fails when copies differ", func() {
			session := run("issafe", filepath.Join(root, "bad.dat"))
			Ω(session.ExitCode()).Should(Equal(sntool.ChecksumMismatch.ExitStatus()))
		})

		It("fails when StorNext returns no report", func() {
			session := run("issafe", filepath.Join(root, "unknown.dat"))
			Ω(session.ExitCode()).Should(Equal(sntool.MalformedReport.ExitStatus()))
		})
	})

	Describe("checksum", func() {
		It("prints the shared checksum", func() {
			p := filepath.Join(root, "safe.dat")
			session := run("checksum", p)
			Ω(session.ExitCode()).Should(Equal(0))
			Ω(string(session.Out.Contents())).Should(Equal("abc " + p + "\n"))
		})

		It("refuses multi-segment files", func() {
			session := run("checksum", filepath.Join(root, "multi.dat"))
			Ω(session.ExitCode()).Should(Equal(sntool.MultiSegmentUnsupported.ExitStatus()))
			Ω(string(session.Err.Contents())).Should(ContainSubstring("error: no checksum - multi-segment file"))
			Ω(session.Out.Contents()).Should(BeEmpty())
		})

		It("fails for files without copies", func() {
			session := run("checksum", filepath.Join(root, "local.dat"))
			Ω(session.ExitCode()).Should(Equal(sntool.NoCopies.ExitStatus()))
			Ω(string(session.Err.Contents())).Should(ContainSubstring("no checksum - no file copies"))
		})
	})

	Describe("md5sum", func() {
		It("computes the checksum locally when StorNext has none", func() {
			p := filepath.Join(root, "local.dat")
			session := run("md5sum", p)
			Ω(session.ExitCode()).Should(Equal(0))
			Ω(string(session.Out.Contents())).Should(Equal("b1946ac92492d2347c6235b4d2611184 " + p + "\n"))
		})

		It("computes multi-segment checksums locally", func() {
			p := filepath.Join(root, "multi.dat")
			session := run("md5sum", p)
			Ω(session.ExitCode()).Should(Equal(0))
			Ω(string(session.Out.Contents())).Should(Equal("b1946ac92492d2347c6235b4d2611184 " + p + "\n"))
		})

		table.DescribeTable("does not run the tool when the data is on tape",
			func(name string) {
				marker := filepath.Join(root, "tool-ran")
				writeConfig("touch " + marker)

				session := run("md5sum", filepath.Join(root, name))
				Ω(session.ExitCode()).Should(Equal(sntool.NotOnDisk.ExitStatus()))
				Ω(string(session.Err.Contents())).Should(ContainSubstring("error: file is on Tape"))
				Ω(session.Out.Contents()).Should(BeEmpty())
				_, err := os.Stat(marker)
				Ω(os.IsNotExist(err)).Should(BeTrue())
			},
			table.Entry("no copies", "tapelocal.dat"),
			table.Entry("multi-segment", "tapemulti.dat"),
		)

		It("uses the recorded checksum when there is one", func() {
			p := filepath.Join(root, "safe.dat")
			session := run("md5sum", p)
			Ω(session.ExitCode()).Should(Equal(0))
			Ω(string(session.Out.Contents())).Should(Equal("abc " + p + "\n"))
		})
	})

	Describe("info", func() {
		It("renders the report", func() {
			session := run("info", filepath.Join(root, "safe.dat"))
			Ω(session.ExitCode()).Should(Equal(0))

			out := string(session.Out.Contents())
			Ω(out).Should(HavePrefix(line("location", "DISK AND TAPE")))
			Ω(out).Should(ContainSubstring(line("tape (copy 2)", "M002")))
			Ω(out).Should(ContainSubstring(line("checksum 1, segment 1", "abc")))
			Ω(out).Should(ContainSubstring(line("checksum 2, segment 1", "same")))
		})

		It("humanizes sizes on request", func() {
			session := run("info", "-H", filepath.Join(root, "safe.dat"))
			Ω(session.ExitCode()).Should(Equal(0))
			Ω(string(session.Out.Contents())).Should(ContainSubstring(line("fileSize", "6 B")))
		})
	})

	Describe("lifecycle commands", func() {
		It("requests two copies for store2", func() {
			session := run("store2", filepath.Join(root, "local.dat"))
			Ω(session.ExitCode()).Should(Equal(0))
			Ω(string(session.Out.Contents())).Should(Equal(
				line("commandStatus", "completed") + line("statusText", "doStore done")))
			Ω(stornext.copies).Should(Equal([]string{"2"}))
		})

		It("truncates safely stored files", func() {
			session := run("truncate", filepath.Join(root, "safe.dat"))
			Ω(session.ExitCode()).Should(Equal(0))
			Ω(stornext.Calls()).Should(Equal([]string{"getFileLocation", "doTruncate"}))
		})

		It("refuses to truncate unverified files", func() {
			session := run("truncate", filepath.Join(root, "bad.dat"))
			Ω(session.ExitCode()).Should(Equal(sntool.ChecksumMismatch.ExitStatus()))
			Ω(stornext.Calls()).Should(Equal([]string{"getFileLocation"}))
		})

		It("retrieves files", func() {
			session := run("retrieve", filepath.Join(root, "tape.dat"))
			Ω(session.ExitCode()).Should(Equal(0))
			Ω(stornext.Calls()).Should(Equal([]string{"doRetrieve"}))
		})
	})

	Describe("failures before contacting StorNext", func() {
		It("rejects unreadable files", func() {
			session := run("issafe", filepath.Join(root, "missing.dat"))
			Ω(session.ExitCode()).Should(Equal(sntool.FileNotReadable.ExitStatus()))
			Ω(string(session.Err.Contents())).Should(ContainSubstring("error: file does not exist or not allowed to read"))
			Ω(stornext.Calls()).Should(BeEmpty())
		})

		It("rejects files outside the strip prefix", func() {
			other, err := os.MkdirTemp("", "snq-other")
			Ω(err).ShouldNot(HaveOccurred())
			defer os.RemoveAll(other)
			p := filepath.Join(other, "elsewhere.dat")
			Ω(os.WriteFile(p, []byte(fileData), 0644)).Should(Succeed())

			session := run("issafe", p)
			Ω(session.ExitCode()).Should(Equal(sntool.RoutingFailed.ExitStatus()))
			Ω(string(session.Err.Contents())).Should(ContainSubstring("unknown file name prefix"))
		})

		It("rejects an insecure config file", func() {
			Ω(os.Chmod(cfgPath, 0644)).Should(Succeed())
			session := run("issafe", filepath.Join(root, "safe.dat"))
			Ω(session.ExitCode()).Should(Equal(1))
			Ω(string(session.Err.Contents())).Should(ContainSubstring("insecure"))
		})

		It("exits 1 on usage errors", func() {
			session := run("issafe")
			Ω(session.ExitCode()).Should(Equal(1))
		})
	})
})
