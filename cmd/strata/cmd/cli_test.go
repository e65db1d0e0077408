package cmd

import (
	"bytes"
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type ExitMocks struct {
	mock.Mock
	fatalCalls int
	exitCodes  []int
}

func (m *ExitMocks) Fatalf(format string, v ...interface{}) {
	m.fatalCalls++
}

func (m *ExitMocks) Fatalln(v ...interface{}) {
	m.fatalCalls++
}

func (m *ExitMocks) Exit(code int) {
	m.exitCodes = append(m.exitCodes, code)
}

// https://github.com/stretchr/testify/issues/610
func MakeFatalfMock(m *ExitMocks) func(string, ...interface{}) {
	return func(format string, v ...interface{}) {
		m.Fatalf(format, v...)
	}
}

func MakeFatallnMock(m *ExitMocks) func(...interface{}) {
	return func(v ...interface{}) {
		m.Fatalln(v...)
	}
}

func MakeExitMock(m *ExitMocks) func(int) {
	return func(code int) {
		m.Exit(code)
	}
}

var exitMocks *ExitMocks

// setupCLITest points the CLI at throwaway store and workspace directories
// and patches over the fatal exits. Flag globals are seeded the same way
// initConfig would seed them from a config file.
func setupCLITest(t *testing.T) (storeDir, workDir string) {
	t.Helper()
	storeDir = t.TempDir()
	workDir = t.TempDir()
	exitMocks = new(ExitMocks)
	logFatalf = MakeFatalfMock(exitMocks)
	logFatalln = MakeFatallnMock(exitMocks)
	osExit = MakeExitMock(exitMocks)
	viper.Reset()
	strataFlags.root.store = storeDir
	strataFlags.root.workspace = workDir
	strataFlags.root.logLevel = "none"
	strataFlags.contributor.Name = "tests"
	strataFlags.contributor.Email = "tests@example.com"
	return storeDir, workDir
}

// resetVolatileFlags clears per-command flag state that would otherwise
// leak between Execute calls sharing the process-wide flag globals.
func resetVolatileFlags() {
	strataFlags.target.global = false
	strataFlags.target.local = false
	strataFlags.target.mode = false
	strataFlags.target.project = false
	strataFlags.target.scope = ""
	strataFlags.target.layer = ""
	strataFlags.stage.deletion = false
	strataFlags.unstage.all = false
	strataFlags.apply.force = false
	strataFlags.checkout.dest = ""
	strataFlags.core.Max = 0
}

func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	resetVolatileFlags()
	var buf bytes.Buffer
	savedInfo := infoLogger
	savedStdOut := logStdOut
	infoLogger = log.New(&buf, "", 0)
	logStdOut = func(format string, a ...interface{}) (int, error) {
		return fmt.Fprintf(&buf, format, a...)
	}
	log.SetOutput(&buf)
	defer func() {
		infoLogger = savedInfo
		logStdOut = savedStdOut
		log.SetOutput(os.Stderr)
	}()
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute())
	return buf.String()
}

func writeWorkspaceFile(t *testing.T, workDir, pth, content string) {
	t.Helper()
	require.NoError(t, ioutil.WriteFile(filepath.Join(workDir, pth), []byte(content), 0644))
}

func TestCLIInitStageCommitApply(t *testing.T) {
	_, workDir := setupCLITest(t)

	out := runCmd(t, "init", "website")
	require.Contains(t, out, `initialized workspace for project "website"`)

	writeWorkspaceFile(t, workDir, "settings.json", `{"timeout": 30, "retries": 3}`)
	out = runCmd(t, "stage", "--global", "settings.json")
	require.Contains(t, out, "staged settings.json in layer global")

	out = runCmd(t, "commit", "-m", "global defaults")
	require.Contains(t, out, "global ->")

	writeWorkspaceFile(t, workDir, "settings.json", `{"timeout": 5}`)
	out = runCmd(t, "stage", "settings.json")
	require.Contains(t, out, "staged settings.json in layer project:project=website")

	out = runCmd(t, "commit", "-m", "project override")
	require.Contains(t, out, "project:project=website ->")

	out = runCmd(t, "apply")
	require.Contains(t, out, "wrote settings.json")
	require.Contains(t, out, "layer global")
	require.Contains(t, out, "layer project:project=website")

	merged, err := ioutil.ReadFile(filepath.Join(workDir, "settings.json"))
	require.NoError(t, err)
	require.JSONEq(t, `{"timeout": 5, "retries": 3}`, string(merged))
	_, err = os.Stat(filepath.Join(workDir, ".strata", "metadata.json"))
	require.NoError(t, err)

	out = runCmd(t, "status")
	require.Contains(t, out, "state: CLEAN")

	out = runCmd(t, "layer", "list")
	require.Contains(t, out, "global , ")
	require.Contains(t, out, "project:project=website , ")

	out = runCmd(t, "log", "--global")
	require.Contains(t, out, "global defaults")
	require.Contains(t, out, "tests <tests@example.com>")

	require.Equal(t, 0, exitMocks.fatalCalls)
}

func TestCLIDirtyAndForce(t *testing.T) {
	_, workDir := setupCLITest(t)

	runCmd(t, "init", "website")
	writeWorkspaceFile(t, workDir, "settings.json", `{"timeout": 30}`)
	runCmd(t, "stage", "--global", "settings.json")
	runCmd(t, "commit", "-m", "defaults")
	runCmd(t, "apply")
	require.Equal(t, 0, exitMocks.fatalCalls)

	writeWorkspaceFile(t, workDir, "settings.json", "tampered")
	out := runCmd(t, "status")
	require.Contains(t, out, "state: DIRTY")
	require.Contains(t, out, "modified: settings.json")

	runCmd(t, "apply")
	require.Equal(t, 1, exitMocks.fatalCalls)

	out = runCmd(t, "apply", "--force")
	require.Contains(t, out, "wrote settings.json")
	restored, err := ioutil.ReadFile(filepath.Join(workDir, "settings.json"))
	require.NoError(t, err)
	require.JSONEq(t, `{"timeout": 30}`, string(restored))

	out = runCmd(t, "status")
	require.Contains(t, out, "state: CLEAN")
	require.Equal(t, 1, exitMocks.fatalCalls)
}

func TestCLIStageAndUnstage(t *testing.T) {
	_, workDir := setupCLITest(t)

	runCmd(t, "init", "website")
	writeWorkspaceFile(t, workDir, "a.json", `{"a": 1}`)
	writeWorkspaceFile(t, workDir, "b.json", `{"b": 2}`)
	runCmd(t, "stage", "--global", "a.json", "b.json")

	out := runCmd(t, "status")
	require.Contains(t, out, "staged in layer global:")
	require.Contains(t, out, "a.json")
	require.Contains(t, out, "b.json")

	out = runCmd(t, "unstage", "--global", "a.json")
	require.Contains(t, out, "unstaged a.json from layer global")
	out = runCmd(t, "unstage", "--global", "a.json")
	require.Contains(t, out, "nothing staged for a.json in layer global")

	out = runCmd(t, "unstage", "--all")
	require.Contains(t, out, "cleared all pending changes")
	out = runCmd(t, "status")
	require.NotContains(t, out, "staged in layer")

	// nothing staged anymore
	runCmd(t, "commit", "-m", "empty")
	require.Equal(t, 1, exitMocks.fatalCalls)
}

func TestCLIStageWithoutInit(t *testing.T) {
	_, workDir := setupCLITest(t)

	writeWorkspaceFile(t, workDir, "settings.json", `{"timeout": 30}`)
	runCmd(t, "stage", "settings.json")
	require.Equal(t, 1, exitMocks.fatalCalls)
}

func TestCLIUseModeDetached(t *testing.T) {
	_, workDir := setupCLITest(t)

	runCmd(t, "init", "website")
	out := runCmd(t, "use", "mode", "vim")
	require.Contains(t, out, `mode set to "vim"`)

	writeWorkspaceFile(t, workDir, "ui.yaml", "theme: dark\n")
	runCmd(t, "stage", "--mode", "ui.yaml")
	runCmd(t, "commit", "-m", "vim ui")
	out = runCmd(t, "apply")
	require.Contains(t, out, "wrote ui.yaml")

	out = runCmd(t, "use", "mode")
	require.Contains(t, out, "mode cleared")
	require.Contains(t, out, "cleared the record of the last apply")

	out = runCmd(t, "use", "mode", "vim")
	require.Contains(t, out, `mode set to "vim"`)
	require.NotContains(t, out, "cleared the record")

	out = runCmd(t, "status")
	require.Contains(t, out, "state: DETACHED")
	require.Contains(t, out, "stale layer: mode:mode=vim")

	out = runCmd(t, "apply")
	require.Contains(t, out, "wrote ui.yaml")
	out = runCmd(t, "status")
	require.Contains(t, out, "state: CLEAN")

	require.Equal(t, 0, exitMocks.fatalCalls)
}

func TestCLISyncFastForward(t *testing.T) {
	remoteStore, remoteWork := setupCLITest(t)
	localStore := t.TempDir()
	localWork := t.TempDir()

	runCmd(t, "--store", remoteStore, "--workspace", remoteWork, "init", "website")
	writeWorkspaceFile(t, remoteWork, "settings.json", `{"timeout": 30}`)
	runCmd(t, "--store", remoteStore, "--workspace", remoteWork, "stage", "--global", "settings.json")
	runCmd(t, "--store", remoteStore, "--workspace", remoteWork, "commit", "-m", "team defaults")

	runCmd(t, "--store", localStore, "--workspace", localWork, "init", "website")
	out := runCmd(t, "--store", localStore, "--workspace", localWork,
		"sync", "--global", "--remote", remoteStore)
	require.Contains(t, out, "global: fast-forward")
	require.Contains(t, out, "head is now")

	out = runCmd(t, "--store", localStore, "--workspace", localWork, "apply")
	require.Contains(t, out, "wrote settings.json")

	out = runCmd(t, "--store", localStore, "--workspace", localWork,
		"sync", "--global", "--remote", remoteStore)
	require.Contains(t, out, "global: up-to-date")

	require.Equal(t, 0, exitMocks.fatalCalls)
	require.Empty(t, exitMocks.exitCodes)
}

func TestCLISyncConflictSidecar(t *testing.T) {
	remoteStore, remoteWork := setupCLITest(t)
	localStore := t.TempDir()
	localWork := t.TempDir()

	runCmd(t, "--store", remoteStore, "--workspace", remoteWork, "init", "website")
	writeWorkspaceFile(t, remoteWork, "notes.txt", "alpha\nbeta\ngamma\n")
	runCmd(t, "--store", remoteStore, "--workspace", remoteWork, "stage", "--global", "notes.txt")
	runCmd(t, "--store", remoteStore, "--workspace", remoteWork, "commit", "-m", "base")

	runCmd(t, "--store", localStore, "--workspace", localWork, "init", "website")
	out := runCmd(t, "--store", localStore, "--workspace", localWork,
		"sync", "--global", "--remote", remoteStore)
	require.Contains(t, out, "global: fast-forward")

	// both sides edit the same line
	writeWorkspaceFile(t, localWork, "notes.txt", "alpha\nBETA-local\ngamma\n")
	runCmd(t, "--store", localStore, "--workspace", localWork, "stage", "--global", "notes.txt")
	runCmd(t, "--store", localStore, "--workspace", localWork, "commit", "-m", "local edit")

	writeWorkspaceFile(t, remoteWork, "notes.txt", "alpha\nBETA-remote\ngamma\n")
	runCmd(t, "--store", remoteStore, "--workspace", remoteWork, "stage", "--global", "notes.txt")
	runCmd(t, "--store", remoteStore, "--workspace", remoteWork, "commit", "-m", "remote edit")

	out = runCmd(t, "--store", localStore, "--workspace", localWork,
		"sync", "--global", "--remote", remoteStore)
	require.Contains(t, out, "global: merged")
	require.Contains(t, out, "conflict sidecar notes.txt.conflict")
	require.Contains(t, out, "unresolved notes.txt (local version kept)")
	require.Equal(t, []int{2}, exitMocks.exitCodes)

	sidecar, err := ioutil.ReadFile(filepath.Join(localWork, "notes.txt.conflict"))
	require.NoError(t, err)
	require.Contains(t, string(sidecar), "<<<<<<< local global")
	require.Contains(t, string(sidecar), ">>>>>>> remote global")

	require.Equal(t, 0, exitMocks.fatalCalls)
}

func TestCLIConfigFromFile(t *testing.T) {
	storeDir := t.TempDir()
	cfgFile := filepath.Join(t.TempDir(), "strata.yaml")
	require.NoError(t, ioutil.WriteFile(cfgFile,
		[]byte("store: "+storeDir+"\nname: config-tests\nemail: cfg@example.com\n"), 0600))
	t.Setenv("STRATA_CONFIG", cfgFile)

	exitMocks = new(ExitMocks)
	logFatalf = MakeFatalfMock(exitMocks)
	logFatalln = MakeFatallnMock(exitMocks)
	osExit = MakeExitMock(exitMocks)
	viper.Reset()
	strataFlags.root.store = ""
	strataFlags.root.logLevel = "none"
	strataFlags.contributor.Name = ""
	strataFlags.contributor.Email = ""

	out := runCmd(t, "version")
	require.Contains(t, out, "Using config file: "+cfgFile)
	require.Contains(t, out, "Version: dev")
	require.Contains(t, out, "This is not a released version")

	require.Equal(t, storeDir, strataFlags.root.store)
	require.Equal(t, "config-tests", strataFlags.contributor.Name)
	require.Equal(t, "cfg@example.com", strataFlags.contributor.Email)
	require.Equal(t, 0, exitMocks.fatalCalls)
}
