// Package e2e_test contains end-to-end tests that exercise the full
// querysense CLI by importing the root command and running it in-process
// against a temporary working directory. Output is captured via cobra's
// SetOut so tests can run concurrently without affecting os.Stdout.
package e2e_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	rootcmd "github.com/go-ports/querysense/cmd/querysense/root"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// runCmd executes the root command with the provided args and returns the
// captured stdout output along with any execution error.
func runCmd(t testing.TB, args ...string) (string, error) {
	t.Helper()

	var buf bytes.Buffer
	root := rootcmd.New()
	root.SetOut(&buf)
	root.SetArgs(args)
	execErr := root.ExecuteContext(context.Background())

	return buf.String(), execErr
}

// withDatasources creates a temp working directory containing a
// ./datasources/candidates.csv file and chdirs into it for the duration of
// the test, restoring the original working directory on cleanup. sync's
// ingestion source is a fixed relative path, so tests that exercise it
// must run from a directory that has one.
func withDatasources(t testing.TB, csv string) string {
	t.Helper()

	dir := t.TempDir()
	datasources := filepath.Join(dir, "datasources")
	if err := os.Mkdir(datasources, 0o755); err != nil {
		t.Fatalf("mkdir datasources: %v", err)
	}
	if err := os.WriteFile(filepath.Join(datasources, "candidates.csv"), []byte(csv), 0o644); err != nil {
		t.Fatalf("write candidates.csv: %v", err)
	}

	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(prev) })

	return dir
}

const sampleCSV = "email,nombre,sexo,edad,provincia,ciudad,descripcion\n" +
	"ana@example.com,Ana Gomez,F,30,Buenos Aires,La Plata,backend engineer with Go experience\n" +
	"luis@example.com,Luis Perez,M,42,Cordoba,Villa Carlos Paz,frontend developer and React specialist\n"

// ---------------------------------------------------------------------------
// Help
// ---------------------------------------------------------------------------

func TestHelp_HappyPath(t *testing.T) {
	c := qt.New(t)

	out, err := runCmd(t, "--help")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "querysense")
}

// ---------------------------------------------------------------------------
// Serve — explicit non-goal stub
// ---------------------------------------------------------------------------

func TestServe_NotImplemented(t *testing.T) {
	c := qt.New(t)

	_, err := runCmd(t, "serve")
	c.Assert(err, qt.IsNotNil)
	c.Assert(err.Error(), qt.Contains, "not implemented in this build")
}

// ---------------------------------------------------------------------------
// Sync — fts strategy
// ---------------------------------------------------------------------------

func TestSync_FTS_HappyPath(t *testing.T) {
	c := qt.New(t)

	dir := withDatasources(t, sampleCSV)
	dbPath := filepath.Join(dir, "test.db")

	out, err := runCmd(t, "--database", dbPath, "--template", "{{descripcion}}", "sync", "--sync-strat", "fts")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Contains, "sync finished")
}

func TestSync_InvalidStrategy_FailurePath(t *testing.T) {
	c := qt.New(t)

	dir := withDatasources(t, sampleCSV)
	dbPath := filepath.Join(dir, "test.db")

	_, err := runCmd(t, "--database", dbPath, "--template", "{{descripcion}}", "sync", "--sync-strat", "bogus")
	c.Assert(err, qt.IsNotNil)
}

// ---------------------------------------------------------------------------
// Sync — vector strategy, mocked embedding providers
// ---------------------------------------------------------------------------

func TestSync_Vector_HappyPath(t *testing.T) {
	c := qt.New(t)

	for _, tc := range embeddingCases {
		c.Run(tc.provider, func(c *qt.C) {
			srv := tc.startSrv(c.TB)
			dir := withDatasources(c.TB, sampleCSV)
			dbPath := filepath.Join(dir, "test.db")
			cfgPath := writeSyncConfig(c.TB, dir, tc.provider, srv.URL)

			out, err := runCmd(c.TB,
				"--database", dbPath, "--template", "{{descripcion}}", "--config", cfgPath,
				"sync", "--sync-strat", "vector",
			)
			c.Assert(err, qt.IsNil)
			c.Assert(out, qt.Contains, "embedded 1/1 chunks")
		})
	}
}

// writeSyncConfig writes a config.yaml configuring the named embedding
// provider to use baseURL, and returns its path.
func writeSyncConfig(tb testing.TB, dir, provider, baseURL string) string {
	tb.Helper()

	path := filepath.Join(dir, "config.yaml")
	content := "embedding:\n  provider: " + provider + "\n  model: test-model\n  base_url: " + baseURL + "\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		tb.Fatalf("writeSyncConfig: %v", err)
	}
	return path
}

// ---------------------------------------------------------------------------
// Embed
// ---------------------------------------------------------------------------

func TestEmbed_HappyPath(t *testing.T) {
	c := qt.New(t)

	for _, tc := range embeddingCases {
		c.Run(tc.provider, func(c *qt.C) {
			srv := tc.startSrv(c.TB)
			dir := t.TempDir()
			cfgPath := writeSyncConfig(c.TB, dir, tc.provider, srv.URL)

			out, err := runCmd(t, "--config", cfgPath, "embed", "--input", "hello world")
			c.Assert(err, qt.IsNil)
			c.Assert(out, qt.Contains, "0.1")
		})
	}
}

func TestEmbed_MissingInput_FailurePath(t *testing.T) {
	c := qt.New(t)

	_, err := runCmd(t, "embed")
	c.Assert(err, qt.IsNotNil)
}
