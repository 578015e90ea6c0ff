package extractor

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// installFakeSevenZip puts a shell script named 7z first on PATH that
// records its arguments and writes one HTML page into the -o directory.
// Returns the path of the argument log.
func installFakeSevenZip(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell shim requires a POSIX shell")
	}

	binDir := t.TempDir()
	argsLog := filepath.Join(binDir, "args.log")

	script := `#!/bin/sh
echo "$@" > "` + argsLog + `"
out=""
for arg in "$@"; do
  case "$arg" in
    -o*) out="${arg#-o}" ;;
  esac
done
mkdir -p "$out"
echo '<html><body><h1>Extracted Page</h1><p>Archive content here.</p></body></html>' > "$out/extracted.html"
`
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "7z"), []byte(script), 0755))
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return argsLog
}

func TestExtract(t *testing.T) {
	ctx := context.Background()

	t.Run("invokes 7z and runs the full pipeline", func(t *testing.T) {
		argsLog := installFakeSevenZip(t)

		cacheDir := t.TempDir()
		chmPath := filepath.Join(cacheDir, "manual.chm")
		require.NoError(t, os.WriteFile(chmPath, []byte("stub"), 0644))

		e := New(map[string]map[string]string{
			"myapp": {"manual": chmPath},
		}, cacheDir)
		defer func() { _ = e.Close() }()

		require.NoError(t, e.EnsureReady(ctx, "myapp", "manual"))

		recorded, err := os.ReadFile(argsLog)
		require.NoError(t, err)
		args := strings.TrimSpace(string(recorded))
		assert.True(t, strings.HasPrefix(args, "x "), "7z should be invoked with the extract command: %s", args)
		assert.Contains(t, args, chmPath)
		assert.Contains(t, args, "-o"+e.htmlDir("myapp", "manual"))
		assert.Contains(t, args, "-y")

		hits, err := e.SearchSource(ctx, "myapp", "manual", "archive", 10)
		require.NoError(t, err)
		require.Len(t, hits, 1)
		assert.Equal(t, "extracted.md", hits[0].Path)
	})

	t.Run("extraction marker prevents a second run", func(t *testing.T) {
		argsLog := installFakeSevenZip(t)

		cacheDir := t.TempDir()
		e := New(map[string]map[string]string{
			"myapp": {"manual": filepath.Join(cacheDir, "manual.chm")},
		}, cacheDir)
		defer func() { _ = e.Close() }()

		require.NoError(t, e.EnsureReady(ctx, "myapp", "manual"))
		require.NoError(t, os.Remove(argsLog))
		resetReady(e)

		require.NoError(t, e.EnsureReady(ctx, "myapp", "manual"))
		assert.NoFileExists(t, argsLog, "7z should not run again while the marker exists")
	})

	t.Run("missing 7z yields the install instructions", func(t *testing.T) {
		t.Setenv("PATH", t.TempDir())

		cacheDir := t.TempDir()
		e := New(map[string]map[string]string{
			"myapp": {"manual": filepath.Join(cacheDir, "manual.chm")},
		}, cacheDir)
		defer func() { _ = e.Close() }()

		err := e.EnsureReady(ctx, "myapp", "manual")
		require.ErrorIs(t, err, ErrSevenZipNotFound)
		assert.Contains(t, err.Error(), "Install it with")
	})
}
