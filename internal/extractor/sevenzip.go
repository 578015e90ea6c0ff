package extractor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// windowsSevenZipPaths are checked when 7z is not on PATH
var windowsSevenZipPaths = []string{
	`C:\Program Files\7-Zip\7z.exe`,
	`C:\Program Files (x86)\7-Zip\7z.exe`,
}

// findSevenZip locates the 7z binary, falling back to the standard
// install locations on Windows.
func findSevenZip() (string, error) {
	if path, err := exec.LookPath("7z"); err == nil {
		return path, nil
	}

	if runtime.GOOS == "windows" {
		for _, candidate := range windowsSevenZipPaths {
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}
	}

	return "", ErrSevenZipNotFound
}

// extract unpacks the CHM archive into the source's html directory.
// A marker file records completion so the archive is unpacked once.
func (e *Extractor) extract(ctx context.Context, app, source, chmPath string) error {
	htmlDir := e.htmlDir(app, source)
	if hasMarker(htmlDir, markerExtracted) {
		return nil
	}

	bin, err := findSevenZip()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(htmlDir, 0755); err != nil {
		return fmt.Errorf("failed to create html dir: %w", err)
	}

	cmd := exec.CommandContext(ctx, bin, "x", chmPath, "-o"+htmlDir, "-y")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to extract %s: %w: %s", chmPath, err, strings.TrimSpace(string(out)))
	}

	return touchMarker(htmlDir, markerExtracted)
}
