package render

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// InferSavefig is the --savefig value meaning "derive the file name from
// the scored grid".
const InferSavefig = "INFER_SAVEFIG_FILENAME"

const (
	// DefaultDPI is the resolution of saved figures.
	DefaultDPI = 320
	// DefaultPlotsDir holds figures whose name is inferred.
	DefaultPlotsDir = "target/plots"

	defaultWidth  = 8 * vg.Inch
	defaultHeight = 6 * vg.Inch
)

// OutputPath resolves where a figure goes. An empty savefig means the figure
// is shown rather than saved (show is true and path is empty).
func OutputPath(savefig, gridPath, plotsDir string) (path string, show bool) {
	switch savefig {
	case "":
		return "", true
	case InferSavefig:
		if plotsDir == "" {
			plotsDir = DefaultPlotsDir
		}
		base := filepath.Base(gridPath)
		name, _, _ := strings.Cut(base, ".")
		if name == "" {
			name = base
		}
		return filepath.Join(plotsDir, name+".png"), false
	default:
		return savefig, false
	}
}

// SavePNG draws p at the given DPI and writes it to path, creating parent
// directories as needed.
func SavePNG(p *plot.Plot, path string, dpi int) error {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	if err := ensureDir(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	c := vgimg.NewWith(vgimg.UseWH(defaultWidth, defaultHeight), vgimg.UseDPI(dpi))
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// Show saves p to a temporary PNG and opens it with the platform viewer.
// The file path is returned even when the viewer fails to start.
func Show(p *plot.Plot, dpi int) (string, error) {
	f, err := os.CreateTemp("", "contours-*.png")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary figure: %w", err)
	}
	path := f.Name()
	_ = f.Close()

	if err := SavePNG(p, path, dpi); err != nil {
		return "", err
	}
	return path, viewerCommand(path).Start()
}

func viewerCommand(path string) *exec.Cmd {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", path)
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", path)
	default:
		return exec.Command("xdg-open", path)
	}
}

func ensureDir(path string) error {
	// Attempt to create directory if it doesn't exist (silently succeed if present).
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0755)
}
