package banner

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"os"
)

// LocalPath is the banner file preferred over the embedded one.
const LocalPath = "configs/banner.txt"

//go:embed banner.txt
var bannerFS embed.FS

// Show writes the banner to w unless disabled. A banner file at LocalPath
// replaces the embedded banner.
func Show(w io.Writer, disabled bool) error {
	if disabled {
		return nil
	}
	data, err := load(LocalPath)
	if err != nil {
		// fall back to the embedded banner silently
		data, err = fs.ReadFile(bannerFS, "banner.txt")
		if err != nil {
			return fmt.Errorf("failed to read banner: %w", err)
		}
	}
	if _, err := fmt.Fprintln(w, string(data)); err != nil {
		return fmt.Errorf("failed to display banner: %w", err)
	}
	return nil
}

func load(path string) ([]byte, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read banner file: %w", err)
	}
	return data, nil
}
