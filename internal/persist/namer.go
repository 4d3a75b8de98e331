package persist

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/lestrrat-go/strftime"
)

// DefaultDateFormat is the strftime pattern used in clip filenames
const DefaultDateFormat = "%Y%m%d_%H%M%S"

const filePrefix = "recorded_"

// Namer builds clip paths of the form <dir>/recorded_<timestamp>.<ext>.
// Two clips named within the same pattern resolution get the same path.
type Namer struct {
	dir    string
	ext    string
	layout *strftime.Strftime
}

// NewNamer validates pattern and returns a namer for dir
func NewNamer(dir, pattern, ext string) (*Namer, error) {
	if pattern == "" {
		pattern = DefaultDateFormat
	}
	layout, err := strftime.New(pattern)
	if err != nil {
		return nil, fmt.Errorf("date format %q: %w", pattern, err)
	}
	return &Namer{dir: dir, ext: ext, layout: layout}, nil
}

// Path returns the file path for a clip written at t
func (n *Namer) Path(t time.Time) string {
	return filepath.Join(n.dir, filePrefix+n.layout.FormatString(t)+"."+n.ext)
}

// Dir returns the output directory
func (n *Namer) Dir() string {
	return n.dir
}
