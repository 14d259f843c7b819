package pipeline

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rotisserie/eris"
)

// ErrInvalidMunicipality marks a name that is not a single directory name
// under the data root.
var ErrInvalidMunicipality = eris.New("pipeline: invalid municipality name")

// ValidName rejects names that could resolve outside the data root: empty,
// hidden or containing a path separator.
func ValidName(name string) error {
	if name == "" || strings.HasPrefix(name, ".") || strings.ContainsAny(name, "/\\\x00") || filepath.Base(name) != name {
		return eris.Wrapf(ErrInvalidMunicipality, "pipeline: %q", name)
	}
	return nil
}

// Municipalities lists the municipalities that can be loaded from root: the
// configured defaults that have a data directory, in configured order,
// followed by every other directory under root, sorted. Hidden directories
// are skipped.
func Municipalities(root string, defaults []string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: list %s", root)
	}

	var found []string
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			found = append(found, e.Name())
		}
	}
	slices.Sort(found)

	out := make([]string, 0, len(found))
	for _, d := range defaults {
		if slices.Contains(found, d) && !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	for _, f := range found {
		if !slices.Contains(out, f) {
			out = append(out, f)
		}
	}
	return out, nil
}

// HasData reports whether root has a directory for municipality.
func HasData(root, municipality string) bool {
	if ValidName(municipality) != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(root, municipality))
	return err == nil && info.IsDir()
}
