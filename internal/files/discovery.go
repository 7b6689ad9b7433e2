package files

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// dayFolderRe matches day folders named by date, with an optional suffix
// such as "2024-05-12_ChipA".
var dayFolderRe = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)

// measurementFileRe matches instrument files like "IVg2024-05-12_3.csv":
// procedure identifier, date, underscore, file index.
var measurementFileRe = regexp.MustCompile(`^([A-Za-z]+)(\d{4}-\d{2}-\d{2})_(\d+)\.csv$`)

// FileInfo describes one discovered measurement file.
type FileInfo struct {
	Path      string
	Name      string
	Procedure string
	Date      string
	FileIndex int
}

// Discovery provides measurement file discovery rooted at a base path.
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance.
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

// FindDayFolders returns the day folders under the data root, sorted by
// name (date order for the naming scheme).
func (d *Discovery) FindDayFolders() ([]string, error) {
	entries, err := os.ReadDir(d.basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read data root %s: %w", d.basePath, err)
	}

	var folders []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if dayFolderRe.MatchString(entry.Name()) {
			folders = append(folders, filepath.Join(d.basePath, entry.Name()))
		}
	}
	sort.Strings(folders)
	return folders, nil
}

// FindMeasurementFiles returns the measurement files in one day folder,
// sorted by file index. Non-matching files are skipped silently.
func (d *Discovery) FindMeasurementFiles(dir string) ([]FileInfo, error) {
	fullPath := dir
	if !filepath.IsAbs(dir) {
		fullPath = filepath.Join(d.basePath, dir)
	}

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := measurementFileRe.FindStringSubmatch(entry.Name())
		if m == nil {
			if strings.HasSuffix(strings.ToLower(entry.Name()), ".csv") {
				// Unnamed CSVs still go to the parser, which orders them by
				// embedded timestamp.
				files = append(files, FileInfo{
					Path: filepath.Join(fullPath, entry.Name()),
					Name: entry.Name(),
				})
			}
			continue
		}
		index, _ := strconv.Atoi(m[3])
		files = append(files, FileInfo{
			Path:      filepath.Join(fullPath, entry.Name()),
			Name:      entry.Name(),
			Procedure: m[1],
			Date:      m[2],
			FileIndex: index,
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].FileIndex != files[j].FileIndex {
			return files[i].FileIndex < files[j].FileIndex
		}
		return files[i].Name < files[j].Name
	})
	return files, nil
}
