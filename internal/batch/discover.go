package batch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Discover returns the PDF files under root, sorted. With recursive set it
// walks the whole tree; otherwise only direct children are considered.
func Discover(root string, recursive bool) ([]string, error) {
	var files []string

	if !recursive {
		entries, err := os.ReadDir(root)
		if err != nil {
			return nil, fmt.Errorf("read input directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !isPDF(entry.Name()) {
				continue
			}
			files = append(files, filepath.Join(root, entry.Name()))
		}
		sort.Strings(files)
		return files, nil
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable subtrees are skipped rather than aborting discovery.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !isPDF(d.Name()) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk input directory: %w", err)
	}
	sort.Strings(files)
	return files, nil
}

// OutputPath returns where a non-in-place job writes its result.
func OutputPath(outputDir, input string) string {
	base := filepath.Base(input)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(outputDir, stem+"_compress.pdf")
}

// OutputPaths assigns one output per input, in order. Inputs whose names
// differ only by case ("a.pdf", "a.PDF", "A.pdf") would share an output, so
// every later one gets a numbered suffix: a_compress_2.pdf, a_compress_3.pdf.
// Names are compared case-insensitively so the result is also safe on
// case-insensitive filesystems.
func OutputPaths(outputDir string, inputs []string) []string {
	outputs := make([]string, len(inputs))
	taken := make(map[string]bool, len(inputs))
	for i, input := range inputs {
		path := OutputPath(outputDir, input)
		stem := strings.TrimSuffix(path, ".pdf")
		for n := 2; taken[strings.ToLower(path)]; n++ {
			path = fmt.Sprintf("%s_%d.pdf", stem, n)
		}
		taken[strings.ToLower(path)] = true
		outputs[i] = path
	}
	return outputs
}

func isPDF(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}
