package engine

import (
	"fmt"
	"strings"
)

// Quality is a named Ghostscript compression preset.
type Quality string

const (
	QualityScreen   Quality = "screen"
	QualityEbook    Quality = "ebook"
	QualityPrinter  Quality = "printer"
	QualityPrepress Quality = "prepress"
	QualityDefault  Quality = "default"
)

// QualityInfo describes a preset for help output and the API.
type QualityInfo struct {
	Name        Quality `json:"name"`
	Setting     string  `json:"setting"`
	Description string  `json:"description"`
	DPI         string  `json:"dpi"`
	UseCase     string  `json:"use_case"`
}

var qualityTable = []QualityInfo{
	{QualityScreen, "/screen", "Maximum compression, lowest quality", "72", "On-screen viewing, drafts"},
	{QualityEbook, "/ebook", "High compression, medium quality", "150", "Archiving scanned documents"},
	{QualityPrinter, "/printer", "Medium compression, high quality", "300", "Quality printing"},
	{QualityPrepress, "/prepress", "Low compression, maximum quality", "300+", "Professional archiving"},
	{QualityDefault, "/default", "Ghostscript default settings", "variable", "Automatic balance"},
}

// Qualities returns every preset in order of decreasing compression.
func Qualities() []QualityInfo {
	out := make([]QualityInfo, len(qualityTable))
	copy(out, qualityTable)
	return out
}

// QualityNames returns the preset names, for flag help and validation messages.
func QualityNames() []string {
	names := make([]string, len(qualityTable))
	for i, q := range qualityTable {
		names[i] = string(q.Name)
	}
	return names
}

// ParseQuality converts s into a Quality, case-insensitively.
func ParseQuality(s string) (Quality, error) {
	q := Quality(strings.ToLower(strings.TrimSpace(s)))
	if q.Valid() {
		return q, nil
	}
	return "", fmt.Errorf("invalid quality %q (valid: %s)", s, strings.Join(QualityNames(), ", "))
}

// Valid reports whether q is one of the five presets.
func (q Quality) Valid() bool {
	for _, info := range qualityTable {
		if info.Name == q {
			return true
		}
	}
	return false
}

// Setting returns the -dPDFSETTINGS value for q.
func (q Quality) Setting() string {
	return "/" + string(q)
}

// Describe returns the table entry for q.
func (q Quality) Describe() QualityInfo {
	for _, info := range qualityTable {
		if info.Name == q {
			return info
		}
	}
	return QualityInfo{Name: q, Setting: q.Setting()}
}

func (q Quality) String() string {
	return string(q)
}
