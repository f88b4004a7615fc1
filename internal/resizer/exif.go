package resizer

import (
	"fmt"
	"os"

	"github.com/barasher/go-exiftool"
	"github.com/rwcarlsen/goexif/exif"
)

// Mark is written to the EXIF Software tag of resized JPEGs.
const Mark = "pdf-compressor resized"

// copiedTags survive a resize; dimension and thumbnail tags do not.
var copiedTags = []string{"Make", "Model", "DateTimeOriginal", "CreateDate", "Artist", "Copyright"}

// softwareTag returns the EXIF Software value of a JPEG, or "" when the
// file carries none.
func softwareTag(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	// a non-critical decode error still leaves the IFD0 tags usable
	x, err := exif.Decode(f)
	if err != nil && exif.IsCriticalError(err) {
		return "", nil
	}
	tag, err := x.Get(exif.Software)
	if exif.IsTagNotPresentError(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return tag.StringVal()
}

// copyExifAndMark copies a few descriptive tags from src to dst and sets
// Software=Mark. It needs the exiftool binary.
func copyExifAndMark(src, dst string) error {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return fmt.Errorf("exiftool unavailable: %w", err)
	}
	defer et.Close()

	infos := et.ExtractMetadata(src)
	if len(infos) == 0 {
		return fmt.Errorf("no metadata for %s", src)
	}
	if infos[0].Err != nil {
		return infos[0].Err
	}

	out := exiftool.EmptyFileMetadata()
	out.File = dst
	for _, tag := range copiedTags {
		if v, err := infos[0].GetString(tag); err == nil && v != "" {
			out.SetString(tag, v)
		}
	}
	out.SetString("Software", Mark)

	written := []exiftool.FileMetadata{out}
	et.WriteMetadata(written)
	// exiftool keeps a backup unless told otherwise
	_ = os.Remove(dst + "_original")
	return written[0].Err
}
