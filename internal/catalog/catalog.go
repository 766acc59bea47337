package catalog

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/maheshrc27/postloop/internal/models"
)

// The catalog is the deterministic universe of virtual filenames for one
// account and content kind. Filenames are derived from an integer index;
// no directory listing is ever requested from the remote host.

func ImageName(index int) string {
	return fmt.Sprintf("img (%d).jpg", index)
}

// VideoName returns the filename for a video slot. Slot 0 is the bare
// "vid.mp4"; every later slot carries its index.
func VideoName(index int) string {
	if index == 0 {
		return "vid.mp4"
	}
	return fmt.Sprintf("vid (%d).mp4", index)
}

// ImageNames lists the image catalog: img (1).jpg .. img (max).jpg.
func ImageNames(max int) []string {
	names := make([]string, 0, max)
	for i := 1; i <= max; i++ {
		names = append(names, ImageName(i))
	}
	return names
}

// VideoNames lists the video catalog: vid.mp4, vid (1).mp4 .. vid (max).mp4.
func VideoNames(max int) []string {
	names := make([]string, 0, max+1)
	for i := 0; i <= max; i++ {
		names = append(names, VideoName(i))
	}
	return names
}

func Names(kind string, max int) []string {
	if kind == models.ContentKindVideo {
		return VideoNames(max)
	}
	return ImageNames(max)
}

func NormalizeBase(base string) string {
	return strings.TrimRight(base, "/")
}

// ItemURL composes the public URL for a catalog filename. The encoding
// variant is a per-host compatibility rule: some hosts store objects with a
// literal "%20" in the name and reject fully percent-encoded parentheses.
func ItemURL(base, filename, variant string) string {
	return NormalizeBase(base) + "/" + EncodeFilename(filename, variant)
}

func EncodeFilename(filename, variant string) string {
	if variant == models.EncodingSpaceLiteral {
		return strings.ReplaceAll(filename, " ", "%20")
	}
	return url.PathEscape(filename)
}
