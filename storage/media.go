package storage

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupportedMedia is returned for objects that are not an accepted image type
var ErrUnsupportedMedia = errors.New("unsupported media type")

// sniffLimit is how many leading bytes are inspected to detect the content type
const sniffLimit = 3072

// imageTypes maps accepted object extensions to the type they are served as
var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// ImageType returns the media type an object is stored and served as, judged
// by its extension. ok is false for anything that is not an accepted image.
func ImageType(name string) (mediaType string, ok bool) {
	mediaType, ok = imageTypes[strings.ToLower(filepath.Ext(name))]
	return mediaType, ok
}

// sniff detects the content type of r from its leading bytes and returns a
// reader that still yields the whole content.
func sniff(r io.Reader) (*mimetype.MIME, io.Reader, error) {
	head := make([]byte, sniffLimit)
	n, err := io.ReadFull(r, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, nil, err
	}
	head = head[:n]
	return mimetype.Detect(head), io.MultiReader(bytes.NewReader(head), r), nil
}

// isType reports whether detected is mediaType or a subtype of it (APNG is a PNG)
func isType(detected *mimetype.MIME, mediaType string) bool {
	for m := detected; m != nil; m = m.Parent() {
		if m.Is(mediaType) {
			return true
		}
	}
	return false
}
