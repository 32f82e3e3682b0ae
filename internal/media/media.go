// Package media provides MIME-type sniffing for attachment bytes arriving
// over any channel, adapted from Genesis's utils package.
package media

import (
	"mime"
	"net/http"
)

// DetectMimeAndExt sniffs data's MIME type and returns it alongside a
// standard file extension, defaulting to ("application/octet-stream", ".bin")
// when the data is empty or the type carries no registered extension.
func DetectMimeAndExt(data []byte) (string, string) {
	if len(data) == 0 {
		return "application/octet-stream", ".bin"
	}
	mimeType := http.DetectContentType(data)
	return mimeType, extFor(mimeType)
}

func extFor(mimeType string) string {
	exts, err := mime.ExtensionsByType(mimeType)
	if err != nil || len(exts) == 0 {
		return ".bin"
	}
	return exts[0]
}
