package media

import (
	"fmt"
	"mime"
	"strings"
)

var allowedImageMimes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
}

func sniffImageMime(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime type required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime type invalid: %w", err)
	}
	lowered := strings.ToLower(mediaType)
	if _, ok := allowedImageMimes[lowered]; !ok {
		return "", fmt.Errorf("mime type %q must be jpeg, png, gif, or webp", lowered)
	}
	return lowered, nil
}
