package storage

import (
	"fmt"
	"mime"
	"path"
	"strings"
	"time"
)

// PhotoKey builds the object key for a store's photo. Keys are scoped
// per store and timestamped so an upload never overwrites the photo it
// replaces; the old object is deleted separately once the row points
// at the new key.
func PhotoKey(storeID uint, ext string) string {
	return path.Join("stores", fmt.Sprintf("%d", storeID),
		fmt.Sprintf("%d.%s", time.Now().UTC().UnixNano(), normalizeExtension(ext)))
}

func sanitizePathSegment(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	builder := strings.Builder{}
	builder.Grow(len(value))
	for i := 0; i < len(value); i++ {
		ch := value[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= '0' && ch <= '9':
			builder.WriteByte(ch)
		case ch >= 'A' && ch <= 'Z':
			builder.WriteByte(ch + 32)
		case ch == '-', ch == '_':
			builder.WriteByte(ch)
		}
	}
	return builder.String()
}

func normalizeExtension(ext string) string {
	trimmed := strings.TrimSpace(ext)
	trimmed = strings.TrimPrefix(trimmed, ".")
	if trimmed == "" {
		return "bin"
	}
	return sanitizePathSegment(trimmed)
}

func detectContentType(key string) string {
	ext := strings.TrimPrefix(path.Ext(key), ".")
	typeName := mime.TypeByExtension("." + normalizeExtension(ext))
	if typeName == "" {
		return "application/octet-stream"
	}
	return typeName
}

func joinPrefix(prefix, key string) string {
	cleanPrefix := trimPrefix(prefix)
	if cleanPrefix == "" {
		return strings.TrimLeft(key, "/")
	}
	return path.Join(cleanPrefix, strings.TrimLeft(key, "/"))
}

func trimPrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}
