// Package keys builds the object keys used in the backup and export buckets.
package keys

import (
	"fmt"
	"path"
	"strings"
	"time"
)

const (
	backupPrefix = "backups"
	exportPrefix = "exports"
)

// sanitizeKey lowercases s and replaces characters that are awkward in
// object keys with hyphens.
func sanitizeKey(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			return r
		default:
			return '-'
		}
	}, s)
}

// Backup returns the key for a local backup file, grouped by day so a
// bucket listing stays browsable.
func Backup(filename string, at time.Time) string {
	return fmt.Sprintf("%s/%s/%s", backupPrefix, at.UTC().Format("2006/01/02"), sanitizeKey(path.Base(filename)))
}

// Export returns the key under which an uploaded timeline export is stored.
func Export(filename string, at time.Time) string {
	return fmt.Sprintf("%s/%s_%s", exportPrefix, at.UTC().Format("20060102T150405Z"), sanitizeKey(path.Base(filename)))
}

// IsExport reports whether key names an export object. Notifications for
// other keys in the bucket are ignored by the watcher.
func IsExport(key string) bool {
	return strings.HasPrefix(key, exportPrefix+"/") && strings.HasSuffix(strings.ToLower(key), ".json")
}
