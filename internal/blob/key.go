package blob

import (
	"encoding/hex"
	"path"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"

	"herdsnap/internal/uuid"
)

// ArchivePrefix is the root of every archived census.
const ArchivePrefix = "census/"

// ArchiveKey returns census/<owner>/<yyyymmdd>/<uuid>_<filename>. The UUID
// keeps two uploads of the same file from sharing an object.
func ArchiveKey(ownerID string, at time.Time, filename string) string {
	return path.Join(
		strings.TrimSuffix(ArchivePrefix, "/"),
		safeName(ownerID),
		at.UTC().Format("20060102"),
		uuid.New()+"_"+safeName(filename),
	)
}

// Checksum is the hex BLAKE2b-256 digest of content.
func Checksum(content []byte) string {
	sum := blake2b.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// safeName keeps letters, digits, dot, dash and underscore. Anything else
// becomes an underscore.
func safeName(s string) string {
	s = path.Base(strings.ReplaceAll(s, `\`, "/"))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), ".")
	if out == "" {
		return "upload"
	}
	if len(out) > 100 {
		out = out[len(out)-100:]
	}
	return out
}
