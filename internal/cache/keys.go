package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/minyuzhao/rtutor/pkg/models"
)

// PayloadHash fingerprints a request payload for cache keys. Parts are
// joined with a NUL separator so "ab"+"c" and "a"+"bc" hash differently.
func PayloadHash(parts ...string) string {
	h := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(h[:])
}

func ResponseKey(reqType models.RequestType, payloadHash string) string {
	return fmt.Sprintf("response:%s:%s", reqType, payloadHash)
}

func QualityKey(codeHash string) string {
	return fmt.Sprintf("quality:%s", codeHash)
}

func RateLimitKey(clientIP string) string {
	return fmt.Sprintf("ratelimit:%s", clientIP)
}
