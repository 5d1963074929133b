package event

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

func cacheKeyEventDetails(id string) string {
	return fmt.Sprintf("event:%s", id)
}

// cacheKeyListGeneration holds an opaque token that every write replaces.
// First pages cached under an older token are never read again.
const cacheKeyListGeneration = "events:public:list:gen"

// cacheKeyPublicList hashes the generation and the normalized filter; cursor pages are never cached.
func cacheKeyPublicList(gen string, f ListFilter) string {
	from, to := "", ""
	if f.From != nil {
		from = f.From.UTC().Format(time.RFC3339)
	}
	if f.To != nil {
		to = f.To.UTC().Format(time.RFC3339)
	}

	raw := fmt.Sprintf("gen=%s|city=%s|cat=%s|q=%s|sort=%s|ps=%d|from=%s|to=%s|status=%s",
		gen, f.City, f.Category, f.Query, f.Sort, f.PageSize, from, to, f.Status)

	hash := sha256.Sum256([]byte(raw))
	return "events:public:list:" + hex.EncodeToString(hash[:])
}
