// internal/worksheet/registry.go
package worksheet

import (
	"io"
	"sort"
	"sync"
)

// Writer zapisuje arkusz w jednym formacie.
type Writer interface {
	Ext() string
	Write(w io.Writer, s *Sheet) error
}

var (
	regMu    sync.RWMutex
	registry = map[string]Writer{}
)

func Register(format string, w Writer) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[format] = w
}

func Get(format string) (Writer, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	w, ok := registry[format]
	return w, ok
}

// Formats zwraca zarejestrowane formaty, posortowane.
func Formats() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
