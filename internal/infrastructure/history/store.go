package history

import (
	"log"

	"github.com/ofertas-ar/backend/internal/domain"
)

// Options selects and configures a history backend.
type Options struct {
	Backend string // "local", "github", "noop" (empty means local)
	File    string // local backend

	// github backend
	Token  string
	Repo   string
	Path   string
	Branch string
}

// NewStore picks the backend once at startup. A github backend without
// credentials silently degrades to no-op rather than failing.
func NewStore(opts Options) domain.HistoryStore {
	switch opts.Backend {
	case "github":
		if opts.Token != "" && opts.Repo != "" {
			return NewGitHubStore(opts.Token, opts.Repo, opts.Path, opts.Branch)
		}
		log.Printf("[HISTORY] github backend selected but token/repo missing, history disabled")
		return NewNoopStore()
	case "local", "":
		return NewLocalStore(opts.File)
	default:
		return NewNoopStore()
	}
}
