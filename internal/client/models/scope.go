package models

// Scope selects which data set the feed requests.
type Scope int

const (
	// ScopeAll is the global feed.
	ScopeAll Scope = iota
	// ScopeOwnedByCaller is the caller's own posts; requires a credential.
	ScopeOwnedByCaller
)

func (s Scope) String() string {
	switch s {
	case ScopeAll:
		return "all"
	case ScopeOwnedByCaller:
		return "owned"
	default:
		return "unknown"
	}
}
