package botkit

// Filter decides whether an update is relevant to a handler.
type Filter interface {
	Check(u *Update) bool
}

// DataFilter is a Filter that also yields regexp matches on success.
type DataFilter interface {
	Filter
	Match(u *Update) (matches []string, ok bool)
}

// FilterFunc adapts a predicate to a Filter.
type FilterFunc func(u *Update) bool

// Check calls f(u).
func (f FilterFunc) Check(u *Update) bool { return f(u) }

// MatchFilter runs f, collecting matches when it is a DataFilter.
// A nil filter matches everything.
func MatchFilter(f Filter, u *Update) ([]string, bool) {
	if f == nil {
		return nil, true
	}
	if df, ok := f.(DataFilter); ok {
		return df.Match(u)
	}
	return nil, f.Check(u)
}

// guardFilter runs guard before next, keeping next's matches.
type guardFilter struct {
	guard func(u *Update) bool
	next  Filter
}

func (f guardFilter) Check(u *Update) bool {
	_, ok := f.Match(u)
	return ok
}

func (f guardFilter) Match(u *Update) ([]string, bool) {
	if !f.guard(u) {
		return nil, false
	}
	return MatchFilter(f.next, u)
}
