package handler

import (
	"fmt"
	"sync/atomic"

	"github.com/gmja/storefront/internal/interfaces/http/router"
)

// Links reverses route names. Views are built before the table they live in
// is compiled, so the URLConf is attached afterwards with Set.
type Links struct {
	conf atomic.Pointer[router.URLConf]
}

// Set attaches the compiled table
func (l *Links) Set(conf *router.URLConf) {
	l.conf.Store(conf)
}

// Conf returns the compiled table, or nil before Set
func (l *Links) Conf() *router.URLConf {
	return l.conf.Load()
}

// Reverse builds the path of a named route; args are key/value pairs
func (l *Links) Reverse(name string, args ...any) (string, error) {
	conf := l.conf.Load()
	if conf == nil {
		return "", fmt.Errorf("%w: URL table not compiled", router.ErrNoReverseMatch)
	}
	kv := make([]string, len(args))
	for i, a := range args {
		kv[i] = fmt.Sprint(a)
	}
	return conf.Reverse(name, kv...)
}

// URL is Reverse for names that always exist; a failure yields "#"
func (l *Links) URL(name string, args ...any) string {
	path, err := l.Reverse(name, args...)
	if err != nil {
		return "#"
	}
	return path
}

// Has reports whether name is routed, e.g. whether debug routes are mounted
func (l *Links) Has(name string) bool {
	conf := l.conf.Load()
	return conf != nil && conf.Has(name)
}
