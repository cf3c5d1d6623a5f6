package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Entry is a row of a Table: a Route or an Include
type Entry interface {
	entry()
}

// Route maps a pattern and a set of methods to handlers. A Subtree route
// also answers every path below its pattern, which must end in a slash; the
// remainder is passed to the handlers as the SubtreeParam parameter.
type Route struct {
	Methods  []string
	Pattern  string
	Name     string
	Handlers []gin.HandlerFunc
	Subtree  bool
}

// Include delegates everything under Prefix to another table. Names inside
// the table are reversed as "namespace:name".
type Include struct {
	Prefix    string
	Namespace string
	Table     *Table
}

func (Route) entry()   {}
func (Include) entry() {}

// Table is an ordered URL dispatch table. Order matters: resolution returns
// the first entry that matches. gin always tries a static segment before a
// parameter, so a static route that a parameter route listed earlier would
// also match fails to compile; list "users/me/" before "users/<str:name>/".
type Table struct {
	entries    []Entry
	middleware []gin.HandlerFunc
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{}
}

// Add appends entries
func (t *Table) Add(entries ...Entry) *Table {
	t.entries = append(t.entries, entries...)
	return t
}

// Prepend puts an entry before every existing entry
func (t *Table) Prepend(e Entry) *Table {
	t.entries = append([]Entry{e}, t.entries...)
	return t
}

// Extend appends every entry of other, keeping other's middleware
func (t *Table) Extend(other *Table) *Table {
	if len(other.middleware) == 0 {
		t.entries = append(t.entries, other.entries...)
		return t
	}
	return t.Include("", "", other)
}

// Include appends a sub-table mounted under prefix
func (t *Table) Include(prefix, namespace string, sub *Table) *Table {
	return t.Add(Include{Prefix: prefix, Namespace: namespace, Table: sub})
}

// Use adds middleware that runs for every route of this table and of the
// tables it includes, after the converter guard
func (t *Table) Use(middleware ...gin.HandlerFunc) *Table {
	t.middleware = append(t.middleware, middleware...)
	return t
}

// Len returns the number of entries
func (t *Table) Len() int {
	return len(t.entries)
}

// Handle adds a route answering the given methods
func (t *Table) Handle(methods []string, pattern, name string, handlers ...gin.HandlerFunc) *Table {
	return t.Add(Route{Methods: methods, Pattern: pattern, Name: name, Handlers: handlers})
}

// GET adds a GET route
func (t *Table) GET(pattern, name string, handlers ...gin.HandlerFunc) *Table {
	return t.Handle([]string{http.MethodGet}, pattern, name, handlers...)
}

// POST adds a POST route
func (t *Table) POST(pattern, name string, handlers ...gin.HandlerFunc) *Table {
	return t.Handle([]string{http.MethodPost}, pattern, name, handlers...)
}

// PUT adds a PUT route
func (t *Table) PUT(pattern, name string, handlers ...gin.HandlerFunc) *Table {
	return t.Handle([]string{http.MethodPut}, pattern, name, handlers...)
}

// PATCH adds a PATCH route
func (t *Table) PATCH(pattern, name string, handlers ...gin.HandlerFunc) *Table {
	return t.Handle([]string{http.MethodPatch}, pattern, name, handlers...)
}

// DELETE adds a DELETE route
func (t *Table) DELETE(pattern, name string, handlers ...gin.HandlerFunc) *Table {
	return t.Handle([]string{http.MethodDelete}, pattern, name, handlers...)
}

// Subtree adds a GET route answering pattern and every path below it
func (t *Table) Subtree(pattern, name string, handlers ...gin.HandlerFunc) *Table {
	return t.Add(Route{Methods: []string{http.MethodGet}, Pattern: pattern, Name: name, Handlers: handlers, Subtree: true})
}

// View adds a route answering GET and POST with the same handlers, the way a
// form view does
func (t *Table) View(pattern, name string, handlers ...gin.HandlerFunc) *Table {
	return t.Handle([]string{http.MethodGet, http.MethodPost}, pattern, name, handlers...)
}
