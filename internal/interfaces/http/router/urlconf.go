package router

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gmja/storefront/internal/infrastructure/logger"
)

var (
	// ErrNoMatch is returned by Resolve when no entry matches
	ErrNoMatch = errors.New("no URL pattern matches the path")
	// ErrNoReverseMatch is returned by Reverse for unknown names and bad arguments
	ErrNoReverseMatch = errors.New("no reverse match")
)

// Gin context key holding the compiled entry of the matched route
const ginEntryKey = "urlconf_entry"

// SubtreeParam names the parameter holding the rest of the path below a
// Subtree route, without its leading slash
const SubtreeParam = "subpath"

// CompiledRoute is one method of a flattened table entry
type CompiledRoute struct {
	Method    string
	Pattern   Pattern
	Name      string // full name, "namespace:name"
	Namespace string
	Subtree   bool
	handlers  []gin.HandlerFunc
}

// Path returns the rooted pattern, e.g. "/GrandmarketJa/catalogue/"
func (r CompiledRoute) Path() string {
	if r.Subtree {
		return "/" + r.Pattern.String() + "*"
	}
	return "/" + r.Pattern.String()
}

// GinPath returns the path the route is registered under on gin
func (r CompiledRoute) GinPath() string {
	if r.Subtree {
		return r.Pattern.GinPath() + "*" + SubtreeParam
	}
	return r.Pattern.GinPath()
}

func (r CompiledRoute) match(path string) (map[string]string, bool) {
	if !r.Subtree {
		return r.Pattern.Match(path)
	}
	params, rest, ok := r.Pattern.MatchPrefix(path)
	if !ok {
		return nil, false
	}
	params[SubtreeParam] = rest
	return params, true
}

// URLConf is a compiled table
type URLConf struct {
	routes []CompiledRoute
	names  map[string]Pattern
}

// Match is the result of Resolve
type Match struct {
	Route     CompiledRoute
	Name      string
	Namespace string
	URLName   string
	Params    map[string]string
}

// Compile flattens the table depth-first in order. It fails on invalid
// patterns, on a name used for two different patterns and on two routes with
// the same method and gin path.
func (t *Table) Compile() (*URLConf, error) {
	u := &URLConf{names: make(map[string]Pattern)}
	if err := u.flatten(t, "", "", nil); err != nil {
		return nil, err
	}
	if err := checkConflicts(u.routes); err != nil {
		return nil, err
	}
	return u, nil
}

// MustCompile is Compile that panics on error
func (t *Table) MustCompile() *URLConf {
	u, err := t.Compile()
	if err != nil {
		panic(err)
	}
	return u
}

func (u *URLConf) flatten(t *Table, prefix, namespace string, middleware []gin.HandlerFunc) error {
	middleware = append(middleware[:len(middleware):len(middleware)], t.middleware...)
	for _, e := range t.entries {
		switch e := e.(type) {
		case Route:
			if err := u.addRoute(e, prefix, namespace, middleware); err != nil {
				return err
			}
		case Include:
			if e.Table == nil {
				return fmt.Errorf("include %q has no table", e.Prefix)
			}
			if _, err := ParsePattern(prefix + e.Prefix); err != nil {
				return err
			}
			if err := u.flatten(e.Table, prefix+e.Prefix, joinNamespace(namespace, e.Namespace), middleware); err != nil {
				return err
			}
		}
	}
	return nil
}

func (u *URLConf) addRoute(r Route, prefix, namespace string, middleware []gin.HandlerFunc) error {
	pattern, err := ParsePattern(prefix + r.Pattern)
	if err != nil {
		return err
	}
	if len(r.Methods) == 0 {
		return fmt.Errorf("route %q has no methods", pattern)
	}
	if len(r.Handlers) == 0 {
		return fmt.Errorf("route %q has no handlers", pattern)
	}
	if r.Subtree && !pattern.prefixable() {
		return fmt.Errorf("subtree route %q must end in a slash and take no path parameter", pattern)
	}

	name := ""
	if r.Name != "" {
		name = joinNamespace(namespace, r.Name)
		if existing, ok := u.names[name]; ok && existing.String() != pattern.String() {
			return fmt.Errorf("duplicate route name %q for %q and %q", name, existing, pattern)
		}
		u.names[name] = pattern
	}

	handlers := make([]gin.HandlerFunc, 0, len(middleware)+len(r.Handlers))
	handlers = append(handlers, middleware...)
	handlers = append(handlers, r.Handlers...)
	for _, method := range r.Methods {
		u.routes = append(u.routes, CompiledRoute{
			Method:    strings.ToUpper(method),
			Pattern:   pattern,
			Name:      name,
			Namespace: namespace,
			Subtree:   r.Subtree,
			handlers:  handlers,
		})
	}
	return nil
}

func joinNamespace(parent, child string) string {
	switch {
	case parent == "":
		return child
	case child == "":
		return parent
	}
	return parent + ":" + child
}

// Routes lists the compiled routes in table order
func (u *URLConf) Routes() []CompiledRoute {
	out := make([]CompiledRoute, len(u.routes))
	copy(out, u.routes)
	return out
}

// Mount registers every route on r. Each route runs behind a converter guard
// that answers notFound (or a bare 404 when nil) for values gin accepts but
// the pattern's converters reject, and stamps the route name into the context.
func (u *URLConf) Mount(r gin.IRoutes, notFound gin.HandlerFunc) {
	for i := range u.routes {
		route := u.routes[i]
		handlers := append([]gin.HandlerFunc{guard(route, notFound)}, route.handlers...)
		r.Handle(route.Method, route.GinPath(), handlers...)
	}
}

func guard(route CompiledRoute, notFound gin.HandlerFunc) gin.HandlerFunc {
	params := route.Pattern.Params()
	return func(c *gin.Context) {
		for _, p := range params {
			value := c.Param(p.Name)
			if p.Converter == ConvPath {
				value = strings.TrimPrefix(value, "/")
				setParam(c, p.Name, value)
			}
			if !p.Converter.Valid(value) {
				if notFound != nil {
					c.Status(http.StatusNotFound)
					notFound(c)
					c.Abort()
					return
				}
				c.AbortWithStatus(http.StatusNotFound)
				return
			}
		}
		if route.Subtree {
			setParam(c, SubtreeParam, strings.TrimPrefix(c.Param(SubtreeParam), "/"))
		}
		c.Set(logger.GinRouteNameKey, route.Name)
		c.Set(ginEntryKey, route)
		c.Next()
	}
}

func setParam(c *gin.Context, key, value string) {
	for i := range c.Params {
		if c.Params[i].Key == key {
			c.Params[i].Value = value
			return
		}
	}
}

// RouteName returns the full name of the route that matched the request
func RouteName(c *gin.Context) string {
	return c.GetString(logger.GinRouteNameKey)
}

// CurrentRoute returns the compiled route that matched the request
func CurrentRoute(c *gin.Context) (CompiledRoute, bool) {
	v, ok := c.Get(ginEntryKey)
	if !ok {
		return CompiledRoute{}, false
	}
	route, ok := v.(CompiledRoute)
	return route, ok
}

// Resolve returns the first route, in table order, matching method and path
func (u *URLConf) Resolve(method, path string) (*Match, error) {
	method = strings.ToUpper(method)
	for _, route := range u.routes {
		if route.Method != method {
			continue
		}
		params, ok := route.match(path)
		if !ok {
			continue
		}
		urlName := route.Name
		if i := strings.LastIndex(urlName, ":"); i >= 0 {
			urlName = urlName[i+1:]
		}
		return &Match{
			Route:     route,
			Name:      route.Name,
			Namespace: route.Namespace,
			URLName:   urlName,
			Params:    params,
		}, nil
	}
	return nil, fmt.Errorf("%w: %s %s", ErrNoMatch, method, path)
}

// Reverse builds the path of a named route. args are key/value pairs.
func (u *URLConf) Reverse(name string, args ...string) (string, error) {
	if len(args)%2 != 0 {
		return "", fmt.Errorf("%w: %q: odd number of arguments", ErrNoReverseMatch, name)
	}
	kv := make(map[string]string, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		kv[args[i]] = args[i+1]
	}
	return u.ReverseMap(name, kv)
}

// ReverseMap is Reverse with the arguments in a map. A Subtree route
// reverses to its base path.
func (u *URLConf) ReverseMap(name string, args map[string]string) (string, error) {
	pattern, ok := u.names[name]
	if !ok {
		return "", fmt.Errorf("%w: %q is not a registered route name", ErrNoReverseMatch, name)
	}
	if len(args) != len(pattern.Params()) {
		return "", fmt.Errorf("%w: %q takes %d arguments, got %d", ErrNoReverseMatch, name, len(pattern.Params()), len(args))
	}
	path, err := pattern.Build(args)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %v", ErrNoReverseMatch, name, err)
	}
	return path, nil
}

// MustReverse is Reverse that panics on error, for names fixed at compile time
func (u *URLConf) MustReverse(name string, args ...string) string {
	path, err := u.Reverse(name, args...)
	if err != nil {
		panic(err)
	}
	return path
}

// Has reports whether name is a registered route name
func (u *URLConf) Has(name string) bool {
	_, ok := u.names[name]
	return ok
}

// node mirrors gin's per-method routing tree closely enough to report the
// registrations gin would panic on
type node struct {
	static     map[string]*node
	param      *node
	paramName  string
	paramConvs []Converter
	catchAll   string
	handled    bool
}

func checkConflicts(routes []CompiledRoute) error {
	trees := make(map[string]*node)
	for _, r := range routes {
		root, ok := trees[r.Method]
		if !ok {
			root = &node{}
			trees[r.Method] = root
		}
		if err := root.insert(r); err != nil {
			return err
		}
	}
	return nil
}

func (n *node) insert(r CompiledRoute) error {
	cur := n
	segments := r.Pattern.segments
	for i, seg := range segments {
		switch {
		case seg.param == nil:
			if cur.catchAll != "" {
				return conflict(r, "static segment "+seg.literal+" conflicts with catch-all *"+cur.catchAll)
			}
			if cur.param != nil && cur.acceptsParam(seg.literal) &&
				cur.param.overlaps(segments[i+1:], r.Pattern.trailingSlash, r.Subtree) {
				return conflict(r, "static segment "+seg.literal+" is shadowed by the earlier :"+cur.paramName)
			}
			if cur.static == nil {
				cur.static = make(map[string]*node)
			}
			next, ok := cur.static[seg.literal]
			if !ok {
				next = &node{}
				cur.static[seg.literal] = next
			}
			cur = next
		case seg.param.Converter == ConvPath:
			if len(cur.static) > 0 || cur.param != nil || (cur.catchAll != "" && cur.catchAll != seg.param.Name) {
				return conflict(r, "catch-all *"+seg.param.Name+" conflicts with existing routes")
			}
			if cur.catchAll != "" {
				return conflict(r, "duplicate route")
			}
			cur.catchAll = seg.param.Name
			return nil
		default:
			if cur.catchAll != "" {
				return conflict(r, ":"+seg.param.Name+" conflicts with catch-all *"+cur.catchAll)
			}
			if cur.param == nil {
				cur.param = &node{}
				cur.paramName = seg.param.Name
			} else if cur.paramName != seg.param.Name {
				return conflict(r, ":"+seg.param.Name+" conflicts with wildcard :"+cur.paramName)
			}
			if !slices.Contains(cur.paramConvs, seg.param.Converter) {
				cur.paramConvs = append(cur.paramConvs, seg.param.Converter)
			}
			cur = cur.param
		}
	}
	if r.Subtree {
		if len(cur.static) > 0 || cur.param != nil {
			return conflict(r, "subtree conflicts with existing routes")
		}
		if cur.catchAll != "" {
			return conflict(r, "duplicate route")
		}
		cur.catchAll = SubtreeParam
		return nil
	}
	if r.Pattern.trailingSlash && len(r.Pattern.segments) > 0 {
		if cur.catchAll != "" {
			return conflict(r, "trailing slash conflicts with catch-all *"+cur.catchAll)
		}
		if cur.static == nil {
			cur.static = make(map[string]*node)
		}
		next, ok := cur.static[""]
		if !ok {
			next = &node{}
			cur.static[""] = next
		}
		cur = next
	}
	if cur.handled {
		return conflict(r, "duplicate route")
	}
	cur.handled = true
	return nil
}

// acceptsParam reports whether a converter of the parameter child takes literal
func (n *node) acceptsParam(literal string) bool {
	for _, conv := range n.paramConvs {
		if conv.Valid(literal) {
			return true
		}
	}
	return false
}

// overlaps reports whether a route already below n matches some path that
// the remaining segments also match. Parameter converters are only checked
// against literals, so it errs towards reporting an overlap.
func (n *node) overlaps(segments []segment, trailingSlash, subtree bool) bool {
	if n.catchAll != "" {
		return true
	}
	if len(segments) == 0 {
		switch {
		case subtree:
			return len(n.static) > 0 || n.param != nil
		case trailingSlash:
			next, ok := n.static[""]
			return ok && next.handled
		}
		return n.handled
	}
	seg, rest := segments[0], segments[1:]
	switch {
	case seg.param == nil:
		if next, ok := n.static[seg.literal]; ok && next.overlaps(rest, trailingSlash, subtree) {
			return true
		}
		return n.param != nil && n.acceptsParam(seg.literal) && n.param.overlaps(rest, trailingSlash, subtree)
	case seg.param.Converter == ConvPath:
		return len(n.static) > 0 || n.param != nil
	}
	for literal, next := range n.static {
		if literal != "" && seg.param.Converter.Valid(literal) && next.overlaps(rest, trailingSlash, subtree) {
			return true
		}
	}
	return n.param != nil && n.param.overlaps(rest, trailingSlash, subtree)
}

func conflict(r CompiledRoute, reason string) error {
	return fmt.Errorf("route %s %s (%s): %s", r.Method, r.GinPath(), r.Name, reason)
}
