package httpd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/influxdata/httprouter"
	"github.com/pkg/errors"
)

const BasePath = "/api"

type Route struct {
	Name        string
	Method      string
	Pattern     string
	HandlerFunc http.HandlerFunc
	// NoJSON skips the JSON content type, for metrics and websocket routes.
	NoJSON bool
}

// Handler routes the dashboard API.
// Routes must be added before it serves requests.
type Handler struct {
	mu     sync.RWMutex
	router *httprouter.Router
	// patterns that already answer OPTIONS
	options map[string]bool
	routes  map[string][]string

	loggingEnabled bool
	diag           Diagnostic
}

func NewHandler(loggingEnabled bool, d Diagnostic) *Handler {
	h := &Handler{
		router:         httprouter.New(),
		options:        make(map[string]bool),
		routes:         make(map[string][]string),
		loggingEnabled: loggingEnabled,
		diag:           d,
	}
	h.router.RedirectTrailingSlash = false
	h.router.HandleOPTIONS = false
	h.router.HandleMethodNotAllowed = true
	h.router.MethodNotAllowed = h.wrap("405", http.HandlerFunc(serve405), false)
	h.router.NotFound = h.wrap("404", http.HandlerFunc(serve404), false)

	h.addRawRoutes([]Route{
		{
			Name:        "ping",
			Method:      "GET",
			Pattern:     BasePath + "/ping",
			HandlerFunc: servePing,
		},
		{
			Name:        "ping-head",
			Method:      "HEAD",
			Pattern:     BasePath + "/ping",
			HandlerFunc: servePing,
		},
		{
			// Display current API routes
			Name:        "routes",
			Method:      "GET",
			Pattern:     BasePath + "/routes",
			HandlerFunc: h.serveRoutes,
		},
	})
	return h
}

// AddRoutes adds routes relative to BasePath.
func (h *Handler) AddRoutes(routes []Route) error {
	for _, r := range routes {
		if err := h.AddRoute(r); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) AddRoute(r Route) error {
	if len(r.Pattern) > 0 && r.Pattern[0] != '/' {
		return fmt.Errorf("route patterns must begin with a '/' %s", r.Pattern)
	}
	r.Pattern = BasePath + r.Pattern
	return h.addRawRoute(r)
}

// AddRawRoutes adds routes without prepending BasePath.
func (h *Handler) AddRawRoutes(routes []Route) error {
	return h.addRawRoutes(routes)
}

func (h *Handler) addRawRoutes(routes []Route) error {
	for _, r := range routes {
		if err := h.addRawRoute(r); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) addRawRoute(r Route) (err error) {
	if r.HandlerFunc == nil {
		return errors.New("route does not have valid handler function")
	}
	if r.Method == "" {
		return fmt.Errorf("route %q does not have a method", r.Name)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	// httprouter panics on conflicting routes
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to add route %s %s: %v", r.Method, r.Pattern, rec)
		}
	}()

	h.router.Handler(r.Method, r.Pattern, h.wrap(r.Name, r.HandlerFunc, !r.NoJSON))
	h.routes[r.Pattern] = append(h.routes[r.Pattern], r.Method)

	// Satisfy CORS checks.
	if r.Method != "OPTIONS" && !h.options[r.Pattern] {
		h.router.Handler("OPTIONS", r.Pattern, h.wrap(r.Name, http.HandlerFunc(ServeOptions), false))
		h.options[r.Pattern] = true
	}
	return nil
}

// wrap applies the middleware shared by every route.
func (h *Handler) wrap(name string, handler http.Handler, json bool) http.Handler {
	if json {
		handler = jsonContent(handler)
	}
	handler = cors(handler)
	handler = requestID(handler)
	if h.loggingEnabled {
		handler = logHandler(handler, h.diag)
	}
	return recovery(handler, name, h.diag) // make sure recovery is always last
}

// ServeHTTP responds to HTTP request to the handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	router := h.router
	h.mu.RUnlock()
	router.ServeHTTP(w, r)
}

// serveRoutes returns a list of all routes and their methods
func (h *Handler) serveRoutes(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	routes := make(map[string][]string, len(h.routes))
	for p, methods := range h.routes {
		m := append([]string(nil), methods...)
		sort.Strings(m)
		routes[p] = m
	}
	w.Write(MarshalJSON(routes, true))
}

func serve404(w http.ResponseWriter, r *http.Request) {
	HttpError(w, "Not Found", false, http.StatusNotFound)
}

func serve405(w http.ResponseWriter, r *http.Request) {
	if r.Method == "OPTIONS" {
		ServeOptions(w, r)
		return
	}
	HttpError(w, "Method not allowed", false, http.StatusMethodNotAllowed)
}

// ServeOptions returns an empty response to comply with OPTIONS pre-flight requests
func ServeOptions(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// servePing returns a simple response to let the client know the server is running.
func servePing(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

// MarshalJSON will marshal v to JSON. Pretty prints if pretty is true.
func MarshalJSON(v interface{}, pretty bool) []byte {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "    ")
	} else {
		b, err = json.Marshal(v)
	}

	if err != nil {
		type errResponse struct {
			Error string `json:"error"`
		}
		er := errResponse{Error: err.Error()}
		b, _ = json.Marshal(er)
	}
	return b
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, code int, v interface{}) {
	b := MarshalJSON(v, false)
	w.WriteHeader(code)
	w.Write(b)
}

// HttpError writes an error to the client in a standard format.
func HttpError(w http.ResponseWriter, err string, pretty bool, code int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)

	type errResponse struct {
		Error string `json:"error"`
	}

	response := errResponse{Error: err}
	w.Write(MarshalJSON(response, pretty))
}

// Filters and filter helpers

func jsonContent(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		inner.ServeHTTP(w, r)
	})
}

// cors allows any origin, the dashboard is served from a different host.
func cors(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		w.Header().Set(`Access-Control-Allow-Origin`, origin)
		w.Header().Set(`Access-Control-Allow-Methods`, strings.Join([]string{
			`GET`,
			`OPTIONS`,
			`POST`,
		}, ", "))
		w.Header().Set(`Access-Control-Allow-Headers`, strings.Join([]string{
			`Accept`,
			`Authorization`,
			`Content-Length`,
			`Content-Type`,
			`X-Requested-With`,
		}, ", "))
		if origin != "*" {
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		inner.ServeHTTP(w, r)
	})
}

func requestID(inner http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("Request-Id")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.New().String()
			r.Header.Set("Request-Id", id)
		}
		w.Header().Set("Request-Id", id)

		inner.ServeHTTP(w, r)
	})
}

func logHandler(inner http.Handler, d Diagnostic) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		l := &responseLogger{w: w}
		inner.ServeHTTP(l, r)
		d.HTTP(
			r.Host,
			start,
			r.Method,
			r.URL.RequestURI(),
			r.Proto,
			l.Status(),
			r.Referer(),
			r.UserAgent(),
			r.Header.Get("Request-Id"),
			time.Since(start),
		)
	})
}

func recovery(inner http.Handler, name string, d Diagnostic) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := &responseLogger{w: w}
		defer func() {
			if err := recover(); err != nil {
				d.RecoveryError(
					"recovered from panic in "+name,
					fmt.Sprint(err),
					r.Method,
					r.URL.RequestURI(),
					r.Header.Get("Request-Id"),
				)
				if l.status == 0 {
					HttpError(l, "internal server error", false, http.StatusInternalServerError)
				}
			}
		}()
		inner.ServeHTTP(l, r)
	})
}
