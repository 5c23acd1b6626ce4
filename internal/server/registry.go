package server

import (
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"sync"
)

// ErrDuplicateService is returned when a path is registered twice.
var ErrDuplicateService = errors.New("service already registered")

// HandlerFunc computes a service response from its single request parameter.
type HandlerFunc func(value string) string

// Param describes the query parameter a service reads.
type Param struct {
	Name    string
	Default string
}

// Service is a GET endpoint mounted under /api.
type Service struct {
	// Path relative to /api, e.g. "/greeting".
	Path    string
	Param   Param
	Handler HandlerFunc
}

// Argument resolves the value passed to the handler: the query value when it
// is present and non-empty, the parameter default otherwise.
func (s Service) Argument(query url.Values) string {
	if s.Param.Name == "" {
		return s.Param.Default
	}
	if v := query.Get(s.Param.Name); v != "" {
		return v
	}
	return s.Param.Default
}

// Invoke runs the handler for value, falling back to the default when value is empty.
func (s Service) Invoke(value string) string {
	if value == "" {
		value = s.Param.Default
	}
	return s.Handler(value)
}

// Registry holds the services exposed under /api
type Registry struct {
	services map[string]Service
	mu       sync.RWMutex
}

// NewRegistry creates an empty service registry
func NewRegistry() *Registry {
	return &Registry{
		services: make(map[string]Service),
	}
}

// Register adds a service. Paths are normalized to a single leading slash.
func (r *Registry) Register(service Service) error {
	if service.Handler == nil {
		return fmt.Errorf("service %q has no handler", service.Path)
	}

	path := normalizeServicePath(service.Path)
	if path == "/" {
		return fmt.Errorf("service path is required")
	}
	service.Path = path

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.services[path]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateService, path)
	}
	r.services[path] = service
	return nil
}

// Get retrieves a service by path
func (r *Registry) Get(path string) (Service, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	service, exists := r.services[normalizeServicePath(path)]
	return service, exists
}

// List returns all registered paths in sorted order
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	paths := make([]string, 0, len(r.services))
	for path := range r.services {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Count returns the number of registered services
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.services)
}

func normalizeServicePath(path string) string {
	return "/" + strings.Trim(path, "/")
}
