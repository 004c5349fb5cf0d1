package httpkit

import (
	"net/http"

	"trendflow/internal/platform/net/http/bind"
)

// Get mounts a body-less handler under GET
func Get(r Router, path string, h func(*http.Request) (any, error)) {
	r.Get(path, Call(h))
}

// Post mounts a body-less handler under POST
func Post(r Router, path string, h func(*http.Request) (any, error)) {
	r.Post(path, Call(h))
}

// PostJSON mounts a validated JSON handler under POST
func PostJSON[T any](r Router, path string, h func(*http.Request, T) (any, error)) {
	r.Post(path, JSON(h))
}

// QueryInt reads an integer query parameter checked against a validator tag
func QueryInt(r *http.Request, name string, def int, tag string) (int, error) {
	return bind.QueryInt(r, name, def, tag)
}

// QueryFloat reads a float query parameter checked against a validator tag
func QueryFloat(r *http.Request, name string, def float64, tag string) (float64, error) {
	return bind.QueryFloat(r, name, def, tag)
}

// QueryFloatOpt reads an optional float query parameter, nil when absent
func QueryFloatOpt(r *http.Request, name, tag string) (*float64, error) {
	return bind.QueryFloatOpt(r, name, tag)
}

// QueryString reads a trimmed query parameter checked against a validator tag
func QueryString(r *http.Request, name, def, tag string) (string, error) {
	return bind.QueryString(r, name, def, tag)
}
