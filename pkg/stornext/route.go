// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stornext

import (
	"fmt"
	"path"
	"strings"

	"github.com/intel-hpdd/logging/alert"

	"github.com/ink1/sntool"
	"github.com/ink1/sntool/pkg/config"
)

type (
	// Route sends service paths under Prefix to the web service at URL.
	Route struct {
		Name   string
		Prefix string
		URL    string
	}

	// Router selects the web service responsible for a file.
	Router struct {
		StripPrefix string
		Routes      []Route
	}

	// Endpoint is the result of routing one file: the path StorNext
	// knows the file by and the service to ask about it.
	Endpoint struct {
		Name    string
		Path    string
		BaseURL string
	}
)

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%s", e.Name, e.BaseURL)
}

// NewRouter returns a Router for the configured endpoints. When two
// endpoints share a prefix the first one listed is used.
func NewRouter(cfg *config.Config) *Router {
	r := &Router{StripPrefix: cfg.StripPrefix}
	seen := make(map[string]string)
	for _, ep := range cfg.Endpoints {
		prefix := strings.TrimSuffix(ep.Prefix, "/")
		if first, ok := seen[prefix]; ok {
			alert.Warnf("endpoints %s and %s share prefix %q, using %s", first, ep.Name, ep.Prefix, first)
		} else {
			seen[prefix] = ep.Name
		}
		r.Routes = append(r.Routes, Route{
			Name:   ep.Name,
			Prefix: ep.Prefix,
			URL:    ep.URL,
		})
	}
	return r
}

// under reports whether p is prefix itself or lies beneath it.
func under(p, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return strings.HasPrefix(p, "/")
	}
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

// ServicePath cuts the strip prefix from a canonical path.
func (r *Router) ServicePath(canonicalPath string) (string, error) {
	p := path.Clean(canonicalPath)
	if !path.IsAbs(p) {
		return "", sntool.Newf(sntool.RoutingFailed, "%s is not absolute", canonicalPath)
	}

	strip := strings.TrimSuffix(r.StripPrefix, "/")
	if strip == "" {
		return p, nil
	}
	if !under(p, strip) {
		return "", sntool.Newf(sntool.RoutingFailed, "%s is not under %s", canonicalPath, r.StripPrefix)
	}

	sp := strings.TrimPrefix(p, strip)
	if sp == "" {
		sp = "/"
	}
	return sp, nil
}

// SelectEndpoint maps a canonical file path to the endpoint serving
// it. The longest matching prefix wins.
func (r *Router) SelectEndpoint(canonicalPath string) (Endpoint, error) {
	sp, err := r.ServicePath(canonicalPath)
	if err != nil {
		return Endpoint{}, err
	}

	var best *Route
	for i := range r.Routes {
		rt := &r.Routes[i]
		if !under(sp, rt.Prefix) {
			continue
		}
		if best == nil || len(strings.TrimSuffix(rt.Prefix, "/")) > len(strings.TrimSuffix(best.Prefix, "/")) {
			best = rt
		}
	}
	if best == nil {
		return Endpoint{}, sntool.Newf(sntool.RoutingFailed, "%s", sp)
	}

	base := best.URL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return Endpoint{Name: best.Name, Path: sp, BaseURL: base}, nil
}
