// Package urlkey normalizes analysis targets into stable cache keys.
//
// Two requests that must share a cache entry have to produce an identical
// key, so normalization strips scheme, default ports, trailing slashes and
// query strings, lowercases the host and resolves unicode hosts to their
// punycode form before extracting the registrable domain.
package urlkey

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// ErrInvalidTarget is returned for input that cannot be normalized into an
// analyzable host. This is the only caller-visible error in the analysis
// core: a contract violation, not a runtime condition.
var ErrInvalidTarget = errors.New("invalid analysis target")

// Target is a normalized analysis subject.
type Target struct {
	// Host is the full lowercased hostname in ASCII (punycode) form,
	// or the literal IP address.
	Host string
	// Registrable is the registrable domain (eTLD+1) of Host, or Host
	// itself for IP literals.
	Registrable string
	// Path is the cleaned request path, empty when the path does not
	// participate in the analysis key.
	Path string
	// Port is the explicit non-default port, 0 otherwise.
	Port int
	// IsIP reports whether Host is a literal IPv4/IPv6 address.
	IsIP bool
	// Unicode reports whether the original host contained non-ASCII or
	// punycode labels.
	Unicode bool
}

// Key returns the cache identity of the target: the registrable domain,
// plus the path when one was supplied.
func (t Target) Key() string {
	if t.Path == "" {
		return t.Registrable
	}
	return t.Registrable + t.Path
}

// Normalize parses a raw host (optionally with scheme, port or path
// attached) plus an optional path into a Target.
func Normalize(rawHost, rawPath string) (Target, error) {
	host := strings.TrimSpace(strings.ToLower(rawHost))
	if host == "" {
		return Target{}, fmt.Errorf("%w: empty host", ErrInvalidTarget)
	}

	// Accept full URLs as a convenience; the interceptor normally hands
	// us a bare host.
	if strings.Contains(host, "://") {
		u, err := url.Parse(host)
		if err != nil || u.Hostname() == "" {
			return Target{}, fmt.Errorf("%w: %q", ErrInvalidTarget, rawHost)
		}
		if rawPath == "" && u.Path != "" && u.Path != "/" {
			rawPath = u.Path
		}
		host = u.Host
	}

	host, port, err := splitPort(host)
	if err != nil {
		return Target{}, err
	}

	t := Target{Port: port}

	if ip := net.ParseIP(strings.Trim(host, "[]")); ip != nil {
		t.Host = strings.Trim(host, "[]")
		t.Registrable = t.Host
		t.IsIP = true
	} else {
		unicode := strings.Contains(host, "xn--") || !isASCII(host)
		ascii, err := idna.Lookup.ToASCII(host)
		if err != nil {
			return Target{}, fmt.Errorf("%w: %q: %v", ErrInvalidTarget, rawHost, err)
		}
		if !strings.Contains(ascii, ".") {
			return Target{}, fmt.Errorf("%w: %q has no registrable domain", ErrInvalidTarget, rawHost)
		}
		t.Host = ascii
		t.Unicode = unicode
		reg, err := publicsuffix.EffectiveTLDPlusOne(ascii)
		if err != nil {
			// Unknown suffix: fall back to the last two labels.
			parts := strings.Split(ascii, ".")
			reg = strings.Join(parts[len(parts)-2:], ".")
		}
		t.Registrable = reg
	}

	t.Path = cleanPath(rawPath)
	return t, nil
}

func splitPort(host string) (string, int, error) {
	// IPv6 literal without port.
	if strings.HasPrefix(host, "[") && !strings.Contains(host, "]:") {
		return host, 0, nil
	}
	if !strings.Contains(host, ":") || (strings.Count(host, ":") > 1 && !strings.Contains(host, "]:")) {
		return host, 0, nil
	}
	h, p, err := net.SplitHostPort(host)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidTarget, host)
	}
	var port int
	if _, err := fmt.Sscanf(p, "%d", &port); err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("%w: bad port in %q", ErrInvalidTarget, host)
	}
	// Default web ports do not differentiate targets.
	if port == 80 || port == 443 {
		port = 0
	}
	return h, port, nil
}

func cleanPath(p string) string {
	if p == "" || p == "/" {
		return ""
	}
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return strings.ToLower(p)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// SubdomainDepth returns the number of labels below the registrable domain.
func (t Target) SubdomainDepth() int {
	if t.IsIP || t.Host == t.Registrable {
		return 0
	}
	prefix := strings.TrimSuffix(t.Host, "."+t.Registrable)
	if prefix == t.Host {
		return 0
	}
	return strings.Count(prefix, ".") + 1
}
