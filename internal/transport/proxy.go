package transport

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// ProxyProtocol identifies the proxy's wire protocol.
type ProxyProtocol string

const (
	ProxyHTTP   ProxyProtocol = "http"
	ProxyHTTPS  ProxyProtocol = "https"
	ProxySOCKS4 ProxyProtocol = "socks4"
	ProxySOCKS5 ProxyProtocol = "socks5"
)

// Proxy configures an outbound HTTP(S)/SOCKS proxy (§4.5). Bypass
// entries are wildcard patterns matched against the target host; a
// match routes the request directly, skipping the proxy. SSRF rules
// still apply to the ultimate target either way.
type Proxy struct {
	Host     string
	Port     int
	Protocol ProxyProtocol
	Auth     *Auth
	Bypass   []string
}

// URL returns the proxy's connection URL, embedding basic-auth
// credentials if configured.
func (p Proxy) URL() (*url.URL, error) {
	if p.Host == "" {
		return nil, fmt.Errorf("proxy: empty host")
	}

	u := &url.URL{
		Scheme: string(p.Protocol),
		Host:   fmt.Sprintf("%s:%d", p.Host, p.Port),
	}

	if p.Auth != nil && p.Auth.Scheme == AuthBasic {
		u.User = url.UserPassword(p.Auth.User, p.Auth.Pass)
	}

	return u, nil
}

// Bypasses reports whether host matches one of the configured bypass
// wildcard patterns (e.g. "*.internal.example", "localhost").
func (p Proxy) Bypasses(host string) bool {
	host = strings.ToLower(host)
	for _, pattern := range p.Bypass {
		if ok, _ := path.Match(strings.ToLower(pattern), host); ok {
			return true
		}
	}
	return false
}
