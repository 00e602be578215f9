package middleware

import (
	"net"
	"net/http"
	"net/netip"
	"strings"

	"github.com/cmlabs-hris/hris-attendance/internal/config"
	"github.com/cmlabs-hris/hris-attendance/internal/handler/http/response"
)

const ipNotAllowedMessage = "Check-in and check-out are only allowed from the company network"

type ipRule struct {
	addr    netip.Addr
	prefix  netip.Prefix
	pattern []string
}

func (r ipRule) matches(ip netip.Addr) bool {
	switch {
	case r.addr.IsValid():
		return r.addr == ip
	case r.prefix.IsValid():
		return r.prefix.Contains(ip)
	case r.pattern != nil:
		if !ip.Is4() {
			return false
		}
		octets := strings.Split(ip.String(), ".")
		for i, part := range r.pattern {
			if part != "*" && part != octets[i] {
				return false
			}
		}
		return true
	}
	return false
}

func parseIPRule(entry string) (ipRule, bool) {
	entry = strings.TrimPrefix(strings.TrimSpace(entry), "::ffff:")
	if entry == "" {
		return ipRule{}, false
	}

	if strings.Contains(entry, "/") {
		prefix, err := netip.ParsePrefix(entry)
		if err != nil {
			return ipRule{}, false
		}
		return ipRule{prefix: prefix.Masked()}, true
	}

	if strings.Contains(entry, "*") {
		parts := strings.Split(entry, ".")
		if len(parts) != 4 {
			return ipRule{}, false
		}
		for _, p := range parts {
			if p == "*" {
				continue
			}
			if _, err := netip.ParseAddr("0.0.0." + p); err != nil {
				return ipRule{}, false
			}
		}
		return ipRule{pattern: parts}, true
	}

	addr, err := netip.ParseAddr(entry)
	if err != nil {
		return ipRule{}, false
	}
	return ipRule{addr: addr.Unmap()}, true
}

// clientAddr parses r.RemoteAddr, which chi's RealIP may have replaced with
// a bare address.
func clientAddr(r *http.Request) (netip.Addr, bool) {
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(host))
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap(), true
}

// IPWhitelist allows a request only when the client address matches one of
// the configured entries. Entries are single addresses, CIDR ranges or IPv4
// patterns with "*" octets. A disabled whitelist lets everything through.
func IPWhitelist(cfg config.IPWhitelistConfig) func(http.Handler) http.Handler {
	rules := make([]ipRule, 0, len(cfg.Entries))
	for _, entry := range cfg.Entries {
		if rule, ok := parseIPRule(entry); ok {
			rules = append(rules, rule)
		}
	}

	return func(next http.Handler) http.Handler {
		if !cfg.Enabled {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, ok := clientAddr(r)
			if !ok {
				response.Forbidden(w, ipNotAllowedMessage)
				return
			}

			if cfg.AllowLocalhost && ip.IsLoopback() {
				next.ServeHTTP(w, r)
				return
			}

			for _, rule := range rules {
				if rule.matches(ip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.Forbidden(w, ipNotAllowedMessage)
		})
	}
}
