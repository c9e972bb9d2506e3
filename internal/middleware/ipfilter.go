package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// ParseBlocklist parses CIDR ranges and bare IP addresses
func ParseBlocklist(entries []string) ([]*net.IPNet, error) {
	blocked := make([]*net.IPNet, 0, len(entries))
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				return nil, fmt.Errorf("invalid blocked IP %q", entry)
			}
			bits := 128
			if ip.To4() != nil {
				ip = ip.To4()
				bits = 32
			}
			blocked = append(blocked, &net.IPNet{IP: ip, Mask: net.CIDRMask(bits, bits)})
			continue
		}

		_, ipNet, err := net.ParseCIDR(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid blocked range %q: %w", entry, err)
		}
		blocked = append(blocked, ipNet)
	}
	return blocked, nil
}

// IPFilterMiddleware rejects requests from blocked addresses
func IPFilterMiddleware(blocked []*net.IPNet) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := net.ParseIP(c.ClientIP())
		if clientIP == nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": "rest_forbidden", "message": "Access denied."})
			return
		}

		for _, ipNet := range blocked {
			if ipNet.Contains(clientIP) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"code": "rest_forbidden", "message": "Access denied."})
				return
			}
		}

		c.Next()
	}
}
