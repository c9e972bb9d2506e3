package sideload

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"syscall"
	"time"
)

// ErrBlockedAddress is returned when a download would connect to a loopback,
// private, link-local or otherwise non-public address.
var ErrBlockedAddress = errors.New("sideload: destination address is not allowed")

// isPublicAddr reports whether addr is a globally routable unicast address
func isPublicAddr(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsValid() &&
		addr.IsGlobalUnicast() &&
		!addr.IsPrivate() &&
		!addr.IsLoopback() &&
		!addr.IsLinkLocalUnicast()
}

// publicOnlyControl runs after name resolution, so it sees the address that
// is actually dialed, including after redirects.
func publicOnlyControl(network, address string, _ syscall.RawConn) error {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, address)
	}
	addr, err := netip.ParseAddr(host)
	if err != nil || !isPublicAddr(addr) {
		return fmt.Errorf("%w: %s", ErrBlockedAddress, host)
	}
	return nil
}

// newDownloadClient returns the HTTP client used for remote fetches. Unless
// allowPrivate is set it refuses to connect to non-public addresses. Proxies
// from the environment are ignored because the guard only sees the dialed
// address.
func newDownloadClient(allowPrivate bool) *http.Client {
	if allowPrivate {
		return &http.Client{}
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Control:   publicOnlyControl,
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = nil
	transport.DialContext = dialer.DialContext

	return &http.Client{Transport: transport}
}
