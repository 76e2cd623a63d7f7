package main

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// freePort reserves an ephemeral TCP port and returns it.
func freePort() (int, error) {
	l, err := net.Listen("tcp", ":0")
	if err != nil {
		return 0, err
	}
	port := l.Addr().(*net.TCPAddr).Port
	return port, l.Close()
}

// advertisedAddress picks the first non-loopback IPv4 of this machine and
// pairs it with the given port. Peers on the same LAN can reach it; a
// machine with no usable interface falls back to loopback.
func advertisedAddress(port int) string {
	addrs, err := net.InterfaceAddrs()
	if err == nil {
		for _, a := range addrs {
			ipnet, ok := a.(*net.IPNet)
			if !ok || ipnet.IP.IsLoopback() {
				continue
			}
			if ip4 := ipnet.IP.To4(); ip4 != nil {
				return net.JoinHostPort(ip4.String(), strconv.Itoa(port))
			}
		}
	}
	return net.JoinHostPort("127.0.0.1", strconv.Itoa(port))
}

// normalizeRegistryURL accepts host, host:port or a full URL and returns
// something the discovery client can use as a base.
func normalizeRegistryURL(raw string, defaultPort int) (string, error) {
	raw = strings.TrimRight(raw, "/")
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw, nil
	}
	if raw == "" {
		return "", fmt.Errorf("empty registry address")
	}
	if _, _, err := net.SplitHostPort(raw); err != nil {
		raw = net.JoinHostPort(raw, strconv.Itoa(defaultPort))
	}
	return "http://" + raw, nil
}
