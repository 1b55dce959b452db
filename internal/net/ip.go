package net

import (
	"net"
	"strconv"
)

// ShareScheme prefixes share links.
const ShareScheme = "inkboard://"

// ShareLink is the inkboard:// address peers use to reach this host. It
// prefers the address of the default route, then the first IPv4 address of
// an interface that is up, then loopback.
func ShareLink(port int) string {
	return FormatShareLink(advertisedIP(net.Interfaces), port)
}

func FormatShareLink(ip string, port int) string {
	return ShareScheme + net.JoinHostPort(ip, strconv.Itoa(port))
}

func advertisedIP(interfaces func() ([]net.Interface, error)) string {
	// No packets are sent; dialing UDP only selects the outbound address.
	if conn, err := net.Dial("udp", "8.8.8.8:80"); err == nil {
		defer conn.Close()
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && !addr.IP.IsUnspecified() {
			return addr.IP.String()
		}
	}
	if ip := firstLANAddr(interfaces); ip != nil {
		return ip.String()
	}
	return "127.0.0.1"
}

// firstLANAddr returns the first non-loopback IPv4 address on an interface
// that is up, or nil.
func firstLANAddr(interfaces func() ([]net.Interface, error)) net.IP {
	ifaces, err := interfaces()
	if err != nil {
		return nil
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok {
				if v4 := ipnet.IP.To4(); v4 != nil && !v4.IsLoopback() {
					return v4
				}
			}
		}
	}
	return nil
}
