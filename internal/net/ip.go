package net

import (
	"net"

	"github.com/rs/zerolog"
)

// GetOutgoingIP finds the preferred local IP address for the host to share.
func GetOutgoingIP(log zerolog.Logger) string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		// no route to the internet, look at the interfaces instead
		return localIPFallback(log)
	}
	defer conn.Close()

	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}

func localIPFallback(log zerolog.Logger) string {
	ifaces, _ := net.Interfaces()
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4().String()
			}
		}
	}
	log.Warn().Msg("no suitable local IP found, share link may not work")
	return "127.0.0.1"
}
