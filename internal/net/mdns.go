package net

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

const serviceType = "_freehand._tcp"

var ErrNoHost = errors.New("no board host found on the local network")

// Advertise announces a host listening on port. The caller shuts the returned
// server down on exit.
func Advertise(port int) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}

	service, err := mdns.NewMDNSService(host, serviceType, "", "", port, nil, []string{"FreehandBoard"})
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	return server, nil
}

// Browse looks for an advertised host for up to timeout and returns the
// first "ip:port" it finds.
func Browse(timeout time.Duration) (string, error) {
	entries := make(chan *mdns.ServiceEntry, 8)
	params := mdns.DefaultParams(serviceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	errc := make(chan error, 1)
	go func() {
		errc <- mdns.Query(params)
		close(entries)
	}()

	var found string
	for e := range entries {
		if found != "" || e.AddrV4 == nil || e.Port == 0 {
			continue
		}
		found = fmt.Sprintf("%s:%d", e.AddrV4.String(), e.Port)
	}
	if err := <-errc; err != nil && found == "" {
		return "", fmt.Errorf("mDNS query: %w", err)
	}
	if found == "" {
		return "", ErrNoHost
	}
	return found, nil
}
