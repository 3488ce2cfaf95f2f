package network

import (
	"context"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/hashicorp/mdns"
)

// ServiceType is the mDNS service relays advertise on the LAN.
const ServiceType = "_liveboard._tcp"

// Advertise announces a relay listening on port. Shut the returned server
// down to withdraw the record.
func Advertise(port int, info ...string) (*mdns.Server, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, fmt.Errorf("could not get hostname: %w", err)
	}
	if len(info) == 0 {
		info = []string{"LiveBoard relay"}
	}
	service, err := mdns.NewMDNSService(host, ServiceType, "", "", port, []net.IP{OutboundIP()}, info)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS service: %w", err)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, fmt.Errorf("failed to start mDNS server: %w", err)
	}
	return server, nil
}

// Discover browses the LAN for relays until timeout and returns their base
// URLs in the order they answered.
func Discover(ctx context.Context, timeout time.Duration) ([]string, error) {
	entries := make(chan *mdns.ServiceEntry, 16)
	params := mdns.DefaultParams(ServiceType)
	params.Entries = entries
	params.Timeout = timeout
	params.DisableIPv6 = true

	errc := make(chan error, 1)
	go func() {
		errc <- mdns.Query(params)
		close(entries)
	}()

	var found []string
	seen := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return found, ctx.Err()
		case e, ok := <-entries:
			if !ok {
				return found, <-errc
			}
			addr, ok := entryURL(e)
			if !ok || seen[addr] {
				continue
			}
			seen[addr] = true
			found = append(found, addr)
		}
	}
}

func entryURL(e *mdns.ServiceEntry) (string, bool) {
	if e == nil || e.AddrV4 == nil || e.Port == 0 {
		return "", false
	}
	return fmt.Sprintf("http://%s:%d", e.AddrV4.String(), e.Port), true
}

// OutboundIP is the address other machines on the LAN most likely reach
// us at. No packet is sent.
func OutboundIP() net.IP {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err == nil {
		defer conn.Close()
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok {
			return addr.IP
		}
	}
	return firstIPv4()
}

func firstIPv4() net.IP {
	ifaces, _ := net.Interfaces()
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		for _, a := range addrs {
			if ipnet, ok := a.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				return ipnet.IP.To4()
			}
		}
	}
	return net.IPv4(127, 0, 0, 1)
}
