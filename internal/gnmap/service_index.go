package gnmap

import (
	"fmt"
	"strings"

	"gnmapgrep/models"
)

// ServiceIndex maps service names to the ports offering them. Services
// keep the order they were first seen in; ports keep append order, with
// duplicates preserved.
type ServiceIndex struct {
	order []string
	ports map[string][]int
}

// BuildServiceIndex groups the parsed port entries of one host line by
// service name. Pure aggregation, no filtering or deduplication.
func BuildServiceIndex(entries []models.Port) *ServiceIndex {
	ix := &ServiceIndex{ports: make(map[string][]int)}
	for _, entry := range entries {
		if _, ok := ix.ports[entry.Service]; !ok {
			ix.order = append(ix.order, entry.Service)
		}
		ix.ports[entry.Service] = append(ix.ports[entry.Service], entry.Number)
	}
	return ix
}

// Services returns the indexed service names in first-seen order.
func (ix *ServiceIndex) Services() []string {
	return ix.order
}

// Ports returns the ports recorded for a service, in append order.
func (ix *ServiceIndex) Ports(service string) []int {
	return ix.ports[service]
}

// ServicesMatching returns the service names containing substr as a
// literal, case-sensitive fragment, in first-seen order. The empty
// substring matches every service.
func (ix *ServiceIndex) ServicesMatching(substr string) []string {
	var matched []string
	for _, service := range ix.order {
		if strings.Contains(service, substr) {
			matched = append(matched, service)
		}
	}
	return matched
}

// PortsMatching concatenates the port lists of every service matching
// substr, preserving service insertion order and port append order.
func (ix *ServiceIndex) PortsMatching(substr string) []int {
	var matched []int
	for _, service := range ix.ServicesMatching(substr) {
		matched = append(matched, ix.ports[service]...)
	}
	return matched
}

// FormatHostPorts renders one "host:port" record per port, in order.
func FormatHostPorts(host string, ports []int) []string {
	records := make([]string, 0, len(ports))
	for _, port := range ports {
		records = append(records, fmt.Sprintf("%s:%d", host, port))
	}
	return records
}
