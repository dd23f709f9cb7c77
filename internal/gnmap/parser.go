// Package gnmap parses Nmap greppable (-oG) output into host and port
// records and filters them by service name.
package gnmap

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"gnmapgrep/models"
)

const (
	// HostMarker and PortsMarker are the literal field prefixes nmap
	// writes on greppable host lines.
	HostMarker  = "Host: "
	PortsMarker = "Ports: "

	fieldSeparator    = "\t"
	portInfoSeparator = ", "
)

// SelectionMode controls which marker lines a run processes.
type SelectionMode int

const (
	// SelectAllHosts keeps every line carrying both markers.
	SelectAllHosts SelectionMode = iota
	// SelectFirstHost keeps only the first line carrying the ports marker.
	SelectFirstHost
)

// ParseSelectionMode maps a config value onto a SelectionMode.
func ParseSelectionMode(s string) (SelectionMode, error) {
	switch s {
	case "all":
		return SelectAllHosts, nil
	case "first":
		return SelectFirstHost, nil
	}
	return 0, fmt.Errorf("unknown selection mode %q (want \"all\" or \"first\")", s)
}

// SelectHostPortLines scans the raw file text and returns the host lines
// to parse. In SelectAllHosts mode every line carrying both markers is
// returned; in SelectFirstHost mode only the first line carrying the
// ports marker is, and that line must also carry the host marker. Finding
// no candidate line at all is an error, not an empty result.
func SelectHostPortLines(text string, mode SelectionMode, path string) ([]string, error) {
	lines := strings.Split(text, "\n")

	if mode == SelectFirstHost {
		for _, line := range lines {
			if !strings.Contains(line, PortsMarker) {
				continue
			}
			if !strings.Contains(line, HostMarker) {
				return nil, fmt.Errorf("first line with %q in %q is missing %q", PortsMarker, path, HostMarker)
			}
			return []string{line}, nil
		}
		return nil, fmt.Errorf("no line with %q found in %q", PortsMarker, path)
	}

	var selected []string
	for _, line := range lines {
		if strings.Contains(line, HostMarker) && strings.Contains(line, PortsMarker) {
			selected = append(selected, line)
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("no line with %q found in %q", PortsMarker, path)
	}
	return selected, nil
}

// Host returns the host identifier of a selected line: the second
// whitespace-delimited token, taken verbatim. Greppable host lines start
// with "Host: <addr> (<name>)", so no further validation is done.
func Host(line string) (string, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return "", fmt.Errorf("host line %q has no host token", line)
	}
	return fields[1], nil
}

// Dialect selects the field-parsing strategy for port entries.
type Dialect int

const (
	// DialectTab splits the line on tabs and matches the full
	// seven-field entry nmap writes (owner, RPC and version included).
	DialectTab Dialect = iota
	// DialectWhitespace splits the line on whitespace and matches the
	// reduced entry with empty owner/RPC/version slots. Lossier, but
	// tolerant of output whose tabs were flattened in transit.
	DialectWhitespace
)

// ParseDialect maps a config value onto a Dialect.
func ParseDialect(s string) (Dialect, error) {
	switch s {
	case "tab":
		return DialectTab, nil
	case "whitespace":
		return DialectWhitespace, nil
	}
	return 0, fmt.Errorf("unknown dialect %q (want \"tab\" or \"whitespace\")", s)
}

// portPattern is a compiled port-entry expression together with the
// indices of the named capture groups it extracts.
type portPattern struct {
	re                             *regexp.Regexp
	port, state, protocol, service int
}

func newPortPattern(expr string) portPattern {
	re := regexp.MustCompile(expr)
	return portPattern{
		re:       re,
		port:     re.SubexpIndex("port"),
		state:    re.SubexpIndex("state"),
		protocol: re.SubexpIndex("protocol"),
		service:  re.SubexpIndex("service"),
	}
}

// extract matches frag and pulls the captured fields into a Port. A
// fragment the pattern rejects yields (nil, nil); a matched fragment
// whose port field does not convert to an integer is an error.
func (p portPattern) extract(frag string) (*models.Port, error) {
	m := p.re.FindStringSubmatch(frag)
	if m == nil {
		return nil, nil
	}
	number, err := strconv.Atoi(m[p.port])
	if err != nil {
		return nil, fmt.Errorf("port number in %q: %w", frag, err)
	}
	return &models.Port{
		Number:   number,
		State:    m[p.state],
		Protocol: m[p.protocol],
		Service:  m[p.service],
	}, nil
}

var (
	// Full greppable entry: port/state/protocol/owner/service/rpc/version/,
	// with the trailing field and optional comma ignored.
	tabPattern = newPortPattern(`^(?P<port>[0-9]+)/(?P<state>[^/]*)/(?P<protocol>[^/]*)/(?P<owner>[^/]*)/(?P<service>[^/]*)/(?P<rpc>[^/]*)/(?P<version>[^/]*)/[^/]*,?`)

	// Reduced entry with the owner/rpc/version slots empty.
	whitespacePattern = newPortPattern(`^(?P<port>[0-9]+)/(?P<state>[a-z]*)/(?P<protocol>[a-z]*)//(?P<service>[a-z]*)///,?$`)
)

// ParsePorts extracts the port entries of a selected line, preserving
// their left-to-right order. Tokens or fragments that do not look like
// port entries are skipped.
func (d Dialect) ParsePorts(line string) ([]models.Port, error) {
	if d == DialectWhitespace {
		return parseTokens(strings.Fields(line), whitespacePattern)
	}

	var ports []models.Port
	for _, part := range strings.Split(line, fieldSeparator) {
		if !strings.HasPrefix(part, PortsMarker) {
			continue
		}
		body := strings.TrimPrefix(part, PortsMarker)
		parsed, err := parseTokens(strings.Split(body, portInfoSeparator), tabPattern)
		if err != nil {
			return nil, err
		}
		ports = append(ports, parsed...)
	}
	return ports, nil
}

func parseTokens(tokens []string, pattern portPattern) ([]models.Port, error) {
	var ports []models.Port
	for _, token := range tokens {
		port, err := pattern.extract(token)
		if err != nil {
			return nil, err
		}
		if port != nil {
			ports = append(ports, *port)
		}
	}
	return ports, nil
}
