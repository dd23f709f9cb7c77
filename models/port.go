package models

// Port represents one port entry parsed from an Nmap greppable host line
type Port struct {
	Number   int    `json:"number"`   // Port number (e.g., 80)
	State    string `json:"state"`    // State (e.g., "open")
	Protocol string `json:"protocol"` // Protocol (e.g., "tcp")
	Service  string `json:"service"`  // Service name (e.g., "http"), may be empty
}
