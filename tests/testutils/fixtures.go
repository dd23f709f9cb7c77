package testutils

import "gnmapgrep/models"

func CreateTestMatches() []models.Match {
	return []models.Match{
		{Host: "10.0.0.5", Port: 80, Protocol: "tcp", State: "open", Service: "http"},
		{Host: "10.0.0.5", Port: 443, Protocol: "tcp", State: "open", Service: "https"},
		{Host: "10.0.0.6", Port: 22, Protocol: "tcp", State: "open", Service: "ssh"},
	}
}
