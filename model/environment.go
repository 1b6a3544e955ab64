package model

// Environment holds the credentials of one SFMC business unit.
// ClientID/ClientSecret belong to an installed package with server-to-server
// API integration; MID is the business unit account id.
type Environment struct {
	Name         string `json:"name" yaml:"name"`
	Subdomain    string `json:"subdomain" yaml:"subdomain"`
	ClientID     string `json:"client_id" yaml:"client_id"`
	ClientSecret string `json:"client_secret,omitempty" yaml:"client_secret"`
	MID          string `json:"mid" yaml:"mid"`
}

// Redacted returns a copy safe for listing responses.
func (e Environment) Redacted() Environment {
	e.ClientSecret = ""
	return e
}
