package models

import "encoding/json"

// Envelope is the common response wrapper of the RadarGame API.
// Result stays raw until the caller knows the concrete payload type.
type Envelope struct {
	IsSuccess bool            `json:"isSuccess"`
	Result    json.RawMessage `json:"result"`
}

// LoginResult is the payload of POST /auth/login.
type LoginResult struct {
	AccessToken string `json:"accessToken"`
}

// Server is one entry of GET /user/servers. LoadPercentage is a pointer
// because the API omits it for servers that do not report load; those sort
// after every reporting server.
type Server struct {
	ID             int64    `json:"id"`
	Location       string   `json:"location"`
	LoadPercentage *float64 `json:"loadPercentage"`
}

// AccountPayload is the peer-network account description returned by
// GET /user/account/getAccount. Numeric fields use json.Number so values
// survive round-tripping regardless of whether the API emits them as
// numbers or strings.
type AccountPayload struct {
	PrivateKey          string      `json:"privateKey"`
	Addresses           string      `json:"addresses"`
	MTU                 json.Number `json:"mtu"`
	EndpointPublicKey   string      `json:"endpointPublicKey"`
	PresharedKey        string      `json:"presharedKey"`
	Endpoint            string      `json:"endpoint"`
	AllowedIPs          string      `json:"allowedIPs"`
	PersistentKeepalive json.Number `json:"persistentKeepalive"`
}
