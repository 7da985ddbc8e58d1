package rpc

import (
	"time"

	"github.com/matheus3301/chatadmin/internal/identity"
)

type documentMsg struct {
	ID   string         `json:"id"`
	Data map[string]any `json:"data"`
}

type listRequest struct {
	Collection string `json:"collection"`
	OrderBy    string `json:"orderBy,omitempty"`
	Descending bool   `json:"descending,omitempty"`
}

type listResponse struct {
	Documents []documentMsg `json:"documents"`
}

type keyRequest struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
}

type insertRequest struct {
	Collection string         `json:"collection"`
	Data       map[string]any `json:"data"`
}

type insertResponse struct {
	ID string `json:"id"`
}

type updateRequest struct {
	Collection string         `json:"collection"`
	ID         string         `json:"id"`
	Fields     map[string]any `json:"fields"`
}

type appendRequest struct {
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Field      string `json:"field"`
	Values     []any  `json:"values"`
}

type appendResponse struct {
	Values []any `json:"values"`
}

type countRequest struct {
	Collection string `json:"collection"`
}

type countResponse struct {
	Count int `json:"count"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signInResponse struct {
	Token     string              `json:"token"`
	Principal *identity.Principal `json:"principal"`
}

type addOperatorRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName,omitempty"`
}

type principalMsg struct {
	Principal *identity.Principal `json:"principal"`
}

// StatusInfo describes a running daemon.
type StatusInfo struct {
	Profile   string        `json:"profile"`
	Driver    string        `json:"driver"`
	PID       int           `json:"pid"`
	Uptime    time.Duration `json:"uptimeNs"`
	Operators int           `json:"operators"`
	Users     int           `json:"users"`
	Chats     int           `json:"chats"`
}
