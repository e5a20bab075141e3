// Package obsws is a minimal OBS WebSocket v5 request client.
package obsws

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// Protocol opcodes
const (
	OpHello           = 0
	OpIdentify        = 1
	OpIdentified      = 2
	OpEvent           = 5
	OpRequest         = 6
	OpRequestResponse = 7
)

// RPCVersion is the only protocol revision this client speaks.
const RPCVersion = 1

// Subprotocol selects JSON framing.
const Subprotocol = "obswebsocket.json"

// Request types used by the monitor
const (
	ReqGetVersion             = "GetVersion"
	ReqGetSourceFilter        = "GetSourceFilter"
	ReqSetSourceFilterEnabled = "SetSourceFilterEnabled"
	ReqGetSceneItemID         = "GetSceneItemId"
	ReqGetSceneItemEnabled    = "GetSceneItemEnabled"
	ReqSetSceneItemEnabled    = "SetSceneItemEnabled"
)

// CloseAuthenticationFailed is the close code OBS sends for a bad password.
const CloseAuthenticationFailed = 4009

// StatusSuccess is the requestStatus.code OBS reports on success.
const StatusSuccess = 100

// Message is the envelope of every frame.
type Message struct {
	Op int             `json:"op"`
	D  json.RawMessage `json:"d"`
}

// Hello is sent by the server on connect.
type Hello struct {
	OBSWebSocketVersion string          `json:"obsWebSocketVersion"`
	RPCVersion          int             `json:"rpcVersion"`
	Authentication      *Authentication `json:"authentication,omitempty"`
}

// Authentication carries the challenge when the server has a password set.
type Authentication struct {
	Challenge string `json:"challenge"`
	Salt      string `json:"salt"`
}

// Identify answers Hello.
type Identify struct {
	RPCVersion         int    `json:"rpcVersion"`
	Authentication     string `json:"authentication,omitempty"`
	EventSubscriptions int    `json:"eventSubscriptions"`
}

// Identified confirms the session.
type Identified struct {
	NegotiatedRPCVersion int `json:"negotiatedRpcVersion"`
}

// Request is an op 6 payload.
type Request struct {
	RequestType string `json:"requestType"`
	RequestID   string `json:"requestId"`
	RequestData any    `json:"requestData,omitempty"`
}

// RequestStatus reports the outcome of a request.
type RequestStatus struct {
	Result  bool   `json:"result"`
	Code    int    `json:"code"`
	Comment string `json:"comment,omitempty"`
}

// RequestResponse is an op 7 payload.
type RequestResponse struct {
	RequestType   string          `json:"requestType"`
	RequestID     string          `json:"requestId"`
	RequestStatus RequestStatus   `json:"requestStatus"`
	ResponseData  json.RawMessage `json:"responseData,omitempty"`
}

// Version is the GetVersion response subset the monitor logs.
type Version struct {
	OBSVersion          string `json:"obsVersion"`
	OBSWebSocketVersion string `json:"obsWebSocketVersion"`
	RPCVersion          int    `json:"rpcVersion"`
	Platform            string `json:"platform"`
	PlatformDescription string `json:"platformDescription"`
}

// RequestError is returned when OBS answers with requestStatus.result == false.
type RequestError struct {
	RequestType string
	Code        int
	Comment     string
}

func (e *RequestError) Error() string {
	if e.Comment != "" {
		return fmt.Sprintf("obs %s failed (code %d): %s", e.RequestType, e.Code, e.Comment)
	}
	return fmt.Sprintf("obs %s failed (code %d)", e.RequestType, e.Code)
}

// AuthString computes the Identify authentication value:
// base64(sha256(base64(sha256(password+salt)) + challenge)).
func AuthString(password, salt, challenge string) string {
	secret := sha256.Sum256([]byte(password + salt))
	secretB64 := base64.StdEncoding.EncodeToString(secret[:])
	auth := sha256.Sum256([]byte(secretB64 + challenge))
	return base64.StdEncoding.EncodeToString(auth[:])
}

// Encode wraps a payload in an envelope.
func Encode(op int, d any) (Message, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return Message{}, err
	}
	return Message{Op: op, D: raw}, nil
}
