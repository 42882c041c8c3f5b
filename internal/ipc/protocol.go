// Package ipc implements the local request/response protocol between the
// clipboard-ai client and its daemon: one JSON request and one JSON
// response per Unix socket connection.
package ipc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Rrens/clipboard-ai/internal/domain"
)

// Actions understood by the daemon
const (
	ActionSend   = "send"
	ActionNew    = "new"
	ActionStatus = "status"
	ActionPing   = "ping"
)

// Response statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// PongMessage answers a ping
const PongMessage = "pong"

// Request is one of SendRequest, NewRequest, StatusRequest or PingRequest
type Request interface {
	Action() string
	isRequest()
}

// SendRequest carries clipboard content to the conversation
type SendRequest struct {
	Content string
}

// NewRequest forces the current conversation to be archived
type NewRequest struct{}

// StatusRequest asks for the conversation summary
type StatusRequest struct{}

// PingRequest checks daemon liveness
type PingRequest struct{}

func (SendRequest) Action() string   { return ActionSend }
func (NewRequest) Action() string    { return ActionNew }
func (StatusRequest) Action() string { return ActionStatus }
func (PingRequest) Action() string   { return ActionPing }

func (SendRequest) isRequest()   {}
func (NewRequest) isRequest()    {}
func (StatusRequest) isRequest() {}
func (PingRequest) isRequest()   {}

// wireRequest is the JSON form of a Request
type wireRequest struct {
	Action  string `json:"action"`
	Content string `json:"content,omitempty"`
}

// Response is the JSON answer to every request
type Response struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Data    *domain.Status `json:"data,omitempty"`
}

// OK reports whether the response is a success
func (r *Response) OK() bool {
	return r.Status == StatusSuccess
}

// MessageResponse is a success carrying text
func MessageResponse(msg string) Response {
	return Response{Status: StatusSuccess, Message: msg}
}

// DataResponse is a success carrying a status summary
func DataResponse(status *domain.Status) Response {
	return Response{Status: StatusSuccess, Data: status}
}

// ErrorResponse turns err into plain text for the client
func ErrorResponse(err error) Response {
	return Response{Status: StatusError, Message: err.Error()}
}

// ProtocolError is a request the daemon could not understand
type ProtocolError struct {
	Msg string
	Err error
}

func (e *ProtocolError) Error() string {
	return e.Msg
}

func (e *ProtocolError) Unwrap() error {
	return e.Err
}

// ReadRequest decodes one request from r
func ReadRequest(r io.Reader) (Request, error) {
	var wire wireRequest
	if err := json.NewDecoder(r).Decode(&wire); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ProtocolError{Msg: "Empty request", Err: err}
		}
		return nil, &ProtocolError{Msg: "Invalid JSON", Err: err}
	}
	return wire.toRequest()
}

func (w wireRequest) toRequest() (Request, error) {
	switch w.Action {
	case ActionSend:
		if strings.TrimSpace(w.Content) == "" {
			return nil, &ProtocolError{Msg: "missing content"}
		}
		return SendRequest{Content: w.Content}, nil
	case ActionNew:
		return NewRequest{}, nil
	case ActionStatus:
		return StatusRequest{}, nil
	case ActionPing:
		return PingRequest{}, nil
	default:
		return nil, &ProtocolError{Msg: fmt.Sprintf("Unknown action: %q", w.Action)}
	}
}

// WriteRequest encodes req onto w
func WriteRequest(w io.Writer, req Request) error {
	wire := wireRequest{Action: req.Action()}
	if send, ok := req.(SendRequest); ok {
		wire.Content = send.Content
	}
	return json.NewEncoder(w).Encode(wire)
}
