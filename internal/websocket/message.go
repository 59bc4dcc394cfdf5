package websocket

import (
	"time"

	"github.com/google/uuid"

	"github.com/askwhyharsh/deskfinder/internal/directions"
	"github.com/askwhyharsh/deskfinder/internal/directory"
	"github.com/askwhyharsh/deskfinder/internal/filter"
	"github.com/askwhyharsh/deskfinder/internal/location"
	"github.com/askwhyharsh/deskfinder/internal/render"
)

// Incoming
const (
	MessageTypeLocate     = "locate"
	MessageTypeSearch     = "search"
	MessageTypeFilter     = "filter"
	MessageTypeDirections = "directions"
	MessageTypePing       = "ping"
)

// Outgoing
const (
	MessageTypeRender = "render"
	MessageTypeAlert  = "alert"
	MessageTypeRoute  = "route"
	MessageTypePong   = "pong"
	MessageTypeError  = "error"
)

type Message struct {
	ID        string            `json:"id,omitempty"`
	Type      string            `json:"type"`
	Source    directory.Source  `json:"source,omitempty"`
	View      *render.View      `json:"view,omitempty"`
	Route     *directions.Route `json:"route,omitempty"`
	Content   string            `json:"content,omitempty"`
	ErrorCode string            `json:"code,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

type IncomingMessage struct {
	Type        string           `json:"type"`
	Report      *location.Report `json:"report,omitempty"`
	Query       string           `json:"query,omitempty"`
	Filter      filter.Criteria  `json:"filter"`
	Destination *location.Point  `json:"destination,omitempty"`
	// Origin is the client's fresh fix for directions, if it has one.
	Origin    *location.Point `json:"origin,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

func NewRenderMessage(result *directory.Result) *Message {
	view := result.View
	return &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeRender,
		Source:    result.Source,
		View:      &view,
		Timestamp: time.Now().Unix(),
	}
}

func NewAlertMessage(text string) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeAlert,
		Content:   text,
		Timestamp: time.Now().Unix(),
	}
}

func NewRouteMessage(route *directions.Route) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeRoute,
		Route:     route,
		Timestamp: time.Now().Unix(),
	}
}

func NewPongMessage() *Message {
	return &Message{
		Type:      MessageTypePong,
		Timestamp: time.Now().Unix(),
	}
}

func NewErrorMessage(errMsg, code string) *Message {
	return &Message{
		Type:      MessageTypeError,
		Content:   errMsg,
		ErrorCode: code,
		Timestamp: time.Now().Unix(),
	}
}
