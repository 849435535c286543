package debug

import (
	"context"
	"errors"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/client"
	"github.com/igtmtakan/pyspiderNx-sub000/internal/db/types"
)

var (
	ErrSessionNotFound      = errors.New("debug session not found")
	ErrDebugProjectNotFound = errors.New("debug project not found")
	ErrSessionStopped       = errors.New("debug session is stopped")
)

type StartSessionParams struct {
	DebugProjectID *string          `json:"debugProjectId,omitempty"`
	Type           client.DebugType `json:"type,omitempty"`
	Metadata       types.JSON       `json:"metadata,omitempty"`
}

type RequestParams struct {
	URL     string     `json:"url"`
	Method  string     `json:"method"`
	Headers types.JSON `json:"headers,omitempty"`
	Body    *string    `json:"body,omitempty"`
}

type ResponseParams struct {
	StatusCode int64      `json:"statusCode"`
	Headers    types.JSON `json:"headers,omitempty"`
	Body       *string    `json:"body,omitempty"`
}

// ExchangeParams is one captured HTTP round trip. Response is nil when the
// request never got an answer.
type ExchangeParams struct {
	Request  RequestParams   `json:"request"`
	Response *ResponseParams `json:"response,omitempty"`
}

type StatusCodeCount struct {
	StatusCode int64 `json:"statusCode"`
	Count      int64 `json:"count"`
}

type SessionSummary struct {
	SessionID   string             `json:"sessionId"`
	Status      client.DebugStatus `json:"status"`
	Requests    int64              `json:"requests"`
	Responses   int64              `json:"responses"`
	Unanswered  int64              `json:"unanswered"`
	StatusCodes []StatusCodeCount  `json:"statusCodes"`
}

type Service interface {
	StartSession(ctx context.Context, params StartSessionParams) (*client.DebugSession, error)
	SetStatus(ctx context.Context, sessionID string, status client.DebugStatus) (*client.DebugSession, error)
	RecordExchange(ctx context.Context, sessionID string, params ExchangeParams) (*client.Request, error)
	SaveScript(ctx context.Context, debugProjectID string, script string) (*client.DebugProject, error)
	SessionSummary(ctx context.Context, sessionID string) (*SessionSummary, error)
}
