package client

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/db/types"
)

// Request is an HTTP request captured during a debug session.
type Request struct {
	ID        string          `json:"id"`
	SessionID string          `json:"sessionId"`
	URL       string          `json:"url"`
	Method    string          `json:"method"`
	Headers   types.JSON      `json:"headers"`
	Body      *string         `json:"body"`
	CreatedAt types.Timestamp `json:"createdAt"`

	Session  *DebugSession `json:"session,omitempty"`
	Response *Response     `json:"response,omitempty"`
}

type RequestField string

const (
	RequestFieldID        RequestField = "id"
	RequestFieldSessionID RequestField = "sessionId"
	RequestFieldURL       RequestField = "url"
	RequestFieldMethod    RequestField = "method"
	RequestFieldHeaders   RequestField = "headers"
	RequestFieldBody      RequestField = "body"
	RequestFieldCreatedAt RequestField = "createdAt"
)

var requestTable = &table[Request]{
	model: "Request",
	name:  "requests",
	fields: []field{
		{"id", "id", kindString},
		{"sessionId", "session_id", kindString},
		{"url", "url", kindString},
		{"method", "method", kindString},
		{"headers", "headers", kindJSON},
		{"body", "body", kindString},
		{"createdAt", "created_at", kindDateTime},
	},
	targets: func(m *Request) []any {
		return []any{&m.ID, &m.SessionID, &m.URL, &m.Method, &m.Headers, &m.Body, &m.CreatedAt}
	},
}

type RequestWhereInput struct {
	AND []RequestWhereInput `json:"AND,omitempty"`
	OR  []RequestWhereInput `json:"OR,omitempty"`
	NOT []RequestWhereInput `json:"NOT,omitempty"`

	ID        *StringFilter   `json:"id,omitempty"`
	SessionID *StringFilter   `json:"sessionId,omitempty"`
	URL       *StringFilter   `json:"url,omitempty"`
	Method    *StringFilter   `json:"method,omitempty"`
	Headers   *JSONFilter     `json:"headers,omitempty"`
	Body      *StringFilter   `json:"body,omitempty"`
	CreatedAt *DateTimeFilter `json:"createdAt,omitempty"`

	Session  *RelationFilter[DebugSessionWhereInput] `json:"session,omitempty"`
	Response *RelationFilter[ResponseWhereInput]     `json:"response,omitempty"`
}

func (w RequestWhereInput) build(s scope) (sq.Sqlizer, error) {
	c := newConds(s)
	c.field("id", w.ID)
	c.field("session_id", w.SessionID)
	c.field("url", w.URL)
	c.field("method", w.Method)
	c.field("headers", w.Headers)
	c.field("body", w.Body)
	c.field("created_at", w.CreatedAt)
	c.add(toOne(s, w.Session, "debug_sessions", "id", "session_id"))
	c.add(toOne(s, w.Response, "responses", "request_id", "id"))
	c.add(logical(s, w.AND, w.OR, w.NOT))
	return c.result()
}

type RequestWhereUniqueInput struct {
	ID *string `json:"id,omitempty"`
}

func (u RequestWhereUniqueInput) build(s scope) (sq.Sqlizer, error) {
	return unique(s, "Request", map[string]*string{"id": u.ID})
}

type RequestCreateInput struct {
	ID        string     `json:"id,omitempty"`
	SessionID string     `json:"sessionId"`
	URL       string     `json:"url"`
	Method    string     `json:"method"`
	Headers   types.JSON `json:"headers,omitempty"`
	Body      *string    `json:"body,omitempty"`
}

func (in RequestCreateInput) toModel(now types.Timestamp) (*Request, error) {
	if err := required("Request.sessionId", in.SessionID); err != nil {
		return nil, err
	}
	if err := required("Request.url", in.URL); err != nil {
		return nil, err
	}
	if err := required("Request.method", in.Method); err != nil {
		return nil, err
	}
	if err := checkJSON("Request.headers", in.Headers); err != nil {
		return nil, err
	}
	return &Request{
		ID:        newID(in.ID),
		SessionID: in.SessionID,
		URL:       in.URL,
		Method:    in.Method,
		Headers:   in.Headers,
		Body:      in.Body,
		CreatedAt: now,
	}, nil
}

type RequestUpdateInput struct {
	SessionID *string              `json:"sessionId,omitempty"`
	URL       *string              `json:"url,omitempty"`
	Method    *string              `json:"method,omitempty"`
	Headers   Nullable[types.JSON] `json:"headers,omitzero"`
	Body      Nullable[string]     `json:"body,omitzero"`
}

func (in RequestUpdateInput) assignments() (assignments, error) {
	if err := checkJSON("Request.headers", in.Headers.Value); err != nil {
		return nil, err
	}
	a := assignments{}
	setField(a, "session_id", in.SessionID)
	setField(a, "url", in.URL)
	setField(a, "method", in.Method)
	setNullable(a, "headers", in.Headers)
	setNullable(a, "body", in.Body)
	return a, nil
}

type RequestInclude struct {
	Session  *RelationArgs[DebugSessionInclude] `json:"session,omitempty"`
	Response *RelationArgs[ResponseInclude]     `json:"response,omitempty"`
}

func (inc RequestInclude) load(ctx context.Context, r *runner, parents []*Request) error {
	if inc.Session != nil {
		fk := func(q *Request) string { return q.SessionID }
		rows, keys, err := newDebugSessionDelegate(r).related(ctx, r, "id", keysOf(parents, fk), DebugSessionFindManyArgs{Include: inc.Session.Include})
		if err != nil {
			return err
		}
		attachOne(parents, rows, keys, fk, func(q *Request, s *DebugSession) { q.Session = s })
	}
	if inc.Response != nil {
		id := func(q *Request) string { return q.ID }
		rows, keys, err := newResponseDelegate(r).related(ctx, r, "request_id", keysOf(parents, id), ResponseFindManyArgs{Include: inc.Response.Include})
		if err != nil {
			return err
		}
		attachOne(parents, rows, keys, id, func(q *Request, s *Response) { q.Response = s })
	}
	return nil
}

type (
	RequestDelegate       = Delegate[Request, RequestWhereInput, RequestWhereUniqueInput, RequestField, RequestInclude, RequestCreateInput, RequestUpdateInput]
	RequestFindManyArgs   = FindManyArgs[RequestWhereInput, RequestWhereUniqueInput, RequestField, RequestInclude]
	RequestFindUniqueArgs = FindUniqueArgs[RequestWhereUniqueInput, RequestField, RequestInclude]
	RequestCreateArgs     = CreateArgs[RequestCreateInput, RequestField, RequestInclude]
	RequestCreateManyArgs = CreateManyArgs[RequestCreateInput, RequestField]
	RequestUpdateArgs     = UpdateArgs[RequestWhereUniqueInput, RequestUpdateInput, RequestField, RequestInclude]
	RequestUpdateManyArgs = UpdateManyArgs[RequestWhereInput, RequestUpdateInput, RequestField]
	RequestUpsertArgs     = UpsertArgs[RequestWhereUniqueInput, RequestCreateInput, RequestUpdateInput, RequestField, RequestInclude]
	RequestDeleteArgs     = DeleteArgs[RequestWhereUniqueInput, RequestField, RequestInclude]
	RequestDeleteManyArgs = DeleteManyArgs[RequestWhereInput]
	RequestCountArgs      = CountArgs[RequestWhereInput, RequestField]
	RequestAggregateArgs  = AggregateArgs[RequestWhereInput, RequestField]
	RequestGroupByArgs    = GroupByArgs[RequestWhereInput, RequestField]
	RequestOrderBy        = OrderBy[RequestField]
)

func newRequestDelegate(r *runner) *RequestDelegate {
	return &RequestDelegate{t: requestTable, r: r}
}
