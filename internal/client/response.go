package client

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/db/types"
)

// Response is the reply to a captured Request. Each request has at most one.
type Response struct {
	ID         string          `json:"id"`
	RequestID  string          `json:"requestId"`
	SessionID  string          `json:"sessionId"`
	StatusCode int64           `json:"statusCode"`
	Headers    types.JSON      `json:"headers"`
	Body       *string         `json:"body"`
	CreatedAt  types.Timestamp `json:"createdAt"`

	Request *Request      `json:"request,omitempty"`
	Session *DebugSession `json:"session,omitempty"`
}

type ResponseField string

const (
	ResponseFieldID         ResponseField = "id"
	ResponseFieldRequestID  ResponseField = "requestId"
	ResponseFieldSessionID  ResponseField = "sessionId"
	ResponseFieldStatusCode ResponseField = "statusCode"
	ResponseFieldHeaders    ResponseField = "headers"
	ResponseFieldBody       ResponseField = "body"
	ResponseFieldCreatedAt  ResponseField = "createdAt"
)

var responseTable = &table[Response]{
	model: "Response",
	name:  "responses",
	fields: []field{
		{"id", "id", kindString},
		{"requestId", "request_id", kindString},
		{"sessionId", "session_id", kindString},
		{"statusCode", "status_code", kindInt},
		{"headers", "headers", kindJSON},
		{"body", "body", kindString},
		{"createdAt", "created_at", kindDateTime},
	},
	targets: func(m *Response) []any {
		return []any{&m.ID, &m.RequestID, &m.SessionID, &m.StatusCode, &m.Headers, &m.Body, &m.CreatedAt}
	},
}

type ResponseWhereInput struct {
	AND []ResponseWhereInput `json:"AND,omitempty"`
	OR  []ResponseWhereInput `json:"OR,omitempty"`
	NOT []ResponseWhereInput `json:"NOT,omitempty"`

	ID         *StringFilter   `json:"id,omitempty"`
	RequestID  *StringFilter   `json:"requestId,omitempty"`
	SessionID  *StringFilter   `json:"sessionId,omitempty"`
	StatusCode *IntFilter      `json:"statusCode,omitempty"`
	Headers    *JSONFilter     `json:"headers,omitempty"`
	Body       *StringFilter   `json:"body,omitempty"`
	CreatedAt  *DateTimeFilter `json:"createdAt,omitempty"`

	Request *RelationFilter[RequestWhereInput]      `json:"request,omitempty"`
	Session *RelationFilter[DebugSessionWhereInput] `json:"session,omitempty"`
}

func (w ResponseWhereInput) build(s scope) (sq.Sqlizer, error) {
	c := newConds(s)
	c.field("id", w.ID)
	c.field("request_id", w.RequestID)
	c.field("session_id", w.SessionID)
	c.field("status_code", w.StatusCode)
	c.field("headers", w.Headers)
	c.field("body", w.Body)
	c.field("created_at", w.CreatedAt)
	c.add(toOne(s, w.Request, "requests", "id", "request_id"))
	c.add(toOne(s, w.Session, "debug_sessions", "id", "session_id"))
	c.add(logical(s, w.AND, w.OR, w.NOT))
	return c.result()
}

// ResponseWhereUniqueInput selects by id or by the owning request.
type ResponseWhereUniqueInput struct {
	ID        *string `json:"id,omitempty"`
	RequestID *string `json:"requestId,omitempty"`
}

func (u ResponseWhereUniqueInput) build(s scope) (sq.Sqlizer, error) {
	return unique(s, "Response", map[string]*string{"id": u.ID, "request_id": u.RequestID})
}

type ResponseCreateInput struct {
	ID         string     `json:"id,omitempty"`
	RequestID  string     `json:"requestId"`
	SessionID  string     `json:"sessionId"`
	StatusCode int64      `json:"statusCode"`
	Headers    types.JSON `json:"headers,omitempty"`
	Body       *string    `json:"body,omitempty"`
}

func (in ResponseCreateInput) toModel(now types.Timestamp) (*Response, error) {
	if err := required("Response.requestId", in.RequestID); err != nil {
		return nil, err
	}
	if err := required("Response.sessionId", in.SessionID); err != nil {
		return nil, err
	}
	if err := checkJSON("Response.headers", in.Headers); err != nil {
		return nil, err
	}
	return &Response{
		ID:         newID(in.ID),
		RequestID:  in.RequestID,
		SessionID:  in.SessionID,
		StatusCode: in.StatusCode,
		Headers:    in.Headers,
		Body:       in.Body,
		CreatedAt:  now,
	}, nil
}

type ResponseUpdateInput struct {
	RequestID  *string              `json:"requestId,omitempty"`
	SessionID  *string              `json:"sessionId,omitempty"`
	StatusCode *IntUpdate           `json:"statusCode,omitempty"`
	Headers    Nullable[types.JSON] `json:"headers,omitzero"`
	Body       Nullable[string]     `json:"body,omitzero"`
}

func (in ResponseUpdateInput) assignments() (assignments, error) {
	if err := checkJSON("Response.headers", in.Headers.Value); err != nil {
		return nil, err
	}
	a := assignments{}
	setField(a, "request_id", in.RequestID)
	setField(a, "session_id", in.SessionID)
	if err := setNumber(a, "status_code", in.StatusCode); err != nil {
		return nil, err
	}
	setNullable(a, "headers", in.Headers)
	setNullable(a, "body", in.Body)
	return a, nil
}

type ResponseInclude struct {
	Request *RelationArgs[RequestInclude]      `json:"request,omitempty"`
	Session *RelationArgs[DebugSessionInclude] `json:"session,omitempty"`
}

func (inc ResponseInclude) load(ctx context.Context, r *runner, parents []*Response) error {
	if inc.Request != nil {
		fk := func(p *Response) string { return p.RequestID }
		rows, keys, err := newRequestDelegate(r).related(ctx, r, "id", keysOf(parents, fk), RequestFindManyArgs{Include: inc.Request.Include})
		if err != nil {
			return err
		}
		attachOne(parents, rows, keys, fk, func(p *Response, q *Request) { p.Request = q })
	}
	if inc.Session != nil {
		fk := func(p *Response) string { return p.SessionID }
		rows, keys, err := newDebugSessionDelegate(r).related(ctx, r, "id", keysOf(parents, fk), DebugSessionFindManyArgs{Include: inc.Session.Include})
		if err != nil {
			return err
		}
		attachOne(parents, rows, keys, fk, func(p *Response, s *DebugSession) { p.Session = s })
	}
	return nil
}

type (
	ResponseDelegate       = Delegate[Response, ResponseWhereInput, ResponseWhereUniqueInput, ResponseField, ResponseInclude, ResponseCreateInput, ResponseUpdateInput]
	ResponseFindManyArgs   = FindManyArgs[ResponseWhereInput, ResponseWhereUniqueInput, ResponseField, ResponseInclude]
	ResponseFindUniqueArgs = FindUniqueArgs[ResponseWhereUniqueInput, ResponseField, ResponseInclude]
	ResponseCreateArgs     = CreateArgs[ResponseCreateInput, ResponseField, ResponseInclude]
	ResponseCreateManyArgs = CreateManyArgs[ResponseCreateInput, ResponseField]
	ResponseUpdateArgs     = UpdateArgs[ResponseWhereUniqueInput, ResponseUpdateInput, ResponseField, ResponseInclude]
	ResponseUpdateManyArgs = UpdateManyArgs[ResponseWhereInput, ResponseUpdateInput, ResponseField]
	ResponseUpsertArgs     = UpsertArgs[ResponseWhereUniqueInput, ResponseCreateInput, ResponseUpdateInput, ResponseField, ResponseInclude]
	ResponseDeleteArgs     = DeleteArgs[ResponseWhereUniqueInput, ResponseField, ResponseInclude]
	ResponseDeleteManyArgs = DeleteManyArgs[ResponseWhereInput]
	ResponseCountArgs      = CountArgs[ResponseWhereInput, ResponseField]
	ResponseAggregateArgs  = AggregateArgs[ResponseWhereInput, ResponseField]
	ResponseGroupByArgs    = GroupByArgs[ResponseWhereInput, ResponseField]
	ResponseOrderBy        = OrderBy[ResponseField]
)

func newResponseDelegate(r *runner) *ResponseDelegate {
	return &ResponseDelegate{t: responseTable, r: r}
}
