package debug

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/igtmtakan/pyspiderNx-sub000/internal/client"
	"github.com/igtmtakan/pyspiderNx-sub000/pkg/config"
)

type debugService struct {
	config config.Config
	logger *zap.Logger
	client *client.Client
}

func NewDebugService(cfg config.Config, logger *zap.Logger, c *client.Client) Service {
	return &debugService{
		config: cfg,
		logger: logger,
		client: c,
	}
}

func (s *debugService) StartSession(ctx context.Context, params StartSessionParams) (*client.DebugSession, error) {
	session, err := s.client.DebugSession.Create(ctx, client.DebugSessionCreateArgs{Data: client.DebugSessionCreateInput{
		Type:           params.Type,
		DebugProjectID: params.DebugProjectID,
		Metadata:       params.Metadata,
	}})
	if err != nil {
		if errors.Is(err, client.ErrForeignKeyConstraint) {
			return nil, ErrDebugProjectNotFound
		}
		return nil, err
	}
	s.logger.Info("debug session started", zap.String("session_id", session.ID), zap.String("type", string(session.Type)))
	return session, nil
}

// SetStatus moves a session between RUNNING and PAUSED or stops it.
// Stopping stamps EndedAt and is final.
func (s *debugService) SetStatus(ctx context.Context, sessionID string, status client.DebugStatus) (*client.DebugSession, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown debug status %q", client.ErrValidation, status)
	}
	var updated *client.DebugSession
	err := s.client.Transaction(ctx, func(tx *client.Client) error {
		session, err := s.loadSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if session.Status == status {
			updated = session
			return nil
		}
		if session.Status == client.DebugStatusStopped {
			return ErrSessionStopped
		}
		data := client.DebugSessionUpdateInput{Status: &status}
		if status == client.DebugStatusStopped {
			data.EndedAt = client.SetValue(time.Now())
		}
		updated, err = tx.DebugSession.Update(ctx, client.DebugSessionUpdateArgs{
			Where: client.DebugSessionWhereUniqueInput{ID: &sessionID},
			Data:  data,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// RecordExchange stores a request and its response together.
func (s *debugService) RecordExchange(ctx context.Context, sessionID string, params ExchangeParams) (*client.Request, error) {
	var recorded *client.Request
	err := s.client.Transaction(ctx, func(tx *client.Client) error {
		session, err := s.loadSession(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if session.Status == client.DebugStatusStopped {
			return ErrSessionStopped
		}
		recorded, err = tx.Request.Create(ctx, client.RequestCreateArgs{Data: client.RequestCreateInput{
			SessionID: sessionID,
			URL:       params.Request.URL,
			Method:    params.Request.Method,
			Headers:   params.Request.Headers,
			Body:      params.Request.Body,
		}})
		if err != nil {
			return err
		}
		if params.Response == nil {
			return nil
		}
		recorded.Response, err = tx.Response.Create(ctx, client.ResponseCreateArgs{Data: client.ResponseCreateInput{
			RequestID:  recorded.ID,
			SessionID:  sessionID,
			StatusCode: params.Response.StatusCode,
			Headers:    params.Response.Headers,
			Body:       params.Response.Body,
		}})
		return err
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

// SaveScript replaces the project's script and appends the new version to
// its history. Saving an unchanged script writes nothing.
func (s *debugService) SaveScript(ctx context.Context, debugProjectID string, script string) (*client.DebugProject, error) {
	var saved *client.DebugProject
	err := s.client.Transaction(ctx, func(tx *client.Client) error {
		current, err := tx.DebugProject.FindUnique(ctx, client.DebugProjectFindUniqueArgs{
			Where: client.DebugProjectWhereUniqueInput{ID: &debugProjectID},
		})
		if err != nil {
			return fmt.Errorf("failed to load debug project: %w", err)
		}
		if current == nil {
			return ErrDebugProjectNotFound
		}
		if current.Script == nil || *current.Script != script {
			if _, err := tx.DebugProject.Update(ctx, client.DebugProjectUpdateArgs{
				Where: client.DebugProjectWhereUniqueInput{ID: &debugProjectID},
				Data:  client.DebugProjectUpdateInput{Script: client.SetValue(script)},
			}); err != nil {
				return err
			}
			// v7 ids sort by creation time, ordering saves within one timestamp tick.
			id, err := uuid.NewV7()
			if err != nil {
				return fmt.Errorf("failed to generate history id: %w", err)
			}
			if _, err := tx.ScriptHistory.Create(ctx, client.ScriptHistoryCreateArgs{Data: client.ScriptHistoryCreateInput{
				ID:             id.String(),
				DebugProjectID: debugProjectID,
				Content:        script,
			}}); err != nil {
				return err
			}
		}
		saved, err = tx.DebugProject.FindUniqueOrThrow(ctx, client.DebugProjectFindUniqueArgs{
			Where: client.DebugProjectWhereUniqueInput{ID: &debugProjectID},
			Include: &client.DebugProjectInclude{ScriptHistory: &client.ScriptHistoryFindManyArgs{
				OrderBy: client.Orderings[client.ScriptHistoryField]{
					{Field: client.ScriptHistoryFieldCreatedAt, Direction: client.Desc},
					{Field: client.ScriptHistoryFieldID, Direction: client.Desc},
				},
			}},
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (s *debugService) SessionSummary(ctx context.Context, sessionID string) (*SessionSummary, error) {
	session, err := s.loadSession(ctx, s.client, sessionID)
	if err != nil {
		return nil, err
	}
	inSession := &client.StringFilter{Equals: &sessionID}

	summary := &SessionSummary{SessionID: session.ID, Status: session.Status, StatusCodes: []StatusCodeCount{}}
	summary.Requests, err = s.client.Request.Count(ctx, client.RequestCountArgs{
		Where: &client.RequestWhereInput{SessionID: inSession},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count requests: %w", err)
	}
	summary.Unanswered, err = s.client.Request.Count(ctx, client.RequestCountArgs{
		Where: &client.RequestWhereInput{
			SessionID: inSession,
			Response:  &client.RelationFilter[client.ResponseWhereInput]{IsNot: &client.ResponseWhereInput{}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to count unanswered requests: %w", err)
	}

	groups, err := s.client.Response.GroupBy(ctx, client.ResponseGroupByArgs{
		By:       []client.ResponseField{client.ResponseFieldStatusCode},
		Where:    &client.ResponseWhereInput{SessionID: inSession},
		CountAll: true,
		OrderBy:  []client.GroupOrderBy[client.ResponseField]{{Field: client.ResponseFieldStatusCode}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to group responses: %w", err)
	}
	for _, g := range groups {
		code, _ := g.Key["statusCode"].(int64)
		n := g.Count["_all"]
		summary.Responses += n
		summary.StatusCodes = append(summary.StatusCodes, StatusCodeCount{StatusCode: code, Count: n})
	}
	return summary, nil
}

func (s *debugService) loadSession(ctx context.Context, c *client.Client, sessionID string) (*client.DebugSession, error) {
	session, err := c.DebugSession.FindUnique(ctx, client.DebugSessionFindUniqueArgs{
		Where: client.DebugSessionWhereUniqueInput{ID: &sessionID},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load debug session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
