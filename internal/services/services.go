// package services defines the [Store] interface for the remote booking sheet
package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/desertthunder/setlist/internal/models"
	"github.com/desertthunder/setlist/internal/shared"
)

// Store is the remote booking sheet: one read of every row, one write per command.
type Store interface {
	// FetchAll returns every row in the sheet.
	FetchAll(ctx context.Context) ([]models.RawBooking, error)

	// Send posts a command. A well-formed non-success result is returned together with an error wrapping [shared.ErrCommandRejected].
	Send(ctx context.Context, cmd models.Command) (*models.CommandResult, error)
}

// SheetService implements [Store] over an [APIService].
type SheetService struct {
	api *APIService
}

var _ Store = (*SheetService)(nil)

// NewSheetService creates a [SheetService] for the given endpoint client.
func NewSheetService(api *APIService) *SheetService {
	return &SheetService{api: api}
}

// FetchAll performs the GET and decodes the JSON array of rows.
func (s *SheetService) FetchAll(ctx context.Context) ([]models.RawBooking, error) {
	resp, err := s.api.Get(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	var rows []models.RawBooking
	if err := json.Unmarshal(resp.Body, &rows); err != nil {
		return nil, fmt.Errorf("%w: failed to parse rows: %v", shared.ErrAPIRequest, err)
	}
	return rows, nil
}

// Send posts the JSON-encoded command and decodes the status object.
func (s *SheetService) Send(ctx context.Context, cmd models.Command) (*models.CommandResult, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s command: %w", cmd.Action, err)
	}

	resp, err := s.api.Post(ctx, "", body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: %s returned status %d", shared.ErrAPIRequest, cmd.Action, resp.StatusCode)
	}

	var result models.CommandResult
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("%w: failed to parse %s result: %v", shared.ErrAPIRequest, cmd.Action, err)
	}
	if !result.OK() {
		msg := result.Message
		if msg == "" {
			msg = fmt.Sprintf("status %q", result.Status)
		}
		return &result, fmt.Errorf("%w: %s: %s", shared.ErrCommandRejected, cmd.Action, msg)
	}
	return &result, nil
}
