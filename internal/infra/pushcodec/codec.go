// Package pushcodec encodes and decodes push channel frames.
//
// Every frame is a JSON envelope {"event": <name>, "data": <payload>} where
// the event name is a domain.PushKind.
package pushcodec

import (
	"fmt"
	"time"

	"github.com/bytedance/sonic"

	"github.com/runoshun/boardsync/internal/domain"
)

// envelope is the frame wrapper shared by all events.
type envelope struct {
	Event string                 `json:"event"`
	Data  sonic.NoCopyRawMessage `json:"data,omitempty"`
}

// commentPayload is the commentAdded body.
// Fields are ordered to minimize memory padding.
type commentPayload struct {
	CreatedAt time.Time       `json:"createdAt"`
	User      *domain.UserRef `json:"user,omitempty"`
	ID        string          `json:"_id,omitempty"`
	Task      string          `json:"task"`
	Text      string          `json:"text"`
}

type editingPayload struct {
	TaskID string `json:"taskId"`
	UserID string `json:"userId,omitempty"`
}

// Decode parses one frame.
// Unknown event names yield domain.ErrUnknownPushEvent so callers can skip them.
func Decode(frame []byte) (domain.PushEvent, error) {
	var env envelope
	if err := sonic.Unmarshal(frame, &env); err != nil {
		return domain.PushEvent{}, fmt.Errorf("%w: %v", domain.ErrInvalidPushFormat, err)
	}

	ev := domain.PushEvent{Kind: domain.PushKind(env.Event)}
	switch ev.Kind {
	case domain.PushOnlineUsers:
		var users []domain.PresenceEntry
		if err := unmarshalData(env.Data, &users); err != nil {
			return domain.PushEvent{}, err
		}
		ev.Presence = users

	case domain.PushUserOnline:
		var user domain.PresenceEntry
		if err := unmarshalData(env.Data, &user); err != nil {
			return domain.PushEvent{}, err
		}
		ev.Presence = []domain.PresenceEntry{user}

	case domain.PushCommentAdded:
		var p commentPayload
		if err := unmarshalData(env.Data, &p); err != nil {
			return domain.PushEvent{}, err
		}
		ev.TaskID = p.Task
		ev.Comment = &domain.Comment{
			CreatedAt: p.CreatedAt,
			Author:    p.User,
			ID:        p.ID,
			TaskID:    p.Task,
			Text:      p.Text,
		}

	case domain.PushActivityLogged:
		// Notification only; any payload is ignored.

	case domain.PushEditingStarted, domain.PushEditingFinished:
		var p editingPayload
		if err := unmarshalData(env.Data, &p); err != nil {
			return domain.PushEvent{}, err
		}
		ev.TaskID = p.TaskID
		ev.UserID = p.UserID

	default:
		return domain.PushEvent{}, fmt.Errorf("%w: %q", domain.ErrUnknownPushEvent, env.Event)
	}
	return ev, nil
}

// Encode builds the frame for ev.
func Encode(ev domain.PushEvent) ([]byte, error) {
	var data any
	switch ev.Kind {
	case domain.PushUserOnline:
		if len(ev.Presence) != 1 {
			return nil, fmt.Errorf("%w: user-online carries exactly one entry", domain.ErrInvalidPushFormat)
		}
		data = ev.Presence[0]
	case domain.PushOnlineUsers:
		users := ev.Presence
		if users == nil {
			users = []domain.PresenceEntry{}
		}
		data = users
	case domain.PushCommentAdded:
		if ev.Comment == nil {
			return nil, fmt.Errorf("%w: commentAdded without comment", domain.ErrInvalidPushFormat)
		}
		taskID := ev.TaskID
		if taskID == "" {
			taskID = ev.Comment.TaskID
		}
		data = commentPayload{
			CreatedAt: ev.Comment.CreatedAt,
			User:      ev.Comment.Author,
			ID:        ev.Comment.ID,
			Task:      taskID,
			Text:      ev.Comment.Text,
		}
	case domain.PushActivityLogged:
	case domain.PushEditingStarted, domain.PushEditingFinished:
		data = editingPayload{TaskID: ev.TaskID, UserID: ev.UserID}
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownPushEvent, ev.Kind)
	}

	env := envelope{Event: string(ev.Kind)}
	if data != nil {
		raw, err := sonic.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", ev.Kind, err)
		}
		env.Data = raw
	}
	frame, err := sonic.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", ev.Kind, err)
	}
	return frame, nil
}

func unmarshalData(data sonic.NoCopyRawMessage, v any) error {
	if len(data) == 0 {
		return fmt.Errorf("%w: missing data", domain.ErrInvalidPushFormat)
	}
	if err := sonic.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidPushFormat, err)
	}
	return nil
}
