package domain

// PushKind names a logical push channel event.
type PushKind string

// Push event kinds. The values are the event names on the wire.
const (
	PushUserOnline      PushKind = "user-online"       // outbound: {userId, email}
	PushOnlineUsers     PushKind = "online-users"      // inbound: full presence snapshot
	PushCommentAdded    PushKind = "commentAdded"      // inbound: a comment created by anyone
	PushActivityLogged  PushKind = "activity-logged"   // inbound: notification only
	PushEditingStarted  PushKind = "editing-tasks"     // inbound: {taskId, userId}
	PushEditingFinished PushKind = "stop-editing-task" // inbound: {taskId}
)

// PushEvent is a decoded push channel event. Which fields are set depends on Kind.
// Fields are ordered to minimize memory padding.
type PushEvent struct {
	Comment  *Comment        // PushCommentAdded
	Kind     PushKind        // Event kind
	TaskID   string          // PushCommentAdded, PushEditingStarted, PushEditingFinished
	UserID   string          // PushEditingStarted
	Presence []PresenceEntry // PushOnlineUsers (all entries) and PushUserOnline (one entry)
}
