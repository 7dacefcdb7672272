package errors

import "fmt"

var (
	ErrNotAMember              = fmt.Errorf("sender is not a member of the conversation")
	ErrConversationUnavailable = fmt.Errorf("conversation does not exist or is dissolved")
	ErrPublishFailed           = fmt.Errorf("broker publish failed")
	ErrCounterStoreUnavailable = fmt.Errorf("counter store unavailable")
	ErrAuthFailed              = fmt.Errorf("authentication failed")
	ErrInvalidSendRequest      = fmt.Errorf("invalid send request")
	ErrConnectionClosed        = fmt.Errorf("connection closed")
	ErrWorkerPanic             = fmt.Errorf("worker panic")
)
