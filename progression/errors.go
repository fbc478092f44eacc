package progression

import "errors"

var (
	ErrInvalidSession      = errors.New("invalid session input")
	ErrQuestNotFound       = errors.New("quest not found")
	ErrQuestNotCompleted   = errors.New("quest not completed")
	ErrQuestAlreadyClaimed = errors.New("quest already claimed")
	ErrUsernameTaken       = errors.New("username already set")
	ErrUnknownIntensity    = errors.New("unknown intensity")
)
