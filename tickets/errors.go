package tickets

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"
)

var (
	ErrPermissionDenied     = errors.New("permission denied")
	ErrAlreadyClosing       = errors.New("ticket is already being closed")
	ErrChannelGone          = errors.New("ticket channel no longer exists")
	ErrConfirmationNotFound = errors.New("confirmation not found or expired")
	ErrAlreadyResolved      = errors.New("confirmation already resolved")
	ErrInvalidTransition    = errors.New("invalid confirmation transition")
)

// PlatformError is a failed call to the chat platform.
type PlatformError struct {
	Op  string
	Err error
}

func (e *PlatformError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

// Platform wraps err as a PlatformError for op. A nil err stays nil.
func Platform(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PlatformError{Op: op, Err: err}
}

// IsUnknownChannel reports whether err is the platform saying the channel
// does not exist. Rate limits, 5xx and transport errors are not.
func IsUnknownChannel(err error) bool {
	var rerr *discordgo.RESTError
	if !errors.As(err, &rerr) {
		return false
	}
	if rerr.Message != nil && rerr.Message.Code == discordgo.ErrCodeUnknownChannel {
		return true
	}
	return rerr.Response != nil && rerr.Response.StatusCode == http.StatusNotFound
}
