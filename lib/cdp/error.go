package cdp

import (
	"fmt"
)

// Error of the Response
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// Error stdlib interface
func (e *Error) Error() string {
	if e.Data == "" {
		return fmt.Sprintf("{%d %s}", e.Code, e.Message)
	}
	return fmt.Sprintf("{%d %s %s}", e.Code, e.Message, e.Data)
}

// Is stdlib interface
func (e Error) Is(target error) bool {
	err, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == err.Code && e.Message == err.Message
}

// ErrCtxNotFound type
var ErrCtxNotFound = &Error{
	Code:    -32000,
	Message: "Cannot find context with specified id",
}

// ErrCtxDestroyed type
var ErrCtxDestroyed = &Error{
	Code:    -32000,
	Message: "Execution context was destroyed.",
}

// ErrObjNotFound type
var ErrObjNotFound = &Error{
	Code:    -32000,
	Message: "Could not find object with given id",
}

// ErrNodeNotFound type
var ErrNodeNotFound = &Error{
	Code:    -32000,
	Message: "Could not find node with given id",
}

func (req Request) String() string {
	return fmt.Sprintf("=> #%d %s %s", req.ID, sessionLabel(req.SessionID), req.Method)
}

func (res *Response) String() string {
	if res.Error != nil {
		return fmt.Sprintf("<= #%d error %v", res.ID, res.Error)
	}
	return fmt.Sprintf("<= #%d %d bytes", res.ID, len(res.Result))
}

func (evt *Event) String() string {
	return fmt.Sprintf("<- %s %s", sessionLabel(evt.SessionID), evt.Method)
}

func sessionLabel(id string) string {
	if id == "" {
		return "@browser"
	}
	if len(id) > 8 {
		id = id[:8]
	}
	return "@" + id
}
