package tracker

import "fmt"

// NoticeKind classifies a non-fatal problem reported to the user.
type NoticeKind string

const (
	// NoticeInit means settings could not be read or created; an in-memory
	// default is in use.
	NoticeInit NoticeKind = "init"
	// NoticePersist means a write failed; local state was kept and is
	// written again on the next mutation.
	NoticePersist NoticeKind = "persist"
	// NoticeSync means reading or subscribing to the viewed week failed.
	NoticeSync NoticeKind = "sync"
)

// Notice is a dismissible, user-visible report of a store failure.
type Notice struct {
	Kind    NoticeKind
	Message string
	Err     error
}

func (n Notice) String() string {
	if n.Err == nil {
		return n.Message
	}
	return fmt.Sprintf("%s: %v", n.Message, n.Err)
}

// NoticeFunc receives notices. It may be called from any goroutine.
type NoticeFunc func(Notice)
