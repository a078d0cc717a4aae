package app

import "github.com/hylla/granska/internal/domain"

// FormCommand names one message of the host/form protocol.
type FormCommand string

const (
	CommandInitialData  FormCommand = "initialData"
	CommandSetReadOnly  FormCommand = "setReadOnly"
	CommandUpdateMode   FormCommand = "updateMode"
	CommandSaveComplete FormCommand = "save-complete"
	CommandSaveStatus   FormCommand = "saveStatus"
)

// FormMessage is one flat host-to-form protocol message. Only the fields
// relevant to Command are populated.
type FormMessage struct {
	Command     FormCommand          `json:"command"`
	Data        *domain.ReviewRecord `json:"data,omitempty"`
	CurrentUser string               `json:"currentUser,omitempty"`
	IsReadonly  bool                 `json:"isReadonly,omitempty"`
	Value       bool                 `json:"value,omitempty"`
	Mode        string               `json:"mode,omitempty"`
}

// SaveStatusRequest is the form-to-host submission payload.
type SaveStatusRequest struct {
	TaskDone   bool   `json:"task_done"`
	ReviewDone bool   `json:"review_done"`
	Comment    string `json:"comment"`
	Reporting  string `json:"reporting"`
}

// FormSession is one open status form bound to one file surface. Exactly one
// session exists per key at a time.
type FormSession struct {
	ID       string
	Key      domain.PathKey
	ReadOnly bool
	Worker   string
	Record   *domain.ReviewRecord
}

// Mode returns the protocol mode string for the session's access level.
func (s FormSession) Mode() string {
	if s.ReadOnly {
		return "readonly"
	}
	return "edit"
}

// InitialData builds the opening message sent to a freshly created form.
func (s FormSession) InitialData() FormMessage {
	return FormMessage{
		Command:     CommandInitialData,
		Data:        s.Record,
		CurrentUser: s.Worker,
		IsReadonly:  s.ReadOnly,
	}
}
