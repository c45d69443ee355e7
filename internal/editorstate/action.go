package editorstate

import (
	"errors"
	"fmt"
)

// Action is the single user-facing publishing action offered by the editor.
type Action int

const (
	ActionPublish Action = iota
	ActionSchedule
	ActionUpdate
	ActionSubmitForReview
	// Deprecated: only produced by LegacyPolicy.
	ActionSave
	// Deprecated: only produced by LegacyPolicy.
	ActionSaveAsDraft
	ActionContinueFromHomepageEditing
)

// ErrUnknownAction is returned when parsing an unrecognised action name.
var ErrUnknownAction = errors.New("unknown editor action")

var actionNames = map[Action]string{
	ActionPublish:                     "publish",
	ActionSchedule:                    "schedule",
	ActionUpdate:                      "update",
	ActionSubmitForReview:             "submitForReview",
	ActionSave:                        "save",
	ActionSaveAsDraft:                 "saveAsDraft",
	ActionContinueFromHomepageEditing: "continueFromHomepageEditing",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Action(%d)", int(a))
}

// ParseAction returns the action with the given name.
func ParseAction(name string) (Action, error) {
	for action, n := range actionNames {
		if n == name {
			return action, nil
		}
	}
	return 0, ErrUnknownAction
}

func (a Action) MarshalText() ([]byte, error) {
	if _, ok := actionNames[a]; !ok {
		return nil, ErrUnknownAction
	}
	return []byte(a.String()), nil
}

func (a *Action) UnmarshalText(text []byte) error {
	parsed, err := ParseAction(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Label is the publish button text.
func (a Action) Label() string {
	switch a {
	case ActionPublish:
		return "Publish"
	case ActionSave:
		return "Save"
	case ActionSaveAsDraft:
		return "Save as Draft"
	case ActionSchedule:
		return "Schedule"
	case ActionSubmitForReview:
		return "Submit for Review"
	case ActionUpdate:
		return "Update"
	case ActionContinueFromHomepageEditing:
		return "Continue"
	default:
		return ""
	}
}

// QuestionLabel is the confirmation prompt shown before running the action.
func (a Action) QuestionLabel() string {
	switch a {
	case ActionPublish:
		return "Are you sure you want to publish?"
	case ActionSave:
		return "Are you sure you want to save?"
	case ActionSaveAsDraft:
		return "Are you sure you want to save as draft?"
	case ActionSchedule:
		return "Are you sure you want to schedule?"
	case ActionSubmitForReview:
		return "Are you sure you want to submit for review?"
	case ActionUpdate:
		return "Are you sure you want to update?"
	case ActionContinueFromHomepageEditing:
		return "Are you sure you want to update your homepage?"
	default:
		return ""
	}
}

// ProgressLabel is shown while the action is running.
func (a Action) ProgressLabel() string {
	switch a {
	case ActionPublish:
		return "Publishing..."
	case ActionSave, ActionSaveAsDraft:
		return "Saving..."
	case ActionSchedule:
		return "Scheduling..."
	case ActionSubmitForReview:
		return "Submitting for Review..."
	case ActionUpdate, ActionContinueFromHomepageEditing:
		return "Updating..."
	default:
		return ""
	}
}

// ErrorLabel is shown when the action fails.
func (a Action) ErrorLabel() string {
	switch a {
	case ActionPublish:
		return "Error occurred during publishing"
	case ActionSchedule:
		return "Error occurred during scheduling"
	default:
		return "Error occurred during saving"
	}
}

// DismissesEditor reports whether completing the action closes the editor.
func (a Action) DismissesEditor() bool {
	switch a {
	case ActionPublish, ActionSchedule, ActionSubmitForReview:
		return true
	default:
		return false
	}
}

// IsAsync reports whether the action keeps running after the editor closes,
// so it does not need to wait for media uploads.
func (a Action) IsAsync() bool {
	return a.DismissesEditor()
}

func (a Action) secondary() (Action, bool) {
	switch a {
	case ActionPublish:
		return ActionSaveAsDraft, true
	case ActionUpdate:
		return ActionPublish, true
	default:
		return 0, false
	}
}
