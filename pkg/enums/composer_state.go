package enums

// ComposerState is the lifecycle position of a bundle being edited.
type ComposerState string

const (
	ComposerStateDraft      ComposerState = "draft"
	ComposerStateValidating ComposerState = "validating"
	ComposerStateSaving     ComposerState = "saving"
	ComposerStateSaved      ComposerState = "saved"
	ComposerStateError      ComposerState = "error"
)

// IsRest reports whether the composer can sit in this state between requests.
func (s ComposerState) IsRest() bool {
	return s == ComposerStateDraft || s == ComposerStateSaved || s == ComposerStateError
}

// ComposerErrorOrigin records which state an error was entered from.
type ComposerErrorOrigin string

const (
	ComposerErrorFromDraft          ComposerErrorOrigin = "draft"
	ComposerErrorFromSavedPartially ComposerErrorOrigin = "saved_partially"
)
