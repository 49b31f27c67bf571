// Package classifier sorts free-text user input into the categories the workflow engine acts on.
package classifier

import (
	"strings"
	"unicode"

	"github.com/safehands/guide/pkg/models"
)

// Category is the kind of message a user sent.
type Category string

const (
	CategoryConfirmation Category = "confirmation"
	CategoryNewTask      Category = "new_task"
	CategoryDigression   Category = "digression"
	CategoryUnrecognized Category = "unrecognized"
)

// Result is the outcome of classifying one message.
type Result struct {
	Category     Category
	WorkflowType string // Set for CategoryNewTask
}

// Input carries the text and, while a workflow is active, the step being worked on.
type Input struct {
	Text        string
	CurrentStep *models.StepDescriptor
}

// Classifier categorizes user input. Implementations must be safe for concurrent use.
type Classifier interface {
	Classify(in Input) Result
}

// TriggerMatcher resolves a new-task request to a workflow type.
type TriggerMatcher interface {
	MatchTrigger(text string) (string, bool)
}

var (
	DefaultConfirmations = []string{
		"done", "next", "completed", "finished", "yes", "ok", "okay", "ready", "continue",
	}

	DefaultDigressionMarkers = []string{
		"can you", "could you", "help", "explain", "show me", "tell me",
		"i don't understand", "i dont understand", "confused", "stuck", "problem",
		"error", "not working", "can't find", "cant find", "difficult",
	}

	interrogatives = []string{"how", "what", "where", "why", "when", "which", "who"}
)

// Keyword evaluates three predicates in a fixed priority order:
// confirmation, then new-task request, then digression.
type Keyword struct {
	triggers          TriggerMatcher
	confirmations     map[string]struct{}
	confirmPhrases    []string // multi-word confirmations, matched as substrings
	digressionMarkers []string
}

// NewKeyword creates a keyword classifier using the default vocabularies.
func NewKeyword(triggers TriggerMatcher) *Keyword {
	return NewKeywordWithVocabulary(triggers, DefaultConfirmations, DefaultDigressionMarkers)
}

// NewKeywordWithVocabulary creates a keyword classifier with custom vocabularies.
func NewKeywordWithVocabulary(triggers TriggerMatcher, confirmations, digressionMarkers []string) *Keyword {
	k := &Keyword{
		triggers:      triggers,
		confirmations: make(map[string]struct{}, len(confirmations)),
	}

	for _, c := range confirmations {
		c = normalize(c)

		switch {
		case c == "":
		case len(words(c)) > 1:
			k.confirmPhrases = append(k.confirmPhrases, c)
		default:
			k.confirmations[c] = struct{}{}
		}
	}

	for _, m := range digressionMarkers {
		if m = normalize(m); m != "" {
			k.digressionMarkers = append(k.digressionMarkers, m)
		}
	}

	return k
}

func (k *Keyword) Classify(in Input) Result {
	switch {
	case k.IsConfirmation(in.Text, in.CurrentStep):
		return Result{Category: CategoryConfirmation}
	case k.isNewTask(in.Text):
		workflowType, _ := k.triggers.MatchTrigger(in.Text)

		return Result{Category: CategoryNewTask, WorkflowType: workflowType}
	case k.IsDigression(in.Text):
		return Result{Category: CategoryDigression}
	default:
		return Result{Category: CategoryUnrecognized}
	}
}

// IsConfirmation reports whether text equals or contains a confirmation token.
// Tokens are matched on word boundaries so "ok" does not fire inside "book".
// Step-specific confirmations of the current step are matched as substrings.
func (k *Keyword) IsConfirmation(text string, step *models.StepDescriptor) bool {
	normalized := normalize(text)
	if normalized == "" {
		return false
	}

	if _, ok := k.confirmations[normalized]; ok {
		return true
	}

	for _, word := range words(normalized) {
		if _, ok := k.confirmations[word]; ok {
			return true
		}
	}

	for _, phrase := range k.confirmPhrases {
		if strings.Contains(normalized, phrase) {
			return true
		}
	}

	return step != nil && step.ConfirmedBy(normalized)
}

// IsNewTaskRequest reports whether text contains a workflow trigger phrase.
// Confirmations are never new-task requests.
func (k *Keyword) IsNewTaskRequest(text string) bool {
	return !k.IsConfirmation(text, nil) && k.isNewTask(text)
}

// IsDigression reports whether text is a question or help request that is neither
// a confirmation nor a new-task request.
func (k *Keyword) IsDigression(text string) bool {
	if k.IsConfirmation(text, nil) || k.isNewTask(text) {
		return false
	}

	normalized := normalize(text)
	if normalized == "" {
		return false
	}

	if strings.HasSuffix(normalized, "?") {
		return true
	}

	tokens := words(normalized)
	if len(tokens) > 0 {
		// "what's" and "how's" lead with the wh-word before the apostrophe.
		leading, _, _ := strings.Cut(tokens[0], "'")
		for _, w := range interrogatives {
			if leading == w {
				return true
			}
		}
	}

	for _, marker := range k.digressionMarkers {
		if strings.Contains(normalized, marker) {
			return true
		}
	}

	return false
}

func (k *Keyword) isNewTask(text string) bool {
	if k.triggers == nil {
		return false
	}

	_, ok := k.triggers.MatchTrigger(text)

	return ok
}

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func words(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}
