package domain

// Intent is the routing classification of a query. It controls the effective
// k, the prompt shape and which deterministic answer paths apply.
type Intent string

// Closed set of intents.
const (
	IntentLookup          Intent = "LOOKUP"
	IntentCapabilities    Intent = "CAPABILITIES"
	IntentCodeLanguage    Intent = "CODE_LANGUAGE"
	IntentReflect         Intent = "REFLECT"
	IntentEvidenceProfile Intent = "EVIDENCE_PROFILE"
	IntentAggregate       Intent = "AGGREGATE"
	IntentTimeline        Intent = "TIMELINE"
)

// AllIntents returns every intent in routing order of evaluation.
func AllIntents() []Intent {
	return []Intent{
		IntentCapabilities,
		IntentCodeLanguage,
		IntentReflect,
		IntentEvidenceProfile,
		IntentAggregate,
		IntentTimeline,
		IntentLookup,
	}
}

// IsValid returns true if the intent is recognised.
func (i Intent) IsValid() bool {
	switch i {
	case IntentLookup, IntentCapabilities, IntentCodeLanguage, IntentReflect,
		IntentEvidenceProfile, IntentAggregate, IntentTimeline:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (i Intent) String() string {
	return string(i)
}

// Label returns the human-readable label used in "Answered by:" markers.
func (i Intent) Label() string {
	switch i {
	case IntentLookup:
		return "lookup"
	case IntentCapabilities:
		return "capabilities"
	case IntentCodeLanguage:
		return "code language"
	case IntentReflect:
		return "reflection"
	case IntentEvidenceProfile:
		return "evidence profile"
	case IntentAggregate:
		return "aggregate"
	case IntentTimeline:
		return "timeline"
	default:
		return "unknown"
	}
}
