package domain

// EntityKind names the domain table a task's RelatedID refers to.
type EntityKind string

const (
	EntityCharacter  EntityKind = "character"
	EntityScene      EntityKind = "scene"
	EntityProp       EntityKind = "prop"
	EntityStoryboard EntityKind = "storyboard"
)

// Status vocabularies written onto domain entities.
const (
	ImageStatusIdle       = "idle"
	ImageStatusGenerating = "generating"
	ImageStatusGenerated  = "generated"
	ImageStatusFailed     = "failed"

	VideoStatusDraft      = "draft"
	VideoStatusGenerating = "generating"
	VideoStatusGenerated  = "generated"
	VideoStatusFailed     = "failed"

	StoryboardStatusDraft           = "draft"
	StoryboardStatusGeneratingVideo = "generating_video"
	StoryboardStatusVideoGenerated  = "video_generated"
	StoryboardStatusFailed          = "failed"

	HighResStatusIdle       = "idle"
	HighResStatusGenerating = "generating"
	HighResStatusSuccess    = "success"
	HighResStatusFailed     = "failed"
)

// EntityRef addresses one entity row inside a project. Writes through a ref
// never touch rows of another project.
type EntityRef struct {
	Kind      EntityKind
	ProjectID string
	ID        string
}

// FieldValue is one column assignment on an entity row. A nil Value writes NULL.
type FieldValue struct {
	Column string
	Value  *string
}
