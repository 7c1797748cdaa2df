package entitysync

import "aishortx/internal/domain"

// Outcome is the job state being mirrored onto the related entity.
type Outcome string

const (
	OutcomeGenerating Outcome = "generating"
	OutcomeFailed     Outcome = "failed"
	OutcomeCompleted  Outcome = "completed"
)

type valueSource int

const (
	sourceLiteral valueSource = iota
	sourceURL
	sourceReason
	sourceNull
)

type field struct {
	column  string
	source  valueSource
	literal string
}

func lit(column, value string) field { return field{column: column, source: sourceLiteral, literal: value} }
func withURL(column string) field    { return field{column: column, source: sourceURL} }
func withReason(column string) field { return field{column: column, source: sourceReason} }
func null(column string) field       { return field{column: column, source: sourceNull} }

type rule struct {
	kind       domain.EntityKind
	generating []field
	failed     []field
	completed  []field
}

func (r rule) fieldsFor(o Outcome) []field {
	switch o {
	case OutcomeGenerating:
		return r.generating
	case OutcomeFailed:
		return r.failed
	case OutcomeCompleted:
		return r.completed
	default:
		return nil
	}
}

// rules maps each category to the entity it targets and the columns written
// per outcome. Completed rows always carry the result URL.
var rules = map[domain.Category]rule{
	domain.CategoryCharacterImage: {
		kind:       domain.EntityCharacter,
		generating: []field{lit("image_status", domain.ImageStatusGenerating)},
		failed:     []field{lit("image_status", domain.ImageStatusFailed)},
		completed:  []field{lit("image_status", domain.ImageStatusGenerated), withURL("image_url")},
	},
	domain.CategoryCharacterVideo: {
		kind:       domain.EntityCharacter,
		generating: []field{lit("video_status", domain.VideoStatusGenerating)},
		failed:     []field{lit("video_status", domain.VideoStatusFailed)},
		completed:  []field{lit("video_status", domain.VideoStatusGenerated), withURL("video_url")},
	},
	domain.CategoryStoryboardImage: {
		kind:       domain.EntityStoryboard,
		generating: []field{lit("image_status", domain.ImageStatusGenerating)},
		failed:     []field{lit("image_status", domain.ImageStatusFailed)},
		completed:  []field{lit("image_status", domain.ImageStatusGenerated), withURL("image_url")},
	},
	domain.CategoryStoryboardVideo: {
		kind:       domain.EntityStoryboard,
		generating: []field{lit("status", domain.StoryboardStatusGeneratingVideo), null("error_msg")},
		failed:     []field{lit("status", domain.StoryboardStatusFailed), withReason("error_msg")},
		completed:  []field{lit("status", domain.StoryboardStatusVideoGenerated), withURL("video_url"), null("error_msg")},
	},
	domain.CategoryUpscale: {
		kind:       domain.EntityStoryboard,
		generating: []field{lit("high_res_status", domain.HighResStatusGenerating), null("high_res_error_msg")},
		failed:     []field{lit("high_res_status", domain.HighResStatusFailed), withReason("high_res_error_msg")},
		completed:  []field{lit("high_res_status", domain.HighResStatusSuccess), withURL("high_res_video_url"), null("high_res_error_msg")},
	},
	domain.CategorySceneImage: {
		kind:       domain.EntityScene,
		generating: []field{lit("status", domain.ImageStatusGenerating)},
		failed:     []field{lit("status", domain.ImageStatusFailed)},
		completed:  []field{lit("status", domain.ImageStatusGenerated), withURL("image_url")},
	},
	domain.CategoryPropImage: {
		kind:       domain.EntityProp,
		generating: []field{lit("status", domain.ImageStatusGenerating)},
		failed:     []field{lit("status", domain.ImageStatusFailed)},
		completed:  []field{lit("status", domain.ImageStatusGenerated), withURL("image_url")},
	},
}

// resolve turns the declarative fields into column assignments. An empty
// reason is written as NULL.
func resolve(fields []field, url, reason string) []domain.FieldValue {
	out := make([]domain.FieldValue, 0, len(fields))
	for _, f := range fields {
		var value *string
		switch f.source {
		case sourceLiteral:
			v := f.literal
			value = &v
		case sourceURL:
			v := url
			value = &v
		case sourceReason:
			if reason != "" {
				v := reason
				value = &v
			}
		}
		out = append(out, domain.FieldValue{Column: f.column, Value: value})
	}
	return out
}
