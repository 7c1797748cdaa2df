package domain

import "time"

// AssetType enumerates asset media kinds.
type AssetType string

const (
	AssetTypeImage AssetType = "image"
	AssetTypeVideo AssetType = "video"
	AssetTypeAudio AssetType = "audio"
)

// AssetUsage names what an asset was produced for.
type AssetUsage string

const (
	AssetUsageCharacter  AssetUsage = "character"
	AssetUsageScene      AssetUsage = "scene"
	AssetUsageProp       AssetUsage = "prop"
	AssetUsageStoryboard AssetUsage = "storyboard"
	AssetUsageGeneral    AssetUsage = "general"
)

// AssetSource records whether an asset was uploaded or generated.
type AssetSource string

const (
	AssetSourceUpload    AssetSource = "upload"
	AssetSourceGenerated AssetSource = "generated"
)

// Asset is one unit of generated or uploaded media.
type Asset struct {
	ID        string
	UserID    string
	ProjectID string
	TaskID    string
	Type      AssetType
	Usage     AssetUsage
	RelatedID string
	Source    AssetSource
	URL       string
	CreatedAt time.Time
}

// CreateAssetParams is the full dedup tuple. Empty optional fields are stored
// as NULL and compared as NULL.
type CreateAssetParams struct {
	UserID    string
	ProjectID string
	TaskID    string
	Type      AssetType
	Usage     AssetUsage
	RelatedID string
	Source    AssetSource
	URL       string
}

// AssetHistoryQuery selects prior results for a user and target entity.
type AssetHistoryQuery struct {
	UserID    string
	Usage     AssetUsage
	RelatedID string
	Type      AssetType // optional
	Limit     int
}
