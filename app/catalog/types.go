package catalog

import "github.com/boardswallah/boards-press/app/content"

type LengthTier string

const (
	TierSmall  LengthTier = "small"
	TierMedium LengthTier = "medium"
	TierLarge  LengthTier = "large"
)

type TierSettings struct {
	TargetWords int `yaml:"target_words" json:"target_words"`
	MaxTokens   int `yaml:"max_tokens" json:"max_tokens"`
}

type Catalog struct {
	Subjects    map[content.Category][]string `yaml:"subjects" json:"subjects"`
	LengthTiers map[LengthTier]TierSettings   `yaml:"length_tiers" json:"length_tiers"`
	Types       []content.Type                `yaml:"-" json:"types"`
}
