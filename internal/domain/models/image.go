package models

import (
	"strings"
	"time"
)

// ImageKind discriminates portraits from narrative scene images. At most one
// portrait is live per session (replace, not append); scene images accumulate
// without limit.
type ImageKind string

const (
	ImageKindScene    ImageKind = "scene"
	ImageKindPortrait ImageKind = "portrait"
)

// SceneImage is an illustration attached to a session.
type SceneImage struct {
	ID        string    `json:"id" db:"id"`
	ChatID    string    `json:"chat_id" db:"chat_id"`
	URL       string    `json:"url" db:"url"`
	Caption   *string   `json:"caption,omitempty" db:"caption"`
	Kind      ImageKind `json:"kind" db:"kind"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// KindFromCaption derives the image kind from the legacy caption convention,
// where portraits were tagged only by a "Portrait" caption prefix. Used at
// the store boundary for rows written before the kind column existed.
func KindFromCaption(caption *string) ImageKind {
	if caption != nil && strings.HasPrefix(*caption, "Portrait") {
		return ImageKindPortrait
	}
	return ImageKindScene
}
