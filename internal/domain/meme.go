package domain

import "fmt"

// MemeContent is the caption pair and image instruction returned by a
// single caption-generation call.
type MemeContent struct {
	TopText     string `json:"topText"`
	BottomText  string `json:"bottomText"`
	ImagePrompt string `json:"imagePrompt"`
}

// GeneratedMeme is one successful generation result.
// Text and image are fixed at creation and never edited afterwards.
type GeneratedMeme struct {
	ID         string `gorm:"type:text;primaryKey" json:"id"`
	ImageURL   string `gorm:"type:text;not null" json:"image_url"`
	TopText    string `gorm:"type:text" json:"top_text"`
	BottomText string `gorm:"type:text" json:"bottom_text"`
	Timestamp  int64  `gorm:"not null" json:"timestamp"`
	Topic      string `gorm:"type:text" json:"topic"`

	// Seq orders the session history; higher is newer.
	Seq int64 `gorm:"not null;index:idx_generated_memes_seq" json:"-"`
}

// TableName returns the database table name for GeneratedMeme.
func (GeneratedMeme) TableName() string {
	return "generated_memes"
}

// FileName returns the download name used for exports of this meme.
func (m *GeneratedMeme) FileName() string {
	return fmt.Sprintf("dev-meme-%d.png", m.Timestamp)
}
