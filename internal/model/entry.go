package model

import (
	"fmt"
	"sort"
	"time"
	"unicode/utf8"

	"github.com/plothook/api/internal/apperr"
)

type Entry struct {
	ID         string    `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	Title      string    `gorm:"not null;size:200" json:"title"`
	Content    string    `gorm:"type:text" json:"content"`
	CategoryID int64     `gorm:"not null;index" json:"categoryId"`
	BookType   BookType  `gorm:"not null;size:20" json:"bookType"`
	WorldID    int64     `gorm:"not null;index" json:"worldId"`
	OwnerID    int64     `gorm:"not null;index" json:"ownerId"`
	IsHidden   bool      `gorm:"default:false" json:"isHidden"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (Entry) TableName() string {
	return "entries"
}

// HiddenTextBlock is a DM-only annotation anchored to a character range of
// its entry's content.
type HiddenTextBlock struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EntryID       string    `gorm:"type:uuid;not null;index" json:"entryId"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	StartPosition int       `gorm:"not null" json:"startPosition"`
	EndPosition   int       `gorm:"not null" json:"endPosition"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (HiddenTextBlock) TableName() string {
	return "hidden_text_blocks"
}

// ContentLength counts characters, not bytes. Block offsets are character
// offsets, so multibyte content must never be measured with len().
func ContentLength(s string) int {
	return utf8.RuneCountInString(s)
}

// Validate checks the block's range against the entry content length in
// characters and the entry's other blocks. Blocks may not overlap; siblings
// are compared ordered by start position.
func (b *HiddenTextBlock) Validate(contentLength int, siblings []HiddenTextBlock) error {
	if b.StartPosition < 0 || b.StartPosition >= b.EndPosition || b.EndPosition > contentLength {
		return apperr.Validation("hidden_block_range",
			fmt.Sprintf("invalid range [%d, %d) for content of length %d", b.StartPosition, b.EndPosition, contentLength))
	}

	ordered := make([]HiddenTextBlock, 0, len(siblings))
	for _, s := range siblings {
		if s.ID != b.ID {
			ordered = append(ordered, s)
		}
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].StartPosition < ordered[j].StartPosition })

	for _, s := range ordered {
		if b.StartPosition < s.EndPosition && s.StartPosition < b.EndPosition {
			return apperr.Validation("hidden_block_overlap",
				fmt.Sprintf("range overlaps existing block [%d, %d)", s.StartPosition, s.EndPosition))
		}
	}
	return nil
}

// CrossReference is a directed link between two entries.
type CrossReference struct {
	ID            int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	SourceEntryID string    `gorm:"type:uuid;not null;uniqueIndex:idx_cross_references_pair,priority:1" json:"sourceEntryId"`
	TargetEntryID string    `gorm:"type:uuid;not null;uniqueIndex:idx_cross_references_pair,priority:2;index" json:"targetEntryId"`
	Description   string    `gorm:"size:500" json:"description"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (CrossReference) TableName() string {
	return "cross_references"
}

// Validate rejects self-links. Duplicate pairs are caught by the unique
// index on (source, target).
func (r *CrossReference) Validate() error {
	if r.SourceEntryID == r.TargetEntryID {
		return apperr.Validation("self_reference", "an entry cannot reference itself")
	}
	return nil
}
