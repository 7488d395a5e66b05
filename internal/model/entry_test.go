package model

import (
	"errors"
	"testing"

	"github.com/plothook/api/internal/apperr"
)

func TestHiddenTextBlockValidateRange(t *testing.T) {
	const contentLen = 100

	tests := []struct {
		name     string
		start    int
		end      int
		wantCode string
	}{
		{"valid", 10, 20, ""},
		{"full content", 0, 100, ""},
		{"negative start", -1, 10, "hidden_block_range"},
		{"empty range", 10, 10, "hidden_block_range"},
		{"inverted range", 20, 10, "hidden_block_range"},
		{"end past content", 90, 101, "hidden_block_range"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &HiddenTextBlock{StartPosition: tt.start, EndPosition: tt.end}
			err := b.Validate(contentLen, nil)
			if tt.wantCode == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			var appErr *apperr.Error
			if !errors.As(err, &appErr) || appErr.Code != tt.wantCode {
				t.Fatalf("err = %v, want code %s", err, tt.wantCode)
			}
		})
	}
}

func TestContentLengthCountsCharacters(t *testing.T) {
	content := "héllo wörld"
	if n := ContentLength(content); n != 11 {
		t.Fatalf("ContentLength = %d, want 11", n)
	}
	if len(content) == ContentLength(content) {
		t.Fatalf("fixture must differ in byte and character length")
	}
}

func TestHiddenTextBlockValidateMultibyteContent(t *testing.T) {
	content := "héllo wörld" // 11 characters, 13 bytes
	contentLen := ContentLength(content)

	// Byte length would accept this range; character length must not.
	b := &HiddenTextBlock{StartPosition: 0, EndPosition: len(content)}
	var appErr *apperr.Error
	if err := b.Validate(contentLen, nil); !errors.As(err, &appErr) || appErr.Code != "hidden_block_range" {
		t.Fatalf("end=%d on %d-character content: err = %v, want hidden_block_range", len(content), contentLen, err)
	}

	b = &HiddenTextBlock{StartPosition: 0, EndPosition: contentLen}
	if err := b.Validate(contentLen, nil); err != nil {
		t.Fatalf("full-width block rejected: %v", err)
	}
}

func TestCrossReferenceValidate(t *testing.T) {
	ref := &CrossReference{SourceEntryID: "a", TargetEntryID: "a"}
	if err := ref.Validate(); apperr.KindOf(err) != apperr.KindValidation {
		t.Fatalf("self reference err = %v, want validation error", err)
	}

	ref = &CrossReference{SourceEntryID: "a", TargetEntryID: "b"}
	if err := ref.Validate(); err != nil {
		t.Fatalf("distinct entries rejected: %v", err)
	}
}

func TestHiddenTextBlockValidateOverlap(t *testing.T) {
	siblings := []HiddenTextBlock{
		{ID: 1, StartPosition: 10, EndPosition: 20},
		{ID: 2, StartPosition: 40, EndPosition: 50},
	}

	tests := []struct {
		name    string
		block   HiddenTextBlock
		overlap bool
	}{
		{"before all", HiddenTextBlock{StartPosition: 0, EndPosition: 10}, false},
		{"between", HiddenTextBlock{StartPosition: 20, EndPosition: 40}, false},
		{"after all", HiddenTextBlock{StartPosition: 50, EndPosition: 60}, false},
		{"overlaps head", HiddenTextBlock{StartPosition: 5, EndPosition: 15}, true},
		{"overlaps tail", HiddenTextBlock{StartPosition: 45, EndPosition: 55}, true},
		{"contains sibling", HiddenTextBlock{StartPosition: 5, EndPosition: 25}, true},
		{"inside sibling", HiddenTextBlock{StartPosition: 12, EndPosition: 18}, true},
		{"self update keeps range", HiddenTextBlock{ID: 1, StartPosition: 10, EndPosition: 20}, false},
		{"self update grows", HiddenTextBlock{ID: 1, StartPosition: 10, EndPosition: 30}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.block.Validate(100, siblings)
			if tt.overlap && apperr.KindOf(err) != apperr.KindValidation {
				t.Fatalf("err = %v, want validation error", err)
			}
			if !tt.overlap && err != nil {
				t.Fatalf("Validate: %v", err)
			}
		})
	}
}
