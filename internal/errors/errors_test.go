package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantMsg string
		wantCat Category
	}{
		{
			name:    "identifier error",
			code:    CodeDoubleRelease,
			wantMsg: "Identifier released twice",
			wantCat: CategoryIdentifier,
		},
		{
			name:    "lifecycle error",
			code:    CodeAlreadyMounted,
			wantMsg: "Controller is already mounted",
			wantCat: CategoryLifecycle,
		},
		{
			name:    "unknown error code",
			code:    "K999",
			wantMsg: "Unknown error",
			wantCat: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code)
			if err.Message != tt.wantMsg {
				t.Errorf("Message = %q, want %q", err.Message, tt.wantMsg)
			}
			if err.Category != tt.wantCat {
				t.Errorf("Category = %q, want %q", err.Category, tt.wantCat)
			}
			if err.Code != tt.code {
				t.Errorf("Code = %q, want %q", err.Code, tt.code)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	err := New(CodeDoubleRelease).WithDetail("id 7")
	if got, want := err.Error(), "K102: Identifier released twice (id 7)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWrapAndIs(t *testing.T) {
	cause := fmt.Errorf("boom")
	err := New(CodeHostRefused).Wrap(cause)

	if !stderrors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
	if !stderrors.Is(fmt.Errorf("outer: %w", err), New(CodeHostRefused)) {
		t.Error("errors.Is should match by code")
	}
	if stderrors.Is(err, New(CodeRollbackFail)) {
		t.Error("errors.Is should not match a different code")
	}
	if !HasCode(fmt.Errorf("outer: %w", err), CodeHostRefused) {
		t.Error("HasCode should see through wrapping")
	}
}

func TestFromError(t *testing.T) {
	if FromError(nil, CodeConfigRead) != nil {
		t.Error("FromError(nil) should be nil")
	}

	orig := New(CodeConfigParse)
	if got := FromError(fmt.Errorf("x: %w", orig), CodeConfigRead); got != orig {
		t.Error("FromError should return an existing KinesisError unchanged")
	}

	got := FromError(fmt.Errorf("plain"), CodeConfigRead)
	if got.Code != CodeConfigRead {
		t.Errorf("Code = %q, want %q", got.Code, CodeConfigRead)
	}
}

func TestIsProgramming(t *testing.T) {
	if !IsProgramming(New(CodeUnknownIdentifier)) {
		t.Error("identifier errors are programming errors")
	}
	if !IsProgramming(New(CodeNotMounted)) {
		t.Error("lifecycle errors are programming errors")
	}
	if IsProgramming(New(CodeHostRefused)) {
		t.Error("host errors are not programming errors")
	}
	if IsProgramming("string panic") {
		t.Error("non-error values are not programming errors")
	}
}

func TestFormat(t *testing.T) {
	DisableColors()
	defer EnableColors()

	out := New(CodeReleasedScope).WithDetail("owner 4").Format()
	for _, want := range []string{"ERROR K103: Identifier requested for a released scope", "owner 4", "Hint:"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format() missing %q in:\n%s", want, out)
		}
	}

	if got := New(CodeNotMounted).FormatCompact(); got != "K202: Controller is not mounted" {
		t.Errorf("FormatCompact() = %q", got)
	}
}

func TestWrapText(t *testing.T) {
	lines := wrapText("aaa bbb ccc", 7)
	if len(lines) != 2 || lines[0] != "aaa bbb" || lines[1] != "ccc" {
		t.Errorf("wrapText = %q", lines)
	}
	if wrapText("", 10) != nil {
		t.Error("wrapText of empty string should be nil")
	}
}
