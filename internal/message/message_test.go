package message

import "testing"

func TestAppendTextExtendsTrailingTextPart(t *testing.T) {
	m := NewAssistant("conv")

	m.AppendText("He")
	m.AppendText("llo")

	if len(m.Content) != 1 {
		t.Fatalf("expected a single text part, got %d", len(m.Content))
	}
	if m.Text() != "Hello" {
		t.Errorf("got %q", m.Text())
	}
}

func TestAppendTextAfterNonTextPart(t *testing.T) {
	m := New("conv", RoleUser,
		TextPart("see attached"),
		ContentPart{Type: PartImage, Image: &ImageRef{Path: "/tmp/a.png"}},
	)

	m.AppendText("done")

	if len(m.Content) != 3 {
		t.Fatalf("expected a new trailing part, got %d parts", len(m.Content))
	}
	if m.Content[2].Text != "done" {
		t.Errorf("trailing part wrong: %+v", m.Content[2])
	}
}

func TestMeaningful(t *testing.T) {
	if NewAssistant("conv").Meaningful() {
		t.Error("empty message should not be meaningful")
	}
	if New("conv", RoleUser, TextPart("")).Meaningful() {
		t.Error("empty text part should not be meaningful")
	}
	if !NewUser("conv", "hi").Meaningful() {
		t.Error("text message should be meaningful")
	}

	withImage := New("conv", RoleUser, ContentPart{Type: PartImage, Image: &ImageRef{Data: "aGk="}})
	if !withImage.Meaningful() {
		t.Error("image message should be meaningful")
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := NewUser("conv", "original")
	cp := m.Clone()

	cp.AppendText(" changed")
	cp.SetText("replaced")

	if m.Text() != "original" {
		t.Errorf("clone mutation leaked into original: %q", m.Text())
	}
}

func TestCloneCopiesPartPayloads(t *testing.T) {
	m := New("conv", RoleAssistant,
		ContentPart{Type: PartToolCall, ToolCall: &ToolCall{ID: "t1", Name: "search", Input: `{"q":"go"}`}},
		ContentPart{Type: PartImage, Image: &ImageRef{Path: "/tmp/a.png"}},
	)
	cp := m.Clone()

	m.Content[0].ToolCall.Input = `{"q":"rust"}`
	m.Content[1].Image.Path = "/tmp/b.png"

	if cp.Content[0].ToolCall.Input != `{"q":"go"}` {
		t.Errorf("tool call payload aliased: %q", cp.Content[0].ToolCall.Input)
	}
	if cp.Content[1].Image.Path != "/tmp/a.png" {
		t.Errorf("image payload aliased: %q", cp.Content[1].Image.Path)
	}
}

func TestPreviewTruncatesRuneSafe(t *testing.T) {
	m := NewUser("conv", "héllo wörld, this is a long line")

	preview := m.Preview(10)
	if len([]rune(preview)) != 10 {
		t.Errorf("expected 10 runes, got %d (%q)", len([]rune(preview)), preview)
	}

	short := NewUser("conv", "hi")
	if short.Preview(10) != "hi" {
		t.Errorf("short text should be unchanged: %q", short.Preview(10))
	}
}

func TestPreviewFlattensAndHandlesTinyWidths(t *testing.T) {
	m := NewUser("conv", "first line\nsecond line")
	if got := m.Preview(60); got != "first line second line" {
		t.Errorf("newlines not flattened: %q", got)
	}

	long := NewUser("conv", "abcdefghij")
	if got := long.Preview(2); got != "ab" {
		t.Errorf("tiny width: got %q", got)
	}
	if got := long.Preview(0); got != "" {
		t.Errorf("zero width: got %q", got)
	}
}

func TestTextConcatenatesTextPartsOnly(t *testing.T) {
	m := New("conv", RoleAssistant,
		TextPart("a"),
		ContentPart{Type: PartCitation, Citation: &Citation{Source: "doc"}},
		TextPart("b"),
	)
	if m.Text() != "ab" {
		t.Errorf("got %q", m.Text())
	}
}
