package intake

import "testing"

func TestExtractJSON_FencedWithTag(t *testing.T) {
	t.Parallel()

	raw := "Here is the data you asked for:\n```json\n[{\"first_name\":\"John\"}]\n```\nLet me know if you need more."
	want := `[{"first_name":"John"}]`
	if got := ExtractJSON(raw); got != want {
		t.Errorf("unexpected extraction: got %q want %q", got, want)
	}
}

func TestExtractJSON_FencedWithoutTag(t *testing.T) {
	t.Parallel()

	raw := "```\n[1, 2, 3]\n```"
	want := "[1, 2, 3]"
	if got := ExtractJSON(raw); got != want {
		t.Errorf("unexpected extraction: got %q want %q", got, want)
	}
}

func TestExtractJSON_FirstFenceWins(t *testing.T) {
	t.Parallel()

	raw := "```json\n[\"first\"]\n```\nand also\n```json\n[\"second\"]\n```"
	want := `["first"]`
	if got := ExtractJSON(raw); got != want {
		t.Errorf("expected first fenced block, got %q", got)
	}
}

func TestExtractJSON_Unfenced(t *testing.T) {
	t.Parallel()

	raw := "  \n[{\"first_name\":\"John\"}]\n  "
	want := `[{"first_name":"John"}]`
	if got := ExtractJSON(raw); got != want {
		t.Errorf("unexpected extraction: got %q want %q", got, want)
	}
}

func TestExtractJSON_UnterminatedFence(t *testing.T) {
	t.Parallel()

	raw := "```json\n[1]\n"
	if got := ExtractJSON(raw); got != "```json\n[1]" {
		t.Errorf("expected trimmed original for unterminated fence, got %q", got)
	}
}

func TestExtractJSON_InlineFence(t *testing.T) {
	t.Parallel()

	raw := "```[1,2]```"
	if got := ExtractJSON(raw); got != "[1,2]" {
		t.Errorf("unexpected extraction: got %q", got)
	}
}
