package intake

import "strings"

const fence = "```"

// ExtractJSON はモデルの生出力から JSON として解釈すべき文字列を取り出します。
// 最初のコードフェンス(```json または ```)があればその内側を、なければ全体をトリムして返します。
// 返り値を JSON 配列として解釈するのは呼び出し側の責務です。
func ExtractJSON(raw string) string {
	start := strings.Index(raw, fence)
	if start < 0 {
		return strings.TrimSpace(raw)
	}

	inner := raw[start+len(fence):]
	end := strings.Index(inner, fence)
	if end < 0 {
		return strings.TrimSpace(raw)
	}
	inner = inner[:end]

	// 言語タグ(```json)はフェンス直後の 1 行目に乗るため取り除く。
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		firstLine := strings.TrimSpace(inner[:nl])
		if firstLine == "json" || firstLine == "" {
			inner = inner[nl+1:]
		}
	} else if strings.TrimSpace(inner) == "json" {
		inner = ""
	}

	return strings.TrimSpace(inner)
}
