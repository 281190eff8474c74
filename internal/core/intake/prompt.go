package intake

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// unknownToken はモデルが解決できなかったフィールドに入れるべきリテラルです。
const unknownToken = "unknown"

const promptTemplate = `You are an HR data extraction assistant. Extract every employee described in the text below.

Return ONLY a JSON array of objects. Each object must contain exactly these six fields:
"first_name", "last_name", "email", "job_title", "department", "start_date"

Rules:
- "start_date" must be in YYYY-MM-DD format. If no start date is stated for a person, use today's date: %s.
- If a field cannot be determined from the text, use the literal string "unknown".
- Correct obvious spelling and grammar mistakes in department and job title values.
- Apply best-effort fuzzy matching when names, departments or titles contain typos.
- Do not wrap the answer in markdown code fences and do not add any explanation or prose. Reply with the raw JSON array only.

Text:
%s`

// BuildPrompt は自由記述テキストから抽出指示文を組み立てます。副作用はありません。
func BuildPrompt(text string, today time.Time) string {
	return fmt.Sprintf(promptTemplate, today.Format(dateLayout), text)
}
