package intake

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPrompt はプロンプト未指定時に返却されます。
	ErrEmptyPrompt = errors.New("intake: prompt is required")
	// ErrExtractorUnavailable は抽出サービスが構成されていない場合に返却されます。
	ErrExtractorUnavailable = errors.New("intake: extraction service is not configured")
)

// ExtractionError はモデル出力を JSON 配列として解釈できなかったことを表します。
// バッチ全体が中断され、1 件もプロビジョニングされません。
type ExtractionError struct {
	Detail string
	Err    error
}

func (e *ExtractionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("intake: extraction failed: %s: %v", e.Detail, e.Err)
	}
	return fmt.Sprintf("intake: extraction failed: %s", e.Detail)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}
