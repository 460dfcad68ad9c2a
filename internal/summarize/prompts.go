package summarize

import "fmt"

// System prompts mirror the structure users expect from meeting minutes.
// Three variants per language: the full structured summary, the per-chunk
// key-point extract used during hierarchical reduction, and the final
// combine step that folds partial extracts back into the full structure.

var fullSystemPrompts = map[string]string{
	"ja": `あなたは会議の議事録を作成する優秀なアシスタントです。
与えられた会話の文字起こしを分析し、簡潔で分かりやすい要約を作成してください。
以下の形式で出力してください：

## 概要
（会議全体の簡潔な要約を1-2文で）

## 主な議題
（箇条書きで主な話題を列挙）

## 決定事項
（決まったことがあれば箇条書きで）

## アクションアイテム
（誰が何をするか、タスクがあれば箇条書きで）

## 補足
（その他重要な情報があれば）`,

	"en": `You are an excellent assistant for creating meeting minutes.
Analyze the given conversation transcript and create a clear, concise summary.
Output in the following format:

## Overview
(Brief 1-2 sentence summary of the meeting)

## Main Topics
(Bullet points of main discussion topics)

## Decisions Made
(Bullet points of any decisions made)

## Action Items
(Who does what - list tasks if any)

## Additional Notes
(Any other important information)`,
}

var partialSystemPrompts = map[string]string{
	"ja": `あなたは長い会議の文字起こしの一部から要点を抽出するアシスタントです。
与えられたテキストから重要なポイントを箇条書きで簡潔に抽出してください。
見出しや整形は不要です。発言者名、決定事項、タスクは必ず残してください。`,

	"en": `You are an assistant that extracts key points from one part of a long meeting transcript.
Extract the important points from the given text as concise bullet points.
No headings or formatting needed. Always preserve speaker names, decisions, and tasks.`,
}

var combineSystemPrompts = map[string]string{
	"ja": `あなたは会議の議事録を作成する優秀なアシスタントです。
以下は長い会議を分割して抽出した各パートの要点です。
これらを統合し、ひとつの会議として簡潔で分かりやすい要約を作成してください。
以下の形式で出力してください：

## 概要
（会議全体の簡潔な要約を1-2文で）

## 主な議題
（箇条書きで主な話題を列挙）

## 決定事項
（決まったことがあれば箇条書きで）

## アクションアイテム
（誰が何をするか、タスクがあれば箇条書きで）

## 補足
（その他重要な情報があれば）`,

	"en": `You are an excellent assistant for creating meeting minutes.
Below are key points extracted from each part of a long meeting.
Merge them into one clear, concise summary of a single meeting.
Output in the following format:

## Overview
(Brief 1-2 sentence summary of the meeting)

## Main Topics
(Bullet points of main discussion topics)

## Decisions Made
(Bullet points of any decisions made)

## Action Items
(Who does what - list tasks if any)

## Additional Notes
(Any other important information)`,
}

func systemFor(prompts map[string]string, language string) string {
	if p, ok := prompts[language]; ok {
		return p
	}
	return prompts["ja"]
}

func fullUserPrompt(text, language string) string {
	if language == "en" {
		return fmt.Sprintf("Below is a meeting transcript. Please summarize it.\n\n---\n%s\n---\n\nPlease summarize the meeting content above.", text)
	}
	return fmt.Sprintf("以下は会議の文字起こしです。これを要約してください。\n\n---\n%s\n---\n\n上記の会議内容を要約してください。", text)
}

func partialUserPrompt(text string, index, total int, language string) string {
	if language == "en" {
		return fmt.Sprintf("This is part %d of %d of the transcript.\n\n---\n%s\n---\n\nExtract the key points from this part.", index, total, text)
	}
	return fmt.Sprintf("これは文字起こしのパート%d/%dです。\n\n---\n%s\n---\n\nこのパートの要点を抽出してください。", index, total, text)
}

func combineUserPrompt(partials, language string) string {
	if language == "en" {
		return fmt.Sprintf("Below are the extracted key points from each part.\n\n---\n%s\n---\n\nCreate the final summary from these.", partials)
	}
	return fmt.Sprintf("以下は各パートから抽出した要点です。\n\n---\n%s\n---\n\nこれらから最終的な要約を作成してください。", partials)
}

func partialLabel(index int, language string) string {
	if language == "en" {
		return fmt.Sprintf("### Part %d", index)
	}
	return fmt.Sprintf("### パート%d", index)
}

func emptyTranscriptMessage(language string) string {
	if language == "en" {
		return "(The transcript was empty, so no summary could be generated)"
	}
	return "（文字起こしが空のため、要約できませんでした）"
}
