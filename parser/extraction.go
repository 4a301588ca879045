package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"rfiresponder-backend/llm"
	"rfiresponder-backend/models"
)

// Variant selects which extraction contract a parser runs under
type Variant int

const (
	// VariantFilled extracts question/answer pairs from a completed RFI/RFP
	VariantFilled Variant = iota
	// VariantBlank extracts unanswered questions from a blank RFI/RFP template
	VariantBlank
)

// ExtractedItem is one question (optionally with its answer) pulled from a chunk
type ExtractedItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer,omitempty"`
	Domain   string `json:"domain,omitempty"`
	Type     string `json:"type,omitempty"`
}

// Fragment is the structured result of extracting one chunk of text
type Fragment struct {
	Items     []ExtractedItem
	Narrative string
	Meta      *models.RfiMetadata
}

// Extractor converts one chunk of raw text into a structured Fragment via a
// one-shot LLM structured-output call. Implementations return an error for any
// failure (malformed JSON, timeout, schema violation); retry policy lives in
// the caller.
type Extractor interface {
	ExtractChunk(ctx context.Context, text string) (Fragment, error)
}

// GeminiExtractor implements Extractor with a Gemini structured-output prompt
type GeminiExtractor struct {
	gen     llm.Generator
	variant Variant
}

// NewGeminiExtractor creates an extractor for the given parsing variant
func NewGeminiExtractor(gen llm.Generator, variant Variant) *GeminiExtractor {
	return &GeminiExtractor{gen: gen, variant: variant}
}

// ExtractChunk sends the chunk to the LLM and decodes the JSON response
func (e *GeminiExtractor) ExtractChunk(ctx context.Context, text string) (Fragment, error) {
	var prompt string
	if e.variant == VariantBlank {
		prompt = fmt.Sprintf(blankChunkPrompt, text)
	} else {
		prompt = fmt.Sprintf(filledChunkPrompt, text)
	}

	raw, err := e.gen.Generate(ctx, extractionSystemPrompt, prompt)
	if err != nil {
		return Fragment{}, fmt.Errorf("extraction call failed: %w", err)
	}

	return decodeFragment(raw)
}

var _ Extractor = (*GeminiExtractor)(nil)

// chunkPayload mirrors the per-chunk JSON contract. The blank-template
// variant emits "questions", the filled-document variant "qa_pairs", and
// some prompt revisions named the narrative field "description"; all four
// key spellings must be tolerated.
type chunkPayload struct {
	Questions   []ExtractedItem     `json:"questions"`
	QAPairs     []ExtractedItem     `json:"qa_pairs"`
	Narrative   string              `json:"narrative_content"`
	Description string              `json:"description"`
	Metadata    *models.RfiMetadata `json:"meta_data"`
}

// decodeFragment parses an LLM response into a Fragment, stripping markdown
// code fences first since models often wrap JSON output in them.
func decodeFragment(raw string) (Fragment, error) {
	cleaned := stripCodeFences(raw)

	var payload chunkPayload
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		return Fragment{}, fmt.Errorf("failed to decode extraction JSON: %w", err)
	}

	items := payload.QAPairs
	if len(items) == 0 {
		items = payload.Questions
	}
	narrative := payload.Description
	if narrative == "" {
		narrative = payload.Narrative
	}

	return Fragment{
		Items:     items,
		Narrative: narrative,
		Meta:      payload.Metadata,
	}, nil
}

// stripCodeFences removes a surrounding ```json ... ``` fence if present
func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// mergeFragments combines two fragments produced from adjacent halves of a
// bisected chunk: item lists concatenate, narratives join with a blank line,
// and the left half's metadata wins when both carry one.
func mergeFragments(left, right Fragment) Fragment {
	merged := Fragment{
		Items: append(append([]ExtractedItem{}, left.Items...), right.Items...),
	}

	narrative := strings.TrimSpace(left.Narrative) + "\n\n" + strings.TrimSpace(right.Narrative)
	merged.Narrative = strings.TrimSpace(narrative)

	merged.Meta = left.Meta
	if merged.Meta == nil {
		merged.Meta = right.Meta
	}
	return merged
}
