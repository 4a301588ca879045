package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"rfiresponder-backend/llm"
)

// classifierMaxChars bounds how much of a document the classifier sees
const classifierMaxChars = 8000

// Classification labels a document for routing and knowledge-base grading
type Classification struct {
	DocumentType  string `json:"document_type"`
	DocumentGrade string `json:"document_grade"`
}

// Classifier assigns a document type and grade from raw text
type Classifier struct {
	gen llm.Generator
}

func NewClassifier(gen llm.Generator) *Classifier {
	return &Classifier{gen: gen}
}

// Classify runs the classification prompt over the document head. Transport
// errors propagate so the caller can fail the stage; a response that is not
// valid JSON degrades to the fallback classification instead, since the call
// itself succeeded and retrying rarely helps.
func (c *Classifier) Classify(ctx context.Context, text string) (Classification, error) {
	truncated := text
	if len(truncated) > classifierMaxChars {
		truncated = truncated[:classifierMaxChars]
	}

	raw, err := c.gen.Generate(ctx, classifierSystemPrompt, fmt.Sprintf(classifierPrompt, truncated))
	if err != nil {
		return Classification{}, fmt.Errorf("classification call failed: %w", err)
	}

	var result Classification
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &result); err != nil {
		log.Printf("Warning: classifier returned malformed JSON, using fallback: %v", err)
		return Classification{DocumentType: "Unclassified", DocumentGrade: "Parsing Error"}, nil
	}
	if strings.TrimSpace(result.DocumentType) == "" {
		result.DocumentType = "Unclassified"
	}
	if strings.TrimSpace(result.DocumentGrade) == "" {
		result.DocumentGrade = "Parsing Error"
	}
	return result, nil
}
