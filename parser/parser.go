package parser

import (
	"context"
	"errors"
	"fmt"
	"log"
	"regexp"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"rfiresponder-backend/llm"
	"rfiresponder-backend/models"
)

const (
	sectionThreshold = 4000
	sectionOverlap   = 500
	summaryMaxChars  = 12000
)

// DocumentParser turns raw markdown text into a structured ParsedDocument by
// fanning extraction out over section chunks and reconciling the fragments.
type DocumentParser struct {
	gen       llm.Generator
	extractor Extractor
	variant   Variant
	threshold int
	overlap   int
	workers   int
}

// ParserOption customizes a DocumentParser
type ParserOption func(*DocumentParser)

// WithExtractor replaces the default Gemini-backed extractor
func WithExtractor(e Extractor) ParserOption {
	return func(p *DocumentParser) {
		p.extractor = e
	}
}

// WithChunking overrides the section splitting parameters
func WithChunking(threshold, overlap int) ParserOption {
	return func(p *DocumentParser) {
		p.threshold = threshold
		p.overlap = overlap
	}
}

// WithWorkers bounds the extraction fan-out
func WithWorkers(n int) ParserOption {
	return func(p *DocumentParser) {
		if n > 0 {
			p.workers = n
		}
	}
}

// NewDocumentParser creates a parser for the given variant. The generator is
// used for the document summary and, unless WithExtractor overrides it, for
// chunk extraction.
func NewDocumentParser(gen llm.Generator, variant Variant, opts ...ParserOption) *DocumentParser {
	p := &DocumentParser{
		gen:       gen,
		variant:   variant,
		threshold: sectionThreshold,
		overlap:   sectionOverlap,
		workers:   runtime.NumCPU(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.extractor == nil {
		p.extractor = NewGeminiExtractor(gen, variant)
	}
	return p
}

// Parse extracts the full structured payload from a document's markdown text
func (p *DocumentParser) Parse(ctx context.Context, text string) (*models.ParsedDocument, error) {
	if strings.TrimSpace(text) == "" {
		return nil, errors.New("cannot parse empty document text")
	}

	summary := p.summarize(ctx, text)

	chunks := SplitSections(text, p.threshold, p.overlap)
	if len(chunks) == 0 {
		return nil, errors.New("document produced no parseable sections")
	}

	fragments := make([]Fragment, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, chunk := range chunks {
		g.Go(func() error {
			fragments[i] = processChunk(gctx, p.extractor, chunk)
			return nil
		})
	}
	// processChunk never errors; Wait only surfaces context cancellation
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("extraction fan-out aborted: %w", err)
	}

	doc := p.assemble(summary, fragments)
	doc.Metadata = reconcileMetadata(fragments, summary)

	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("parsed document failed validation: %w", err)
	}
	return doc, nil
}

// summarize produces the document summary; a failure degrades to an empty
// summary rather than failing the parse.
func (p *DocumentParser) summarize(ctx context.Context, text string) string {
	truncated := text
	if len(truncated) > summaryMaxChars {
		truncated = truncated[:summaryMaxChars]
	}
	summary, err := p.gen.Generate(ctx, extractionSystemPrompt, fmt.Sprintf(summaryPrompt, truncated))
	if err != nil {
		log.Printf("Warning: document summary failed: %v", err)
		return ""
	}
	return strings.TrimSpace(summary)
}

// assemble merges per-chunk fragments in document order, deduplicating items
// by the variant's identity key while keeping first occurrences.
func (p *DocumentParser) assemble(summary string, fragments []Fragment) *models.ParsedDocument {
	doc := &models.ParsedDocument{Summary: summary}

	seen := make(map[string]struct{})
	var narratives []string
	for _, frag := range fragments {
		if n := strings.TrimSpace(frag.Narrative); n != "" {
			narratives = append(narratives, n)
		}
		for _, item := range frag.Items {
			key := p.dedupKey(item)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			if p.variant == VariantBlank {
				doc.Questions = append(doc.Questions, models.Question{
					Question: item.Question,
					Domain:   item.Domain,
					Type:     item.Type,
				})
			} else {
				doc.QAPairs = append(doc.QAPairs, models.QAPair{
					Question: item.Question,
					Answer:   item.Answer,
					Domain:   item.Domain,
					Type:     item.Type,
				})
			}
		}
	}
	doc.Description = strings.Join(narratives, "\n\n")
	return doc
}

// dedupKey builds the case-insensitive identity key for an extracted item:
// (question, answer) for filled documents, (question, domain) for blank
// templates.
func (p *DocumentParser) dedupKey(item ExtractedItem) string {
	q := strings.ToLower(strings.TrimSpace(item.Question))
	if p.variant == VariantBlank {
		return q + "\x00" + strings.ToLower(strings.TrimSpace(item.Domain))
	}
	return q + "\x00" + strings.ToLower(strings.TrimSpace(item.Answer))
}

var companyNamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)company\s*name\s*:\s*(.+)`),
	regexp.MustCompile(`(?i)client\s*:\s*(.+)`),
	regexp.MustCompile(`(?i)for\s*:\s*(.+)`),
	regexp.MustCompile(`(?i)recipient\s*:\s*(.+)`),
	regexp.MustCompile(`(?i)questionnaire\s+is\s+for\s+(.+)`),
	regexp.MustCompile(`(?i)for\s+the\s+company\s+(.+)`),
}

// reconcileMetadata picks the first metadata record any fragment produced,
// then fills whatever is still missing: company name by pattern scan over the
// document summary, date with today, category and type with defaults. A
// document always leaves parsing with complete metadata.
func reconcileMetadata(fragments []Fragment, summary string) *models.RfiMetadata {
	meta := &models.RfiMetadata{}
	for _, frag := range fragments {
		if frag.Meta != nil {
			copied := *frag.Meta
			meta = &copied
			break
		}
	}

	if strings.TrimSpace(meta.CompanyName) == "" {
		meta.CompanyName = findCompanyName(summary)
	}
	if strings.TrimSpace(meta.Date) == "" {
		meta.Date = time.Now().Format("2006-01-02")
	}
	if meta.Category != "RFI" && meta.Category != "RFP" {
		meta.Category = "RFI"
	}
	if strings.TrimSpace(meta.Type) == "" {
		meta.Type = "PastResponse"
	}
	return meta
}

// findCompanyName scans the document for common labelling patterns and
// returns the first match, or "Unknown" when none hit.
func findCompanyName(text string) string {
	for _, pat := range companyNamePatterns {
		if m := pat.FindStringSubmatch(text); m != nil {
			// captures can run across lines; only the first line is the name
			name := strings.TrimSpace(strings.SplitN(m[1], "\n", 2)[0])
			name = strings.Trim(name, " *#")
			if name != "" {
				return name
			}
		}
	}
	return "Unknown"
}
