// Package export validates the structural shape of an ingestion job's
// exported chunk record set.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// chunkSchema is the required shape of an export file: a non-empty array
// of chunk records, each with full metadata.
const chunkSchema = `{
	"type": "array",
	"minItems": 1,
	"items": {
		"type": "object",
		"required": ["id", "document_id", "content", "metadata"],
		"properties": {
			"id": {"type": "string"},
			"document_id": {"type": "string"},
			"content": {"type": "string"},
			"metadata": {
				"type": "object",
				"required": ["source", "page_number", "chunk_index", "token_count", "created_at"],
				"properties": {
					"source": {"type": "string"},
					"page_number": {"type": "integer"},
					"chunk_index": {"type": "integer"},
					"token_count": {"type": "integer"},
					"created_at": {"type": "string"}
				}
			}
		}
	}
}`

// ValidationErrorItem is one schema violation.
type ValidationErrorItem struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// ValidationError reports why an export file failed verification.
type ValidationError struct {
	File   string                `json:"file"`
	Errors []ValidationErrorItem `json:"validation_errors"`
}

func (e *ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("export %s failed validation", e.File)
	}
	parts := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		parts = append(parts, item.Path+": "+item.Message)
	}
	return fmt.Sprintf("export %s failed validation: %s", e.File, strings.Join(parts, "; "))
}

// Info summarizes a verified export file.
type Info struct {
	TotalChunks     int      `json:"totalChunks"`
	UniqueDocuments int      `json:"uniqueDocuments"`
	TotalTokens     int      `json:"totalTokens"`
	SourceFiles     []string `json:"sourceFiles"`
}

type chunkRecord struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Content    string `json:"content"`
	Metadata   struct {
		Source     string `json:"source"`
		TokenCount int    `json:"token_count"`
	} `json:"metadata"`
}

// VerifyFile validates the export file at path against the chunk schema
// and returns summary statistics on success.
func VerifyFile(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}
	return Verify(path, data)
}

// Verify validates raw export JSON. The name is only used in error
// reporting.
func Verify(name string, data []byte) (*Info, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(chunkSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, fmt.Errorf("validate export: %w", err)
	}
	if !result.Valid() {
		verr := &ValidationError{File: name}
		for _, item := range result.Errors() {
			verr.Errors = append(verr.Errors, ValidationErrorItem{
				Path:    item.Field(),
				Message: item.Description(),
			})
		}
		return nil, verr
	}

	var chunks []chunkRecord
	if err := json.Unmarshal(data, &chunks); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}

	docs := make(map[string]struct{})
	sources := make(map[string]struct{})
	totalTokens := 0
	for _, c := range chunks {
		docs[c.DocumentID] = struct{}{}
		sources[c.Metadata.Source] = struct{}{}
		totalTokens += c.Metadata.TokenCount
	}

	info := &Info{
		TotalChunks:     len(chunks),
		UniqueDocuments: len(docs),
		TotalTokens:     totalTokens,
		SourceFiles:     make([]string, 0, len(sources)),
	}
	for s := range sources {
		info.SourceFiles = append(info.SourceFiles, s)
	}
	sort.Strings(info.SourceFiles)
	return info, nil
}
