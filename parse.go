package systree

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
)

// Success summary emitted by the engine when it is not asked for JSON:
// "✓ Analyzed 10 files: 123 symbols, 0 warnings". Singular and plural both
// occur; the trailing warning count is ignored.
var summaryPattern = regexp.MustCompile(`Analyzed (\d+) files?: (\d+) symbols?`)

// Import summary: "Imported 42 elements, 7 relationships". The element count
// maps to the symbol count; an import always covers one artifact.
var importPattern = regexp.MustCompile(`Imported (\d+) elements?, (\d+) relationships?`)

// analysisPayload is the engine's structured run summary. Every field is
// optional; missing counts default to zero and missing diagnostics to empty.
type analysisPayload struct {
	FileCount    int          `json:"file_count"`
	SymbolCount  int          `json:"symbol_count"`
	ErrorCount   int          `json:"error_count"`
	WarningCount int          `json:"warning_count"`
	Diagnostics  []Diagnostic `json:"diagnostics"`
}

// parseAnalysis turns captured stdout into an AnalysisResult. A structured
// decode is attempted first; the fixed textual patterns apply only when the
// payload is not valid JSON at all, so a decodable-but-odd response can never
// be masked by a summary line embedded in it. isImport additionally enables
// the import summary pattern. Unparseable output is an error, never a
// zero-valued result: zero would be indistinguishable from "nothing found".
func parseAnalysis(stdout, stderr []byte, isImport bool) (*AnalysisResult, error) {
	trimmed := bytes.TrimSpace(stdout)

	// Step 1 wants a JSON object; a bare number or string is not a
	// structured summary even though it would unmarshal.
	var payload analysisPayload
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Unmarshal(trimmed, &payload) == nil {
		diags := payload.Diagnostics
		if diags == nil {
			diags = []Diagnostic{}
		}
		return &AnalysisResult{
			FileCount:    payload.FileCount,
			SymbolCount:  payload.SymbolCount,
			ErrorCount:   payload.ErrorCount,
			WarningCount: payload.WarningCount,
			Diagnostics:  diags,
		}, nil
	}

	text := string(stdout)

	if m := summaryPattern.FindStringSubmatch(text); m != nil {
		files, err1 := strconv.Atoi(m[1])
		symbols, err2 := strconv.Atoi(m[2])
		if err1 == nil && err2 == nil {
			return &AnalysisResult{
				FileCount:   files,
				SymbolCount: symbols,
				Diagnostics: []Diagnostic{},
			}, nil
		}
	}

	if isImport {
		if m := importPattern.FindStringSubmatch(text); m != nil {
			elements, err := strconv.Atoi(m[1])
			if err == nil {
				return &AnalysisResult{
					FileCount:   1,
					SymbolCount: elements,
					Diagnostics: []Diagnostic{},
				}, nil
			}
		}
	}

	return nil, parseFailed(text, string(stderr))
}
