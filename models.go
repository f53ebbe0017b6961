package systree

// AnalysisResult summarizes one engine run over a file or directory.
// Values are immutable once returned; the caller owns the struct.
type AnalysisResult struct {
	FileCount    int          `json:"file_count"`
	SymbolCount  int          `json:"symbol_count"`
	ErrorCount   int          `json:"error_count"`
	WarningCount int          `json:"warning_count"`
	Diagnostics  []Diagnostic `json:"diagnostics,omitempty"`
}

// Diagnostic is one structured message emitted by the engine.
type Diagnostic struct {
	Severity string `json:"severity,omitempty"`
	Message  string `json:"message,omitempty"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

// Symbol is one named element discovered in a source file.
// Location fields are 1-based; zero means the engine did not report them.
// Identity is by name only: Supertypes holds names, not references.
type Symbol struct {
	Name          string   `json:"name"`
	QualifiedName string   `json:"qualified_name"`
	Kind          string   `json:"kind"` // e.g. "Package", "PartDef", "PartUsage"
	File          string   `json:"file,omitempty"`
	StartLine     int      `json:"start_line,omitempty"`
	StartCol      int      `json:"start_col,omitempty"`
	EndLine       int      `json:"end_line,omitempty"`
	EndCol        int      `json:"end_col,omitempty"`
	Supertypes    []string `json:"supertypes,omitempty"`
}

// FileSymbols groups the symbols of a single source file.
// Symbol order is the engine's emission order and is never re-sorted:
// callers rely on positional correspondence with source line order.
type FileSymbols struct {
	Path    string   `json:"path"`
	Symbols []Symbol `json:"symbols"`
}

// TotalSymbols returns the symbol count across all files.
func TotalSymbols(files []FileSymbols) int {
	n := 0
	for _, f := range files {
		n += len(f.Symbols)
	}
	return n
}
