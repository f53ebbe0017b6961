package systree

import (
	"encoding/json"
)

// The engine's symbol payload is shape-varying: a list of per-file objects,
// a single per-file object, or {"files": [...]}. normalizeSymbols resolves
// that union once, here, into an ordered []FileSymbols so no shape checks
// leak into call sites. Order is preserved exactly at both the file and the
// symbol level.
func normalizeSymbols(stdout, stderr []byte) ([]FileSymbols, error) {
	var payload any
	if err := json.Unmarshal(stdout, &payload); err != nil {
		return nil, parseFailed(string(stdout), string(stderr))
	}

	var files []any
	switch v := payload.(type) {
	case []any:
		files = v
	case map[string]any:
		if inner, ok := v["files"].([]any); ok {
			files = inner
		} else {
			files = []any{v}
		}
	default:
		return nil, parseFailed(string(stdout), string(stderr))
	}

	result := make([]FileSymbols, 0, len(files))
	for _, entry := range files {
		fileObj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		result = append(result, normalizeFile(fileObj))
	}
	return result, nil
}

func normalizeFile(fileObj map[string]any) FileSymbols {
	path := stringField(fileObj, "file")
	if path == "" {
		path = stringField(fileObj, "path")
	}
	if path == "" {
		path = "unknown"
	}

	raw, _ := fileObj["symbols"].([]any)
	symbols := make([]Symbol, 0, len(raw))
	for _, entry := range raw {
		symObj, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		symbols = append(symbols, normalizeSymbol(symObj, path))
	}
	return FileSymbols{Path: path, Symbols: symbols}
}

func normalizeSymbol(symObj map[string]any, file string) Symbol {
	name := stringField(symObj, "name")
	qualified := stringField(symObj, "qualified_name")
	if qualified == "" {
		qualified = name
	}
	kind := stringField(symObj, "kind")
	if kind == "" {
		kind = "Unknown"
	}

	supertypes := []string{}
	if raw, ok := symObj["supertypes"].([]any); ok {
		for _, s := range raw {
			if str, ok := s.(string); ok {
				supertypes = append(supertypes, str)
			}
		}
	}

	return Symbol{
		Name:          name,
		QualifiedName: qualified,
		Kind:          kind,
		File:          file,
		StartLine:     intField(symObj, "start_line"),
		StartCol:      intField(symObj, "start_col"),
		EndLine:       intField(symObj, "end_line"),
		EndCol:        intField(symObj, "end_col"),
		Supertypes:    supertypes,
	}
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// intField reads a numeric field. encoding/json decodes numbers into
// float64 when the target is any.
func intField(m map[string]any, key string) int {
	f, ok := m[key].(float64)
	if !ok {
		return 0
	}
	return int(f)
}
