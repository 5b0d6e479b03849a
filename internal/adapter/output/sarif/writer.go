// Package sarif serializes findings as SARIF 2.1.0 for code-scanning
// upload, one run per tool.
package sarif

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lintgate/lintgate/internal/domain"
	"github.com/lintgate/lintgate/internal/usecase/review"
)

const schemaURI = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"

// Writer implements the review.SARIFWriter interface.
type Writer struct {
	toolVersion string
}

var _ review.SARIFWriter = (*Writer)(nil)

// NewWriter creates a SARIF writer stamping the given tool version into the
// driver blocks.
func NewWriter(toolVersion string) *Writer {
	if toolVersion == "" {
		toolVersion = "0.0.0"
	}
	return &Writer{toolVersion: toolVersion}
}

// WriteSARIF persists the findings to path, creating parent directories as
// needed. Both tool runs are always present, possibly with empty results,
// so uploads stay stable across clean and dirty runs.
func (w *Writer) WriteSARIF(path string, files []domain.ChangedFile) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create sarif directory: %w", err)
		}
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create sarif file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(w.convert(files)); err != nil {
		return fmt.Errorf("encode sarif: %w", err)
	}
	return nil
}

func (w *Writer) convert(files []domain.ChangedFile) map[string]interface{} {
	return map[string]interface{}{
		"version": "2.1.0",
		"$schema": schemaURI,
		"runs": []map[string]interface{}{
			w.tidyRun(files),
			w.formatRun(files),
		},
	}
}

func (w *Writer) tidyRun(files []domain.ChangedFile) map[string]interface{} {
	results := make([]map[string]interface{}, 0)
	seen := make(map[string]bool)
	rules := make([]map[string]interface{}, 0)

	for _, f := range files {
		for _, d := range f.Tidy {
			ruleID := d.Check
			if ruleID == "" {
				ruleID = "clang-diagnostic"
			}
			if !seen[ruleID] {
				seen[ruleID] = true
				rules = append(rules, map[string]interface{}{
					"id":      ruleID,
					"helpUri": "https://clang.llvm.org/extra/clang-tidy/checks/list.html",
				})
			}

			result := map[string]interface{}{
				"ruleId":  ruleID,
				"level":   convertSeverity(d.Severity),
				"message": map[string]interface{}{"text": d.Message},
			}
			if d.Line >= 1 {
				region := map[string]interface{}{"startLine": d.Line}
				if d.Column >= 1 {
					region["startColumn"] = d.Column
				}
				result["locations"] = []map[string]interface{}{
					{"physicalLocation": map[string]interface{}{
						"artifactLocation": map[string]interface{}{"uri": f.Path},
						"region":           region,
					}},
				}
			}
			results = append(results, result)
		}
	}

	return w.run(string(domain.ToolClangTidy), rules, results)
}

func (w *Writer) formatRun(files []domain.ChangedFile) map[string]interface{} {
	results := make([]map[string]interface{}, 0)

	for _, f := range files {
		if f.Format == nil {
			continue
		}
		for _, r := range f.Format.Ranges {
			message := fmt.Sprintf("Lines %d-%d do not match the configured format style.", r.Start, r.End)
			if r.SingleLine() {
				message = fmt.Sprintf("Line %d does not match the configured format style.", r.Start)
			}
			results = append(results, map[string]interface{}{
				"ruleId":  "format-style",
				"level":   "note",
				"message": map[string]interface{}{"text": message},
				"locations": []map[string]interface{}{
					{"physicalLocation": map[string]interface{}{
						"artifactLocation": map[string]interface{}{"uri": f.Path},
						"region": map[string]interface{}{
							"startLine": r.Start,
							"endLine":   r.End,
						},
					}},
				},
			})
		}
	}

	rules := []map[string]interface{}{
		{
			"id":               "format-style",
			"shortDescription": map[string]interface{}{"text": "File content matches the configured clang-format style"},
		},
	}
	return w.run(string(domain.ToolClangFormat), rules, results)
}

func (w *Writer) run(toolName string, rules, results []map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"tool": map[string]interface{}{
			"driver": map[string]interface{}{
				"name":           toolName,
				"informationUri": "https://github.com/lintgate/lintgate",
				"version":        w.toolVersion,
				"rules":          rules,
			},
		},
		"results": results,
	}
}

// convertSeverity maps tidy severities to SARIF levels.
func convertSeverity(severity domain.Severity) string {
	switch severity {
	case domain.SeverityError:
		return "error"
	case domain.SeverityNote:
		return "note"
	default:
		return "warning"
	}
}
