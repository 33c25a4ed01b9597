package analyzer

import "errors"

// Result bundles a located log, its records and their summary.
type Result struct {
	Path    string   `json:"path,omitempty"`
	Found   bool     `json:"found"`
	Records []Record `json:"-"`
	Summary Summary  `json:"summary"`
}

// Analyze locates the first existing candidate under root, parses and
// summarizes it. No existing candidate is not an error: Found is false and
// the summary is empty.
func Analyze(root string, candidates []string) (Result, error) {
	path, ok := Locate(root, candidates)
	if !ok {
		return Result{}, nil
	}
	return AnalyzeFile(path)
}

// AnalyzeFile parses and summarizes a specific log.
func AnalyzeFile(path string) (Result, error) {
	res := Result{Path: path}
	records, err := Parse(path)
	if err != nil && errors.Is(err, ErrLogNotFound) {
		return res, err
	}
	res.Found = true
	res.Records = records
	res.Summary = Summarize(records)
	return res, err
}
