package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/airdropindexer/evmscan/common"
	"github.com/airdropindexer/evmscan/model"
)

var staticLogger = keywordLogger // shared module logger for the analyzer package

// StaticAnalyzer wraps a Slither-compatible static-analysis subprocess,
// grounded on original_source/src/utils/slither_analyzer.py.
type StaticAnalyzer struct {
	binaryPath string
	workDir    string
	timeout    time.Duration
}

func NewStaticAnalyzer(binaryPath, workDir string, timeout time.Duration) *StaticAnalyzer {
	return &StaticAnalyzer{binaryPath: binaryPath, workDir: workDir, timeout: timeout}
}

// sourceFile is one entry of a multi-file Etherscan "sources" map.
type sourceFile struct {
	Content string `json:"content"`
}

type multiFileSource struct {
	Source  string                `json:"source"`
	Sources map[string]sourceFile `json:"sources"`
}

// prepareSourceFiles unpacks sourceCodeJSON into a fresh temp directory,
// either as a single Contract.sol (the {"source": ...} shape) or as the
// relative-path tree under "sources". root is symlink-resolved; every
// relative path is joined onto it, cleaned to an absolute path, and checked
// to still live under root before a file is written — the path-traversal
// guard from slither_analyzer.py.
func (a *StaticAnalyzer) prepareSourceFiles(root string, sourceCodeJSON string) error {
	var parsed multiFileSource
	if err := json.Unmarshal([]byte(sourceCodeJSON), &parsed); err != nil {
		return common.Structural(err, "invalid source_code json structure")
	}

	safeRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		safeRoot = root
	}

	if parsed.Source != "" {
		path := filepath.Join(safeRoot, "Contract.sol")
		return ioutil.WriteFile(path, []byte(parsed.Source), 0o600)
	}

	if len(parsed.Sources) > 0 {
		for relPath, content := range parsed.Sources {
			joined := filepath.Join(safeRoot, relPath)
			full, err := filepath.Abs(joined)
			if err != nil {
				return common.Structural(err, "resolve source path")
			}
			if !isWithinRoot(safeRoot, full) {
				staticLogger.Error("path traversal attempt detected", "path", relPath)
				return fmt.Errorf("%w: %s", common.ErrPathTraversal, relPath)
			}
			if err := os.MkdirAll(filepath.Dir(full), 0o700); err != nil {
				return err
			}
			if err := ioutil.WriteFile(full, []byte(content.Content), 0o600); err != nil {
				return err
			}
		}
		return nil
	}

	return common.Structural(fmt.Errorf("neither source nor sources key present"), "unknown source_code json structure")
}

// isWithinRoot reports whether full still has root as a path prefix after
// resolution — the os.path.commonprefix check from the original, expressed
// with filepath.Rel so a sibling directory sharing a string prefix (e.g.
// "/tmp/abc" vs "/tmp/abcdef") is not mistaken for being inside root.
func isWithinRoot(root, full string) bool {
	rel, err := filepath.Rel(root, full)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// RawReport is the parsed JSON the analyzer subprocess prints to stdout.
type RawReport struct {
	Success bool                   `json:"success"`
	Results map[string]interface{} `json:"results"`
	Error   string                 `json:"error"`
}

// AnalyzeSourceCode unpacks sourceCodeJSON into an isolated temp directory
// and runs the analyzer binary against it, returning the parsed report.
func (a *StaticAnalyzer) AnalyzeSourceCode(ctx context.Context, sourceCodeJSON string) (*RawReport, error) {
	tempDir, err := ioutil.TempDir(a.workDir, "analyzer-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tempDir)

	if err := a.prepareSourceFiles(tempDir, sourceCodeJSON); err != nil {
		// Every prepareSourceFiles failure, including a path-traversal attempt,
		// is scoped to this one source: it becomes a structured failure report
		// rather than a Go error, so the caller's batch transaction commits
		// instead of rolling back every leased source alongside this one.
		return &RawReport{Success: false, Error: fmt.Sprintf("failed to prepare source files: %v", err)}, nil
	}

	runCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, a.binaryPath, ".", "--json", "-")
	cmd.Dir = tempDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	_ = cmd.Run() // exit status carried in the JSON report, not inspected here

	if stderr.Len() > 0 {
		staticLogger.Warn("static analyzer stderr", "dir", tempDir, "stderr", stderr.String())
	}

	report := &RawReport{}
	if stdout.Len() == 0 {
		report.Success = false
		report.Error = "empty stdout"
		return report, nil
	}
	if err := json.Unmarshal(stdout.Bytes(), report); err != nil {
		staticLogger.Error("failed to decode analyzer json output", "err", err)
		report.Success = false
		report.Error = "JSONDecodeError"
	}
	return report, nil
}

// ClassifySourceReport reduces a RawReport to the 5-level classification
// spec.md §4.7 defines: 1=compile failure, 3=high finding, 2=medium
// finding, 4=low finding, 5=clean. Also returns the report JSON persisted
// into evm_contract_source.security_analysis_report.
func ClassifySourceReport(report *RawReport) (int, string) {
	withProvider := map[string]interface{}{
		"success":  report.Success,
		"results":  report.Results,
		"error":    report.Error,
		"provider": "StaticAnalyzer",
	}
	reportJSON, _ := json.Marshal(map[string]interface{}{"slither": withProvider})

	if !report.Success {
		return model.SecurityCompileFailure, string(reportJSON)
	}

	detectors, _ := report.Results["detectors"].([]interface{})
	if len(detectors) == 0 {
		return model.SecurityClean, string(reportJSON)
	}

	impacts := map[string]bool{}
	for _, d := range detectors {
		if entry, ok := d.(map[string]interface{}); ok {
			if impact, ok := entry["impact"].(string); ok {
				impacts[impact] = true
			}
		}
	}
	switch {
	case impacts["High"]:
		return model.SecurityHigh, string(reportJSON)
	case impacts["Medium"]:
		return model.SecurityMedium, string(reportJSON)
	case impacts["Low"]:
		return model.SecurityLow, string(reportJSON)
	default:
		return model.SecurityClean, string(reportJSON)
	}
}
