package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airdropindexer/evmscan/model"
)

func TestIsWithinRoot(t *testing.T) {
	assert.True(t, isWithinRoot("/tmp/abc", "/tmp/abc/Foo.sol"))
	assert.True(t, isWithinRoot("/tmp/abc", "/tmp/abc/nested/Foo.sol"))
	assert.False(t, isWithinRoot("/tmp/abc", "/tmp/abcdef/Foo.sol"))
	assert.False(t, isWithinRoot("/tmp/abc", "/tmp/other/Foo.sol"))
	assert.False(t, isWithinRoot("/tmp/abc", "/tmp/abc/../outside/Foo.sol"))
}

func TestClassifySourceReport_CompileFailure(t *testing.T) {
	status, reportJSON := ClassifySourceReport(&RawReport{Success: false, Error: "boom"})
	assert.Equal(t, model.SecurityCompileFailure, status)
	assert.Contains(t, reportJSON, "slither")
}

func TestClassifySourceReport_CleanNoDetectors(t *testing.T) {
	status, _ := ClassifySourceReport(&RawReport{Success: true, Results: map[string]interface{}{}})
	assert.Equal(t, model.SecurityClean, status)
}

func TestClassifySourceReport_HighImpactWins(t *testing.T) {
	report := &RawReport{
		Success: true,
		Results: map[string]interface{}{
			"detectors": []interface{}{
				map[string]interface{}{"impact": "Low"},
				map[string]interface{}{"impact": "High"},
				map[string]interface{}{"impact": "Medium"},
			},
		},
	}
	status, _ := ClassifySourceReport(report)
	assert.Equal(t, model.SecurityHigh, status)
}

func TestClassifySourceReport_MediumBeatsLow(t *testing.T) {
	report := &RawReport{
		Success: true,
		Results: map[string]interface{}{
			"detectors": []interface{}{
				map[string]interface{}{"impact": "Low"},
				map[string]interface{}{"impact": "Medium"},
			},
		},
	}
	status, _ := ClassifySourceReport(report)
	assert.Equal(t, model.SecurityMedium, status)
}

func TestAnalyzeSourceCode_PathTraversalYieldsFailureReportNotError(t *testing.T) {
	a := NewStaticAnalyzer("slither", t.TempDir(), 0)
	sourceJSON := `{"sources": {"../../etc/passwd": {"content": "evil"}}}`

	report, err := a.AnalyzeSourceCode(context.Background(), sourceJSON)

	require.NoError(t, err)
	require.NotNil(t, report)
	assert.False(t, report.Success)
	assert.Contains(t, report.Error, "failed to prepare source files")

	status, _ := ClassifySourceReport(report)
	assert.Equal(t, model.SecurityCompileFailure, status)
}

func TestClassifySourceReport_LowOnly(t *testing.T) {
	report := &RawReport{
		Success: true,
		Results: map[string]interface{}{
			"detectors": []interface{}{
				map[string]interface{}{"impact": "Low"},
			},
		},
	}
	status, _ := ClassifySourceReport(report)
	assert.Equal(t, model.SecurityLow, status)
}
