/*
 * @module api/controllers/quality_controller_test
 * @description 数据质量控制器接口测试
 * @architecture 测试层 - httptest 请求级验证
 * @documentReference .specify/memory/test_plan.md
 * @stateFlow 构造请求 -> 控制器处理 -> 响应结构断言
 * @rules 验证统一响应格式和非法数据集的错误映射
 * @dependencies testing, testify, net/http/httptest
 * @refs quality_controller.go
 */

package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"quality-service/service/analysis"
	"quality-service/service/quality"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestController() *QualityController {
	engine := quality.NewEngine(nil)
	return NewQualityController(engine, analysis.NewService(engine, nil, nil, nil, nil, nil))
}

func decodeResponse(t *testing.T, body *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal(body.Bytes(), &payload))
	return payload
}

func TestComputeScoreEndpoint(t *testing.T) {
	controller := newTestController()

	body := `{
		"name": "用户数据集",
		"columns": [
			{"name": "user_id", "declared_type": "numeric"},
			{"name": "email", "declared_type": "categorical"}
		],
		"records": [
			{"user_id": 1, "email": "a@example.com"},
			{"user_id": 2, "email": null}
		]
	}`

	req := httptest.NewRequest("POST", "/quality/score", bytes.NewBufferString(body))
	recorder := httptest.NewRecorder()
	controller.ComputeScore(recorder, req)

	payload := decodeResponse(t, recorder.Body)
	assert.Equal(t, float64(0), payload["status"])
	data, ok := payload["data"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, data, "overall")
	assert.Contains(t, data, "completeness")
}

func TestAnalyzeDatasetInvalidStructure(t *testing.T) {
	controller := newTestController()

	// 重复列名是结构性错误
	body := `{
		"name": "坏数据集",
		"columns": [{"name": "a"}, {"name": "a"}],
		"records": []
	}`

	req := httptest.NewRequest("POST", "/quality/analyze", bytes.NewBufferString(body))
	recorder := httptest.NewRecorder()
	controller.AnalyzeDataset(recorder, req)

	payload := decodeResponse(t, recorder.Body)
	assert.Equal(t, float64(400), payload["status"])
}

func TestDetectIssuesEndpoint(t *testing.T) {
	controller := newTestController()

	body := `{
		"name": "用户数据集",
		"columns": [{"name": "age", "declared_type": "numeric"}],
		"records": [{"age": 30}, {"age": -5}]
	}`

	req := httptest.NewRequest("POST", "/quality/issues", bytes.NewBufferString(body))
	recorder := httptest.NewRecorder()
	controller.DetectIssues(recorder, req)

	payload := decodeResponse(t, recorder.Body)
	assert.Equal(t, float64(0), payload["status"])
	issues, ok := payload["data"].([]interface{})
	require.True(t, ok)
	require.Len(t, issues, 1)
	issue := issues[0].(map[string]interface{})
	assert.Equal(t, "accuracy", issue["category"])
	assert.Equal(t, "high", issue["severity"])
}

func TestMalformedRequestBody(t *testing.T) {
	controller := newTestController()

	req := httptest.NewRequest("POST", "/quality/score", bytes.NewBufferString("不是JSON"))
	recorder := httptest.NewRecorder()
	controller.ComputeScore(recorder, req)

	payload := decodeResponse(t, recorder.Body)
	assert.Equal(t, float64(400), payload["status"])
}
