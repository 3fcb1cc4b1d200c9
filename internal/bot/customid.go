package bot

import "strings"

// 按钮、表单的 custom_id 前缀
const (
	predictButtonPrefix   = "predict:"
	predictionModalPrefix = "prediction:"
	scoreInputID          = "score"
)

// PredictButtonID 公告中“進行預測”按钮的 custom_id
func PredictButtonID(matchID string) string {
	return predictButtonPrefix + matchID
}

// PredictionModalID 比分输入表单的 custom_id
func PredictionModalID(matchID string) string {
	return predictionModalPrefix + matchID
}

// matchIDFrom 取出 custom_id 中的比赛ID，前缀不符或ID为空时返回 false
func matchIDFrom(customID, prefix string) (string, bool) {
	if !strings.HasPrefix(customID, prefix) {
		return "", false
	}
	id := strings.TrimPrefix(customID, prefix)
	if id == "" {
		return "", false
	}
	return id, true
}
