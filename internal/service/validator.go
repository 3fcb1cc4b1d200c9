package service

import (
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
)

// ValidatePrediction 校验预测比分文本是否是该赛制下合法的完赛比分，无副作用
func ValidatePrediction(scoreText string, format model.Format) (model.Score, error) {
	score, err := model.ParseScore(scoreText)
	if err != nil {
		return model.Score{}, err
	}
	if err := format.CheckScore(score); err != nil {
		return model.Score{}, err
	}
	return score, nil
}
