package model

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/apperr"
)

var scorePattern = regexp.MustCompile(`^(\d+):(\d+)$`)

// Score 一个系列赛比分
type Score struct {
	Team1 int
	Team2 int
}

func (s Score) String() string {
	return fmt.Sprintf("%d:%d", s.Team1, s.Team2)
}

// ParseScore 解析 a:b 格式，超出 int 范围的数字视为超过赛制
func ParseScore(text string) (Score, error) {
	m := scorePattern.FindStringSubmatch(text)
	if m == nil {
		return Score{}, apperr.Validation(apperr.CodeBadFormat, "格式錯誤！請使用 num:num 格式，例如 2:1")
	}
	a, errA := strconv.Atoi(m[1])
	b, errB := strconv.Atoi(m[2])
	if errA != nil || errB != nil {
		return Score{}, apperr.Validation(apperr.CodeExceedsFormat, "比分數字過大！")
	}
	return Score{Team1: a, Team2: b}, nil
}

// CheckScore 检查比分是否是该赛制下一个已结束的系列赛：一方恰好达到获胜局数，另一方严格少于
func (f Format) CheckScore(s Score) error {
	maxWins := f.MaxWins()
	if s.Team1 < 0 || s.Team2 < 0 || s.Team1 > maxWins || s.Team2 > maxWins {
		return apperr.Validation(apperr.CodeExceedsFormat, fmt.Sprintf("%s 最高只能到 %d 勝！", f, maxWins))
	}
	if s.Team1 == maxWins && s.Team2 == maxWins {
		return apperr.Validation(apperr.CodeImpossibleTie, "兩隊不能同時達到最高勝場！")
	}
	if s.Team1 != maxWins && s.Team2 != maxWins {
		return apperr.Validation(apperr.CodeNoWinner, "必須有一隊達到獲勝條件！")
	}
	return nil
}
