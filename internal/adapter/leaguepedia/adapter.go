// Package leaguepedia 基于 Leaguepedia cargoquery 接口的赛程数据源
package leaguepedia

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/adapter"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/apperr"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/config"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/interfaces"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/metrics"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/model"
	"github.com/Crazyfighting/LOL-Esports-Prediction-Bot/internal/utils/httpclient"
)

// ProviderName 注册表中的数据源名称
const ProviderName = "leaguepedia"

// cargo 返回的时间格式（UTC，无时区后缀）
const cargoTimeLayout = "2006-01-02 15:04:05"

const scheduleFields = "Team1,Team2,DateTime_UTC,BestOf,Team1Score,Team2Score,MatchId,OverviewPage"

func init() {
	adapter.Register(ProviderName, NewLeaguepediaAdapter)
}

// cargoResponse cargoquery 响应
type cargoResponse struct {
	CargoQuery []struct {
		Title cargoRow `json:"title"`
	} `json:"cargoquery"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// cargoRow MatchSchedule 表的一行，字段名为 cargo 的显示名
type cargoRow struct {
	Team1        string `json:"Team1"`
	Team2        string `json:"Team2"`
	DateTimeUTC  string `json:"DateTime UTC"`
	BestOf       string `json:"BestOf"`
	Team1Score   string `json:"Team1Score"`
	Team2Score   string `json:"Team2Score"`
	MatchID      string `json:"MatchId"`
	OverviewPage string `json:"OverviewPage"`
}

type Adapter struct {
	cfg        *config.SourceConfig
	httpClient *http.Client
	logger     *logrus.Logger
	results    singleflight.Group
	now        func() time.Time
}

// NewLeaguepediaAdapter 创建 Leaguepedia 数据源
func NewLeaguepediaAdapter(cfg *config.SourceConfig, logger *logrus.Logger) interfaces.MatchSource {
	return &Adapter{
		cfg:        cfg,
		httpClient: httpclient.NewHTTPClient(cfg, logger),
		logger:     logger,
		now:        time.Now,
	}
}

// GetName ========== 实现MatchSource接口 ==========
func (a *Adapter) GetName() string {
	return "Leaguepedia"
}

// FetchUpcoming 拉取 [start, end) 内关注赛区的比赛，跳过含 TBD 的对阵
func (a *Adapter) FetchUpcoming(ctx context.Context, start, end time.Time) []model.Match {
	where := fmt.Sprintf("DateTime_UTC >= '%s' AND DateTime_UTC < '%s' AND (%s)",
		start.UTC().Format(cargoTimeLayout), end.UTC().Format(cargoTimeLayout), a.leagueCondition())

	rows, err := a.query(ctx, url.Values{
		"fields":   {scheduleFields},
		"where":    {where},
		"order_by": {"DateTime_UTC ASC"},
		"limit":    {"500"},
	})
	if err != nil {
		metrics.SourceErrors.WithLabelValues("fetch_upcoming").Inc()
		a.logger.WithError(apperr.TransientSource("拉取Leaguepedia赛程失败", err)).Warn("本轮赛程按空列表处理")
		return []model.Match{}
	}

	matches := make([]model.Match, 0, len(rows))
	for _, row := range rows {
		m, ok := a.toMatch(row)
		if !ok {
			continue
		}
		if m.ScheduledAt.Before(start) || !m.ScheduledAt.Before(end) {
			continue
		}
		matches = append(matches, *m)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].ScheduledAt.Before(matches[j].ScheduledAt)
	})

	a.logger.Infof("成功获取Leaguepedia比赛共%d场（原始%d行）", len(matches), len(rows))
	return matches
}

// CheckResult 只有比分满足赛制的获胜条件时才视为完赛
func (a *Adapter) CheckResult(ctx context.Context, matchID string) (*model.MatchResult, bool) {
	v, err, _ := a.results.Do(matchID, func() (interface{}, error) {
		return a.checkResult(ctx, matchID)
	})
	if err != nil {
		metrics.SourceErrors.WithLabelValues("check_result").Inc()
		a.logger.WithError(apperr.TransientSource("查询Leaguepedia比赛结果失败", err)).
			WithField("match_id", matchID).Warn("按未完赛处理")
		return nil, false
	}
	result, _ := v.(*model.MatchResult)
	return result, result != nil
}

func (a *Adapter) checkResult(ctx context.Context, matchID string) (*model.MatchResult, error) {
	rows, err := a.query(ctx, url.Values{
		"fields": {scheduleFields},
		"where":  {fmt.Sprintf("MatchId = '%s'", escapeCargo(matchID))},
		"limit":  {"1"},
	})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	row := rows[0]

	if t, err := parseCargoTime(row.DateTimeUTC); err == nil && t.After(a.now()) {
		return nil, nil
	}
	if row.Team1Score == "" || row.Team2Score == "" {
		return nil, nil
	}
	s1, err1 := strconv.Atoi(strings.TrimSpace(row.Team1Score))
	s2, err2 := strconv.Atoi(strings.TrimSpace(row.Team2Score))
	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("比分格式异常: %q/%q", row.Team1Score, row.Team2Score)
	}

	// 部分上报的比分（如 BO3 的 1:1）不能当作最终结果
	format := model.ParseBestOf(row.BestOf)
	if err := format.CheckScore(model.Score{Team1: s1, Team2: s2}); err != nil {
		a.logger.WithFields(logrus.Fields{
			"match_id": matchID,
			"format":   format,
			"score":    fmt.Sprintf("%d:%d", s1, s2),
		}).Debug("比分尚未满足获胜条件")
		return nil, nil
	}

	winner := row.Team1
	if s2 > s1 {
		winner = row.Team2
	}
	return &model.MatchResult{
		MatchID: matchID,
		Team1:   row.Team1,
		Team2:   row.Team2,
		Winner:  winner,
		Score1:  s1,
		Score2:  s2,
	}, nil
}

func (a *Adapter) query(ctx context.Context, params url.Values) ([]cargoRow, error) {
	params.Set("action", "cargoquery")
	params.Set("format", "json")
	params.Set("tables", "MatchSchedule")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.cfg.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求Leaguepedia失败: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			a.logger.Errorf("关闭Leaguepedia响应体失败: %v", err)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("Leaguepedia返回状态码%d: %s", resp.StatusCode, string(body))
	}

	var out cargoResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("解析Leaguepedia响应失败: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("Leaguepedia错误 %s: %s", out.Error.Code, out.Error.Info)
	}

	rows := make([]cargoRow, 0, len(out.CargoQuery))
	for _, item := range out.CargoQuery {
		rows = append(rows, item.Title)
	}
	return rows, nil
}

// toMatch 转换为统一模型，不合格的行返回 false
func (a *Adapter) toMatch(row cargoRow) (*model.Match, bool) {
	if row.MatchID == "" || row.Team1 == "" || row.Team2 == "" {
		return nil, false
	}
	if strings.Contains(row.Team1, "TBD") || strings.Contains(row.Team2, "TBD") {
		a.logger.Debugf("跳过比赛：%s vs %s（包含 TBD 队伍）", row.Team1, row.Team2)
		return nil, false
	}
	if !a.knownLeague(row.OverviewPage) {
		return nil, false
	}
	t, err := parseCargoTime(row.DateTimeUTC)
	if err != nil {
		a.logger.WithError(err).WithField("match_id", row.MatchID).Warn("比赛时间解析失败，跳过")
		return nil, false
	}
	return &model.Match{
		ID:          row.MatchID,
		Team1:       row.Team1,
		Team2:       row.Team2,
		ScheduledAt: t,
		Format:      model.ParseBestOf(row.BestOf),
		Tournament:  row.OverviewPage,
	}, true
}

func (a *Adapter) knownLeague(overviewPage string) bool {
	for _, league := range a.cfg.Leagues {
		if strings.EqualFold(overviewPage, league) {
			return true
		}
		if len(overviewPage) > len(league) && overviewPage[len(league)] == '/' &&
			strings.EqualFold(overviewPage[:len(league)], league) {
			return true
		}
	}
	return false
}

func (a *Adapter) leagueCondition() string {
	conds := make([]string, 0, len(a.cfg.Leagues))
	for _, league := range a.cfg.Leagues {
		l := escapeCargo(league)
		conds = append(conds, fmt.Sprintf("OverviewPage = '%s' OR OverviewPage LIKE '%s/%%'", l, l))
	}
	return strings.Join(conds, " OR ")
}

func parseCargoTime(s string) (time.Time, error) {
	return time.ParseInLocation(cargoTimeLayout, strings.TrimSpace(s), time.UTC)
}

func escapeCargo(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
