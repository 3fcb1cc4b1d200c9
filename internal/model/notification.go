package model

// Announcement 比赛公告，附带以比赛ID为键的预测入口
type Announcement struct {
	CommunityID string
	ChannelID   string
	Match       Match
}

// ResultEntry 结果公告中的一行：成员、预测、结算结果
type ResultEntry struct {
	MemberID   string  `json:"member_id"`
	Prediction string  `json:"prediction"`
	Outcome    Outcome `json:"outcome"`
}

// ResultAnnouncement 比赛结果公告
type ResultAnnouncement struct {
	CommunityID string
	ChannelID   string
	Match       Match
	Result      MatchResult
	Entries     []ResultEntry
}
