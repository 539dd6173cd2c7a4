package domain

import (
	"regexp"
	"strings"
)

// Room is an isolated namespace for one quiz competition.
type Room struct {
	RoomID    string `json:"roomId"`
	HostID    string `json:"hostId"`
	CreatedAt int64  `json:"createdAt"` // unix millis
}

// Question is a normalized bank question. Answers are zero-based indices into Options.
type Question struct {
	Topic       string   `json:"topic"`
	Tag         string   `json:"tag,omitempty"`
	Text        string   `json:"text"`
	Options     []string `json:"options"`
	Answers     []int    `json:"answers"`
	Type        string   `json:"type"`
	Explanation string   `json:"explanation"`
}

const (
	QuestionSingle = "single"
	QuestionMulti  = "multi"
)

// Valid reports whether q can be persisted: at least two options and at
// least one answer index, all of them in range.
func (q Question) Valid() bool {
	if q.Text == "" || len(q.Options) < 2 || len(q.Answers) == 0 {
		return false
	}
	for _, a := range q.Answers {
		if a < 0 || a >= len(q.Options) {
			return false
		}
	}
	return true
}

// Bank is a named question collection scoped to a room.
type Bank struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
}

// BankSummary is the listing view of a bank.
type BankSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// ExamSession is the single active exam descriptor of a room.
type ExamSession struct {
	RoomID           string  `json:"roomId"`
	BankID           string  `json:"bankId"`
	QuestionCount    int     `json:"questionCount"`
	TimeLimitMinutes float64 `json:"timeLimitMinutes,omitempty"`
	CreatedAt        int64   `json:"createdAt"`
}

var userIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,20}$`)

// ValidUserID reports whether id is an acceptable registered user id.
func ValidUserID(id string) bool {
	return userIDPattern.MatchString(id)
}

// ValidScopeID reports whether id can name a room or bank. Ids are embedded in
// colon-separated store keys, so ':' is rejected.
func ValidScopeID(id string) bool {
	return id != "" && !strings.Contains(id, ":")
}

// UserAuth is the credential record of a registered user.
type UserAuth struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	PasswordHash string `json:"passwordHash"`
	CreatedAt    int64  `json:"createdAt"`
}

// UserProfile is the public view of a user.
type UserProfile struct {
	UserID    string `json:"userId"`
	Name      string `json:"name"`
	CreatedAt int64  `json:"createdAt"`
	Admin     bool   `json:"admin,omitempty"`
}

// UserStats is the cumulative per-user record maintained by score submissions.
type UserStats struct {
	Name           string  `json:"name,omitempty"`
	LastScore      float64 `json:"lastScore"`
	TotalQuestions int     `json:"totalQuestions"`
	LastCorrect    int     `json:"lastCorrect"`
	AttemptCount   int     `json:"attemptCount"`
	BestScore      float64 `json:"bestScore"`
	TotalScoreSum  float64 `json:"totalScoreSum"`
	AvgScore       float64 `json:"avgScore"`
	Mode           string  `json:"mode"`
	LastRoomID     string  `json:"lastRoomId"`
	BankID         string  `json:"bankId"`
	UpdatedAt      int64   `json:"updatedAt"`
}

// HistoryEntry records one submitted exam result.
type HistoryEntry struct {
	Score        float64 `json:"score"`
	Total        int     `json:"total"`
	CorrectCount int     `json:"correctCount"`
	Mode         string  `json:"mode"`
	RoomID       string  `json:"roomId"`
	BankID       string  `json:"bankId"`
	Timestamp    int64   `json:"timestamp"`
}

// WrongQuestion is one record in a user's wrong-answer book.
type WrongQuestion struct {
	Topic       string   `json:"topic"`
	Tag         string   `json:"tag"`
	Text        string   `json:"text"`
	Options     []string `json:"options"`
	Answers     []int    `json:"answers"`
	Explanation string   `json:"explanation"`
}

// LeaderboardMode selects one of the independent global rankings.
type LeaderboardMode string

const (
	ModeLast LeaderboardMode = "last"
	ModeBest LeaderboardMode = "best"
	ModeAvg  LeaderboardMode = "avg"
)

// LeaderboardModes lists every ranking mode.
var LeaderboardModes = []LeaderboardMode{ModeLast, ModeBest, ModeAvg}

// ParseMode maps raw input to a mode; unknown values fall back to ModeLast.
func ParseMode(raw string) LeaderboardMode {
	switch LeaderboardMode(raw) {
	case ModeBest:
		return ModeBest
	case ModeAvg:
		return ModeAvg
	default:
		return ModeLast
	}
}

// RankedScore is a raw sorted-set member.
type RankedScore struct {
	UserID string
	Score  float64
}

// LeaderboardEntry is a ranked, name-resolved leaderboard row.
type LeaderboardEntry struct {
	Rank   int     `json:"rank"`
	UserID string  `json:"userId"`
	Name   string  `json:"name,omitempty"`
	Score  float64 `json:"score"`
}

// LeaderboardPage is one page of a leaderboard query.
type LeaderboardPage struct {
	Mode     LeaderboardMode    `json:"type"`
	Page     int                `json:"page"`
	PageSize int                `json:"pageSize"`
	Total    int64              `json:"total"`
	HasNext  bool               `json:"hasNext"`
	Entries  []LeaderboardEntry `json:"entries"`
}
