package redis

import (
	"context"
	"strings"

	"flashbattle-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Key layout:
//
//	room:{roomId}:settings   JSON room
//	room:{roomId}:exam       JSON active exam
//	bank:{roomId}:{bankId}   JSON {id,name,questions}
//	user:{userId}:auth       JSON credentials
//	user:{userId}:stats      JSON stats
//	user:{userId}:history    list of JSON history entries, newest first
//	user:{userId}:wrong      list of JSON wrong questions
//	leaderboard:{mode}       sorted set userId -> score

func roomSettingsKey(roomID string) string { return "room:" + roomID + ":settings" }
func roomExamKey(roomID string) string     { return "room:" + roomID + ":exam" }

func bankPrefix(roomID string) string      { return "bank:" + roomID + ":" }
func bankKey(roomID, bankID string) string { return bankPrefix(roomID) + bankID }
func bankPattern(roomID string) string     { return "bank:" + escapeGlob(roomID) + ":*" }

func userAuthKey(userID string) string    { return "user:" + userID + ":auth" }
func userStatsKey(userID string) string   { return "user:" + userID + ":stats" }
func userHistoryKey(userID string) string { return "user:" + userID + ":history" }
func userWrongKey(userID string) string   { return "user:" + userID + ":wrong" }

func leaderboardKey(mode domain.LeaderboardMode) string { return "leaderboard:" + string(mode) }

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string { return globReplacer.Replace(s) }

// roomBankKeys scans the banks stored directly under roomID. The pattern
// also matches rooms whose id starts with roomID followed by ':', so keys
// with a further separator after the prefix are dropped.
func roomBankKeys(ctx context.Context, client *redis.Client, roomID string) ([]string, error) {
	keys, err := scanKeys(ctx, client, bankPattern(roomID))
	if err != nil {
		return nil, err
	}
	prefix := bankPrefix(roomID)
	own := keys[:0]
	for _, k := range keys {
		if !strings.Contains(strings.TrimPrefix(k, prefix), ":") {
			own = append(own, k)
		}
	}
	return own, nil
}

// scanKeys collects every key matching pattern using SCAN rather than KEYS.
func scanKeys(ctx context.Context, client *redis.Client, pattern string) ([]string, error) {
	var keys []string
	iter := client.Scan(ctx, 0, pattern, 200).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return keys, nil
}
