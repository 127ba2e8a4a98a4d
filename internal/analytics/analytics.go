package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"social-poster/internal/storage"
)

// Stats is the admin dashboard snapshot.
type Stats struct {
	Date            string          `json:"date"`
	TotalUsers      int             `json:"total_users"`
	PostsToday      int             `json:"posts_today"`
	NewUsersToday   int             `json:"new_users_today"`
	TotalPosts      int             `json:"total_posts"`
	PlatformRanking []PlatformCount `json:"platform_ranking"`
}

type PlatformCount struct {
	Platform string `json:"platform"`
	Count    int    `json:"count"`
}

// Compute builds Stats from store snapshots. "Today" is the UTC calendar day
// of now. The ranking counts every logged post, most used first, ties by key.
func Compute(users []storage.UserRecord, posts []storage.PostLogEntry, now time.Time) *Stats {
	today := now.UTC().Format(storage.DateLayout)
	stats := &Stats{
		Date:       today,
		TotalUsers: len(users),
		TotalPosts: len(posts),
	}

	for _, u := range users {
		if u.JoinedDate == today {
			stats.NewUsersToday++
		}
	}

	byPlatform := make(map[string]int)
	for _, p := range posts {
		byPlatform[p.Platform]++
		if p.Timestamp.UTC().Format(storage.DateLayout) == today {
			stats.PostsToday++
		}
	}

	stats.PlatformRanking = make([]PlatformCount, 0, len(byPlatform))
	for k, n := range byPlatform {
		stats.PlatformRanking = append(stats.PlatformRanking, PlatformCount{Platform: k, Count: n})
	}
	sort.Slice(stats.PlatformRanking, func(i, j int) bool {
		a, b := stats.PlatformRanking[i], stats.PlatformRanking[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Platform < b.Platform
	})
	return stats
}

// Summary renders the stats for admins. labels maps platform keys to
// display names; unknown keys are shown as is.
func (s *Stats) Summary(labels map[string]string) string {
	var b strings.Builder
	b.WriteString("📊 إحصائيات البوت:\n")
	fmt.Fprintf(&b, "- المستخدمون الكلي: %d\n", s.TotalUsers)
	fmt.Fprintf(&b, "- منشورات اليوم: %d\n", s.PostsToday)
	fmt.Fprintf(&b, "- مستخدمون جدد اليوم: %d\n", s.NewUsersToday)
	fmt.Fprintf(&b, "- إجمالي المنشورات: %d\n\n", s.TotalPosts)
	b.WriteString("🏆 ترتيب المنصات:\n")
	if len(s.PlatformRanking) == 0 {
		b.WriteString("لا توجد بيانات")
		return b.String()
	}
	for i, pc := range s.PlatformRanking {
		name := pc.Platform
		if l, ok := labels[pc.Platform]; ok {
			name = l
		}
		fmt.Fprintf(&b, "%d. %s: %d", i+1, name, pc.Count)
		if i < len(s.PlatformRanking)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// ToJSON serializes the stats for logs.
func (s *Stats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
