package core

import (
	"strings"
	"time"

	"github.com/huangsam/powerrank/schema"
)

// NewsSignal is the per-tool aggregate of news articles up to the evaluation time.
type NewsSignal struct {
	MentionCount   int
	RecentMentions int
	SentimentSum   float64
	SentimentCount int
}

// AvgSentiment returns the mean article sentiment and whether any article carried one.
func (s NewsSignal) AvgSentiment() (float64, bool) {
	if s.SentimentCount == 0 {
		return 0, false
	}
	return s.SentimentSum / float64(s.SentimentCount), true
}

// layer exposes the signal to the extractor under the "news" key.
// A tool without any coverage gets no layer so extractor defaults apply.
func (s NewsSignal) layer() map[string]any {
	if s.MentionCount == 0 {
		return nil
	}
	news := map[string]any{
		"mention_count":   s.MentionCount,
		"recent_mentions": s.RecentMentions,
	}
	if avg, ok := s.AvgSentiment(); ok {
		news["avg_sentiment"] = avg
	}
	return map[string]any{"news": news}
}

// AggregateNews counts mentions per tool id. Articles published after the evaluation
// time are ignored so reruns of a past period see the same inputs. An article mentioning
// a tool both in its mentions and its tags counts once.
func AggregateNews(articles []schema.NewsArticle, at time.Time, window time.Duration) map[string]NewsSignal {
	out := make(map[string]NewsSignal)
	recentFrom := at.Add(-window)
	for _, a := range articles {
		if a.PublishedAt.After(at) {
			continue
		}
		seen := make(map[string]struct{}, len(a.ToolMentions)+len(a.Tags))
		for _, id := range append(append([]string{}, a.ToolMentions...), a.Tags...) {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}

			s := out[id]
			s.MentionCount++
			if window > 0 && a.PublishedAt.After(recentFrom) {
				s.RecentMentions++
			}
			if a.Sentiment != nil {
				s.SentimentSum += *a.Sentiment
				s.SentimentCount++
			}
			out[id] = s
		}
	}
	return out
}
