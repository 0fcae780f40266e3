package usecase

import (
	"fmt"
	"strings"
	"time"

	"BlogCrawler/internal/domain"
)

// FormatReport renders the human-readable run summary, timestamped in loc.
func FormatReport(report domain.RunReport, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	at := report.FinishedAt
	if at.IsZero() {
		at = report.StartedAt
	}

	var b strings.Builder
	fmt.Fprintf(&b, "🤖 Crawl results (%s)\n", at.In(loc).Format("2006-01-02 15:04:05 MST"))

	lines := make([]string, 0, len(report.Results))
	for _, res := range report.Results {
		if res.Success {
			lines = append(lines, fmt.Sprintf("✅ %s: %d new posts (%d skipped)", res.BlogName, res.New, res.Skipped))
			continue
		}
		reason := res.Error
		if reason == "" {
			reason = "unknown error"
		}
		lines = append(lines, fmt.Sprintf("❌ %s: failed (%s)", res.BlogName, reason))
	}
	b.WriteString(strings.Join(lines, "\n"))

	failed := report.TotalFailed()
	fmt.Fprintf(&b, "\n\n📊 Summary\n• New posts: %d\n• Failed posts: %d", report.TotalNew(), failed)

	if failed > 0 {
		b.WriteString("\n\n❌ Failed posts:")
		for _, res := range report.Results {
			for _, f := range res.Failed {
				fmt.Fprintf(&b, "\n• [%s] %s\n  %s\n  reason: %s", res.BlogName, orDefault(f.Title, "(untitled)"), orDefault(f.URL, "(no URL)"), f.Reason)
			}
		}
	}

	return b.String()
}

func orDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
