package normalize

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/devpulse/backend/internal/model"
)

const unknownAuthor = "unknown"

var whitespacePattern = regexp.MustCompile(`\s+`)

// Normalizer converts raw source records into ContentRecords. It never fails:
// absent text becomes the empty string, an absent timestamp becomes the
// ingestion time, and oversized text is truncated on a word boundary.
// Normalization is idempotent.
type Normalizer struct {
	maxChars int
	now      func() time.Time
}

func NewNormalizer(maxChars int) *Normalizer {
	if maxChars <= 0 {
		maxChars = 4000
	}
	return &Normalizer{
		maxChars: maxChars,
		now:      time.Now,
	}
}

func (n *Normalizer) FromPullRequest(pr PullRequest) model.ContentRecord {
	merged := "false"
	if pr.MergedAt != nil {
		merged = "true"
	}
	return n.record(model.ContentRecord{
		ID:        "pr_" + pr.ID,
		Kind:      model.KindPullRequest,
		Author:    pr.Author,
		Title:     pr.Title,
		Body:      pr.Body,
		Timestamp: pr.CreatedAt,
		Project:   pr.Repository,
		Metadata: map[string]string{
			"additions":     itoa(pr.Additions),
			"deletions":     itoa(pr.Deletions),
			"changed_files": itoa(pr.ChangedFiles),
			"merged":        merged,
		},
	})
}

func (n *Normalizer) FromCommit(c Commit) model.ContentRecord {
	return n.record(model.ContentRecord{
		ID:        "commit_" + c.SHA,
		Kind:      model.KindCommit,
		Author:    c.Author,
		Body:      c.Message,
		Timestamp: c.AuthoredAt,
		Project:   c.Repository,
		Metadata: map[string]string{
			"additions": itoa(c.Additions),
			"deletions": itoa(c.Deletions),
		},
	})
}

func (n *Normalizer) FromTicket(t Ticket) model.ContentRecord {
	author := t.Assignee
	if author == "" {
		author = t.Creator
	}
	return n.record(model.ContentRecord{
		ID:        "ticket_" + t.Key,
		Kind:      model.KindTicket,
		Author:    author,
		Title:     t.Summary,
		Body:      t.Description,
		Timestamp: t.CreatedAt,
		Project:   t.Project,
		Metadata: map[string]string{
			"status":       t.Status,
			"story_points": ftoa(t.StoryPoints),
		},
	})
}

// Renormalize re-applies normalization to an existing record. Used by tests
// and by callers that receive records from untrusted collaborators.
func (n *Normalizer) Renormalize(rec model.ContentRecord) model.ContentRecord {
	return n.record(rec)
}

func (n *Normalizer) record(rec model.ContentRecord) model.ContentRecord {
	rec.Title = n.CleanText(rec.Title)
	rec.Body = n.CleanText(rec.Body)
	if rec.Author == "" {
		rec.Author = unknownAuthor
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = n.now()
	}
	return rec
}

// CleanText strips markup and control characters, collapses whitespace, and
// truncates to the configured maximum without splitting a word.
func (n *Normalizer) CleanText(text string) string {
	if text == "" {
		return ""
	}

	if strings.Contains(text, "<") && strings.Contains(text, ">") {
		text = stripHTML(text)
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' {
			b.WriteRune(' ')
			continue
		}
		if r < 0x20 || r == 0x7f {
			continue
		}
		b.WriteRune(r)
	}

	text = whitespacePattern.ReplaceAllString(b.String(), " ")
	text = strings.TrimSpace(text)

	return n.truncate(text)
}

func (n *Normalizer) truncate(text string) string {
	if len(text) <= n.maxChars {
		return text
	}

	end := n.maxChars
	for end > 0 && !utf8.RuneStart(text[end]) {
		end--
	}

	cut := text[:end]
	if idx := strings.LastIndex(cut, " "); idx > 0 {
		cut = cut[:idx]
	}
	return strings.TrimSpace(cut)
}

func stripHTML(text string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return text
	}

	doc.Find("script, style").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	if out := doc.Text(); out != "" {
		return out
	}
	return text
}
