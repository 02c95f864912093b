package normalize

import (
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/devpulse/backend/internal/model"
	"github.com/devpulse/backend/pkg/logger"
)

const (
	deepReviewCommentChars = 50
	deepTicketCommentChars = 100
)

var (
	completedStatuses  = map[string]bool{"done": true, "closed": true, "resolved": true}
	inProgressStatuses = map[string]bool{"in progress": true, "in development": true}
)

// BuildSnapshots folds one raw batch into per-engineer activity snapshots,
// normalizing every text-bearing record along the way. Engineers are the
// union of authors, reviewers, assignees, and commenters seen in the batch.
func (n *Normalizer) BuildSnapshots(batch Batch, window model.Window) []model.EngineerActivitySnapshot {
	acc := map[string]*model.EngineerActivitySnapshot{}
	projects := map[string]map[string]bool{}

	get := func(engineer string) *model.EngineerActivitySnapshot {
		if engineer == "" {
			engineer = unknownAuthor
		}
		snap, ok := acc[engineer]
		if !ok {
			snap = &model.EngineerActivitySnapshot{Engineer: engineer, Window: window}
			acc[engineer] = snap
			projects[engineer] = map[string]bool{}
		}
		return snap
	}

	touch := func(engineer, project string) {
		if project == "" {
			return
		}
		if engineer == "" {
			engineer = unknownAuthor
		}
		projects[engineer][project] = true
	}

	for _, pr := range batch.PullRequests {
		snap := get(pr.Author)
		snap.Source.PRsCreated++
		if pr.MergedAt != nil {
			snap.Source.PRsMerged++
		}
		snap.Source.LinesAdded += pr.Additions
		snap.Source.LinesDeleted += pr.Deletions
		snap.Source.FilesChanged += pr.ChangedFiles
		snap.Records = append(snap.Records, n.FromPullRequest(pr))
		touch(snap.Engineer, pr.Repository)
	}

	for _, c := range batch.Commits {
		snap := get(c.Author)
		snap.Source.CommitsMade++
		snap.Source.LinesAdded += c.Additions
		snap.Source.LinesDeleted += c.Deletions
		snap.Records = append(snap.Records, n.FromCommit(c))
		touch(snap.Engineer, c.Repository)
	}

	reviewed := map[string]map[string]bool{}
	for _, r := range batch.Reviews {
		snap := get(r.Reviewer)
		if reviewed[snap.Engineer] == nil {
			reviewed[snap.Engineer] = map[string]bool{}
		}
		if !reviewed[snap.Engineer][r.PullRequestID] {
			reviewed[snap.Engineer][r.PullRequestID] = true
			snap.Source.PRsReviewed++
		}
		if len(strings.TrimSpace(r.Body)) >= deepReviewCommentChars {
			snap.Source.ReviewComments++
		}
	}

	for _, is := range batch.Issues {
		snap := get(is.Author)
		snap.Source.IssuesCreated++
		if strings.EqualFold(is.State, "closed") {
			snap.Source.IssuesClosed++
		}
		touch(snap.Engineer, is.Repository)
	}

	for _, t := range batch.Tickets {
		engineer := t.Assignee
		if engineer == "" {
			engineer = t.Creator
		}
		snap := get(engineer)
		snap.Delivery.TicketsCreated++
		status := strings.ToLower(strings.TrimSpace(t.Status))
		switch {
		case completedStatuses[status]:
			snap.Delivery.TicketsCompleted++
			snap.Delivery.StoryPoints += t.StoryPoints
		case inProgressStatuses[status]:
			snap.Delivery.TicketsInProgress++
		}
		snap.Records = append(snap.Records, n.FromTicket(t))
		touch(snap.Engineer, t.Project)
	}

	for _, c := range batch.Comments {
		snap := get(c.Author)
		snap.Delivery.CommentsMade++
		if len(strings.TrimSpace(c.Body)) >= deepTicketCommentChars {
			snap.Delivery.DeepComments++
		}
		touch(snap.Engineer, c.Project)
	}

	out := make([]model.EngineerActivitySnapshot, 0, len(acc))
	for engineer, snap := range acc {
		for p := range projects[engineer] {
			snap.Projects = append(snap.Projects, p)
		}
		sort.Strings(snap.Projects)
		out = append(out, *snap)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Engineer < out[j].Engineer })

	logger.Debug("Snapshots built",
		zap.Int("engineers", len(out)),
		zap.Int("pull_requests", len(batch.PullRequests)),
		zap.Int("commits", len(batch.Commits)),
		zap.Int("tickets", len(batch.Tickets)),
	)

	return out
}

func itoa(v int) string {
	return strconv.Itoa(v)
}

func ftoa(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
