package model

import "time"

type Kind string

const (
	KindPullRequest Kind = "pull_request"
	KindCommit      Kind = "commit"
	KindTicket      Kind = "ticket"
)

// ContentRecord is one normalized unit of text-bearing activity. Records are
// treated as values once produced; nothing downstream mutates them.
type ContentRecord struct {
	ID        string            `json:"id"`
	Kind      Kind              `json:"kind"`
	Author    string            `json:"author"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Timestamp time.Time         `json:"timestamp"`
	Project   string            `json:"project"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// SemanticResult is the analyzer output for one ContentRecord.
// ComplexityScore is in [0,100], AILikelihood in [0,1].
type SemanticResult struct {
	RecordID        string   `json:"record_id"`
	ComplexityScore float64  `json:"complexity_score"`
	AILikelihood    float64  `json:"ai_likelihood"`
	TopicTags       []string `json:"topic_tags"`
}

// Window bounds one analysis run. All snapshots in a run share the same
// window; scores are only comparable within it.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type SourceStats struct {
	PRsCreated     int `json:"prs_created"`
	PRsMerged      int `json:"prs_merged"`
	PRsReviewed    int `json:"prs_reviewed"`
	CommitsMade    int `json:"commits_made"`
	LinesAdded     int `json:"lines_added"`
	LinesDeleted   int `json:"lines_deleted"`
	FilesChanged   int `json:"files_changed"`
	IssuesCreated  int `json:"issues_created"`
	IssuesClosed   int `json:"issues_closed"`
	ReviewComments int `json:"review_comments"`
}

type DeliveryStats struct {
	TicketsCreated    int     `json:"tickets_created"`
	TicketsCompleted  int     `json:"tickets_completed"`
	TicketsInProgress int     `json:"tickets_in_progress"`
	StoryPoints       float64 `json:"story_points"`
	CommentsMade      int     `json:"comments_made"`
	DeepComments      int     `json:"deep_comments"`
}

// EngineerActivitySnapshot holds raw counters for one engineer over the
// analysis window plus the records they authored.
type EngineerActivitySnapshot struct {
	Engineer string          `json:"engineer"`
	Window   Window          `json:"window"`
	Source   SourceStats     `json:"source"`
	Delivery DeliveryStats   `json:"delivery"`
	Projects []string        `json:"projects"`
	Records  []ContentRecord `json:"records"`
}

// HasActivity reports whether any counter is non-zero.
func (s EngineerActivitySnapshot) HasActivity() bool {
	src, del := s.Source, s.Delivery
	return src.PRsCreated+src.PRsMerged+src.PRsReviewed+src.CommitsMade+
		src.LinesAdded+src.LinesDeleted+src.FilesChanged+src.IssuesCreated+
		src.IssuesClosed+src.ReviewComments+del.TicketsCreated+
		del.TicketsCompleted+del.TicketsInProgress+del.CommentsMade+
		del.DeepComments > 0 || del.StoryPoints > 0
}

// ScoreBreakdown is the scorer output for one engineer. All scores are
// normalized to [0,100] relative to the peer set of the run.
type ScoreBreakdown struct {
	Engineer            string  `json:"engineer"`
	SourceActivityScore float64 `json:"source_activity_score"`
	DeliveryScore       float64 `json:"delivery_score"`
	CollaborationScore  float64 `json:"collaboration_score"`
	QualityScore        float64 `json:"quality_score"`
	TotalScore          float64 `json:"total_score"`
	PercentileRank      float64 `json:"percentile_rank"`
}

type ScoreDistribution struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// InsightSummary holds the team-level aggregates for one run. It is plain
// structured data; report and dashboard collaborators do the rendering.
type InsightSummary struct {
	RunID            string            `json:"run_id"`
	Window           Window            `json:"window"`
	GeneratedAt      time.Time         `json:"generated_at"`
	TotalEngineers   int               `json:"total_engineers"`
	ActiveEngineers  int               `json:"active_engineers"`
	MeanScore        float64           `json:"mean_score"`
	MedianScore      float64           `json:"median_score"`
	Distribution     ScoreDistribution `json:"distribution"`
	DominantTopics   []string          `json:"dominant_topics"`
	AIAdoptionMean   float64           `json:"ai_adoption_mean"`
	AIAdoptionDelta  float64           `json:"ai_adoption_delta"`
	AIAdoptionTrend  string            `json:"ai_adoption_trend"`
	TopPerformer     string            `json:"top_performer"`
	PerformanceBand  string            `json:"performance_band"`
	TopAreas         []string          `json:"top_areas"`
	ImprovementAreas []string          `json:"improvement_areas"`
	Recommendations  []string          `json:"recommendations"`
	Degraded         bool              `json:"degraded"`
}

// RunResult is what one analysis run hands to its consumers: the per-engineer
// breakdowns ordered by descending total score plus the team summary.
type RunResult struct {
	RunID    string           `json:"run_id"`
	Window   Window           `json:"window"`
	Degraded bool             `json:"degraded"`
	Strategy string           `json:"strategy"`
	Scores   []ScoreBreakdown `json:"scores"`
	Summary  InsightSummary   `json:"summary"`
}
