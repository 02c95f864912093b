package normalize

import "time"

// Raw activity payloads as handed over by the platform connectors. The
// connectors own authentication and fetching; this package only requires
// these shapes. Optional text fields may be empty or contain markup.

type PullRequest struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	Author       string     `json:"author"`
	Repository   string     `json:"repository"`
	CreatedAt    time.Time  `json:"created_at"`
	MergedAt     *time.Time `json:"merged_at,omitempty"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	ChangedFiles int        `json:"changed_files"`
}

type Commit struct {
	SHA        string    `json:"sha"`
	Message    string    `json:"message"`
	Author     string    `json:"author"`
	Repository string    `json:"repository"`
	AuthoredAt time.Time `json:"authored_at"`
	Additions  int       `json:"additions"`
	Deletions  int       `json:"deletions"`
}

type Review struct {
	PullRequestID string    `json:"pull_request_id"`
	Reviewer      string    `json:"reviewer"`
	Body          string    `json:"body"`
	SubmittedAt   time.Time `json:"submitted_at"`
}

type Issue struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Author     string    `json:"author"`
	Repository string    `json:"repository"`
	State      string    `json:"state"`
	CreatedAt  time.Time `json:"created_at"`
}

type Ticket struct {
	Key         string    `json:"key"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Assignee    string    `json:"assignee"`
	Creator     string    `json:"creator"`
	Project     string    `json:"project"`
	Status      string    `json:"status"`
	StoryPoints float64   `json:"story_points"`
	CreatedAt   time.Time `json:"created_at"`
}

type TicketComment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	Project   string    `json:"project"`
	CreatedAt time.Time `json:"created_at"`
}

// Batch bundles everything fetched for one analysis window.
type Batch struct {
	PullRequests []PullRequest   `json:"pull_requests"`
	Commits      []Commit        `json:"commits"`
	Reviews      []Review        `json:"reviews"`
	Issues       []Issue         `json:"issues"`
	Tickets      []Ticket        `json:"tickets"`
	Comments     []TicketComment `json:"comments"`
}
