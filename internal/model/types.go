// Package model defines the records exchanged with the crawl monitoring
// backend and the checks applied to them at the API boundary.
package model

// SiteType classifies a monitored site.
type SiteType string

const (
	SiteNews    SiteType = "news"
	SiteForum   SiteType = "forum"
	SiteBlog    SiteType = "blog"
	SiteGeneral SiteType = "general"
)

// SiteTypes lists the accepted site types in display order.
var SiteTypes = []SiteType{SiteNews, SiteForum, SiteBlog, SiteGeneral}

// Valid reports whether t is one of the known site types.
func (t SiteType) Valid() bool {
	for _, v := range SiteTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Category groups keywords.
type Category string

const (
	CategoryGeneral    Category = "general"
	CategoryBusiness   Category = "business"
	CategoryTechnology Category = "technology"
	CategoryHealth     Category = "health"
)

// Categories lists the accepted keyword categories in display order.
var Categories = []Category{CategoryGeneral, CategoryBusiness, CategoryTechnology, CategoryHealth}

func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Keyword priorities are bounded on both ends.
const (
	MinPriority = 1
	MaxPriority = 5
)

// Site is a monitored source URL.
type Site struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	URL       string     `json:"url"`
	SiteType  SiteType   `json:"site_type"`
	IsActive  bool       `json:"is_active"`
	UserID    int64      `json:"user_id,omitempty"`
	CreatedAt *Timestamp `json:"created_at,omitempty"`
	UpdatedAt *Timestamp `json:"updated_at,omitempty"`
}

// Keyword is a monitored search term.
type Keyword struct {
	ID        int64      `json:"id"`
	Keyword   string     `json:"keyword"`
	Category  Category   `json:"category"`
	Priority  int        `json:"priority"`
	IsActive  bool       `json:"is_active"`
	UserID    int64      `json:"user_id,omitempty"`
	CreatedAt *Timestamp `json:"created_at,omitempty"`
	UpdatedAt *Timestamp `json:"updated_at,omitempty"`
}

// Task is a scheduled crawl job. SiteIDs and KeywordIDs reference records the
// backend owns; the client never checks them against its own collections.
type Task struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Frequency   Frequency  `json:"frequency"`
	SiteIDs     []int64    `json:"site_ids,omitempty"`
	KeywordIDs  []int64    `json:"keyword_ids,omitempty"`
	IsActive    bool       `json:"is_active"`
	LastRun     *Timestamp `json:"last_run,omitempty"`
	NextRun     *Timestamp `json:"next_run,omitempty"`
	UserID      int64      `json:"user_id,omitempty"`
	CreatedAt   *Timestamp `json:"created_at,omitempty"`
	UpdatedAt   *Timestamp `json:"updated_at,omitempty"`
}

// Result is one crawl hit. Results are produced by the crawler and are
// read-only here.
type Result struct {
	ID             int64      `json:"id"`
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	Content        string     `json:"content,omitempty"`
	Summary        string     `json:"summary,omitempty"`
	KeywordMatched string     `json:"keyword_matched"`
	SiteID         int64      `json:"site_id,omitempty"`
	TaskID         int64      `json:"task_id,omitempty"`
	UserID         int64      `json:"user_id,omitempty"`
	PublishedAt    *Timestamp `json:"published_at,omitempty"`
	CrawledAt      Timestamp  `json:"crawled_at"`
}

// Credentials identify a user. The email doubles as the login username.
type Credentials struct {
	Email    string
	Password string
}

// NewSite is the body of a site create request.
type NewSite struct {
	Name     string   `json:"name"`
	URL      string   `json:"url"`
	SiteType SiteType `json:"site_type,omitempty"`
	IsActive *bool    `json:"is_active,omitempty"`
}

// NewKeyword is the body of a keyword create request.
type NewKeyword struct {
	Keyword  string   `json:"keyword"`
	Category Category `json:"category,omitempty"`
	Priority int      `json:"priority,omitempty"`
	IsActive *bool    `json:"is_active,omitempty"`
}

// NewTask is the body of a task create request.
type NewTask struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Frequency   Frequency `json:"frequency"`
	SiteIDs     []int64   `json:"site_ids"`
	KeywordIDs  []int64   `json:"keyword_ids"`
}
