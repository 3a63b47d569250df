package domain

import "time"

// Post mirrors a published CMS page as read from the content store. Instances
// are snapshots: the CMS owns the row, this service never writes it back.
type Post struct {
	ID               int64
	Title            string
	Intro            string
	Date             *time.Time
	Slug             string
	Body             string
	URLPath          string
	FirstPublishedAt *time.Time
}

// DateString renders the publication date the way the public API exposes it,
// or an empty string when the date is absent.
func (p Post) DateString() string {
	if p.Date == nil {
		return ""
	}
	return p.Date.Format("2006-01-02")
}
