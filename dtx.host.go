package dtx

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Host is the platform that owns the site data shortcodes read from.
// Every lookup that misses returns an error for which IsNotFound is true.
// Implementations must be safe for concurrent use.
type Host interface {
	// SiteInfo returns a site property such as "name", "description" or "url".
	SiteInfo(ctx context.Context, show string) (string, error)

	// CurrentPost returns the post being rendered, if any.
	CurrentPost(ctx context.Context) (*Post, error)

	// Post returns a post by ID.
	Post(ctx context.Context, id int) (*Post, error)

	// PostMeta returns a single meta value of a post.
	PostMeta(ctx context.Context, postID int, key string) (string, error)

	// CurrentUser returns the logged-in user; anonymous visitors are a miss.
	CurrentUser(ctx context.Context) (*User, error)

	// UserMeta returns a single meta value of a user.
	UserMeta(ctx context.Context, userID int, key string) (string, error)

	// PostTerms returns the terms of taxonomy attached to a post.
	PostTerms(ctx context.Context, postID int, taxonomy string) ([]*Term, error)

	// TermMeta returns a single meta value of a term.
	TermMeta(ctx context.Context, termID int, key string) (string, error)

	// Attachment returns a media attachment by ID.
	Attachment(ctx context.Context, id int) (*Attachment, error)

	// ThemeMod returns a theme modification value.
	ThemeMod(ctx context.Context, key string) (string, error)

	// QueriedObject classifies the page being rendered.
	QueriedObject(ctx context.Context) (QueriedObject, error)
}

// Post holds the fields of a post that shortcodes may read.
type Post struct {
	ID          int       `yaml:"id" json:"id"`
	Type        string    `yaml:"type" json:"type"`
	Name        string    `yaml:"slug" json:"slug"`
	Title       string    `yaml:"title" json:"title"`
	Content     string    `yaml:"content" json:"content"`
	Excerpt     string    `yaml:"excerpt" json:"excerpt"`
	Status      string    `yaml:"status" json:"status"`
	AuthorID    int       `yaml:"author" json:"author"`
	ParentID    int       `yaml:"parent" json:"parent"`
	Date        time.Time `yaml:"date" json:"date"`
	Modified    time.Time `yaml:"modified" json:"modified"`
	GUID        string    `yaml:"guid" json:"guid"`
	Permalink   string    `yaml:"permalink" json:"permalink"`
	ThumbnailID int       `yaml:"thumbnail_id" json:"thumbnail_id"`
}

// Post field names understood by Post.Field
const (
	PostFieldID       = "ID"
	PostFieldType     = "post_type"
	PostFieldName     = "post_name"
	PostFieldTitle    = "post_title"
	PostFieldContent  = "post_content"
	PostFieldExcerpt  = "post_excerpt"
	PostFieldStatus   = "post_status"
	PostFieldAuthor   = "post_author"
	PostFieldParent   = "post_parent"
	PostFieldDate     = "post_date"
	PostFieldModified = "post_modified"
	PostFieldGUID     = "guid"
	PostFieldLink     = "permalink"
)

// postDateLayout mirrors the host's stored date format
const postDateLayout = "2006-01-02 15:04:05"

// Field returns a post field by its canonical name.
func (p *Post) Field(name string) (string, bool) {
	switch name {
	case PostFieldID:
		return strconv.Itoa(p.ID), true
	case PostFieldType:
		return p.Type, true
	case PostFieldName:
		return p.Name, true
	case PostFieldTitle:
		return p.Title, true
	case PostFieldContent:
		return p.Content, true
	case PostFieldExcerpt:
		return p.Excerpt, true
	case PostFieldStatus:
		return p.Status, true
	case PostFieldAuthor:
		return strconv.Itoa(p.AuthorID), true
	case PostFieldParent:
		return strconv.Itoa(p.ParentID), true
	case PostFieldDate:
		return formatPostDate(p.Date), true
	case PostFieldModified:
		return formatPostDate(p.Modified), true
	case PostFieldGUID:
		return p.GUID, true
	case PostFieldLink:
		return p.Permalink, true
	default:
		return "", false
	}
}

func formatPostDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(postDateLayout)
}

// User holds the fields of a user account that shortcodes may read.
type User struct {
	ID          int      `yaml:"id" json:"id"`
	Login       string   `yaml:"login" json:"login"`
	Email       string   `yaml:"email" json:"email"`
	DisplayName string   `yaml:"display_name" json:"display_name"`
	Nicename    string   `yaml:"nicename" json:"nicename"`
	FirstName   string   `yaml:"first_name" json:"first_name"`
	LastName    string   `yaml:"last_name" json:"last_name"`
	Nickname    string   `yaml:"nickname" json:"nickname"`
	URL         string   `yaml:"url" json:"url"`
	Description string   `yaml:"description" json:"description"`
	AvatarURL   string   `yaml:"avatar_url" json:"avatar_url"`
	Roles       []string `yaml:"roles" json:"roles"`
}

// User field names understood by User.Field
const (
	UserFieldID          = "ID"
	UserFieldLogin       = "user_login"
	UserFieldEmail       = "user_email"
	UserFieldDisplayName = "display_name"
	UserFieldNicename    = "user_nicename"
	UserFieldFirstName   = "first_name"
	UserFieldLastName    = "last_name"
	UserFieldNickname    = "nickname"
	UserFieldURL         = "user_url"
	UserFieldDescription = "description"
)

// Field returns a user field by its canonical name.
func (u *User) Field(name string) (string, bool) {
	switch name {
	case UserFieldID:
		return strconv.Itoa(u.ID), true
	case UserFieldLogin:
		return u.Login, true
	case UserFieldEmail:
		return u.Email, true
	case UserFieldDisplayName:
		return u.DisplayName, true
	case UserFieldNicename:
		return u.Nicename, true
	case UserFieldFirstName:
		return u.FirstName, true
	case UserFieldLastName:
		return u.LastName, true
	case UserFieldNickname:
		return u.Nickname, true
	case UserFieldURL:
		return u.URL, true
	case UserFieldDescription:
		return u.Description, true
	default:
		return "", false
	}
}

// Term is a taxonomy term.
type Term struct {
	ID          int    `yaml:"id" json:"id"`
	Name        string `yaml:"name" json:"name"`
	Slug        string `yaml:"slug" json:"slug"`
	Taxonomy    string `yaml:"taxonomy" json:"taxonomy"`
	Description string `yaml:"description" json:"description"`
	Count       int    `yaml:"count" json:"count"`
	ParentID    int    `yaml:"parent" json:"parent"`
}

// Attachment is a media library item.
type Attachment struct {
	ID       int               `yaml:"id" json:"id"`
	URL      string            `yaml:"url" json:"url"`
	Title    string            `yaml:"title" json:"title"`
	Alt      string            `yaml:"alt" json:"alt"`
	MimeType string            `yaml:"mime_type" json:"mime_type"`
	Sizes    map[string]string `yaml:"sizes" json:"sizes"`
}

// URLFor returns the URL of the named image size, falling back to the
// original file.
func (a *Attachment) URLFor(size string) string {
	if u, ok := a.Sizes[size]; ok && u != "" {
		return u
	}
	return a.URL
}

// Request is the per-request input available to shortcodes.
type Request struct {
	Query    url.Values
	Form     url.Values
	Cookies  map[string]string
	Referrer string
	URL      *url.URL
}

// RequestFromHTTP captures the shortcode-visible parts of r. The form body
// is parsed when present.
func RequestFromHTTP(r *http.Request) *Request {
	req := &Request{
		Query:    r.URL.Query(),
		Cookies:  make(map[string]string),
		Referrer: r.Referer(),
	}
	if err := r.ParseForm(); err == nil {
		req.Form = r.PostForm
	}
	for _, c := range r.Cookies() {
		req.Cookies[c.Name] = c.Value
	}

	u := *r.URL
	if u.Host == "" {
		u.Host = r.Host
	}
	if u.Scheme == "" {
		u.Scheme = "http"
		if r.TLS != nil {
			u.Scheme = "https"
		}
	}
	req.URL = &u
	return req
}

// CurrentURL returns the full URL of the request, or "" when unknown.
func (r *Request) CurrentURL() string {
	if r == nil || r.URL == nil {
		return ""
	}
	return r.URL.String()
}
