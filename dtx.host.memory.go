package dtx

import (
	"context"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/itsatony/go-cuserr"
	"gopkg.in/yaml.v3"
)

// SiteFixture is a YAML description of a site, used to drive a MemoryHost.
type SiteFixture struct {
	Site        map[string]string   `yaml:"site"`
	ThemeMods   map[string]string   `yaml:"theme_mods"`
	Posts       []FixturePost       `yaml:"posts"`
	Users       []FixtureUser       `yaml:"users"`
	Terms       []FixtureTerm       `yaml:"terms"`
	Attachments []*Attachment       `yaml:"attachments"`
	Forms       []*Form             `yaml:"forms"`
	CurrentPost int                 `yaml:"current_post"`
	CurrentUser int                 `yaml:"current_user"`
	Queried     *FixtureQueriedPage `yaml:"queried"`

	// Settings seeds a settings storage when the fixture is loaded by a tool
	Settings *Settings `yaml:"settings"`
}

// FixturePost is a post with its meta and term assignments.
type FixturePost struct {
	Post  `yaml:",inline"`
	Meta  map[string]string `yaml:"meta"`
	Terms map[string][]int  `yaml:"terms"`
}

// FixtureUser is a user with its meta.
type FixtureUser struct {
	User `yaml:",inline"`
	Meta map[string]string `yaml:"meta"`
}

// FixtureTerm is a term with its meta.
type FixtureTerm struct {
	Term `yaml:",inline"`
	Meta map[string]string `yaml:"meta"`
}

// FixtureQueriedPage describes what the rendered page represents. ID refers
// to a post, user or term depending on Kind.
type FixtureQueriedPage struct {
	Kind  string `yaml:"kind"`
	ID    int    `yaml:"id"`
	Title string `yaml:"title"`
}

// LoadSiteFixture reads a YAML site fixture from path.
func LoadSiteFixture(path string) (*SiteFixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, cuserr.WrapStdError(err, ErrCodeHost, ErrMsgFixtureRead).
			WithMetadata(MetaKeyEntity, path)
	}
	return ParseSiteFixture(data)
}

// ParseSiteFixture decodes a YAML site fixture.
func ParseSiteFixture(data []byte) (*SiteFixture, error) {
	var f SiteFixture
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, cuserr.WrapStdError(err, ErrCodeHost, ErrMsgFixtureDecode)
	}
	return &f, nil
}

// MemoryHost is an in-memory Host and FormSource.
// It is primarily intended for testing, the CLI and development servers.
type MemoryHost struct {
	mu          sync.RWMutex
	site        map[string]string
	themeMods   map[string]string
	posts       map[int]*Post
	postMeta    map[int]map[string]string
	postTerms   map[int]map[string][]int
	users       map[int]*User
	userMeta    map[int]map[string]string
	terms       map[int]*Term
	termMeta    map[int]map[string]string
	attachments map[int]*Attachment
	forms       []*Form
	currentPost int
	currentUser int
	queried     QueriedObject
}

// NewMemoryHost creates a host populated from fixture. A nil fixture
// yields an empty site.
func NewMemoryHost(fixture *SiteFixture) *MemoryHost {
	h := &MemoryHost{
		site:        make(map[string]string),
		themeMods:   make(map[string]string),
		posts:       make(map[int]*Post),
		postMeta:    make(map[int]map[string]string),
		postTerms:   make(map[int]map[string][]int),
		users:       make(map[int]*User),
		userMeta:    make(map[int]map[string]string),
		terms:       make(map[int]*Term),
		termMeta:    make(map[int]map[string]string),
		attachments: make(map[int]*Attachment),
	}
	if fixture == nil {
		return h
	}

	for k, v := range fixture.Site {
		h.site[k] = v
	}
	for k, v := range fixture.ThemeMods {
		h.themeMods[k] = v
	}
	for i := range fixture.Posts {
		p := fixture.Posts[i]
		post := p.Post
		h.AddPost(&post, p.Meta)
		for taxonomy, ids := range p.Terms {
			h.SetPostTerms(post.ID, taxonomy, ids...)
		}
	}
	for i := range fixture.Users {
		u := fixture.Users[i]
		user := u.User
		h.AddUser(&user, u.Meta)
	}
	for i := range fixture.Terms {
		t := fixture.Terms[i]
		term := t.Term
		h.AddTerm(&term, t.Meta)
	}
	for _, a := range fixture.Attachments {
		h.AddAttachment(a)
	}
	for _, f := range fixture.Forms {
		h.AddForm(f)
	}
	h.currentPost = fixture.CurrentPost
	h.currentUser = fixture.CurrentUser
	if q := fixture.Queried; q != nil {
		h.queried = h.queriedFromFixture(q)
	}
	return h
}

func (h *MemoryHost) queriedFromFixture(q *FixtureQueriedPage) QueriedObject {
	switch ParseContextKind(q.Kind) {
	case ContextUser:
		return UserContext{User: h.users[q.ID]}
	case ContextPost:
		return PostContext{Post: h.posts[q.ID]}
	case ContextTerm:
		return TermContext{Term: h.terms[q.ID]}
	case ContextArchive:
		return ArchiveContext{Title: q.Title}
	default:
		return UnknownContext{DocumentTitle: q.Title}
	}
}

// SetSiteInfo sets a site property.
func (h *MemoryHost) SetSiteInfo(show, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.site[show] = value
}

// SetThemeMod sets a theme modification.
func (h *MemoryHost) SetThemeMod(key, value string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.themeMods[key] = value
}

// AddPost stores a post and its meta.
func (h *MemoryHost) AddPost(post *Post, meta map[string]string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.posts[post.ID] = post
	h.postMeta[post.ID] = copyStringMap(meta)
}

// SetPostTerms assigns terms of taxonomy to a post.
func (h *MemoryHost) SetPostTerms(postID int, taxonomy string, termIDs ...int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.postTerms[postID] == nil {
		h.postTerms[postID] = make(map[string][]int)
	}
	h.postTerms[postID][taxonomy] = append([]int(nil), termIDs...)
}

// AddUser stores a user and its meta.
func (h *MemoryHost) AddUser(user *User, meta map[string]string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.users[user.ID] = user
	h.userMeta[user.ID] = copyStringMap(meta)
}

// AddTerm stores a term and its meta.
func (h *MemoryHost) AddTerm(term *Term, meta map[string]string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.terms[term.ID] = term
	h.termMeta[term.ID] = copyStringMap(meta)
}

// AddAttachment stores a media item.
func (h *MemoryHost) AddAttachment(a *Attachment) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attachments[a.ID] = a
}

// AddForm stores a contact form.
func (h *MemoryHost) AddForm(f *Form) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.forms = append(h.forms, f)
}

// SetCurrentPost sets the post being rendered; 0 clears it.
func (h *MemoryHost) SetCurrentPost(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentPost = id
}

// SetCurrentUser sets the logged-in user; 0 means anonymous.
func (h *MemoryHost) SetCurrentUser(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.currentUser = id
}

// SetQueriedObject sets what the page represents.
func (h *MemoryHost) SetQueriedObject(obj QueriedObject) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.queried = obj
}

// SiteInfo implements Host.
func (h *MemoryHost) SiteInfo(ctx context.Context, show string) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.site[show]
	if !ok {
		return "", NewHostNotFoundError(EntitySite, show)
	}
	return v, nil
}

// CurrentPost implements Host.
func (h *MemoryHost) CurrentPost(ctx context.Context) (*Post, error) {
	h.mu.RLock()
	id := h.currentPost
	h.mu.RUnlock()
	if id == 0 {
		return nil, NewHostNotFoundError(EntityPost, "")
	}
	return h.Post(ctx, id)
}

// Post implements Host.
func (h *MemoryHost) Post(ctx context.Context, id int) (*Post, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.posts[id]
	if !ok {
		return nil, NewHostNotFoundError(EntityPost, strconv.Itoa(id))
	}
	return p, nil
}

// PostMeta implements Host.
func (h *MemoryHost) PostMeta(ctx context.Context, postID int, key string) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.postMeta[postID][key]
	if !ok {
		return "", NewHostNotFoundError(EntityPostMeta, strconv.Itoa(postID)+KeyPartSeparator+key)
	}
	return v, nil
}

// CurrentUser implements Host.
func (h *MemoryHost) CurrentUser(ctx context.Context) (*User, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	u, ok := h.users[h.currentUser]
	if h.currentUser == 0 || !ok {
		return nil, NewHostNotFoundError(EntityUser, "")
	}
	return u, nil
}

// UserMeta implements Host.
func (h *MemoryHost) UserMeta(ctx context.Context, userID int, key string) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.userMeta[userID][key]
	if !ok {
		return "", NewHostNotFoundError(EntityUserMeta, strconv.Itoa(userID)+KeyPartSeparator+key)
	}
	return v, nil
}

// PostTerms implements Host. Terms come back in assignment order.
func (h *MemoryHost) PostTerms(ctx context.Context, postID int, taxonomy string) ([]*Term, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if _, ok := h.posts[postID]; !ok {
		return nil, NewHostNotFoundError(EntityPost, strconv.Itoa(postID))
	}
	ids := h.postTerms[postID][taxonomy]
	terms := make([]*Term, 0, len(ids))
	for _, id := range ids {
		if t, ok := h.terms[id]; ok {
			terms = append(terms, t)
		}
	}
	return terms, nil
}

// TermMeta implements Host.
func (h *MemoryHost) TermMeta(ctx context.Context, termID int, key string) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.termMeta[termID][key]
	if !ok {
		return "", NewHostNotFoundError(EntityTermMeta, strconv.Itoa(termID)+KeyPartSeparator+key)
	}
	return v, nil
}

// Attachment implements Host.
func (h *MemoryHost) Attachment(ctx context.Context, id int) (*Attachment, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	a, ok := h.attachments[id]
	if !ok {
		return nil, NewHostNotFoundError(EntityAttachment, strconv.Itoa(id))
	}
	return a, nil
}

// ThemeMod implements Host.
func (h *MemoryHost) ThemeMod(ctx context.Context, key string) (string, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	v, ok := h.themeMods[key]
	if !ok {
		return "", NewHostNotFoundError(EntityThemeMod, key)
	}
	return v, nil
}

// QueriedObject implements Host. Without an explicit page it reports the
// current post, or an unknown page titled with the site name.
func (h *MemoryHost) QueriedObject(ctx context.Context) (QueriedObject, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.queried != nil {
		return h.queried, nil
	}
	if p, ok := h.posts[h.currentPost]; ok {
		return PostContext{Post: p}, nil
	}
	return UnknownContext{DocumentTitle: h.site[DefaultBlogInfoShow]}, nil
}

// Forms implements FormSource. Forms are returned ordered by ID.
func (h *MemoryHost) Forms(ctx context.Context) ([]*Form, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := append([]*Form(nil), h.forms...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func copyStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
