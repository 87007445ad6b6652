package dtx

// ContextKind identifies what the page being rendered represents.
type ContextKind int

const (
	// ContextUnknown is any page that is not one of the kinds below
	ContextUnknown ContextKind = iota
	// ContextUser is a user or author archive
	ContextUser
	// ContextPost is a single post, page or custom post type
	ContextPost
	// ContextTerm is a taxonomy term archive
	ContextTerm
	// ContextArchive is a date, format or post type archive
	ContextArchive
)

// Context kind names
const (
	ContextKindNameUnknown = "unknown"
	ContextKindNameUser    = "user"
	ContextKindNamePost    = "post"
	ContextKindNameTerm    = "term"
	ContextKindNameArchive = "archive"
)

// String returns the name of the context kind
func (k ContextKind) String() string {
	switch k {
	case ContextUser:
		return ContextKindNameUser
	case ContextPost:
		return ContextKindNamePost
	case ContextTerm:
		return ContextKindNameTerm
	case ContextArchive:
		return ContextKindNameArchive
	default:
		return ContextKindNameUnknown
	}
}

// ParseContextKind maps a name to a ContextKind.
func ParseContextKind(name string) ContextKind {
	switch name {
	case ContextKindNameUser:
		return ContextUser
	case ContextKindNamePost:
		return ContextPost
	case ContextKindNameTerm:
		return ContextTerm
	case ContextKindNameArchive:
		return ContextArchive
	default:
		return ContextUnknown
	}
}

// QueriedObject is the classified page context. The concrete type is one of
// UserContext, PostContext, TermContext, ArchiveContext or UnknownContext.
type QueriedObject interface {
	Kind() ContextKind
}

// UserContext is a page about a user.
type UserContext struct {
	User *User
}

// Kind implements QueriedObject
func (UserContext) Kind() ContextKind { return ContextUser }

// PostContext is a page showing a single post.
type PostContext struct {
	Post *Post
}

// Kind implements QueriedObject
func (PostContext) Kind() ContextKind { return ContextPost }

// TermContext is a page listing a taxonomy term.
type TermContext struct {
	Term *Term
}

// Kind implements QueriedObject
func (TermContext) Kind() ContextKind { return ContextTerm }

// ArchiveContext is a date, format or post type archive.
type ArchiveContext struct {
	Title string
}

// Kind implements QueriedObject
func (ArchiveContext) Kind() ContextKind { return ContextArchive }

// UnknownContext is any other page. DocumentTitle is the title the host
// would print in the document head.
type UnknownContext struct {
	DocumentTitle string
}

// Kind implements QueriedObject
func (UnknownContext) Kind() ContextKind { return ContextUnknown }
