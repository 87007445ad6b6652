package dtx

import "time"

// Built-in tag names, as the host platform registers them
const (
	TagNameGet         = "CF7_GET"
	TagNamePost        = "CF7_POST"
	TagNameURL         = "CF7_URL"
	TagNameReferrer    = "CF7_referrer"
	TagNameCookie      = "CF7_get_cookie"
	TagNameBlogInfo    = "CF7_bloginfo"
	TagNamePostVar     = "CF7_get_post_var"
	TagNameCustomField = "CF7_get_custom_field"
	TagNameCurrentUser = "CF7_get_current_user"
	TagNameAttachment  = "CF7_get_attachment"
	TagNameTaxonomy    = "CF7_get_taxonomy"
	TagNameThemeOption = "CF7_get_theme_option"
	TagNameGUID        = "CF7_guid"
	TagNameCurrentVar  = "CF7_get_current_var"
)

// Option (attribute) name constants
const (
	OptKey              = "key"
	OptDefault          = "default"
	OptObfuscate        = "obfuscate"
	OptPostID           = "post_id"
	OptID               = "id"
	OptAllowedProtocols = "allowed_protocols"
	OptPart             = "part"
	OptShow             = "show"
	OptSize             = "size"
	OptReturn           = "return"
	OptTaxonomy         = "taxonomy"
	OptFields           = "fields"
)

// Option default values
const (
	DefaultPostVarKey       = "post_title"
	DefaultCurrentUserKey   = "user_login"
	DefaultCurrentVarKey    = "title"
	DefaultBlogInfoShow     = "name"
	DefaultAllowedProtocols = "http,https"
	DefaultAttachmentSize   = "full"
	DefaultAttachmentReturn = "url"
	DefaultTaxonomy         = "category"
	DefaultTaxonomyFields   = "names"
)

// CF7_URL part values
const (
	URLPartScheme   = "scheme"
	URLPartHost     = "host"
	URLPartPort     = "port"
	URLPartPath     = "path"
	URLPartQuery    = "query"
	URLPartFragment = "fragment"
)

// CF7_get_attachment return values
const (
	AttachmentReturnURL = "url"
	AttachmentReturnID  = "id"
)

// CF7_get_taxonomy fields values
const (
	TaxonomyFieldsNames = "names"
	TaxonomyFieldsSlugs = "slugs"
	TaxonomyFieldsIDs   = "ids"
)

// Special keys understood by CF7_get_current_var
const (
	CurrentKeyImage         = "image"
	CurrentKeyFeaturedImage = "featured_image"
	CurrentKeyTerms         = "terms"
	CurrentKeySlug          = "slug"
	CurrentKeyTitle         = "title"
	CurrentKeyACFID         = "acf_id"
	CurrentKeyDescription   = "description"
	CurrentKeyCount         = "count"
	CurrentKeyID            = "id"
)

// Truthy flag values (compared case-insensitively)
var truthyValues = []string{"1", "true", "yes", "on"}

// Separators
const (
	ListSeparator      = ","
	JoinSeparator      = ", "
	AttrValueQuote     = "'"
	AttrAssign         = "='"
	PostFieldPrefix    = "post_"
	KeyPartSeparator   = "_"
	AllowListSeparator = "\n"
)

// Batch endpoint defaults
const (
	DefaultMaxBatchEntries = 100
	DefaultMaxBodyBytes    = 1 << 20
	ContentTypeJSON        = "application/json"
	ContentTypeCBOR        = "application/cbor"
	HeaderContentType      = "Content-Type"
	HeaderAccept           = "Accept"
)

// Alert limits
const (
	DefaultAlertLimit = 1000
)

// Error code constants for categorization
const (
	ErrCodeParse    = "DTX_PARSE"
	ErrCodeResolve  = "DTX_RESOLVE"
	ErrCodeRegistry = "DTX_REGISTRY"
	ErrCodeBatch    = "DTX_BATCH"
	ErrCodeScan     = "DTX_SCAN"
	ErrCodeHost     = "DTX_HOST"
)

// Metadata keys for cuserr.WithMetadata
const (
	MetaKeyColumn   = "column"
	MetaKeyOffset   = "offset"
	MetaKeyFragment = "fragment"
	MetaKeyTag      = "tag"
	MetaKeyKey      = "key"
	MetaKeyDomain   = "domain"
	MetaKeyFormID   = "form_id"
	MetaKeyEntity   = "entity"
	MetaKeyID       = "id"
	MetaKeyLimit    = "limit"
)

// Log message constants
const (
	LogMsgEngineCreated     = "engine created"
	LogMsgResolveStart      = "resolving shortcode"
	LogMsgResolveComplete   = "shortcode resolved"
	LogMsgUnknownTag        = "unknown tag, using literal value"
	LogMsgResolverPanic     = "resolver panicked, returning empty value"
	LogMsgHostLookupFailed  = "host lookup failed"
	LogMsgAccessDenied      = "access denied for key"
	LogMsgAlertRecordFailed = "failed to record access alert"
	LogMsgBatchReceived     = "batch request received"
	LogMsgBatchRejected     = "batch request rejected"
	LogMsgSettingsLoadFail  = "failed to load settings, denying protected keys"
	LogMsgScanStart         = "scanning forms for protected keys"
	LogMsgScanComplete      = "form scan complete"
	LogMsgScanFormProblem   = "form tag could not be parsed cleanly"
)

// Log field names
const (
	LogFieldTag      = "tag"
	LogFieldKey      = "key"
	LogFieldDomain   = "domain"
	LogFieldEntries  = "entries"
	LogFieldForms    = "forms"
	LogFieldFindings = "findings"
	LogFieldStatus   = "status"
	LogFieldFormID   = "form_id"
	LogFieldPanic    = "panic"
	LogFieldEntity   = "entity"
)

// Host entity names used in lookup errors and logs
const (
	EntitySite          = "site"
	EntityPost          = "post"
	EntityPostMeta      = "post_meta"
	EntityUser          = "user"
	EntityUserMeta      = "user_meta"
	EntityTerm          = "term"
	EntityTermMeta      = "term_meta"
	EntityAttachment    = "attachment"
	EntityThemeMod      = "theme_mod"
	EntityQueriedObject = "queried_object"
	EntityForm          = "form"
)

// Storage driver names
const (
	StorageDriverNameMemory     = "memory"
	StorageDriverNameFilesystem = "filesystem"
	StorageDriverNamePostgres   = "postgres"
	StorageDriverNameSQLite     = "sqlite"
)

// Filesystem storage constants
const (
	FilesystemSettingsFile   = "settings.yaml"
	FilesystemAlertsFile     = "alerts.yaml"
	FilesystemDirPermissions = 0o755
	FilesystemFilePermission = 0o644
)

// SQL storage configuration defaults
const (
	PostgresTablePrefix            = "dtx_"
	PostgresDefaultMaxOpenConns    = 10
	PostgresDefaultMaxIdleConns    = 2
	PostgresDefaultConnMaxLifetime = 5 * time.Minute
	PostgresDefaultConnMaxIdleTime = 5 * time.Minute
	PostgresDefaultQueryTimeout    = 10 * time.Second
	SQLiteTablePrefix              = "dtx_"
	SQLiteMemoryDSN                = ":memory:"
	SQLiteDefaultQueryTimeout      = 10 * time.Second
)

// Settings row identity; the settings table holds exactly one row
const settingsRowID = 1
