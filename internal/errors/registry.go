package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category   Category
	Message    string
	Suggestion string
}

// Registered codes.
const (
	CodeUnknownIdentifier = "K101"
	CodeDoubleRelease     = "K102"
	CodeReleasedScope     = "K103"
	CodeScopeInUse        = "K104"
	CodeCacheOccupied     = "K105"

	CodeAlreadyMounted = "K201"
	CodeNotMounted     = "K202"
	CodeNilComponent   = "K203"
	CodeStateType      = "K204"

	CodeHostRefused  = "K301"
	CodeRollbackFail = "K302"

	CodeConfigRead    = "K401"
	CodeConfigParse   = "K402"
	CodeConfigInvalid = "K403"

	CodeFrameDecode    = "K501"
	CodeSessionClosed  = "K502"
	CodeEventQueueFull = "K503"
	CodeEventRate      = "K504"

	CodeSnapshotName     = "K601"
	CodeSnapshotNotFound = "K602"
	CodeSnapshotStore    = "K603"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Identifier errors (K101-K199)
	// ============================================

	CodeUnknownIdentifier: {
		Category: CategoryIdentifier,
		Message:  "Release of unknown identifier",
	},
	CodeDoubleRelease: {
		Category: CategoryIdentifier,
		Message:  "Identifier released twice",
	},
	CodeReleasedScope: {
		Category:   CategoryIdentifier,
		Message:    "Identifier requested for a released scope",
		Suggestion: "A component instance allocated identifiers after it was unmounted.",
	},
	CodeScopeInUse: {
		Category: CategoryIdentifier,
		Message:  "Render position already holds a live identifier",
	},
	CodeCacheOccupied: {
		Category: CategoryIdentifier,
		Message:  "Node requested for an identifier that already has a live node",
	},

	// ============================================
	// Lifecycle errors (K201-K299)
	// ============================================

	CodeAlreadyMounted: {
		Category: CategoryLifecycle,
		Message:  "Controller is already mounted",
	},
	CodeNotMounted: {
		Category: CategoryLifecycle,
		Message:  "Controller is not mounted",
	},
	CodeNilComponent: {
		Category: CategoryLifecycle,
		Message:  "Component is nil",
	},
	CodeStateType: {
		Category:   CategoryLifecycle,
		Message:    "Component state has an unexpected type",
		Suggestion: "HandleEvent and Render must receive the state value returned by Init.",
	},

	// ============================================
	// Host errors (K301-K399)
	// ============================================

	CodeHostRefused: {
		Category: CategoryHost,
		Message:  "Rendering surface refused a mutation",
	},
	CodeRollbackFail: {
		Category: CategoryHost,
		Message:  "Rendering surface refused to roll back a partial commit",
	},

	// ============================================
	// Config errors (K401-K499)
	// ============================================

	CodeConfigRead: {
		Category: CategoryConfig,
		Message:  "Failed to read configuration file",
	},
	CodeConfigParse: {
		Category: CategoryConfig,
		Message:  "Failed to parse configuration file",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},

	// ============================================
	// Protocol errors (K501-K599)
	// ============================================

	CodeFrameDecode: {
		Category: CategoryProtocol,
		Message:  "Malformed frame",
	},
	CodeSessionClosed: {
		Category: CategoryProtocol,
		Message:  "Session is closed",
	},
	CodeEventQueueFull: {
		Category:   CategoryProtocol,
		Message:    "Event queue full",
		Suggestion: "The client is sending events faster than the session renders them.",
	},
	CodeEventRate: {
		Category:   CategoryProtocol,
		Message:    "Event rate limit exceeded",
		Suggestion: "Raise server.eventRate or debounce the client's events.",
	},

	// ============================================
	// Snapshot errors (K601-K699)
	// ============================================

	CodeSnapshotName: {
		Category:   CategorySnapshot,
		Message:    "Invalid snapshot name",
		Suggestion: "Use letters, digits, dots, dashes and underscores only.",
	},
	CodeSnapshotNotFound: {
		Category: CategorySnapshot,
		Message:  "Snapshot not found",
	},
	CodeSnapshotStore: {
		Category: CategorySnapshot,
		Message:  "Snapshot store failed",
	},
}

// Lookup returns the template registered for code.
func Lookup(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
