package rivus

import (
	"database/sql"
	"log/slog"

	"github.com/petrijr/rivus/internal/journal"
	"github.com/petrijr/rivus/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Event           = api.Event
	EventType       = api.EventType
	Node            = api.Node
	Sender          = api.Sender
	NodeSpec        = api.NodeSpec
	NodeConfig      = api.NodeConfig
	TransportConfig = api.TransportConfig
	Dialer          = api.Dialer

	Observer             = api.Observer
	NoopObserver         = api.NoopObserver
	CompositeObserver    = api.CompositeObserver
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot

	Journal = api.Journal
	Record  = api.Record
)

// Re-export event kinds for convenience.

const (
	EventInput       = api.EventInput
	EventStop        = api.EventStop
	EventInputClosed = api.EventInputClosed
	EventError       = api.EventError
)

// Re-export sentinel errors so callers can errors.Is against them without
// importing pkg/api.

var (
	ErrStreamClosed     = api.ErrStreamClosed
	ErrEventOutstanding = api.ErrEventOutstanding
	ErrEventReleased    = api.ErrEventReleased
	ErrNodeClosed       = api.ErrNodeClosed
	ErrUnknownOutput    = api.ErrUnknownOutput
	ErrNoNodeConfig     = api.ErrNoNodeConfig
)

// Re-export common observer helpers.

var (
	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
)

// Journal constructors
// These wrap the internal/journal package so external callers never need to
// import internal packages.

// NewMemoryJournal returns a Journal kept entirely in process memory.
func NewMemoryJournal() Journal {
	return journal.NewMemoryJournal()
}

// NewSQLiteJournal returns a Journal that persists audit records in a SQLite
// database. The caller imports the driver (e.g. "modernc.org/sqlite") and
// owns the *sql.DB.
func NewSQLiteJournal(db *sql.DB) (Journal, error) {
	return journal.NewSQLiteJournal(db)
}

// NewJournalObserver adapts a Journal into an Observer, so a Runner records
// its own history.
func NewJournalObserver(j Journal, logger *slog.Logger) Observer {
	return api.NewJournalObserver(j, logger)
}

// Config helpers.

var (
	ParseNodeConfig   = api.ParseNodeConfig
	NodeConfigFromEnv = api.NodeConfigFromEnv
)

// EnvNodeConfig is the environment variable carrying the node configuration.
const EnvNodeConfig = api.EnvNodeConfig
