package types

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/uptrace/bun"
)

var (
	// ErrDocumentNotFound is returned when a document does not exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrVersionConflict is returned when a compare-and-swap replace loses the race.
	ErrVersionConflict = errors.New("document version conflict")
)

// Collection identifies a logical document collection.
type Collection string

// Document collections persisted by the dashboard.
const (
	CollectionOrganizations   Collection = "organizations"
	CollectionAwards          Collection = "awards"
	CollectionGroupAutomation Collection = "groupAutomation"
	CollectionAuditLogs       Collection = "auditLogs"
	CollectionPendingBotJoins Collection = "pendingBotJoins"
	CollectionSiteConfig      Collection = "siteConfig"
)

// AdminsDocumentID is the id of the singleton site admins document
// in the siteConfig collection.
const AdminsDocumentID = "admins"

// Document is a single JSON document in a logical collection.
// The version column is the optimistic-concurrency token: every write
// increments it, and full replaces must present the version they read.
type Document struct {
	bun.BaseModel `bun:"table:documents"`

	Collection string          `bun:"collection,pk"`
	ID         string          `bun:"id,pk"`
	Data       json.RawMessage `bun:"data,type:jsonb,notnull"`
	Version    int64           `bun:"version,notnull,default:1"`
	UpdatedAt  time.Time       `bun:"updated_at,notnull,default:current_timestamp"`
}
