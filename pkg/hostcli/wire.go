package hostcli

import (
	"encoding/json"
	"time"

	"github.com/leddt/bwtui/pkg/vaultentry"
)

// The host CLI's JSON item shape is Bitwarden-compatible: `type` is an
// integer 1..4, `login.uris` carries a `uri` string plus a schema-flexible
// `match` field whose type varies across host-tool versions. `match` is
// decoded into json.RawMessage and discarded at the parse boundary (see
// spec.md §4.1 and §9) rather than surfaced, so the internal types can
// stay a strict, schema-rigid shape.

type wireItem struct {
	ID             string        `json:"id"`
	Name           string        `json:"name"`
	Type           int           `json:"type"`
	Notes          *string       `json:"notes"`
	FolderID       *string       `json:"folderId"`
	OrganizationID *string       `json:"organizationId"`
	Favorite       bool          `json:"favorite"`
	RevisionDate   *time.Time    `json:"revisionDate"`
	Login          *wireLogin    `json:"login"`
	Card           *wireCard     `json:"card"`
	Identity       *wireIdentity `json:"identity"`
}

type wireLogin struct {
	Username *string   `json:"username"`
	Password *string   `json:"password"`
	TOTP     *string   `json:"totp"`
	URIs     []wireURI `json:"uris"`
}

type wireURI struct {
	URI   string          `json:"uri"`
	Match json.RawMessage `json:"match"` // intentionally discarded, see above
}

type wireCard struct {
	CardholderName *string `json:"cardholderName"`
	Number         *string `json:"number"`
	Brand          *string `json:"brand"`
	ExpMonth       *string `json:"expMonth"`
	ExpYear        *string `json:"expYear"`
	Code           *string `json:"code"`
}

type wireIdentity struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email"`
	Username  *string `json:"username"`
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// toEntry converts a decoded wire item into the internal Entry type.
// Unknown fields are ignored by json.Unmarshal already; missing optional
// fields decode to nil pointers and become zero values here.
func (w *wireItem) toEntry() *vaultentry.Entry {
	e := &vaultentry.Entry{
		ID:       w.ID,
		Name:     w.Name,
		Kind:     vaultentry.Kind(w.Type),
		Notes:    str(w.Notes),
		FolderID: str(w.FolderID),
		Favorite: w.Favorite,
	}
	if w.OrganizationID != nil {
		e.OrganizationID = *w.OrganizationID
	}
	if w.RevisionDate != nil {
		e.Revision = *w.RevisionDate
	}

	if w.Login != nil {
		uris := make([]string, 0, len(w.Login.URIs))
		for _, u := range w.Login.URIs {
			uris = append(uris, u.URI)
		}
		e.Login = &vaultentry.Login{
			Username: str(w.Login.Username),
			Password: str(w.Login.Password),
			TOTPSeed: str(w.Login.TOTP),
			URIs:     uris,
		}
	}

	if w.Card != nil {
		e.Card = &vaultentry.Card{
			Holder:   str(w.Card.CardholderName),
			Number:   str(w.Card.Number),
			Brand:    str(w.Card.Brand),
			ExpMonth: str(w.Card.ExpMonth),
			ExpYear:  str(w.Card.ExpYear),
			Code:     str(w.Card.Code),
		}
	}

	if w.Identity != nil {
		e.Identity = &vaultentry.Identity{
			FirstName: str(w.Identity.FirstName),
			LastName:  str(w.Identity.LastName),
			Email:     str(w.Identity.Email),
			Username:  str(w.Identity.Username),
		}
	}

	return e
}

type wireListResponse struct {
	Data []wireItem `json:"data"`
}

type wireStatusResponse struct {
	Status    string `json:"status"`
	UserID    string `json:"userId"`
	UserEmail string `json:"userEmail"`
}

// Status enumerates the vault status the host CLI reports.
type Status int

const (
	StatusUnknown Status = iota
	StatusLoggedOut
	StatusLocked
	StatusUnlocked
)

func parseStatus(s string) Status {
	switch s {
	case "unlocked":
		return StatusUnlocked
	case "locked":
		return StatusLocked
	case "unauthenticated":
		return StatusLoggedOut
	default:
		return StatusUnknown
	}
}
