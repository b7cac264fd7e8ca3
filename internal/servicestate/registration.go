//
//
package servicestate

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
)

// ErrMalformedReply is returned when a reply does not have the expected shape.
var ErrMalformedReply = errors.New("malformed reply")

// RegistrationFieldCount is the number of fields in a registration reply.
const RegistrationFieldCount = 14

// Denial reasons reported in registration field 13.
const (
	DenialGeneral        = "General"
	DenialAuthentication = "Authentication Failure"
)

// Pending is the snapshot being assembled by the current poll round.
type Pending struct {
	next    Snapshot
	offline bool

	registrationCode int
	rawRoaming       bool
	reportedInd      int

	policy *RoamingPolicy
	logger *slog.Logger
}

func newPending(policy *RoamingPolicy, logger *slog.Logger) *Pending {
	return &Pending{
		next:             OutOfServiceSnapshot(),
		registrationCode: -1,
		reportedInd:      -1,
		policy:           policy,
		logger:           logger,
	}
}

// Snapshot returns the fields accumulated so far.
func (p *Pending) Snapshot() Snapshot {
	return p.next
}

// Offline reports whether this pending state was synthesized for a radio
// that cannot answer.
func (p *Pending) Offline() bool {
	return p.offline
}

// MarkOffline resets the pending state to out of service and flags it as
// synthesized, so completion skips the roaming computation.
func (p *Pending) MarkOffline() {
	p.next = OutOfServiceSnapshot()
	p.offline = true
	p.rawRoaming = false
}

// ApplyRegistrationReply parses a registration state reply.
//
// A reply with the wrong field count is rejected and the pending state is
// left untouched. Individual fields that fail to parse keep their defaults.
func (p *Pending) ApplyRegistrationReply(fields []string) error {
	if len(fields) != RegistrationFieldCount {
		return fmt.Errorf("registration reply has %d fields, want %d: %w",
			len(fields), RegistrationFieldCount, ErrMalformedReply)
	}

	code := p.intField(fields, 0, 4)
	tech := p.intField(fields, 3, -1)
	bsid := p.intField(fields, 4, -1)
	lat := p.intField(fields, 5, InvalidCoordinate)
	long := p.intField(fields, 6, InvalidCoordinate)
	css := p.intField(fields, 7, 0)
	sid := p.intField(fields, 8, 0)
	nid := p.intField(fields, 9, 0)
	roamInd := p.intField(fields, 10, -1)
	inPRL := p.intField(fields, 11, 0)
	defRoamInd := p.intField(fields, 12, 0)
	denial := p.intField(fields, 13, -1)

	// Some modems report 0,0 when the position is unknown.
	if lat == 0 && long == 0 {
		lat, long = InvalidCoordinate, InvalidCoordinate
	}

	state, known := p.policy.Codes.Lookup(code)
	if !known {
		p.logger.Warn("unexpected registration state", "code", code)
	}

	p.registrationCode = code
	p.rawRoaming = p.policy.Codes.IsRoaming(code) && !p.policy.IsHomeIndicator(fields[10])
	p.reportedInd = roamInd

	p.next.State = state
	p.next.RadioTechnology = tech
	p.next.CSSIndicator = css != 0
	p.next.SystemID = sid
	p.next.NetworkID = nid
	p.next.RoamingIndicator = roamInd
	p.next.DefaultRoamingIndicator = defRoamInd
	p.next.InPRL = inPRL != 0
	p.next.DenialReason = denialReason(denial)
	p.next.Location = CellLocation{
		BaseStationID: bsid,
		Latitude:      lat,
		Longitude:     long,
		SystemID:      sid,
		NetworkID:     nid,
	}
	return nil
}

// ApplyOperatorReply parses an operator reply: alpha long, alpha short,
// numeric. In NV mode the alpha long is replaced by ERI text at commit.
func (p *Pending) ApplyOperatorReply(fields []string) error {
	if len(fields) < 3 {
		return fmt.Errorf("operator reply has %d fields, want at least 3: %w",
			len(fields), ErrMalformedReply)
	}

	op := Operator{AlphaLong: fields[0], AlphaShort: fields[1], Numeric: fields[2]}
	if p.policy.Source == SourceNV {
		op.AlphaLong = ""
	}
	p.next.Operator = op
	return nil
}

func (p *Pending) intField(fields []string, i, def int) int {
	if fields[i] == "" {
		return def
	}
	v, err := strconv.Atoi(fields[i])
	if err != nil {
		p.logger.Warn("failed to parse registration field",
			"index", i, "value", fields[i], "error", err)
		return def
	}
	return v
}

func denialReason(code int) string {
	switch code {
	case 0:
		return DenialGeneral
	case 1:
		return DenialAuthentication
	default:
		return ""
	}
}
