package servicestate

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radio-control/cellstate/internal/props"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingEmitter struct {
	changes   []Change
	snapshots []Snapshot
}

func (e *recordingEmitter) ServiceChanged(c Change, s Snapshot) {
	e.changes = append(e.changes, c)
	e.snapshots = append(e.snapshots, s)
}

type recordingCountry struct {
	resolved []string
	lost     int
}

func (c *recordingCountry) CountryResolved(iso string) { c.resolved = append(c.resolved, iso) }
func (c *recordingCountry) CountryLost()               { c.lost++ }

type fixture struct {
	r       *Reconciler
	emitter *recordingEmitter
	country *recordingCountry
	props   *props.MemStore
}

func newFixture(policy RoamingPolicy) *fixture {
	f := &fixture{
		emitter: &recordingEmitter{},
		country: &recordingCountry{},
		props:   props.NewMemStore(nil),
	}
	f.r = NewReconciler(Options{
		Policy:  policy,
		Props:   f.props,
		Emitter: f.emitter,
		Country: f.country,
		Logger:  discardLogger(),
	})
	return f
}

func (f *fixture) round(t *testing.T, reg []string, op []string) Diff {
	t.Helper()
	p := f.r.NewPending()
	if reg != nil {
		require.NoError(t, p.ApplyRegistrationReply(reg))
	}
	if op != nil {
		require.NoError(t, p.ApplyOperatorReply(op))
	}
	return f.r.OnRoundComplete(p)
}

func (f *fixture) offline() Diff {
	p := f.r.NewPending()
	p.MarkOffline()
	return f.r.OnRoundComplete(p)
}

func TestFirstRegistration(t *testing.T) {
	f := newFixture(DefaultRoamingPolicy())

	diff := f.round(t, registrationFields("1", "1"), []string{"Carrier", "CR", "310260"})

	assert.True(t, diff.Registered)
	assert.False(t, diff.Deregistered)
	assert.Equal(t, []Change{ChangeRegistered, ChangeServiceState, ChangeLocation}, f.emitter.changes)

	committed := f.r.Committed()
	assert.Equal(t, InService, committed.State)
	assert.Equal(t, 2, committed.RoamingIndicator, "no PRL loaded forces flashing")
	assert.Equal(t, IconModeFlash, committed.EriIconMode)

	assert.Equal(t, "Carrier", f.props.Get(props.OperatorAlpha, ""))
	assert.Equal(t, "310260", f.props.Get(props.OperatorNumeric, ""))
	assert.Equal(t, "us", f.props.Get(props.OperatorISOCountry, ""))
	assert.Equal(t, "false", f.props.Get(props.OperatorIsRoaming, ""))
	assert.Equal(t, []string{"us"}, f.country.resolved)

	iso, known := f.r.Country()
	assert.True(t, known)
	assert.Equal(t, "us", iso)
}

func TestIdenticalRoundFiresNothing(t *testing.T) {
	f := newFixture(DefaultRoamingPolicy())
	f.round(t, registrationFields("1", "1"), []string{"Carrier", "CR", "310260"})
	f.emitter.changes = nil

	diff := f.round(t, registrationFields("1", "1"), []string{"Carrier", "CR", "310260"})
	assert.False(t, diff.Any())
	assert.Empty(t, f.emitter.changes)
}

func TestEventOrder(t *testing.T) {
	f := newFixture(DefaultRoamingPolicy())
	f.round(t, registrationFields("1", "1"), []string{"Carrier", "CR", "310260"})
	f.emitter.changes = nil

	reg := registrationFields("5", "6")
	reg[4] = "999"
	diff := f.round(t, reg, []string{"Visited", "VS", "302720"})

	assert.True(t, diff.RoamingOn)
	assert.True(t, diff.LocationChanged)
	assert.Equal(t, []Change{ChangeServiceState, ChangeRoamingOn, ChangeLocation}, f.emitter.changes)
	assert.Equal(t, "true", f.props.Get(props.OperatorIsRoaming, ""))
	assert.Equal(t, "ca", f.props.Get(props.OperatorISOCountry, ""))
}

func TestOfflineRoundDeregisters(t *testing.T) {
	f := newFixture(DefaultRoamingPolicy())
	f.round(t, registrationFields("5", "6"), []string{"Visited", "VS", "302720"})
	require.True(t, f.r.Committed().Roaming)
	f.emitter.changes = nil

	diff := f.offline()
	assert.True(t, diff.Deregistered)
	assert.Equal(t, []Change{ChangeDeregistered, ChangeServiceState, ChangeRoamingOff, ChangeLocation}, f.emitter.changes)
	assert.Equal(t, OutOfServiceSnapshot(), f.r.Committed())
	assert.Equal(t, "", f.props.Get(props.OperatorISOCountry, "x"))

	f.emitter.changes = nil
	f.offline()
	assert.Empty(t, f.emitter.changes, "a second offline round is not a change")
}

func TestRoamingIndicatorWithSubscription(t *testing.T) {
	f := newFixture(DefaultRoamingPolicy())
	require.NoError(t, f.r.ApplySubscriptionReply([]string{"5551234", "4", "65535", "1234567890"}))
	require.NoError(t, f.r.ApplyPRLVersion([]string{"51"}))

	f.round(t, registrationFields("5", "1"), []string{"Visited", "VS", "310000"})
	committed := f.r.Committed()
	assert.True(t, committed.Roaming)
	assert.Equal(t, 1, committed.RoamingIndicator, "nam match, in PRL, reported 1 resolves to off")

	reg := registrationFields("5", "1")
	reg[8] = "77" // not a home SID
	f.round(t, reg, []string{"Visited", "VS", "310000"})
	assert.Equal(t, 1, f.r.Committed().RoamingIndicator, "no nam match, in PRL keeps reported")

	reg[11] = "0" // not in PRL
	f.round(t, reg, []string{"Visited", "VS", "310000"})
	assert.Equal(t, 3, f.r.Committed().RoamingIndicator, "uses default indicator")
}

func TestRUIMHomeOperatorSuppressesRoaming(t *testing.T) {
	f := newFixture(DefaultRoamingPolicy())
	require.NoError(t, f.props.Set(props.SIMOperatorAlpha, "Carrier"))

	f.round(t, registrationFields("5", "6"), []string{"Carrier", "CR", "310260"})
	assert.False(t, f.r.Committed().Roaming)

	f.round(t, registrationFields("5", "6"), []string{"Elsewhere", "EW", "310260"})
	assert.True(t, f.r.Committed().Roaming)
}

func TestNVPassesRoamingThroughAndSetsEriText(t *testing.T) {
	policy := DefaultRoamingPolicy()
	policy.Source = SourceNV
	f := newFixture(policy)
	require.NoError(t, f.props.Set(props.SIMOperatorAlpha, "Carrier"))
	require.NoError(t, f.r.ApplySubscriptionReply([]string{"", "4", "", "", "3"}))

	reg := registrationFields("5", "6")
	f.round(t, reg, []string{"Carrier", "CR", "310260"})

	committed := f.r.Committed()
	assert.True(t, committed.Roaming)
	assert.Equal(t, "Roaming - Available System", committed.EriText)
	assert.Equal(t, committed.EriText, committed.Operator.AlphaLong)
	assert.Equal(t, "Roaming - Available System", f.props.Get(props.OperatorAlpha, ""))

	f.round(t, registrationFields("2", "6"), []string{"Carrier", "CR", "310260"})
	assert.Equal(t, SearchingText, f.r.Committed().EriText)
}

func TestEmptyNumericLeavesCountryUnknown(t *testing.T) {
	f := newFixture(DefaultRoamingPolicy())
	f.round(t, registrationFields("1", "1"), []string{"", "", ""})

	_, known := f.r.Country()
	assert.False(t, known)
	assert.Empty(t, f.country.resolved)
}

func TestBadNumericStillResolvesEmptyCountry(t *testing.T) {
	f := newFixture(DefaultRoamingPolicy())
	f.round(t, registrationFields("1", "1"), []string{"Test", "T", "00"})

	iso, known := f.r.Country()
	assert.True(t, known)
	assert.Equal(t, "", iso)
	assert.Equal(t, []string{""}, f.country.resolved)
}

func TestResetCountry(t *testing.T) {
	f := newFixture(DefaultRoamingPolicy())
	f.round(t, registrationFields("1", "1"), []string{"Carrier", "CR", "310260"})

	f.r.ResetCountry()
	_, known := f.r.Country()
	assert.False(t, known)
	assert.Equal(t, 1, f.country.lost)
}

func TestSubscriptionReadyFiresOnce(t *testing.T) {
	f := newFixture(DefaultRoamingPolicy())
	require.NoError(t, f.r.ApplyPRLVersion([]string{"9"}))

	require.NoError(t, f.r.ApplySubscriptionReply([]string{"1", "4", "", "2"}))
	require.NoError(t, f.r.ApplySubscriptionReply([]string{"1", "5", "", "2"}))

	assert.Equal(t, []Change{ChangeSubscriptionReady}, f.emitter.changes)
	assert.True(t, f.r.SubscriptionReady())
	assert.Equal(t, "9", f.r.Subscription().PRLVersion, "PRL version survives a reply without one")
	assert.Equal(t, []int{5}, f.r.Subscription().HomeSIDs)

	assert.Error(t, f.r.ApplySubscriptionReply([]string{"1"}))
	assert.Error(t, f.r.ApplyPRLVersion(nil))
}

func TestCompareIgnoresLocationForEquality(t *testing.T) {
	a := OutOfServiceSnapshot()
	b := a
	b.Location.BaseStationID = 9

	d := Compare(a, b)
	assert.False(t, d.Changed)
	assert.True(t, d.LocationChanged)
	assert.True(t, d.Any())
}
