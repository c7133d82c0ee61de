package order_test

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/labtrack/internal/identity"
	"github.com/MrJamesThe3rd/labtrack/internal/order"
)

var base = time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

// stamper hands out deterministic stamps for a given actor.
type stamper struct{ n int }

func (s *stamper) next(actor identity.Actor) order.Stamp {
	s.n++

	return order.Stamp{
		EventID: uuid.NewSHA1(uuid.NameSpaceOID, fmt.Appendf(nil, "event-%d", s.n)),
		At:      base.Add(time.Duration(s.n) * time.Minute),
		Actor:   actor,
	}
}

func newPendingOrder(t *testing.T) *order.Order {
	t.Helper()

	var st stamper

	o, err := order.Build(uuid.New(), order.Draft{
		Channel:     order.ChannelFrontDesk,
		ExternalRef: "0001",
		PatientRef:  "P-77",
		CustomerID:  "clinic-9",
		DueDate:     base.Add(72 * time.Hour),
	}, []order.LineItem{{Name: "Coroa", Quantity: 1, UnitPrice: 45000}}, st.next(identity.Actor{ID: "desk", Name: "Recepção"}))
	require.NoError(t, err)

	return o
}

var (
	ceramics = identity.Actor{ID: "u-1", Name: "Rita", Sector: "Ceramics"}
	cad      = identity.Actor{ID: "u-2", Name: "João", Sector: "CAD"}
	manager  = identity.Actor{ID: "u-3", Name: "Gestão"}
)

func TestClassifyScan(t *testing.T) {
	o := newPendingOrder(t)
	o.History = o.History.Append(order.Event{Action: order.EntryAction("Ceramics"), Sector: "Ceramics"})
	o.CurrentSector = "Ceramics"

	assert.Equal(t, order.ScanExit, order.ClassifyScan(o, ceramics))
	assert.Equal(t, order.ScanEntry, order.ClassifyScan(o, cad))
	assert.Equal(t, order.ScanTracking, order.ClassifyScan(o, manager))
}

func TestClassifyScan_OnlyLastEventCounts(t *testing.T) {
	type testCase struct {
		name string
		last order.Event
		want order.ScanKind
	}

	tests := []testCase{
		{name: "EntryHere", last: order.Event{Action: order.EntryAction("Ceramics"), Sector: "Ceramics"}, want: order.ScanExit},
		{name: "ExitHere", last: order.Event{Action: order.ExitAction("Ceramics"), Sector: "Ceramics"}, want: order.ScanEntry},
		{name: "EntryElsewhere", last: order.Event{Action: order.EntryAction("CAD"), Sector: "CAD"}, want: order.ScanEntry},
		{name: "NoSector", last: order.Event{Action: order.ActionReopened}, want: order.ScanEntry},
		{name: "FinalizedHere", last: order.Event{Action: order.ActionFinalized, Sector: "Ceramics"}, want: order.ScanEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := newPendingOrder(t)
			// An older entry at Ceramics must not matter.
			o.History = o.History.
				Append(order.Event{Action: order.EntryAction("Ceramics"), Sector: "Ceramics"}).
				Append(tt.last)

			assert.Equal(t, tt.want, order.ClassifyScan(o, ceramics))
		})
	}
}

func TestScanFlow_EntryThenExit(t *testing.T) {
	var st stamper

	o := newPendingOrder(t)

	entered, err := order.ApplyScan(o, st.next(ceramics), order.ClassifyScan(o, ceramics))
	require.NoError(t, err)
	assert.Equal(t, order.StatusInProgress, entered.Status)
	assert.Equal(t, "Ceramics", entered.CurrentSector)

	last, _ := entered.History.Last()
	assert.Equal(t, "Entry at sector Ceramics", last.Action)
	assert.Equal(t, "u-1", last.ActorID)
	assert.Equal(t, "Rita", last.ActorName)

	require.Equal(t, order.ScanExit, order.ClassifyScan(entered, ceramics))

	exited, err := order.ApplyScan(entered, st.next(ceramics), order.ScanExit)
	require.NoError(t, err)
	assert.Equal(t, order.StatusInProgress, exited.Status)
	assert.Equal(t, "Ceramics", exited.CurrentSector, "exit keeps the location")

	last, _ = exited.History.Last()
	assert.Equal(t, "Exit from sector Ceramics", last.Action)

	lastExit, ok := order.LastExit(exited)
	require.True(t, ok)
	assert.Equal(t, last, lastExit)
	assert.True(t, order.ReadyForHandoff(exited))

	// The input snapshots are untouched.
	assert.Len(t, o.History, 1)
	assert.Len(t, entered.History, 2)
	assert.Equal(t, order.StatusPending, o.Status)
}

func TestTrack_LeavesStatusAndSector(t *testing.T) {
	var st stamper

	o, err := order.Enter(newPendingOrder(t), st.next(cad), "CAD")
	require.NoError(t, err)

	tracked := order.Track(o, st.next(manager))
	assert.Equal(t, order.StatusInProgress, tracked.Status)
	assert.Equal(t, "CAD", tracked.CurrentSector)
	assert.Len(t, tracked.History, len(o.History)+1)
}

func TestEnter_RequiresSector(t *testing.T) {
	var st stamper

	_, err := order.Enter(newPendingOrder(t), st.next(manager), " ")

	var vErr *order.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "sector", vErr.Field)
}

func TestFinalizeAndReopen(t *testing.T) {
	var st stamper

	o, err := order.Enter(newPendingOrder(t), st.next(ceramics), "Ceramics")
	require.NoError(t, err)

	done := order.Finalize(o, st.next(manager), "Expedição")
	assert.Equal(t, order.StatusCompleted, done.Status)
	assert.Equal(t, "Expedição", done.CurrentSector)

	last, _ := done.History.Last()
	assert.Equal(t, order.ActionFinalized, last.Action)
	assert.Equal(t, "Expedição", last.Sector)

	delivered := order.Deliver(done, st.next(manager))
	assert.Equal(t, order.StatusDelivered, delivered.Status)

	reopened := order.Reopen(delivered, st.next(manager))
	assert.Equal(t, order.StatusInProgress, reopened.Status)
	assert.Equal(t, "Expedição", reopened.CurrentSector)

	last, _ = reopened.History.Last()
	assert.Equal(t, order.ActionReopened, last.Action)
	assert.Empty(t, last.Sector)
}

func TestApproveReject(t *testing.T) {
	var st stamper

	intake := newPendingOrder(t)
	intake.Status = order.StatusWaitingApproval

	approved, err := order.Approve(intake, st.next(manager))
	require.NoError(t, err)
	assert.Equal(t, order.StatusPending, approved.Status)

	_, err = order.Approve(approved, st.next(manager))
	assert.ErrorIs(t, err, order.ErrInvalidTransition)

	rejected, err := order.Reject(intake, st.next(manager), " no impression ")
	require.NoError(t, err)
	assert.Equal(t, order.StatusRejected, rejected.Status)

	last, _ := rejected.History.Last()
	assert.Equal(t, "Rejected: no impression", last.Action)
}

func TestUpdateLogistics(t *testing.T) {
	var st stamper

	o := newPendingOrder(t)
	due := base.Add(24 * time.Hour)

	next, err := order.UpdateLogistics(o, st.next(manager), order.LogisticsPatch{
		DueDate:      &due,
		Urgency:      new(order.UrgencyUrgent),
		ContainerRef: new("C-12"),
		Notes:        new(o.Notes),
	})
	require.NoError(t, err)

	assert.Equal(t, due, next.DueDate)
	assert.Equal(t, order.UrgencyUrgent, next.Urgency)
	assert.Equal(t, "C-12", next.ContainerRef)
	assert.Equal(t, o.TotalValue, next.TotalValue)

	last, _ := next.History.Last()
	assert.Equal(t, "Logistics updated: due date 2026-05-05, urgency urgent, container C-12", last.Action)

	_, err = order.UpdateLogistics(next, st.next(manager), order.LogisticsPatch{ContainerRef: new("C-12")})
	assert.Error(t, err)

	_, err = order.UpdateLogistics(next, st.next(manager), order.LogisticsPatch{Urgency: new(order.Urgency("whenever"))})
	assert.Error(t, err)
}

// Random walks over every transition: history only grows, earlier events never change,
// and CurrentSector always matches a fresh derivation.
func TestTransitions_HistoryAndSectorInvariants(t *testing.T) {
	actors := []identity.Actor{ceramics, cad, manager, {ID: "u-4", Name: "Ana", Sector: "Milling"}}
	rng := rand.New(rand.NewPCG(1, 2))

	for walk := range 50 {
		var st stamper

		o := newPendingOrder(t)
		if walk%2 == 0 {
			o.Status = order.StatusWaitingApproval
		}

		for step := range 40 {
			actor := actors[rng.IntN(len(actors))]
			stamp := st.next(actor)

			var (
				next *order.Order
				err  error
			)

			switch rng.IntN(8) {
			case 0, 1, 2:
				next, err = order.ApplyScan(o, stamp, order.ClassifyScan(o, actor))
			case 3:
				next, err = order.Enter(o, stamp, actor.Sector)
			case 4:
				next = order.Finalize(o, stamp, "Expedição")
			case 5:
				next = order.Reopen(o, stamp)
			case 6:
				next, err = order.Approve(o, stamp)
			case 7:
				next, err = order.UpdateLogistics(o, stamp, order.LogisticsPatch{Notes: new(fmt.Sprint(step))})
			}

			if err != nil {
				assert.Nil(t, next)
				continue
			}

			require.True(t, o.History.IsPrefixOf(next.History), "walk %d step %d", walk, step)
			require.Len(t, next.History, len(o.History)+1)
			require.NoError(t, order.VerifySector(next), "walk %d step %d", walk, step)

			o = next
		}
	}
}

func TestVerifySector_DetectsDrift(t *testing.T) {
	o := newPendingOrder(t)
	o.CurrentSector = "CAD"

	assert.ErrorIs(t, order.VerifySector(o), order.ErrSectorMismatch)
}

func TestHistory_AppendDoesNotAlias(t *testing.T) {
	h := make(order.History, 1, 8)

	a := h.Append(order.Event{Action: "a"})
	b := h.Append(order.Event{Action: "b"})

	assert.Equal(t, "a", a[1].Action)
	assert.Equal(t, "b", b[1].Action)
	assert.Len(t, h, 1)
}

func TestAttachment_Kind(t *testing.T) {
	assert.Equal(t, order.KindMesh, order.Attachment{Name: "upper_jaw.STL"}.Kind())
	assert.Equal(t, order.KindMesh, order.Attachment{Name: "scan.ply"}.Kind())
	assert.Equal(t, order.KindImage, order.Attachment{Name: "shade.jpeg"}.Kind())
	assert.Equal(t, order.KindDocument, order.Attachment{Name: "prescription.pdf"}.Kind())
	assert.Equal(t, order.KindOther, order.Attachment{Name: "README"}.Kind())
}
