package reputation

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func auditEvent(id int, scope string) AuditEvent {
	return AuditEvent{ID: strconv.Itoa(id), Scope: scope, Action: ActionTransfer, ToUser: "u"}
}

func TestAuditLog_EvictsOldest(t *testing.T) {
	a := NewAuditLog(0)
	require.Equal(t, DefaultAuditCapacity, a.Cap())

	for i := 1; i <= DefaultAuditCapacity; i++ {
		assert.Nil(t, a.Append(auditEvent(i, "chat")))
	}
	evicted := a.Append(auditEvent(DefaultAuditCapacity+1, "chat"))
	require.NotNil(t, evicted)
	assert.Equal(t, "1", evicted.ID)
	assert.Equal(t, DefaultAuditCapacity, a.Len())

	events := a.Events()
	assert.Equal(t, "1001", events[0].ID)
	assert.Equal(t, "2", events[len(events)-1].ID)
}

func TestAuditLog_UndoAppend(t *testing.T) {
	a := NewAuditLog(3)
	for i := 1; i <= 3; i++ {
		a.Append(auditEvent(i, "chat"))
	}

	evicted := a.Append(auditEvent(4, "chat"))
	a.undoAppend(evicted)
	assert.Equal(t, []string{"3", "2", "1"}, auditIDs(a.Events()))

	a2 := NewAuditLog(3)
	a2.Append(auditEvent(1, "chat"))
	a2.undoAppend(a2.Append(auditEvent(2, "chat")))
	assert.Equal(t, []string{"1"}, auditIDs(a2.Events()))
}

func TestAuditLog_RecentFiltersScope(t *testing.T) {
	a := NewAuditLog(10)
	a.Append(auditEvent(1, "a"))
	a.Append(auditEvent(2, "b"))
	a.Append(auditEvent(3, "a"))
	a.Append(auditEvent(4, "a"))

	assert.Equal(t, []string{"4", "3", "1"}, auditIDs(a.Recent("a", 0)))
	assert.Equal(t, []string{"4", "3"}, auditIDs(a.Recent("a", 2)))
	assert.Equal(t, []string{"2"}, auditIDs(a.Recent("b", 5)))
	assert.Empty(t, a.Recent("c", 5))
}

func TestAuditLog_RestoreKeepsNewest(t *testing.T) {
	src := []AuditEvent{auditEvent(5, "chat"), auditEvent(4, "chat"), auditEvent(3, "chat")}

	a := NewAuditLog(2)
	a.Restore(src)
	assert.Equal(t, []string{"5", "4"}, auditIDs(a.Events()))

	a.Append(auditEvent(6, "chat"))
	assert.Equal(t, []string{"6", "5"}, auditIDs(a.Events()))
}

func auditIDs(events []AuditEvent) []string {
	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	return ids
}
