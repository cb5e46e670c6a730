package matchmaking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkAccepted(t *testing.T) {
	s := &MatchSession{PlayerIDs: []string{"a", "b"}}

	assert.False(t, s.MarkAccepted("a"))
	assert.False(t, s.MarkAccepted("a"), "repeat accept is a no-op")
	assert.Equal(t, []string{"a"}, s.AcceptedBy)
	assert.True(t, s.MarkAccepted("b"))
}

func TestAllAccepted_EmptySession(t *testing.T) {
	assert.False(t, (&MatchSession{}).AllAccepted())
}

func TestView_NeverNilAcceptedBy(t *testing.T) {
	s := &MatchSession{ID: "s1", PlayerIDs: []string{"a", "b"}}
	v := s.View()
	assert.Equal(t, "s1", v.SessionID)
	assert.NotNil(t, v.AcceptedBy)
	assert.Empty(t, v.AcceptedBy)
}

func TestClone_DoesNotAlias(t *testing.T) {
	s := &MatchSession{PlayerIDs: []string{"a"}, AcceptedBy: []string{"a"}}
	c := s.Clone()
	c.AcceptedBy[0] = "z"
	assert.Equal(t, "a", s.AcceptedBy[0])
}

func TestErrorHelpers(t *testing.T) {
	assert.True(t, IsValidation(&ValidationError{Field: "gameId", Reason: "required"}))
	assert.True(t, IsStorage(NewStorageError("op", assert.AnError)))
	assert.ErrorIs(t, NewStorageError("op", assert.AnError), assert.AnError)
	assert.Equal(t, "invalid gameId: required", (&ValidationError{Field: "gameId", Reason: "required"}).Error())
}
