package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTicketTeam(t *testing.T) {
	ticket := Ticket{WorkerID: "amy", PartnerIDs: []string{"ben", "", "cho"}}
	assert.Equal(t, []string{"amy", "ben", "cho"}, ticket.Team())

	unassigned := Ticket{}
	assert.Empty(t, unassigned.Team())

	// blank primary cell never counts as a member
	partial := Ticket{PartnerIDs: []string{"ben"}}
	assert.Equal(t, []string{"ben"}, partial.Team())
}

func TestTicketHasMember(t *testing.T) {
	ticket := Ticket{WorkerID: "amy", PartnerIDs: []string{"ben"}}
	assert.True(t, ticket.HasMember("amy"))
	assert.True(t, ticket.HasMember("ben"))
	assert.False(t, ticket.HasMember("cho"))
	assert.False(t, ticket.HasMember(""))
}

func TestTicketCreatedMonth(t *testing.T) {
	created, _ := time.Parse(CreatedAtLayout, "2026-08-05 14:30:00")
	ticket := Ticket{CreatedAt: created}
	assert.Equal(t, "2026-08", ticket.CreatedMonth())
}

func TestSplitJoinPartnerIDs(t *testing.T) {
	assert.Nil(t, SplitPartnerIDs(""))
	assert.Nil(t, SplitPartnerIDs("   "))
	assert.Equal(t, []string{"ben", "cho"}, SplitPartnerIDs("ben, cho"))
	assert.Equal(t, []string{"ben"}, SplitPartnerIDs(",ben,,"))

	assert.Equal(t, "", JoinPartnerIDs(nil))
	assert.Equal(t, "ben,cho", JoinPartnerIDs([]string{"ben", "", "cho"}))
}
