package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestIsMember(t *testing.T) {
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()
	outsider := primitive.NewObjectID()

	p := Project{
		Admin:   admin,
		Members: []primitive.ObjectID{member},
	}

	if !p.IsMember(admin) {
		t.Error("admin should count as a member even when not listed")
	}
	if !p.IsMember(member) {
		t.Error("listed member not recognized")
	}
	if p.IsMember(outsider) {
		t.Error("outsider recognized as member")
	}
}

func TestIsAdmin(t *testing.T) {
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()

	p := Project{Admin: admin, Members: []primitive.ObjectID{admin, member}}

	if !p.IsAdmin(admin) {
		t.Error("admin not recognized")
	}
	if p.IsAdmin(member) {
		t.Error("member recognized as admin")
	}
}

func TestParticipants(t *testing.T) {
	admin := primitive.NewObjectID()
	member := primitive.NewObjectID()

	p := Project{
		Admin: admin,
		// Admin listed twice: once as admin and once in members.
		Members: []primitive.ObjectID{admin, member, member},
	}

	got := p.Participants()
	if len(got) != 2 {
		t.Fatalf("Participants() = %d ids, want 2", len(got))
	}
	if got[0] != admin {
		t.Error("admin should come first")
	}
	if got[1] != member {
		t.Error("member missing from participants")
	}
}

func TestParticipantsEmpty(t *testing.T) {
	var p Project
	if got := p.Participants(); len(got) != 0 {
		t.Fatalf("Participants() on zero project = %d ids, want 0", len(got))
	}
}
