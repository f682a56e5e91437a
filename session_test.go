package tally

import "testing"

func TestStaticSession(t *testing.T) {
	anon := StaticSession{}
	if anon.IsAuthenticated() {
		t.Error("empty session should not be authenticated")
	}
	if _, ok := anon.UserID(); ok {
		t.Error("empty session should not expose an identity")
	}

	user := StaticSession{ID: "user-1"}
	if !user.IsAuthenticated() {
		t.Error("session with an identity should be authenticated")
	}
	id, ok := user.UserID()
	if !ok || id != "user-1" {
		t.Errorf("UserID() = %q, %v", id, ok)
	}
}
