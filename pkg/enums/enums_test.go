package enums

import "testing"

func TestParseRole(t *testing.T) {
	cases := map[string]Role{
		"admin":       RoleAdmin,
		" Store_User": RoleStoreUser,
	}
	for raw, want := range cases {
		got, err := ParseRole(raw)
		if err != nil {
			t.Fatalf("ParseRole(%q): %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseRole(%q) = %q want %q", raw, got, want)
		}
	}
	if _, err := ParseRole("manager"); err == nil {
		t.Fatal("expected unknown role to fail")
	}
	if Role("root").IsValid() {
		t.Fatal("root should not be valid")
	}
}

func TestParseRecordStatus(t *testing.T) {
	got, err := ParseRecordStatus("Inactive")
	if err != nil || got != StatusInactive {
		t.Fatalf("got %q, %v", got, err)
	}
	if _, err := ParseRecordStatus("archived"); err == nil {
		t.Fatal("expected archived to be rejected")
	}
}
