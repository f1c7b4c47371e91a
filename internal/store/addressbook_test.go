package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"msgwrapped/internal/domain"
)

type fixtureContact struct {
	first, last, org string
	phones           []string
	emails           []string
}

// createAddressBook writes the primary source database under dir.
func createAddressBook(t *testing.T, dir string, contacts []fixtureContact) string {
	t.Helper()
	path := filepath.Join(dir, addressBookFile)
	writeAddressBookDB(t, path, contacts)
	return path
}

// createAddressBookShard writes a per-account shard under dir/Sources/<name>/.
func createAddressBookShard(t *testing.T, dir, name string, contacts []fixtureContact) string {
	t.Helper()
	shardDir := filepath.Join(dir, "Sources", name)
	if err := os.MkdirAll(shardDir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(shardDir, addressBookFile)
	writeAddressBookDB(t, path, contacts)
	return path
}

func writeAddressBookDB(t *testing.T, path string, contacts []fixtureContact) {
	t.Helper()
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	schema := `
	CREATE TABLE ZABCDRECORD (
		Z_PK          INTEGER PRIMARY KEY,
		ZFIRSTNAME    TEXT,
		ZLASTNAME     TEXT,
		ZORGANIZATION TEXT
	);
	CREATE TABLE ZABCDPHONENUMBER (ZOWNER INTEGER, ZFULLNUMBER TEXT);
	CREATE TABLE ZABCDEMAILADDRESS (ZOWNER INTEGER, ZADDRESS TEXT);
	`
	if _, err := db.Exec(schema); err != nil {
		t.Fatal(err)
	}
	for i, c := range contacts {
		pk := int64(i + 1)
		if _, err := db.Exec(`INSERT INTO ZABCDRECORD (Z_PK, ZFIRSTNAME, ZLASTNAME, ZORGANIZATION) VALUES (?, ?, ?, ?)`,
			pk, c.first, c.last, c.org); err != nil {
			t.Fatal(err)
		}
		for _, p := range c.phones {
			if _, err := db.Exec(`INSERT INTO ZABCDPHONENUMBER (ZOWNER, ZFULLNUMBER) VALUES (?, ?)`, pk, p); err != nil {
				t.Fatal(err)
			}
		}
		for _, e := range c.emails {
			if _, err := db.Exec(`INSERT INTO ZABCDEMAILADDRESS (ZOWNER, ZADDRESS) VALUES (?, ?)`, pk, e); err != nil {
				t.Fatal(err)
			}
		}
	}
}

func TestLoadContacts_MergesShards(t *testing.T) {
	dir := t.TempDir()
	createAddressBook(t, dir, []fixtureContact{
		{first: "Alice", last: "Smith", phones: []string{"+1 555 111 2222"}},
	})
	createAddressBookShard(t, dir, "ACCOUNT1", []fixtureContact{
		{first: "Bob", last: "Jones", emails: []string{"Bob@Example.com"}},
	})

	rt := Acquire(testLogger())
	defer rt.Release()

	contacts, err := LoadContacts(context.Background(), rt, dir, testLogger())
	if err != nil {
		t.Fatalf("LoadContacts: %v", err)
	}
	if name, ok := contacts.Lookup("5551112222"); !ok || name != "Alice Smith" {
		t.Errorf("primary contact: %q ok=%v", name, ok)
	}
	if name, ok := contacts.Lookup("bob@example.com"); !ok || name != "Bob Jones" {
		t.Errorf("shard contact: %q ok=%v", name, ok)
	}
}

func TestLoadContacts_BrokenShardTolerated(t *testing.T) {
	dir := t.TempDir()
	createAddressBook(t, dir, []fixtureContact{
		{first: "Alice", phones: []string{"5551112222"}},
	})
	// A shard file that is not a database.
	shardDir := filepath.Join(dir, "Sources", "BROKEN")
	if err := os.MkdirAll(shardDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(shardDir, addressBookFile), []byte("not a database"), 0o644); err != nil {
		t.Fatal(err)
	}

	rt := Acquire(testLogger())
	defer rt.Release()

	contacts, err := LoadContacts(context.Background(), rt, dir, testLogger())
	if err != nil {
		t.Fatalf("broken shard should not abort: %v", err)
	}
	if _, ok := contacts.Lookup("5551112222"); !ok {
		t.Error("primary data should survive a broken shard")
	}
}

func TestLoadContacts_MissingPrimaryIsFatal(t *testing.T) {
	dir := t.TempDir() // directory exists, primary database does not

	rt := Acquire(testLogger())
	defer rt.Release()

	_, err := LoadContacts(context.Background(), rt, dir, testLogger())
	if err == nil {
		t.Fatal("expected error for missing primary contact store")
	}
	if !domain.IsKind(err, domain.KindLocalStorage) {
		t.Errorf("expected LocalStorage kind, got %v", err)
	}
}

func TestLoadContacts_MissingDirectoryIsFatal(t *testing.T) {
	rt := Acquire(testLogger())
	defer rt.Release()

	_, err := LoadContacts(context.Background(), rt, filepath.Join(t.TempDir(), "absent"), testLogger())
	if err == nil {
		t.Fatal("expected error when the address book directory cannot be enumerated")
	}
}

func TestHasContacts_MissingPath(t *testing.T) {
	if HasContacts(context.Background(), filepath.Join(t.TempDir(), "absent")) {
		t.Error("expected false for a missing path")
	}
}

func TestHasContacts_EmptySources(t *testing.T) {
	dir := t.TempDir()
	createAddressBook(t, dir, nil)
	if HasContacts(context.Background(), dir) {
		t.Error("expected false when no source has records")
	}
}

func TestHasContacts_RecordsPresent(t *testing.T) {
	dir := t.TempDir()
	createAddressBook(t, dir, []fixtureContact{{first: "Alice"}})
	if !HasContacts(context.Background(), dir) {
		t.Error("expected true when the primary source has a record")
	}
}

func TestHasContacts_OnlyShardHasRecords(t *testing.T) {
	dir := t.TempDir()
	createAddressBook(t, dir, nil)
	createAddressBookShard(t, dir, "ACCOUNT1", []fixtureContact{{first: "Bob"}})
	if !HasContacts(context.Background(), dir) {
		t.Error("expected true when any shard has a record")
	}
}

func TestDisplayName(t *testing.T) {
	cases := []struct {
		first, last, org, want string
	}{
		{"Alice", "Smith", "", "Alice Smith"},
		{"Alice", "", "", "Alice"},
		{"", "Smith", "", "Smith"},
		{"", "", "Acme Corp", "Acme Corp"},
		{"", "", "", ""},
	}
	for _, c := range cases {
		if got := displayName(c.first, c.last, c.org); got != c.want {
			t.Errorf("displayName(%q, %q, %q) = %q, want %q", c.first, c.last, c.org, got, c.want)
		}
	}
}
