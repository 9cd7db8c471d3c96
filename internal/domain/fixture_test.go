package domain

import "testing"

// testCatalog builds a small roster with every duty code kind.
func testCatalog(t *testing.T) Catalog {
	t.Helper()
	catalog, err := NewCatalog(
		[]Duty{
			{Key: "song_leader", Name: "Song Leader", Code: "03", Service: "Worship"},
			{Key: "prayer", Name: "Opening Prayer", Code: "0", Service: "Worship"},
			{Key: "lords_supper", Name: "Lord's Supper", Code: "w"},
			{Key: "bulletin", Name: "Bulletin", Code: "m"},
		},
		[]Person{
			{Name: "Alice", Duties: []string{"song_leader", "prayer", "bulletin"}},
			{Name: "Bob", Duties: []string{"song_leader", "prayer", "lords_supper"}},
			{Name: "Carl", Duties: []string{"prayer", "lords_supper", "bulletin"}},
		},
		[]Exclusion{{A: "song_leader", B: "prayer"}},
	)
	if err != nil {
		t.Fatalf("NewCatalog() error = %v", err)
	}
	return catalog
}
