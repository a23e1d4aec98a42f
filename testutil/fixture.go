// Package testutil provides fixtures and assertions shared by the tests of
// the minter packages and the CLI.
package testutil

import (
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/arthur-debert/pidminter/storage"
)

//go:embed testdata/minter.json
var minterFixture []byte

// MinterData describes the minter stored in testdata/minter.json.
type MinterData struct {
	Path string

	BaseCount        int
	CombinedCount    int
	MaxCombinedCount int
	TotalCount       int
	MaxPerCounter    int
	Template         string
	Mask             string
	AtLast           string
	ActiveCounters   []string
	InactiveCounters []string

	// Tops and Values are index-aligned: counter n is (Tops[n], Values[n]).
	Tops   []int
	Values []int

	Records storage.Records
}

type fixtureData struct {
	Records storage.Records `json:"records"`
}

// LoadMinter copies the fixture minter into a JSON collection file in a
// fresh temporary directory and describes its contents.
func LoadMinter(t *testing.T) *MinterData {
	t.Helper()

	var fixture fixtureData
	if err := json.Unmarshal(minterFixture, &fixture); err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}

	path := filepath.Join(t.TempDir(), "minter.json")
	if err := os.WriteFile(path, minterFixture, 0644); err != nil {
		t.Fatalf("failed to write fixture: %v", err)
	}

	return &MinterData{
		Path:             path,
		BaseCount:        100,
		CombinedCount:    311,
		MaxCombinedCount: 870,
		TotalCount:       870,
		MaxPerCounter:    290,
		Template:         "fk4{eedk}",
		Mask:             "eedk",
		AtLast:           "add3",
		ActiveCounters:   []string{"c0", "c2"},
		InactiveCounters: []string{"c1"},
		Tops:             []int{290, 290, 290},
		Values:           []int{17, 290, 4},
		Records:          fixture.Records,
	}
}

// OpenCollection opens the fixture's JSON collection.
func (d *MinterData) OpenCollection(t *testing.T) storage.Collection {
	t.Helper()
	c, err := storage.OpenJSON(d.Path)
	if err != nil {
		t.Fatalf("failed to open fixture collection: %v", err)
	}
	return c
}
